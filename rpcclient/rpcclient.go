// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpcclient implements the validator's two fallback RPC
// calls: getLatestBlockhash (§4.9 vote-submitter fallback) and
// getLeaderSchedule (§6.5). Both are advisory collaborators — a
// shape mismatch or HTTP failure is logged and the caller proceeds
// degraded (§7).
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mr-tron/base58"

	"github.com/luxfi/valnode/log"
	"github.com/luxfi/valnode/types"
)

// Client is a JSON-RPC client over one or more configured endpoints,
// retrying across endpoints with exponential backoff (§7 "transient
// network / RPC ... errors: logged, retried with next endpoint").
type Client struct {
	endpoints []string
	http      *http.Client
	log       log.Logger
}

// New creates a Client cycling through endpoints in order.
func New(endpoints []string, timeout time.Duration, lg log.Logger) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
		log:       lg,
	}
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// call posts req to each endpoint in turn, each attempt wrapped in an
// exponential backoff and bounded by the per-request timeout given to
// New (config's RPCTimeout defaults to 30s)
// (§5 "RPC calls during bootstrap use a wall-clock timeout, e.g. 30s").
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	var lastErr error
	for _, endpoint := range c.endpoints {
		reqBody, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
		if err != nil {
			return nil, err
		}

		bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		var raw json.RawMessage
		err = backoff.Retry(func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
			if err != nil {
				return backoff.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")
			resp, err := c.http.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("rpcclient: %s returned status %d", endpoint, resp.StatusCode)
			}
			var rpcResp jsonRPCResponse
			if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
				return backoff.Permanent(err)
			}
			if rpcResp.Error != nil {
				return backoff.Permanent(fmt.Errorf("rpcclient: %s", rpcResp.Error.Message))
			}
			raw = rpcResp.Result
			return nil
		}, bo)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if c.log != nil {
			c.log.Warn("rpc call failed, trying next endpoint", "method", method, "endpoint", endpoint, "err", err)
		}
	}
	return nil, lastErr
}

// GetLatestBlockhash is the vote submitter's fallback path while the
// bank has not yet been seeded during bootstrap (§4.9).
func (c *Client) GetLatestBlockhash(ctx context.Context) (types.Hash, error) {
	raw, err := c.call(ctx, "getLatestBlockhash", nil)
	if err != nil {
		var zero types.Hash
		return zero, err
	}
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		var zero types.Hash
		return zero, fmt.Errorf("rpcclient: unexpected getLatestBlockhash shape: %w", err)
	}
	return decodeHash(result.Value.Blockhash)
}

// GetLeaderSchedule fetches the leader schedule for slot's epoch
// (§6.5). The result shape is pubkey -> [slot_offsets].
func (c *Client) GetLeaderSchedule(ctx context.Context, slot types.Slot) (map[string][]uint64, error) {
	raw, err := c.call(ctx, "getLeaderSchedule", []interface{}{slot})
	if err != nil {
		return nil, err
	}
	var result map[string][]uint64
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("rpcclient: unexpected getLeaderSchedule shape: %w", err)
	}
	return result, nil
}

func decodeHash(s string) (types.Hash, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		var zero types.Hash
		return zero, err
	}
	return types.HashFromBytes(raw)
}
