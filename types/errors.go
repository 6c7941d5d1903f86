// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "errors"

// Transaction execution errors (§4.5, §7). These are recorded against
// the transaction and never retried; only InsufficientFundsForFee and
// SignatureFailure skip the fee charge.
var (
	ErrSignatureFailure         = errors.New("signature verification failed")
	ErrInsufficientFundsForFee  = errors.New("insufficient funds for fee")
	ErrAccountNotFound          = errors.New("account not found")
	ErrInvalidInstruction       = errors.New("invalid instruction")
	ErrComputeBudgetExceeded    = errors.New("compute budget exceeded")
	ErrBlockhashNotFound        = errors.New("blockhash not found")
	ErrAlreadyProcessed         = errors.New("transaction already processed")
	ErrTooManyAccounts          = errors.New("too many accounts referenced")
	ErrBankFrozen               = errors.New("bank is frozen")
)
