// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/luxfi/valnode/bootstrap"
	"github.com/luxfi/valnode/config"
	"github.com/luxfi/valnode/log"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/rpcclient"
	"github.com/luxfi/valnode/runtime"
)

const defaultMaxFECDepth = 128

func runCmd() *cobra.Command {
	var configPath string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap and run the validator node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "valnode.yaml", "path to the node configuration file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve Prometheus metrics on")
	return cmd
}

func run(configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lg := log.New(log.WithLevel(cfg.LogLevel), log.WithFile(cfg.LogFile, 100, 5, 28), log.WithStdout())
	defer lg.Sync()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	go serveMetrics(metricsAddr, reg, lg)

	var rpc *rpcclient.Client
	if len(cfg.RPCEndpoints) > 0 {
		rpc = rpcclient.New(cfg.RPCEndpoints, cfg.RPCTimeout, lg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bootResult *bootstrap.Result
	progress := func(phase bootstrap.Phase) { lg.Info("bootstrap phase", "phase", string(phase)) }
	bootResult, err = bootstrap.Run(ctx, bootstrap.Deps{Config: cfg, Log: lg, Metrics: m, RPC: rpc}, progress)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if bootResult.Submitter != nil {
		bootResult.Submitter.SetTowerDir(cfg.TowerDir)
	}

	rt := runtime.New(bootResult, cfg.ShredVersion, defaultMaxFECDepth, m, lg)
	if err := rt.Start(ctx); err != nil {
		return fmt.Errorf("starting runtime: %w", err)
	}
	lg.Info("validator node ready", "start_slot", bootResult.StartSlot)

	<-ctx.Done()
	lg.Info("shutting down")
	return rt.Stop()
}

func serveMetrics(addr string, reg *metrics.Registry, lg log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Warn("metrics server stopped", "err", err)
	}
}
