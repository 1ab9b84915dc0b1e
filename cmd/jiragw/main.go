// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// jiragw bridges the p4dtg defect-tracking replication engine to a
// JIRA server: it terminates the engine's TCP protocol and translates
// requests into JIRA REST calls.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jiragw/lib/config"
	"github.com/bureau-foundation/jiragw/lib/gateway"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jiragw: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listenAddress string
		configPath    string
		batchSize     int
		debug         bool
	)
	pflag.StringVar(&listenAddress, "listen", "127.0.0.1:51666", "address to accept replication engine connections on")
	pflag.StringVar(&configPath, "config", "jiragw.yaml", "path to the gateway configuration file")
	pflag.IntVar(&batchSize, "batch-size", 100, "page size for defect queries")
	pflag.BoolVar(&debug, "debug", false, "enable debug logging, including request and response traffic")
	pflag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := gateway.NewHandler(gateway.HandlerOptions{
		Config:    cfg,
		BatchSize: batchSize,
		Logger:    logger,
	})
	server := gateway.NewServer(listenAddress, handler, cfg.SocketTimeout(), logger)
	return server.Serve(ctx)
}
