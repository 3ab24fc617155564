//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the answer API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			s, err := a.buildStack(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			srv, err := server.New(s.runner,
				server.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
				server.WithMetricsHandler(s.metrics.Handler()),
				server.WithAgentInfo(s.agent.Info(), s.agent.Registry().Names()...),
			)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return listen(ctx, &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return cmd
}

// listen serves until ctx is done, then shuts hs down gracefully.
func listen(ctx context.Context, hs *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("scibot: listening on %s", hs.Addr)
		errCh <- hs.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Infof("scibot: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
