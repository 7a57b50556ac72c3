// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the Prometheus registry over HTTP on a local debug
// address. It is optional: acquisition runs identically without it.
type Server struct {
	registry *prometheus.Registry
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates a metrics server for the given registry.
func NewServer(registry *prometheus.Registry, logger *slog.Logger) *Server {
	return &Server{registry: registry, logger: logger}
}

// ListenAndServe serves /metrics on address until ctx is cancelled.
// Returns nil on graceful shutdown.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("metric: listening on %s: %w", address, err)
	}

	s.server = &http.Server{Handler: mux}
	s.logger.Info("metrics listener up", "address", listener.Addr().String())

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- s.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metric: shutdown: %w", err)
		}
		<-serveDone
		return nil
	case err := <-serveDone:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metric: serving on %s: %w", address, err)
	}
}
