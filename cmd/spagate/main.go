// Copyright 2023 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// spagate serves an SPA build directory, rendering the environment name and
// API base URL into the SPA's index document.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thediveo/spagate"
	"github.com/thediveo/spagate/internal/config"
	"github.com/thediveo/spagate/internal/httpx"
	"github.com/thediveo/spagate/internal/metrics"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	root := os.DirFS(cfg.StaticDir)
	if _, err := fs.Stat(root, cfg.Index); err != nil {
		// Not fatal: route-like requests get a visible error page until the
		// SPA build shows up.
		logger.Warn("index template not available",
			"index", filepath.Join(cfg.StaticDir, cfg.Index), "error", err)
	}
	gateway := spagate.New(root, cfg.Runtime,
		spagate.WithIndex(cfg.Index),
		spagate.WithLogger(logger))

	registry := prometheus.NewRegistry()
	servers := []*http.Server{newServer(cfg.Addr, newHandler(gateway, registry, logger))}
	if cfg.OpsAddr != "" {
		servers = append(servers, newServer(cfg.OpsAddr, newOpsHandler(registry)))
	}

	errCh := make(chan error, len(servers))
	for _, server := range servers {
		go func(server *http.Server) {
			logger.Info("server started", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(server)
	}
	logger.Info("gateway serving",
		"static_dir", cfg.StaticDir,
		"env", cfg.Runtime.Env,
		"api_base_url", cfg.Runtime.APIBaseURL)

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	for _, server := range servers {
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
			err = fmt.Errorf("shutdown failed: %w", shutdownErr)
		}
	}
	return err
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// newHandler returns the instrumented SPA gateway handler. Every path belongs
// to the SPA; metrics about it are registered with registry.
func newHandler(gateway *spagate.Gateway, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	m := metrics.New(registry)
	var handler http.Handler = gateway
	handler = m.Middleware(func(path string) string {
		return gateway.Route(path).String()
	}, handler)
	handler = httpx.WithRequestID(handler)
	handler = httpx.WithLogging(logger, handler)
	return handler
}

// newOpsHandler returns the handler of the separate operations listener,
// serving health and metrics endpoints without taking any paths away from
// the SPA.
func newOpsHandler(registry *prometheus.Registry) http.Handler {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}
