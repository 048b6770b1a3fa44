// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	DefaultListenAddress = ":8080"
	// ServiceName is reported through the gRPC health service
	ServiceName = "metavault.v1.Vault"
)

type Config struct {
	Logger        *slog.Logger
	Node          Node
	ListenAddress string
}

// Server is the JSON API over HTTP/1.1 and h2c
type Server struct {
	config     Config
	logger     *slog.Logger
	node       Node
	httpServer *http.Server
	listener   net.Listener
	stopCh     chan struct{}
	mu         sync.Mutex
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Server{
		config: cfg,
		logger: logger.With("component", "api"),
		node:   cfg.Node,
	}
}

// Handler returns the routing handler without starting a listener
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/vesting/schedules/{id}", s.handleGetSchedule)
	mux.HandleFunc("POST /api/v1/vesting/schedules", s.handleCreateSchedule)
	mux.HandleFunc("POST /api/v1/vesting/schedules/{id}/claim", s.handleClaim)
	mux.HandleFunc("GET /api/v1/token/balances/{address}", s.handleTokenBalance)
	mux.HandleFunc("GET /api/v1/crates/categories", s.handleCategories)
	mux.HandleFunc("POST /api/v1/crates/open", s.handleOpenCrate)
	mux.HandleFunc("POST /api/v1/crates/mint-batch", s.handleMintBatch)
	mux.HandleFunc("GET /api/v1/items/{address}", s.handleItems)
	mux.HandleFunc("GET /api/v1/collectibles/{id}", s.handleCollectible)
	mux.HandleFunc("GET /api/v1/receipts", s.handleReceipts)
	compress1KB := connect.WithCompressMinBytes(1024)
	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(ServiceName),
			compress1KB,
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
			compress1KB,
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1Alpha(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
			compress1KB,
		),
	)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Start binds the listener and serves in the background until Stop is
// called or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	listenConfig := net.ListenConfig{Control: socketControl}
	ln, err := listenConfig.Listen(ctx, "tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	stopCh := make(chan struct{})
	s.httpServer = server
	s.listener = ln
	s.stopCh = stopCh
	s.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API listener started on " + ln.Addr().String())

	// Monitor context for cancellation
	go func() {
		select {
		case <-ctx.Done():
		case <-stopCh:
			return
		}
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
