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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/metavault"
	"github.com/blinklabs-io/metavault/event/sink"
	"github.com/blinklabs-io/metavault/internal/config"
	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrOwnerRequired = errors.New("owner address is required")

// Options translates the loaded configuration into node options. Event sinks
// are included only when withSinks is set
func Options(
	cfg *config.Config,
	logger *slog.Logger,
	withSinks bool,
) ([]metavault.ConfigOptionFunc, error) {
	if cfg.Owner == "" {
		return nil, ErrOwnerRequired
	}
	price, err := units.Parse(cfg.CratePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid crate price: %w", err)
	}
	supply, err := units.Parse(cfg.InitialSupply)
	if err != nil {
		return nil, fmt.Errorf("invalid initial supply: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	opts := []metavault.ConfigOptionFunc{
		metavault.WithLogger(logger),
		metavault.WithOwner(cfg.OwnerAddress()),
		metavault.WithDatabasePath(cfg.DatabasePath),
		metavault.WithBlobCacheSize(cfg.BlobCacheSize),
		metavault.WithCratePrice(price),
		metavault.WithInitialSupply(supply),
		metavault.WithBaseURI(cfg.BaseURI),
		metavault.WithShutdownTimeout(shutdownTimeout),
		metavault.WithTracing(cfg.Tracing),
		metavault.WithTracingStdout(cfg.TracingStdout),
	}
	if len(cfg.Categories) > 0 {
		categories := make([]loot.Category, 0, len(cfg.Categories))
		for _, c := range cfg.Categories {
			categories = append(categories, loot.Category{
				Name:      c.Name,
				ID:        c.ID,
				Weight:    c.Weight,
				MaxSupply: c.MaxSupply,
			})
		}
		opts = append(opts, metavault.WithCategories(categories))
	}
	if withSinks {
		if cfg.RedisAddr != "" {
			opts = append(opts, metavault.WithEventSink(
				"redis",
				sink.NewRedisStream(
					sink.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
					cfg.RedisStream,
					cfg.RedisMaxLen,
				),
			))
		}
		if len(cfg.KafkaBrokers) > 0 {
			opts = append(opts, metavault.WithEventSink(
				"kafka",
				sink.NewKafka(sink.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)),
			))
		}
	}
	return opts, nil
}

// Open builds and opens a node for one-shot commands. The caller must Stop it
func Open(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*metavault.Node, error) {
	opts, err := Options(cfg, logger, true)
	if err != nil {
		return nil, err
	}
	n, err := metavault.New(metavault.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Open(ctx); err != nil {
		_ = n.Stop()
		return nil, err
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := Options(cfg, logger, true)
	if err != nil {
		return err
	}
	shutdownTimeout, _ := time.ParseDuration(cfg.ShutdownTimeout)
	if cfg.ApiPort > 0 {
		opts = append(opts, metavault.WithApiListenAddress(
			fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
		))
	}
	// Enable metrics with default prometheus registry
	opts = append(opts, metavault.WithPrometheusRegistry(prometheus.DefaultRegisterer))
	n, err := metavault.New(metavault.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
			}
		}()
	}
	stopMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		errChan <- n.Run(signalCtx)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		stopMetrics()
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errChan:
		stopMetrics()
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error", stopErr,
			)
		}
		if err != nil {
			logger.Error("node error", "error", err)
		}
		return err
	}
}
