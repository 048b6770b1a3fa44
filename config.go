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

package metavault

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/event/sink"
	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/random"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBaseURI         = "ipfs://metaverse/"
	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultInitialSupply is 100,000,000 tokens in base units
var DefaultInitialSupply = func() *uint256.Int {
	ret, err := units.Parse("100000000")
	if err != nil {
		panic(err)
	}
	return ret
}()

type namedSink struct {
	publisher sink.Publisher
	name      string
}

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	clock            clock.Clock
	random           random.Source
	cratePrice       *uint256.Int
	initialSupply    *uint256.Int
	dataDir          string
	baseURI          string
	apiListenAddress string
	categories       []loot.Category
	sinks            []namedSink
	blobCacheSize    uint64
	shutdownTimeout  time.Duration
	owner            common.Address
	tracing          bool
	tracingStdout    bool
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new metavault config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		clock:           clock.System{},
		random:          random.Keccak{},
		cratePrice:      loot.DefaultPrice,
		initialSupply:   DefaultInitialSupply,
		baseURI:         DefaultBaseURI,
		categories:      loot.DefaultCategories(),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *Config) validate() error {
	if c.owner == (common.Address{}) {
		return errors.New("owner address is required")
	}
	if c.cratePrice == nil || c.cratePrice.IsZero() {
		return errors.New("crate price must be positive")
	}
	if c.initialSupply == nil {
		return errors.New("initial supply is required")
	}
	if err := loot.ValidateCategories(c.categories); err != nil {
		return fmt.Errorf("invalid categories: %w", err)
	}
	return nil
}

// WithDatabasePath specifies the persistent data directory to use. An empty
// path keeps all state in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobCacheSize sets the block cache size of the blob store
func WithBlobCacheSize(size uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.blobCacheSize = size
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithOwner specifies the account that deploys and administers every
// contract
func WithOwner(owner common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithCratePrice sets the price of one crate in wei. It only applies when
// the database is first deployed
func WithCratePrice(price *uint256.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.cratePrice = price
	}
}

// WithCategories sets the loot categories. They only apply when the database
// is first deployed
func WithCategories(categories []loot.Category) ConfigOptionFunc {
	return func(c *Config) {
		c.categories = categories
	}
}

// WithInitialSupply sets the token amount minted to the owner at deployment
func WithInitialSupply(supply *uint256.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.initialSupply = supply
	}
}

func WithBaseURI(baseURI string) ConfigOptionFunc {
	return func(c *Config) {
		c.baseURI = baseURI
	}
}

// WithClock replaces the wall clock, mostly for tests and simulation
func WithClock(clk clock.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clk
	}
}

// WithRandomSource replaces the crate draw source
func WithRandomSource(src random.Source) ConfigOptionFunc {
	return func(c *Config) {
		c.random = src
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithApiListenAddress enables the HTTP API on the given address
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithEventSink forwards every domain event to publisher
func WithEventSink(name string, publisher sink.Publisher) ConfigOptionFunc {
	return func(c *Config) {
		c.sinks = append(c.sinks, namedSink{name: name, publisher: publisher})
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
