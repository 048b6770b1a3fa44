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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/api"
	"github.com/blinklabs-io/metavault/collectible"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/event/sink"
	"github.com/blinklabs-io/metavault/item"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/token"
	"github.com/blinklabs-io/metavault/vesting"
	"github.com/ethereum/go-ethereum/common"
)

type Node struct {
	config        Config
	db            *database.Database
	eventBus      *event.EventBus
	registry      *access.Registry
	token         *token.Token
	collectible   *collectible.Collectible
	items         *item.Ledger
	distributor   *loot.Distributor
	vault         *vesting.Engine
	apiServer     *api.Server
	sinks         []*sink.Sink
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	addresses     Addresses
	openOnce      sync.Once
	openErr       error
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n := &Node{
		config:    cfg,
		done:      make(chan struct{}),
		addresses: ContractAddresses(cfg.owner),
	}
	return n, nil
}

// Open loads the database and wires the engines. A fresh database is
// deployed with the configured owner, supply, price and categories
func (n *Node) Open(ctx context.Context) error {
	n.openOnce.Do(func() {
		n.openErr = n.open(ctx)
	})
	return n.openErr
}

func (n *Node) open(ctx context.Context) error {
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	db, err := database.New(&database.Config{
		DataDir:       n.config.dataDir,
		Logger:        n.config.logger,
		PromRegistry:  n.config.promRegistry,
		BlobCacheSize: n.config.blobCacheSize,
	})
	if err != nil {
		var tsErr database.CommitTimestampError
		if errors.As(err, &tsErr) {
			n.config.logger.Error(
				"database stores are out of sync and need recovery",
				"component", "node",
				"error", err,
			)
		}
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	n.registry = access.New(n.db, n.config.clock, n.eventBus, n.config.logger)
	n.token = token.New(token.Config{
		DB:           n.db,
		Registry:     n.registry,
		Clock:        n.config.clock,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Address:      n.addresses.Token,
	})
	n.collectible = collectible.New(collectible.Config{
		DB:       n.db,
		Registry: n.registry,
		Clock:    n.config.clock,
		EventBus: n.eventBus,
		Logger:   n.config.logger,
		Address:  n.addresses.Collectible,
	})
	n.items = item.New(item.Config{
		DB:           n.db,
		Registry:     n.registry,
		Clock:        n.config.clock,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Address:      n.addresses.Items,
	})
	n.distributor = loot.New(loot.Config{
		DB:           n.db,
		Registry:     n.registry,
		Items:        n.items,
		Clock:        n.config.clock,
		Random:       n.config.random,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Address:      n.addresses.Distributor,
	})
	n.vault = vesting.New(vesting.Config{
		DB:           n.db,
		Authorizer:   n.registry,
		Ledger:       n.token,
		Clock:        n.config.clock,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Address:      n.addresses.Vault,
		Admin:        n.config.owner,
	})
	if err := n.deploy(ctx); err != nil {
		return err
	}
	for _, s := range n.config.sinks {
		eventSink := sink.New(sink.Config{
			Publisher:    s.publisher,
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
			Name:         s.name,
		})
		eventSink.Register(n.eventBus)
		n.sinks = append(n.sinks, eventSink)
	}
	return nil
}

// Run opens the node, starts the API when configured and blocks until Stop
func (n *Node) Run(ctx context.Context) error {
	if err := n.Open(ctx); err != nil {
		return err
	}
	if n.config.apiListenAddress != "" {
		n.apiServer = api.New(api.Config{
			ListenAddress: n.config.apiListenAddress,
			Logger:        n.config.logger,
			Node:          n,
		})
		if err := n.apiServer.Start(ctx); err != nil {
			return fmt.Errorf("start API server: %w", err)
		}
	}
	n.config.logger.Info(
		"metavault ready",
		"component", "node",
		"owner", n.config.owner.Hex(),
	)
	// Wait for shutdown signal
	<-n.done
	return nil
}

// Stop shuts the node down. It is safe to call more than once
func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: stop accepting requests
	if n.apiServer != nil {
		if stopErr := n.apiServer.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("API shutdown: %w", stopErr))
		}
	}

	// Phase 2: drain events to the sinks
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	for _, s := range n.sinks {
		s.Close()
	}

	// Phase 3: close storage
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	close(n.done)
	return err
}

func (n *Node) Addresses() Addresses {
	return n.addresses
}

func (n *Node) Owner() common.Address {
	return n.config.owner
}

func (n *Node) Database() *database.Database {
	return n.db
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Registry() *access.Registry {
	return n.registry
}

func (n *Node) TokenLedger() *token.Token {
	return n.token
}

func (n *Node) Collectibles() *collectible.Collectible {
	return n.collectible
}

func (n *Node) Items() *item.Ledger {
	return n.items
}

func (n *Node) Distributor() *loot.Distributor {
	return n.distributor
}

func (n *Node) Vault() *vesting.Engine {
	return n.vault
}
