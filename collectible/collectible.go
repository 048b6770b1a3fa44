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

// Package collectible implements the non-fungible "Metaverse Item" ledger.
package collectible

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/database/models"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const (
	Name      = "Metaverse Item"
	Symbol    = "MVI"
	MaxSupply = 10000
	// RoyaltyBasisPoints is paid to the original mintee on every sale
	RoyaltyBasisPoints = 500
	basisPoints        = 10000
)

var (
	ErrZeroAddress    = errors.New("zero address")
	ErrMaxSupply      = errors.New("max supply reached")
	ErrNotFound       = errors.New("token does not exist")
	ErrNotOwner       = errors.New("caller is not the token owner")
	ErrNotInitialized = errors.New("collectible not initialized")
)

var tracer = otel.Tracer("github.com/blinklabs-io/metavault/collectible")

type Config struct {
	DB       *database.Database
	Registry *access.Registry
	Clock    clock.Clock
	EventBus *event.EventBus
	Logger   *slog.Logger
	Address  common.Address
}

type Collectible struct {
	db       *database.Database
	registry *access.Registry
	clock    clock.Clock
	eventBus *event.EventBus
	logger   *slog.Logger
	address  common.Address
}

func New(cfg Config) *Collectible {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	return &Collectible{
		db:       cfg.DB,
		registry: cfg.Registry,
		clock:    cfg.Clock,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger.With("component", "collectible"),
		address:  cfg.Address,
	}
}

func (c *Collectible) Address() common.Address {
	return c.address
}

func (c *Collectible) Name() string {
	return Name
}

func (c *Collectible) Symbol() string {
	return Symbol
}

// Initialize stores the base URI. It is only used while deploying
func (c *Collectible) Initialize(baseURI string, txn *database.Txn) error {
	return c.db.SetCollectibleConfig(&models.CollectibleConfig{
		Contract: c.address.Bytes(),
		BaseURI:  baseURI,
	}, txn)
}

func (c *Collectible) config(txn *database.Txn) (*models.CollectibleConfig, error) {
	cfg, err := c.db.CollectibleConfig(c.address, txn)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func (c *Collectible) TotalSupply(txn *database.Txn) (uint64, error) {
	cfg, err := c.config(txn)
	if err != nil {
		return 0, err
	}
	return cfg.TotalSupply, nil
}

func (c *Collectible) BaseURI(txn *database.Txn) (string, error) {
	cfg, err := c.config(txn)
	if err != nil {
		return "", err
	}
	return cfg.BaseURI, nil
}

// Mint creates the next token for to and returns its id. Ids start at 1
func (c *Collectible) Mint(
	ctx context.Context,
	minter, to common.Address,
	txn *database.Txn,
) (uint64, error) {
	ctx, span := tracer.Start(ctx, "collectible.Mint")
	defer span.End()
	tokenID, err := c.mint(ctx, minter, to, txn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return tokenID, err
}

func (c *Collectible) mint(
	ctx context.Context,
	minter, to common.Address,
	txn *database.Txn,
) (uint64, error) {
	if err := reentrancy.Check(ctx); err != nil {
		return 0, err
	}
	if to == (common.Address{}) {
		return 0, fmt.Errorf("mint to %s: %w", to.Hex(), ErrZeroAddress)
	}
	now := c.clock.Now()
	var tokenID uint64
	op := database.Operation{Name: "collectible.mint", Caller: minter, Timestamp: now.Unix()}
	err := c.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := c.registry.RequireRole(c.address, access.MinterRole, minter, txn); err != nil {
			return nil, err
		}
		cfg, err := c.config(txn)
		if err != nil {
			return nil, err
		}
		if cfg.TotalSupply >= MaxSupply {
			return nil, ErrMaxSupply
		}
		cfg.TotalSupply++
		tokenID = cfg.TotalSupply
		if err := c.db.SetCollectibleConfig(cfg, txn); err != nil {
			return nil, err
		}
		if err := c.db.SetCollectible(&models.Collectible{
			Contract:         c.address.Bytes(),
			Owner:            to.Bytes(),
			RoyaltyRecipient: to.Bytes(),
			TokenID:          tokenID,
		}, txn); err != nil {
			return nil, err
		}
		evt := event.CollectibleMintedEvent{Contract: c.address, To: to, TokenID: tokenID}
		if c.eventBus != nil {
			txn.OnCommit(func() {
				c.eventBus.Publish(
					event.CollectibleMintedEventType,
					event.NewEvent(event.CollectibleMintedEventType, now, evt),
				)
			})
		}
		return evt, nil
	})
	if err != nil {
		return 0, err
	}
	c.logger.Info("minted collectible", "token_id", tokenID, "to", to.Hex())
	return tokenID, nil
}

func (c *Collectible) token(tokenID uint64, txn *database.Txn) (*models.Collectible, error) {
	tmp, err := c.db.Collectible(c.address, tokenID, txn)
	if err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, fmt.Errorf("token %d: %w", tokenID, ErrNotFound)
	}
	return tmp, nil
}

func (c *Collectible) OwnerOf(tokenID uint64, txn *database.Txn) (common.Address, error) {
	tmp, err := c.token(tokenID, txn)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(tmp.Owner), nil
}

func (c *Collectible) BalanceOf(owner common.Address, txn *database.Txn) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, ErrZeroAddress
	}
	return c.db.CollectibleCount(c.address, owner, txn)
}

// TokenURI is the base URI followed by the decimal id and ".json"
func (c *Collectible) TokenURI(tokenID uint64, txn *database.Txn) (string, error) {
	if _, err := c.token(tokenID, txn); err != nil {
		return "", err
	}
	baseURI, err := c.BaseURI(txn)
	if err != nil {
		return "", err
	}
	return baseURI + strconv.FormatUint(tokenID, 10) + ".json", nil
}

// SetBaseURI replaces the base URI. The sender must be an admin
func (c *Collectible) SetBaseURI(
	ctx context.Context,
	sender common.Address,
	baseURI string,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	op := database.Operation{Name: "collectible.set_base_uri", Caller: sender, Timestamp: c.clock.Now().Unix()}
	return c.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := c.registry.RequireRole(c.address, access.AdminRole, sender, txn); err != nil {
			return nil, err
		}
		cfg, err := c.config(txn)
		if err != nil {
			return nil, err
		}
		cfg.BaseURI = baseURI
		return baseURI, c.db.SetCollectibleConfig(cfg, txn)
	})
}

// Transfer moves a token owned by from to a new owner. The royalty recipient
// stays with the original mintee
func (c *Collectible) Transfer(
	ctx context.Context,
	from, to common.Address,
	tokenID uint64,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), ErrZeroAddress)
	}
	op := database.Operation{Name: "collectible.transfer", Caller: from, Timestamp: c.clock.Now().Unix()}
	return c.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		tmp, err := c.token(tokenID, txn)
		if err != nil {
			return nil, err
		}
		if common.BytesToAddress(tmp.Owner) != from {
			return nil, ErrNotOwner
		}
		tmp.Owner = to.Bytes()
		if err := c.db.SetCollectible(tmp, txn); err != nil {
			return nil, err
		}
		return tokenID, nil
	})
}

// RoyaltyInfo returns the royalty recipient and the royalty owed on a sale at
// salePrice
func (c *Collectible) RoyaltyInfo(
	tokenID uint64,
	salePrice *uint256.Int,
	txn *database.Txn,
) (common.Address, *uint256.Int, error) {
	tmp, err := c.token(tokenID, txn)
	if err != nil {
		return common.Address{}, nil, err
	}
	if salePrice == nil {
		salePrice = new(uint256.Int)
	}
	royalty, _ := new(uint256.Int).MulDivOverflow(
		salePrice,
		uint256.NewInt(RoyaltyBasisPoints),
		uint256.NewInt(basisPoints),
	)
	return common.BytesToAddress(tmp.RoyaltyRecipient), royalty, nil
}
