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

// Package token implements the fungible "Metaverse Token" ledger.
package token

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	Name     = "Metaverse Token"
	Symbol   = "MVT"
	Decimals = 18
)

var (
	ErrZeroAddress         = errors.New("zero address")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSupplyOverflow      = errors.New("total supply overflow")
)

var tracer = otel.Tracer("github.com/blinklabs-io/metavault/token")

type Config struct {
	DB           *database.Database
	Registry     *access.Registry
	Clock        clock.Clock
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Address      common.Address
}

type Token struct {
	db       *database.Database
	registry *access.Registry
	clock    clock.Clock
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *tokenMetrics
	address  common.Address
}

func New(cfg Config) *Token {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	t := &Token{
		db:       cfg.DB,
		registry: cfg.Registry,
		clock:    cfg.Clock,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger.With("component", "token"),
		address:  cfg.Address,
	}
	if cfg.PromRegistry != nil {
		t.metrics = &tokenMetrics{}
		t.metrics.init(cfg.PromRegistry)
	}
	return t
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Name() string {
	return Name
}

func (t *Token) Symbol() string {
	return Symbol
}

func (t *Token) Decimals() uint8 {
	return Decimals
}

func (t *Token) TotalSupply(txn *database.Txn) (*uint256.Int, error) {
	return t.db.TokenSupply(t.address, txn)
}

func (t *Token) BalanceOf(
	account common.Address,
	txn *database.Txn,
) (*uint256.Int, error) {
	return t.db.TokenBalance(t.address, account, txn)
}

// Mint creates amount new tokens for to. The minter needs the minter role and
// the token must not be paused
func (t *Token) Mint(
	ctx context.Context,
	minter, to common.Address,
	amount *uint256.Int,
	txn *database.Txn,
) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	ctx, span := tracer.Start(ctx, "token.Mint")
	defer span.End()
	span.SetAttributes(
		attribute.String("to", to.Hex()),
		attribute.String("amount", amount.Dec()),
	)
	err := t.mint(ctx, minter, to, amount, txn)
	t.finish(span, "mint", err)
	return err
}

func (t *Token) mint(
	ctx context.Context,
	minter, to common.Address,
	amount *uint256.Int,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("mint to %s: %w", to.Hex(), ErrZeroAddress)
	}
	now := t.clock.Now()
	op := database.Operation{Name: "token.mint", Caller: minter, Timestamp: now.Unix()}
	return t.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := t.registry.RequireRole(t.address, access.MinterRole, minter, txn); err != nil {
			return nil, err
		}
		if err := t.registry.RequireNotPaused(t.address, txn); err != nil {
			return nil, err
		}
		supply, err := t.db.TokenSupply(t.address, txn)
		if err != nil {
			return nil, err
		}
		newSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
		if overflow {
			return nil, ErrSupplyOverflow
		}
		if err := t.credit(to, amount, txn); err != nil {
			return nil, err
		}
		if err := t.db.SetTokenSupply(t.address, newSupply, txn); err != nil {
			return nil, err
		}
		return t.transferred(txn, now, common.Address{}, to, amount), nil
	})
}

// Transfer moves amount from the sender to to
func (t *Token) Transfer(
	ctx context.Context,
	from, to common.Address,
	amount *uint256.Int,
	txn *database.Txn,
) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	ctx, span := tracer.Start(ctx, "token.Transfer")
	defer span.End()
	err := t.transfer(ctx, from, to, amount, txn)
	t.finish(span, "transfer", err)
	return err
}

func (t *Token) transfer(
	ctx context.Context,
	from, to common.Address,
	amount *uint256.Int,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), ErrZeroAddress)
	}
	now := t.clock.Now()
	op := database.Operation{Name: "token.transfer", Caller: from, Timestamp: now.Unix()}
	return t.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := t.registry.RequireNotPaused(t.address, txn); err != nil {
			return nil, err
		}
		if err := t.debit(from, amount, txn); err != nil {
			return nil, err
		}
		if err := t.credit(to, amount, txn); err != nil {
			return nil, err
		}
		return t.transferred(txn, now, from, to, amount), nil
	})
}

// Burn destroys amount of the sender's own tokens
func (t *Token) Burn(
	ctx context.Context,
	from common.Address,
	amount *uint256.Int,
	txn *database.Txn,
) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	ctx, span := tracer.Start(ctx, "token.Burn")
	defer span.End()
	err := t.burn(ctx, from, amount, txn)
	t.finish(span, "burn", err)
	return err
}

func (t *Token) burn(
	ctx context.Context,
	from common.Address,
	amount *uint256.Int,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	now := t.clock.Now()
	op := database.Operation{Name: "token.burn", Caller: from, Timestamp: now.Unix()}
	return t.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := t.registry.RequireNotPaused(t.address, txn); err != nil {
			return nil, err
		}
		if err := t.debit(from, amount, txn); err != nil {
			return nil, err
		}
		supply, err := t.db.TokenSupply(t.address, txn)
		if err != nil {
			return nil, err
		}
		// The balance check above bounds amount by the supply
		newSupply := new(uint256.Int).Sub(supply, amount)
		if err := t.db.SetTokenSupply(t.address, newSupply, txn); err != nil {
			return nil, err
		}
		return t.transferred(txn, now, from, common.Address{}, amount), nil
	})
}

func (t *Token) Pause(ctx context.Context, sender common.Address, txn *database.Txn) error {
	return t.registry.SetPaused(ctx, t.address, sender, true, txn)
}

func (t *Token) Unpause(ctx context.Context, sender common.Address, txn *database.Txn) error {
	return t.registry.SetPaused(ctx, t.address, sender, false, txn)
}

func (t *Token) Paused(txn *database.Txn) (bool, error) {
	return t.registry.Paused(t.address, txn)
}

func (t *Token) credit(to common.Address, amount *uint256.Int, txn *database.Txn) error {
	bal, err := t.db.TokenBalance(t.address, to, txn)
	if err != nil {
		return err
	}
	// Balances are bounded by the total supply, which is overflow checked
	bal.Add(bal, amount)
	return t.db.SetTokenBalance(t.address, to, bal, txn)
}

func (t *Token) debit(from common.Address, amount *uint256.Int, txn *database.Txn) error {
	bal, err := t.db.TokenBalance(t.address, from, txn)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf(
			"%s has %s, needs %s: %w",
			from.Hex(),
			bal.Dec(),
			amount.Dec(),
			ErrInsufficientBalance,
		)
	}
	bal.Sub(bal, amount)
	return t.db.SetTokenBalance(t.address, from, bal, txn)
}

func (t *Token) transferred(
	txn *database.Txn,
	now time.Time,
	from, to common.Address,
	amount *uint256.Int,
) event.TokenTransferEvent {
	evt := event.TokenTransferEvent{
		Contract: t.address,
		From:     from,
		To:       to,
		Amount:   amount.Dec(),
	}
	if t.eventBus != nil {
		txn.OnCommit(func() {
			t.eventBus.Publish(
				event.TokenTransferEventType,
				event.NewEvent(event.TokenTransferEventType, now, evt),
			)
		})
	}
	return evt
}

func (t *Token) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.Debug("operation failed", "op", op, "error", err)
	}
	if t.metrics != nil {
		t.metrics.observe(op, err)
	}
}
