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

// Package item implements the semi-fungible item ledger credited by the loot
// distributor.
package item

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrLengthMismatch = errors.New("ids and amounts length mismatch")
	ErrZeroAddress    = errors.New("zero address")
	ErrRejected       = errors.New("receiver rejected items")
	ErrOverflow       = errors.New("item amount overflow")
)

var tracer = otel.Tracer("github.com/blinklabs-io/metavault/item")

// ReceiverHook is consulted after a recipient's balances were updated. A
// non-nil error rejects the credit and rolls back the enclosing operation.
// Hooks run with a context that rejects any state-changing call, and any
// transaction the hook starts itself fails with reentrancy.ErrReentrantCall.
// Reads with a nil transaction are not allowed from a hook
type ReceiverHook func(
	ctx context.Context,
	operator, to common.Address,
	ids, amounts []uint64,
) error

type Balance struct {
	CategoryID uint64 `json:"categoryId"`
	Amount     uint64 `json:"amount"`
}

type Config struct {
	DB           *database.Database
	Registry     *access.Registry
	Clock        clock.Clock
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Address      common.Address
}

type Ledger struct {
	db       *database.Database
	registry *access.Registry
	clock    clock.Clock
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *itemMetrics
	hooks    map[common.Address]ReceiverHook
	address  common.Address
	hooksMu  sync.RWMutex
}

func New(cfg Config) *Ledger {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	l := &Ledger{
		db:       cfg.DB,
		registry: cfg.Registry,
		clock:    cfg.Clock,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger.With("component", "item"),
		hooks:    make(map[common.Address]ReceiverHook),
		address:  cfg.Address,
	}
	if cfg.PromRegistry != nil {
		l.metrics = &itemMetrics{}
		l.metrics.init(cfg.PromRegistry)
	}
	return l
}

func (l *Ledger) Address() common.Address {
	return l.address
}

// SetReceiverHook installs hook for account. A nil hook removes it
func (l *Ledger) SetReceiverHook(account common.Address, hook ReceiverHook) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	if hook == nil {
		delete(l.hooks, account)
		return
	}
	l.hooks[account] = hook
}

func (l *Ledger) receiverHook(account common.Address) ReceiverHook {
	l.hooksMu.RLock()
	defer l.hooksMu.RUnlock()
	return l.hooks[account]
}

func (l *Ledger) BalanceOf(
	account common.Address,
	categoryID uint64,
	txn *database.Txn,
) (uint64, error) {
	return l.db.ItemBalance(l.address, account, categoryID, txn)
}

// Balances returns every non-zero balance of account ordered by category
func (l *Ledger) Balances(
	account common.Address,
	txn *database.Txn,
) ([]Balance, error) {
	rows, err := l.db.ItemBalances(l.address, account, txn)
	if err != nil {
		return nil, err
	}
	ret := make([]Balance, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, Balance{CategoryID: row.CategoryID, Amount: row.Amount})
	}
	return ret, nil
}

// MintedSoFar returns the cumulative amount ever credited for a category
func (l *Ledger) MintedSoFar(categoryID uint64, txn *database.Txn) (uint64, error) {
	return l.db.ItemSupply(l.address, categoryID, txn)
}

// CreditBatch credits amounts[i] of ids[i] to to. The operator needs the
// minter role on the ledger. Repeated ids accumulate
func (l *Ledger) CreditBatch(
	ctx context.Context,
	operator, to common.Address,
	ids, amounts []uint64,
	txn *database.Txn,
) error {
	ctx, span := tracer.Start(ctx, "item.CreditBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("to", to.Hex()),
		attribute.Int("entries", len(ids)),
	)
	err := l.creditBatch(ctx, operator, to, ids, amounts, txn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if l.metrics != nil {
		l.metrics.observe(ids, amounts, err)
	}
	return err
}

func (l *Ledger) creditBatch(
	ctx context.Context,
	operator, to common.Address,
	ids, amounts []uint64,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	if len(ids) != len(amounts) {
		return ErrLengthMismatch
	}
	if to == (common.Address{}) {
		return fmt.Errorf("credit to %s: %w", to.Hex(), ErrZeroAddress)
	}
	now := l.clock.Now()
	op := database.Operation{Name: "item.credit_batch", Caller: operator, Timestamp: now.Unix()}
	return l.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := l.registry.RequireRole(l.address, access.MinterRole, operator, txn); err != nil {
			return nil, err
		}
		if err := l.registry.RequireNotPaused(l.address, txn); err != nil {
			return nil, err
		}
		items := make([]event.ItemAmount, 0, len(ids))
		for idx, id := range ids {
			amount := amounts[idx]
			if err := l.add(to, id, amount, txn); err != nil {
				return nil, err
			}
			items = append(items, event.ItemAmount{CategoryID: id, Amount: amount})
		}
		// Balances are final before the recipient is consulted
		if hook := l.receiverHook(to); hook != nil {
			hookCtx := reentrancy.Enter(ctx)
			err := l.db.Callback(func() error {
				return hook(hookCtx, operator, to, ids, amounts)
			})
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrRejected, err)
			}
		}
		evt := event.ItemsCreditedEvent{
			Contract: l.address,
			Operator: operator,
			To:       to,
			Items:    items,
		}
		if l.eventBus != nil {
			txn.OnCommit(func() {
				l.eventBus.Publish(
					event.ItemsCreditedEventType,
					event.NewEvent(event.ItemsCreditedEventType, now, evt),
				)
			})
		}
		l.logger.Debug(
			"credited items",
			"operator", operator.Hex(),
			"to", to.Hex(),
			"entries", len(items),
		)
		return evt, nil
	})
}

func (l *Ledger) add(
	to common.Address,
	categoryID, amount uint64,
	txn *database.Txn,
) error {
	bal, err := l.db.ItemBalance(l.address, to, categoryID, txn)
	if err != nil {
		return err
	}
	minted, err := l.db.ItemSupply(l.address, categoryID, txn)
	if err != nil {
		return err
	}
	// Counters are stored as signed 64-bit integers. Minted bounds every
	// balance, so one check covers both
	if amount > math.MaxInt64 || minted > math.MaxInt64-amount {
		return fmt.Errorf("category %d: %w", categoryID, ErrOverflow)
	}
	if err := l.db.SetItemBalance(l.address, to, categoryID, bal+amount, txn); err != nil {
		return err
	}
	return l.db.SetItemSupply(l.address, categoryID, minted+amount, txn)
}
