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

// Package loot sells crates of randomly drawn items and lets minters credit
// items directly. Draws are weighted over the categories that still have
// supply left.
package loot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/database/models"
	"github.com/blinklabs-io/metavault/database/types"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/blinklabs-io/metavault/random"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/blinklabs-io/metavault/loot")

// ItemLedger is the semi-fungible ledger crate contents are credited on
type ItemLedger interface {
	Address() common.Address
	CreditBatch(
		ctx context.Context,
		operator, to common.Address,
		ids, amounts []uint64,
		txn *database.Txn,
	) error
	MintedSoFar(categoryID uint64, txn *database.Txn) (uint64, error)
}

type Config struct {
	DB           *database.Database
	Registry     *access.Registry
	Items        ItemLedger
	Clock        clock.Clock
	Random       random.Source
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Address      common.Address
}

type Distributor struct {
	db       *database.Database
	registry *access.Registry
	items    ItemLedger
	clock    clock.Clock
	random   random.Source
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *lootMetrics
	address  common.Address
}

func New(cfg Config) *Distributor {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Random == nil {
		cfg.Random = random.Keccak{}
	}
	d := &Distributor{
		db:       cfg.DB,
		registry: cfg.Registry,
		items:    cfg.Items,
		clock:    cfg.Clock,
		random:   cfg.Random,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger.With("component", "loot"),
		address:  cfg.Address,
	}
	if cfg.PromRegistry != nil {
		d.metrics = &lootMetrics{}
		d.metrics.init(cfg.PromRegistry)
	}
	return d
}

func (d *Distributor) Address() common.Address {
	return d.address
}

func (d *Distributor) nonceName() string {
	return d.address.Hex() + "/crate_nonce"
}

// Initialize persists the crate price and categories. It is only used while
// deploying and fails when the distributor already holds a configuration
func (d *Distributor) Initialize(
	price *uint256.Int,
	categories []Category,
	txn *database.Txn,
) error {
	if txn == nil {
		return errors.New("initialize requires a transaction")
	}
	if price == nil || price.IsZero() {
		return errors.New("crate price must be positive")
	}
	if err := ValidateCategories(categories); err != nil {
		return err
	}
	existing, err := d.db.LootConfig(d.address, txn)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("distributor already initialized")
	}
	if err := d.db.SetLootConfig(&models.LootConfig{
		Contract: d.address.Bytes(),
		Price:    types.NewAmount(price),
		Proceeds: types.NewAmount(nil),
	}, txn); err != nil {
		return err
	}
	for _, c := range categories {
		if err := d.db.SetLootCategory(&models.LootCategory{
			Contract:   d.address.Bytes(),
			CategoryID: c.ID,
			Name:       c.Name,
			Weight:     c.Weight,
			MaxSupply:  c.MaxSupply,
		}, txn); err != nil {
			return err
		}
	}
	return nil
}

func (d *Distributor) config(txn *database.Txn) (*models.LootConfig, error) {
	cfg, err := d.db.LootConfig(d.address, txn)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func (d *Distributor) Price(txn *database.Txn) (*uint256.Int, error) {
	cfg, err := d.config(txn)
	if err != nil {
		return nil, err
	}
	return cfg.Price.Uint256(), nil
}

// Proceeds returns the total payment collected from crate sales
func (d *Distributor) Proceeds(txn *database.Txn) (*uint256.Int, error) {
	cfg, err := d.config(txn)
	if err != nil {
		return nil, err
	}
	return cfg.Proceeds.Uint256(), nil
}

func (d *Distributor) CratesOpened(txn *database.Txn) (uint64, error) {
	cfg, err := d.config(txn)
	if err != nil {
		return 0, err
	}
	return cfg.CratesOpened, nil
}

// Categories returns every category ordered by id with its mint progress
func (d *Distributor) Categories(txn *database.Txn) ([]CategoryStatus, error) {
	rows, err := d.db.LootCategories(d.address, txn)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotInitialized
	}
	ret := make([]CategoryStatus, 0, len(rows))
	for _, row := range rows {
		minted, err := d.items.MintedSoFar(row.CategoryID, txn)
		if err != nil {
			return nil, err
		}
		st := CategoryStatus{
			Category: Category{
				ID:        row.CategoryID,
				Name:      row.Name,
				Weight:    row.Weight,
				MaxSupply: row.MaxSupply,
			},
			Minted: minted,
		}
		if minted < row.MaxSupply {
			st.Remaining = row.MaxSupply - minted
		}
		ret = append(ret, st)
	}
	return ret, nil
}

func (d *Distributor) Pause(ctx context.Context, sender common.Address, txn *database.Txn) error {
	return d.registry.SetPaused(ctx, d.address, sender, true, txn)
}

func (d *Distributor) Unpause(ctx context.Context, sender common.Address, txn *database.Txn) error {
	return d.registry.SetPaused(ctx, d.address, sender, false, txn)
}

func (d *Distributor) Paused(txn *database.Txn) (bool, error) {
	return d.registry.Paused(d.address, txn)
}

// OpenCrate sells count crates to caller for payment wei and credits the
// drawn items in one batch. It returns the per-category totals
func (d *Distributor) OpenCrate(
	ctx context.Context,
	caller common.Address,
	count uint64,
	payment *uint256.Int,
	txn *database.Txn,
) ([]event.ItemAmount, error) {
	ctx, span := tracer.Start(ctx, "loot.OpenCrate")
	defer span.End()
	span.SetAttributes(
		attribute.String("caller", caller.Hex()),
		attribute.Int64("count", int64(count)), //nolint:gosec
	)
	items, err := d.openCrate(ctx, caller, count, payment, txn)
	d.finish(span, "open_crate", err)
	return items, err
}

func (d *Distributor) openCrate(
	ctx context.Context,
	caller common.Address,
	count uint64,
	payment *uint256.Int,
	txn *database.Txn,
) ([]event.ItemAmount, error) {
	if err := reentrancy.Check(ctx); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrInvalidCount
	}
	if payment == nil {
		payment = new(uint256.Int)
	}
	now := d.clock.Now()
	var items []event.ItemAmount
	op := database.Operation{Name: "loot.open_crate", Caller: caller, Timestamp: now.Unix()}
	err := d.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		cfg, err := d.config(txn)
		if err != nil {
			return nil, err
		}
		price := cfg.Price.Uint256()
		expected, overflow := new(uint256.Int).MulOverflow(price, uint256.NewInt(count))
		if overflow || !expected.Eq(payment) {
			return nil, PaymentError{Expected: expected, Got: payment}
		}
		if err := d.registry.RequireNotPaused(d.address, txn); err != nil {
			return nil, err
		}
		statuses, err := d.Categories(txn)
		if err != nil {
			return nil, err
		}
		state := newDrawState(statuses)
		if capacity := state.capacity(); count > capacity {
			return nil, fmt.Errorf(
				"%w: %d crates requested, %d units left",
				ErrSupplyExhausted,
				count,
				capacity,
			)
		}
		head, err := d.db.JournalHead(txn)
		if err != nil {
			return nil, err
		}
		nonce, err := d.db.Counter(d.nonceName(), txn)
		if err != nil {
			return nil, err
		}
		totals := make(map[uint64]uint64, len(statuses))
		for range count {
			value := d.random.Uint256(random.Seed{
				Entropy:   head.Hash,
				Caller:    caller,
				Timestamp: now.Unix(),
				Nonce:     nonce,
			})
			nonce++
			id, err := state.pick(value)
			if err != nil {
				return nil, err
			}
			totals[id]++
		}
		ids, amounts := make([]uint64, 0, len(totals)), make([]uint64, 0, len(totals))
		for _, st := range statuses {
			if n := totals[st.ID]; n > 0 {
				ids = append(ids, st.ID)
				amounts = append(amounts, n)
				items = append(items, event.ItemAmount{CategoryID: st.ID, Amount: n})
			}
		}
		// Bookkeeping is final before the item ledger is called
		if err := d.db.SetCounter(d.nonceName(), nonce, txn); err != nil {
			return nil, err
		}
		cfg.CratesOpened += count
		cfg.Proceeds = types.NewAmount(new(uint256.Int).Add(cfg.Proceeds.Uint256(), payment))
		if err := d.db.SetLootConfig(cfg, txn); err != nil {
			return nil, err
		}
		if err := d.items.CreditBatch(ctx, d.address, caller, ids, amounts, txn); err != nil {
			return nil, fmt.Errorf("credit crate contents: %w", err)
		}
		evt := event.CratesOpenedEvent{
			Buyer:   caller,
			Payment: payment.Dec(),
			Items:   items,
			Count:   count,
		}
		if d.eventBus != nil {
			txn.OnCommit(func() {
				d.eventBus.Publish(
					event.CratesOpenedEventType,
					event.NewEvent(event.CratesOpenedEventType, now, evt),
				)
			})
		}
		if d.metrics != nil {
			txn.OnCommit(func() {
				d.metrics.cratesOpened.Add(float64(count))
				for _, st := range statuses {
					if n := totals[st.ID]; n > 0 {
						d.metrics.unitsDrawn.WithLabelValues(st.Name).Add(float64(n))
					}
				}
			})
		}
		return evt, nil
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info(
		"opened crates",
		"buyer", caller.Hex(),
		"count", count,
		"items", items,
	)
	return items, nil
}

// MintBatch credits exactly the requested amounts without payment or
// randomness. The caller needs the minter role on the distributor
func (d *Distributor) MintBatch(
	ctx context.Context,
	caller, to common.Address,
	ids, amounts []uint64,
	txn *database.Txn,
) error {
	ctx, span := tracer.Start(ctx, "loot.MintBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("to", to.Hex()),
		attribute.Int("entries", len(ids)),
	)
	err := d.mintBatch(ctx, caller, to, ids, amounts, txn)
	d.finish(span, "mint_batch", err)
	return err
}

func (d *Distributor) mintBatch(
	ctx context.Context,
	caller, to common.Address,
	ids, amounts []uint64,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	now := d.clock.Now()
	op := database.Operation{Name: "loot.mint_batch", Caller: caller, Timestamp: now.Unix()}
	return d.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := d.registry.RequireRole(d.address, access.MinterRole, caller, txn); err != nil {
			return nil, err
		}
		if to == (common.Address{}) {
			return nil, ErrZeroAddress
		}
		if len(ids) != len(amounts) {
			return nil, ErrLengthMismatch
		}
		statuses, err := d.Categories(txn)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint64]CategoryStatus, len(statuses))
		for _, st := range statuses {
			byID[st.ID] = st
		}
		requested := make(map[uint64]uint64, len(ids))
		items := make([]event.ItemAmount, 0, len(ids))
		for idx, id := range ids {
			st, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("category %d: %w", id, ErrUnknownCategory)
			}
			amount := amounts[idx]
			sum := requested[id] + amount
			if sum < amount || sum > st.Remaining {
				return nil, fmt.Errorf(
					"%w: category %d has %d left",
					ErrSupplyExhausted,
					id,
					st.Remaining,
				)
			}
			requested[id] = sum
			items = append(items, event.ItemAmount{CategoryID: id, Amount: amount})
		}
		if err := d.items.CreditBatch(ctx, d.address, to, ids, amounts, txn); err != nil {
			return nil, fmt.Errorf("credit minted items: %w", err)
		}
		evt := event.BatchMintedEvent{
			Operator: caller,
			To:       to,
			Items:    items,
		}
		if d.eventBus != nil {
			txn.OnCommit(func() {
				d.eventBus.Publish(
					event.BatchMintedEventType,
					event.NewEvent(event.BatchMintedEventType, now, evt),
				)
			})
		}
		d.logger.Info(
			"minted item batch",
			"operator", caller.Hex(),
			"to", to.Hex(),
			"entries", len(ids),
		)
		return evt, nil
	})
}

func (d *Distributor) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Debug("operation failed", "op", op, "error", err)
	}
	if d.metrics != nil {
		d.metrics.observe(op, err)
	}
}
