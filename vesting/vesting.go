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

// Package vesting releases the fungible token to beneficiaries linearly over
// time after a cliff. Tokens are minted lazily on claim.
package vesting

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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidBeneficiary = errors.New("invalid beneficiary")
	ErrInvalidSchedule    = errors.New("invalid schedule")
	ErrNotEligible        = errors.New("not eligible")
	ErrScheduleNotFound   = errors.New("schedule not found")
)

var tracer = otel.Tracer("github.com/blinklabs-io/metavault/vesting")

// AssetLedger is the fungible ledger the engine mints through
type AssetLedger interface {
	Address() common.Address
	Mint(
		ctx context.Context,
		minter, to common.Address,
		amount *uint256.Int,
		txn *database.Txn,
	) error
	BalanceOf(account common.Address, txn *database.Txn) (*uint256.Int, error)
}

type Config struct {
	DB           *database.Database
	Authorizer   access.Authorizer
	Ledger       AssetLedger
	Clock        clock.Clock
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Address is the engine's own identity, used as minter on the ledger
	Address common.Address
	Admin   common.Address
}

type Engine struct {
	db         *database.Database
	authorizer access.Authorizer
	ledger     AssetLedger
	clock      clock.Clock
	eventBus   *event.EventBus
	logger     *slog.Logger
	metrics    *vestingMetrics
	address    common.Address
	admin      common.Address
}

func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	e := &Engine{
		db:         cfg.DB,
		authorizer: cfg.Authorizer,
		ledger:     cfg.Ledger,
		clock:      cfg.Clock,
		eventBus:   cfg.EventBus,
		logger:     cfg.Logger.With("component", "vesting"),
		address:    cfg.Address,
		admin:      cfg.Admin,
	}
	if cfg.PromRegistry != nil {
		e.metrics = &vestingMetrics{}
		e.metrics.init(cfg.PromRegistry)
	}
	return e
}

func (e *Engine) Address() common.Address {
	return e.address
}

// Admin returns the account the engine was deployed by
func (e *Engine) Admin() common.Address {
	return e.admin
}

// Token returns the address of the ledger claims are minted on
func (e *Engine) Token() common.Address {
	return e.ledger.Address()
}

func (e *Engine) counterName() string {
	return e.address.Hex() + "/next_schedule_id"
}

// NextScheduleID returns the id the next schedule will be stored under
func (e *Engine) NextScheduleID(txn *database.Txn) (uint64, error) {
	return e.db.Counter(e.counterName(), txn)
}

func (e *Engine) Schedule(id uint64, txn *database.Txn) (Schedule, error) {
	tmp, err := e.db.VestingSchedule(e.address, id, txn)
	if err != nil {
		return Schedule{}, err
	}
	if tmp == nil {
		return Schedule{}, fmt.Errorf("schedule %d: %w", id, ErrScheduleNotFound)
	}
	return scheduleFromModel(tmp), nil
}

// SchedulesFor returns every schedule of beneficiary ordered by id
func (e *Engine) SchedulesFor(
	beneficiary common.Address,
	txn *database.Txn,
) ([]Schedule, error) {
	rows, err := e.db.VestingSchedulesByBeneficiary(e.address, beneficiary, txn)
	if err != nil {
		return nil, err
	}
	ret := make([]Schedule, 0, len(rows))
	for idx := range rows {
		ret = append(ret, scheduleFromModel(&rows[idx]))
	}
	return ret, nil
}

// Claimable returns what the beneficiary could claim right now
func (e *Engine) Claimable(id uint64, txn *database.Txn) (*uint256.Int, error) {
	s, err := e.Schedule(id, txn)
	if err != nil {
		return nil, err
	}
	return ClaimableAmount(s, e.clock.Now().Unix()), nil
}

// CreateSchedule stores a new schedule and returns its id. The caller must be
// an admin of the engine. No tokens move
func (e *Engine) CreateSchedule(
	ctx context.Context,
	caller, beneficiary common.Address,
	cliff int64,
	duration uint64,
	amount *uint256.Int,
	txn *database.Txn,
) (uint64, error) {
	ctx, span := tracer.Start(ctx, "vesting.CreateSchedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("beneficiary", beneficiary.Hex()),
		attribute.Int64("cliff", cliff),
	)
	id, err := e.createSchedule(ctx, caller, beneficiary, cliff, duration, amount, txn)
	e.finish(span, "create_schedule", err)
	return id, err
}

func (e *Engine) createSchedule(
	ctx context.Context,
	caller, beneficiary common.Address,
	cliff int64,
	duration uint64,
	amount *uint256.Int,
	txn *database.Txn,
) (uint64, error) {
	if err := reentrancy.Check(ctx); err != nil {
		return 0, err
	}
	now := e.clock.Now()
	var id uint64
	op := database.Operation{Name: "vesting.create_schedule", Caller: caller, Timestamp: now.Unix()}
	err := e.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := e.authorizer.RequireRole(e.address, access.AdminRole, caller, txn); err != nil {
			return nil, err
		}
		if beneficiary == (common.Address{}) {
			return nil, ErrInvalidBeneficiary
		}
		switch {
		case duration == 0:
			return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidSchedule)
		case amount == nil || amount.IsZero():
			return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidSchedule)
		case cliff <= now.Unix():
			return nil, fmt.Errorf("%w: cliff must be in the future", ErrInvalidSchedule)
		}
		var err error
		id, err = e.db.Counter(e.counterName(), txn)
		if err != nil {
			return nil, err
		}
		if err := e.db.SetVestingSchedule(&models.VestingSchedule{
			Vault:         e.address.Bytes(),
			Beneficiary:   beneficiary.Bytes(),
			TotalAmount:   types.NewAmount(amount),
			ClaimedAmount: types.NewAmount(nil),
			ScheduleID:    id,
			Cliff:         cliff,
			Duration:      duration,
			CreatedAt:     now.Unix(),
		}, txn); err != nil {
			return nil, err
		}
		if err := e.db.SetCounter(e.counterName(), id+1, txn); err != nil {
			return nil, err
		}
		evt := event.ScheduleCreatedEvent{
			Beneficiary: beneficiary,
			TotalAmount: amount.Dec(),
			ScheduleID:  id,
			Cliff:       cliff,
			Duration:    duration,
		}
		if e.eventBus != nil {
			txn.OnCommit(func() {
				e.eventBus.Publish(
					event.ScheduleCreatedEventType,
					event.NewEvent(event.ScheduleCreatedEventType, now, evt),
				)
			})
		}
		return evt, nil
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info(
		"created vesting schedule",
		"schedule_id", id,
		"beneficiary", beneficiary.Hex(),
		"amount", amount.Dec(),
		"cliff", cliff,
		"duration", duration,
	)
	return id, nil
}

// Claim pays out everything vested but not yet claimed on a schedule. Only
// the beneficiary may claim. It returns the amount minted
func (e *Engine) Claim(
	ctx context.Context,
	caller common.Address,
	scheduleID uint64,
	txn *database.Txn,
) (*uint256.Int, error) {
	ctx, span := tracer.Start(ctx, "vesting.Claim")
	defer span.End()
	span.SetAttributes(attribute.Int64("schedule_id", int64(scheduleID))) //nolint:gosec
	amount, err := e.claim(ctx, caller, scheduleID, txn)
	e.finish(span, "claim", err)
	return amount, err
}

func (e *Engine) claim(
	ctx context.Context,
	caller common.Address,
	scheduleID uint64,
	txn *database.Txn,
) (*uint256.Int, error) {
	if err := reentrancy.Check(ctx); err != nil {
		return nil, err
	}
	now := e.clock.Now()
	var claimable *uint256.Int
	op := database.Operation{Name: "vesting.claim", Caller: caller, Timestamp: now.Unix()}
	err := e.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		row, err := e.db.VestingSchedule(e.address, scheduleID, txn)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, fmt.Errorf("schedule %d: %w", scheduleID, ErrScheduleNotFound)
		}
		s := scheduleFromModel(row)
		if caller != s.Beneficiary {
			return nil, fmt.Errorf("%w: caller is not the beneficiary", ErrNotEligible)
		}
		if now.Unix() < s.Cliff {
			return nil, fmt.Errorf("%w: cliff not reached", ErrNotEligible)
		}
		vested := VestedAmount(s, now.Unix())
		claimable = ClaimableAmount(s, now.Unix())
		if claimable.IsZero() {
			return nil, fmt.Errorf("%w: nothing to claim", ErrNotEligible)
		}
		// Bookkeeping is final before the ledger is called
		row.ClaimedAmount = types.NewAmount(vested)
		if err := e.db.SetVestingSchedule(row, txn); err != nil {
			return nil, err
		}
		if err := e.ledger.Mint(ctx, e.address, s.Beneficiary, claimable, txn); err != nil {
			return nil, fmt.Errorf("mint claimed tokens: %w", err)
		}
		evt := event.TokensClaimedEvent{
			Beneficiary:   s.Beneficiary,
			Amount:        claimable.Dec(),
			ClaimedAmount: vested.Dec(),
			ScheduleID:    scheduleID,
		}
		if e.eventBus != nil {
			txn.OnCommit(func() {
				e.eventBus.Publish(
					event.TokensClaimedEventType,
					event.NewEvent(event.TokensClaimedEventType, now, evt),
				)
			})
		}
		return evt, nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info(
		"claimed vested tokens",
		"schedule_id", scheduleID,
		"beneficiary", caller.Hex(),
		"amount", claimable.Dec(),
	)
	return claimable, nil
}

func (e *Engine) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("operation failed", "op", op, "error", err)
	}
	if e.metrics != nil {
		e.metrics.observe(op, err)
	}
}
