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

// Package access implements per-contract role grants and pause flags.
package access

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// AdminRole manages every other role on a contract
	AdminRole  = common.Hash{}
	MinterRole = crypto.Keccak256Hash([]byte("MINTER_ROLE"))
	PauserRole = crypto.Keccak256Hash([]byte("PAUSER_ROLE"))
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrPaused       = errors.New("paused")
	ErrNotPaused    = errors.New("not paused")
)

// UnauthorizedError reports the missing role. It matches ErrUnauthorized
type UnauthorizedError struct {
	Contract common.Address
	Account  common.Address
	Role     common.Hash
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf(
		"account %s is missing role %s on %s",
		e.Account.Hex(),
		RoleName(e.Role),
		e.Contract.Hex(),
	)
}

func (e UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// RoleName returns a readable name for the well-known roles
func RoleName(role common.Hash) string {
	switch role {
	case AdminRole:
		return "DEFAULT_ADMIN_ROLE"
	case MinterRole:
		return "MINTER_ROLE"
	case PauserRole:
		return "PAUSER_ROLE"
	default:
		return role.Hex()
	}
}

// Authorizer answers role queries for the engines
type Authorizer interface {
	HasRole(
		contract common.Address,
		role common.Hash,
		account common.Address,
		txn *database.Txn,
	) (bool, error)
	RequireRole(
		contract common.Address,
		role common.Hash,
		account common.Address,
		txn *database.Txn,
	) error
}

type Registry struct {
	db       *database.Database
	clock    clock.Clock
	eventBus *event.EventBus
	logger   *slog.Logger
}

// New returns a registry backed by db. eventBus may be nil
func New(
	db *database.Database,
	clk clock.Clock,
	eventBus *event.EventBus,
	logger *slog.Logger,
) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Registry{
		db:       db,
		clock:    clk,
		eventBus: eventBus,
		logger:   logger.With("component", "access"),
	}
}

func (r *Registry) HasRole(
	contract common.Address,
	role common.Hash,
	account common.Address,
	txn *database.Txn,
) (bool, error) {
	return r.db.HasRole(contract, role, account, txn)
}

// RequireRole fails with UnauthorizedError when account lacks role
func (r *Registry) RequireRole(
	contract common.Address,
	role common.Hash,
	account common.Address,
	txn *database.Txn,
) error {
	ok, err := r.db.HasRole(contract, role, account, txn)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return UnauthorizedError{
			Contract: contract,
			Account:  account,
			Role:     role,
		}
	}
	return nil
}

// Setup grants a role without any check. It is only used while deploying
func (r *Registry) Setup(
	contract common.Address,
	role common.Hash,
	account common.Address,
	txn *database.Txn,
) error {
	if txn == nil {
		return errors.New("role setup requires a transaction")
	}
	return r.db.SetRole(contract, role, account, true, txn)
}

// Grant gives account the role on contract. The sender must be an admin of
// the contract
func (r *Registry) Grant(
	ctx context.Context,
	contract common.Address,
	role common.Hash,
	sender, account common.Address,
	txn *database.Txn,
) error {
	return r.setRole(ctx, "access.grant", contract, role, sender, account, true, txn)
}

// Revoke removes the role from account. The sender must be an admin of the
// contract
func (r *Registry) Revoke(
	ctx context.Context,
	contract common.Address,
	role common.Hash,
	sender, account common.Address,
	txn *database.Txn,
) error {
	return r.setRole(ctx, "access.revoke", contract, role, sender, account, false, txn)
}

func (r *Registry) setRole(
	ctx context.Context,
	opName string,
	contract common.Address,
	role common.Hash,
	sender, account common.Address,
	granted bool,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	now := r.clock.Now()
	op := database.Operation{Name: opName, Caller: sender, Timestamp: now.Unix()}
	return r.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := r.RequireRole(contract, AdminRole, sender, txn); err != nil {
			return nil, err
		}
		if err := r.db.SetRole(contract, role, account, granted, txn); err != nil {
			return nil, err
		}
		evt := event.RoleEvent{
			Contract: contract,
			Role:     role,
			Account:  account,
			Sender:   sender,
		}
		evtType := event.RoleGrantedEventType
		if !granted {
			evtType = event.RoleRevokedEventType
		}
		r.publishOnCommit(txn, evtType, now, evt)
		r.logger.Info(
			opName,
			"contract", contract.Hex(),
			"role", RoleName(role),
			"account", account.Hex(),
		)
		return evt, nil
	})
}

func (r *Registry) Paused(contract common.Address, txn *database.Txn) (bool, error) {
	return r.db.Paused(contract, txn)
}

// RequireNotPaused fails with ErrPaused while the contract is paused
func (r *Registry) RequireNotPaused(
	contract common.Address,
	txn *database.Txn,
) error {
	paused, err := r.db.Paused(contract, txn)
	if err != nil {
		return fmt.Errorf("pause lookup: %w", err)
	}
	if paused {
		return fmt.Errorf("%s: %w", contract.Hex(), ErrPaused)
	}
	return nil
}

// SetPaused pauses or unpauses a contract. The sender needs the pauser role
func (r *Registry) SetPaused(
	ctx context.Context,
	contract common.Address,
	sender common.Address,
	paused bool,
	txn *database.Txn,
) error {
	if err := reentrancy.Check(ctx); err != nil {
		return err
	}
	now := r.clock.Now()
	opName := "access.pause"
	evtType := event.PausedEventType
	if !paused {
		opName = "access.unpause"
		evtType = event.UnpausedEventType
	}
	op := database.Operation{Name: opName, Caller: sender, Timestamp: now.Unix()}
	return r.db.Apply(op, txn, func(txn *database.Txn) (any, error) {
		if err := r.RequireRole(contract, PauserRole, sender, txn); err != nil {
			return nil, err
		}
		current, err := r.db.Paused(contract, txn)
		if err != nil {
			return nil, err
		}
		if current == paused {
			if paused {
				return nil, ErrPaused
			}
			return nil, ErrNotPaused
		}
		if err := r.db.SetPaused(contract, paused, txn); err != nil {
			return nil, err
		}
		evt := event.PauseEvent{Contract: contract, Account: sender}
		r.publishOnCommit(txn, evtType, now, evt)
		r.logger.Info(opName, "contract", contract.Hex(), "sender", sender.Hex())
		return evt, nil
	})
}

func (r *Registry) publishOnCommit(
	txn *database.Txn,
	evtType event.EventType,
	now time.Time,
	data any,
) {
	if r.eventBus == nil {
		return
	}
	txn.OnCommit(func() {
		r.eventBus.Publish(evtType, event.NewEvent(evtType, now, data))
	})
}
