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

package item_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/blinklabs-io/metavault/item"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ledgerAddr = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	minter     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func newTestLedger(t *testing.T) (*item.Ledger, *database.Database) {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	clk := clock.NewManual(time.Unix(1700000000, 0))
	reg := access.New(db, clk, nil, nil)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return reg.Setup(ledgerAddr, access.MinterRole, minter, txn)
	}))
	ledger := item.New(item.Config{
		DB:           db,
		Registry:     reg,
		Clock:        clk,
		PromRegistry: prometheus.NewRegistry(),
		Address:      ledgerAddr,
	})
	return ledger, db
}

func TestCreditBatch(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := t.Context()
	require.NoError(t, ledger.CreditBatch(ctx, minter, alice, []uint64{1, 2, 1}, []uint64{3, 4, 2}, nil))
	bal, err := ledger.BalanceOf(alice, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bal)
	minted, err := ledger.MintedSoFar(2, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), minted)
	balances, err := ledger.Balances(alice, nil)
	require.NoError(t, err)
	assert.Equal(t, []item.Balance{{CategoryID: 1, Amount: 5}, {CategoryID: 2, Amount: 4}}, balances)
}

func TestCreditBatchValidation(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := t.Context()
	err := ledger.CreditBatch(ctx, minter, alice, []uint64{1, 2, 3}, []uint64{10, 5}, nil)
	require.ErrorIs(t, err, item.ErrLengthMismatch)
	assert.Equal(t, "ids and amounts length mismatch", err.Error())
	require.ErrorIs(t, ledger.CreditBatch(ctx, minter, common.Address{}, []uint64{1}, []uint64{1}, nil), item.ErrZeroAddress)
	require.ErrorIs(t, ledger.CreditBatch(ctx, alice, alice, []uint64{1}, []uint64{1}, nil), access.ErrUnauthorized)
	receipts, err := db.Receipts(0, 0)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestReceiverHookRejectsAndRollsBack(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := t.Context()
	errNo := errors.New("not accepting")
	var seenBalance uint64
	ledger.SetReceiverHook(alice, func(hookCtx context.Context, operator, to common.Address, ids, amounts []uint64) error {
		assert.True(t, reentrancy.Active(hookCtx))
		return errNo
	})
	err := ledger.CreditBatch(ctx, minter, alice, []uint64{1}, []uint64{1}, nil)
	require.ErrorIs(t, err, item.ErrRejected)
	require.ErrorIs(t, err, errNo)
	seenBalance, err = ledger.BalanceOf(alice, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seenBalance)
	minted, err := ledger.MintedSoFar(1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), minted)

	ledger.SetReceiverHook(alice, nil)
	require.NoError(t, ledger.CreditBatch(ctx, minter, alice, []uint64{1}, []uint64{1}, nil))
}

func TestReceiverHookCannotReenter(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := t.Context()
	var nestedErr error
	ledger.SetReceiverHook(alice, func(hookCtx context.Context, operator, to common.Address, ids, amounts []uint64) error {
		nestedErr = ledger.CreditBatch(hookCtx, minter, alice, []uint64{1}, []uint64{100}, nil)
		return nil
	})
	require.NoError(t, ledger.CreditBatch(ctx, minter, alice, []uint64{1}, []uint64{1}, nil))
	require.ErrorIs(t, nestedErr, reentrancy.ErrReentrantCall)
	bal, err := ledger.BalanceOf(alice, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal)
}

func TestCreditEventPublishedAfterCommit(t *testing.T) {
	db, err := database.New(nil)
	require.NoError(t, err)
	defer db.Close()
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	clk := clock.NewManual(time.Unix(1700000000, 0))
	reg := access.New(db, clk, nil, nil)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return reg.Setup(ledgerAddr, access.MinterRole, minter, txn)
	}))
	ledger := item.New(item.Config{DB: db, Registry: reg, Clock: clk, EventBus: bus, Address: ledgerAddr})
	_, evtCh := bus.Subscribe(event.ItemsCreditedEventType)
	require.NoError(t, ledger.CreditBatch(t.Context(), minter, alice, []uint64{4}, []uint64{2}, nil))
	select {
	case evt := <-evtCh:
		data := evt.Data.(event.ItemsCreditedEvent)
		assert.Equal(t, []event.ItemAmount{{CategoryID: 4, Amount: 2}}, data.Items)
		assert.Equal(t, clk.Now(), evt.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("no credit event")
	}
}
