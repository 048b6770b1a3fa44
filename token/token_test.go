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

package token_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func newTestToken(t *testing.T) (*token.Token, *database.Database, *event.EventBus) {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	clk := clock.NewManual(time.Unix(1700000000, 0))
	reg := access.New(db, clk, bus, nil)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		for _, role := range []common.Hash{access.AdminRole, access.MinterRole, access.PauserRole} {
			if err := reg.Setup(tokenAddr, role, owner, txn); err != nil {
				return err
			}
		}
		return nil
	}))
	tok := token.New(token.Config{
		DB:           db,
		Registry:     reg,
		Clock:        clk,
		EventBus:     bus,
		PromRegistry: prometheus.NewRegistry(),
		Address:      tokenAddr,
	})
	return tok, db, bus
}

func balance(t *testing.T, tok *token.Token, account common.Address) uint64 {
	t.Helper()
	bal, err := tok.BalanceOf(account, nil)
	require.NoError(t, err)
	return bal.Uint64()
}

func TestMetadata(t *testing.T) {
	tok, _, _ := newTestToken(t)
	assert.Equal(t, "Metaverse Token", tok.Name())
	assert.Equal(t, "MVT", tok.Symbol())
	assert.Equal(t, uint8(18), tok.Decimals())
}

func TestMintTransferBurn(t *testing.T) {
	tok, db, bus := newTestToken(t)
	ctx := t.Context()
	_, evtCh := bus.Subscribe(event.TokenTransferEventType)

	require.NoError(t, tok.Mint(ctx, owner, alice, uint256.NewInt(100), nil))
	select {
	case evt := <-evtCh:
		data := evt.Data.(event.TokenTransferEvent)
		assert.Equal(t, common.Address{}, data.From)
		assert.Equal(t, "100", data.Amount)
	case <-time.After(time.Second):
		t.Fatal("no transfer event")
	}

	require.NoError(t, tok.Transfer(ctx, alice, bob, uint256.NewInt(30), nil))
	assert.Equal(t, uint64(70), balance(t, tok, alice))
	assert.Equal(t, uint64(30), balance(t, tok, bob))

	require.NoError(t, tok.Burn(ctx, bob, uint256.NewInt(10), nil))
	supply, err := tok.TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), supply.Uint64())

	receipts, err := db.Receipts(0, 0)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, []string{"token.mint", "token.transfer", "token.burn"},
		[]string{receipts[0].Op, receipts[1].Op, receipts[2].Op})
}

func TestMintRequiresMinter(t *testing.T) {
	tok, _, _ := newTestToken(t)
	err := tok.Mint(t.Context(), alice, alice, uint256.NewInt(1), nil)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	assert.Equal(t, uint64(0), balance(t, tok, alice))
}

func TestMintZeroAddress(t *testing.T) {
	tok, _, _ := newTestToken(t)
	err := tok.Mint(t.Context(), owner, common.Address{}, uint256.NewInt(1), nil)
	require.ErrorIs(t, err, token.ErrZeroAddress)
}

func TestMintOverflow(t *testing.T) {
	tok, _, _ := newTestToken(t)
	ctx := t.Context()
	maxVal := new(uint256.Int).SetAllOne()
	require.NoError(t, tok.Mint(ctx, owner, alice, maxVal, nil))
	require.ErrorIs(t, tok.Mint(ctx, owner, bob, uint256.NewInt(1), nil), token.ErrSupplyOverflow)
}

func TestPausedBlocksMintAndTransfer(t *testing.T) {
	tok, _, _ := newTestToken(t)
	ctx := t.Context()
	require.NoError(t, tok.Mint(ctx, owner, alice, uint256.NewInt(5), nil))
	require.NoError(t, tok.Pause(ctx, owner, nil))
	paused, err := tok.Paused(nil)
	require.NoError(t, err)
	assert.True(t, paused)
	require.ErrorIs(t, tok.Mint(ctx, owner, alice, uint256.NewInt(1), nil), access.ErrPaused)
	require.ErrorIs(t, tok.Transfer(ctx, alice, bob, uint256.NewInt(1), nil), access.ErrPaused)
	require.NoError(t, tok.Unpause(ctx, owner, nil))
	require.NoError(t, tok.Transfer(ctx, alice, bob, uint256.NewInt(1), nil))
}

func TestTransferInsufficientBalance(t *testing.T) {
	tok, _, _ := newTestToken(t)
	err := tok.Transfer(t.Context(), alice, bob, uint256.NewInt(1), nil)
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
}

func TestNestedMintJoinsOuterTransaction(t *testing.T) {
	tok, db, _ := newTestToken(t)
	ctx := t.Context()
	err := db.Update(func(txn *database.Txn) error {
		if err := tok.Mint(ctx, owner, alice, uint256.NewInt(9), txn); err != nil {
			return err
		}
		return token.ErrZeroAddress
	})
	require.ErrorIs(t, err, token.ErrZeroAddress)
	assert.Equal(t, uint64(0), balance(t, tok, alice))
	receipts, err := db.Receipts(0, 0)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestNilAmountIsZero(t *testing.T) {
	tok, _, _ := newTestToken(t)
	ctx := t.Context()
	require.NoError(t, tok.Mint(ctx, owner, alice, uint256.NewInt(5), nil))
	require.NoError(t, tok.Mint(ctx, owner, alice, nil, nil))
	require.NoError(t, tok.Transfer(ctx, alice, bob, nil, nil))
	require.NoError(t, tok.Burn(ctx, alice, nil, nil))
	assert.Equal(t, uint64(5), balance(t, tok, alice))
	assert.Equal(t, uint64(0), balance(t, tok, bob))
	supply, err := tok.TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), supply.Uint64())
}
