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

package metavault_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/metavault"
	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/clock"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/item"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/random"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(
		m,
		// Started by a badger dependency at init
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

var (
	ownerAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	userAddr  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	startTime = time.Unix(1700000000, 0)
)

func tokens(n uint64) *uint256.Int {
	ret := new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
	return ret
}

func newTestNode(t *testing.T, opts ...metavault.ConfigOptionFunc) (*metavault.Node, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(startTime)
	opts = append(
		[]metavault.ConfigOptionFunc{
			metavault.WithOwner(ownerAddr),
			metavault.WithClock(clk),
		},
		opts...,
	)
	n, err := metavault.New(metavault.NewConfig(opts...))
	require.NoError(t, err)
	require.NoError(t, n.Open(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, n.Stop())
	})
	return n, clk
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := metavault.New(metavault.NewConfig())
	require.Error(t, err)

	_, err = metavault.New(metavault.NewConfig(
		metavault.WithOwner(ownerAddr),
		metavault.WithCategories([]loot.Category{{Name: "Bad", ID: 2, Weight: 1, MaxSupply: 1}}),
	))
	require.Error(t, err)

	_, err = metavault.New(metavault.NewConfig(
		metavault.WithOwner(ownerAddr),
		metavault.WithCratePrice(uint256.NewInt(0)),
	))
	require.Error(t, err)
}

func TestOpenDeploys(t *testing.T) {
	n, _ := newTestNode(t)
	addrs := n.Addresses()
	assert.Equal(t, metavault.ContractAddresses(ownerAddr), addrs)
	assert.Equal(t, ownerAddr, n.Owner())

	balance, err := n.TokenBalance(ownerAddr)
	require.NoError(t, err)
	assert.Equal(t, metavault.DefaultInitialSupply, balance)

	ok, err := n.Registry().HasRole(addrs.Token, access.MinterRole, addrs.Vault, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = n.Registry().HasRole(addrs.Items, access.MinterRole, addrs.Distributor, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = n.Registry().HasRole(addrs.Vault, access.AdminRole, ownerAddr, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	price, err := n.CratePrice()
	require.NoError(t, err)
	assert.Equal(t, loot.DefaultPrice, price)
	categories, err := n.CrateCategories()
	require.NoError(t, err)
	require.Len(t, categories, len(loot.DefaultCategories()))
	for idx, st := range categories {
		assert.Equal(t, loot.DefaultCategories()[idx], st.Category)
		assert.Equal(t, st.MaxSupply, st.Remaining)
	}

	baseURI, err := n.Collectibles().BaseURI(nil)
	require.NoError(t, err)
	assert.Equal(t, metavault.DefaultBaseURI, baseURI)

	receipts, err := n.Receipts(0, 0)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "deploy", receipts[0].Op)
	require.NoError(t, n.Database().VerifyJournal())
}

func TestVestingThroughNode(t *testing.T) {
	n, clk := newTestNode(t, metavault.WithInitialSupply(uint256.NewInt(0)))
	ctx := context.Background()
	cliff := startTime.Add(time.Hour).Unix()
	id, err := n.CreateSchedule(ctx, ownerAddr, userAddr, cliff, 100, tokens(100))
	require.NoError(t, err)

	clk.Set(time.Unix(cliff+100, 0))
	claimed, err := n.ClaimVested(ctx, userAddr, id)
	require.NoError(t, err)
	assert.Equal(t, tokens(100), claimed)

	balance, err := n.TokenBalance(userAddr)
	require.NoError(t, err)
	assert.Equal(t, tokens(100), balance)
	supply, err := n.TokenLedger().TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, tokens(100), supply)

	schedule, err := n.Schedule(id)
	require.NoError(t, err)
	assert.Equal(t, schedule.TotalAmount, schedule.ClaimedAmount)
}

func TestOpenCrateThroughNode(t *testing.T) {
	n, _ := newTestNode(t, metavault.WithRandomSource(random.NewSequence(0, 40)))
	ctx := context.Background()
	payment := new(uint256.Int).Mul(loot.DefaultPrice, uint256.NewInt(2))
	items, err := n.OpenCrate(ctx, userAddr, 2, payment)
	require.NoError(t, err)
	assert.Equal(t, []event.ItemAmount{{CategoryID: 1, Amount: 1}, {CategoryID: 2, Amount: 1}}, items)

	balances, err := n.ItemBalances(userAddr)
	require.NoError(t, err)
	assert.Equal(t, []item.Balance{{CategoryID: 1, Amount: 1}, {CategoryID: 2, Amount: 1}}, balances)

	proceeds, err := n.Distributor().Proceeds(nil)
	require.NoError(t, err)
	assert.Equal(t, payment, proceeds)

	require.NoError(t, n.MintItems(ctx, ownerAddr, userAddr, []uint64{3}, []uint64{2}))
	balance, err := n.Items().BalanceOf(userAddr, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), balance)
}

func TestReopenKeepsDeployment(t *testing.T) {
	dir := t.TempDir()
	open := func(owner common.Address) (*metavault.Node, error) {
		n, err := metavault.New(metavault.NewConfig(
			metavault.WithOwner(owner),
			metavault.WithDatabasePath(dir),
			metavault.WithClock(clock.NewManual(startTime)),
		))
		require.NoError(t, err)
		return n, n.Open(context.Background())
	}

	n, err := open(ownerAddr)
	require.NoError(t, err)
	require.NoError(t, n.Stop())

	n, err = open(ownerAddr)
	require.NoError(t, err)
	receipts, err := n.Receipts(0, 0)
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
	supply, err := n.TokenLedger().TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, metavault.DefaultInitialSupply, supply)
	require.NoError(t, n.Stop())

	n, err = open(userAddr)
	require.ErrorIs(t, err, metavault.ErrOwnerMismatch)
	require.NoError(t, n.Stop())
}

type recordingPublisher struct {
	keys   []string
	mu     sync.Mutex
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestEventSinkReceivesDomainEvents(t *testing.T) {
	pub := &recordingPublisher{}
	clk := clock.NewManual(startTime)
	n, err := metavault.New(metavault.NewConfig(
		metavault.WithOwner(ownerAddr),
		metavault.WithClock(clk),
		metavault.WithRandomSource(random.NewSequence(0)),
		metavault.WithEventSink("test", pub),
	))
	require.NoError(t, err)
	require.NoError(t, n.Open(context.Background()))
	_, err = n.OpenCrate(context.Background(), userAddr, 1, loot.DefaultPrice)
	require.NoError(t, err)
	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop())

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.True(t, pub.closed)
	assert.Contains(t, pub.keys, string(event.CratesOpenedEventType))
	assert.Contains(t, pub.keys, string(event.ItemsCreditedEventType))
}
