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

package sqlite_test

import (
	"testing"

	"github.com/blinklabs-io/metavault/database/models"
	"github.com/blinklabs-io/metavault/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/metavault/database/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = []byte("contract-address-0001")[:20]
	testAccount  = []byte("account--address-0001")[:20]
	testRole     = make([]byte, 32)
)

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	require.NoError(t, a.SetCounter("schedules", 5, nil))
	val, err := b.GetCounter("schedules", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), val)
}

func TestCounterUpsert(t *testing.T) {
	store := newTestStore(t)
	val, err := store.GetCounter("nonce", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), val)
	require.NoError(t, store.SetCounter("nonce", 1, nil))
	require.NoError(t, store.SetCounter("nonce", 2, nil))
	val, err = store.GetCounter("nonce", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), val)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetCounter("nonce", 9, txn))
	require.NoError(t, txn.Rollback())
	val, err := store.GetCounter("nonce", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), val)

	txn = store.Transaction()
	require.NoError(t, store.SetCounter("nonce", 3, txn))
	require.NoError(t, txn.Commit())
	val, err = store.GetCounter("nonce", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), val)

	// Finished transactions are rejected
	require.Error(t, store.SetCounter("nonce", 4, txn))
}

func TestRoles(t *testing.T) {
	store := newTestStore(t)
	ok, err := store.HasRole(testContract, testRole, testAccount, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.SetRole(testContract, testRole, testAccount, true, nil))
	// Granting twice is a no-op
	require.NoError(t, store.SetRole(testContract, testRole, testAccount, true, nil))
	ok, err = store.HasRole(testContract, testRole, testAccount, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, store.SetRole(testContract, testRole, testAccount, false, nil))
	ok, err = store.HasRole(testContract, testRole, testAccount, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPaused(t *testing.T) {
	store := newTestStore(t)
	paused, err := store.GetPaused(testContract, nil)
	require.NoError(t, err)
	assert.False(t, paused)
	require.NoError(t, store.SetPaused(testContract, true, nil))
	paused, err = store.GetPaused(testContract, nil)
	require.NoError(t, err)
	assert.True(t, paused)
}

func TestTokenBalanceLargeValues(t *testing.T) {
	store := newTestStore(t)
	bal, err := store.GetTokenBalance(testContract, testAccount, nil)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	supply, err := uint256.FromDecimal("100000000000000000000000000")
	require.NoError(t, err)
	require.NoError(t, store.SetTokenBalance(testContract, testAccount, types.NewAmount(supply), nil))
	require.NoError(t, store.SetTokenSupply(testContract, types.NewAmount(supply), nil))
	bal, err = store.GetTokenBalance(testContract, testAccount, nil)
	require.NoError(t, err)
	assert.Equal(t, supply.Dec(), bal.String())
	total, err := store.GetTokenSupply(testContract, nil)
	require.NoError(t, err)
	assert.Equal(t, supply.Dec(), total.String())
}

func TestVestingScheduleClaimUpdate(t *testing.T) {
	store := newTestStore(t)
	sched := &models.VestingSchedule{
		Vault:         testContract,
		Beneficiary:   testAccount,
		TotalAmount:   types.NewAmount(uint256.NewInt(1000)),
		ClaimedAmount: types.NewAmount(nil),
		ScheduleID:    0,
		Cliff:         100,
		Duration:      1000,
		CreatedAt:     50,
	}
	require.NoError(t, store.SetVestingSchedule(sched, nil))

	loaded, err := store.GetVestingSchedule(testContract, 0, nil)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(50), loaded.CreatedAt)
	loaded.ClaimedAmount = types.NewAmount(uint256.NewInt(400))
	require.NoError(t, store.SetVestingSchedule(loaded, nil))

	all, err := store.GetVestingSchedulesByBeneficiary(testContract, testAccount, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(400), all[0].ClaimedAmount.Uint64())

	missing, err := store.GetVestingSchedule(testContract, 7, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestItemBalancesAndSupply(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetItemBalance(testContract, testAccount, 2, 3, nil))
	require.NoError(t, store.SetItemBalance(testContract, testAccount, 1, 5, nil))
	require.NoError(t, store.SetItemBalance(testContract, testAccount, 4, 0, nil))
	balances, err := store.GetItemBalances(testContract, testAccount, nil)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, uint64(1), balances[0].CategoryID)
	assert.Equal(t, uint64(5), balances[0].Amount)

	require.NoError(t, store.SetItemSupply(testContract, 3, 1, nil))
	minted, err := store.GetItemSupply(testContract, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), minted)
}

func TestLootConfigAndCategories(t *testing.T) {
	store := newTestStore(t)
	cfg, err := store.GetLootConfig(testContract, nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	require.NoError(t, store.SetLootConfig(&models.LootConfig{
		Contract: testContract,
		Price:    types.NewAmount(uint256.NewInt(20000000000000000)),
		Proceeds: types.NewAmount(nil),
	}, nil))
	cfg, err = store.GetLootConfig(testContract, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	cfg.CratesOpened = 2
	require.NoError(t, store.SetLootConfig(cfg, nil))
	cfg, err = store.GetLootConfig(testContract, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cfg.CratesOpened)

	for _, id := range []uint64{5, 1, 3} {
		require.NoError(t, store.SetLootCategory(&models.LootCategory{
			Contract:   testContract,
			CategoryID: id,
			Name:       "cat",
			Weight:     id,
			MaxSupply:  10,
		}, nil))
	}
	cats, err := store.GetLootCategories(testContract, nil)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, []uint64{1, 3, 5}, []uint64{cats[0].CategoryID, cats[1].CategoryID, cats[2].CategoryID})
}

func TestCollectibles(t *testing.T) {
	store := newTestStore(t)
	for i := range uint64(3) {
		require.NoError(t, store.SetCollectible(&models.Collectible{
			Contract:         testContract,
			Owner:            testAccount,
			RoyaltyRecipient: testAccount,
			TokenID:          i,
		}, nil))
	}
	count, err := store.CountCollectibles(testContract, testAccount, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	c, err := store.GetCollectible(testContract, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, c)
	missing, err := store.GetCollectible(testContract, 99, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeploymentAndCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	dep, err := store.GetDeployment(nil)
	require.NoError(t, err)
	assert.Nil(t, dep)
	require.NoError(t, store.SetDeployment(&models.Deployment{Owner: testAccount, DeployedAt: 10}, nil))
	dep, err = store.GetDeployment(nil)
	require.NoError(t, err)
	require.NotNil(t, dep)
	assert.Equal(t, testAccount, dep.Owner)

	require.NoError(t, store.SetCommitTimestamp(42, nil))
	require.NoError(t, store.SetCommitTimestamp(43, nil))
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(43), ts)
}

func TestOnDiskReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := sqlite.New(sqlite.WithDataDir(dir))
	require.NoError(t, err)
	require.NoError(t, store.SetCounter("nonce", 11, nil))
	require.NoError(t, store.Close())

	store, err = sqlite.New(sqlite.WithDataDir(dir))
	require.NoError(t, err)
	defer store.Close()
	val, err := store.GetCounter("nonce", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), val)
}
