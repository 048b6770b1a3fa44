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

package database_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	testAccount  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{BlobCacheSize: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpdateRunsCommitHooksAfterCommit(t *testing.T) {
	db := newTestDatabase(t)
	var seen uint64
	err := db.Update(func(txn *database.Txn) error {
		if err := db.SetCounter("nonce", 7, txn); err != nil {
			return err
		}
		txn.OnCommit(func() {
			// The write lock is released and the data is visible here
			val, err := db.Counter("nonce", nil)
			if err == nil {
				seen = val
			}
		})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seen)
}

func TestUpdateRollbackSkipsHooks(t *testing.T) {
	db := newTestDatabase(t)
	errTest := errors.New("test failure")
	called := false
	err := db.Update(func(txn *database.Txn) error {
		if err := db.SetTokenBalance(testContract, testAccount, uint256.NewInt(10), txn); err != nil {
			return err
		}
		txn.OnCommit(func() { called = true })
		return errTest
	})
	require.ErrorIs(t, err, errTest)
	assert.False(t, called)
	bal, err := db.TokenBalance(testContract, testAccount, nil)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestUpdateSerializesWriters(t *testing.T) {
	db := newTestDatabase(t)
	const workers = 8
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Update(func(txn *database.Txn) error {
				val, err := db.Counter("n", txn)
				if err != nil {
					return err
				}
				return db.SetCounter("n", val+1, txn)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	val, err := db.Counter("n", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), val)
}

func TestCallbackRefusesNewTransactions(t *testing.T) {
	db := newTestDatabase(t)
	var updateErr, viewErr error
	err := db.Update(func(txn *database.Txn) error {
		if err := db.SetCounter("nonce", 1, txn); err != nil {
			return err
		}
		return db.Callback(func() error {
			assert.True(t, db.InCallback())
			updateErr = db.Update(func(*database.Txn) error { return nil })
			viewErr = db.View(func(*database.Txn) error { return nil })
			return nil
		})
	})
	require.NoError(t, err)
	require.ErrorIs(t, updateErr, reentrancy.ErrReentrantCall)
	require.ErrorIs(t, viewErr, reentrancy.ErrReentrantCall)
	assert.False(t, db.InCallback())

	// Writers proceed normally once the callback has returned
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return db.SetCounter("nonce", 2, txn)
	}))
	val, err := db.Counter("nonce", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), val)
}

func TestJournalHashChain(t *testing.T) {
	db := newTestDatabase(t)
	head, err := db.JournalHead(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), head.NextSeq)
	assert.Equal(t, common.Hash{}, head.Hash)

	for i := range 3 {
		err := db.Update(func(txn *database.Txn) error {
			_, err := db.AppendReceipt("test.op", testAccount, int64(1000+i), map[string]uint64{"i": uint64(i)}, txn)
			return err
		})
		require.NoError(t, err)
	}
	receipts, err := db.Receipts(0, 0)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, receipts[0].Hash, receipts[1].PrevHash)
	assert.Equal(t, receipts[1].Hash, receipts[2].PrevHash)
	assert.Equal(t, testAccount.Bytes(), receipts[2].Caller)

	page, err := db.Receipts(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(1), page[0].Seq)

	head, err = db.JournalHead(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head.NextSeq)
	assert.Equal(t, common.BytesToHash(receipts[2].Hash), head.Hash)
	require.NoError(t, db.VerifyJournal())
}

func TestJournalAppendRolledBack(t *testing.T) {
	db := newTestDatabase(t)
	errTest := errors.New("abort")
	err := db.Update(func(txn *database.Txn) error {
		if _, err := db.AppendReceipt("test.op", testAccount, 1, nil, txn); err != nil {
			return err
		}
		return errTest
	})
	require.ErrorIs(t, err, errTest)
	receipts, err := db.Receipts(0, 0)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestAppendReceiptRequiresTxn(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.AppendReceipt("test.op", testAccount, 1, nil, nil)
	require.Error(t, err)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return db.SetCounter("n", 1, txn)
	}))
	// Move the metadata timestamp without touching the blob store
	require.NoError(t, db.Metadata().SetCommitTimestamp(1, nil))
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dir})
	require.Error(t, err)
	var tsErr database.CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, int64(1), tsErr.MetadataTimestamp)
	require.NotNil(t, db)
	require.NoError(t, db.Close())
}
