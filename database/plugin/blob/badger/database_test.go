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

package badger_test

import (
	"testing"

	"github.com/blinklabs-io/metavault/database/plugin/blob/badger"
	"github.com/blinklabs-io/metavault/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySetGetRollback(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close()

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("a"), []byte("1")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("b"), []byte("2")))
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)
	_, err = store.Get(txn, []byte("b"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestFinishedTxnRejected(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close()

	txn := store.NewTransaction(true)
	require.NoError(t, txn.Commit())
	require.Error(t, store.Set(txn, []byte("a"), []byte("1")))
	require.ErrorIs(t, store.Set(nil, []byte("a"), []byte("1")), types.ErrNilTxn)
}

func TestIteratorPrefix(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close()

	txn := store.NewTransaction(true)
	for i := range uint64(3) {
		require.NoError(t, store.Set(txn, types.ReceiptBlobKey(i), []byte{byte(i)}))
	}
	require.NoError(t, store.Set(txn, []byte("other"), []byte("x")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	prefix := []byte(types.ReceiptBlobKeyPrefix)
	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	var vals []byte
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		v, err := iter.Item().ValueCopy(nil)
		require.NoError(t, err)
		vals = append(vals, v...)
	}
	assert.Equal(t, []byte{0, 1, 2}, vals)
}

func TestCommitTimestamp(t *testing.T) {
	store, err := badger.New(
		badger.WithPromRegistry(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	defer store.Close()

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000000, txn))
	require.NoError(t, txn.Commit())

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), ts)
}

func TestOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := badger.New(badger.WithDataDir(dir), badger.WithGc(false))
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())

	store, err = badger.New(badger.WithDataDir(dir), badger.WithGc(false))
	require.NoError(t, err)
	defer store.Close()
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
