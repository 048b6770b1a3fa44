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

package database

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/blinklabs-io/metavault/database/plugin/blob"
	"github.com/blinklabs-io/metavault/database/plugin/blob/badger"
	"github.com/blinklabs-io/metavault/database/plugin/metadata"
	"github.com/blinklabs-io/metavault/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	PromRegistry  prometheus.Registerer
	Logger        *slog.Logger
	DataDir       string
	BlobCacheSize uint64
}

type Database struct {
	logger    *slog.Logger
	blob      blob.BlobStore
	metadata  metadata.MetadataStore
	config    *Config
	writeLock sync.Mutex
	callbacks atomic.Int32
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Update runs fn in a read-write transaction. Writers are serialized so that
// every state change observes the previous one, including the receipt journal
// head. Commit hooks registered on the transaction run after the write lock
// is released. fn must not call Update or View. While a callback started with
// Callback is running, an Update that would wait on the writer fails with
// reentrancy.ErrReentrantCall
func (d *Database) Update(fn func(*Txn) error) error {
	if !d.writeLock.TryLock() {
		if d.InCallback() {
			return reentrancy.ErrReentrantCall
		}
		d.writeLock.Lock()
	}
	txn := d.Transaction(true)
	err := txn.do(fn)
	d.writeLock.Unlock()
	if err != nil {
		return err
	}
	txn.runCommitHooks()
	return nil
}

// View runs fn in a read-only transaction. It fails with
// reentrancy.ErrReentrantCall while a callback is running, since the writer
// still holds the metadata connection
func (d *Database) View(fn func(*Txn) error) error {
	if d.InCallback() {
		return reentrancy.ErrReentrantCall
	}
	return d.Transaction(false).Do(fn)
}

// Callback runs fn as an external callback from inside a write. New
// transactions are refused until fn returns
func (d *Database) Callback(fn func() error) error {
	d.callbacks.Add(1)
	defer d.callbacks.Add(-1)
	return fn()
}

func (d *Database) InCallback() bool {
	return d.callbacks.Load() > 0
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	metadataErr := d.Metadata().Close()
	err = errors.Join(err, metadataErr)
	// Close blob
	blobErr := d.Blob().Close()
	err = errors.Join(err, blobErr)
	return err
}

func (d *Database) init() error {
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance with optional persistence using the provided data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadataDb, err := sqlite.New(
		sqlite.WithDataDir(config.DataDir),
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(config.PromRegistry),
	)
	if err != nil {
		if metadataDb != nil {
			_ = metadataDb.Close()
		}
		return nil, err
	}
	blobOpts := []badger.BlobStoreBadgerOptionFunc{
		badger.WithDataDir(config.DataDir),
		badger.WithLogger(logger),
		badger.WithPromRegistry(config.PromRegistry),
	}
	if config.BlobCacheSize > 0 {
		blobOpts = append(blobOpts, badger.WithBlockCacheSize(config.BlobCacheSize))
	}
	blobDb, err := badger.New(blobOpts...)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		config:   config,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
