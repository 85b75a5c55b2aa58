// Copyright 2025 Poiesic Systems
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


package badger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// BackendOption configures how a Backend opens its database.
type BackendOption func(*badger.Options)

// WithMemTableSize sets the memtable size in bytes. Badger caps a single
// transaction at a fraction of this, so larger values admit larger batches.
func WithMemTableSize(size int64) BackendOption {
	return func(o *badger.Options) {
		if size > 0 {
			o.MemTableSize = size
		}
	}
}

// WithSyncWrites makes every commit wait for an fsync.
func WithSyncWrites(sync bool) BackendOption {
	return func(o *badger.Options) {
		o.SyncWrites = sync
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	var badgerOpts badger.Options

	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	badgerOpts.Logger = &badgerLoggerAdapter{logger: logger}
	badgerOpts.Compression = options.None
	for _, opt := range opts {
		opt(&badgerOpts)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WithBatch executes fn with a write batch and flushes it if fn succeeds.
// Write batches split themselves into as many transactions as needed, so
// they suit bulk writes that may exceed a single transaction's size limit.
func (b *Backend) WithBatch(fn func(wb *badger.WriteBatch) error) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	if err := fn(wb); err != nil {
		return err
	}
	return wb.Flush()
}

// ForEachKey calls fn with a copy of every key under prefix.
// Values are not fetched.
func (b *Backend) ForEachKey(prefix []byte, fn func(key []byte) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := fn(iter.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// DeletePrefix removes every key under prefix.
func (b *Backend) DeletePrefix(prefix []byte) (int, error) {
	deleted := 0
	err := b.WithBatch(func(wb *badger.WriteBatch) error {
		return b.ForEachKey(prefix, func(key []byte) error {
			deleted++
			return wb.Delete(key)
		})
	})
	return deleted, err
}
