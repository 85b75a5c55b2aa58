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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
	"github.com/sethvargo/go-retry"
)

const (
	defaultConflictRetries = 8
	defaultConflictBackoff = 5 * time.Millisecond
)

// Collection implements storage.Collection for BadgerDB.
//
// Documents are stored under their docid, so uniqueness of docids holds at
// all times. Index entries are kept under col:name:ix:field: and their
// definitions under col:name:ixspec:field.
type Collection struct {
	backend         *Backend
	name            string
	logger          *slog.Logger
	conflictRetries uint64
	conflictBackoff time.Duration
	closed          atomic.Bool
}

var _ storage.Collection = (*Collection)(nil)

// CollectionOption configures a Collection.
type CollectionOption func(*Collection) error

// WithLogger sets the logger used by the collection.
func WithLogger(logger *slog.Logger) CollectionOption {
	return func(c *Collection) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithConflictRetries sets how often a conflicting write transaction is retried
// and the initial backoff between attempts.
func WithConflictRetries(retries uint64, backoff time.Duration) CollectionOption {
	return func(c *Collection) error {
		if backoff <= 0 {
			return errors.New("conflict backoff must be positive")
		}
		c.conflictRetries = retries
		c.conflictBackoff = backoff
		return nil
	}
}

// NewCollection creates a handle on the named collection.
func NewCollection(backend *Backend, name string, opts ...CollectionOption) (*Collection, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	if err := core.ValidateCollectionName(name); err != nil {
		return nil, err
	}
	c := &Collection{
		backend:         backend,
		name:            name,
		logger:          slog.Default(),
		conflictRetries: defaultConflictRetries,
		conflictBackoff: defaultConflictBackoff,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	c.logger = c.logger.With("collection", name)
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Close releases the handle. The backend stays open.
func (c *Collection) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Collection) checkOpen() error {
	if c.closed.Load() || c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// Drop removes every document, index entry and index definition of the collection.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	deleted, err := c.backend.DeletePrefix(makeCollectionPrefix(c.name))
	if err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", c.name, err)
	}
	c.logger.Debug("collection dropped", "keys", deleted)
	return nil
}

// InsertMany inserts docs in a single transaction.
// Conflicts with concurrent writers are retried with exponential backoff.
// A batch too large for one transaction is split in halves, so each half
// commits on its own.
func (c *Collection) InsertMany(ctx context.Context, docs ...*core.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	if err := c.checkOpen(); err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return 0, err
		}
		if _, ok := seen[doc.DocID]; ok {
			return 0, fmt.Errorf("%w: docid %q repeats within batch", storage.ErrDuplicateKey, doc.DocID)
		}
		seen[doc.DocID] = struct{}{}
	}

	return c.insertSplitting(ctx, docs, time.Now().UTC())
}

func (c *Collection) insertSplitting(ctx context.Context, docs []*core.Document, now time.Time) (int, error) {
	err := c.insertRetrying(ctx, docs, now)
	if err == nil {
		return len(docs), nil
	}
	if !errors.Is(err, badger.ErrTxnTooBig) || len(docs) < 2 {
		return 0, err
	}

	mid := len(docs) / 2
	c.logger.Debug("batch exceeds transaction size, splitting", "size", len(docs))
	first, err := c.insertSplitting(ctx, docs[:mid], now)
	if err != nil {
		return first, err
	}
	second, err := c.insertSplitting(ctx, docs[mid:], now)
	return first + second, err
}

func (c *Collection) insertRetrying(ctx context.Context, docs []*core.Document, now time.Time) error {
	backoff := retry.WithMaxRetries(c.conflictRetries, retry.NewExponential(c.conflictBackoff))
	// A started batch completes even if ctx is canceled.
	return retry.Do(context.WithoutCancel(ctx), backoff, func(ctx context.Context) error {
		err := c.insertTx(docs, now)
		if errors.Is(err, badger.ErrConflict) {
			c.logger.Debug("insert conflicted, retrying", "size", len(docs))
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Collection) insertTx(docs []*core.Document, now time.Time) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		specs, err := readIndexSpecs(tx, c.name)
		if err != nil {
			return err
		}

		for _, doc := range docs {
			key := makeDocumentKey(c.name, doc.DocID)
			// The read registers the key for conflict detection, so a
			// concurrent insert of the same docid fails one of the commits.
			if _, err := tx.Get(key); err == nil {
				return fmt.Errorf("%w: docid %q", storage.ErrDuplicateKey, doc.DocID)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			doc.InsertedAt = now
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}

			for _, spec := range specs {
				if err := c.addIndexEntries(tx, spec, doc); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// addIndexEntries writes the entries of one document into one index.
// Unique indexes keep a single key per value so that two writers of the
// same value conflict.
func (c *Collection) addIndexEntries(tx *badger.Txn, spec *core.IndexSpec, doc *core.Document) error {
	values, _ := doc.Values(spec.Field)
	for _, value := range values {
		if !spec.Unique {
			key := makeIndexEntryKey(c.name, spec.Field, value, doc.DocID)
			if err := tx.Set(key, []byte(doc.DocID)); err != nil {
				return err
			}
			continue
		}

		key := makePartialIndexKey(c.name, spec.Field, value)
		item, err := tx.Get(key)
		if err == nil {
			var owner string
			if err := item.Value(func(val []byte) error {
				owner = string(val)
				return nil
			}); err != nil {
				return err
			}
			if owner != doc.DocID {
				return fmt.Errorf("%w: %s %q already held by %q", storage.ErrUniqueViolation, spec.Field, value, owner)
			}
			continue
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, []byte(doc.DocID)); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndex builds an index over field from every stored document.
//
// The definition is written first in the building state so that concurrent
// inserts maintain the index, then entries are written in bulk and the
// definition is marked ready. For unique indexes every value owns one key;
// if fewer keys than values were written two documents share a value and
// the index is removed again.
func (c *Collection) CreateIndex(ctx context.Context, field string, unique bool) (*core.IndexSpec, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	spec := &core.IndexSpec{
		Field:     field,
		Unique:    unique,
		State:     core.IndexStateBuilding,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := core.ValidateIndexSpec(spec); err != nil {
		return nil, err
	}

	existing, err := c.indexSpec(field)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Unique != unique {
			return nil, fmt.Errorf("%w: %s (unique=%t)", storage.ErrIndexOptionsConflict, field, existing.Unique)
		}
		if existing.State == core.IndexStateReady {
			return existing, nil
		}
		// A leftover from an interrupted build is rebuilt from scratch.
		if err := c.removeIndex(field); err != nil {
			return nil, err
		}
	}

	logger := c.logger.With("field", field, "unique", unique)
	logger.Debug("building index")

	if err := c.putIndexSpec(spec); err != nil {
		return nil, err
	}

	written, err := c.writeIndexEntries(ctx, spec)
	if err != nil {
		return nil, errors.Join(err, c.removeIndex(field))
	}

	entries := 0
	if err := c.backend.ForEachKey(makeIndexPrefix(c.name, field), func([]byte) error {
		entries++
		return nil
	}); err != nil {
		return nil, errors.Join(err, c.removeIndex(field))
	}

	if unique && entries < written {
		logger.Warn("unique index violated, removing partial index", "values", written, "entries", entries)
		if err := c.removeIndex(field); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d of %d %s values are duplicates", storage.ErrUniqueViolation, written-entries, written, field)
	}

	spec.State = core.IndexStateReady
	spec.Entries = entries
	if err := c.putIndexSpec(spec); err != nil {
		return nil, err
	}
	logger.Debug("index ready", "entries", entries)
	return spec, nil
}

// writeIndexEntries streams every stored document into a write batch and
// returns the number of values written.
func (c *Collection) writeIndexEntries(ctx context.Context, spec *core.IndexSpec) (int, error) {
	written := 0
	err := c.backend.WithBatch(func(wb *badger.WriteBatch) error {
		return c.forEachDocument(func(doc *core.Document) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values, _ := doc.Values(spec.Field)
			values = slices.Compact(slices.Sorted(slices.Values(values)))
			for _, value := range values {
				var key []byte
				if spec.Unique {
					key = makePartialIndexKey(c.name, spec.Field, value)
				} else {
					key = makeIndexEntryKey(c.name, spec.Field, value, doc.DocID)
				}
				if err := wb.Set(key, []byte(doc.DocID)); err != nil {
					return err
				}
				written++
			}
			return nil
		})
	})
	return written, err
}

// removeIndex deletes the entries and the definition of an index.
func (c *Collection) removeIndex(field string) error {
	if _, err := c.backend.DeletePrefix(makeIndexPrefix(c.name, field)); err != nil {
		return err
	}
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeIndexSpecKey(c.name, field)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (c *Collection) putIndexSpec(spec *core.IndexSpec) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeIndexSpecKey(c.name, spec.Field), storage.MarshalIndexSpec(spec)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (c *Collection) indexSpec(field string) (*core.IndexSpec, error) {
	var spec *core.IndexSpec
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		spec, err = readIndexSpec(tx, c.name, field)
		return err
	}, false)
	return spec, err
}

// Indexes lists the index definitions of the collection, ordered by field.
func (c *Collection) Indexes(ctx context.Context) ([]*core.IndexSpec, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	var specs []*core.IndexSpec
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		specs, err = readIndexSpecs(tx, c.name)
		return err
	}, false)
	return specs, err
}

// Count returns the number of stored documents.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	count := 0
	err := c.backend.ForEachKey(makeDocumentPrefix(c.name), func([]byte) error {
		count++
		return nil
	})
	return count, err
}

// Get retrieves a document by docid.
func (c *Collection) Get(ctx context.Context, docID string) (*core.Document, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	var doc *core.Document
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, makeDocumentKey(c.name, docID))
		return err
	}, false)
	return doc, err
}

// FindDocIDs returns the docids of documents whose field holds value.
func (c *Collection) FindDocIDs(ctx context.Context, field, value string) ([]string, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	var ids []string
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		ids, err = c.lookup(tx, field, value)
		return err
	}, false)
	return ids, err
}

// Find returns the documents whose field holds value, ordered by docid.
func (c *Collection) Find(ctx context.Context, field, value string) ([]*core.Document, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	var docs []*core.Document
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := c.lookup(tx, field, value)
		if err != nil {
			return err
		}
		docs = make([]*core.Document, 0, len(ids))
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(c.name, id))
			if err != nil {
				return fmt.Errorf("index %s points at docid %q: %w", field, id, err)
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	return docs, err
}

// lookup reads index entries for value. Only ready indexes are consulted.
func (c *Collection) lookup(tx *badger.Txn, field, value string) ([]string, error) {
	spec, err := readIndexSpec(tx, c.name, field)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrIndexNotFound, field)
		}
		return nil, err
	}
	if spec.State != core.IndexStateReady {
		return nil, fmt.Errorf("%w: %s is %s", storage.ErrIndexNotFound, field, spec.State)
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialIndexKey(c.name, field, value)
	// Non-unique entries carry the docid in the key.
	opts.PrefetchValues = spec.Unique
	iter := tx.NewIterator(opts)
	defer iter.Close()

	prefixLen := len(makeIndexPrefix(c.name, field))
	var ids []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		if spec.Unique {
			err := item.Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		entryValue, docID, ok := splitIndexEntryKey(item.Key(), prefixLen)
		if !ok || entryValue != value || docID == "" {
			return nil, fmt.Errorf("%w: malformed %s index entry", storage.ErrSerializationFailed, field)
		}
		ids = append(ids, docID)
	}
	return ids, nil
}

// forEachDocument decodes every stored document in docid order.
func (c *Collection) forEachDocument(fn func(doc *core.Document) error) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(c.name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readDocument reads a document within a transaction.
// Returns storage.ErrNotFound if the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

func readIndexSpec(tx *badger.Txn, collection, field string) (*core.IndexSpec, error) {
	item, err := tx.Get(makeIndexSpecKey(collection, field))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var spec *core.IndexSpec
	err = item.Value(func(val []byte) error {
		var err error
		spec, err = storage.UnmarshalIndexSpec(val)
		return err
	})
	return spec, err
}

func readIndexSpecs(tx *badger.Txn, collection string) ([]*core.IndexSpec, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeIndexSpecPrefix(collection)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var specs []*core.IndexSpec
	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			spec, err := storage.UnmarshalIndexSpec(val)
			if err != nil {
				return err
			}
			specs = append(specs, spec)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// Connector hands out Collection handles over a shared backend.
type Connector struct {
	backend *Backend
	name    string
	opts    []CollectionOption
}

var _ storage.Connector = (*Connector)(nil)

// NewConnector creates a connector for the named collection.
// The options are applied to every handle it creates.
func NewConnector(backend *Backend, name string, opts ...CollectionOption) (*Connector, error) {
	if _, err := NewCollection(backend, name, opts...); err != nil {
		return nil, err
	}
	return &Connector{backend: backend, name: name, opts: opts}, nil
}

// Connect opens a new handle on the collection.
func (c *Connector) Connect(ctx context.Context) (storage.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return NewCollection(c.backend, c.name, c.opts...)
}
