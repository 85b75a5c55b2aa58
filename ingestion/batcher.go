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


package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// DefaultBatchSize is the number of documents inserted per store call.
const DefaultBatchSize = 1000

// batcher accumulates documents and inserts them in fixed-size batches.
// It is owned by a single worker and is not safe for concurrent use.
type batcher struct {
	collection storage.Collection
	size       int
	pending    []*core.Document
	batches    int
	inserted   int
	metrics    *Metrics
	onInsert   func(n int)
}

func newBatcher(collection storage.Collection, size int, metrics *Metrics, onInsert func(n int)) *batcher {
	return &batcher{
		collection: collection,
		size:       size,
		pending:    make([]*core.Document, 0, size),
		metrics:    metrics,
		onInsert:   onInsert,
	}
}

// add appends doc and inserts the batch once it reaches the batch size.
func (b *batcher) add(ctx context.Context, doc *core.Document) error {
	b.pending = append(b.pending, doc)
	if len(b.pending) < b.size {
		return nil
	}
	return b.insert(ctx)
}

// flush inserts whatever is pending. Flushing an empty batcher is a no-op
// and does not touch the store.
func (b *batcher) flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	return b.insert(ctx)
}

// discard drops pending documents without inserting them.
func (b *batcher) discard() int {
	n := len(b.pending)
	b.pending = b.pending[:0]
	return n
}

func (b *batcher) insert(ctx context.Context) error {
	start := time.Now()
	n, err := b.collection.InsertMany(ctx, b.pending...)
	b.inserted += n
	b.metrics.countDocuments(documentInserted, n)
	if n > 0 && b.onInsert != nil {
		b.onInsert(n)
	}
	if err != nil {
		return fmt.Errorf("batch %d (%d documents): %w", b.batches+1, len(b.pending), err)
	}
	b.metrics.observeBatch(time.Since(start))
	b.batches++
	// The slice is reused; the store must not keep references to it.
	clear(b.pending)
	b.pending = b.pending[:0]
	return nil
}
