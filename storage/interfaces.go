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


package storage

import (
	"context"

	"github.com/poiesic/corpora/core"
)

// Collection is a named set of documents keyed by their docid.
// Implementations must be thread-safe and support concurrent inserts.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Drop removes every document, index entry and index definition.
	// Dropping an empty or missing collection is not an error.
	Drop(ctx context.Context) error

	// InsertMany inserts an ordered batch of documents.
	// An empty batch is a no-op. The whole batch fails with ErrDuplicateKey
	// if any docid is already stored or repeats within the batch, and with
	// ErrUniqueViolation if it would break an existing unique index.
	// Returns the number of documents written.
	InsertMany(ctx context.Context, docs ...*core.Document) (int, error)

	// CreateIndex builds an index over a document field.
	// If unique is set and two stored documents share a value, the partial
	// index is removed and ErrUniqueViolation is returned.
	// Creating an index that already exists with the same options is a no-op.
	CreateIndex(ctx context.Context, field string, unique bool) (*core.IndexSpec, error)

	// Indexes lists the index definitions of the collection, ordered by field.
	Indexes(ctx context.Context) ([]*core.IndexSpec, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Get retrieves a document by docid.
	// Returns ErrNotFound if the document doesn't exist.
	Get(ctx context.Context, docID string) (*core.Document, error)

	// FindDocIDs returns the docids of documents whose field holds value.
	// Lookups only use indexes: returns ErrIndexNotFound if the field has no ready index.
	FindDocIDs(ctx context.Context, field, value string) ([]string, error)

	// Find returns the documents whose field holds value. See FindDocIDs.
	Find(ctx context.Context, field, value string) ([]*core.Document, error)

	// Close releases the handle. The underlying store stays open.
	Close() error
}

// Connector hands out independent collection handles.
// Each ingest worker connects on its own and closes its handle when done.
type Connector interface {
	Connect(ctx context.Context) (Collection, error)
}

// ReportRepository stores per-archive outcomes of ingest runs.
type ReportRepository interface {
	// SaveReport persists the report of one archive in one run.
	// Saving again for the same run and archive replaces the earlier report.
	SaveReport(ctx context.Context, report *core.ArchiveReport) error

	// ListReports returns every report of a run.
	ListReports(ctx context.Context, runID string) ([]*core.ArchiveReport, error)

	// Close releases resources.
	Close() error
}
