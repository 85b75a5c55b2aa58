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


// Package storage provides the storage abstraction layer for corpora.
//
// This package defines the Collection, Connector and ReportRepository
// interfaces that decouple the ingest pipeline from the store implementation,
// plus the binary encoding of stored values.
//
// # Collections
//
// A Collection holds documents keyed by docid. The docid is the primary key,
// so uniqueness is enforced on every insert rather than only once a unique
// index exists. Secondary indexes are built explicitly with CreateIndex and
// maintained by later inserts:
//
//	n, err := coll.InsertMany(ctx, docs...)
//	spec, err := coll.CreateIndex(ctx, core.FieldGeneralDescriptors, false)
//	ids, err := coll.FindDocIDs(ctx, core.FieldGeneralDescriptors, "Elections")
//
// Lookups by field never scan: a field without a ready index yields
// ErrIndexNotFound.
//
// # Connections
//
// A Connector hands every worker its own Collection handle. Closing a handle
// never closes the shared backend.
//
// # Thread Safety
//
// All implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation.
// Pass context.Background() for operations
// without specific timeout requirements.
package storage
