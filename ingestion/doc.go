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


// Package ingestion loads archived documents into a collection.
//
// A Loader runs one ingest:
//   - the target collection is dropped
//   - every archive is handed to a worker in a fixed-size pool
//   - each worker streams its archive, parses every document and inserts
//     the results in batches through its own collection handle
//   - once all workers are done the query indexes are built
//
// Workers are independent: a failing archive does not stop the others
// unless fail-fast is enabled. Per-archive outcomes are returned in the
// RunSummary and optionally persisted as reports.
package ingestion
