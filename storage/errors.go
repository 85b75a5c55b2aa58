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

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a document whose docid is already stored.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUniqueViolation indicates that a unique index cannot hold the stored values.
	ErrUniqueViolation = errors.New("unique constraint violated")

	// ErrIndexNotFound indicates a lookup on a field that has no ready index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexOptionsConflict indicates an index already exists with different options.
	ErrIndexOptionsConflict = errors.New("index exists with different options")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)
