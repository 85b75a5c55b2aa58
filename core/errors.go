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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyDocID indicates the DocID field is empty.
	ErrEmptyDocID = errors.New("docid cannot be empty")

	// ErrInvalidIndexSpec indicates an IndexSpec failed validation.
	ErrInvalidIndexSpec = errors.New("invalid index spec")

	// ErrUnknownField indicates a field name that cannot be indexed.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidCollectionName indicates a collection name that cannot be used as a key segment.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)
