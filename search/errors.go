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


package search

import "errors"

var (
	// ErrCollectionRequired is returned when a collection is not provided.
	ErrCollectionRequired = errors.New("collection required")

	// ErrNoTerms is returned when a query has no field terms.
	// Lookups only go through indexes, so free text alone cannot be answered.
	ErrNoTerms = errors.New("query needs at least one field term")

	// ErrInvalidTerm is returned when a term is not of the form field=value.
	ErrInvalidTerm = errors.New("invalid term")
)
