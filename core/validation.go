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

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document before it is written.
//
// Validation rules:
//   - DocID must not be empty (it is the unique key)
//
// NOT validated (the parser's responsibility):
//   - classification fields, which may be empty
//   - text fields
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.DocID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocID)
	}

	return nil
}

// ValidateIndexSpec validates that an index can be built over the spec's field.
func ValidateIndexSpec(spec *IndexSpec) error {
	if spec == nil {
		return fmt.Errorf("%w: spec is nil", ErrInvalidIndexSpec)
	}
	if !IsIndexableField(spec.Field) {
		return fmt.Errorf("%w: %w %q", ErrInvalidIndexSpec, ErrUnknownField, spec.Field)
	}
	return nil
}

// ValidateCollectionName checks that a collection name is usable.
// Names must be non-empty and must not contain ':' which separates key segments.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidCollectionName)
	}
	if strings.ContainsAny(name, ": \t\n") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidCollectionName, name)
	}
	return nil
}
