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

import (
	"fmt"
	"strings"

	"github.com/poiesic/corpora/core"
)

// Term matches documents whose field holds value exactly.
type Term struct {
	Field string
	Value string
}

func (t Term) String() string {
	return t.Field + "=" + t.Value
}

// ParseTerm parses a term written as field=value.
func ParseTerm(s string) (Term, error) {
	field, value, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" || value == "" {
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTerm, s)
	}
	if !core.IsIndexableField(field) {
		return Term{}, fmt.Errorf("%w: %q is not an indexable field", ErrInvalidTerm, field)
	}
	return Term{Field: field, Value: value}, nil
}

// Query selects documents matching every term and, if Text is set, every
// significant word of Text.
type Query struct {
	Terms   []Term
	Text    string
	MaxHits int // zero means unlimited
}

func (q *Query) String() string {
	parts := make([]string, 0, len(q.Terms)+1)
	for _, term := range q.Terms {
		parts = append(parts, term.String())
	}
	if q.Text != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Text))
	}
	return strings.Join(parts, " ")
}

// Result is one ranked match.
type Result struct {
	Document *core.Document
	Score    float32
}
