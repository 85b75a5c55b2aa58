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

import "github.com/poiesic/corpora/core"

// Parser turns the text of one archive entry into a document.
//
// A non-nil document is inserted. A nil document with a nil error means
// the entry holds nothing insertable and is skipped. An error marks the
// entry as failed and is handled according to the ParseErrorPolicy.
// Implementations must be safe for concurrent use.
type Parser interface {
	Parse(text string) (*core.Document, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(text string) (*core.Document, error)

// Parse calls f(text).
func (f ParserFunc) Parse(text string) (*core.Document, error) {
	return f(text)
}
