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

import "errors"

var (
	// ErrConnectorRequired is returned when a collection connector is not provided.
	ErrConnectorRequired = errors.New("collection connector required")

	// ErrParserRequired is returned when a document parser is not provided.
	ErrParserRequired = errors.New("document parser required")

	// ErrEmptyArchiveList is returned when there are no archives to ingest.
	ErrEmptyArchiveList = errors.New("no files in input file list")

	// ErrAlreadyRun is returned when a Loader is run a second time.
	ErrAlreadyRun = errors.New("loader has already run")

	// ErrInvalidParseErrorPolicy is returned for an unknown parse error policy name.
	ErrInvalidParseErrorPolicy = errors.New("invalid parse error policy")

	// ErrParseFailed wraps errors returned by the document parser.
	ErrParseFailed = errors.New("document parse failed")

	// ErrIndexing is returned when building the query indexes fails.
	ErrIndexing = errors.New("index creation failed")
)
