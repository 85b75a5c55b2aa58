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


package archive

import "errors"

var (
	// ErrCorruptArchive indicates the tar stream or its compression is unreadable.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrInvalidUTF8 indicates a document whose bytes are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("document is not valid utf-8")

	// ErrEntryTooLarge indicates a document larger than the configured limit.
	ErrEntryTooLarge = errors.New("document exceeds size limit")

	// ErrAlreadyScanned indicates Documents was called twice on one scanner.
	ErrAlreadyScanned = errors.New("archive already scanned")
)
