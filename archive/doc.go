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


// Package archive streams document entries out of tar archives.
//
// An archive is read exactly once, front to back. Compression is detected
// from the leading bytes rather than the file name, so plain, gzip, bzip2,
// xz and zstd compressed tars are all opened the same way:
//
//	scanner, err := archive.Open("1987.tgz")
//	if err != nil {
//		return err
//	}
//	defer scanner.Close()
//
//	for entry, err := range scanner.Documents(ctx) {
//		if err != nil {
//			return err
//		}
//		// use entry.Name and entry.Text
//	}
//
// Only regular members whose name ends with the document suffix (".xml" by
// default) are read. Other members are skipped without reading their bodies.
// Member contents must be valid UTF-8.
//
// With WithNestedDepth, members that are themselves tar archives are
// streamed recursively and their documents are named "outer!inner".
package archive
