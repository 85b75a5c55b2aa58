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

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/corpora/core"
)

// LoadArchiveList reads one archive path per line. Surrounding whitespace
// is trimmed and blank lines are ignored. An input without any path
// returns ErrEmptyArchiveList.
func LoadArchiveList(r io.Reader) ([]core.ArchiveRef, error) {
	var refs []core.ArchiveRef
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path == "" {
			continue
		}
		refs = append(refs, core.ArchiveRef{Path: path, Seq: len(refs)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive list: %w", err)
	}
	if len(refs) == 0 {
		return nil, ErrEmptyArchiveList
	}
	return refs, nil
}

// LoadArchiveListFile reads an archive list from a file.
func LoadArchiveListFile(path string) ([]core.ArchiveRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadArchiveList(f)
}
