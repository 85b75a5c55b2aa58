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


package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/corpora/core"
)

// Key prefixes for different data types
const (
	collectionPrefix = "col"
	documentSegment  = "doc"
	indexSegment     = "ix"
	indexSpecSegment = "ixspec"
	reportPrefix     = "rpt"
)

// makeCollectionPrefix generates the prefix shared by every key of a collection.
// Format: col:name:
func makeCollectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", collectionPrefix, collection))
}

// makeDocumentPrefix generates the prefix of all document keys of a collection.
func makeDocumentPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", collectionPrefix, collection, documentSegment))
}

// makeDocumentKey generates the primary key of a document.
// Format: col:name:doc:docid
func makeDocumentKey(collection, docID string) []byte {
	prefix := makeDocumentPrefix(collection)
	buf := make([]byte, len(prefix)+len(docID))
	offset := copy(buf, prefix)
	copy(buf[offset:], docID)
	return buf
}

// makeIndexSpecPrefix generates the prefix of all index definitions of a collection.
func makeIndexSpecPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", collectionPrefix, collection, indexSpecSegment))
}

// makeIndexSpecKey generates the key of one index definition.
// Format: col:name:ixspec:field
func makeIndexSpecKey(collection, field string) []byte {
	return append(makeIndexSpecPrefix(collection), field...)
}

// makeIndexPrefix generates the prefix of all entries of one index.
// Format: col:name:ix:field:
func makeIndexPrefix(collection, field string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%s:", collectionPrefix, collection, indexSegment, field))
}

// makePartialIndexKey generates the prefix of all entries holding one value.
// The value is length-prefixed so that "abc" never matches entries of "abcd".
// Format: col:name:ix:field:uvarint(len)value
func makePartialIndexKey(collection, field, value string) []byte {
	buf := makeIndexPrefix(collection, field)
	buf = binary.AppendUvarint(buf, uint64(len(value)))
	return append(buf, value...)
}

// makeIndexEntryKey generates the key of one index entry.
// Format: col:name:ix:field:uvarint(len)value docid
func makeIndexEntryKey(collection, field, value, docID string) []byte {
	return append(makePartialIndexKey(collection, field, value), docID...)
}

// splitIndexEntryKey extracts the value and docid from an index entry key.
// prefixLen is the length of the index prefix of the key.
func splitIndexEntryKey(key []byte, prefixLen int) (value, docID string, ok bool) {
	if len(key) < prefixLen {
		return "", "", false
	}
	rest := key[prefixLen:]
	length, n := binary.Uvarint(rest)
	if n <= 0 || uint64(len(rest)-n) < length {
		return "", "", false
	}
	rest = rest[n:]
	return string(rest[:length]), string(rest[length:]), true
}

// makeReportPrefix generates the prefix of all reports of a run.
// Format: rpt:runid:
func makeReportPrefix(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", reportPrefix, runID))
}

// makeReportKey generates the key of one archive report. The big-endian
// sequence keeps reports in input list order; a list that names the same
// archive twice gets one key per entry.
// Format: rpt:runid:seq archiveID
func makeReportKey(runID string, seq int, archive string) []byte {
	prefix := makeReportPrefix(runID)
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	binary.BigEndian.PutUint64(buf[offset+8:], uint64(core.IDFromContent(archive)))
	return buf
}
