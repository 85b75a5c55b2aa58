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
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Storage field names. These are the names used for indexing and lookups.
const (
	FieldDocID                = "docid"
	FieldGeneralDescriptors   = "general_descriptors"
	FieldTypesOfMaterial      = "types_of_material"
	FieldDescriptors          = "descriptors"
	FieldOnlineDescriptors    = "online_descriptors"
	FieldTaxonomicClassifiers = "taxonomic_classifiers"
	FieldLocations            = "locations"
	FieldPeople               = "people"
	FieldOrganizations        = "organizations"
	FieldTitles               = "titles"
	FieldSection              = "section"
	FieldDesk                 = "desk"
	FieldPublicationYear      = "publication_year"
	FieldPublicationMonth     = "publication_month"
	FieldSource               = "source"
)

// ArchiveRef identifies one archive file to ingest.
type ArchiveRef struct {
	Path string
	Seq  int // Position in the input list
}

func (a ArchiveRef) String() string {
	return a.Path
}

// Entry is one document member of an archive, decoded to text.
// Entries only exist while an archive is being streamed.
type Entry struct {
	Name string
	Text string
}

// Document is the structured, insert-ready form of one archived article.
type Document struct {
	DocID                string
	URL                  string
	Headline             string
	OnlineHeadline       string
	Byline               string
	NormalizedByline     string
	Dateline             string
	Abstract             string
	LeadParagraph        string
	FullText             string
	PublicationDate      time.Time
	PublicationYear      int
	PublicationMonth     int
	PublicationDay       int
	DayOfWeek            string
	Section              string
	Desk                 string
	Page                 int
	Column               int
	WordCount            int
	OnlineSections       []string
	Descriptors          []string
	OnlineDescriptors    []string
	GeneralDescriptors   []string
	TypesOfMaterial      []string
	TaxonomicClassifiers []string
	Locations            []string
	People               []string
	Organizations        []string
	Titles               []string
	Source               string    // archive!entry the document was read from
	InsertedAt           time.Time // When the document was inserted into the store
}

// Values returns the values of the named storage field.
// Multi-valued fields return one value per element, scalar fields at most one.
// The boolean is false if the field is not indexable.
func (d *Document) Values(field string) ([]string, bool) {
	switch field {
	case FieldDocID:
		return single(d.DocID), true
	case FieldGeneralDescriptors:
		return d.GeneralDescriptors, true
	case FieldTypesOfMaterial:
		return d.TypesOfMaterial, true
	case FieldDescriptors:
		return d.Descriptors, true
	case FieldOnlineDescriptors:
		return d.OnlineDescriptors, true
	case FieldTaxonomicClassifiers:
		return d.TaxonomicClassifiers, true
	case FieldLocations:
		return d.Locations, true
	case FieldPeople:
		return d.People, true
	case FieldOrganizations:
		return d.Organizations, true
	case FieldTitles:
		return d.Titles, true
	case FieldSection:
		return single(d.Section), true
	case FieldDesk:
		return single(d.Desk), true
	case FieldPublicationYear:
		return singleInt(d.PublicationYear), true
	case FieldPublicationMonth:
		return singleInt(d.PublicationMonth), true
	case FieldSource:
		return single(d.Source), true
	}
	return nil, false
}

// IsIndexableField reports whether the field name can be indexed.
func IsIndexableField(field string) bool {
	_, ok := (&Document{}).Values(field)
	return ok
}

func single(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

func singleInt(v int) []string {
	if v == 0 {
		return nil
	}
	return []string{strconv.Itoa(v)}
}

// IndexState describes the lifecycle of an index.
type IndexState int

const (
	// IndexStateBuilding marks an index whose entries are still being written.
	IndexStateBuilding IndexState = iota + 1
	// IndexStateReady marks an index that is complete and usable for lookups.
	IndexStateReady
)

func (s IndexState) String() string {
	switch s {
	case IndexStateBuilding:
		return "building"
	case IndexStateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// IndexSpec describes an index over one document field.
type IndexSpec struct {
	Field     string
	Unique    bool
	State     IndexState
	Entries   int
	CreatedAt time.Time
}

// ArchiveOutcome is the final state of one archive's ingestion.
type ArchiveOutcome int

const (
	// OutcomeSucceeded means every document was handled and all batches written.
	OutcomeSucceeded ArchiveOutcome = iota + 1
	// OutcomeFailed means the archive stopped on an error.
	OutcomeFailed
	// OutcomeCanceled means the run was canceled before the archive finished.
	OutcomeCanceled
)

func (o ArchiveOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ArchiveReport records how one archive fared in one run.
type ArchiveReport struct {
	RunID      string
	Seq        int // position in the run's input list
	Archive    string
	Outcome    ArchiveOutcome
	Inserted   int
	Skipped    int
	Failed     int
	Batches    int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the archive took to process.
func (r *ArchiveReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
