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


package storage

import (
	"fmt"

	"github.com/poiesic/corpora/core"
)

// Format versions written as the first field of each stored value.
const (
	documentFormat  = 1
	indexSpecFormat = 1
	reportFormat    = 2
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	var s sizer
	visitDocumentSize(&s, doc)
	w := &writer{bs: make([]byte, int(s))}
	w.uint(documentFormat)
	w.string(doc.DocID)
	w.string(doc.URL)
	w.string(doc.Headline)
	w.string(doc.OnlineHeadline)
	w.string(doc.Byline)
	w.string(doc.NormalizedByline)
	w.string(doc.Dateline)
	w.string(doc.Abstract)
	w.string(doc.LeadParagraph)
	w.string(doc.FullText)
	w.time(doc.PublicationDate)
	w.int(doc.PublicationYear)
	w.int(doc.PublicationMonth)
	w.int(doc.PublicationDay)
	w.string(doc.DayOfWeek)
	w.string(doc.Section)
	w.string(doc.Desk)
	w.int(doc.Page)
	w.int(doc.Column)
	w.int(doc.WordCount)
	w.strings(doc.OnlineSections)
	w.strings(doc.Descriptors)
	w.strings(doc.OnlineDescriptors)
	w.strings(doc.GeneralDescriptors)
	w.strings(doc.TypesOfMaterial)
	w.strings(doc.TaxonomicClassifiers)
	w.strings(doc.Locations)
	w.strings(doc.People)
	w.strings(doc.Organizations)
	w.strings(doc.Titles)
	w.string(doc.Source)
	w.time(doc.InsertedAt)
	return w.bs[:w.n]
}

func visitDocumentSize(s *sizer, doc *core.Document) {
	s.uint(documentFormat)
	s.string(doc.DocID)
	s.string(doc.URL)
	s.string(doc.Headline)
	s.string(doc.OnlineHeadline)
	s.string(doc.Byline)
	s.string(doc.NormalizedByline)
	s.string(doc.Dateline)
	s.string(doc.Abstract)
	s.string(doc.LeadParagraph)
	s.string(doc.FullText)
	s.time(doc.PublicationDate)
	s.int(doc.PublicationYear)
	s.int(doc.PublicationMonth)
	s.int(doc.PublicationDay)
	s.string(doc.DayOfWeek)
	s.string(doc.Section)
	s.string(doc.Desk)
	s.int(doc.Page)
	s.int(doc.Column)
	s.int(doc.WordCount)
	s.strings(doc.OnlineSections)
	s.strings(doc.Descriptors)
	s.strings(doc.OnlineDescriptors)
	s.strings(doc.GeneralDescriptors)
	s.strings(doc.TypesOfMaterial)
	s.strings(doc.TaxonomicClassifiers)
	s.strings(doc.Locations)
	s.strings(doc.People)
	s.strings(doc.Organizations)
	s.strings(doc.Titles)
	s.string(doc.Source)
	s.time(doc.InsertedAt)
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	r := &reader{bs: data}
	if err := checkFormat(r, documentFormat); err != nil {
		return nil, err
	}
	doc := &core.Document{
		DocID:            r.string(),
		URL:              r.string(),
		Headline:         r.string(),
		OnlineHeadline:   r.string(),
		Byline:           r.string(),
		NormalizedByline: r.string(),
		Dateline:         r.string(),
		Abstract:         r.string(),
		LeadParagraph:    r.string(),
		FullText:         r.string(),
		PublicationDate:  r.time(),
		PublicationYear:  r.int(),
		PublicationMonth: r.int(),
		PublicationDay:   r.int(),
		DayOfWeek:        r.string(),
		Section:          r.string(),
		Desk:             r.string(),
		Page:             r.int(),
		Column:           r.int(),
		WordCount:        r.int(),
	}
	doc.OnlineSections = r.strings()
	doc.Descriptors = r.strings()
	doc.OnlineDescriptors = r.strings()
	doc.GeneralDescriptors = r.strings()
	doc.TypesOfMaterial = r.strings()
	doc.TaxonomicClassifiers = r.strings()
	doc.Locations = r.strings()
	doc.People = r.strings()
	doc.Organizations = r.strings()
	doc.Titles = r.strings()
	doc.Source = r.string()
	doc.InsertedAt = r.time()
	if r.err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, r.err)
	}
	return doc, nil
}

// MarshalIndexSpec serializes an IndexSpec to bytes.
func MarshalIndexSpec(spec *core.IndexSpec) []byte {
	var s sizer
	s.uint(indexSpecFormat)
	s.string(spec.Field)
	s.bool(spec.Unique)
	s.int(int(spec.State))
	s.int(spec.Entries)
	s.time(spec.CreatedAt)

	w := &writer{bs: make([]byte, int(s))}
	w.uint(indexSpecFormat)
	w.string(spec.Field)
	w.bool(spec.Unique)
	w.int(int(spec.State))
	w.int(spec.Entries)
	w.time(spec.CreatedAt)
	return w.bs[:w.n]
}

// UnmarshalIndexSpec deserializes an IndexSpec from bytes.
func UnmarshalIndexSpec(data []byte) (*core.IndexSpec, error) {
	r := &reader{bs: data}
	if err := checkFormat(r, indexSpecFormat); err != nil {
		return nil, err
	}
	spec := &core.IndexSpec{
		Field:     r.string(),
		Unique:    r.bool(),
		State:     core.IndexState(r.int()),
		Entries:   r.int(),
		CreatedAt: r.time(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: index spec: %w", ErrSerializationFailed, r.err)
	}
	return spec, nil
}

// MarshalReport serializes an ArchiveReport to bytes.
func MarshalReport(report *core.ArchiveReport) []byte {
	var s sizer
	s.uint(reportFormat)
	s.string(report.RunID)
	s.int(report.Seq)
	s.string(report.Archive)
	s.int(int(report.Outcome))
	s.int(report.Inserted)
	s.int(report.Skipped)
	s.int(report.Failed)
	s.int(report.Batches)
	s.string(report.Error)
	s.time(report.StartedAt)
	s.time(report.FinishedAt)

	w := &writer{bs: make([]byte, int(s))}
	w.uint(reportFormat)
	w.string(report.RunID)
	w.int(report.Seq)
	w.string(report.Archive)
	w.int(int(report.Outcome))
	w.int(report.Inserted)
	w.int(report.Skipped)
	w.int(report.Failed)
	w.int(report.Batches)
	w.string(report.Error)
	w.time(report.StartedAt)
	w.time(report.FinishedAt)
	return w.bs[:w.n]
}

// UnmarshalReport deserializes an ArchiveReport from bytes.
func UnmarshalReport(data []byte) (*core.ArchiveReport, error) {
	r := &reader{bs: data}
	if err := checkFormat(r, reportFormat); err != nil {
		return nil, err
	}
	report := &core.ArchiveReport{
		RunID:      r.string(),
		Seq:        r.int(),
		Archive:    r.string(),
		Outcome:    core.ArchiveOutcome(r.int()),
		Inserted:   r.int(),
		Skipped:    r.int(),
		Failed:     r.int(),
		Batches:    r.int(),
		Error:      r.string(),
		StartedAt:  r.time(),
		FinishedAt: r.time(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: report: %w", ErrSerializationFailed, r.err)
	}
	return report, nil
}

func checkFormat(r *reader, want uint64) error {
	got := r.uint()
	if r.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	if got != want {
		return fmt.Errorf("%w: unsupported format version %d", ErrSerializationFailed, got)
	}
	return nil
}
