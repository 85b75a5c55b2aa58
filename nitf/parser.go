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


package nitf

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/corpora/core"
)

// Classifier types and classes as they appear in the corpus.
const (
	typeDescriptor          = "descriptor"
	typeGeneralDescriptor   = "general_descriptor"
	typeTypesOfMaterial     = "types_of_material"
	typeTaxonomicClassifier = "taxonomic_classifier"

	classIndexingService = "indexing_service"
	classOnlineProducer  = "online_producer"
)

const pubDateLayout = "20060102T150405"

// Parser turns NITF article text into documents. It is stateless and safe
// for concurrent use.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes one article.
// It returns (nil, nil) for a well-formed article without a docid, and an
// error wrapping ErrMalformed for text that is not a NITF document.
func (p *Parser) Parse(text string) (*core.Document, error) {
	var a article
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Entity = xml.HTMLEntity
	// The text is already decoded; declared charsets are informational.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	start, err := rootElement(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if start.Name.Local != "nitf" {
		return nil, fmt.Errorf("%w: root element is <%s>", ErrMalformed, start.Name.Local)
	}
	if err := dec.DecodeElement(&a, &start); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	docID := strings.TrimSpace(a.Head.DocData.DocID.IDString)
	if docID == "" {
		return nil, nil
	}
	return a.document(docID), nil
}

// rootElement advances to the first start element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return xml.StartElement{}, io.ErrUnexpectedEOF
			}
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func (a *article) document(docID string) *core.Document {
	doc := &core.Document{
		DocID: docID,
		URL:   strings.TrimSpace(a.Head.PubData.ExRef),
	}
	doc.WordCount, _ = strconv.Atoi(strings.TrimSpace(a.Head.PubData.ItemLength))

	for _, m := range a.Head.Metas {
		value := strings.TrimSpace(m.Content)
		switch m.Name {
		case "publication_year":
			doc.PublicationYear = atoi(value)
		case "publication_month":
			doc.PublicationMonth = atoi(value)
		case "publication_day_of_month":
			doc.PublicationDay = atoi(value)
		case "publication_day_of_week":
			doc.DayOfWeek = value
		case "dsk":
			doc.Desk = value
		case "print_section":
			doc.Section = value
		case "print_page_number":
			doc.Page = atoi(value)
		case "print_column":
			doc.Column = atoi(value)
		case "online_sections":
			doc.OnlineSections = appendUnique(doc.OnlineSections, strings.Split(value, ";")...)
		}
	}
	doc.PublicationDate = publicationDate(a.Head.PubData.Date, doc)

	for _, c := range a.Head.DocData.Content.Classifiers {
		value := strings.TrimSpace(c.Value)
		switch c.Type {
		case typeDescriptor:
			switch c.Class {
			case classIndexingService:
				doc.Descriptors = appendUnique(doc.Descriptors, value)
			case classOnlineProducer:
				doc.OnlineDescriptors = appendUnique(doc.OnlineDescriptors, value)
			}
		case typeGeneralDescriptor:
			doc.GeneralDescriptors = appendUnique(doc.GeneralDescriptors, value)
		case typeTypesOfMaterial:
			doc.TypesOfMaterial = appendUnique(doc.TypesOfMaterial, value)
		case typeTaxonomicClassifier:
			doc.TaxonomicClassifiers = appendUnique(doc.TaxonomicClassifiers, value)
		}
	}
	content := a.Head.DocData.Content
	doc.Locations = appendUnique(nil, values(content.Locations)...)
	doc.People = appendUnique(nil, values(content.People)...)
	doc.Organizations = appendUnique(nil, values(content.Organizations)...)
	doc.Titles = appendUnique(nil, values(content.Titles)...)

	bh := a.Body.Head
	if len(bh.Hedline.HL1) > 0 {
		doc.Headline = clean(bh.Hedline.HL1[0])
	}
	for _, hl := range bh.Hedline.HL2 {
		if hl.Class == "online_headline" {
			doc.OnlineHeadline = clean(hl.Value)
		}
	}
	for _, b := range bh.Bylines {
		switch b.Class {
		case "print_byline":
			doc.Byline = clean(b.Value)
		case "normalized_byline":
			doc.NormalizedByline = clean(b.Value)
		}
	}
	doc.Dateline = clean(bh.Dateline)
	doc.Abstract = joinParagraphs(bh.Abstract.Paragraphs)

	for _, b := range a.Body.Content.Blocks {
		switch b.Class {
		case "lead_paragraph":
			doc.LeadParagraph = joinParagraphs(b.Paragraphs)
		case "full_text":
			doc.FullText = joinParagraphs(b.Paragraphs)
		}
	}
	return doc
}

// publicationDate prefers the pubdata timestamp and falls back to the meta fields.
func publicationDate(raw string, doc *core.Document) time.Time {
	if t, err := time.Parse(pubDateLayout, strings.TrimSpace(raw)); err == nil {
		return t.UTC()
	}
	if doc.PublicationYear == 0 || doc.PublicationMonth == 0 || doc.PublicationDay == 0 {
		return time.Time{}
	}
	return time.Date(doc.PublicationYear, time.Month(doc.PublicationMonth), doc.PublicationDay, 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func values(items []tagged) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Value)
	}
	return out
}

// appendUnique appends trimmed, non-empty values not already present.
func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(dst, v) {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

// clean collapses runs of whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinParagraphs(ps []string) string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if p = clean(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
