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
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// Scores by where the free text matched.
const (
	headlineScore float32 = 1.5
	bodyScore     float32 = 1.0
	termScore     float32 = 1.0
)

// Searcher runs queries against one collection.
type Searcher struct {
	collection storage.Collection
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(collection storage.Collection, opts ...Option) (*Searcher, error) {
	if collection == nil {
		return nil, ErrCollectionRequired
	}

	s := &Searcher{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the documents matching the query, best first.
func (s *Searcher) Search(ctx context.Context, query *Query) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query *Query, monitor SearchMonitor) ([]*Result, error) {
	if query == nil || len(query.Terms) == 0 {
		return nil, ErrNoTerms
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Resolve and intersect the terms
	var matched map[string]bool
	for _, term := range query.Terms {
		docIDs, err := s.collection.FindDocIDs(ctx, term.Field, term.Value)
		if err != nil {
			s.logger.Error("error looking up term", "term", term.String(), "err", err)
			return nil, err
		}
		monitor.AfterTermLookup(term, docIDs)

		if matched == nil {
			matched = make(map[string]bool, len(docIDs))
			for _, id := range docIDs {
				matched[id] = true
			}
			continue
		}
		found := make(map[string]bool, len(docIDs))
		for _, id := range docIDs {
			found[id] = true
		}
		maps.DeleteFunc(matched, func(id string, _ bool) bool { return !found[id] })
	}
	monitor.AfterIntersection(maps.Keys(matched))

	if len(matched) == 0 {
		monitor.Finish(nil)
		return []*Result{}, nil
	}

	// 2. Retrieve the documents
	docs := make([]*core.Document, 0, len(matched))
	for _, id := range slices.Sorted(maps.Keys(matched)) {
		doc, err := s.collection.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("indexed document is missing", "docid", id)
			continue
		}
		if err != nil {
			s.logger.Error("error retrieving document", "docid", id, "err", err)
			return nil, err
		}
		docs = append(docs, doc)
	}
	monitor.AfterRecordRetrieval(docs)

	// 3. Score by free text
	words := tokenizeAndFilter(query.Text)
	results := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		score := termScore
		if len(words) > 0 {
			switch {
			case containsAllWords(doc.Headline+" "+doc.OnlineHeadline, words):
				score = headlineScore
				monitor.HeadlineHit(doc)
			case containsAllWords(body(doc), words):
				score = bodyScore
				monitor.BodyHit(doc)
			default:
				continue
			}
		}
		results = append(results, &Result{Document: doc, Score: score})
	}

	slices.SortStableFunc(results, func(a, b *Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return b.Document.PublicationDate.Compare(a.Document.PublicationDate)
	})
	if query.MaxHits > 0 && len(results) > query.MaxHits {
		results = results[:query.MaxHits]
	}
	monitor.Finish(results)

	return results, nil
}

func body(doc *core.Document) string {
	return strings.Join([]string{doc.Abstract, doc.LeadParagraph, doc.FullText}, " ")
}
