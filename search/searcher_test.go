package search

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T, docs ...*core.Document) storage.Collection {
	t.Helper()
	collection, backend, err := badger.NewMemoryCollection("articles")
	require.NoError(t, err)
	t.Cleanup(func() {
		collection.Close()
		backend.Close()
	})

	ctx := context.Background()
	if len(docs) > 0 {
		_, err = collection.InsertMany(ctx, docs...)
		require.NoError(t, err)
	}
	for _, field := range []string{core.FieldGeneralDescriptors, core.FieldTypesOfMaterial, core.FieldDesk} {
		_, err = collection.CreateIndex(ctx, field, false)
		require.NoError(t, err)
	}
	return collection
}

func article(docID, headline, lead string, day int, general ...string) *core.Document {
	return &core.Document{
		DocID:              docID,
		Headline:           headline,
		LeadParagraph:      lead,
		PublicationDate:    time.Date(1999, time.March, day, 0, 0, 0, 0, time.UTC),
		Desk:               "Metropolitan Desk",
		GeneralDescriptors: general,
		TypesOfMaterial:    []string{"News"},
	}
}

func docIDs(results []*Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Document.DocID)
	}
	return ids
}

func TestNewSearcher(t *testing.T) {
	collection := newTestCollection(t)

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(collection)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(collection, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(collection, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("nil collection", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrCollectionRequired, err)
	})
}

func TestSearch_NoTerms(t *testing.T) {
	searcher, err := NewSearcher(newTestCollection(t))
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), &Query{Text: "budget"})
	assert.ErrorIs(t, err, ErrNoTerms)

	_, err = searcher.Search(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTerms)
}

func TestSearch_EmptyCollection(t *testing.T) {
	searcher, err := NewSearcher(newTestCollection(t))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), &Query{
		Terms: []Term{{Field: core.FieldGeneralDescriptors, Value: "Politics"}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_UnindexedField(t *testing.T) {
	searcher, err := NewSearcher(newTestCollection(t))
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), &Query{
		Terms: []Term{{Field: core.FieldPeople, Value: "Smith, John"}},
	})
	assert.ErrorIs(t, err, storage.ErrIndexNotFound)
}

func TestSearch_TermIntersection(t *testing.T) {
	collection := newTestCollection(t,
		article("1", "City Budget Passes", "", 1, "Politics", "Budgets"),
		article("2", "Council Meets", "", 2, "Politics"),
		article("3", "Budget Shortfall Looms", "", 3, "Budgets"),
	)
	searcher, err := NewSearcher(collection)
	require.NoError(t, err)
	ctx := context.Background()

	results, err := searcher.Search(ctx, &Query{
		Terms: []Term{{Field: core.FieldGeneralDescriptors, Value: "Politics"}},
	})
	require.NoError(t, err)
	// Newest first within equal scores
	assert.Equal(t, []string{"2", "1"}, docIDs(results))

	results, err = searcher.Search(ctx, &Query{
		Terms: []Term{
			{Field: core.FieldGeneralDescriptors, Value: "Politics"},
			{Field: core.FieldGeneralDescriptors, Value: "Budgets"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, docIDs(results))

	results, err = searcher.Search(ctx, &Query{
		Terms: []Term{
			{Field: core.FieldGeneralDescriptors, Value: "Politics"},
			{Field: core.FieldTypesOfMaterial, Value: "Obituary"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TextScoring(t *testing.T) {
	collection := newTestCollection(t,
		article("1", "Council Debates Plan", "The city budget was approved late.", 1, "Politics"),
		article("2", "City Budget Approved", "", 2, "Politics"),
		article("3", "Parade Planned", "Streets will close.", 3, "Politics"),
	)
	searcher, err := NewSearcher(collection)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), &Query{
		Terms: []Term{{Field: core.FieldGeneralDescriptors, Value: "Politics"}},
		Text:  "the budget approved",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Headline matches outrank body matches regardless of date
	assert.Equal(t, "2", results[0].Document.DocID)
	assert.Equal(t, headlineScore, results[0].Score)
	assert.Equal(t, "1", results[1].Document.DocID)
	assert.Equal(t, bodyScore, results[1].Score)
}

func TestSearch_StopWordsOnlyText(t *testing.T) {
	collection := newTestCollection(t, article("1", "Headline", "", 1, "Politics"))
	searcher, err := NewSearcher(collection)
	require.NoError(t, err)

	// Text without significant words filters nothing
	results, err := searcher.Search(context.Background(), &Query{
		Terms: []Term{{Field: core.FieldGeneralDescriptors, Value: "Politics"}},
		Text:  "the of and",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, docIDs(results))
}

func TestSearch_MaxHits(t *testing.T) {
	var docs []*core.Document
	for i := 1; i <= 5; i++ {
		docs = append(docs, article(string(rune('0'+i)), "Story", "", i, "Politics"))
	}
	searcher, err := NewSearcher(newTestCollection(t, docs...))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), &Query{
		Terms:   []Term{{Field: core.FieldDesk, Value: "Metropolitan Desk"}},
		MaxHits: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "4"}, docIDs(results))
}

func TestSearchWithMonitor(t *testing.T) {
	collection := newTestCollection(t,
		article("1", "City Budget Passes", "", 1, "Politics"),
		article("2", "Council Meets", "The budget passes.", 2, "Politics"),
	)
	searcher, err := NewSearcher(collection)
	require.NoError(t, err)

	monitor := &testMonitor{}
	results, err := searcher.SearchWithMonitor(context.Background(), &Query{
		Terms: []Term{{Field: core.FieldGeneralDescriptors, Value: "Politics"}},
		Text:  "budget passes",
	}, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, monitor.startCalled)
	assert.Equal(t, []string{"1", "2"}, monitor.lookedUp)
	assert.Equal(t, []string{"1", "2"}, monitor.intersected)
	assert.Equal(t, 2, monitor.retrieved)
	assert.Equal(t, []string{"1"}, monitor.headlineHits)
	assert.Equal(t, []string{"2"}, monitor.bodyHits)
	assert.True(t, monitor.finishCalled)
}

// testMonitor is a simple test implementation of SearchMonitor
type testMonitor struct {
	startCalled  bool
	lookedUp     []string
	intersected  []string
	retrieved    int
	headlineHits []string
	bodyHits     []string
	finishCalled bool
}

func (m *testMonitor) Start(_ *Query) {
	m.startCalled = true
}

func (m *testMonitor) AfterTermLookup(_ Term, docIDs []string) {
	m.lookedUp = append(m.lookedUp, docIDs...)
}

func (m *testMonitor) AfterIntersection(seq iter.Seq[string]) {
	m.intersected = slices.Sorted(seq)
}

func (m *testMonitor) AfterRecordRetrieval(docs []*core.Document) {
	m.retrieved = len(docs)
}

func (m *testMonitor) HeadlineHit(doc *core.Document) {
	m.headlineHits = append(m.headlineHits, doc.DocID)
}

func (m *testMonitor) BodyHit(doc *core.Document) {
	m.bodyHits = append(m.bodyHits, doc.DocID)
}

func (m *testMonitor) Finish(_ []*Result) {
	m.finishCalled = true
}
