package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCollection implements the insert path of storage.Collection.
type recordingCollection struct {
	storage.Collection
	calls [][]string
	err   error
}

func (c *recordingCollection) InsertMany(ctx context.Context, docs ...*core.Document) (int, error) {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.DocID
	}
	c.calls = append(c.calls, ids)
	if c.err != nil {
		return 0, c.err
	}
	return len(docs), nil
}

func TestBatcher_Boundaries(t *testing.T) {
	tests := []struct {
		docs  int
		sizes []int
	}{
		{docs: 1000, sizes: []int{1000}},
		{docs: 1001, sizes: []int{1000, 1}},
		{docs: 999, sizes: []int{999}},
		{docs: 2000, sizes: []int{1000, 1000}},
		{docs: 0, sizes: nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.docs), func(t *testing.T) {
			collection := &recordingCollection{}
			b := newBatcher(collection, DefaultBatchSize, nil, nil)
			ctx := context.Background()

			for i := range tt.docs {
				require.NoError(t, b.add(ctx, &core.Document{DocID: fmt.Sprint(i)}))
			}
			require.NoError(t, b.flush(ctx))

			var sizes []int
			for _, call := range collection.calls {
				sizes = append(sizes, len(call))
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, tt.docs, b.inserted)
			assert.Equal(t, len(tt.sizes), b.batches)
		})
	}
}

func TestBatcher_PreservesOrder(t *testing.T) {
	collection := &recordingCollection{}
	b := newBatcher(collection, 2, nil, nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, b.add(ctx, &core.Document{DocID: id}))
	}
	require.NoError(t, b.flush(ctx))

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, collection.calls)
}

func TestBatcher_InsertError(t *testing.T) {
	boom := errors.New("boom")
	collection := &recordingCollection{err: boom}
	var reported int
	b := newBatcher(collection, 2, nil, func(n int) { reported += n })
	ctx := context.Background()

	require.NoError(t, b.add(ctx, &core.Document{DocID: "a"}))
	err := b.add(ctx, &core.Document{DocID: "b"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "batch 1")
	assert.Zero(t, b.batches)
	assert.Zero(t, reported)
	assert.Equal(t, 2, b.discard())
	require.NoError(t, b.flush(ctx))
	assert.Len(t, collection.calls, 1)
}
