package ingestion

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/stretchr/testify/require"
)

// articleXML renders a minimal NITF article.
func articleXML(docID, general, material string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<nitf><head><docdata><doc-id id-string="%s"/><identified-content>
<classifier class="online_producer" type="general_descriptor">%s</classifier>
<classifier class="online_producer" type="types_of_material">%s</classifier>
</identified-content></docdata></head>
<body><body.head><hedline><hl1>Article %s</hl1></hedline></body.head></body></nitf>`, docID, general, material, docID)
}

type fixtureEntry struct {
	name string
	text string
}

// writeTar writes entries as an uncompressed tar in dir and returns its path.
func writeTar(t *testing.T, dir, name string, entries ...fixtureEntry) string {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Mode:     0644,
			Size:     int64(len(e.text)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(e.text))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// articleTar writes a tar holding n articles with docids prefix-0 .. prefix-(n-1).
func articleTar(t *testing.T, dir, name, prefix string, n int) string {
	t.Helper()
	entries := make([]fixtureEntry, 0, n)
	for i := range n {
		id := fmt.Sprintf("%s-%d", prefix, i)
		entries = append(entries, fixtureEntry{name: id + ".xml", text: articleXML(id, "Politics", "News")})
	}
	return writeTar(t, dir, name, entries...)
}

func refs(paths ...string) []core.ArchiveRef {
	out := make([]core.ArchiveRef, 0, len(paths))
	for i, p := range paths {
		out = append(out, core.ArchiveRef{Path: p, Seq: i})
	}
	return out
}

// countingConnector records the size of every InsertMany call.
type countingConnector struct {
	storage.Connector
	mu       sync.Mutex
	inserts  []int
	connects int
}

func (c *countingConnector) Connect(ctx context.Context) (storage.Collection, error) {
	collection, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.connects++
	c.mu.Unlock()
	return &countingCollection{Collection: collection, owner: c}, nil
}

func (c *countingConnector) insertSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.inserts...)
}

type countingCollection struct {
	storage.Collection
	owner *countingConnector
}

func (c *countingCollection) InsertMany(ctx context.Context, docs ...*core.Document) (int, error) {
	c.owner.mu.Lock()
	c.owner.inserts = append(c.owner.inserts, len(docs))
	c.owner.mu.Unlock()
	return c.Collection.InsertMany(ctx, docs...)
}

// newStore opens an in-memory backend and a counting connector over it.
func newStore(t *testing.T) (*countingConnector, *badger.Backend) {
	t.Helper()
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	connector, err := badger.NewConnector(backend, "articles")
	require.NoError(t, err)
	return &countingConnector{Connector: connector}, backend
}

func openCollection(t *testing.T, connector storage.Connector) storage.Collection {
	t.Helper()
	collection, err := connector.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { collection.Close() })
	return collection
}
