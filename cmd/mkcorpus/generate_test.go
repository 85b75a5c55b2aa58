package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/corpora/archive"
	"github.com/poiesic/corpora/ingestion"
	"github.com/poiesic/corpora/nitf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scan parses every document of an archive and returns the docids.
func scan(t *testing.T, path string) (docIDs []string, failures int) {
	t.Helper()
	scanner, err := archive.Open(path)
	require.NoError(t, err)
	defer scanner.Close()

	parser := nitf.NewParser()
	for entry, err := range scanner.Documents(context.Background()) {
		require.NoError(t, err)
		doc, err := parser.Parse(entry.Text)
		if err != nil {
			failures++
			continue
		}
		require.NotNil(t, doc, entry.Name)
		assert.NotEmpty(t, doc.GeneralDescriptors)
		assert.NotEmpty(t, doc.TypesOfMaterial)
		assert.NotEmpty(t, doc.Headline)
		assert.False(t, doc.PublicationDate.IsZero())
		docIDs = append(docIDs, doc.DocID)
	}
	return docIDs, failures
}

func TestGenerate_Compressions(t *testing.T) {
	for _, compression := range []string{"none", "gzip", "zstd", "xz"} {
		t.Run(compression, func(t *testing.T) {
			g := newGenerator(7)
			g.Archives = 2
			g.Docs = 5
			g.Compression = compression

			corpus, err := g.Generate(t.TempDir())
			require.NoError(t, err)
			require.Len(t, corpus.Archives, 2)
			assert.Equal(t, 10, corpus.Documents)

			ids, failures := scan(t, corpus.Archives[1])
			assert.Zero(t, failures)
			assert.Equal(t, []string{"0000006", "0000007", "0000008", "0000009", "0000010"}, ids)

			refs, err := ingestion.LoadArchiveListFile(corpus.ListPath)
			require.NoError(t, err)
			require.Len(t, refs, 2)
			assert.Equal(t, corpus.Archives[0], refs[0].Path)
		})
	}
}

func TestGenerate_DuplicatesAndMalformed(t *testing.T) {
	g := newGenerator(7)
	g.Archives = 2
	g.Docs = 4
	g.Duplicates = 1
	g.Malformed = 2
	g.Compression = "none"

	corpus, err := g.Generate(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7, corpus.Documents)

	ids, failures := scan(t, corpus.Archives[1])
	assert.Equal(t, 2, failures)
	assert.Equal(t, []string{"0000004", "0000005", "0000006", "0000007"}, ids)
}

func TestGenerate_Deterministic(t *testing.T) {
	write := func(dir string) []byte {
		g := newGenerator(42)
		g.Archives = 1
		g.Docs = 3
		g.Compression = "none"
		corpus, err := g.Generate(dir)
		require.NoError(t, err)
		data, err := os.ReadFile(corpus.Archives[0])
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, write(t.TempDir()), write(t.TempDir()))
}

func TestGenerate_InvalidOptions(t *testing.T) {
	tests := map[string]func(*Generator){
		"compression": func(g *Generator) { g.Compression = "bzip2" },
		"archives":    func(g *Generator) { g.Archives = 0 },
		"docs":        func(g *Generator) { g.Docs = 0 },
		"duplicates":  func(g *Generator) { g.Duplicates = g.Docs + 1 },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			g := newGenerator(1)
			modify(g)
			_, err := g.Generate(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestMkcorpusCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "corpus")
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = &bytes.Buffer{}

	err := app.Run([]string{"mkcorpus", "--out", out, "--archives", "3", "--docs", "10", "--compression", "zstd"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote 3 archives with 30 distinct documents")
	assert.FileExists(t, filepath.Join(out, "files.txt"))
	assert.FileExists(t, filepath.Join(out, "archive-002.tar.zst"))

	missing := newApp()
	missing.Writer = &bytes.Buffer{}
	missing.ErrWriter = &bytes.Buffer{}
	assert.Error(t, missing.Run([]string{"mkcorpus"}))
}
