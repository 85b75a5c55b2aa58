package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type member struct {
	name     string
	body     []byte
	typeflag byte
}

func xmlMember(name, body string) member {
	return member{name: name, body: []byte(body), typeflag: tar.TypeReg}
}

func tarBytes(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0644, Typeflag: m.typeflag}
		switch m.typeflag {
		case tar.TypeReg:
			hdr.Size = int64(len(m.body))
		case tar.TypeSymlink:
			hdr.Linkname = "target.xml"
		case tar.TypeDir:
			hdr.Mode = 0755
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if m.typeflag == tar.TypeReg {
			_, err := tw.Write(m.body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func compress(t *testing.T, kind Compression, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch kind {
	case CompressionNone:
		return data
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZstd:
		w, err = zstd.NewWriter(&buf)
	case CompressionXz:
		w, err = xz.NewWriter(&buf)
	default:
		t.Fatalf("cannot write %s fixtures", kind)
	}
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func collect(t *testing.T, scanner *Scanner) ([]core.Entry, error) {
	t.Helper()
	var entries []core.Entry
	for entry, err := range scanner.Documents(context.Background()) {
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func TestDocuments_Compressions(t *testing.T) {
	data := tarBytes(t,
		xmlMember("1987/01/01/0000001.xml", "<nitf>one</nitf>"),
		xmlMember("1987/01/01/0000002.xml", "<nitf>two</nitf>"),
	)

	for _, kind := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionXz} {
		t.Run(kind.String(), func(t *testing.T) {
			path := writeArchive(t, "archive.bin", compress(t, kind, data))
			scanner, err := Open(path)
			require.NoError(t, err)
			defer scanner.Close()

			entries, err := collect(t, scanner)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "1987/01/01/0000001.xml", entries[0].Name)
			assert.Equal(t, "<nitf>one</nitf>", entries[0].Text)
			assert.Equal(t, "<nitf>two</nitf>", entries[1].Text)
		})
	}
}

func TestDetectCompression(t *testing.T) {
	data := tarBytes(t, xmlMember("a.xml", "<a/>"))
	assert.Equal(t, CompressionNone, DetectCompression(data))
	assert.Equal(t, CompressionGzip, DetectCompression(compress(t, CompressionGzip, data)))
	assert.Equal(t, CompressionZstd, DetectCompression(compress(t, CompressionZstd, data)))
	assert.Equal(t, CompressionXz, DetectCompression(compress(t, CompressionXz, data)))
	assert.Equal(t, CompressionBzip2, DetectCompression([]byte("BZh91AY&SY")))
	assert.Equal(t, CompressionNone, DetectCompression(nil))
}

func TestDocuments_SkipsNonDocuments(t *testing.T) {
	data := tarBytes(t,
		member{name: "1987/", typeflag: tar.TypeDir},
		member{name: "dir.xml/", typeflag: tar.TypeDir},
		member{name: "link.xml", typeflag: tar.TypeSymlink},
		xmlMember("index.html", "<html/>"),
		xmlMember("README", "not a document"),
		xmlMember("1987/0000001.xml", "<nitf/>"),
	)
	scanner, err := Open(writeArchive(t, "a.tar", data))
	require.NoError(t, err)
	defer scanner.Close()

	entries, err := collect(t, scanner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1987/0000001.xml", entries[0].Name)
}

func TestDocuments_CustomSuffix(t *testing.T) {
	data := tarBytes(t, xmlMember("a.xml", "<a/>"), xmlMember("b.nitf", "<b/>"))
	scanner, err := Open(writeArchive(t, "a.tar", data), WithSuffix(".nitf"))
	require.NoError(t, err)
	defer scanner.Close()

	entries, err := collect(t, scanner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.nitf", entries[0].Name)
}

func TestDocuments_EmptyArchive(t *testing.T) {
	scanner, err := Open(writeArchive(t, "empty.tar", tarBytes(t)))
	require.NoError(t, err)
	defer scanner.Close()

	entries, err := collect(t, scanner)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDocuments_ZeroByteArchive(t *testing.T) {
	for _, kind := range []Compression{CompressionNone, CompressionGzip} {
		t.Run(kind.String(), func(t *testing.T) {
			scanner, err := Open(writeArchive(t, "empty", compress(t, kind, nil)))
			require.NoError(t, err)
			defer scanner.Close()

			entries, err := collect(t, scanner)
			assert.ErrorIs(t, err, ErrCorruptArchive)
			assert.Contains(t, err.Error(), "empty archive")
			assert.Empty(t, entries)
		})
	}
}

func TestDocuments_InvalidUTF8(t *testing.T) {
	data := tarBytes(t,
		xmlMember("a.xml", "<a/>"),
		member{name: "b.xml", body: []byte{'<', 0xff, 0xfe, '>'}, typeflag: tar.TypeReg},
		xmlMember("c.xml", "<c/>"),
	)
	scanner, err := Open(writeArchive(t, "a.tar", data))
	require.NoError(t, err)
	defer scanner.Close()

	entries, err := collect(t, scanner)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.Contains(t, err.Error(), "b.xml")
	assert.Len(t, entries, 1, "iteration stops at the first error")
}

func TestDocuments_EntryTooLarge(t *testing.T) {
	data := tarBytes(t, xmlMember("big.xml", string(bytes.Repeat([]byte("x"), 100))))
	scanner, err := Open(writeArchive(t, "a.tar", data), WithMaxEntryBytes(10))
	require.NoError(t, err)
	defer scanner.Close()

	_, err = collect(t, scanner)
	assert.ErrorIs(t, err, ErrEntryTooLarge)
}

func TestDocuments_CorruptArchive(t *testing.T) {
	data := tarBytes(t, xmlMember("a.xml", "<a/>"))
	gz := compress(t, CompressionGzip, data)
	scanner, err := Open(writeArchive(t, "a.tgz", gz[:len(gz)/2]))
	require.NoError(t, err)
	defer scanner.Close()

	_, err = collect(t, scanner)
	assert.Error(t, err)
}

func TestDocuments_Nested(t *testing.T) {
	inner := compress(t, CompressionGzip, tarBytes(t, xmlMember("inner.xml", "<inner/>")))
	outer := tarBytes(t,
		xmlMember("outer.xml", "<outer/>"),
		member{name: "day.tgz", body: inner, typeflag: tar.TypeReg},
	)
	path := writeArchive(t, "outer.tar", outer)

	t.Run("disabled", func(t *testing.T) {
		scanner, err := Open(path)
		require.NoError(t, err)
		defer scanner.Close()

		entries, err := collect(t, scanner)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "outer.xml", entries[0].Name)
	})

	t.Run("enabled", func(t *testing.T) {
		scanner, err := Open(path, WithNestedDepth(1))
		require.NoError(t, err)
		defer scanner.Close()

		entries, err := collect(t, scanner)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "day.tgz!inner.xml", entries[1].Name)
		assert.Equal(t, "<inner/>", entries[1].Text)
	})
}

func TestDocuments_Canceled(t *testing.T) {
	data := tarBytes(t, xmlMember("a.xml", "<a/>"), xmlMember("b.xml", "<b/>"))
	scanner, err := Open(writeArchive(t, "a.tar", data))
	require.NoError(t, err)
	defer scanner.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var names []string
	var lastErr error
	for entry, err := range scanner.Documents(ctx) {
		if err != nil {
			lastErr = err
			break
		}
		names = append(names, entry.Name)
		cancel()
	}
	assert.Equal(t, []string{"a.xml"}, names)
	assert.ErrorIs(t, lastErr, context.Canceled)
}

func TestDocuments_EarlyBreakAndRescan(t *testing.T) {
	data := tarBytes(t, xmlMember("a.xml", "<a/>"), xmlMember("b.xml", "<b/>"))
	scanner, err := Open(writeArchive(t, "a.tar", data))
	require.NoError(t, err)
	defer scanner.Close()

	for range scanner.Documents(context.Background()) {
		break
	}

	_, err = collect(t, scanner)
	assert.ErrorIs(t, err, ErrAlreadyScanned)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.tar"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeArchive(t, "a.tar", tarBytes(t))
	_, err = Open(path, WithSuffix(""))
	assert.Error(t, err)
	_, err = Open(path, WithMaxEntryBytes(0))
	assert.Error(t, err)
	_, err = Open(path, WithNestedDepth(-1))
	assert.Error(t, err)
}
