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


package archive

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// sniffSize is how many leading bytes are inspected to detect compression.
const sniffSize = 3072

// Compression identifies the compression wrapped around a tar stream.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXz
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXz:
		return "xz"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// DetectCompression inspects the leading bytes of a stream.
// Anything not recognised as a compressed stream is treated as a plain tar.
func DetectCompression(head []byte) Compression {
	mt := mimetype.Detect(head)
	switch {
	case mt.Is("application/gzip"):
		return CompressionGzip
	case mt.Is("application/x-bzip2"):
		return CompressionBzip2
	case mt.Is("application/x-xz"):
		return CompressionXz
	case mt.Is("application/zstd"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// decompress sniffs r and wraps it in the matching decoder.
// The returned close function releases decoder resources; it does not close r.
func decompress(r io.Reader) (io.Reader, Compression, func(), error) {
	br := bufio.NewReaderSize(r, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}

	kind := DetectCompression(head)
	noop := func() {}
	switch kind {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, kind, nil, fmt.Errorf("%w: gzip: %w", ErrCorruptArchive, err)
		}
		return zr, kind, func() { zr.Close() }, nil
	case CompressionBzip2:
		return bzip2.NewReader(br), kind, noop, nil
	case CompressionXz:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, kind, nil, fmt.Errorf("%w: xz: %w", ErrCorruptArchive, err)
		}
		return xr, kind, noop, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, kind, nil, fmt.Errorf("%w: zstd: %w", ErrCorruptArchive, err)
		}
		return zr, kind, zr.Close, nil
	default:
		return br, kind, noop, nil
	}
}
