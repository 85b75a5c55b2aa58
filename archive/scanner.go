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
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/poiesic/corpora/core"
)

const (
	// DefaultSuffix selects the members that hold documents.
	DefaultSuffix = ".xml"

	// DefaultMaxEntryBytes bounds the size of a single document.
	DefaultMaxEntryBytes = 64 << 20
)

// nestedSuffixes name members that are streamed as archives when nesting is enabled.
var nestedSuffixes = []string{".tar", ".tgz", ".tar.gz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz", ".tar.zst", ".tzst"}

// Scanner streams the documents of one archive file.
type Scanner struct {
	path          string
	file          *os.File
	suffix        string
	maxEntryBytes int64
	nestedDepth   int
	logger        *slog.Logger
	scanned       atomic.Bool
}

// Option configures a Scanner.
type Option func(*Scanner) error

// WithSuffix sets the member name suffix that marks documents.
func WithSuffix(suffix string) Option {
	return func(s *Scanner) error {
		if suffix == "" {
			return errors.New("suffix cannot be empty")
		}
		s.suffix = suffix
		return nil
	}
}

// WithMaxEntryBytes sets the largest document the scanner will read.
func WithMaxEntryBytes(n int64) Option {
	return func(s *Scanner) error {
		if n <= 0 {
			return errors.New("max entry bytes must be positive")
		}
		s.maxEntryBytes = n
		return nil
	}
}

// WithNestedDepth sets how many levels of archives inside archives are expanded.
// Zero, the default, treats nested archives like any other non-document member.
func WithNestedDepth(depth int) Option {
	return func(s *Scanner) error {
		if depth < 0 {
			return errors.New("nested depth cannot be negative")
		}
		s.nestedDepth = depth
		return nil
	}
}

// WithLogger sets the logger for the scanner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// Open opens the archive at path for scanning.
func Open(path string, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		path:          path,
		suffix:        DefaultSuffix,
		maxEntryBytes: DefaultMaxEntryBytes,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s.file = file
	s.logger = s.logger.With("archive", path)
	return s, nil
}

// Path returns the path of the archive.
func (s *Scanner) Path() string {
	return s.path
}

// Close closes the archive file.
func (s *Scanner) Close() error {
	return s.file.Close()
}

// Documents returns an iterator over the documents of the archive in
// archive order. The iteration stops after the first error, which is
// yielded with a zero Entry. The context is checked between members.
// An archive can only be iterated once.
func (s *Scanner) Documents(ctx context.Context) iter.Seq2[core.Entry, error] {
	return func(yield func(core.Entry, error) bool) {
		if !s.scanned.CompareAndSwap(false, true) {
			yield(core.Entry{}, ErrAlreadyScanned)
			return
		}
		if err := s.walk(ctx, s.file, "", 0, yield); err != nil && !errors.Is(err, errStopped) {
			yield(core.Entry{}, err)
		}
	}
}

// errStopped signals that the consumer stopped the iteration.
var errStopped = errors.New("iteration stopped")

// walk streams one tar level. Errors are returned rather than yielded so
// that nested levels unwind to the top before reporting.
func (s *Scanner) walk(ctx context.Context, r io.Reader, prefix string, depth int, yield func(core.Entry, error) bool) error {
	stream, kind, release, err := decompress(r)
	if err != nil {
		return err
	}
	defer release()
	s.logger.Debug("reading archive", "compression", kind, "prefix", prefix)

	// A stream without a single byte is not a tar archive, even though the
	// tar reader would report it as an empty one.
	br := bufio.NewReader(stream)
	if _, err := br.Peek(1); err == io.EOF {
		return fmt.Errorf("%w: %s: empty archive", ErrCorruptArchive, s.path)
	} else if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptArchive, s.path, err)
	}

	tr := tar.NewReader(br)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCorruptArchive, s.path, err)
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}

		name := prefix + hdr.Name
		if depth < s.nestedDepth && isNestedArchive(hdr.Name) {
			if err := s.walk(ctx, tr, name+"!", depth+1, yield); err != nil {
				if errors.Is(err, errStopped) {
					return err
				}
				return fmt.Errorf("nested archive %s: %w", name, err)
			}
			continue
		}
		if !strings.HasSuffix(hdr.Name, s.suffix) {
			continue
		}

		text, err := s.readEntry(tr, hdr)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !yield(core.Entry{Name: name, Text: text}, nil) {
			return errStopped
		}
	}
}

// readEntry reads one member body and decodes it as UTF-8 text.
func (s *Scanner) readEntry(r io.Reader, hdr *tar.Header) (string, error) {
	if hdr.Size > s.maxEntryBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, hdr.Size)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxEntryBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	if int64(len(data)) > s.maxEntryBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrEntryTooLarge, s.maxEntryBytes)
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

func isNestedArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range nestedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
