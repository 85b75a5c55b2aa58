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


package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressTracker tracks and reports progress of an ingest run.
// Archives drive the percentage; inserted documents drive the rate.
type ProgressTracker struct {
	writer    io.Writer
	total     int
	archives  int
	documents int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: number of archives in the run
func NewProgressTracker(writer io.Writer, total int) *ProgressTracker {
	return &ProgressTracker{
		writer: writer,
		total:  total,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.archives = 0
	p.documents = 0
}

// AddDocuments records inserted documents. Output is only written when an
// archive completes, so frequent calls stay cheap.
func (p *ProgressTracker) AddDocuments(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.documents += n
}

// ArchiveDone records a finished archive and reports progress.
func (p *ProgressTracker) ArchiveDone() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.archives++
	if p.archives > p.total {
		p.archives = p.total
	}
	p.report()
}

// Finish prints final progress and ends the progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer) // Print newline after final progress
	p.started = false
}

// Documents returns the number of documents recorded so far.
func (p *ProgressTracker) Documents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.documents
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.documents) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.archives) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rArchives: %d/%d (%.1f%%) - %s documents - %s docs/s",
		p.archives, p.total, percentage, humanize.Comma(int64(p.documents)), humanize.CommafWithDigits(rate, 1))
}
