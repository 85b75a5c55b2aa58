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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/corpora/archive"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// ParseErrorPolicy decides what a parse failure does to its archive.
type ParseErrorPolicy int

const (
	// ParseErrorAbort fails the archive on the first parse error.
	ParseErrorAbort ParseErrorPolicy = iota
	// ParseErrorCount records the failed entry and continues with the next.
	ParseErrorCount
)

func (p ParseErrorPolicy) String() string {
	switch p {
	case ParseErrorAbort:
		return "abort"
	case ParseErrorCount:
		return "count"
	default:
		return "unknown"
	}
}

// ParseErrorPolicyFromString converts a policy name to a ParseErrorPolicy.
func ParseErrorPolicyFromString(name string) (ParseErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "abort", "":
		return ParseErrorAbort, nil
	case "count":
		return ParseErrorCount, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidParseErrorPolicy, name)
	}
}

// ArchiveResult is what one worker reports about one archive.
type ArchiveResult struct {
	Ref        core.ArchiveRef
	Inserted   int // Documents written to the store
	Skipped    int // Entries the parser found nothing insertable in
	Failed     int // Entries that failed to parse
	Discarded  int // Parsed documents dropped unwritten when the archive failed
	Batches    int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Outcome classifies the result.
func (r *ArchiveResult) Outcome() core.ArchiveOutcome {
	switch {
	case r.Err == nil:
		return core.OutcomeSucceeded
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return core.OutcomeCanceled
	default:
		return core.OutcomeFailed
	}
}

// Report converts the result into a persistable report.
func (r *ArchiveResult) Report(runID string) *core.ArchiveReport {
	report := &core.ArchiveReport{
		RunID:      runID,
		Seq:        r.Ref.Seq,
		Archive:    r.Ref.Path,
		Outcome:    r.Outcome(),
		Inserted:   r.Inserted,
		Skipped:    r.Skipped,
		Failed:     r.Failed,
		Batches:    r.Batches,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Err != nil {
		report.Error = r.Err.Error()
	}
	return report
}

// worker ingests archives end to end. One worker value is shared by all
// pool goroutines; every run keeps its own state.
type worker struct {
	connector   storage.Connector
	parser      Parser
	batchSize   int
	scanOpts    []archive.Option
	parsePolicy ParseErrorPolicy
	metrics     *Metrics
	progress    *ProgressTracker
	logger      *slog.Logger
}

// run ingests one archive through its own collection handle.
func (w *worker) run(ctx context.Context, ref core.ArchiveRef) ArchiveResult {
	result := ArchiveResult{Ref: ref, StartedAt: time.Now().UTC()}
	logger := w.logger.With("archive", ref.Path)

	err := w.ingest(ctx, ref, &result, logger)
	result.FinishedAt = time.Now().UTC()
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", ref.Path, err)
		logger.Error("archive failed", "err", err, "inserted", result.Inserted, "discarded", result.Discarded)
	} else {
		logger.Debug("archive done", "inserted", result.Inserted, "skipped", result.Skipped,
			"failed", result.Failed, "batches", result.Batches, "duration", result.FinishedAt.Sub(result.StartedAt))
	}
	return result
}

func (w *worker) ingest(ctx context.Context, ref core.ArchiveRef, result *ArchiveResult, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	collection, err := w.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer collection.Close()

	opts := append([]archive.Option{archive.WithLogger(logger)}, w.scanOpts...)
	scanner, err := archive.Open(ref.Path, opts...)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer scanner.Close()

	var onInsert func(int)
	if w.progress != nil {
		onInsert = w.progress.AddDocuments
	}
	b := newBatcher(collection, w.batchSize, w.metrics, onInsert)
	defer func() {
		result.Inserted = b.inserted
		result.Batches = b.batches
	}()

	for entry, err := range scanner.Documents(ctx) {
		if err != nil {
			result.Discarded = b.discard()
			return err
		}

		doc, err := w.parse(ref, entry)
		switch {
		case err != nil && w.parsePolicy == ParseErrorCount:
			result.Failed++
			w.metrics.countDocuments(documentFailed, 1)
			logger.Warn("skipping unparseable entry", "entry", entry.Name, "err", err)
			continue
		case err != nil:
			result.Failed++
			w.metrics.countDocuments(documentFailed, 1)
			result.Discarded = b.discard()
			return err
		case doc == nil:
			result.Skipped++
			w.metrics.countDocuments(documentSkipped, 1)
			continue
		}

		if err := b.add(ctx, doc); err != nil {
			result.Discarded = b.discard()
			return err
		}
	}

	// Leftovers are flushed once, after the archive is exhausted.
	if err := b.flush(ctx); err != nil {
		result.Discarded = b.discard()
		return err
	}
	return nil
}

// parse runs the parser on one entry and checks the document is insertable.
func (w *worker) parse(ref core.ArchiveRef, entry core.Entry) (*core.Document, error) {
	doc, err := w.parser.Parse(entry.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFailed, entry.Name, err)
	}
	if doc == nil {
		return nil, nil
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFailed, entry.Name, err)
	}
	doc.Source = ref.Path + "!" + entry.Name
	return doc, nil
}
