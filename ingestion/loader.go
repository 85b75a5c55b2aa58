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
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpora/archive"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// Phase is the coordinator state of a Loader.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseListLoaded
	PhaseDropped
	PhaseDispatching
	PhaseAwaitingCompletion
	PhaseIndexing
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListLoaded:
		return "list-loaded"
	case PhaseDropped:
		return "dropped"
	case PhaseDispatching:
		return "dispatching"
	case PhaseAwaitingCompletion:
		return "awaiting-completion"
	case PhaseIndexing:
		return "indexing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IndexDefinition names an index built after all archives are loaded.
type IndexDefinition struct {
	Field  string
	Unique bool
}

// DefaultIndexes are the query indexes of the article collection.
var DefaultIndexes = []IndexDefinition{
	{Field: core.FieldDocID, Unique: true},
	{Field: core.FieldGeneralDescriptors},
	{Field: core.FieldTypesOfMaterial},
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID     string
	Workers   int
	Results   []ArchiveResult // In completion order
	Indexes   []*core.IndexSpec
	StartedAt time.Time
	Duration  time.Duration
}

// Inserted returns the number of documents written by all archives.
func (s *RunSummary) Inserted() int {
	total := 0
	for i := range s.Results {
		total += s.Results[i].Inserted
	}
	return total
}

// Count returns the number of archives with the given outcome.
func (s *RunSummary) Count(outcome core.ArchiveOutcome) int {
	n := 0
	for i := range s.Results {
		if s.Results[i].Outcome() == outcome {
			n++
		}
	}
	return n
}

// Loader coordinates one ingest run: drop, parallel load, index.
type Loader struct {
	connector   storage.Connector
	parser      Parser
	reports     storage.ReportRepository
	metrics     *Metrics
	output      io.Writer
	progress    io.Writer
	workers     int
	batchSize   int
	scanOpts    []archive.Option
	parsePolicy ParseErrorPolicy
	failFast    bool
	indexes     []IndexDefinition
	runID       string
	logger      *slog.Logger
	phase       atomic.Int32
}

// Option configures a Loader.
type Option func(*Loader) error

// WithWorkers sets the number of archives processed concurrently.
// Values below 1 are raised to 1. Default is 1.
func WithWorkers(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			n = 1
		}
		l.workers = n
		return nil
	}
}

// WithBatchSize sets how many documents are inserted per store call.
// Default is DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		l.batchSize = n
		return nil
	}
}

// WithScanOptions sets options applied to every archive scanner.
func WithScanOptions(opts ...archive.Option) Option {
	return func(l *Loader) error {
		l.scanOpts = append(l.scanOpts, opts...)
		return nil
	}
}

// WithParseErrorPolicy sets how parse failures affect their archive.
// Default is ParseErrorAbort.
func WithParseErrorPolicy(policy ParseErrorPolicy) Option {
	return func(l *Loader) error {
		if policy != ParseErrorAbort && policy != ParseErrorCount {
			return fmt.Errorf("%w: %d", ErrInvalidParseErrorPolicy, policy)
		}
		l.parsePolicy = policy
		return nil
	}
}

// WithFailFast makes the first failed archive cancel the remaining ones.
// Indexes are not built after a fail-fast abort.
func WithFailFast(failFast bool) Option {
	return func(l *Loader) error {
		l.failFast = failFast
		return nil
	}
}

// WithIndexes replaces the indexes built after loading.
func WithIndexes(indexes ...IndexDefinition) Option {
	return func(l *Loader) error {
		for _, ix := range indexes {
			if !core.IsIndexableField(ix.Field) {
				return fmt.Errorf("%w %q", core.ErrUnknownField, ix.Field)
			}
		}
		l.indexes = indexes
		return nil
	}
}

// WithReportRepository persists a report for every archive of the run.
func WithReportRepository(reports storage.ReportRepository) Option {
	return func(l *Loader) error {
		l.reports = reports
		return nil
	}
}

// WithMetrics records the run in m.
func WithMetrics(m *Metrics) Option {
	return func(l *Loader) error {
		l.metrics = m
		return nil
	}
}

// WithOutput sets where run announcements are printed.
// Default is io.Discard.
func WithOutput(w io.Writer) Option {
	return func(l *Loader) error {
		if w == nil {
			w = io.Discard
		}
		l.output = w
		return nil
	}
}

// WithProgress enables a progress line written to w.
func WithProgress(w io.Writer) Option {
	return func(l *Loader) error {
		l.progress = w
		return nil
	}
}

// WithRunID sets the run identifier used for reports. The id must not
// contain ':', which separates report key segments.
// Default is a random UUID.
func WithRunID(id string) Option {
	return func(l *Loader) error {
		if id == "" {
			return errors.New("run id cannot be empty")
		}
		if strings.Contains(id, ":") {
			return fmt.Errorf("run id %q cannot contain ':'", id)
		}
		l.runID = id
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a Loader writing through connector.
func NewLoader(connector storage.Connector, parser Parser, opts ...Option) (*Loader, error) {
	if connector == nil {
		return nil, ErrConnectorRequired
	}
	if parser == nil {
		return nil, ErrParserRequired
	}

	l := &Loader{
		connector: connector,
		parser:    parser,
		output:    io.Discard,
		workers:   1,
		batchSize: DefaultBatchSize,
		indexes:   DefaultIndexes,
		runID:     uuid.NewString(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("run", l.runID)
	return l, nil
}

// RunID returns the identifier of the run.
func (l *Loader) RunID() string {
	return l.runID
}

// Phase returns the current coordinator phase.
func (l *Loader) Phase() Phase {
	return Phase(l.phase.Load())
}

func (l *Loader) setPhase(p Phase) {
	l.phase.Store(int32(p))
	l.logger.Debug("phase", "phase", p)
}

// Run ingests refs into the collection.
//
// The collection is dropped first, then every archive is processed by the
// worker pool. When all workers have finished the indexes are built. A
// failed archive does not stop the others; their errors are joined and
// returned together with the summary after indexing. With fail-fast the
// first failure cancels the remaining archives and indexing is skipped.
func (l *Loader) Run(ctx context.Context, refs []core.ArchiveRef) (*RunSummary, error) {
	if !l.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseListLoaded)) {
		return nil, ErrAlreadyRun
	}
	if len(refs) == 0 {
		l.setPhase(PhaseFailed)
		return nil, ErrEmptyArchiveList
	}
	// Seq is the list position, so repeated paths keep separate reports
	refs = slices.Clone(refs)
	for i := range refs {
		refs[i].Seq = i
	}

	summary := &RunSummary{
		RunID:     l.runID,
		Workers:   l.workers,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	collection, err := l.connector.Connect(ctx)
	if err != nil {
		l.setPhase(PhaseFailed)
		return summary, fmt.Errorf("failed to connect: %w", err)
	}
	defer collection.Close()

	if err := collection.Drop(ctx); err != nil {
		l.setPhase(PhaseFailed)
		return summary, fmt.Errorf("failed to drop collection: %w", err)
	}
	l.setPhase(PhaseDropped)

	fmt.Fprintf(l.output, "Ingesting documents using %d workers\n", l.workers)
	l.logger.Info("ingesting archives", "archives", len(refs), "workers", l.workers, "batch_size", l.batchSize)

	results, err := l.dispatch(ctx, refs)
	summary.Results = results
	workerErrs := make([]error, 0)
	for i := range results {
		if results[i].Err != nil {
			workerErrs = append(workerErrs, results[i].Err)
		}
	}
	if err != nil {
		l.setPhase(PhaseFailed)
		return summary, errors.Join(append([]error{err}, workerErrs...)...)
	}
	if err := ctx.Err(); err != nil {
		l.setPhase(PhaseFailed)
		return summary, errors.Join(append([]error{err}, workerErrs...)...)
	}
	if l.failFast && len(workerErrs) > 0 {
		l.setPhase(PhaseFailed)
		l.logger.Warn("skipping index creation after failed archive")
		return summary, errors.Join(workerErrs...)
	}

	l.setPhase(PhaseIndexing)
	fmt.Fprintln(l.output, "Creating indices")
	for _, ix := range l.indexes {
		start := time.Now()
		spec, err := collection.CreateIndex(ctx, ix.Field, ix.Unique)
		if err != nil {
			l.setPhase(PhaseFailed)
			indexErr := fmt.Errorf("%w: %s: %w", ErrIndexing, ix.Field, err)
			return summary, errors.Join(append([]error{indexErr}, workerErrs...)...)
		}
		l.metrics.observeIndex(ix.Field, time.Since(start))
		summary.Indexes = append(summary.Indexes, spec)
		l.logger.Debug("index created", "field", spec.Field, "unique", spec.Unique, "entries", spec.Entries)
	}

	l.setPhase(PhaseDone)
	l.logger.Info("ingest finished",
		"inserted", summary.Inserted(),
		"succeeded", summary.Count(core.OutcomeSucceeded),
		"failed", summary.Count(core.OutcomeFailed),
		"canceled", summary.Count(core.OutcomeCanceled))
	return summary, errors.Join(workerErrs...)
}

// dispatch runs one task per archive on the pool and collects the results.
func (l *Loader) dispatch(ctx context.Context, refs []core.ArchiveRef) ([]ArchiveResult, error) {
	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tracker *ProgressTracker
	if l.progress != nil {
		tracker = NewProgressTracker(l.progress, len(refs))
		tracker.Start()
		defer tracker.Finish()
	}

	w := &worker{
		connector:   l.connector,
		parser:      l.parser,
		batchSize:   l.batchSize,
		scanOpts:    l.scanOpts,
		parsePolicy: l.parsePolicy,
		metrics:     l.metrics,
		progress:    tracker,
		logger:      l.logger,
	}

	resultCh := make(chan ArchiveResult, len(refs))
	var results []ArchiveResult
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for result := range resultCh {
			if l.failFast && result.Err != nil {
				cancel()
			}
			results = append(results, result)
			l.record(ctx, &result)
			if tracker != nil {
				tracker.ArchiveDone()
			}
		}
	}()

	l.setPhase(PhaseDispatching)
	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			resultCh <- w.run(runCtx, ref)
		})
		if submitErr != nil {
			wg.Done()
			now := time.Now().UTC()
			resultCh <- ArchiveResult{
				Ref:        ref,
				Err:        fmt.Errorf("%s: failed to schedule: %w", ref.Path, submitErr),
				StartedAt:  now,
				FinishedAt: now,
			}
		}
	}

	l.setPhase(PhaseAwaitingCompletion)
	wg.Wait()
	close(resultCh)
	<-collected
	return results, nil
}

// record persists and counts one archive result.
func (l *Loader) record(ctx context.Context, result *ArchiveResult) {
	l.metrics.countArchive(result.Outcome())
	if l.reports == nil {
		return
	}
	// Reports of canceled archives are still written.
	if err := l.reports.SaveReport(context.WithoutCancel(ctx), result.Report(l.runID)); err != nil {
		l.logger.Warn("failed to save archive report", "archive", result.Ref.Path, "err", err)
	}
}
