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


// Package corpora loads archived NITF article corpora into an embedded
// document store and queries them.
//
// A Corpus opens the store once and hands out the pieces of a run:
//
//	corpus, err := corpora.Open(cfg.Store)
//	if err != nil {
//		return err
//	}
//	defer corpus.Close()
//
//	loader, err := corpus.NewLoader(cfg.Ingest, ingestion.WithOutput(os.Stdout))
//	if err != nil {
//		return err
//	}
//	summary, err := loader.Run(ctx, refs)
package corpora

import (
	"errors"
	"log/slog"

	"github.com/poiesic/corpora/archive"
	"github.com/poiesic/corpora/config"
	"github.com/poiesic/corpora/ingestion"
	"github.com/poiesic/corpora/nitf"
	"github.com/poiesic/corpora/search"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
)

// Corpus is an open document store bound to one collection.
type Corpus struct {
	backend    *badger.Backend
	collection *badger.Collection
	connector  *badger.Connector
	reports    *badger.ReportRepository
	metrics    *ingestion.Metrics
	logger     *slog.Logger
}

// Option configures a Corpus.
type Option func(*corpusOptions)

type corpusOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *corpusOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens the store described by cfg and binds the configured collection.
func Open(cfg config.StoreConfig, opts ...Option) (*Corpus, error) {
	options := &corpusOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(cfg.Path, cfg.InMemory,
		badger.WithMemTableSize(cfg.MemTableSize),
		badger.WithSyncWrites(cfg.SyncWrites),
	)
	if err != nil {
		return nil, err
	}

	logger := options.logger.With("collection", cfg.Collection)
	collection, err := badger.NewCollection(backend, cfg.Collection, badger.WithLogger(logger))
	if err != nil {
		backend.Close()
		return nil, err
	}

	connector, err := badger.NewConnector(backend, cfg.Collection, badger.WithLogger(logger))
	if err != nil {
		collection.Close()
		backend.Close()
		return nil, err
	}

	return &Corpus{
		backend:    backend,
		collection: collection,
		connector:  connector,
		reports:    badger.NewReportRepository(backend),
		metrics:    ingestion.NewMetrics(),
		logger:     options.logger,
	}, nil
}

// Close closes the collection, the report repository and the store.
func (c *Corpus) Close() error {
	var errs []error
	if err := c.reports.Close(); err != nil {
		c.logger.Error("error closing report repository", "err", err)
		errs = append(errs, err)
	}
	if err := c.collection.Close(); err != nil {
		c.logger.Error("error closing collection", "err", err)
		errs = append(errs, err)
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Collection returns the collection shared by readers of this corpus.
func (c *Corpus) Collection() storage.Collection {
	return c.collection
}

// Connector returns the connector that loader workers connect through.
func (c *Corpus) Connector() storage.Connector {
	return c.connector
}

// ReportRepository returns the store of per-archive run reports.
func (c *Corpus) ReportRepository() storage.ReportRepository {
	return c.reports
}

// Metrics returns the metrics shared by every loader of this corpus.
func (c *Corpus) Metrics() *ingestion.Metrics {
	return c.metrics
}

// NewLoader creates a loader for the NITF corpus configured by cfg.
// Options in opts are applied after those derived from cfg.
func (c *Corpus) NewLoader(cfg config.IngestConfig, opts ...ingestion.Option) (*ingestion.Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ingestion.ParseErrorPolicyFromString(cfg.OnParseError)
	if err != nil {
		return nil, err
	}

	base := []ingestion.Option{
		ingestion.WithWorkers(cfg.Workers),
		ingestion.WithBatchSize(cfg.BatchSize),
		ingestion.WithScanOptions(
			archive.WithSuffix(cfg.Suffix),
			archive.WithNestedDepth(cfg.NestedDepth),
			archive.WithMaxEntryBytes(cfg.MaxEntryBytes),
			archive.WithLogger(c.logger),
		),
		ingestion.WithParseErrorPolicy(policy),
		ingestion.WithFailFast(cfg.FailFast),
		ingestion.WithReportRepository(c.reports),
		ingestion.WithMetrics(c.metrics),
		ingestion.WithLogger(c.logger),
	}
	return ingestion.NewLoader(c.connector, nitf.NewParser(), append(base, opts...)...)
}

// NewSearcher creates a searcher over the corpus collection.
func (c *Corpus) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(c.collection, append([]search.Option{search.WithLogger(c.logger)}, opts...)...)
}
