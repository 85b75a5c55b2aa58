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


package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/config"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/ingestion"
	"github.com/poiesic/corpora/internal/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := newApp(cfg).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:      "ingest",
		Usage:     "Load NITF articles from tar archives into a fresh collection",
		ArgsUsage: "LIST [NWORKERS]",
		Description: "LIST is a file naming one archive per line. The collection is dropped,\n" +
			"every archive is loaded by NWORKERS concurrent workers (default 1),\n" +
			"and the docid, general_descriptors and types_of_material indices are built.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   cfg.Store.Path,
			},
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Collection to replace",
				Value: cfg.Store.Collection,
			},
			&cli.BoolFlag{
				Name:  "sync-writes",
				Usage: "Wait for fsync on every commit",
				Value: cfg.Store.SyncWrites,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of documents inserted per store call",
				Value: cfg.Ingest.BatchSize,
			},
			&cli.StringFlag{
				Name:  "suffix",
				Usage: "Archive member suffix that marks documents",
				Value: cfg.Ingest.Suffix,
			},
			&cli.IntFlag{
				Name:  "nested-depth",
				Usage: "Levels of archives inside archives to expand",
				Value: cfg.Ingest.NestedDepth,
			},
			&cli.Int64Flag{
				Name:  "max-entry-bytes",
				Usage: "Largest document read from an archive",
				Value: cfg.Ingest.MaxEntryBytes,
			},
			&cli.StringFlag{
				Name:  "on-parse-error",
				Usage: "What an unparseable document does to its archive (abort, count)",
				Value: cfg.Ingest.OnParseError,
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "Stop all workers on the first failed archive and skip indexing",
				Value: cfg.Ingest.FailFast,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress line on stderr",
				Value: cfg.Ingest.Progress,
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write run metrics in Prometheus text format to this file",
				Value: cfg.Ingest.MetricsFile,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   cfg.Log.Level,
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Emit logs as JSON",
			},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error {
			return ingestCommand(c, cfg)
		},
	}
}

func ingestCommand(c *cli.Context, cfg *config.Config) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return cli.Exit(fmt.Sprintf("usage: %s %s", c.App.Name, c.App.ArgsUsage), 2)
	}
	listPath := c.Args().Get(0)
	if c.NArg() == 2 {
		n, err := strconv.Atoi(c.Args().Get(1))
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid NWORKERS %q: must be an integer", c.Args().Get(1)), 2)
		}
		cfg.Ingest.Workers = max(n, 1)
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	refs, err := ingestion.LoadArchiveListFile(listPath)
	if err != nil {
		return fmt.Errorf("failed to load archive list: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	corpus, err := corpora.Open(cfg.Store, corpora.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer corpus.Close()

	opts := []ingestion.Option{ingestion.WithOutput(c.App.Writer)}
	if cfg.Ingest.Progress {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}
	loader, err := corpus.NewLoader(cfg.Ingest, opts...)
	if err != nil {
		return err
	}

	summary, runErr := loader.Run(ctx, refs)
	if cfg.Ingest.MetricsFile != "" {
		if err := corpus.Metrics().WriteToTextfile(cfg.Ingest.MetricsFile); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if summary != nil {
		printSummary(c, summary)
	}
	return runErr
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}
	if c.IsSet("collection") {
		cfg.Store.Collection = c.String("collection")
	}
	if c.IsSet("sync-writes") {
		cfg.Store.SyncWrites = c.Bool("sync-writes")
	}
	if c.IsSet("batch-size") {
		cfg.Ingest.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("suffix") {
		cfg.Ingest.Suffix = c.String("suffix")
	}
	if c.IsSet("nested-depth") {
		cfg.Ingest.NestedDepth = c.Int("nested-depth")
	}
	if c.IsSet("max-entry-bytes") {
		cfg.Ingest.MaxEntryBytes = c.Int64("max-entry-bytes")
	}
	if c.IsSet("on-parse-error") {
		cfg.Ingest.OnParseError = c.String("on-parse-error")
	}
	if c.IsSet("fail-fast") {
		cfg.Ingest.FailFast = c.Bool("fail-fast")
	}
	if c.IsSet("progress") {
		cfg.Ingest.Progress = c.Bool("progress")
	}
	if c.IsSet("metrics-file") {
		cfg.Ingest.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
}

func printSummary(c *cli.Context, summary *ingestion.RunSummary) {
	fmt.Fprintf(c.App.Writer, "Run %s: %s documents from %d archives in %s (%d failed, %d canceled)\n",
		summary.RunID,
		humanize.Comma(int64(summary.Inserted())),
		len(summary.Results),
		summary.Duration.Round(time.Millisecond),
		summary.Count(core.OutcomeFailed),
		summary.Count(core.OutcomeCanceled))
}

func setupLogger(c *cli.Context) error {
	return logging.Setup(logging.Options{
		Level:  c.String("log-level"),
		JSON:   c.Bool("log-json"),
		Output: c.App.ErrWriter,
	})
}
