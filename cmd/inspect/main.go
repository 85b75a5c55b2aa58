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
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/config"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/internal/logging"
	"github.com/poiesic/corpora/search"
	"github.com/poiesic/corpora/storage"
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
		Name:  "inspect",
		Usage: "Query a loaded article collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   cfg.Store.Path,
			},
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Collection to inspect",
				Value: cfg.Store.Collection,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   cfg.Log.Level,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "count",
				Usage:  "Print the number of documents",
				Action: withCorpus(cfg, countCommand),
			},
			{
				Name:      "get",
				Usage:     "Print one document",
				ArgsUsage: "DOCID",
				Action:    withCorpus(cfg, getCommand),
			},
			{
				Name:      "find",
				Usage:     "List documents whose indexed field holds a value",
				ArgsUsage: "FIELD VALUE",
				Action:    withCorpus(cfg, findCommand),
			},
			{
				Name:   "indexes",
				Usage:  "List the indexes of the collection",
				Action: withCorpus(cfg, indexesCommand),
			},
			{
				Name:      "reports",
				Usage:     "List the archive reports of an ingest run",
				ArgsUsage: "RUNID",
				Action:    withCorpus(cfg, reportsCommand),
			},
			{
				Name:      "search",
				Usage:     "Search by field terms and headline or body words",
				ArgsUsage: "FIELD=VALUE...",
				Action:    withCorpus(cfg, searchCommand),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "text",
						Usage: "Words that must all appear in the headline or body",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results, 0 for all",
						Value: 20,
					},
				},
			},
		},
	}
}

type corpusAction func(c *cli.Context, corpus *corpora.Corpus) error

// withCorpus opens the configured store around action.
func withCorpus(cfg *config.Config, action corpusAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		store := cfg.Store
		if c.IsSet("db") {
			store.Path = c.String("db")
		}
		if c.IsSet("collection") {
			store.Collection = c.String("collection")
		}
		corpus, err := corpora.Open(store, corpora.WithLogger(slog.Default()))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer corpus.Close()
		return action(c, corpus)
	}
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return cli.Exit(fmt.Sprintf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage), 2)
	}
	return nil
}

func countCommand(c *cli.Context, corpus *corpora.Corpus) error {
	count, err := corpus.Collection().Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, count)
	return nil
}

func getCommand(c *cli.Context, corpus *corpora.Corpus) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	doc, err := corpus.Collection().Get(c.Context, c.Args().First())
	if errors.Is(err, storage.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("document %q not found", c.Args().First()), 1)
	}
	if err != nil {
		return err
	}
	printDocument(c.App.Writer, doc)
	return nil
}

func findCommand(c *cli.Context, corpus *corpora.Corpus) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	docs, err := corpus.Collection().Find(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		printSummaryLine(c.App.Writer, doc)
	}
	fmt.Fprintf(c.App.Writer, "%s documents\n", humanize.Comma(int64(len(docs))))
	return nil
}

func indexesCommand(c *cli.Context, corpus *corpora.Corpus) error {
	specs, err := corpus.Collection().Indexes(c.Context)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		unique := ""
		if spec.Unique {
			unique = " unique"
		}
		fmt.Fprintf(c.App.Writer, "%s%s %s %s entries, created %s\n",
			spec.Field, unique, spec.State, humanize.Comma(int64(spec.Entries)), spec.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func reportsCommand(c *cli.Context, corpus *corpora.Corpus) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	reports, err := corpus.ReportRepository().ListReports(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return cli.Exit(fmt.Sprintf("no reports for run %q", c.Args().First()), 1)
	}
	for _, r := range reports {
		fmt.Fprintf(c.App.Writer, "%s %s inserted=%d skipped=%d failed=%d batches=%d took=%s",
			r.Archive, r.Outcome, r.Inserted, r.Skipped, r.Failed, r.Batches, r.Duration().Round(time.Millisecond))
		if r.Error != "" {
			fmt.Fprintf(c.App.Writer, " error=%q", r.Error)
		}
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}

func searchCommand(c *cli.Context, corpus *corpora.Corpus) error {
	query := &search.Query{
		Text:    c.String("text"),
		MaxHits: c.Int("max-hits"),
	}
	for _, arg := range c.Args().Slice() {
		term, err := search.ParseTerm(arg)
		if err != nil {
			return err
		}
		query.Terms = append(query.Terms, term)
	}

	searcher, err := corpus.NewSearcher()
	if err != nil {
		return err
	}
	results, err := searcher.Search(c.Context, query)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: [%0.1f] ", i, hit.Score)
		printSummaryLine(c.App.Writer, hit.Document)
	}
	return nil
}

func printSummaryLine(w io.Writer, doc *core.Document) {
	date := ""
	if !doc.PublicationDate.IsZero() {
		date = doc.PublicationDate.Format(time.DateOnly)
	}
	fmt.Fprintf(w, "%s %s %s\n", doc.DocID, date, doc.Headline)
}

func printDocument(w io.Writer, doc *core.Document) {
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-22s %s\n", name+":", value)
		}
	}
	list := func(name string, values []string) {
		field(name, strings.Join(values, "; "))
	}

	field("docid", doc.DocID)
	field("headline", doc.Headline)
	field("online headline", doc.OnlineHeadline)
	field("byline", doc.Byline)
	field("dateline", doc.Dateline)
	if !doc.PublicationDate.IsZero() {
		field("published", doc.PublicationDate.Format(time.DateOnly))
	}
	field("section", doc.Section)
	field("desk", doc.Desk)
	field("url", doc.URL)
	list("general descriptors", doc.GeneralDescriptors)
	list("types of material", doc.TypesOfMaterial)
	list("descriptors", doc.Descriptors)
	list("locations", doc.Locations)
	list("people", doc.People)
	list("organizations", doc.Organizations)
	field("source", doc.Source)
	field("abstract", doc.Abstract)
	field("lead paragraph", doc.LeadParagraph)
	if doc.WordCount > 0 {
		field("word count", humanize.Comma(int64(doc.WordCount)))
	}
}

func setupLogger(c *cli.Context) error {
	return logging.Setup(logging.Options{
		Level:  c.String("log-level"),
		Output: c.App.ErrWriter,
	})
}
