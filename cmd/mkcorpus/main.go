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
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/corpora/internal/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mkcorpus",
		Usage: "Write synthetic NITF tar archives and an archive list for ingest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Directory receiving the archives and files.txt",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "archives",
				Usage: "Number of archives",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  "docs",
				Usage: "Documents per archive",
				Value: 1000,
			},
			&cli.StringFlag{
				Name:  "compression",
				Usage: "Archive compression (none, gzip, zstd, xz)",
				Value: "gzip",
			},
			&cli.IntFlag{
				Name:  "duplicates",
				Usage: "Docids per archive repeated from the previous archive",
			},
			&cli.IntFlag{
				Name:  "malformed",
				Usage: "Unparseable entries per archive",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Action: generateCommand,
	}
}

func generateCommand(c *cli.Context) error {
	g := newGenerator(c.Uint64("seed"))
	g.Archives = c.Int("archives")
	g.Docs = c.Int("docs")
	g.Compression = c.String("compression")
	g.Duplicates = c.Int("duplicates")
	g.Malformed = c.Int("malformed")

	start := time.Now()
	corpus, err := g.Generate(c.String("out"))
	if err != nil {
		return err
	}
	slog.Debug("corpus generated", "archives", len(corpus.Archives), "elapsed", time.Since(start))

	fmt.Fprintf(c.App.Writer, "Wrote %d archives with %s distinct documents\n",
		len(corpus.Archives), humanize.Comma(int64(corpus.Documents)))
	fmt.Fprintf(c.App.Writer, "Archive list: %s\n", corpus.ListPath)
	return nil
}

func setupLogger(c *cli.Context) error {
	return logging.Setup(logging.Options{
		Level:  c.String("log-level"),
		Output: c.App.ErrWriter,
	})
}
