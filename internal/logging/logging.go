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


// Package logging installs the slog handler shared by the corpora commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Options selects how log records are rendered.
// Output defaults to stderr.
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// ParseLevel maps a level name to a charmbracelet log level.
func ParseLevel(name string) (charmlog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return charmlog.DebugLevel, nil
	case "info":
		return charmlog.InfoLevel, nil
	case "warn":
		return charmlog.WarnLevel, nil
	case "error":
		return charmlog.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", name)
	}
}

// New builds a slog logger backed by a charmbracelet handler.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	handler := charmlog.NewWithOptions(opts.Output, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if opts.JSON {
		handler.SetFormatter(charmlog.JSONFormatter)
	}
	return slog.New(handler), nil
}

// Setup builds a logger and makes it the slog default.
func Setup(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
