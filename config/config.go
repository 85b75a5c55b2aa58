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


// Package config holds the settings shared by the corpora commands.
//
// Settings are resolved in increasing priority from DefaultConfig, then
// CORPORA_* environment variables, then command-line flags applied by the
// commands themselves. Environment keys map onto sections by their first
// underscore, so CORPORA_INGEST_BATCH_SIZE sets ingest.batch_size.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config is the complete configuration.
type Config struct {
	Store  StoreConfig  `koanf:"store"`
	Ingest IngestConfig `koanf:"ingest"`
	Log    LogConfig    `koanf:"log"`
}

// StoreConfig locates the document store.
//
// MemTableSize of zero keeps the Badger default. Badger refuses memtables
// too small to hold its skiplist, so explicit sizes start at MinMemTableSize.
type StoreConfig struct {
	Path         string `koanf:"path"          validate:"required_without=InMemory"`
	InMemory     bool   `koanf:"in_memory"`
	Collection   string `koanf:"collection"    validate:"required,excludesall=: "`
	SyncWrites   bool   `koanf:"sync_writes"`
	MemTableSize int64  `koanf:"memtable_size" validate:"omitempty,min=8388608"`
}

// MinMemTableSize is the smallest explicit memtable size accepted.
const MinMemTableSize = 8 << 20

// IngestConfig tunes an ingest run.
type IngestConfig struct {
	Workers       int    `koanf:"workers"         validate:"min=1,max=256"`
	BatchSize     int    `koanf:"batch_size"      validate:"min=1,max=100000"`
	Suffix        string `koanf:"suffix"          validate:"required"`
	NestedDepth   int    `koanf:"nested_depth"    validate:"min=0,max=8"`
	MaxEntryBytes int64  `koanf:"max_entry_bytes" validate:"min=1"`
	OnParseError  string `koanf:"on_parse_error"  validate:"oneof=abort count"`
	FailFast      bool   `koanf:"fail_fast"`
	Progress      bool   `koanf:"progress"`
	MetricsFile   string `koanf:"metrics_file"`
}

// LogConfig selects log verbosity.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:       "corpora.db",
			Collection: "articles",
		},
		Ingest: IngestConfig{
			Workers:       1,
			BatchSize:     1000,
			Suffix:        ".xml",
			MaxEntryBytes: 64 << 20,
			OnParseError:  "abort",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// validate caches struct metadata; it is safe for concurrent use.
var validate = validator.New()

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	return check(c)
}

// Validate checks the store settings.
func (c *StoreConfig) Validate() error {
	return check(c)
}

// Validate checks the ingest settings.
func (c *IngestConfig) Validate() error {
	return check(c)
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
