package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(environ())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	cfg, err := load(environ(
		"CORPORA_INGEST_WORKERS=8",
		"CORPORA_INGEST_BATCH_SIZE=250",
		"CORPORA_INGEST_FAIL_FAST=true",
		"CORPORA_STORE_COLLECTION=nyt",
		"CORPORA_LOG_LEVEL=debug",
		"CORPORA_UNSECTIONED=1",
		"HOME=/root",
	))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.Equal(t, 250, cfg.Ingest.BatchSize)
	assert.True(t, cfg.Ingest.FailFast)
	assert.Equal(t, "nyt", cfg.Store.Collection)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched values keep their defaults
	assert.Equal(t, ".xml", cfg.Ingest.Suffix)
	assert.Equal(t, "corpora.db", cfg.Store.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"in memory without path", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = true }, true},
		{"no path", func(c *Config) { c.Store.Path = "" }, false},
		{"zero workers", func(c *Config) { c.Ingest.Workers = 0 }, false},
		{"too many workers", func(c *Config) { c.Ingest.Workers = 1000 }, false},
		{"zero batch", func(c *Config) { c.Ingest.BatchSize = 0 }, false},
		{"bad policy", func(c *Config) { c.Ingest.OnParseError = "ignore" }, false},
		{"count policy", func(c *Config) { c.Ingest.OnParseError = "count" }, true},
		{"collection with colon", func(c *Config) { c.Store.Collection = "a:b" }, false},
		{"empty suffix", func(c *Config) { c.Ingest.Suffix = "" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"default memtable", func(c *Config) { c.Store.MemTableSize = 0 }, true},
		{"minimum memtable", func(c *Config) { c.Store.MemTableSize = MinMemTableSize }, true},
		{"small memtable", func(c *Config) { c.Store.MemTableSize = 1 << 20 }, false},
		{"negative memtable", func(c *Config) { c.Store.MemTableSize = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	var nilConfig *Config
	assert.Error(t, nilConfig.Validate())
}

func TestTransformEnvKey(t *testing.T) {
	key, value := transformEnvKey("CORPORA_INGEST_MAX_ENTRY_BYTES", "10")
	assert.Equal(t, "ingest.max_entry_bytes", key)
	assert.Equal(t, "10", value)

	key, _ = transformEnvKey("CORPORA_WORKERS", "1")
	assert.Empty(t, key)
}

func TestValidate_Sections(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Store.Validate())
	require.NoError(t, cfg.Ingest.Validate())

	cfg.Ingest.MaxEntryBytes = 0
	assert.Error(t, cfg.Ingest.Validate())

	cfg.Store.Collection = ""
	assert.Error(t, cfg.Store.Validate())
}
