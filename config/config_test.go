package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parcival-labs/ragstore/config"
	"github.com/parcival-labs/ragstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, core.DefaultEmbeddingDim, cfg.Embedding.Dimension)
	assert.Equal(t, 1000, cfg.Chunking.MaxChars)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	content := `
server:
  listen: ":9090"
database:
  dsn: "postgres://example:5432/other"
embedding:
  model: "embeddinggemma"
  dimension: 768
jobs:
  workers: 8
  retry_base_delay: 250ms
chunking:
  max_chars: 500
  overlap_chars: 50
log_level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "postgres://example:5432/other", cfg.Database.DSN)
	assert.Equal(t, "embeddinggemma", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, 8, cfg.Jobs.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.RetryBaseDelay)
	assert.Equal(t, 500, cfg.Chunking.MaxChars)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, 3, cfg.Jobs.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty dsn", func(c *config.Config) { c.Database.DSN = "" }},
		{"zero dimension", func(c *config.Config) { c.Embedding.Dimension = 0 }},
		{"zero max chars", func(c *config.Config) { c.Chunking.MaxChars = 0 }},
		{"overlap >= max chars", func(c *config.Config) { c.Chunking.OverlapChars = c.Chunking.MaxChars }},
		{"negative overlap", func(c *config.Config) { c.Chunking.OverlapChars = -1 }},
		{"no workers", func(c *config.Config) { c.Jobs.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
		})
	}
}
