package ai

import (
	"testing"

	"github.com/parcival-labs/ragstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, core.DefaultEmbeddingDim, cfg.Dimension)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://embed:8080/v1"),
			WithModel("embeddinggemma"),
			WithDimension(768),
			WithToken("secret"),
		)
		assert.Equal(t, "http://embed:8080/v1", cfg.Host)
		assert.Equal(t, "embeddinggemma", cfg.Model)
		assert.Equal(t, 768, cfg.Dimension)
		assert.Equal(t, "secret", cfg.Token)
	})
}

func TestConfig_Normalize(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)

	cfg = NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)

	// Already canonical hosts stay untouched.
	cfg = NewConfig(WithHost("http://localhost:11434/v1"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing host", func(c *Config) { c.Host = "" }, true},
		{"missing model", func(c *Config) { c.Model = "" }, true},
		{"zero dimension", func(c *Config) { c.Dimension = 0 }, true},
		{"negative dimension", func(c *Config) { c.Dimension = -5 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
