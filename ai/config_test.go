package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "embeddinggemma", cfg.Model)
	assert.Equal(t, 8000, cfg.MaxInputLength)
	assert.Equal(t, 32, cfg.BatchSize)
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embed.internal:9100"),
		WithModel("text-embedding-3-small"),
		WithMaxInputLength(512),
		WithBatchSize(8),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://embed.internal:9100/v1", cfg.Host)
	assert.Equal(t, 1536, cfg.Dimension)
	assert.Equal(t, 512, cfg.MaxInputLength)
	assert.Equal(t, 8, cfg.BatchSize)
}

func TestConfig_NormalizeHost(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "bare host", host: "http://localhost:11434", want: "http://localhost:11434/v1"},
		{name: "trailing slash", host: "http://localhost:11434/", want: "http://localhost:11434/v1"},
		{name: "already suffixed", host: "http://localhost:11434/v1", want: "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty host", mutate: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "empty model", mutate: func(c *Config) { c.Model = "" }, wantErr: true},
		{
			name: "unknown model without dimension",
			mutate: func(c *Config) {
				c.Model = "some-new-model"
			},
			wantErr: true,
		},
		{
			name: "unknown model with explicit dimension",
			mutate: func(c *Config) {
				c.Model = "some-new-model"
				c.Dimension = 1024
			},
			wantErr: false,
		},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Truncate(t *testing.T) {
	cfg := NewConfig(WithMaxInputLength(5))

	assert.Equal(t, "short", cfg.Truncate("short"))
	assert.Equal(t, "12345", cfg.Truncate("1234567890"))

	// Rune-safe: multi-byte characters are never split.
	truncated := cfg.Truncate(strings.Repeat("é", 10))
	assert.Equal(t, strings.Repeat("é", 5), truncated)
}
