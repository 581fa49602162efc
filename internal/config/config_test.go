package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	Init(v)

	cfg := FromViper(v)
	assert.Equal(t, "gemma3:4b", cfg.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.BaseURL)
	assert.Equal(t, "ollama", cfg.APIKey)
	assert.Equal(t, "por", cfg.TesseractLang)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.HistoryDB)
	assert.NoError(t, cfg.Validate())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BOLETO_MODELO_LLM", "llama3.1")
	t.Setenv("BOLETO_BASE_URL_LLM", "http://gpu-box:11434/v1")
	t.Setenv("BOLETO_TESSERACT_LANG", "eng")
	t.Setenv("BOLETO_LOG_LEVEL", "DEBUG")

	v := viper.New()
	Init(v)

	cfg := FromViper(v)
	assert.Equal(t, "llama3.1", cfg.Model)
	assert.Equal(t, "http://gpu-box:11434/v1", cfg.BaseURL)
	assert.Equal(t, "eng", cfg.TesseractLang)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		Init(v)
		return FromViper(v)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"empty model", func(c *Config) { c.Model = "" }, "model"},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, "base URL"},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "log level"},
		{"bad format", func(c *Config) { c.LogFormat = "yaml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "boletos"), ExpandPath("~/boletos"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Empty(t, ExpandPath(""))

	t.Setenv("BOLETO_TEST_DIR", "/data")
	assert.Equal(t, "/data/x.db", ExpandPath("$BOLETO_TEST_DIR/x.db"))
}
