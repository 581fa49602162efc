// Package config defines the runtime configuration, its defaults and the
// BOLETO_ environment binding.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Flat on purpose: with the BOLETO_ prefix each key maps
// one-to-one to an environment variable (modelo_llm -> BOLETO_MODELO_LLM).
const (
	KeyModel     = "modelo_llm"
	KeyBaseURL   = "base_url_llm"
	KeyAPIKey    = "api_key_llm"
	KeyLang      = "tesseract_lang"
	KeyTimeout   = "timeout"
	KeyWorkers   = "workers"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
	KeyLogFile   = "log_file"
	KeyHistoryDB = "history_db"
)

const (
	DefaultModel   = "gemma3:4b"
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultAPIKey  = "ollama"
	DefaultLang    = "por"
	DefaultTimeout = 60 // seconds
)

type Config struct {
	Model         string
	BaseURL       string
	APIKey        string
	TesseractLang string
	Timeout       time.Duration
	Workers       int
	LogLevel      string
	LogFormat     string
	LogFile       string
	HistoryDB     string
}

// Init registers defaults and the environment binding on v.
func Init(v *viper.Viper) {
	v.SetEnvPrefix("BOLETO")
	v.AutomaticEnv()

	v.SetDefault(KeyModel, DefaultModel)
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyAPIKey, DefaultAPIKey)
	v.SetDefault(KeyLang, DefaultLang)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyHistoryDB, "")
}

// FromViper materializes the configuration from v.
func FromViper(v *viper.Viper) Config {
	return Config{
		Model:         v.GetString(KeyModel),
		BaseURL:       v.GetString(KeyBaseURL),
		APIKey:        v.GetString(KeyAPIKey),
		TesseractLang: v.GetString(KeyLang),
		Timeout:       time.Duration(v.GetInt(KeyTimeout)) * time.Second,
		Workers:       v.GetInt(KeyWorkers),
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:     strings.ToLower(v.GetString(KeyLogFormat)),
		LogFile:       ExpandPath(v.GetString(KeyLogFile)),
		HistoryDB:     ExpandPath(v.GetString(KeyHistoryDB)),
	}
}

func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return os.ExpandEnv(path)
}
