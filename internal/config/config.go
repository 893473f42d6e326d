// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// StoreKind selects the preference store implementation.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreSQLite StoreKind = "sqlite"
)

// EnvFileVar names the variable pointing at an optional dotenv file.
const EnvFileVar = "DUALREVIEW_ENV_FILE"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken    string `env:"GITHUB_TOKEN,notEmpty"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`

	BotName      string    `env:"DUALREVIEW_BOT_NAME" envDefault:"DualReview"`
	ListenAddr   string    `env:"DUALREVIEW_LISTEN_ADDR" envDefault:"0.0.0.0:8000"`
	GitHubAPIURL string    `env:"DUALREVIEW_GITHUB_API_URL" envDefault:"https://api.github.com/"`
	Store        StoreKind `env:"DUALREVIEW_STORE" envDefault:"memory"`
	DBPath       string    `env:"DUALREVIEW_DB_PATH" envDefault:"dualreview.db"`

	OpenAIModel     string `env:"DUALREVIEW_OPENAI_MODEL" envDefault:"gpt-4o"`
	DeepSeekModel   string `env:"DUALREVIEW_DEEPSEEK_MODEL" envDefault:"deepseek-coder"`
	OpenAIBaseURL   string `env:"DUALREVIEW_OPENAI_BASE_URL"`
	DeepSeekBaseURL string `env:"DUALREVIEW_DEEPSEEK_BASE_URL"`

	ReviewTimeout  time.Duration `env:"DUALREVIEW_REVIEW_TIMEOUT" envDefault:"60s"`
	ProcessTimeout time.Duration `env:"DUALREVIEW_PROCESS_TIMEOUT" envDefault:"3m"`
	MaxTokens      int           `env:"DUALREVIEW_MAX_TOKENS" envDefault:"500"`
	MaxDiffBytes   int           `env:"DUALREVIEW_MAX_DIFF_BYTES" envDefault:"60000"`

	LogLevel  string `env:"DUALREVIEW_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"DUALREVIEW_LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the process environment, layered over the
// dotenv file named by DUALREVIEW_ENV_FILE (default ".env"). Process variables
// win over file entries; a missing file is ignored.
func Load() (*Config, error) {
	vars := make(map[string]string)

	path := ".env"
	if v, ok := os.LookupEnv(EnvFileVar); ok && v != "" {
		path = v
	}
	fileVars, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range fileVars {
			vars[k] = v
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	for k, v := range env.ToMap(os.Environ()) {
		vars[k] = v
	}

	return parse(vars)
}

func parse(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.Store = StoreKind(strings.ToLower(strings.TrimSpace(string(cfg.Store))))
	cfg.BotName = strings.TrimPrefix(strings.TrimSpace(cfg.BotName), "@")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BotName == "" || strings.ContainsAny(c.BotName, " \t\r\n") {
		return fmt.Errorf("DUALREVIEW_BOT_NAME %q must be a single non-empty word", c.BotName)
	}
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		return fmt.Errorf("DUALREVIEW_STORE has invalid value %q: expected memory or sqlite", c.Store)
	}
	if c.Store == StoreSQLite && c.DBPath == "" {
		return errors.New("DUALREVIEW_DB_PATH must be set when DUALREVIEW_STORE is sqlite")
	}
	if c.ReviewTimeout <= 0 {
		return fmt.Errorf("DUALREVIEW_REVIEW_TIMEOUT must be positive, got %s", c.ReviewTimeout)
	}
	if c.ProcessTimeout <= 0 {
		return fmt.Errorf("DUALREVIEW_PROCESS_TIMEOUT must be positive, got %s", c.ProcessTimeout)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("DUALREVIEW_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.MaxDiffBytes <= 0 {
		return fmt.Errorf("DUALREVIEW_MAX_DIFF_BYTES must be positive, got %d", c.MaxDiffBytes)
	}
	return nil
}
