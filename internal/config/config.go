package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider" env:"DATA_PROVIDER"` // polygon, yahoo or mock
		APIKey   string `yaml:"api_key" env:"POLYGON_API_KEY"`
	} `yaml:"data_source"`
	Quotes struct {
		PollInterval      time.Duration `yaml:"poll_interval" env:"QUOTE_POLL_INTERVAL"`
		HighlightDuration time.Duration `yaml:"highlight_duration" env:"HIGHLIGHT_DURATION"`
	} `yaml:"quotes"`
	Chart struct {
		PollInterval time.Duration `yaml:"poll_interval" env:"CHART_POLL_INTERVAL"`
		Timezone     string        `yaml:"timezone" env:"CHART_TIMEZONE"`
		Live         bool          `yaml:"live" env:"CHART_LIVE"`
	} `yaml:"chart"`
	Table struct {
		PageSize int `yaml:"page_size" env:"TABLE_PAGE_SIZE"`
	} `yaml:"table"`
	Watchlist struct {
		Backend     string `yaml:"backend" env:"WATCHLIST_BACKEND"` // file or postgres
		File        string `yaml:"file" env:"WATCHLIST_FILE"`
		DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "polygon"
	}
	if c.Quotes.PollInterval == 0 {
		c.Quotes.PollInterval = 5 * time.Second
	}
	if c.Quotes.HighlightDuration == 0 {
		c.Quotes.HighlightDuration = time.Second
	}
	if c.Chart.PollInterval == 0 {
		c.Chart.PollInterval = time.Minute
	}
	if c.Chart.Timezone == "" {
		c.Chart.Timezone = "GMT"
	}
	if c.Table.PageSize == 0 {
		c.Table.PageSize = 10
	}
	if c.Watchlist.Backend == "" {
		c.Watchlist.Backend = "file"
	}
	if c.Watchlist.File == "" {
		c.Watchlist.File = "data/watchlist.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all fields hold usable values. A missing API key is not an error:
// requests without one fail like any other transient fetch failure.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "polygon", "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not one of polygon, yahoo, mock", c.DataSource.Provider)
	}
	if c.Quotes.PollInterval < time.Second {
		return fmt.Errorf("quotes.poll_interval must be at least 1s")
	}
	if c.Quotes.HighlightDuration <= 0 {
		return fmt.Errorf("quotes.highlight_duration must be positive")
	}
	if c.Chart.PollInterval < time.Second {
		return fmt.Errorf("chart.poll_interval must be at least 1s")
	}
	if c.Table.PageSize <= 0 {
		return fmt.Errorf("table.page_size must be positive")
	}
	switch c.Watchlist.Backend {
	case "file":
		if c.Watchlist.File == "" {
			return fmt.Errorf("watchlist.file is required for the file backend")
		}
	case "postgres":
		if c.Watchlist.DatabaseURL == "" {
			return fmt.Errorf("watchlist.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("watchlist.backend %q is not one of file, postgres", c.Watchlist.Backend)
	}
	return nil
}
