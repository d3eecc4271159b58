package config

import (
	"errors"
	"strings"
	"time"

	libconfig "skyscope/backend/libs/config"
)

// Config defines skyscope-dashboard configuration.
type Config struct {
	API struct {
		URL            string `yaml:"url" env:"SKYSCOPE_API_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"SKYSCOPE_API_TIMEOUT"`
	} `yaml:"api"`
	Chart struct {
		YStep       float64 `yaml:"yStep" env:"SKYSCOPE_CHART_Y_STEP"`
		PollSeconds int     `yaml:"pollSeconds" env:"SKYSCOPE_CHART_POLL"`
	} `yaml:"chart"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.API.URL = "http://localhost:8000"
	cfg.API.TimeoutSeconds = 10
	cfg.Chart.YStep = 5
	cfg.Chart.PollSeconds = 60

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	if cfg.API.URL == "" {
		return nil, errors.New("config: api url required")
	}
	if cfg.Chart.YStep <= 0 {
		return nil, errors.New("config: chart y step must be positive")
	}
	return cfg, nil
}

// Timeout bounds each API call.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PollInterval is the refresh period in watch mode.
func (c *Config) PollInterval() time.Duration {
	if c.Chart.PollSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Chart.PollSeconds) * time.Second
}
