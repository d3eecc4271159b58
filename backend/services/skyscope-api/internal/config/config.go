package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "skyscope/backend/libs/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	defaultPort = "8000"
)

// Config defines skyscope-api configuration.
type Config struct {
	HTTP struct {
		Port                  string   `yaml:"port" env:"SKYSCOPE_HTTP_PORT"`
		RequestTimeoutSeconds int      `yaml:"requestTimeoutSeconds" env:"SKYSCOPE_HTTP_REQUEST_TIMEOUT"`
		AllowedOrigins        []string `yaml:"allowedOrigins" env:"SKYSCOPE_HTTP_ALLOWED_ORIGINS"`
		StaticDir             string   `yaml:"staticDir" env:"SKYSCOPE_HTTP_STATIC_DIR"`
	} `yaml:"http"`
	Database struct {
		Driver string `yaml:"driver" env:"SKYSCOPE_DATABASE_DRIVER"`
		DSN    string `yaml:"dsn" env:"SKYSCOPE_DATABASE_DSN"`
	} `yaml:"database"`
	Registration struct {
		Key     string `yaml:"key" env:"REGISTRATION_KEY"`
		KeyHash string `yaml:"keyHash" env:"REGISTRATION_KEY_HASH"`
	} `yaml:"registration"`
	Redis struct {
		Addr     string `yaml:"addr" env:"SKYSCOPE_REDIS_ADDR"`
		Password string `yaml:"password" env:"SKYSCOPE_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"SKYSCOPE_REDIS_DB"`
	} `yaml:"redis"`
	Influx struct {
		URL    string `yaml:"url" env:"SKYSCOPE_INFLUX_URL"`
		Token  string `yaml:"token" env:"SKYSCOPE_INFLUX_TOKEN"`
		Org    string `yaml:"org" env:"SKYSCOPE_INFLUX_ORG"`
		Bucket string `yaml:"bucket" env:"SKYSCOPE_INFLUX_BUCKET"`
	} `yaml:"influx"`
	Live struct {
		PingIntervalSeconds int `yaml:"pingIntervalSeconds" env:"SKYSCOPE_LIVE_PING_INTERVAL"`
	} `yaml:"live"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.HTTP.RequestTimeoutSeconds = 15
	cfg.Database.Driver = DriverPostgres
	cfg.Live.PingIntervalSeconds = 30

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings the service cannot start without.
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != DriverMemory && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if c.Registration.Key == "" && c.Registration.KeyHash == "" {
		return errors.New("config: registration key or key hash required")
	}
	if c.InfluxEnabled() && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return errors.New("config: influx org and bucket required when url is set")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// RequestTimeout bounds every request context.
func (c *Config) RequestTimeout() time.Duration {
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HTTP.RequestTimeoutSeconds) * time.Second
}

// PingInterval is the keepalive period of live connections.
func (c *Config) PingInterval() time.Duration {
	if c.Live.PingIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Live.PingIntervalSeconds) * time.Second
}

// RedisEnabled reports whether the known-sensor cache is configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// InfluxEnabled reports whether the measurement mirror is configured.
func (c *Config) InfluxEnabled() bool {
	return strings.TrimSpace(c.Influx.URL) != ""
}
