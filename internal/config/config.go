// Package config loads rowgate's YAML configuration.
//
// Loading starts from defaults, applies the file, then environment
// overrides of the form ROWGATE_<KEY>, and finally validates the result.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/session"
)

// Config is the process configuration.
type Config struct {
	Driver   string         `yaml:"driver"`
	DSN      string         `yaml:"dsn"`
	Catalog  string         `yaml:"catalog"`
	Log      LogConfig      `yaml:"log"`
	Sessions SessionsConfig `yaml:"sessions"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// SessionsConfig selects how active sessions are probed for checkouts.
type SessionsConfig struct {
	Backend     string        `yaml:"backend"` // none | sql | redis
	Table       string        `yaml:"table"`
	Column      string        `yaml:"column"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// Session backends.
const (
	BackendNone  = "none"
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Driver: "sqlite",
		DSN:    "rowgate.db",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Sessions: SessionsConfig{
			Backend:     BackendNone,
			Table:       session.DefaultTable,
			Column:      session.DefaultColumn,
			RedisPrefix: session.DefaultRedisPrefix,
			DialTimeout: 5 * time.Second,
		},
	}
}

// Load reads the configuration file at path. An empty path uses defaults
// and the environment only.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse reads configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides fields from ROWGATE_* environment variables.
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"ROWGATE_DRIVER":           &c.Driver,
		"ROWGATE_DSN":              &c.DSN,
		"ROWGATE_CATALOG":          &c.Catalog,
		"ROWGATE_LOG_LEVEL":        &c.Log.Level,
		"ROWGATE_LOG_FORMAT":       &c.Log.Format,
		"ROWGATE_SESSIONS_BACKEND": &c.Sessions.Backend,
		"ROWGATE_REDIS_ADDR":       &c.Sessions.RedisAddr,
	}
	for env, field := range overrides {
		if v, ok := os.LookupEnv(env); ok {
			*field = v
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := querysql.ParseDialect(c.Driver); err != nil {
		return err
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", c.Log.Format)
	}

	switch c.Sessions.Backend {
	case BackendNone:
	case BackendSQL:
		if c.Sessions.Table == "" || c.Sessions.Column == "" {
			return fmt.Errorf("sessions.table and sessions.column are required for the sql backend")
		}
	case BackendRedis:
		if c.Sessions.RedisAddr == "" {
			return fmt.Errorf("sessions.redis_addr is required for the redis backend")
		}
		if c.Sessions.DialTimeout <= 0 {
			return fmt.Errorf("sessions.dial_timeout must be positive")
		}
	default:
		return fmt.Errorf("sessions.backend %q: must be none, sql or redis", c.Sessions.Backend)
	}
	return nil
}
