/*
Package config loads server configuration.

PURPOSE:
  One Config value drives the server: HTTP listener, SQLite path, CORS
  origins and logging. Sources are layered so a deploy can ship a file and
  override single values per environment.

PRECEDENCE (lowest to highest):
  1. Default():           built-in values
  2. TOML file:           --config path, or ./studio.toml when present
  3. Environment:         STUDIO_* variables
  4. Command-line flags:  applied by cmd/server after Load

ENVIRONMENT VARIABLES:
  STUDIO_SERVER_PORT               HTTP port
  STUDIO_SERVER_ALLOWED_ORIGINS    Comma-separated CORS origins
  STUDIO_SERVER_SHUTDOWN_SECONDS   Graceful shutdown timeout
  STUDIO_DATABASE_PATH             SQLite path (":memory:" allowed)
  STUDIO_LOG_LEVEL                 debug | info | warn | error
  STUDIO_LOG_FORMAT                json | console

SAMPLE FILE:
  [server]
  port = 8080
  allowed_origins = ["http://localhost:5173"]

  [database]
  path = "./data/studio.db"

  [log]
  level = "info"
  format = "json"

SEE ALSO:
  - cmd/server/root.go: Flag overrides
  - logging/logging.go: Consumes LogConfig
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STUDIO_"

// DefaultPath is read when no explicit config path is given and it exists.
const DefaultPath = "studio.toml"

type Config struct {
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `toml:"database" envPrefix:"DATABASE_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port            int      `toml:"port" env:"PORT"`
	AllowedOrigins  []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	ReadSeconds     int      `toml:"read_seconds" env:"READ_SECONDS"`
	WriteSeconds    int      `toml:"write_seconds" env:"WRITE_SECONDS"`
	ShutdownSeconds int      `toml:"shutdown_seconds" env:"SHUTDOWN_SECONDS"`
}

type DatabaseConfig struct {
	Path string `toml:"path" env:"PATH"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
			ReadSeconds:     15,
			WriteSeconds:    15,
			ShutdownSeconds: 30,
		},
		Database: DatabaseConfig{Path: "studio.db"},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional TOML file and
// the environment. An explicit path that does not exist is an error; the
// default path is silently skipped when missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Database.Path = strings.TrimSpace(c.Database.Path)

	origins := c.Server.AllowedOrigins[:0]
	for _, o := range c.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.AllowedOrigins = origins
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadSeconds < 0 || c.Server.WriteSeconds < 0 || c.Server.ShutdownSeconds < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownSeconds) * time.Second
}
