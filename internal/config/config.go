// Package config loads the portal configuration.
//
// Values come from three layers, lowest precedence first:
//   - built-in defaults (see defaults.go)
//   - a `.env` file, if present, loaded into the process environment
//   - environment variables prefixed with GENOPORTAL_
//
// Nested keys are separated by a double underscore, so
// GENOPORTAL_DATABASE__MAX_OPEN_CONNS maps to database.max_open_conns.
// The result is validated before anything else starts so the process fails
// fast on bad or missing config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process env before we read it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "GENOPORTAL_"
	// ServiceName tags logs and APM data.
	ServiceName = "genoportal"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If it ends up nil,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Search        SearchConfig         `koanf:"search" validate:"required"`
	Export        ExportConfig         `koanf:"export" validate:"required"`
	Jobs          JobsConfig           `koanf:"jobs"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
type ServerConfig struct {
	Port               string          `koanf:"port" validate:"required"`
	ReadTimeout        int             `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int             `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int             `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string        `koanf:"cors_allowed_origins" validate:"required"`
	StaticDir          string          `koanf:"static_dir"`
	RateLimit          RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`
}

// DatabaseConfig points at the genomics database.
//
// Driver selects the backend. For sqlite only Path is used; for the network
// drivers Host, Port, User and Name are required.
type DatabaseConfig struct {
	Driver          string `koanf:"driver" validate:"required,oneof=postgres mysql sqlite"`
	Host            string `koanf:"host" validate:"required_unless=Driver sqlite"`
	Port            int    `koanf:"port" validate:"required_unless=Driver sqlite"`
	User            string `koanf:"user" validate:"required_unless=Driver sqlite"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required_unless=Driver sqlite"`
	SSLMode         string `koanf:"ssl_mode"`
	Path            string `koanf:"path" validate:"required_if=Driver sqlite"`
	Bootstrap       bool   `koanf:"bootstrap"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=0"`
}

// RedisConfig contains Redis connection details.
// An empty Address keeps search results in process memory instead.
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Address) != ""
}

// SearchConfig tunes result paging and how long a result stays exportable.
type SearchConfig struct {
	DefaultPerPage int           `koanf:"default_per_page" validate:"min=1"`
	MaxPerPage     int           `koanf:"max_per_page" validate:"min=1,gtefield=DefaultPerPage"`
	ResultTTL      time.Duration `koanf:"result_ttl" validate:"min=1s"`
}

// ExportConfig controls where saved CSV exports go.
type ExportConfig struct {
	Driver      string   `koanf:"driver" validate:"required,oneof=fs s3"`
	Dir         string   `koanf:"dir" validate:"required_if=Driver fs"`
	MaxRows     int      `koanf:"max_rows" validate:"min=1"`
	PreviewRows int      `koanf:"preview_rows" validate:"min=0"`
	S3          S3Config `koanf:"s3"`
}

// S3Config is only read when Export.Driver is s3.
// Empty credentials use the default AWS chain.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Prefix          string `koanf:"prefix"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PathStyle       bool   `koanf:"path_style"`
}

// JobsConfig toggles the background export worker. When disabled, exports run
// inside the request that asked for them.
type JobsConfig struct {
	Enabled     bool `koanf:"enabled"`
	Concurrency int  `koanf:"concurrency" validate:"min=1"`
}

// LoadConfig reads defaults and the environment, then validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// GENOPORTAL_SERVER__PORT -> server.port
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// Validate runs the struct tag rules and the cross-field checks tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Export.Driver == "s3" && strings.TrimSpace(c.Export.S3.Bucket) == "" {
		return fmt.Errorf("export.s3.bucket is required when export.driver is s3")
	}

	if c.Jobs.Enabled && !c.Redis.Enabled() {
		return fmt.Errorf("jobs.enabled requires redis.address")
	}

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	// Service name and environment always follow the primary config so every
	// log line and trace is tagged consistently.
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// IsLocal reports whether the app runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
