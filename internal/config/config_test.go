package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Search.DefaultPerPage)
	assert.Equal(t, 24*time.Hour, cfg.Search.ResultTTL)
	assert.Equal(t, "fs", cfg.Export.Driver)
	assert.False(t, cfg.Jobs.Enabled)
	assert.False(t, cfg.Redis.Enabled())

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)
	assert.False(t, cfg.Observability.NewRelic.Enabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GENOPORTAL_PRIMARY__ENV", "production")
	t.Setenv("GENOPORTAL_SERVER__PORT", "9090")
	t.Setenv("GENOPORTAL_SERVER__CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("GENOPORTAL_DATABASE__DRIVER", "mysql")
	t.Setenv("GENOPORTAL_DATABASE__HOST", "db")
	t.Setenv("GENOPORTAL_DATABASE__PORT", "3306")
	t.Setenv("GENOPORTAL_DATABASE__USER", "portal")
	t.Setenv("GENOPORTAL_DATABASE__NAME", "genomics")
	t.Setenv("GENOPORTAL_REDIS__ADDRESS", "redis:6379")
	t.Setenv("GENOPORTAL_SEARCH__RESULT_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Hour, cfg.Search.ResultTTL)
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("network driver without host", func(t *testing.T) {
		t.Setenv("GENOPORTAL_DATABASE__DRIVER", "postgres")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("GENOPORTAL_DATABASE__DRIVER", "oracle")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("s3 export without bucket", func(t *testing.T) {
		t.Setenv("GENOPORTAL_EXPORT__DRIVER", "s3")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "bucket")
	})

	t.Run("jobs without redis", func(t *testing.T) {
		t.Setenv("GENOPORTAL_JOBS__ENABLED", "true")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "redis.address")
	})

	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("GENOPORTAL_OBSERVABILITY__LOGGING__LEVEL", "loud")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "logging level")
	})
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	c := DefaultObservabilityConfig()
	c.Logging.Level = ""

	c.Environment = "production"
	assert.Equal(t, "info", c.GetLogLevel())

	c.Environment = "local"
	assert.Equal(t, "debug", c.GetLogLevel())

	c.Logging.Level = "warn"
	assert.Equal(t, "warn", c.GetLogLevel())
}
