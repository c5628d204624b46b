package config

import "time"

// defaults is the lowest configuration layer. Anything here can be
// overridden from the environment.
func defaults() map[string]any {
	obs := DefaultObservabilityConfig()

	return map[string]any{
		"primary.env": "local",

		"server.port":                           "8080",
		"server.read_timeout":                   30,
		"server.write_timeout":                  60,
		"server.idle_timeout":                   120,
		"server.cors_allowed_origins":           []string{"*"},
		"server.static_dir":                     "static",
		"server.rate_limit.enabled":             true,
		"server.rate_limit.requests_per_second": 20.0,
		"server.rate_limit.burst":               40,

		"database.driver":             "sqlite",
		"database.path":               "genoportal.db",
		"database.bootstrap":          true,
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     25,
		"database.conn_max_lifetime":  300,
		"database.conn_max_idle_time": 300,

		"redis.db": 0,

		"search.default_per_page": 10,
		"search.max_per_page":     500,
		"search.result_ttl":       24 * time.Hour,

		"export.driver":       "fs",
		"export.dir":          "saved_files",
		"export.max_rows":     100000,
		"export.preview_rows": 5,
		"export.s3.prefix":    "exports",
		"export.s3.region":    "us-east-1",

		"jobs.enabled":     false,
		"jobs.concurrency": 5,

		"observability.service_name":                          ServiceName,
		"observability.environment":                           "local",
		"observability.logging.level":                         obs.Logging.Level,
		"observability.logging.format":                        obs.Logging.Format,
		"observability.logging.slow_query_threshold":          obs.Logging.SlowQueryThreshold,
		"observability.new_relic.license_key":                 "",
		"observability.new_relic.app_log_forwarding_enabled":  obs.NewRelic.AppLogForwardingEnabled,
		"observability.new_relic.distributed_tracing_enabled": obs.NewRelic.DistributedTracingEnabled,
		"observability.new_relic.debug_logging":               obs.NewRelic.DebugLogging,
		"observability.health_checks.enabled":                 obs.HealthChecks.Enabled,
		"observability.health_checks.interval":                obs.HealthChecks.Interval,
		"observability.health_checks.timeout":                 obs.HealthChecks.Timeout,
		"observability.health_checks.checks":                  obs.HealthChecks.Checks,
	}
}
