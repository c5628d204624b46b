// Package database opens the connection to the genomics database.
//
// The portal only reads, so everything goes through one database/sql pool
// regardless of the backend:
//   - postgres through pgx's stdlib adapter, with query tracing (pgx
//     tracelog in local env, New Relic nrpgx5 when enabled)
//   - mysql / MariaDB through go-sql-driver/mysql
//   - sqlite through modernc.org/sqlite, for local use and tests
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/deppfellow/genoportal/internal/config"
	loggerConfig "github.com/deppfellow/genoportal/internal/logger"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/go-sql-driver/mysql"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Database wraps the connection pool together with the SQL dialect it speaks.
type Database struct {
	DB      *sql.DB
	Dialect query.Dialect
	log     *zerolog.Logger
}

// multiTracer lets pgx run more than one tracer: pgx only has a single
// Tracer slot in ConnConfig, but we want New Relic and local SQL logging.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout is how many seconds startup waits for the first ping.
const DatabasePingTimeout = 10

// New opens the configured database, applies pool settings, pings it and,
// for sqlite with bootstrap enabled, creates the schema.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	dialect, err := query.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case query.DialectPostgres:
		db, err = openPostgres(cfg, logger, loggerService)
	case query.DialectMySQL:
		db, err = openMySQL(cfg)
	case query.DialectSQLite:
		db, err = sql.Open("sqlite", cfg.Database.Path)
	}
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second)
	if dialect == query.DialectSQLite {
		// A single writer keeps sqlite from returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	database := &Database{
		DB:      db,
		Dialect: dialect,
		log:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Database.Bootstrap {
		if err := database.Bootstrap(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info().Str("driver", string(dialect)).Msg("connected to the database")

	return database, nil
}

// NewFromDB wraps an already open pool. Used by tests and tooling.
func NewFromDB(db *sql.DB, dialect query.Dialect, logger *zerolog.Logger) *Database {
	return &Database{DB: db, Dialect: dialect, log: logger}
}

func openPostgres(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*sql.DB, error) {
	hostPort := net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))

	// URL-encode the password so characters like '@' don't break the DSN.
	encodedPassword := url.QueryEscape(cfg.Database.Password)

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		encodedPassword,
		hostPort,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	if loggerService.GetApplication() != nil {
		connConfig.Tracer = nrpgx5.NewTracer()
	}

	// SQL logging is very noisy, so only in local env.
	if cfg.IsLocal() {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)

		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		}

		if connConfig.Tracer != nil {
			connConfig.Tracer = &multiTracer{
				tracers: []any{connConfig.Tracer, localTracer},
			}
		} else {
			connConfig.Tracer = localTracer
		}
	}

	return stdlib.OpenDB(*connConfig), nil
}

func openMySQL(cfg *config.Config) (*sql.DB, error) {
	mysqlConfig := mysql.NewConfig()
	mysqlConfig.Net = "tcp"
	mysqlConfig.Addr = net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
	mysqlConfig.User = cfg.Database.User
	mysqlConfig.Passwd = cfg.Database.Password
	mysqlConfig.DBName = cfg.Database.Name
	mysqlConfig.ParseTime = true

	connector, err := mysql.NewConnector(mysqlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Ping checks connectivity with a trivial query so it goes through the same
// driver path as real queries.
func (db *Database) Ping(ctx context.Context) error {
	var one int
	if err := db.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return err
	}
	return nil
}

// Close closes the connection pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	return db.DB.Close()
}
