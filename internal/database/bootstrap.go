package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/deppfellow/genoportal/internal/query"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Bootstrap creates the read-only schema in an empty sqlite database and
// loads a small demo dataset so the portal works out of the box. It is a
// no-op for the network drivers, whose schema is owned elsewhere.
func (db *Database) Bootstrap(ctx context.Context) error {
	if db.Dialect != query.DialectSQLite {
		db.log.Debug().Str("driver", string(db.Dialect)).Msg("skipping schema bootstrap")
		return nil
	}

	if err := db.execFile(ctx, "schema/schema.sql"); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	var genes int
	if err := db.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM Genes").Scan(&genes); err != nil {
		return fmt.Errorf("bootstrap count genes: %w", err)
	}
	if genes > 0 {
		db.log.Info().Int("genes", genes).Msg("database already populated")
		return nil
	}

	if err := db.execFile(ctx, "schema/seed.sql"); err != nil {
		return fmt.Errorf("bootstrap seed: %w", err)
	}

	db.log.Info().Msg("loaded demo dataset")
	return nil
}

// execFile runs every statement of an embedded SQL file in one transaction.
func (db *Database) execFile(ctx context.Context, name string) error {
	content, err := schemaFS.ReadFile(name)
	if err != nil {
		return err
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return tx.Commit()
}
