// Package databasetest provides an in-memory sqlite database loaded with the
// demo dataset, for tests in other packages.
package databasetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/deppfellow/genoportal/internal/database"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// New returns a seeded database that is closed when the test ends.
func New(t *testing.T) *database.Database {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	logger := zerolog.Nop()
	wrapped := database.NewFromDB(db, query.DialectSQLite, &logger)
	require.NoError(t, wrapped.Bootstrap(context.Background()))

	t.Cleanup(func() { _ = db.Close() })
	return wrapped
}
