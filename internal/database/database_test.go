package database_test

import (
	"context"
	"testing"

	"github.com/deppfellow/genoportal/internal/database/databasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_IsIdempotent(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))
	require.NoError(t, db.Bootstrap(ctx))

	var genes int
	require.NoError(t, db.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM Genes").Scan(&genes))
	assert.Equal(t, 6, genes)

	var tfs int
	require.NoError(t, db.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM Transcription_Factors").Scan(&tfs))
	assert.Equal(t, 2, tfs)
}
