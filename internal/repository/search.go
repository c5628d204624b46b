package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/genoportal/internal/database"
	"github.com/deppfellow/genoportal/internal/logger"
	"github.com/deppfellow/genoportal/internal/query"
)

// SearchRepository runs built search statements.
type SearchRepository struct {
	db   *database.Database
	slow time.Duration
}

// NewSearchRepository creates a SearchRepository. Queries slower than slow
// are logged at warn level; zero disables that.
func NewSearchRepository(db *database.Database, slow time.Duration) *SearchRepository {
	return &SearchRepository{db: db, slow: slow}
}

// Dialect is the dialect statements must be built for.
func (r *SearchRepository) Dialect() query.Dialect {
	return r.db.Dialect
}

// Search counts every matching row, then fetches one page of them.
func (r *SearchRepository) Search(ctx context.Context, stmt query.Statement, page query.Page) (*ResultSet, query.Pagination, error) {
	start := time.Now()

	var total int64
	if err := r.db.DB.QueryRowContext(ctx, stmt.CountSQL(), stmt.Args...).Scan(&total); err != nil {
		return nil, query.Pagination{}, fmt.Errorf("count search results: %w", err)
	}

	rows, err := r.db.DB.QueryContext(ctx, stmt.Paged(page), stmt.Args...)
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	set, err := scanResultSet(rows)
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("scan search results: %w", err)
	}

	r.logDuration(ctx, "search", start, total)

	return set, query.NewPagination(total, page), nil
}

// Export fetches up to maxRows matching rows; maxRows <= 0 means all of them.
func (r *SearchRepository) Export(ctx context.Context, stmt query.Statement, maxRows int) (*ResultSet, error) {
	start := time.Now()

	rows, err := r.db.DB.QueryContext(ctx, stmt.Limited(maxRows), stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}
	defer rows.Close()

	set, err := scanResultSet(rows)
	if err != nil {
		return nil, fmt.Errorf("scan export rows: %w", err)
	}

	r.logDuration(ctx, "export", start, int64(set.Len()))

	return set, nil
}

func (r *SearchRepository) logDuration(ctx context.Context, op string, start time.Time, rows int64) {
	elapsed := time.Since(start)
	log := logger.FromContext(ctx)

	if r.slow > 0 && elapsed > r.slow {
		log.Warn().
			Str("operation", op).
			Dur("duration", elapsed).
			Int64("rows", rows).
			Msg("slow query")
		return
	}

	log.Debug().
		Str("operation", op).
		Dur("duration", elapsed).
		Int64("rows", rows).
		Msg("query completed")
}
