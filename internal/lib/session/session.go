// Package session remembers the criteria behind a rendered result table so
// the same result can be exported later without the client resending it.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/genoportal/internal/query"
)

// ErrNotFound is returned for unknown or expired result ids.
var ErrNotFound = errors.New("session: result not found")

// Result is what gets stashed per rendered search.
type Result struct {
	ID         string         `json:"id"`
	SearchType string         `json:"search_type"`
	Title      string         `json:"title"`
	Criteria   query.Criteria `json:"criteria"`
	Total      int64          `json:"total"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ResultStore keeps results for a limited time.
type ResultStore interface {
	Save(ctx context.Context, r Result, ttl time.Duration) error
	Load(ctx context.Context, id string) (Result, error)
	Ping(ctx context.Context) error
}
