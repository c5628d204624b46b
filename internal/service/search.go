package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/genoportal/internal/errs"
	"github.com/deppfellow/genoportal/internal/lib/session"
	"github.com/deppfellow/genoportal/internal/logger"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/google/uuid"
)

// MissingContextMessage is shown when a search lacks condition or cell type.
const MissingContextMessage = "Error: Both condition and cell type are required."

// SearchService runs portal searches and remembers them for export.
type SearchService struct {
	server *server.Server
	repo   *repository.SearchRepository
}

func NewSearchService(s *server.Server, repo *repository.SearchRepository) *SearchService {
	return &SearchService{server: s, repo: repo}
}

// SearchResult is one rendered page of a search.
type SearchResult struct {
	// ID is the stash id used to save the full result. Empty when nothing
	// matched or the stash could not be written.
	ID         string
	Title      string
	Rows       *repository.ResultSet
	Pagination query.Pagination
}

// Search builds the statement for c, runs it for one page and stashes c so
// the whole result can be exported later.
func (s *SearchService) Search(ctx context.Context, searchType string, c query.Criteria, page query.Page) (*SearchResult, error) {
	stmt, err := query.Build(c, s.repo.Dialect())
	if err != nil {
		return nil, criteriaError(err)
	}

	rows, pagination, err := s.repo.Search(ctx, stmt, page)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Title:      Title(c),
		Rows:       rows,
		Pagination: pagination,
	}
	if rows.Len() == 0 {
		return result, nil
	}

	stash := session.Result{
		ID:         uuid.NewString(),
		SearchType: searchType,
		Title:      result.Title,
		Criteria:   c,
		Total:      pagination.TotalRecords,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.server.Results.Save(ctx, stash, s.server.Config.Search.ResultTTL); err != nil {
		// The page still renders, it just cannot be saved.
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to stash search result")
		return result, nil
	}
	result.ID = stash.ID

	return result, nil
}

// Title is the heading above a result table.
func Title(c query.Criteria) string {
	title := fmt.Sprintf("Search Results (%s, %s)", c.Condition, c.CellType)
	idType := strings.TrimSpace(c.Gene.IDType)
	identifier := strings.TrimSpace(c.Gene.Identifier)
	if idType != "" && identifier != "" {
		title += fmt.Sprintf(" - %s: %s", strings.ToUpper(idType), identifier)
	}
	return title
}

// criteriaError turns builder rejections into client errors.
func criteriaError(err error) error {
	if errors.Is(err, query.ErrMissingContext) {
		return errs.NewBadRequestError(MissingContextMessage, true, nil, nil, nil)
	}

	var unknown *query.UnknownFieldError
	if errors.As(err, &unknown) {
		return errs.NewBadRequestError("Error: "+unknown.Error(), true, nil, nil, nil)
	}

	return err
}
