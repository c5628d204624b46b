package handler

import (
	"errors"
	"net/http"

	"github.com/deppfellow/genoportal/internal/errs"
	"github.com/deppfellow/genoportal/internal/lib/render"
	"github.com/deppfellow/genoportal/internal/middleware"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

const (
	noResultsMessage   = "No results found matching your criteria."
	searchErrorMessage = "An error occurred while searching. Please try again."
)

// SearchHandler serves /search, both as a full page and as the AJAX
// fragment used for paging.
type SearchHandler struct {
	Handler
	services *service.Services
}

func NewSearchHandler(s *server.Server, services *service.Services) *SearchHandler {
	return &SearchHandler{
		Handler:  NewHandler(s),
		services: services,
	}
}

// searchResponse is what the search endpoint renders. A nil Page.Results
// with a Message is a failed or empty search.
type searchResponse struct {
	AJAX    bool
	Status  int
	Message string
	Page    *render.SearchPage
}

// searchResponseHandler writes the results fragment or a JSON error to AJAX
// callers and the full search page to everyone else.
type searchResponseHandler struct{}

func (h searchResponseHandler) Handle(c echo.Context, result interface{}) error {
	res := result.(*searchResponse)

	if !res.AJAX {
		return c.Render(res.Status, string(render.TemplateSearch), res.Page)
	}
	if res.Page.Results != nil {
		return c.Render(http.StatusOK, string(render.TemplateResults), res.Page.Results)
	}
	return c.JSON(res.Status, map[string]string{
		"status":  "error",
		"message": res.Message,
	})
}

func (h searchResponseHandler) GetOperation() string {
	return "handler_search"
}

func (h searchResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn == nil {
		return
	}
	if res, ok := result.(*searchResponse); ok {
		txn.AddAttribute("search.ajax", res.AJAX)
		if res.Page.Results != nil {
			txn.AddAttribute("search.total_records", res.Page.Results.Pagination.TotalRecords)
		}
	}
}

// Search runs a search. A request without any query parameter is sent to
// the empty search form.
func (h *SearchHandler) Search(c echo.Context) error {
	if len(c.QueryParams()) == 0 {
		return c.Redirect(http.StatusFound, "/search_page")
	}
	return handleRequest(c, &SearchRequest{}, func(c echo.Context, req *SearchRequest) (interface{}, error) {
		return h.search(c, req)
	}, searchResponseHandler{})
}

func (h *SearchHandler) search(c echo.Context, req *SearchRequest) (*searchResponse, error) {
	ctx := c.Request().Context()

	page := newSearchForm(ctx, h.services.Plot, req.Tab())
	page.Condition = req.Condition
	page.CellType = req.CellType

	res := &searchResponse{
		AJAX:   c.Request().Header.Get(echo.HeaderXRequestedWith) == "XMLHttpRequest",
		Status: http.StatusOK,
		Page:   page,
	}

	criteria, err := req.Criteria()
	if err != nil {
		return res.fail(c, err), nil
	}
	middleware.TraceSearch(c, req.Tab(), criteria)

	cfg := h.server.Config.Search
	result, err := h.services.Search.Search(ctx, req.Tab(), criteria, query.NewPage(req.Page, req.PerPage, query.PageDefaults{
		PerPage:    cfg.DefaultPerPage,
		MaxPerPage: cfg.MaxPerPage,
	}))
	if err != nil {
		return res.fail(c, err), nil
	}

	if result.Rows.Len() == 0 {
		res.Message = noResultsMessage
		page.Error = noResultsMessage
		return res, nil
	}

	page.Results = &render.ResultsView{
		Title:      result.Title,
		Columns:    result.Rows.Columns,
		Rows:       result.Rows.StringRows(),
		Pagination: result.Pagination,
		Hidden:     req.HiddenFields(),
		ResultID:   result.ID,
		SearchType: req.Tab(),
		Condition:  criteria.Condition,
		CellType:   criteria.CellType,
	}
	return res, nil
}

// fail puts err on the form. Client errors keep their message; anything
// else is logged and replaced by a generic one.
func (res *searchResponse) fail(c echo.Context, err error) *searchResponse {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) && httpErr.Override {
		res.Status = httpErr.Status
		res.Message = httpErr.Message
	} else {
		middleware.GetLogger(c).Error().Err(err).Msg("search failed")
		res.Status = http.StatusInternalServerError
		res.Message = searchErrorMessage
	}
	res.Page.Error = res.Message
	return res
}
