package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/deppfellow/genoportal/internal/config"
	"github.com/deppfellow/genoportal/internal/database/databasetest"
	"github.com/deppfellow/genoportal/internal/handler"
	"github.com/deppfellow/genoportal/internal/lib/render"
	"github.com/deppfellow/genoportal/internal/lib/session"
	"github.com/deppfellow/genoportal/internal/lib/storage"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geneSearch = "/search?condition=AD&cell_type=Microglia&output-fields=hgnc&output-fields=chr"

var (
	resultIDPattern = regexp.MustCompile(`action="/save_current_result/([^"]+)"`)
	fileIDPattern   = regexp.MustCompile(`data-file-id="([^"]+)"`)
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Server.RateLimit.Enabled = false

	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	renderer, err := render.New()
	require.NoError(t, err)

	logger := zerolog.Nop()
	s := &server.Server{
		Config:   cfg,
		Logger:   &logger,
		DB:       databasetest.New(t),
		Results:  session.NewMemoryStore(),
		Storage:  store,
		Renderer: renderer,
	}

	services, err := service.NewService(s, repository.NewRepositories(s))
	require.NoError(t, err)

	return NewRouter(s, handler.NewHandlers(s, services))
}

type requestOption func(*http.Request)

func ajax(r *http.Request) { r.Header.Set(echo.HeaderXRequestedWith, "XMLHttpRequest") }

func browser(r *http.Request) { r.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml") }

func do(t *testing.T, e *echo.Echo, method, target string, form url.Values, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestPages(t *testing.T) {
	e := newTestRouter(t)

	paths := []string{"/", "/search_page"}
	for path := range render.InfoPages {
		paths = append(paths, path)
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := do(t, e, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
		})
	}

	rec := do(t, e, http.MethodGet, "/search_page", nil)
	assert.Contains(t, rec.Body.String(), `<option value="PD"`)
}

func TestSearch_RedirectsWithoutParameters(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/search_page", rec.Header().Get(echo.HeaderLocation))
}

func TestSearch_FullPage(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, geneSearch, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "results-table")
	assert.Contains(t, body, "<td>APOE</td><td>19</td>")
	assert.Contains(t, body, "Search Results (AD, Microglia)")
}

func TestSearch_UnknownGeneFieldIgnored(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, geneSearch+"&output-fields=chromosome", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<td>APOE</td><td>19</td></tr>")
	assert.Equal(t, 1, strings.Count(body, "<th>Chromosome</th>"))
}

func TestSearch_AJAXFragment(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, geneSearch+"&per_page=4&page=2", nil, ajax)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Page 2 of 2")
	assert.Contains(t, body, `name="output-fields" value="chr"`)
	assert.Regexp(t, resultIDPattern, body)
}

func TestSearch_Errors(t *testing.T) {
	e := newTestRouter(t)

	tests := []struct {
		name    string
		target  string
		status  int
		message string
	}{
		{
			name:    "missing cell type",
			target:  "/search?condition=AD",
			status:  http.StatusBadRequest,
			message: service.MissingContextMessage,
		},
		{
			name:    "malformed number",
			target:  geneSearch + "&gene-start=abc",
			status:  http.StatusBadRequest,
			message: "Error: gene-start must be a whole number.",
		},
		{
			name:    "no rows",
			target:  geneSearch + "&gene-chr=X",
			status:  http.StatusOK,
			message: "No results found matching your criteria.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, http.MethodGet, tt.target, nil, ajax)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			decodeJSON(t, rec, &body)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.message, body["message"])

			rec = do(t, e, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
			assert.NotContains(t, rec.Body.String(), "results-table")
		})
	}
}

func TestSearch_InvalidTab(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, geneSearch+"&active_tab=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportLifecycle(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, geneSearch, nil, ajax)
	require.Equal(t, http.StatusOK, rec.Code)
	match := resultIDPattern.FindStringSubmatch(rec.Body.String())
	require.Len(t, match, 2)

	rec = do(t, e, http.MethodPost, "/save_current_result/"+match[1], url.Values{
		"search_type": {"gene"},
		"condition":   {"AD"},
		"cell_type":   {"Microglia"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/downloads", rec.Header().Get(echo.HeaderLocation))

	rec = do(t, e, http.MethodGet, "/downloads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Gene Results (AD, Microglia)")
	fileMatch := fileIDPattern.FindStringSubmatch(rec.Body.String())
	require.Len(t, fileMatch, 2)
	fileID := fileMatch[1]

	rec = do(t, e, http.MethodGet, "/download/"+fileID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=\"gene_AD_Microglia_")
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "hgnc_symbol,chromosome\n"), rec.Body.String())

	rec = do(t, e, http.MethodDelete, "/delete-file/"+fileID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted map[string]string
	decodeJSON(t, rec, &deleted)
	assert.Equal(t, "success", deleted["status"])

	rec = do(t, e, http.MethodDelete, "/delete-file/"+fileID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var missing map[string]any
	decodeJSON(t, rec, &missing)
	assert.Equal(t, "File not found", missing["message"])

	rec = do(t, e, http.MethodGet, "/download/"+fileID, nil, browser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "File not found")
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
}

func TestSave_UnknownResult(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodPost, "/save_current_result/expired", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	decodeJSON(t, rec, &body)
	assert.Equal(t, "No results to save", body["message"])
}

func TestPlots(t *testing.T) {
	e := newTestRouter(t)
	form := url.Values{"condition_name": {"AD"}, "cell_type": {"Microglia"}}

	rec := do(t, e, http.MethodPost, "/volcano_plot", form)
	require.Equal(t, http.StatusOK, rec.Code)
	var volcano []map[string]any
	decodeJSON(t, rec, &volcano)
	assert.Len(t, volcano, 6)
	assert.Contains(t, volcano[0], "gene_symbol")

	rec = do(t, e, http.MethodPost, "/volcano_plot", url.Values{"condition_name": {"AD"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	fgsea := url.Values{"condition_name": {"AD"}, "cell_type": {"Microglia"}, "pathway_count": {"abc"}}
	rec = do(t, e, http.MethodPost, "/fgsea_plot", fgsea)
	require.Equal(t, http.StatusOK, rec.Code)
	var pathways []map[string]any
	decodeJSON(t, rec, &pathways)
	assert.NotEmpty(t, pathways)

	rec = do(t, e, http.MethodPost, "/cre_gene_scatter", form)
	require.Equal(t, http.StatusOK, rec.Code)
	var scatter []map[string]any
	decodeJSON(t, rec, &scatter)
	assert.Len(t, scatter, 3)

	rec = do(t, e, http.MethodGet, "/get_conditions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["AD","PD"]`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/get_cell_types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cellTypes []string
	decodeJSON(t, rec, &cellTypes)
	assert.Contains(t, cellTypes, "Microglia")
}

func TestTestConnection(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/test_db_connection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Database connection successful","result":[1]}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string                       `json:"status"`
		Checks map[string]map[string]string `json:"checks"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"]["status"])
	assert.Equal(t, "sqlite", body.Checks["database"]["driver"])
	assert.Equal(t, "healthy", body.Checks["memory"]["status"])
}

func TestNotFound(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	decodeJSON(t, rec, &body)
	assert.Equal(t, "NOT_FOUND", body["code"])

	rec = do(t, e, http.MethodGet, "/nope", nil, browser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route not found")
}

func TestRequestID(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, e, http.MethodGet, "/", nil, func(r *http.Request) { r.Header.Set("X-Request-ID", "abc") })
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = do(t, e, http.MethodGet, "/", nil, func(r *http.Request) { r.Header.Set("X-Request-ID", "a{b}") })
	assert.NotEqual(t, "a{b}", rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
