package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/genoportal/internal/config"
	"github.com/deppfellow/genoportal/internal/database/databasetest"
	"github.com/deppfellow/genoportal/internal/errs"
	"github.com/deppfellow/genoportal/internal/lib/job"
	"github.com/deppfellow/genoportal/internal/lib/session"
	"github.com/deppfellow/genoportal/internal/lib/storage"
	"github.com/deppfellow/genoportal/internal/logger"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T) (*Services, *server.Server) {
	t.Helper()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	nop := zerolog.Nop()
	s := &server.Server{
		Config:  cfg,
		Logger:  &nop,
		DB:      databasetest.New(t),
		Results: session.NewMemoryStore(),
		Storage: store,
	}

	services, err := NewService(s, repository.NewRepositories(s))
	require.NoError(t, err)
	return services, s
}

func geneCriteria() query.Criteria {
	return query.Criteria{
		Condition:  "AD",
		CellType:   "Microglia",
		GeneFields: []string{query.GeneFieldHGNC, query.GeneFieldChr},
	}
}

func requireHTTPError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "got %v", err)
	assert.Equal(t, status, httpErr.Status)
	assert.Equal(t, message, httpErr.Message)
}

func TestSearchService_Search(t *testing.T) {
	services, s := newTestServices(t)
	ctx := context.Background()

	result, err := services.Search.Search(ctx, "gene", geneCriteria(), query.Page{Number: 1, PerPage: 4})
	require.NoError(t, err)

	assert.Equal(t, "Search Results (AD, Microglia)", result.Title)
	assert.Equal(t, 4, result.Rows.Len())
	assert.Equal(t, int64(6), result.Pagination.TotalRecords)
	require.NotEmpty(t, result.ID)

	stash, err := s.Results.Load(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "gene", stash.SearchType)
	assert.Equal(t, geneCriteria(), stash.Criteria)
	assert.Equal(t, int64(6), stash.Total)
}

func TestSearchService_NoResults(t *testing.T) {
	services, _ := newTestServices(t)

	c := geneCriteria()
	c.Gene.Chromosome = "X"
	result, err := services.Search.Search(context.Background(), "gene", c, query.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows.Len())
	assert.Empty(t, result.ID, "empty results are not stashed")
}

func TestSearchService_InvalidCriteria(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()
	page := query.Page{Number: 1, PerPage: 10}

	_, err := services.Search.Search(ctx, "gene", query.Criteria{Condition: "AD"}, page)
	requireHTTPError(t, err, http.StatusBadRequest, MissingContextMessage)

	c := geneCriteria()
	c.IncludeDE = true
	c.DE.Fields = []string{"padj; DROP TABLE Genes"}
	_, err = services.Search.Search(ctx, "gene", c, page)
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.Message, "unknown")
}

func TestTitle(t *testing.T) {
	c := geneCriteria()
	assert.Equal(t, "Search Results (AD, Microglia)", Title(c))

	c.Gene.IDType = "hgnc"
	c.Gene.Identifier = "APOE"
	assert.Equal(t, "Search Results (AD, Microglia) - HGNC: APOE", Title(c))

	c.Gene.IDType = ""
	assert.Equal(t, "Search Results (AD, Microglia)", Title(c))
}

func TestExportService_SaveListOpenDelete(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()
	services.Export.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	result, err := services.Search.Search(ctx, "gene", geneCriteria(), query.Page{Number: 1, PerPage: 2})
	require.NoError(t, err)

	id, err := services.Export.Save(ctx, result.ID, SaveOptions{SearchType: "gene", Condition: "AD", CellType: "Microglia"})
	require.NoError(t, err)

	files, err := services.Export.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	file := files[0]
	assert.Equal(t, id, file.ID)
	assert.Equal(t, "Gene Results (AD, Microglia)", file.Title)
	assert.Equal(t, "Search for AD in Microglia cells", file.Description)
	assert.Equal(t, "gene_AD_Microglia_20240301_093000_"+id+".csv", file.Filename)
	assert.Equal(t, 6, file.Rows, "the export covers every page")
	assert.Equal(t, "2024-03-01 09:30:00", file.Date)
	assert.True(t, strings.HasPrefix(file.Preview, "hgnc_symbol: APOE, hgnc_symbol: APP"))
	assert.True(t, strings.HasSuffix(file.Size, " B"))

	saved, err := services.Export.Open(ctx, id)
	require.NoError(t, err)
	defer saved.Body.Close()
	data, err := io.ReadAll(saved.Body)
	require.NoError(t, err)
	assert.Equal(t, file.Filename, saved.Record.Filename)
	assert.Equal(t, int64(len(data)), saved.Size)
	assert.True(t, strings.HasPrefix(string(data), "hgnc_symbol,chromosome\nAPOE,19\n"), string(data))

	require.NoError(t, services.Export.Delete(ctx, id))
	requireHTTPError(t, services.Export.Delete(ctx, id), http.StatusNotFound, "File not found")

	_, err = services.Export.Open(ctx, id)
	requireHTTPError(t, err, http.StatusNotFound, "File not found")

	files, err = services.Export.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExportService_SaveDefaultsFromStash(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	result, err := services.Search.Search(ctx, "cre", geneCriteria(), query.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)

	_, err = services.Export.Save(ctx, result.ID, SaveOptions{})
	require.NoError(t, err)

	files, err := services.Export.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Cre Results (AD, Microglia)", files[0].Title)
	assert.Equal(t, "Cre", files[0].Type)
}

func TestExportService_SaveUnknownResult(t *testing.T) {
	services, _ := newTestServices(t)

	_, err := services.Export.Save(context.Background(), "missing", SaveOptions{})
	requireHTTPError(t, err, http.StatusBadRequest, "No results to save")
}

func TestExportService_RejectsUnsafeIDs(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	for _, id := range []string{"", "../../etc/passwd", "abc", "a.meta"} {
		_, err := services.Export.Open(ctx, id)
		requireHTTPError(t, err, http.StatusNotFound, "File not found")
		requireHTTPError(t, services.Export.Delete(ctx, id), http.StatusNotFound, "File not found")
	}
}

func TestExportService_HandleExportTask(t *testing.T) {
	services, s := newTestServices(t)
	ctx := context.Background()

	result, err := services.Search.Search(ctx, "gene", geneCriteria(), query.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)

	payload := job.ExportPayload{
		ExportID:   "0f8fad5b-d9cb-469f-a165-70867728950e",
		ResultID:   result.ID,
		SearchType: "gene",
		Condition:  "AD",
		CellType:   "Microglia",
	}
	payload.RequestID = "req-7"

	var logs bytes.Buffer
	taskLogger := zerolog.New(&logs)
	s.Logger = &taskLogger

	task, err := job.NewExportTask(payload)
	require.NoError(t, err)
	require.NoError(t, services.Export.handleExportTask(ctx, task))

	_, err = s.Storage.Head(ctx, payload.ExportID+".csv")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"request_id":"req-7"`)
	assert.Contains(t, logs.String(), `"message":"export saved"`)

	payload.ResultID = "expired"
	task, err = job.NewExportTask(payload)
	require.NoError(t, err)
	err = services.Export.handleExportTask(ctx, task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewExportPayload(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-42")
	stash := session.Result{SearchType: "gene", Criteria: geneCriteria()}

	p := newExportPayload(ctx, "r1", SaveOptions{CellType: "Astrocytes"}, stash)
	assert.Equal(t, "req-42", p.RequestID)
	assert.Equal(t, "r1", p.ResultID)
	assert.Equal(t, "gene", p.SearchType)
	assert.Equal(t, "AD", p.Condition)
	assert.Equal(t, "Astrocytes", p.CellType)
	assert.NotEmpty(t, p.ExportID)

	p = newExportPayload(context.Background(), "r1", SaveOptions{}, session.Result{})
	assert.Empty(t, p.RequestID)
	assert.Equal(t, "query", p.SearchType)
	assert.Equal(t, "unknown", p.Condition)
}

func TestPathwayCount(t *testing.T) {
	tests := map[string]int{
		"":    DefaultPathwayCount,
		"abc": DefaultPathwayCount,
		"0":   DefaultPathwayCount,
		"-4":  DefaultPathwayCount,
		"1":   1,
		"25":  25,
		"50":  50,
		"51":  MaxPathwayCount,
		"999": MaxPathwayCount,
	}
	for raw, want := range tests {
		assert.Equal(t, want, PathwayCount(raw), raw)
	}
}

func TestPlotService(t *testing.T) {
	services, _ := newTestServices(t)
	ctx := context.Background()

	points, err := services.Plot.Volcano(ctx, "", "Microglia")
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)

	points, err = services.Plot.Volcano(ctx, "AD", "Microglia")
	require.NoError(t, err)
	assert.Len(t, points, 6)

	pathways, err := services.Plot.Enrichment(ctx, "AD", "Microglia", "nope")
	require.NoError(t, err)
	assert.NotEmpty(t, pathways)

	pathways, err = services.Plot.Enrichment(ctx, "AD", " ", "5")
	require.NoError(t, err)
	assert.Empty(t, pathways)

	scatter, err := services.Plot.Scatter(ctx, "AD", "Microglia")
	require.NoError(t, err)
	assert.Len(t, scatter, 3)

	conditions, err := services.Plot.Conditions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AD", "PD"}, conditions)

	one, err := services.Plot.TestConnection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, one)
}
