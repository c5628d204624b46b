package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/deppfellow/genoportal/internal/database/databasetest"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbols(t *testing.T, set *ResultSet) []string {
	t.Helper()
	require.NotEmpty(t, set.Columns)
	out := make([]string, set.Len())
	for i := range set.Rows {
		out[i] = set.Cell(i, 0)
	}
	return out
}

func build(t *testing.T, c query.Criteria) query.Statement {
	t.Helper()
	c.Condition = "AD"
	c.CellType = "Microglia"
	stmt, err := query.Build(c, query.DialectSQLite)
	require.NoError(t, err)
	return stmt
}

func TestSearchRepository_Search(t *testing.T) {
	repo := NewSearchRepository(databasetest.New(t), 0)
	ctx := context.Background()

	stmt := build(t, query.Criteria{GeneFields: []string{query.GeneFieldHGNC, query.GeneFieldChr}})

	set, pagination, err := repo.Search(ctx, stmt, query.Page{Number: 1, PerPage: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"hgnc_symbol", "chromosome"}, set.Columns)
	assert.Equal(t, []string{"APOE", "APP", "CLU", "GFAP"}, symbols(t, set))
	assert.Equal(t, query.Pagination{TotalRecords: 6, Page: 1, PerPage: 4, TotalPages: 2}, pagination)

	set, _, err = repo.Search(ctx, stmt, query.Page{Number: 2, PerPage: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"MAPT", "TREM2"}, symbols(t, set))

	set, _, err = repo.Search(ctx, stmt, query.Page{Number: 9, PerPage: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, []string{"hgnc_symbol", "chromosome"}, set.Columns)
}

func TestSearchRepository_Filters(t *testing.T) {
	repo := NewSearchRepository(databasetest.New(t), 0)
	ctx := context.Background()
	page := query.Page{Number: 1, PerPage: 50}
	padj := 0.01

	tests := []struct {
		name     string
		criteria query.Criteria
		want     []string
	}{
		{
			name:     "transcription factor through CREs",
			criteria: query.Criteria{GeneFields: []string{query.GeneFieldHGNC}, TF: query.TFFilter{Name: "spi1"}},
			want:     []string{"APOE", "TREM2"},
		},
		{
			name:     "pathway substring",
			criteria: query.Criteria{GeneFields: []string{query.GeneFieldHGNC}, Gene: query.GeneFilter{Pathway: "LIPID"}},
			want:     []string{"APOE", "CLU", "TREM2"},
		},
		{
			name: "differential expression cutoff",
			criteria: query.Criteria{
				GeneFields: []string{query.GeneFieldHGNC},
				IncludeDE:  true,
				DE:         query.DEFilter{Fields: []string{query.DEFieldPadj}, PadjBelow: &padj},
			},
			want: []string{"APOE", "MAPT", "TREM2"},
		},
		{
			name:     "entrez identifier",
			criteria: query.Criteria{GeneFields: []string{query.GeneFieldHGNC}, Gene: query.GeneFilter{IDType: query.IDTypeEntrez, Identifier: "348"}},
			want:     []string{"APOE"},
		},
		{
			name:     "cre fields keep only genes with CREs in this context",
			criteria: query.Criteria{GeneFields: []string{query.GeneFieldHGNC}, CREFields: []string{query.CREFieldChr}},
			want:     []string{"APOE", "MAPT", "TREM2"},
		},
		{
			name:     "nothing matches",
			criteria: query.Criteria{GeneFields: []string{query.GeneFieldHGNC}, Gene: query.GeneFilter{Chromosome: "X"}},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, pagination, err := repo.Search(ctx, build(t, tt.criteria), page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, symbols(t, set))
			assert.Equal(t, int64(len(tt.want)), pagination.TotalRecords)
		})
	}
}

func TestSearchRepository_SkipsGenesWithoutPathway(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	_, err := db.DB.ExecContext(ctx, `INSERT INTO Genes (gid, gene_symbol, Entrez_ID, Ensembl_ID, chromosome, start_position, end_position, strand)
VALUES (7, 'NOPATH', 9999, 'ENSG99999999999', '1', 100, 200, '+')`)
	require.NoError(t, err)
	_, err = db.DB.ExecContext(ctx, `INSERT INTO Differential_Expression (deid, gid, cdid, cell_id, log2foldchange, p_value, padj)
VALUES (12, 7, 1, 1, 3.0, 0.00001, 0.0001)`)
	require.NoError(t, err)

	repo := NewSearchRepository(db, 0)
	set, pagination, err := repo.Search(ctx, build(t, query.Criteria{GeneFields: []string{query.GeneFieldHGNC}}), query.Page{Number: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, []string{"APOE", "APP", "CLU", "GFAP", "MAPT", "TREM2"}, symbols(t, set))
	assert.Equal(t, int64(6), pagination.TotalRecords)
}

func TestSearchRepository_Export(t *testing.T) {
	repo := NewSearchRepository(databasetest.New(t), 0)

	stmt := build(t, query.Criteria{GeneFields: []string{query.GeneFieldHGNC}})
	set, err := repo.Export(context.Background(), stmt, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"APOE", "APP"}, symbols(t, set))

	set, err = repo.Export(context.Background(), stmt, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, set.Len())
}

func TestPlotRepository_Volcano(t *testing.T) {
	repo := NewPlotRepository(databasetest.New(t))

	points, err := repo.Volcano(context.Background(), "AD", "Microglia")
	require.NoError(t, err)
	require.Len(t, points, 6)
	assert.Equal(t, "APOE", points[0].GeneSymbol)
	assert.Equal(t, "TREM2", points[5].GeneSymbol)
	require.NotNil(t, points[0].Padj)
	assert.InDelta(t, 0.001, *points[0].Padj, 1e-12)

	points, err = repo.Volcano(context.Background(), "AD", "Neurons")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestPlotRepository_PathwayEnrichment(t *testing.T) {
	repo := NewPlotRepository(databasetest.New(t))

	pathways, err := repo.PathwayEnrichment(context.Background(), "AD", "Microglia", 10)
	require.NoError(t, err)
	require.Len(t, pathways, 2)

	up := pathways[0]
	assert.Equal(t, "Lipid metabolism", up.PathwayName)
	assert.Equal(t, "up", up.RegulationDirection)
	assert.Equal(t, int64(3), up.GeneCount)
	assert.Equal(t, int64(3), up.UpRegulated)
	assert.InDelta(t, 1.76667, up.AvgFoldChange, 1e-4)
	assert.InDelta(t, 3.69897, up.NegLogPadj, 1e-4)

	down := pathways[1]
	assert.Equal(t, "Immune response", down.PathwayName)
	assert.Equal(t, "down", down.RegulationDirection)
	assert.Equal(t, int64(2), down.UpRegulated)
	assert.Equal(t, int64(2), down.DownRegulated)

	pathways, err = repo.PathwayEnrichment(context.Background(), "PD", "Microglia", 10)
	require.NoError(t, err)
	assert.Empty(t, pathways)
}

func TestNegLog10Padj(t *testing.T) {
	assert.InDelta(t, 2.0, NegLog10Padj(0.01), 1e-12)
	assert.InDelta(t, 6.0, NegLog10Padj(0), 1e-12)
	assert.InDelta(t, 0.0, NegLog10Padj(1), 1e-12)
}

func TestPlotRepository_CREGeneScatter(t *testing.T) {
	repo := NewPlotRepository(databasetest.New(t))

	points, err := repo.CREGeneScatter(context.Background(), "AD", "Microglia")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "APOE", points[0].GeneSymbol)
	assert.Equal(t, "MAPT", points[1].GeneSymbol)
	assert.Equal(t, "TREM2", points[2].GeneSymbol)
	require.NotNil(t, points[0].DistanceToTSS)
	assert.Equal(t, int64(-5754), *points[0].DistanceToTSS)
	require.NotNil(t, points[0].CREChr)
	assert.Equal(t, "19", *points[0].CREChr)
	require.NotNil(t, points[0].CREPadj)
	assert.InDelta(t, 0.001, *points[0].CREPadj, 1e-12)
	require.NotNil(t, points[2].CREPadj)
	assert.InDelta(t, 0.04, *points[2].CREPadj, 1e-12)
}

func TestPlotRepository_Lists(t *testing.T) {
	repo := NewPlotRepository(databasetest.New(t))
	ctx := context.Background()

	conditions, err := repo.Conditions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AD", "PD"}, conditions)

	cells, err := repo.CellTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Astrocytes", "Microglia"}, cells)

	one, err := repo.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, one)
}

func TestResultSet_MarshalJSONKeepsColumnOrder(t *testing.T) {
	set := &ResultSet{
		Columns: []string{"z", "a"},
		Rows:    [][]any{{"TREM2", nil}, {"APOE", 1.5}},
	}

	b, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Equal(t, `[{"z":"TREM2","a":null},{"z":"APOE","a":1.5}]`, string(b))

	assert.Equal(t, [][]string{{"TREM2", ""}, {"APOE", "1.5"}}, set.StringRows())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(348), normalize([]byte("348"), "INT"))
	assert.Equal(t, 0.25, normalize([]byte("0.25"), "DECIMAL"))
	assert.Equal(t, "APOE", normalize([]byte("APOE"), "VARCHAR"))
	assert.Equal(t, int64(7), normalize(int32(7), ""))
	assert.Nil(t, normalize(nil, "INT"))
}
