package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/deppfellow/genoportal/internal/database"
	"github.com/deppfellow/genoportal/internal/logger"
)

// Pathway enrichment cut-offs.
const (
	enrichmentPadjCutoff = 0.05
	enrichmentMinGenes   = 3
	enrichmentPadjFloor  = 1e-6

	// scatterFallbackLimit caps the unconstrained scatter query.
	scatterFallbackLimit = 100
)

// VolcanoPoint is one gene of a volcano plot.
type VolcanoPoint struct {
	GeneSymbol     string   `json:"gene_symbol"`
	Log2FoldChange *float64 `json:"log2foldchange"`
	PValue         *float64 `json:"p_value"`
	Padj           *float64 `json:"padj"`
}

// PathwayEnrichment is one enriched pathway.
type PathwayEnrichment struct {
	PathwayName         string  `json:"pathway_name"`
	GeneCount           int64   `json:"gene_count"`
	UpRegulated         int64   `json:"up_regulated"`
	DownRegulated       int64   `json:"down_regulated"`
	AvgFoldChange       float64 `json:"avg_fold_change"`
	NegLogPadj          float64 `json:"neg_log_padj"`
	RegulationDirection string  `json:"regulation_direction"`
}

// ScatterPoint pairs a gene's expression change with a linked CRE's.
type ScatterPoint struct {
	GeneSymbol    string   `json:"gene_symbol"`
	GeneLog2FC    *float64 `json:"gene_log2fc"`
	CRELog2FC     *float64 `json:"cre_log2fc"`
	GenePadj      *float64 `json:"gene_padj"`
	CREPadj       *float64 `json:"cre_padj"`
	DistanceToTSS *int64   `json:"distance_to_TSS"`
	CREChr        *string  `json:"cre_chr"`
	CREStart      *int64   `json:"cre_start"`
	CREEnd        *int64   `json:"cre_end"`
}

// PlotRepository serves the pre-aggregated plot data.
type PlotRepository struct {
	db *database.Database
}

func NewPlotRepository(db *database.Database) *PlotRepository {
	return &PlotRepository{db: db}
}

const volcanoQuery = `
SELECT g.gene_symbol, de.log2foldchange, de.p_value, de.padj
FROM Differential_Expression de
JOIN Genes g ON de.gid = g.gid
JOIN Conditions c ON de.cdid = c.cdid
JOIN Cell_Type ct ON de.cell_id = ct.cell_id
WHERE c.name = ? AND ct.cell = ?
ORDER BY g.gene_symbol`

// Volcano returns every differential expression row of a condition and cell type.
func (r *PlotRepository) Volcano(ctx context.Context, condition, cellType string) ([]VolcanoPoint, error) {
	rows, err := r.db.DB.QueryContext(ctx, r.db.Dialect.Rebind(volcanoQuery), condition, cellType)
	if err != nil {
		return nil, fmt.Errorf("volcano query: %w", err)
	}
	defer rows.Close()

	points := []VolcanoPoint{}
	for rows.Next() {
		var (
			p                  VolcanoPoint
			log2fc, pval, padj sql.NullFloat64
		)
		if err := rows.Scan(&p.GeneSymbol, &log2fc, &pval, &padj); err != nil {
			return nil, fmt.Errorf("scan volcano row: %w", err)
		}
		p.Log2FoldChange = nullFloat(log2fc)
		p.PValue = nullFloat(pval)
		p.Padj = nullFloat(padj)
		points = append(points, p)
	}

	return points, rows.Err()
}

// enrichmentQuery ranks pathways by their smallest adjusted p-value, which
// orders them the same as -log10(padj) descending. The logarithm itself is
// taken in Go since sqlite has no portable LOG10.
const enrichmentQuery = `
SELECT
    bp.name AS pathway_name,
    COUNT(DISTINCT g.gid) AS gene_count,
    SUM(CASE WHEN de.log2foldchange > 0 THEN 1 ELSE 0 END) AS up_regulated,
    SUM(CASE WHEN de.log2foldchange < 0 THEN 1 ELSE 0 END) AS down_regulated,
    AVG(de.log2foldchange) AS avg_fold_change,
    MIN(COALESCE(de.padj, 1)) AS min_padj
FROM Biological_Pathways bp
JOIN Gene_Pathway_Associations gpa ON bp.pid = gpa.pid
JOIN Genes g ON gpa.gid = g.gid
JOIN Differential_Expression de ON g.gid = de.gid
JOIN Conditions c ON de.cdid = c.cdid
JOIN Cell_Type ct ON de.cell_id = ct.cell_id
WHERE c.name = ? AND ct.cell = ? AND de.padj < ?
GROUP BY bp.name
HAVING COUNT(DISTINCT g.gid) >= ?
    AND SUM(CASE WHEN de.log2foldchange > 0 THEN 1 ELSE 0 END) %s SUM(CASE WHEN de.log2foldchange < 0 THEN 1 ELSE 0 END)
ORDER BY min_padj ASC, pathway_name ASC
LIMIT ?`

// PathwayEnrichment returns up to count up-regulated pathways followed by
// up to count down-regulated ones. A pathway counts as up-regulated when
// strictly more of its significant genes go up than down.
func (r *PlotRepository) PathwayEnrichment(ctx context.Context, condition, cellType string, count int) ([]PathwayEnrichment, error) {
	up, err := r.enrichment(ctx, condition, cellType, count, ">", "up")
	if err != nil {
		return nil, err
	}
	down, err := r.enrichment(ctx, condition, cellType, count, "<=", "down")
	if err != nil {
		return nil, err
	}
	return append(up, down...), nil
}

func (r *PlotRepository) enrichment(ctx context.Context, condition, cellType string, count int, cmp, direction string) ([]PathwayEnrichment, error) {
	stmt := r.db.Dialect.Rebind(fmt.Sprintf(enrichmentQuery, cmp))

	rows, err := r.db.DB.QueryContext(ctx, stmt, condition, cellType, enrichmentPadjCutoff, enrichmentMinGenes, count)
	if err != nil {
		return nil, fmt.Errorf("%s pathway enrichment query: %w", direction, err)
	}
	defer rows.Close()

	out := []PathwayEnrichment{}
	for rows.Next() {
		var (
			p       PathwayEnrichment
			avg     sql.NullFloat64
			minPadj float64
		)
		if err := rows.Scan(&p.PathwayName, &p.GeneCount, &p.UpRegulated, &p.DownRegulated, &avg, &minPadj); err != nil {
			return nil, fmt.Errorf("scan pathway enrichment row: %w", err)
		}
		p.AvgFoldChange = avg.Float64
		p.NegLogPadj = NegLog10Padj(minPadj)
		p.RegulationDirection = direction
		out = append(out, p)
	}

	return out, rows.Err()
}

// NegLog10Padj is -log10(padj) with padj floored at 1e-6.
func NegLog10Padj(padj float64) float64 {
	return -math.Log10(math.Max(padj, enrichmentPadjFloor))
}

const scatterColumns = `
SELECT
    g.gene_symbol,
    de.log2foldchange AS gene_log2fc,
    cre.cre_log2foldchange AS cre_log2fc,
    de.padj AS gene_padj,
    cre.padj AS cre_padj,
    cgi.distance_to_TSS,
    cre.chromosome AS cre_chr,
    cre.start_position AS cre_start,
    cre.end_position AS cre_end
FROM Genes g
JOIN Differential_Expression de ON g.gid = de.gid`

const scatterQuery = scatterColumns + `
JOIN Conditions c ON de.cdid = c.cdid AND c.name = ?
JOIN Cell_Type ct ON de.cell_id = ct.cell_id AND ct.cell = ?
JOIN CRE_Gene_Interactions cgi ON g.gid = cgi.gid
JOIN Cis_Regulatory_Elements cre ON cgi.cid = cre.cid
    AND cre.cdid = c.cdid
    AND cre.cell_id = ct.cell_id
ORDER BY g.gene_symbol, cre.chromosome, cre.start_position`

// scatterFallbackQuery drops the CRE condition and cell type constraint,
// for schemas where CREs are not keyed by them.
const scatterFallbackQuery = scatterColumns + `
JOIN Conditions c ON de.cdid = c.cdid
JOIN Cell_Type ct ON de.cell_id = ct.cell_id
JOIN CRE_Gene_Interactions cgi ON g.gid = cgi.gid
JOIN Cis_Regulatory_Elements cre ON cgi.cid = cre.cid
WHERE c.name = ? AND ct.cell = ?
ORDER BY g.gene_symbol, cre.chromosome, cre.start_position
LIMIT %d`

// CREGeneScatter returns gene/CRE pairs for a condition and cell type. When
// the constrained query fails it retries once without the CRE constraint,
// capped at 100 rows.
func (r *PlotRepository) CREGeneScatter(ctx context.Context, condition, cellType string) ([]ScatterPoint, error) {
	points, err := r.scatter(ctx, scatterQuery, condition, cellType)
	if err == nil {
		return points, nil
	}

	logger.FromContext(ctx).Warn().Err(err).Msg("scatter query failed, retrying without CRE constraints")

	points, fallbackErr := r.scatter(ctx, fmt.Sprintf(scatterFallbackQuery, scatterFallbackLimit), condition, cellType)
	if fallbackErr != nil {
		// The first failure is the interesting one.
		return nil, err
	}
	return points, nil
}

func (r *PlotRepository) scatter(ctx context.Context, stmt, condition, cellType string) ([]ScatterPoint, error) {
	rows, err := r.db.DB.QueryContext(ctx, r.db.Dialect.Rebind(stmt), condition, cellType)
	if err != nil {
		return nil, fmt.Errorf("scatter query: %w", err)
	}
	defer rows.Close()

	points := []ScatterPoint{}
	for rows.Next() {
		var (
			p                                ScatterPoint
			geneFC, creFC, genePadj, crePadj sql.NullFloat64
			distance, creStart, creEnd       sql.NullInt64
			creChr                           sql.NullString
		)
		if err := rows.Scan(&p.GeneSymbol, &geneFC, &creFC, &genePadj, &crePadj, &distance, &creChr, &creStart, &creEnd); err != nil {
			return nil, fmt.Errorf("scan scatter row: %w", err)
		}
		p.GeneLog2FC = nullFloat(geneFC)
		p.CRELog2FC = nullFloat(creFC)
		p.GenePadj = nullFloat(genePadj)
		p.CREPadj = nullFloat(crePadj)
		p.DistanceToTSS = nullInt(distance)
		p.CREChr = nullString(creChr)
		p.CREStart = nullInt(creStart)
		p.CREEnd = nullInt(creEnd)
		points = append(points, p)
	}

	return points, rows.Err()
}

// Conditions lists every condition name, sorted.
func (r *PlotRepository) Conditions(ctx context.Context) ([]string, error) {
	return r.names(ctx, "SELECT name FROM Conditions ORDER BY name")
}

// CellTypes lists every cell type name, sorted.
func (r *PlotRepository) CellTypes(ctx context.Context) ([]string, error) {
	return r.names(ctx, "SELECT cell FROM Cell_Type ORDER BY cell")
}

func (r *PlotRepository) names(ctx context.Context, stmt string) ([]string, error) {
	rows, err := r.db.DB.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Ping runs SELECT 1 and returns its result.
func (r *PlotRepository) Ping(ctx context.Context) (int, error) {
	var one int
	if err := r.db.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return 0, err
	}
	return one, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
