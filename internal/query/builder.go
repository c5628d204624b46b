package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingContext is returned when the condition or the cell type is empty.
// Every search is scoped to exactly one of each.
var ErrMissingContext = errors.New("both condition and cell type are required")

// UnknownFieldError reports a differential-expression field key that is not in
// the catalog. Unknown DE keys are rejected rather than skipped.
type UnknownFieldError struct {
	Family string
	Field  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown %s field %q", e.Family, e.Field)
}

// likeEscape is the escape character used for LIKE patterns. '!' behaves the
// same on MySQL, PostgreSQL and SQLite, unlike the backslash.
const likeEscape = "!"

// Statement is a built search query.
//
// The SQL text is kept with '?' placeholders and rebound for the dialect on
// the way out, so Args stay in the order they were appended.
type Statement struct {
	dialect Dialect
	base    string

	// Columns are the result column names in select order.
	Columns []string
	// Args are the bound values, positionally matching the placeholders.
	Args []any
}

// SQL returns the full (unpaginated) statement with a deterministic ordering.
func (s Statement) SQL() string {
	return s.dialect.Rebind(s.base + s.orderBy())
}

// CountSQL returns a statement counting the rows SQL would produce.
func (s Statement) CountSQL() string {
	return s.dialect.Rebind("SELECT COUNT(*) FROM (" + s.base + ") AS count_query")
}

// Paged returns SQL restricted to one page. Page values are integers that
// were normalized by NewPage, so they are inlined rather than bound.
func (s Statement) Paged(p Page) string {
	return s.dialect.Rebind(fmt.Sprintf("%s%s LIMIT %d OFFSET %d", s.base, s.orderBy(), p.PerPage, p.Offset()))
}

// Limited returns SQL capped at n rows. n <= 0 means no cap.
func (s Statement) Limited(n int) string {
	if n <= 0 {
		return s.SQL()
	}
	return s.dialect.Rebind(fmt.Sprintf("%s%s LIMIT %d", s.base, s.orderBy(), n))
}

// Dialect returns the dialect the statement was built for.
func (s Statement) Dialect() Dialect {
	return s.dialect
}

// orderBy sorts on every output column by ordinal so pagination is stable.
// Ordinals are valid with SELECT DISTINCT on all supported dialects.
func (s Statement) orderBy() string {
	if len(s.Columns) == 0 {
		return ""
	}
	ordinals := make([]string, len(s.Columns))
	for i := range s.Columns {
		ordinals[i] = strconv.Itoa(i + 1)
	}
	return " ORDER BY " + strings.Join(ordinals, ", ")
}

// sqlBuilder accumulates SQL fragments and their arguments side by side.
type sqlBuilder struct {
	parts []string
	args  []any
}

func (b *sqlBuilder) add(fragment string, args ...any) {
	b.parts = append(b.parts, fragment)
	b.args = append(b.args, args...)
}

func (b *sqlBuilder) String() string {
	return strings.Join(b.parts, " ")
}

// Build assembles the search statement for c.
//
// Selection order is gene fields, DE fields (only with IncludeDE), CRE fields
// and TF fields. When none of the requested keys is recognized the selection
// falls back, in order, to the gene defaults (gene fields requested), the CRE
// defaults (CRE fields requested), the TF name (TF fields requested) and
// finally the condition and cell type themselves.
func Build(c Criteria, d Dialect) (Statement, error) {
	condition := strings.TrimSpace(c.Condition)
	cellType := strings.TrimSpace(c.CellType)
	if condition == "" || cellType == "" {
		return Statement{}, ErrMissingContext
	}

	cols, err := selectColumns(c)
	if err != nil {
		return Statement{}, err
	}

	selects := make([]string, len(cols))
	names := make([]string, len(cols))
	for i, col := range cols {
		selects[i] = col.sql()
		names[i] = col.name()
	}

	b := &sqlBuilder{}
	b.add("SELECT DISTINCT " + strings.Join(selects, ", "))
	b.add("FROM Genes g")
	b.add("JOIN Differential_Expression de ON g.gid = de.gid")
	b.add("JOIN Conditions c ON de.cdid = c.cdid AND c.name = ?", condition)
	b.add("JOIN Cell_Type ct ON de.cell_id = ct.cell_id AND ct.cell = ?", cellType)
	// Genes without an annotated pathway are never part of a result.
	b.add("JOIN Gene_Pathway_Associations gpa ON g.gid = gpa.gid")
	b.add("JOIN Biological_Pathways bp ON gpa.pid = bp.pid")

	if c.wantsCRE() {
		b.add("JOIN CRE_Gene_Interactions cgi ON g.gid = cgi.gid")
		b.add("JOIN Cis_Regulatory_Elements cre ON cgi.cid = cre.cid AND cre.cdid = c.cdid AND cre.cell_id = ct.cell_id")
	}
	if c.wantsTF() {
		b.add("JOIN Merged_CRES mc ON cre.mcid = mc.mcid")
		b.add("JOIN TF_CRE_Interactions tci ON mc.mcid = tci.mcid AND tci.cdid = c.cdid AND tci.cell_id = ct.cell_id")
		b.add("JOIN Transcription_Factors tf ON tci.tfid = tf.tfid")
	}

	b.add("WHERE 1=1")
	addGeneFilters(b, c.Gene)
	if c.IncludeDE {
		addDEFilters(b, c.DE)
	}
	addCREFilters(b, c.CRE)
	if name := strings.TrimSpace(c.TF.Name); name != "" {
		b.add("AND LOWER(tf.name) = LOWER(?)", name)
	}

	return Statement{
		dialect: d,
		base:    b.String(),
		Columns: names,
		Args:    b.args,
	}, nil
}

func selectColumns(c Criteria) ([]column, error) {
	var cols []column

	for _, f := range c.GeneFields {
		if col, ok := geneColumns[f]; ok {
			cols = append(cols, col)
		}
	}

	if c.IncludeDE {
		for _, f := range c.DE.Fields {
			col, ok := deColumns[f]
			if !ok {
				return nil, &UnknownFieldError{Family: "differential expression", Field: f}
			}
			cols = append(cols, col)
		}
	}

	for _, f := range c.CREFields {
		if col, ok := creColumns[f]; ok {
			cols = append(cols, col)
		}
	}

	for _, f := range c.TFFields {
		if col, ok := tfColumns[f]; ok {
			cols = append(cols, col)
		}
	}

	if len(cols) > 0 {
		return dedupe(cols), nil
	}

	switch {
	case len(c.GeneFields) > 0:
		return defaultGeneColumns, nil
	case len(c.CREFields) > 0:
		return defaultCREColumns, nil
	case len(c.TFFields) > 0:
		return defaultTFColumns, nil
	default:
		return defaultContextColumns, nil
	}
}

// dedupe drops repeated selections so a field submitted twice does not
// produce two identically named result columns.
func dedupe(cols []column) []column {
	seen := make(map[string]struct{}, len(cols))
	out := cols[:0:0]
	for _, col := range cols {
		if _, ok := seen[col.expr]; ok {
			continue
		}
		seen[col.expr] = struct{}{}
		out = append(out, col)
	}
	return out
}

func addGeneFilters(b *sqlBuilder, f GeneFilter) {
	if f.hasIdentifier() {
		identifier := strings.TrimSpace(f.Identifier)
		switch strings.ToLower(strings.TrimSpace(f.IDType)) {
		case IDTypeHGNC:
			b.add("AND LOWER(g.gene_symbol) = LOWER(?)", identifier)
		case IDTypeEntrez:
			// Entrez IDs are integers; bind them as such so strictly typed
			// drivers do not have to coerce text.
			if n, err := strconv.ParseInt(identifier, 10, 64); err == nil {
				b.add("AND g.Entrez_ID = ?", n)
			} else {
				b.add("AND g.Entrez_ID = ?", identifier)
			}
		case IDTypeEnsembl:
			b.add("AND g.Ensembl_ID = ?", identifier)
		}
	}

	if chr := strings.TrimSpace(f.Chromosome); chr != "" {
		b.add("AND g.chromosome = ?", chr)
	}
	if f.Start != nil {
		b.add("AND g.start_position >= ?", *f.Start)
	}
	if f.End != nil {
		b.add("AND g.end_position <= ?", *f.End)
	}
	if pathway := strings.TrimSpace(f.Pathway); pathway != "" {
		b.add("AND LOWER(bp.name) LIKE ? ESCAPE '"+likeEscape+"'", "%"+escapeLike(strings.ToLower(pathway))+"%")
	}
}

func addDEFilters(b *sqlBuilder, f DEFilter) {
	if f.PadjBelow != nil {
		b.add("AND de.padj < ?", *f.PadjBelow)
	}
	if f.AbsLog2FCAbove != nil {
		b.add("AND ABS(de.log2foldchange) > ?", *f.AbsLog2FCAbove)
	}
}

func addCREFilters(b *sqlBuilder, f CREFilter) {
	if chr := strings.TrimSpace(f.Chromosome); chr != "" {
		b.add("AND cre.chromosome = ?", chr)
	}
	if f.Start != nil {
		b.add("AND cre.start_position >= ?", *f.Start)
	}
	if f.End != nil {
		b.add("AND cre.end_position <= ?", *f.End)
	}
	if f.AbsLog2FCAbove != nil {
		b.add("AND ABS(cre.cre_log2foldchange) > ?", *f.AbsLog2FCAbove)
	}
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
