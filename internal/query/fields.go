package query

// Output field keys as submitted by the search form.
const (
	GeneFieldHGNC    = "hgnc"
	GeneFieldEntrez  = "entrez"
	GeneFieldEnsembl = "ensembl"
	GeneFieldChr     = "chr"
	GeneFieldStart   = "start"
	GeneFieldEnd     = "end"
	GeneFieldStrand  = "strand"
	GeneFieldPathway = "pathway"

	DEFieldLog2FC = "log2foldchange"
	DEFieldPValue = "p_value"
	DEFieldPadj   = "padj"

	CREFieldChr      = "cre_chr"
	CREFieldStart    = "cre_start"
	CREFieldEnd      = "cre_end"
	CREFieldLog2FC   = "cre_log2fc"
	CREFieldPadj     = "cre_padj"
	CREFieldDistance = "cre_distance"

	TFFieldName = "tf_checkbox"
)

// column is one selectable SQL expression and the name it comes back under.
type column struct {
	expr  string
	alias string
}

func (c column) sql() string {
	if c.alias == "" {
		return c.expr
	}
	return c.expr + " AS " + c.alias
}

// name is the result-set column name the database reports for this column.
func (c column) name() string {
	if c.alias != "" {
		return c.alias
	}
	for i := len(c.expr) - 1; i >= 0; i-- {
		if c.expr[i] == '.' {
			return c.expr[i+1:]
		}
	}
	return c.expr
}

var geneColumns = map[string]column{
	GeneFieldHGNC:    {"g.gene_symbol", "hgnc_symbol"},
	GeneFieldEntrez:  {"g.Entrez_ID", "entrez_id"},
	GeneFieldEnsembl: {"g.Ensembl_ID", "ensembl_id"},
	GeneFieldChr:     {"g.chromosome", ""},
	GeneFieldStart:   {"g.start_position", ""},
	GeneFieldEnd:     {"g.end_position", ""},
	GeneFieldStrand:  {"g.strand", ""},
	GeneFieldPathway: {"bp.name", "pathway"},
}

var deColumns = map[string]column{
	DEFieldLog2FC: {"de.log2foldchange", ""},
	DEFieldPValue: {"de.p_value", ""},
	DEFieldPadj:   {"de.padj", ""},
}

var creColumns = map[string]column{
	CREFieldChr:      {"cre.chromosome", "cre_chr"},
	CREFieldStart:    {"cre.start_position", "cre_start"},
	CREFieldEnd:      {"cre.end_position", "cre_end"},
	CREFieldLog2FC:   {"cre.cre_log2foldchange", "cre_log2fc"},
	CREFieldPadj:     {"cre.padj", "cre_padj"},
	CREFieldDistance: {"cgi.distance_to_TSS", "cre_distance"},
}

var tfColumns = map[string]column{
	TFFieldName: {"tf.name", "tf"},
}

// Fallback selections, used in this order when no recognized field was requested.
var (
	defaultGeneColumns = []column{
		geneColumns[GeneFieldHGNC],
		geneColumns[GeneFieldEntrez],
		geneColumns[GeneFieldChr],
		geneColumns[GeneFieldStart],
		geneColumns[GeneFieldEnd],
	}
	defaultCREColumns = []column{
		creColumns[CREFieldChr],
		creColumns[CREFieldStart],
		creColumns[CREFieldEnd],
		creColumns[CREFieldLog2FC],
	}
	defaultTFColumns = []column{
		tfColumns[TFFieldName],
	}
	defaultContextColumns = []column{
		{"c.name", "condition_name"},
		{"ct.cell", "cell_type"},
	}
)

// Known field keys, in form order. Exposed for request validation and templates.
var (
	GeneFields = []string{GeneFieldHGNC, GeneFieldEntrez, GeneFieldEnsembl, GeneFieldChr, GeneFieldStart, GeneFieldEnd, GeneFieldStrand, GeneFieldPathway}
	DEFields   = []string{DEFieldLog2FC, DEFieldPValue, DEFieldPadj}
	CREFields  = []string{CREFieldChr, CREFieldStart, CREFieldEnd, CREFieldLog2FC, CREFieldPadj, CREFieldDistance}
	TFFields   = []string{TFFieldName}
	IDTypes    = []string{IDTypeHGNC, IDTypeEntrez, IDTypeEnsembl}
)
