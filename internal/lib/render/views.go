package render

import (
	"github.com/deppfellow/genoportal/internal/lib/export"
	"github.com/deppfellow/genoportal/internal/query"
)

// HiddenField is one input that carries a search criterion across pages.
type HiddenField struct {
	Name  string
	Value string
}

// ResultsView is a rendered result table.
type ResultsView struct {
	Title      string
	Columns    []string
	Rows       [][]string
	Pagination query.Pagination
	Hidden     []HiddenField

	// ResultID identifies the stashed search for "save to downloads".
	ResultID   string
	SearchType string
	Condition  string
	CellType   string
}

// ShowPagination reports whether the table spans more than one page.
func (v *ResultsView) ShowPagination() bool {
	return v.Pagination.TotalPages > 1
}

// Option is one entry of a checkbox or select group on the search form.
type Option struct {
	Value string
	Label string
}

// SearchPage is the search form with an optional result below it.
type SearchPage struct {
	ActiveTab string
	Condition string
	CellType  string
	Error     string
	Results   *ResultsView

	Conditions []string
	CellTypes  []string
	IDTypes    []Option
	GeneFields []Option
	DEFields   []Option
	CREFields  []Option
	TFFields   []Option
}

// NewSearchPage fills the form option lists.
func NewSearchPage(activeTab string) *SearchPage {
	if activeTab == "" {
		activeTab = "gene"
	}
	return &SearchPage{
		ActiveTab:  activeTab,
		IDTypes:    options(query.IDTypes),
		GeneFields: options(query.GeneFields),
		DEFields:   options(query.DEFields),
		CREFields:  options(query.CREFields),
		TFFields: []Option{
			{Value: query.TFFieldName, Label: "Transcription factor"},
		},
	}
}

func options(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: fieldLabels[v]}
		if out[i].Label == "" {
			out[i].Label = HeaderTitle(v)
		}
	}
	return out
}

var fieldLabels = map[string]string{
	query.IDTypeHGNC:       "HGNC symbol",
	query.IDTypeEntrez:     "Entrez ID",
	query.IDTypeEnsembl:    "Ensembl ID",
	query.GeneFieldChr:     "Chromosome",
	query.GeneFieldStart:   "Start position",
	query.GeneFieldEnd:     "End position",
	query.DEFieldLog2FC:    "log2 fold change",
	query.DEFieldPValue:    "p-value",
	query.DEFieldPadj:      "Adjusted p-value",
	query.CREFieldChr:      "CRE chromosome",
	query.CREFieldStart:    "CRE start",
	query.CREFieldEnd:      "CRE end",
	query.CREFieldLog2FC:   "CRE log2 fold change",
	query.CREFieldPadj:     "CRE adjusted p-value",
	query.CREFieldDistance: "Distance to TSS",
	query.GeneFieldPathway: "Pathway",
	query.GeneFieldStrand:  "Strand",
}

// DownloadsPage lists saved exports, newest first.
type DownloadsPage struct {
	Files []export.Record
}

// ErrorPage is shown for failures outside the search form.
type ErrorPage struct {
	Status  int
	Message string
}
