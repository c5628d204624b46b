package query

import "strings"

// Gene identifier namespaces accepted by GeneFilter.IDType.
const (
	IDTypeHGNC    = "hgnc"
	IDTypeEntrez  = "entrez"
	IDTypeEnsembl = "ensembl"
)

// Criteria is the full description of one search.
//
// Zero values mean "not requested": an empty string filter is skipped, a nil
// numeric filter is skipped and an empty field list selects nothing from that
// entity family.
type Criteria struct {
	Condition string `json:"condition"`
	CellType  string `json:"cell_type"`

	Gene       GeneFilter `json:"gene"`
	GeneFields []string   `json:"gene_fields,omitempty"`

	IncludeDE bool     `json:"include_de"`
	DE        DEFilter `json:"de"`

	CRE       CREFilter `json:"cre"`
	CREFields []string  `json:"cre_fields,omitempty"`

	TF       TFFilter `json:"tf"`
	TFFields []string `json:"tf_fields,omitempty"`
}

// GeneFilter narrows the gene side of the search.
type GeneFilter struct {
	// IDType is one of hgnc, entrez or ensembl. It only applies together with Identifier.
	IDType     string `json:"id_type,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Chromosome string `json:"chromosome,omitempty"`
	Start      *int64 `json:"start,omitempty"`
	End        *int64 `json:"end,omitempty"`
	// Pathway is matched as a case-insensitive substring of the pathway name.
	Pathway string `json:"pathway,omitempty"`
}

// DEFilter holds the differential-expression selections. It is ignored
// entirely unless Criteria.IncludeDE is set.
type DEFilter struct {
	Fields         []string `json:"fields,omitempty"`
	PadjBelow      *float64 `json:"padj_below,omitempty"`
	AbsLog2FCAbove *float64 `json:"abs_log2fc_above,omitempty"`
}

// CREFilter narrows the cis-regulatory element side of the search.
type CREFilter struct {
	Chromosome     string   `json:"chromosome,omitempty"`
	Start          *int64   `json:"start,omitempty"`
	End            *int64   `json:"end,omitempty"`
	AbsLog2FCAbove *float64 `json:"abs_log2fc_above,omitempty"`
}

// TFFilter narrows the transcription factor side of the search.
type TFFilter struct {
	Name string `json:"name,omitempty"`
}

func (f GeneFilter) hasIdentifier() bool {
	return strings.TrimSpace(f.IDType) != "" && strings.TrimSpace(f.Identifier) != ""
}

// IsZero reports whether no CRE filter value is set.
func (f CREFilter) IsZero() bool {
	return strings.TrimSpace(f.Chromosome) == "" && f.Start == nil && f.End == nil && f.AbsLog2FCAbove == nil
}

// IsZero reports whether no TF filter value is set.
func (f TFFilter) IsZero() bool {
	return strings.TrimSpace(f.Name) == ""
}

func (c Criteria) wantsTF() bool {
	return len(c.TFFields) > 0 || !c.TF.IsZero()
}

// wantsCRE reports whether the CRE tables are needed. TF joins go through
// the CRE tables, so any TF selection implies them as well.
func (c Criteria) wantsCRE() bool {
	return len(c.CREFields) > 0 || !c.CRE.IsZero() || c.wantsTF()
}

// Families lists the entity families a search reads, in join order. Genes
// and pathways are always part of it.
func (c Criteria) Families() []string {
	families := []string{"gene", "pathway"}
	if c.IncludeDE {
		families = append(families, "de")
	}
	if c.wantsCRE() {
		families = append(families, "cre")
	}
	if c.wantsTF() {
		families = append(families, "tf")
	}
	return families
}
