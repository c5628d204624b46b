package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deppfellow/genoportal/internal/errs"
	"github.com/deppfellow/genoportal/internal/lib/render"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// EmptyRequest is bound by endpoints that take no input.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error { return nil }

// SearchRequest mirrors the search form. Numbers stay strings here so a
// malformed value becomes a message on the form instead of a bind error.
type SearchRequest struct {
	Condition string `query:"condition"`
	CellType  string `query:"cell_type"`
	ActiveTab string `query:"active_tab" validate:"omitempty,oneof=gene cre tf"`
	Page      string `query:"page"`
	PerPage   string `query:"per_page"`

	GeneIDType     string   `query:"gene-id-type" validate:"omitempty,oneof=hgnc entrez ensembl"`
	GeneIdentifier string   `query:"gene-identifier"`
	GeneChr        string   `query:"gene-chr"`
	GeneStart      string   `query:"gene-start"`
	GeneEnd        string   `query:"gene-end"`
	GenePathway    string   `query:"gene-pathway"`
	OutputFields   []string `query:"output-fields"`

	IncludeDE   string   `query:"include_de"`
	DEFields    []string `query:"de_fields"`
	PadjFilter  string   `query:"padj_filter"`
	LogFCFilter string   `query:"logfc_filter"`

	CREChr          string   `query:"cre-chr"`
	CREStart        string   `query:"cre-start"`
	CREEnd          string   `query:"cre-end"`
	CRELog2FC       string   `query:"cre-log2fc"`
	CREOutputFields []string `query:"cre-output-fields"`

	TFName   string   `query:"tf-name"`
	TFFields []string `query:"tf-checkbox"`
}

func (r *SearchRequest) Validate() error {
	return validate.Struct(r)
}

// Tab is the active form tab, gene by default.
func (r *SearchRequest) Tab() string {
	if r.ActiveTab == "" {
		return "gene"
	}
	return r.ActiveTab
}

// Criteria converts the form into search criteria. The returned error is
// meant to be shown on the form.
func (r *SearchRequest) Criteria() (query.Criteria, error) {
	var p numberParser

	c := query.Criteria{
		Condition: strings.TrimSpace(r.Condition),
		CellType:  strings.TrimSpace(r.CellType),
		Gene: query.GeneFilter{
			IDType:     r.GeneIDType,
			Identifier: strings.TrimSpace(r.GeneIdentifier),
			Chromosome: strings.TrimSpace(r.GeneChr),
			Start:      p.int("gene-start", r.GeneStart),
			End:        p.int("gene-end", r.GeneEnd),
			Pathway:    strings.TrimSpace(r.GenePathway),
		},
		GeneFields: r.OutputFields,
		IncludeDE:  r.IncludeDE == "on",
		CRE: query.CREFilter{
			Chromosome:     strings.TrimSpace(r.CREChr),
			Start:          p.int("cre-start", r.CREStart),
			End:            p.int("cre-end", r.CREEnd),
			AbsLog2FCAbove: p.float("cre-log2fc", r.CRELog2FC),
		},
		CREFields: r.CREOutputFields,
		TF:        query.TFFilter{Name: strings.TrimSpace(r.TFName)},
		TFFields:  r.TFFields,
	}
	if c.IncludeDE {
		c.DE = query.DEFilter{
			Fields:         r.DEFields,
			PadjBelow:      p.float("padj_filter", r.PadjFilter),
			AbsLog2FCAbove: p.float("logfc_filter", r.LogFCFilter),
		}
	}

	if p.err != nil {
		return query.Criteria{}, p.err
	}
	return c, nil
}

// HiddenFields re-encodes every submitted criterion so the pagination form
// repeats the same search.
func (r *SearchRequest) HiddenFields() []render.HiddenField {
	var fields []render.HiddenField
	add := func(name string, values ...string) {
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				fields = append(fields, render.HiddenField{Name: name, Value: v})
			}
		}
	}

	add("condition", r.Condition)
	add("cell_type", r.CellType)
	add("active_tab", r.Tab())
	add("gene-id-type", r.GeneIDType)
	add("gene-identifier", r.GeneIdentifier)
	add("gene-chr", r.GeneChr)
	add("gene-start", r.GeneStart)
	add("gene-end", r.GeneEnd)
	add("gene-pathway", r.GenePathway)
	add("output-fields", r.OutputFields...)
	if r.IncludeDE == "on" {
		add("include_de", "on")
		add("de_fields", r.DEFields...)
		add("padj_filter", r.PadjFilter)
		add("logfc_filter", r.LogFCFilter)
	}
	add("cre-chr", r.CREChr)
	add("cre-start", r.CREStart)
	add("cre-end", r.CREEnd)
	add("cre-log2fc", r.CRELog2FC)
	add("cre-output-fields", r.CREOutputFields...)
	add("tf-name", r.TFName)
	add("tf-checkbox", r.TFFields...)

	return fields
}

// numberParser parses optional numeric form values and keeps the first failure.
type numberParser struct {
	err error
}

func (p *numberParser) int(name, raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(name, "a whole number")
		return nil
	}
	return &v
}

func (p *numberParser) float(name, raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(name, "a number")
		return nil
	}
	return &v
}

func (p *numberParser) fail(name, kind string) {
	if p.err == nil {
		p.err = errs.NewBadRequestError(fmt.Sprintf("Error: %s must be %s.", name, kind), true, nil, nil, nil)
	}
}

// SaveResultRequest is posted by the "save to downloads" button.
type SaveResultRequest struct {
	ResultID   string `param:"result_id" validate:"required"`
	SearchType string `form:"search_type"`
	Condition  string `form:"condition"`
	CellType   string `form:"cell_type"`
}

func (r *SaveResultRequest) Validate() error {
	return validate.Struct(r)
}

// FileRequest addresses one saved file.
type FileRequest struct {
	FileID string `param:"file_id" validate:"required"`
}

func (r *FileRequest) Validate() error {
	return validate.Struct(r)
}

// PlotRequest is the form posted by the visualizations page.
type PlotRequest struct {
	Condition    string `form:"condition_name"`
	CellType     string `form:"cell_type"`
	PathwayCount string `form:"pathway_count"`
}

func (r *PlotRequest) Validate() error { return nil }
