package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/deppfellow/genoportal/internal/database"
	"github.com/deppfellow/genoportal/internal/lib/export"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var queryFlags struct {
	criteria query.Criteria

	geneStart, geneEnd int64
	creStart, creEnd   int64
	padj, logFC        float64
	creLog2FC          float64
	maxRows            int
	timeout            time.Duration
}

// queryCmd runs one search and prints every row as CSV.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a search and print the result as CSV",
	Long: `Runs the same search as the web form and writes the full result
(capped at --max-rows) as CSV to stdout.

Example:
  genoportal query --condition AD --cell-type Microglia \
    --gene-fields hgnc,chr --include-de --de-fields padj --padj 0.05`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	c := &queryFlags.criteria

	f.StringVar(&c.Condition, "condition", "", "condition name (required)")
	f.StringVar(&c.CellType, "cell-type", "", "cell type name (required)")

	f.StringVar(&c.Gene.IDType, "gene-id-type", "", "gene identifier type: hgnc, entrez or ensembl")
	f.StringVar(&c.Gene.Identifier, "gene-identifier", "", "gene identifier")
	f.StringVar(&c.Gene.Chromosome, "gene-chr", "", "gene chromosome")
	f.Int64Var(&queryFlags.geneStart, "gene-start", 0, "minimum gene start position")
	f.Int64Var(&queryFlags.geneEnd, "gene-end", 0, "maximum gene end position")
	f.StringVar(&c.Gene.Pathway, "gene-pathway", "", "pathway name substring")
	f.StringSliceVar(&c.GeneFields, "gene-fields", nil, "gene output fields")

	f.BoolVar(&c.IncludeDE, "include-de", false, "include differential expression")
	f.StringSliceVar(&c.DE.Fields, "de-fields", nil, "differential expression output fields")
	f.Float64Var(&queryFlags.padj, "padj", 0, "maximum adjusted p-value")
	f.Float64Var(&queryFlags.logFC, "logfc", 0, "minimum absolute log2 fold change")

	f.StringVar(&c.CRE.Chromosome, "cre-chr", "", "CRE chromosome")
	f.Int64Var(&queryFlags.creStart, "cre-start", 0, "minimum CRE start position")
	f.Int64Var(&queryFlags.creEnd, "cre-end", 0, "maximum CRE end position")
	f.Float64Var(&queryFlags.creLog2FC, "cre-log2fc", 0, "minimum absolute CRE log2 fold change")
	f.StringSliceVar(&c.CREFields, "cre-fields", nil, "CRE output fields")

	f.StringVar(&c.TF.Name, "tf-name", "", "transcription factor name (case-insensitive exact match)")
	f.StringSliceVar(&c.TFFields, "tf-fields", nil, "transcription factor output fields")

	f.IntVar(&queryFlags.maxRows, "max-rows", 0, "row cap (defaults to the export limit)")
	f.DurationVar(&queryFlags.timeout, "timeout", 2*time.Minute, "query timeout")

	_ = queryCmd.MarkFlagRequired("condition")
	_ = queryCmd.MarkFlagRequired("cell-type")
}

func runQuery(cmd *cobra.Command, args []string) error {
	c := criteriaFromFlags(cmd.Flags())

	// stdout carries the CSV.
	log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := repository.NewSearchRepository(db, cfg.Observability.Logging.SlowQueryThreshold)

	stmt, err := query.Build(c, repo.Dialect())
	if err != nil {
		return err
	}

	maxRows := queryFlags.maxRows
	if maxRows <= 0 {
		maxRows = cfg.Export.MaxRows
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), queryFlags.timeout)
	defer cancel()

	rows, err := repo.Export(ctx, stmt, maxRows)
	if err != nil {
		return err
	}

	log.Debug().Int("rows", rows.Len()).Msg("query finished")
	return export.WriteCSV(os.Stdout, rows.Columns, rows.StringRows())
}

// criteriaFromFlags fills the optional numeric filters, which are only set
// when their flag was given.
func criteriaFromFlags(f *pflag.FlagSet) query.Criteria {
	c := queryFlags.criteria

	int64Flag := func(name string, v int64) *int64 {
		if !f.Changed(name) {
			return nil
		}
		return &v
	}
	floatFlag := func(name string, v float64) *float64 {
		if !f.Changed(name) {
			return nil
		}
		return &v
	}

	c.Gene.Start = int64Flag("gene-start", queryFlags.geneStart)
	c.Gene.End = int64Flag("gene-end", queryFlags.geneEnd)
	c.DE.PadjBelow = floatFlag("padj", queryFlags.padj)
	c.DE.AbsLog2FCAbove = floatFlag("logfc", queryFlags.logFC)
	c.CRE.Start = int64Flag("cre-start", queryFlags.creStart)
	c.CRE.End = int64Flag("cre-end", queryFlags.creEnd)
	c.CRE.AbsLog2FCAbove = floatFlag("cre-log2fc", queryFlags.creLog2FC)

	return c
}
