package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/deppfellow/genoportal/internal/repository"
)

// Pathway count bounds for the enrichment plot.
const (
	DefaultPathwayCount = 10
	MaxPathwayCount     = 50
)

// PlotService serves the visualization data.
type PlotService struct {
	repo *repository.PlotRepository
}

func NewPlotService(repo *repository.PlotRepository) *PlotService {
	return &PlotService{repo: repo}
}

// PathwayCount parses the requested number of pathways per direction.
// Anything unparsable or below 1 gives the default; the maximum is 50.
func PathwayCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return DefaultPathwayCount
	}
	if n > MaxPathwayCount {
		return MaxPathwayCount
	}
	return n
}

func missingContext(condition, cellType string) bool {
	return strings.TrimSpace(condition) == "" || strings.TrimSpace(cellType) == ""
}

// Volcano returns the volcano plot points. Without a condition and a cell
// type the plot is empty.
func (s *PlotService) Volcano(ctx context.Context, condition, cellType string) ([]repository.VolcanoPoint, error) {
	if missingContext(condition, cellType) {
		return []repository.VolcanoPoint{}, nil
	}
	return s.repo.Volcano(ctx, condition, cellType)
}

// Enrichment returns up to count up-regulated then count down-regulated pathways.
func (s *PlotService) Enrichment(ctx context.Context, condition, cellType, rawCount string) ([]repository.PathwayEnrichment, error) {
	if missingContext(condition, cellType) {
		return []repository.PathwayEnrichment{}, nil
	}
	return s.repo.PathwayEnrichment(ctx, condition, cellType, PathwayCount(rawCount))
}

// Scatter returns gene/CRE fold change pairs.
func (s *PlotService) Scatter(ctx context.Context, condition, cellType string) ([]repository.ScatterPoint, error) {
	if missingContext(condition, cellType) {
		return []repository.ScatterPoint{}, nil
	}
	return s.repo.CREGeneScatter(ctx, condition, cellType)
}

func (s *PlotService) Conditions(ctx context.Context) ([]string, error) {
	return s.repo.Conditions(ctx)
}

func (s *PlotService) CellTypes(ctx context.Context) ([]string, error) {
	return s.repo.CellTypes(ctx)
}

// TestConnection runs a trivial query and returns its result.
func (s *PlotService) TestConnection(ctx context.Context) (int, error) {
	return s.repo.Ping(ctx)
}
