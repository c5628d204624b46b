package handler

import (
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so the router
// receives one object instead of many.
type Handlers struct {
	Health *HealthHandler // Health serves /status.
	Page   *PageHandler   // Page serves the home, search form and informational pages.
	Search *SearchHandler // Search runs searches and renders result tables.
	Export *ExportHandler // Export saves results and serves the saved files.
	Plot   *PlotHandler   // Plot serves the visualization JSON.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(s),
		Page:   NewPageHandler(s, services),
		Search: NewSearchHandler(s, services),
		Export: NewExportHandler(s, services.Export),
		Plot:   NewPlotHandler(s, services.Plot),
	}
}
