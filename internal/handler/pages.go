package handler

import (
	"context"

	"github.com/deppfellow/genoportal/internal/lib/render"
	"github.com/deppfellow/genoportal/internal/logger"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/service"
	"github.com/labstack/echo/v4"
)

// PageHandler serves the pages that only render a template.
type PageHandler struct {
	Handler
	services *service.Services
}

func NewPageHandler(s *server.Server, services *service.Services) *PageHandler {
	return &PageHandler{
		Handler:  NewHandler(s),
		services: services,
	}
}

func (h *PageHandler) Home(c echo.Context, _ *EmptyRequest) (View, error) {
	return View{Template: render.TemplateHome}, nil
}

// SearchPage renders the empty search form.
func (h *PageHandler) SearchPage(c echo.Context, _ *EmptyRequest) (View, error) {
	return View{
		Template: render.TemplateSearch,
		Data:     newSearchForm(c.Request().Context(), h.services.Plot, ""),
	}, nil
}

// Info returns a handler for one of the static informational pages.
func (h *PageHandler) Info(t render.Template) HandlerFunc[*EmptyRequest, View] {
	return func(c echo.Context, _ *EmptyRequest) (View, error) {
		return View{Template: t}, nil
	}
}

// newSearchForm builds the search form with the condition and cell type
// lists from the database. If they cannot be loaded the form falls back to
// free text inputs.
func newSearchForm(ctx context.Context, plot *service.PlotService, tab string) *render.SearchPage {
	page := render.NewSearchPage(tab)
	log := logger.FromContext(ctx)

	conditions, err := plot.Conditions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load conditions for search form")
		return page
	}
	cellTypes, err := plot.CellTypes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load cell types for search form")
		return page
	}

	page.Conditions = conditions
	page.CellTypes = cellTypes
	return page
}
