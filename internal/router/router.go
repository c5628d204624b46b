// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"net/http"

	"github.com/deppfellow/genoportal/internal/handler"
	"github.com/deppfellow/genoportal/internal/lib/render"
	"github.com/deppfellow/genoportal/internal/middleware"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with every middleware and route.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler
	if s.Renderer != nil {
		router.Renderer = s.Renderer
	}

	// Order matters: the request id and New Relic transaction must exist
	// before the context enhancer builds the request logger.
	router.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)
	registerPageRoutes(router, h)
	registerSearchRoutes(router, h)
	registerExportRoutes(router, h)
	registerPlotRoutes(router, h)

	return router
}

func registerPageRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", handler.HandleHTML(h.Page.Handler, h.Page.Home, http.StatusOK, &handler.EmptyRequest{}))
	r.GET("/search_page", handler.HandleHTML(h.Page.Handler, h.Page.SearchPage, http.StatusOK, &handler.EmptyRequest{}))

	for path, t := range render.InfoPages {
		r.GET(path, handler.HandleHTML(h.Page.Handler, h.Page.Info(t), http.StatusOK, &handler.EmptyRequest{}))
	}
}

func registerSearchRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/search", h.Search.Search)
}

func registerExportRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/downloads", handler.HandleHTML(h.Export.Handler, h.Export.Downloads, http.StatusOK, &handler.EmptyRequest{}))
	r.GET("/download/:file_id", handler.HandleFile(h.Export.Handler, h.Export.Download, http.StatusOK, &handler.FileRequest{}))
	r.DELETE("/delete-file/:file_id", handler.Handle(h.Export.Handler, h.Export.Delete, http.StatusOK, &handler.FileRequest{}))
	r.POST("/save_current_result/:result_id", handler.HandleRedirect(h.Export.Handler, h.Export.Save, http.StatusSeeOther, &handler.SaveResultRequest{}))
}

func registerPlotRoutes(r *echo.Echo, h *handler.Handlers) {
	r.POST("/volcano_plot", handler.Handle(h.Plot.Handler, h.Plot.Volcano, http.StatusOK, &handler.PlotRequest{}))
	r.POST("/fgsea_plot", handler.Handle(h.Plot.Handler, h.Plot.Fgsea, http.StatusOK, &handler.PlotRequest{}))
	r.POST("/cre_gene_scatter", handler.Handle(h.Plot.Handler, h.Plot.Scatter, http.StatusOK, &handler.PlotRequest{}))

	r.GET("/get_conditions", handler.Handle(h.Plot.Handler, h.Plot.Conditions, http.StatusOK, &handler.EmptyRequest{}))
	r.GET("/get_cell_types", handler.Handle(h.Plot.Handler, h.Plot.CellTypes, http.StatusOK, &handler.EmptyRequest{}))
	r.GET("/test_db_connection", h.Plot.TestConnection)
}
