package router

import (
	"github.com/deppfellow/genoportal/internal/handler"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of the portal
// itself: the health status and the static assets.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	// CSS, JS and images for every page.
	r.Static("/static", s.Config.Server.StaticDir)
}
