package handler

import (
	"net/http"

	"github.com/deppfellow/genoportal/internal/middleware"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/service"
	"github.com/labstack/echo/v4"
)

// PlotHandler serves the JSON behind the visualizations page.
type PlotHandler struct {
	Handler
	plotService *service.PlotService
}

func NewPlotHandler(s *server.Server, plotService *service.PlotService) *PlotHandler {
	return &PlotHandler{
		Handler:     NewHandler(s),
		plotService: plotService,
	}
}

func (h *PlotHandler) Volcano(c echo.Context, req *PlotRequest) ([]repository.VolcanoPoint, error) {
	return h.plotService.Volcano(c.Request().Context(), req.Condition, req.CellType)
}

func (h *PlotHandler) Fgsea(c echo.Context, req *PlotRequest) ([]repository.PathwayEnrichment, error) {
	return h.plotService.Enrichment(c.Request().Context(), req.Condition, req.CellType, req.PathwayCount)
}

func (h *PlotHandler) Scatter(c echo.Context, req *PlotRequest) ([]repository.ScatterPoint, error) {
	return h.plotService.Scatter(c.Request().Context(), req.Condition, req.CellType)
}

func (h *PlotHandler) Conditions(c echo.Context, _ *EmptyRequest) ([]string, error) {
	return h.plotService.Conditions(c.Request().Context())
}

func (h *PlotHandler) CellTypes(c echo.Context, _ *EmptyRequest) ([]string, error) {
	return h.plotService.CellTypes(c.Request().Context())
}

// ConnectionResponse is the body of /test_db_connection. Result holds the
// row returned by the test query, one value per column.
type ConnectionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []int  `json:"result,omitempty"`
}

// TestConnection runs a trivial query against the database. Failures are
// reported in the body rather than through the error handler.
func (h *PlotHandler) TestConnection(c echo.Context) error {
	result, err := h.plotService.TestConnection(c.Request().Context())
	if err != nil {
		middleware.GetLogger(c).Error().Err(err).Msg("database connection test failed")
		return c.JSON(http.StatusInternalServerError, ConnectionResponse{
			Status:  "error",
			Message: "Database connection failed: " + err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ConnectionResponse{
		Status:  "success",
		Message: "Database connection successful",
		Result:  []int{result},
	})
}
