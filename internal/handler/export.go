package handler

import (
	"github.com/deppfellow/genoportal/internal/lib/export"
	"github.com/deppfellow/genoportal/internal/lib/render"
	"github.com/deppfellow/genoportal/internal/middleware"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/service"
	"github.com/labstack/echo/v4"
)

// ExportHandler saves result tables and serves the saved files.
type ExportHandler struct {
	Handler
	exportService *service.ExportService
}

func NewExportHandler(s *server.Server, exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		Handler:       NewHandler(s),
		exportService: exportService,
	}
}

// MessageResponse is the JSON body of simple actions.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Save exports a stashed result and sends the browser to the downloads page.
func (h *ExportHandler) Save(c echo.Context, req *SaveResultRequest) (string, error) {
	id, err := h.exportService.Save(c.Request().Context(), req.ResultID, service.SaveOptions{
		SearchType: req.SearchType,
		Condition:  req.Condition,
		CellType:   req.CellType,
	})
	if err != nil {
		return "", err
	}

	middleware.GetLogger(c).Info().
		Str("result_id", req.ResultID).
		Str("export_id", id).
		Msg("search result saved")

	return "/downloads", nil
}

// Downloads lists the saved files.
func (h *ExportHandler) Downloads(c echo.Context, _ *EmptyRequest) (View, error) {
	files, err := h.exportService.List(c.Request().Context())
	if err != nil {
		return View{}, err
	}
	return View{
		Template: render.TemplateDownloads,
		Data:     render.DownloadsPage{Files: files},
	}, nil
}

// Download streams one saved file as an attachment.
func (h *ExportHandler) Download(c echo.Context, req *FileRequest) (*File, error) {
	saved, err := h.exportService.Open(c.Request().Context(), req.FileID)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:        saved.Record.Filename,
		ContentType: export.ContentType,
		Size:        saved.Size,
		Body:        saved.Body,
	}, nil
}

// Delete removes one saved file.
func (h *ExportHandler) Delete(c echo.Context, req *FileRequest) (*MessageResponse, error) {
	if err := h.exportService.Delete(c.Request().Context(), req.FileID); err != nil {
		return nil, err
	}
	return &MessageResponse{Status: "success", Message: "File deleted"}, nil
}
