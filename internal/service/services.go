package service

import (
	"github.com/deppfellow/genoportal/internal/lib/job"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/deppfellow/genoportal/internal/server"
)

// Services groups the business logic behind the HTTP handlers and the CLI.
type Services struct {
	Search *SearchService
	Export *ExportService
	Plot   *PlotService

	// Job is nil unless background jobs are enabled.
	Job *job.JobService
}

// NewService builds every service. Export task handlers are registered on
// the job service here, so call it before Server.StartJobs.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Search: NewSearchService(s, repos.Search),
		Export: NewExportService(s, repos.Search),
		Plot:   NewPlotService(repos.Plot),
		Job:    s.Job,
	}, nil
}
