package repository

import (
	"github.com/deppfellow/genoportal/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Search *SearchRepository
	Plot   *PlotRepository
}

// NewRepositories builds every repository on top of the server's database.
func NewRepositories(s *server.Server) *Repositories {
	slow := s.Config.Observability.Logging.SlowQueryThreshold
	return &Repositories{
		Search: NewSearchRepository(s.DB, slow),
		Plot:   NewPlotRepository(s.DB),
	}
}
