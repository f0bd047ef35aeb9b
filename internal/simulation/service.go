package simulation

import (
	"github.com/rs/zerolog/log"

	"ccm/internal/apperr"
	"ccm/internal/config"
	"ccm/internal/funding"
	"ccm/internal/intervention"
	"ccm/internal/params"
	"ccm/internal/research"
)

// Service holds what outlives a request: the configured base parameters and
// the intervention and project catalogs. Each request gets its own Engine.
type Service struct {
	Base          *params.Parameters
	Interventions *intervention.Catalog
	Projects      *research.Catalog

	seed           uint64
	maxSimulations int
	maxIterations  int
}

// NewService builds the catalogs and base parameters described by cfg and
// sizes the shared funding pool cache.
func NewService(cfg *config.AppConfig) (*Service, error) {
	base, err := cfg.Parameters()
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load parameters")
	}
	if err := funding.ConfigureCache(cfg.PoolCacheSize); err != nil {
		return nil, err
	}

	interventions := intervention.Default()
	opts := research.CatalogOptions{}
	if cfg.ProjectsFile != "" {
		extra, err := research.LoadProjects(cfg.ProjectsFile, interventions)
		if err != nil {
			return nil, err
		}
		opts.Extra = extra
	}
	projects, err := research.NewCatalog(interventions, opts)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("simulations", base.Simulations).
		Int("interventions", len(interventions.All())).
		Int("projects", len(projects.All())).
		Str("impact_method", base.ImpactMethod.Method).
		Msg("Simulation service ready")

	return &Service{
		Base:           base,
		Interventions:  interventions,
		Projects:       projects,
		seed:           cfg.Seed,
		maxSimulations: cfg.MaxSimulations,
		maxIterations:  cfg.YearsCreditMaxIterations,
	}, nil
}

// Request overrides the service defaults for one request. Zero values keep
// the defaults.
type Request struct {
	Parameters  *params.Parameters
	Simulations int
	Seed        uint64
}

// Engine returns a request-scoped engine.
func (s *Service) Engine(req Request) (*Engine, error) {
	p := s.Base
	if req.Parameters != nil {
		p = req.Parameters
	}
	if req.Simulations > 0 && req.Simulations != p.Simulations {
		clone, err := p.Clone()
		if err != nil {
			return nil, err
		}
		clone.Simulations = req.Simulations
		p = clone
	}
	if p.Simulations > s.maxSimulations {
		return nil, apperr.Validation("simulations must be at most %d, got %d", s.maxSimulations, p.Simulations)
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.seed
	}
	return NewEngine(p, Options{Seed: seed, MaxIterations: s.maxIterations})
}
