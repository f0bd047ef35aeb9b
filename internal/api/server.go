// Package api serves the estimation engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"ccm/internal/simulation"
)

// Server routes HTTP requests to the simulation service.
type Server struct {
	router      *chi.Mux
	service     *simulation.Service
	frontEndURL string
	validate    *validator.Validate
}

func NewServer(service *simulation.Service, frontEndURL string) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		service:     service,
		frontEndURL: frontEndURL,
		validate:    validator.New(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(requestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/params/default", s.handleDefaultParameters)
	s.router.Get("/params/schema", s.handleParameterSchema)

	s.router.Get("/interventions", s.handleListInterventions)
	s.router.Post("/interventions/{id}/estimate", s.handleEstimateIntervention)

	s.router.Get("/project-groups/", s.handleListProjectGroups)
	s.router.Get("/project-groups/{group}", s.handleProjectGroup)
	s.router.Get("/projects/attributes", s.handleProjectAttributes)
	s.router.Post("/projects/{id}/assess", s.handleAssessProject)
	s.router.Post("/custom-projects/assess", s.handleAssessCustomProject)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains open
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
