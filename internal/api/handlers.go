package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/jsonschema-go/jsonschema"

	"ccm/internal/apperr"
	"ccm/internal/intervention"
	"ccm/internal/params"
	"ccm/internal/research"
	"ccm/internal/simulation"
	"ccm/internal/stats"
)

const maxBodyBytes = 8 << 20

// runOptions are the per-request overrides shared by every POST body.
type runOptions struct {
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Simulations int             `json:"simulations,omitempty" validate:"gte=0"`
	Seed        uint64          `json:"seed,omitempty"`
}

type estimateRequest struct {
	runOptions
	Intervention *intervention.Intervention `json:"intervention,omitempty" validate:"-"`
}

type estimateResponse struct {
	ID           string                     `json:"id"`
	Intervention string                     `json:"intervention"`
	Seed         uint64                     `json:"seed"`
	Samples      research.SparseSamples     `json:"samples"`
	Summary      stats.Summary              `json:"summary"`
	RiskWeighted map[stats.Weighter]float64 `json:"risk_weighted"`
}

type assessRequest struct {
	runOptions
}

type customAssessRequest struct {
	runOptions
	// Nested payloads validate themselves when resolved.
	Project *research.ProjectModel `json:"project" validate:"-"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.frontEndURL != "" {
		http.Redirect(w, r, s.frontEndURL, http.StatusTemporaryRedirect)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name": "ccm",
		"endpoints": []string{
			"GET /healthz",
			"GET /metrics",
			"GET /params/default",
			"GET /params/schema",
			"GET /interventions",
			"POST /interventions/{id}/estimate",
			"GET /project-groups/",
			"GET /project-groups/{group}",
			"GET /projects/attributes",
			"POST /projects/{id}/assess",
			"POST /custom-projects/assess",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDefaultParameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Base)
}

func (s *Server) handleParameterSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := jsonschema.For[params.Parameters](nil)
	if err != nil {
		writeError(w, r, apperr.Wrap(err, "failed to infer parameter schema"))
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleListInterventions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Interventions.Unscaled())
}

func (s *Server) handleEstimateIntervention(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	iv := req.Intervention
	if iv == nil {
		name, err := pathParam(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if iv, err = s.service.Interventions.Get(name); err != nil {
			writeError(w, r, err)
			return
		}
	}

	engine, err := s.engine(req.runOptions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	est, err := engine.EstimateIntervention(r.Context(), iv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, estimateResponse{
		ID:           est.ID,
		Intervention: iv.Name,
		Seed:         est.Seed,
		Samples:      research.SparseSamples{Samples: est.Samples.Values, NumZeros: est.Samples.Zeros},
		Summary:      est.Summary,
		RiskWeighted: est.RiskWeighted,
	})
}

func (s *Server) handleListProjectGroups(w http.ResponseWriter, r *http.Request) {
	out := map[string][]research.ProjectModel{}
	for _, name := range s.service.Projects.GroupNames() {
		projects, err := s.service.Projects.Group(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out[name] = projectModels(projects)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProjectGroup(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "group")
	if err != nil {
		writeError(w, r, err)
		return
	}
	projects, err := s.service.Projects.Group(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectModels(projects))
}

func (s *Server) handleProjectAttributes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, research.AttributeDescriptions())
}

func (s *Server) handleAssessProject(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	short, err := pathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	project, err := s.service.Projects.Get(short)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.assess(w, r, req.runOptions, project)
}

func (s *Server) handleAssessCustomProject(w http.ResponseWriter, r *http.Request) {
	var req customAssessRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Project == nil {
		writeError(w, r, apperr.InvalidInput("project is required"))
		return
	}
	project, err := req.Project.ToProject(s.service.Interventions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.assess(w, r, req.runOptions, project)
}

func (s *Server) assess(w http.ResponseWriter, r *http.Request, opts runOptions, project *research.Project) {
	engine, err := s.engine(opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := engine.AssessProject(r.Context(), project)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, research.NewAssessmentModel(a))
}

func (s *Server) engine(opts runOptions) (*simulation.Engine, error) {
	req := simulation.Request{Simulations: opts.Simulations, Seed: opts.Seed}
	if len(opts.Parameters) > 0 {
		p, err := s.service.Base.Overlay(opts.Parameters)
		if err != nil {
			return nil, err
		}
		req.Parameters = p
	}
	return s.service.Engine(req)
}

// decode reads an optional JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperr.WithCode(apperr.CodeInvalidInput, apperr.Wrap(err, "invalid request body"))
	}
	if err := s.validate.Struct(v); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, err)
	}
	return nil
}

func pathParam(r *http.Request, key string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, key))
	if err != nil || v == "" {
		return "", apperr.InvalidInput("invalid path parameter " + key)
	}
	return v, nil
}

func projectModels(projects []*research.Project) []research.ProjectModel {
	out := make([]research.ProjectModel, len(projects))
	for i, p := range projects {
		out[i] = research.NewProjectModel(p)
	}
	return out
}
