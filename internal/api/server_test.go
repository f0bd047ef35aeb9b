package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ccm/internal/config"
	"ccm/internal/research"
	"ccm/internal/simulation"
)

func testServer(t *testing.T, frontEnd string) *Server {
	t.Helper()
	service, err := simulation.NewService(&config.AppConfig{
		Simulations:              300,
		MaxSimulations:           2000,
		CurrentYear:              2023,
		Seed:                     21,
		YearsCreditMaxIterations: 10_000,
		PoolCacheSize:            32,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return NewServer(service, frontEnd)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected an error body, got %q", rec.Body.String())
	}
	return body.Error.Code
}

func TestServer_Status(t *testing.T) {
	s := testServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK, ""},
		{"index", http.MethodGet, "/", "", http.StatusOK, ""},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, ""},
		{"default parameters", http.MethodGet, "/params/default", "", http.StatusOK, ""},
		{"parameter schema", http.MethodGet, "/params/schema", "", http.StatusOK, ""},
		{"interventions", http.MethodGet, "/interventions", "", http.StatusOK, ""},
		{"project groups", http.MethodGet, "/project-groups/", "", http.StatusOK, ""},
		{"attributes", http.MethodGet, "/projects/attributes", "", http.StatusOK, ""},
		{"unknown intervention", http.MethodPost, "/interventions/Nope/estimate", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown group", http.MethodGet, "/project-groups/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown project", http.MethodPost, "/projects/nope/assess", "", http.StatusNotFound, "NOT_FOUND"},
		{"malformed body", http.MethodPost, "/projects/nope/assess", "{", http.StatusBadRequest, "INVALID_INPUT"},
		{"too many simulations", http.MethodPost, "/interventions/GiveWell%20Bar/estimate", `{"simulations": 5000}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"negative simulations", http.MethodPost, "/interventions/GiveWell%20Bar/estimate", `{"simulations": -5}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"invalid parameters", http.MethodPost, "/interventions/GiveWell%20Bar/estimate", `{"parameters": {"current_year": 5000}}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing custom project", http.MethodPost, "/custom-projects/assess", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.code != "" {
				if got := errorCode(t, rec); got != tt.code {
					t.Errorf("Expected code %s, got %s", tt.code, got)
				}
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Error("Expected a request id header")
			}
		})
	}
}

func TestServer_IndexRedirect(t *testing.T) {
	s := testServer(t, "https://example.org/app")
	rec := do(t, s, http.MethodGet, "/", "")
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected 307, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.org/app" {
		t.Errorf("Expected redirect to the front end, got %s", loc)
	}
}

func TestServer_EstimateIntervention(t *testing.T) {
	s := testServer(t, "")
	rec := do(t, s, http.MethodPost, "/interventions/"+url.PathEscape("GiveWell Bar")+"/estimate", `{"simulations": 500, "seed": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got estimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Intervention != "GiveWell Bar" {
		t.Errorf("Expected GiveWell Bar, got %s", got.Intervention)
	}
	if got.Seed != 3 {
		t.Errorf("Expected seed 3, got %d", got.Seed)
	}
	if got.Summary.N != 500 || len(got.Samples.Samples)+got.Samples.NumZeros != 500 {
		t.Errorf("Expected 500 simulated worlds, got summary %d and %d+%d samples",
			got.Summary.N, len(got.Samples.Samples), got.Samples.NumZeros)
	}
}

func TestServer_EstimateInlineIntervention(t *testing.T) {
	s := testServer(t, "")
	body := `{"simulations": 100, "intervention": {"type": "result", "name": "Fixed",
		"result_distribution": {"type": "constant", "value": 7}}}`
	rec := do(t, s, http.MethodPost, "/interventions/custom/estimate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got estimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Summary.Mean != 7 {
		t.Errorf("Expected mean 7, got %f", got.Summary.Mean)
	}
}

func TestServer_AssessProject(t *testing.T) {
	s := testServer(t, "")
	projects, err := s.service.Projects.Group(research.GroupGHD)
	if err != nil {
		t.Fatal(err)
	}
	short := projects[0].ShortName

	rec := do(t, s, http.MethodPost, "/projects/"+url.PathEscape(short)+"/assess", `{"simulations": 400}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got research.AssessmentModel
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != short {
		t.Errorf("Expected %s, got %s", short, got.ID)
	}
	if len(got.Cost) != 400 {
		t.Errorf("Expected 400 cost samples, got %d", len(got.Cost))
	}
	if len(got.BottomLines) != 1 {
		t.Errorf("Expected one bottom line, got %d", len(got.BottomLines))
	}
}

func TestServer_AssessCustomProject(t *testing.T) {
	s := testServer(t, "")
	project := `{
		"id": "custom",
		"name": "Custom",
		"attributes": {
			"fte_years": {"type": "constant", "value": 1},
			"cost_per_staff_year": {"type": "constant", "value": 100000},
			"conclusions_require_updating": {"type": "constant", "value": 1},
			"target_updating": {"type": "constant", "value": 1},
			"money_in_area_millions": {"type": "constant", "value": 10},
			"percent_money_influenceable": {"type": "constant", "value": 1},
			"years_credit": {"type": "constant", "value": 1}
		},
		"source_intervention": "GiveWell Bar",
		"target_intervention": "Open Philanthropy Bar"
	}`
	rec := do(t, s, http.MethodPost, "/custom-projects/assess", `{"simulations": 200, "project": `+project+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got research.AssessmentModel
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "custom" {
		t.Errorf("Expected custom, got %s", got.ID)
	}

	rec = do(t, s, http.MethodPost, "/custom-projects/assess",
		`{"project": {"id": "x", "source_intervention": "Nope", "target_intervention": "GiveWell Bar"}}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown source, got %d: %s", rec.Code, rec.Body.String())
	}
}
