package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ccm/internal/research"
	"ccm/internal/stats"
)

// Tool names.
const (
	ToolListInterventions    = "list_interventions"
	ToolEstimateIntervention = "estimate_intervention"
	ToolListProjects         = "list_projects"
	ToolAssessProject        = "assess_project"
	ToolAssessCustomProject  = "assess_custom_project"
	ToolDefaultParameters    = "get_default_parameters"
	ToolXRiskImpact          = "xrisk_impact"
)

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: ToolListInterventions,
		Description: "List the catalog of interventions that can be estimated, optionally filtered by cause area. " +
			"Guidance: pass a name from this list to 'estimate_intervention'.",
	}, s.handleListInterventions)

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolEstimateIntervention,
		Description: "Run a Monte Carlo estimate of an intervention's cost-effectiveness in DALYs averted per $1000. " +
			"Give a catalog name or an inline intervention definition. Returns a summary and risk-weighted values.",
	}, s.handleEstimateIntervention)

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolListProjects,
		Description: "List research projects, optionally by group (ghd, animal-welfare, xrisk, others, all). " +
			"Guidance: pass a short name from this list to 'assess_project'.",
	}, s.handleListProjects)

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolAssessProject,
		Description: "Assess a catalog research project: its gross and net impact in DALYs and its return on the money " +
			"that funds the research.",
	}, s.handleAssessProject)

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolAssessCustomProject,
		Description: "Assess a research project defined inline: id, name, attributes (distributions) and the source and " +
			"target interventions (catalog names or inline definitions).",
	}, s.handleAssessCustomProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolDefaultParameters,
		Description: "Return the parameter tree in effect as YAML. Any part of it can be overridden per call via 'parameters'.",
	}, s.handleDefaultParameters)

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolXRiskImpact,
		Description: "Estimate the life-years gained when the extinction and catastrophe risk of one risk type changes " +
			"by the given proportions for a number of years.",
	}, s.handleXRiskImpact)
}

type ListInterventionsInput struct {
	Area string `json:"area,omitempty" jsonschema:"only list interventions of this cause area"`
}

type InterventionInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Area        string `json:"area"`
	Description string `json:"description,omitempty"`
}

type ListInterventionsOutput struct {
	Interventions []InterventionInfo `json:"interventions"`
}

type EstimateInterventionInput struct {
	Name         string         `json:"name,omitempty" jsonschema:"catalog name of the intervention"`
	Intervention map[string]any `json:"intervention,omitempty" jsonschema:"inline intervention definition used instead of a catalog name"`
	Simulations  int            `json:"simulations,omitempty" jsonschema:"number of simulated worlds; defaults to the server setting"`
	Seed         uint64         `json:"seed,omitempty" jsonschema:"random seed for reproducible results"`
	Parameters   map[string]any `json:"parameters,omitempty" jsonschema:"partial parameter tree overlaid on the defaults"`
}

type EstimateInterventionOutput struct {
	ID           string             `json:"id"`
	Intervention string             `json:"intervention"`
	Seed         uint64             `json:"seed"`
	Summary      stats.Summary      `json:"summary"`
	RiskWeighted map[string]float64 `json:"risk_weighted"`
	Chart        string             `json:"chart,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

type ListProjectsInput struct {
	Group string `json:"group,omitempty" jsonschema:"project group; defaults to all"`
}

type ProjectInfo struct {
	ShortName          string `json:"short_name"`
	Name               string `json:"name"`
	Cause              string `json:"cause,omitempty"`
	SubCause           string `json:"sub_cause,omitempty"`
	TargetIntervention string `json:"target_intervention"`
	FundingProfile     string `json:"funding_profile"`
}

type ListProjectsOutput struct {
	Group    string        `json:"group"`
	Projects []ProjectInfo `json:"projects"`
}

type AssessProjectInput struct {
	ShortName   string         `json:"short_name" jsonschema:"short name of a catalog project"`
	Simulations int            `json:"simulations,omitempty" jsonschema:"number of simulated worlds; defaults to the server setting"`
	Seed        uint64         `json:"seed,omitempty" jsonschema:"random seed for reproducible results"`
	Parameters  map[string]any `json:"parameters,omitempty" jsonschema:"partial parameter tree overlaid on the defaults"`
}

type AssessCustomProjectInput struct {
	Project     map[string]any `json:"project" jsonschema:"project with id, name, attributes, source_intervention and target_intervention"`
	Simulations int            `json:"simulations,omitempty" jsonschema:"number of simulated worlds; defaults to the server setting"`
	Seed        uint64         `json:"seed,omitempty" jsonschema:"random seed for reproducible results"`
	Parameters  map[string]any `json:"parameters,omitempty" jsonschema:"partial parameter tree overlaid on the defaults"`
}

type AssessProjectOutput struct {
	Seed     uint64          `json:"seed"`
	Report   research.Report `json:"report"`
	Chart    string          `json:"chart,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

type DefaultParametersInput struct{}

type DefaultParametersOutput struct {
	YAML string `json:"yaml"`
}

type XRiskImpactInput struct {
	RiskType        string         `json:"risk_type" jsonschema:"risk type such as nukes, bio, natural, nano, unknown, ai misalignment or ai misuse"`
	PropExtinction  float64        `json:"prop_extinction" jsonschema:"proportional change of extinction risk in [-1, 1]"`
	PropCatastrophe float64        `json:"prop_catastrophe,omitempty" jsonschema:"proportional change of catastrophe risk in [-1, 1]"`
	YearsActive     float64        `json:"years_active" jsonschema:"years the change lasts"`
	ImpactMethod    string         `json:"impact_method,omitempty" jsonschema:"expected years saved, thousand year impact or time of perils"`
	Simulations     int            `json:"simulations,omitempty" jsonschema:"number of simulated worlds; defaults to the server setting"`
	Seed            uint64         `json:"seed,omitempty" jsonschema:"random seed for reproducible results"`
	Parameters      map[string]any `json:"parameters,omitempty" jsonschema:"partial parameter tree overlaid on the defaults"`
}

type XRiskImpactOutput struct {
	ID       string        `json:"id"`
	Method   string        `json:"method"`
	RiskType string        `json:"risk_type"`
	Seed     uint64        `json:"seed"`
	Summary  stats.Summary `json:"summary"`
	Chart    string        `json:"chart,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}
