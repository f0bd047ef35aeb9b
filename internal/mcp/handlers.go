package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ccm/internal/apperr"
	"ccm/internal/intervention"
	"ccm/internal/research"
	"ccm/internal/risk"
	"ccm/internal/simulation"
	"ccm/internal/stats"
	"ccm/internal/visuals"
)

const (
	minStableSimulations = 1000
	rareEffectShare      = 0.9
)

func (s *Server) handleListInterventions(ctx context.Context, _ *mcp.CallToolRequest, in ListInterventionsInput) (*mcp.CallToolResult, ListInterventionsOutput, error) {
	ctx = withRequest(ctx, ToolListInterventions)
	out := ListInterventionsOutput{Interventions: []InterventionInfo{}}
	for _, iv := range s.service.Interventions.Unscaled() {
		if in.Area != "" && !strings.EqualFold(iv.Area, in.Area) {
			continue
		}
		out.Interventions = append(out.Interventions, InterventionInfo{
			Name:        iv.Name,
			Type:        string(iv.Kind()),
			Area:        iv.Area,
			Description: iv.Description,
		})
	}
	if in.Area != "" && len(out.Interventions) == 0 {
		return nil, ListInterventionsOutput{}, toolError(ctx, ToolListInterventions, apperr.NotFound("cause area "+in.Area))
	}
	return nil, out, nil
}

func (s *Server) handleEstimateIntervention(ctx context.Context, _ *mcp.CallToolRequest, in EstimateInterventionInput) (*mcp.CallToolResult, EstimateInterventionOutput, error) {
	ctx = withRequest(ctx, ToolEstimateIntervention)
	fail := func(err error) (*mcp.CallToolResult, EstimateInterventionOutput, error) {
		return nil, EstimateInterventionOutput{}, toolError(ctx, ToolEstimateIntervention, err)
	}

	var iv *intervention.Intervention
	switch {
	case in.Intervention != nil:
		iv = &intervention.Intervention{}
		if err := decodeInto(in.Intervention, iv, "intervention"); err != nil {
			return fail(err)
		}
	case in.Name != "":
		var err error
		if iv, err = s.service.Interventions.Get(in.Name); err != nil {
			return fail(err)
		}
	default:
		return fail(apperr.InvalidInput("give either name or intervention"))
	}

	engine, err := s.engine(in.Simulations, in.Seed, in.Parameters)
	if err != nil {
		return fail(err)
	}
	est, err := engine.EstimateIntervention(ctx, iv)
	if err != nil {
		return fail(err)
	}

	out := EstimateInterventionOutput{
		ID:           est.ID,
		Intervention: iv.Name,
		Seed:         est.Seed,
		Summary:      est.Summary,
		RiskWeighted: make(map[string]float64, len(est.RiskWeighted)),
		Chart:        distributionChart("DALYs per $1000", est.Summary),
		Warnings:     sampleWarnings(est.Summary),
	}
	for w, v := range est.RiskWeighted {
		out.RiskWeighted[string(w)] = v
	}
	return nil, out, nil
}

func (s *Server) handleListProjects(ctx context.Context, _ *mcp.CallToolRequest, in ListProjectsInput) (*mcp.CallToolResult, ListProjectsOutput, error) {
	ctx = withRequest(ctx, ToolListProjects)
	group := in.Group
	if group == "" {
		group = research.GroupAll
	}
	projects, err := s.service.Projects.Group(group)
	if err != nil {
		return nil, ListProjectsOutput{}, toolError(ctx, ToolListProjects, err)
	}

	out := ListProjectsOutput{Group: group, Projects: make([]ProjectInfo, len(projects))}
	for i, p := range projects {
		info := ProjectInfo{
			ShortName: p.ShortName,
			Name:      p.Name,
			Cause:     p.Cause,
			SubCause:  p.SubCause,
		}
		if p.TargetIntervention != nil {
			info.TargetIntervention = p.TargetIntervention.Name
		}
		if p.Profile != nil {
			info.FundingProfile = p.Profile.Name
		}
		out.Projects[i] = info
	}
	return nil, out, nil
}

func (s *Server) handleAssessProject(ctx context.Context, _ *mcp.CallToolRequest, in AssessProjectInput) (*mcp.CallToolResult, AssessProjectOutput, error) {
	ctx = withRequest(ctx, ToolAssessProject)
	project, err := s.service.Projects.Get(in.ShortName)
	if err != nil {
		return nil, AssessProjectOutput{}, toolError(ctx, ToolAssessProject, err)
	}
	out, err := s.assess(ctx, project, in.Simulations, in.Seed, in.Parameters)
	if err != nil {
		return nil, AssessProjectOutput{}, toolError(ctx, ToolAssessProject, err)
	}
	return nil, out, nil
}

func (s *Server) handleAssessCustomProject(ctx context.Context, _ *mcp.CallToolRequest, in AssessCustomProjectInput) (*mcp.CallToolResult, AssessProjectOutput, error) {
	ctx = withRequest(ctx, ToolAssessCustomProject)
	fail := func(err error) (*mcp.CallToolResult, AssessProjectOutput, error) {
		return nil, AssessProjectOutput{}, toolError(ctx, ToolAssessCustomProject, err)
	}
	if len(in.Project) == 0 {
		return fail(apperr.InvalidInput("project is required"))
	}

	var model research.ProjectModel
	if err := decodeInto(in.Project, &model, "project"); err != nil {
		return fail(err)
	}
	project, err := model.ToProject(s.service.Interventions)
	if err != nil {
		return fail(err)
	}
	out, err := s.assess(ctx, project, in.Simulations, in.Seed, in.Parameters)
	if err != nil {
		return fail(err)
	}
	return nil, out, nil
}

func (s *Server) handleDefaultParameters(ctx context.Context, _ *mcp.CallToolRequest, _ DefaultParametersInput) (*mcp.CallToolResult, DefaultParametersOutput, error) {
	ctx = withRequest(ctx, ToolDefaultParameters)
	data, err := s.service.Base.YAML()
	if err != nil {
		return nil, DefaultParametersOutput{}, toolError(ctx, ToolDefaultParameters, apperr.Wrap(err, "failed to encode parameters"))
	}
	return nil, DefaultParametersOutput{YAML: string(data)}, nil
}

func (s *Server) handleXRiskImpact(ctx context.Context, _ *mcp.CallToolRequest, in XRiskImpactInput) (*mcp.CallToolResult, XRiskImpactOutput, error) {
	ctx = withRequest(ctx, ToolXRiskImpact)
	fail := func(err error) (*mcp.CallToolResult, XRiskImpactOutput, error) {
		return nil, XRiskImpactOutput{}, toolError(ctx, ToolXRiskImpact, err)
	}

	t, err := risk.ParseType(in.RiskType)
	if err != nil {
		return fail(err)
	}
	overrides := in.Parameters
	if in.ImpactMethod != "" {
		overrides = withImpactMethod(overrides, in.ImpactMethod)
	}
	engine, err := s.engine(in.Simulations, in.Seed, overrides)
	if err != nil {
		return fail(err)
	}
	est, err := engine.XRiskImpact(ctx, t, in.PropExtinction, in.PropCatastrophe, in.YearsActive)
	if err != nil {
		return fail(err)
	}
	return nil, XRiskImpactOutput{
		ID:       est.ID,
		Method:   est.Method,
		RiskType: string(est.RiskType),
		Seed:     est.Seed,
		Summary:  est.Summary,
		Chart:    distributionChart("Life-years gained", est.Summary),
		Warnings: sampleWarnings(est.Summary),
	}, nil
}

func (s *Server) assess(ctx context.Context, project *research.Project, simulations int, seed uint64, overrides map[string]any) (AssessProjectOutput, error) {
	engine, err := s.engine(simulations, seed, overrides)
	if err != nil {
		return AssessProjectOutput{}, err
	}
	a, err := engine.AssessProject(ctx, project)
	if err != nil {
		return AssessProjectOutput{}, err
	}
	report := research.NewReport(a)
	warnings := sampleWarnings(report.NetImpact)
	if report.NetImpact.Mean < 0 {
		warnings = append(warnings, "Expected net impact is negative: the research costs more DALYs than the money it moves gains.")
	}
	return AssessProjectOutput{Seed: engine.Seed(), Report: report, Chart: visuals.ROIChart(report), Warnings: warnings}, nil
}

func (s *Server) engine(simulations int, seed uint64, overrides map[string]any) (*simulation.Engine, error) {
	if simulations < 0 {
		return nil, apperr.Validation("simulations must not be negative, got %d", simulations)
	}
	req := simulation.Request{Simulations: simulations, Seed: seed}
	if len(overrides) > 0 {
		data, err := json.Marshal(overrides)
		if err != nil {
			return nil, apperr.WithCode(apperr.CodeInvalidInput, apperr.Wrap(err, "invalid parameters"))
		}
		if req.Parameters, err = s.service.Base.Overlay(data); err != nil {
			return nil, err
		}
	}
	return s.service.Engine(req)
}

func withImpactMethod(overrides map[string]any, method string) map[string]any {
	out := make(map[string]any, len(overrides)+1)
	for k, v := range overrides {
		out[k] = v
	}
	section, _ := out["impact_method"].(map[string]any)
	merged := map[string]any{}
	for k, v := range section {
		merged[k] = v
	}
	merged["impact_method"] = method
	out["impact_method"] = merged
	return out
}

// distributionChart adds a pie of empty worlds when they are common enough
// to hide the percentiles.
func distributionChart(unit string, s stats.Summary) string {
	chart := visuals.PercentileChart(unit, unit, s)
	if s.ZeroProportion >= 0.5 {
		chart += "\n" + visuals.EffectPie(s)
	}
	return chart
}

func sampleWarnings(s stats.Summary) []string {
	var out []string
	if s.N < minStableSimulations {
		out = append(out, fmt.Sprintf("Only %d simulated worlds: tail percentiles are unstable.", s.N))
	}
	if s.ZeroProportion > rareEffectShare {
		out = append(out, fmt.Sprintf("%.1f%% of simulated worlds show no effect; the mean is driven by rare outcomes.", 100*s.ZeroProportion))
	}
	return out
}
