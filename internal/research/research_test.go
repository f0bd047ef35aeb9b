package research

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/funding"
	"ccm/internal/intervention"
	"ccm/internal/params"
	"ccm/internal/run"
)

func testEnv(n int) *run.Env {
	p := params.Default()
	p.Simulations = n
	return run.New(p, 7, 0)
}

func constantIntervention(name string, dalysPer1000 float64) *intervention.Intervention {
	return intervention.New(name, "", &intervention.Result{ResultDistribution: dist.Constant(dalysPer1000)})
}

// fixedProject moves $10M a year with certainty for one year, costs one
// staff year at $100K and is funded entirely by the current intervention.
func fixedProject(target, current float64) *Project {
	pool := funding.NewSpecifiedPool(constantIntervention("current", current), "")
	return &Project{
		ShortName:                  "fixed",
		FTEYears:                   dist.Constant(1),
		CostPerStaffYear:           dist.Constant(100_000),
		ConclusionsRequireUpdating: dist.Constant(1),
		TargetUpdating:             dist.Constant(1),
		MoneyInAreaMillions:        dist.Constant(10),
		PercentMoneyInfluenceable:  dist.Constant(1),
		YearsCredit:                dist.Constant(1),
		TargetIntervention:         constantIntervention("target", target),
		Profile:                    funding.SinglePool("Funded by Client", pool),
	}
}

func TestAssessFixedROI(t *testing.T) {
	// 100 vs 50 DALYs per dollar over $10M is 500M DALYs gross; the $100K of
	// research would have bought 5M DALYs.
	a, err := fixedProject(100_000, 50_000).Assess(context.Background(), testEnv(200))
	require.NoError(t, err)

	require.Len(t, a.BottomLines, 1)
	bl := a.BottomLines[0]
	assert.Equal(t, funding.SpecifiedPoolName, bl.Pool)
	assert.InDelta(t, 99, bl.AverageROI, 1e-9)
	for i := range bl.ROI.Data {
		assert.InDelta(t, 99, bl.ROI.Data[i], 1e-9)
		assert.InDelta(t, 5000, bl.GrossDALYsPer1000.Data[i]/1000, 1e-9)
		assert.InDelta(t, 500e6, a.Gross.Data[i], 1e-3)
		assert.InDelta(t, 495e6, a.Net.Data[i], 1e-3)
		assert.InDelta(t, 495e6, a.NetPerStaffYear.Data[i], 1e-3)
	}
	assert.Len(t, a.Cost, 200)
	assert.Len(t, a.YearsCredit, 200)
	assert.NotEmpty(t, a.ID)
}

func TestAssessEqualCounterfactual(t *testing.T) {
	a, err := fixedProject(50_000, 50_000).Assess(context.Background(), testEnv(200))
	require.NoError(t, err)
	bl := a.BottomLines[0]
	assert.InDelta(t, -1, bl.AverageROI, 1e-9)
	for _, v := range bl.ROI.Data {
		assert.InDelta(t, -1, v, 1e-9)
	}
	assert.InDelta(t, 0, a.Gross.Sum(), 1e-9)
}

func TestNetImpactModes(t *testing.T) {
	build := func(mode NetImpactMode) *Project {
		p := fixedProject(100_000, 50_000)
		a := funding.NewSpecifiedPool(constantIntervention("a", 50_000), "a")
		b := funding.NewSpecifiedPool(constantIntervention("b", 50_000), "b")
		profile, err := funding.NewProfile("split",
			[]funding.Weighted{{Pool: a, Weight: 0.5}, {Pool: b, Weight: 0.5}},
			p.Profile.Intervention)
		require.NoError(t, err)
		p.Profile = profile
		p.NetImpactMode = mode
		return p
	}

	tests := []struct {
		mode NetImpactMode
		net  float64
	}{
		{"", 497.5e6},
		{NetImpactOverwrite, 497.5e6},
		{NetImpactAccumulate, 495e6},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			a, err := build(tt.mode).Assess(context.Background(), testEnv(50))
			require.NoError(t, err)
			require.Len(t, a.BottomLines, 2)
			for _, v := range a.Net.Data {
				assert.InDelta(t, tt.net, v, 1e-3)
			}
			for _, bl := range a.BottomLines {
				assert.InDelta(t, 0.5, bl.Weight, 1e-12)
				// Half the net impact over half the cost.
				assert.InDelta(t, tt.net/5e6, bl.AverageROI, 1e-9)
			}
		})
	}
}

func TestAssessRejectsInvalidProject(t *testing.T) {
	p := fixedProject(1, 1)
	p.NetImpactMode = "sideways"
	_, err := p.Assess(context.Background(), testEnv(10))
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))

	p = fixedProject(1, 1)
	p.YearsCredit = dist.Distribution{}
	_, err = p.Assess(context.Background(), testEnv(10))
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))
}

func TestCatalog(t *testing.T) {
	c, err := NewCatalog(intervention.Default(), CatalogOptions{})
	require.NoError(t, err)

	groups := map[string]int{GroupGHD: 6, GroupAnimalWelfare: 5, GroupXRisk: 7, GroupOthers: 6}
	total := 0
	for name, want := range groups {
		got, err := c.Group(name)
		require.NoError(t, err)
		assert.Len(t, got, want, name)
		total += want
	}
	all, err := c.Group(GroupAll)
	require.NoError(t, err)
	assert.Len(t, all, total)

	_, err = c.Group("astrology")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	_, err = c.Get("no such project")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	eq, err := c.Get("Equivalence Test")
	require.NoError(t, err)
	assert.Len(t, eq.Profile.Research, 2)
	assert.Equal(t, "RP Capital", eq.Profile.Research[1].Pool.Name)
}

func TestAssessCatalogProjects(t *testing.T) {
	c, err := NewCatalog(intervention.Default(), CatalogOptions{})
	require.NoError(t, err)
	for _, short := range []string{"GHD project (large)", "Chicken project", "Equivalence Test",
		"A significant update to relatively ineffective nuclear risk project"} {
		t.Run(short, func(t *testing.T) {
			p, err := c.Get(short)
			require.NoError(t, err)
			a, err := p.Assess(context.Background(), testEnv(1000))
			require.NoError(t, err)
			assert.Equal(t, a.Gross.NNZ(), a.Net.NNZ())
			assert.Len(t, a.BottomLines, len(p.Profile.Research))
		})
	}
}

func sheetRows() []SheetRow {
	zero, one := 0.0, 1.0
	return []SheetRow{{
		ShortName:                  "Sheet project",
		Name:                       "A project from a sheet",
		Description:                "Loaded, not built in.",
		Cause:                      "GHD",
		TargetIntervention:         "$45 per DALY",
		CurrentIntervention:        "$50 per DALY",
		FTEYears:                   SheetDistribution{Kind: "normal", Low: 0.1, High: 0.3, LClip: &zero},
		ConclusionsRequireUpdating: SheetDistribution{Kind: "normal", Low: 0.2, High: 0.4, LClip: &zero, RClip: &one},
		TargetUpdating:             SheetDistribution{Kind: "normal", Low: 0.5, High: 0.9, LClip: &zero, RClip: &one},
		MoneyInAreaMillions:        SheetDistribution{Kind: "lognormal", Low: 5, High: 50},
		PercentMoneyInfluenceable:  SheetDistribution{Kind: "normal", Low: 0.1, High: 0.3, LClip: &zero, RClip: &one},
		YearsCredit:                SheetDistribution{Kind: "lognormal", Low: 1, High: 4},
	}}
}

func TestLoadProjectsRoundTrip(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "projects"+ext)
			require.NoError(t, WriteSheet(path, sheetRows()))

			projects, err := LoadProjects(path, intervention.Default())
			require.NoError(t, err)
			require.Len(t, projects, 1)

			p := projects[0]
			assert.Equal(t, "Sheet project", p.ShortName)
			assert.Equal(t, "$45 per DALY", p.TargetIntervention.Name)
			assert.Equal(t, "Counterfactual - $50 per DALY", p.Profile.Research[0].Pool.Name)
			assert.Same(t, p.Profile.Research[0].Pool, p.Profile.Intervention[0].Pool)
			assert.Equal(t, dist.FamilyLognormal, p.MoneyInAreaMillions.ResolvedFamily())
			require.NotNil(t, p.FTEYears.Clip)
			assert.Nil(t, p.FTEYears.Clip.Upper)

			_, err = p.Assess(context.Background(), testEnv(500))
			assert.NoError(t, err)
		})
	}
}

func TestParseSheetErrors(t *testing.T) {
	header := SheetColumns()
	record := sheetRows()[0].Record()

	_, err := ParseSheet([][]string{header[1:], record[1:]})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput), "missing column: %v", err)

	bad := append([]string(nil), record...)
	bad[len(identityColumns)+1] = "lots"
	_, err = ParseSheet([][]string{header, bad})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput), "bad number: %v", err)

	rows, err := ParseSheet([][]string{header, record, make([]string, len(header))})
	require.NoError(t, err)
	assert.Len(t, rows, 1, "blank rows are skipped")

	unknown := sheetRows()[0]
	unknown.TargetIntervention = "Perpetual Motion"
	_, err = unknown.Project(intervention.Default())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	weird := sheetRows()[0]
	weird.YearsCredit.Kind = "pareto"
	_, err = weird.Project(intervention.Default())
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))
}

func TestProjectModel(t *testing.T) {
	body := `{
		"id": "custom",
		"name": "Custom",
		"description": "",
		"attributes": {
			"fte_years": {"type": "constant", "value": 1},
			"cost_per_staff_year": {"type": "constant", "value": 100000},
			"conclusions_require_updating": {"type": "constant", "value": 1},
			"target_updating": {"type": "constant", "value": 1},
			"money_in_area_millions": {"type": "constant", "value": 10},
			"percent_money_influenceable": {"type": "constant", "value": 1},
			"years_credit": {"type": "constant", "value": 1}
		},
		"source_intervention": "$20 per DALY",
		"target_intervention": {"type": "result", "name": "inline", "result_distribution": {"type": "constant", "value": 100}}
	}`
	var m ProjectModel
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "$20 per DALY", m.SourceIntervention.Name)
	require.NotNil(t, m.TargetIntervention.Inline)

	p, err := m.ToProject(intervention.Default())
	require.NoError(t, err)
	assert.Equal(t, "Unknown Funding Profile", p.Profile.Name)
	assert.Equal(t, "$20 per DALY", p.SourceIntervention().Name)

	out, err := json.Marshal(NewProjectModel(p))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"id":"custom"`)

	m.SourceIntervention = InterventionRef{Name: "Perpetual Motion"}
	_, err = m.ToProject(intervention.Default())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestAssessmentModel(t *testing.T) {
	a, err := fixedProject(100_000, 50_000).Assess(context.Background(), testEnv(20))
	require.NoError(t, err)
	m := NewAssessmentModel(a)
	assert.Equal(t, "fixed", m.ID)
	assert.Len(t, m.NetImpact.Samples, 20)
	assert.Equal(t, 0, m.NetImpact.NumZeros)
	require.Len(t, m.BottomLines, 1)
	assert.InDelta(t, 99, m.BottomLines[0].AverageROI, 1e-9)
}

func TestReport(t *testing.T) {
	a, err := fixedProject(100_000, 50_000).Assess(context.Background(), testEnv(50))
	require.NoError(t, err)

	r := NewReport(a)
	assert.Equal(t, "fixed", r.ID)
	assert.Equal(t, a.ID, r.AssessmentID)
	assert.Equal(t, 50, r.Cost.N)
	assert.InDelta(t, 100_000, r.Cost.Mean, 1e-6)
	assert.InDelta(t, 495e6, r.NetImpact.Median, 1e-3)
	require.Len(t, r.BottomLines, 1)
	assert.InDelta(t, 99, r.BottomLines[0].ROI.Mean, 1e-9)
}
