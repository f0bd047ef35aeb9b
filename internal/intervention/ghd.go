package intervention

import (
	"context"
	"math"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/run"
	"ccm/internal/sample"
)

// Cost per DALY of the three funding bars used as GHD benchmarks.
var (
	OpenPhilanthropyBar = dist.Must(dist.Norm(40, 60, dist.LClip(1), dist.Credibility(80)))
	GiveWellBar         = dist.Must(dist.Norm(31, 81, dist.LClip(10), dist.Credibility(80)))
	GiveDirectlyBar     = dist.Must(dist.Norm(460, 836, dist.LClip(1), dist.Credibility(80)))
)

// GHD is a global health and development intervention with a known cost per
// DALY averted.
type GHD struct {
	CostPerDALY      dist.Distribution `json:"cost_per_daly" yaml:"cost_per_daly"`
	YearsUntilEffect dist.Distribution `json:"years_until_intervention_has_effect" yaml:"years_until_intervention_has_effect"`
}

func DefaultGHD() *GHD {
	return &GHD{
		CostPerDALY:      dist.Must(dist.Norm(31, 81, dist.LClip(10))),
		YearsUntilEffect: dist.Must(dist.Lognorm(2, 20)),
	}
}

// NewGHD returns a GHD intervention costing costPerDALY.
func NewGHD(costPerDALY dist.Distribution) *GHD {
	g := DefaultGHD()
	g.CostPerDALY = costPerDALY
	return g
}

func (*GHD) Kind() Kind { return KindGHD }

func (g *GHD) Validate() error {
	if g.CostPerDALY.IsZero() || g.YearsUntilEffect.IsZero() {
		return apperr.Validation("cost_per_daly and years_until_intervention_has_effect are required")
	}
	if err := g.CostPerDALY.Validate(); err != nil {
		return err
	}
	return g.YearsUntilEffect.Validate()
}

func (g *GHD) estimate(_ context.Context, env *run.Env) (sample.ZeroInflated, error) {
	n := env.N()
	survival, err := g.survival(env)
	if err != nil {
		return sample.ZeroInflated{}, err
	}
	cost := g.CostPerDALY.Sample(env.Rand, n)
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 / (cost[i] / survival[i])
	}
	return sample.ZeroInflated{Values: out}, nil
}

// survival is the chance, per world, that nobody goes extinct before the
// intervention pays off. It is 1 unless the parameters ask for the x-risk
// adjustment.
func (g *GHD) survival(env *run.Env) ([]float64, error) {
	n := env.N()
	if !env.Params.GHD.AdjustForXRisk {
		return sample.Ones(n), nil
	}
	tl, err := env.Timeline()
	if err != nil {
		return nil, err
	}
	years := g.YearsUntilEffect.Sample(env.Rand, n)
	for i, y := range years {
		years[i] = math.Max(math.Round(y), 0)
	}
	cumulative := tl.CumulativeRiskOverYears(years)
	out := make([]float64, n)
	for i, c := range cumulative {
		out[i] = math.Max(1-c, 0)
	}
	return out, nil
}
