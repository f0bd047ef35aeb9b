// Package impact converts changes in existential and catastrophic risk into
// healthy life-years, using one of several crediting methods.
package impact

import (
	"context"
	"math"

	"ccm/internal/apperr"
	"ccm/internal/params"
	"ccm/internal/population"
	"ccm/internal/risk"
	"ccm/internal/run"
	"ccm/internal/sample"
)

// Method is a strategy for crediting life-years from a change in risk.
type Method interface {
	Name() string
	Description() string
	// Horizon is the last calendar year impact may be credited to.
	Horizon(p *params.Parameters) int
	Timeline(p *params.Parameters) (*risk.Timeline, error)
	// Impact returns per-world life-years gained (negative when lost) from
	// changing the extinction risk of t by propExtinction for yearsActive.
	Impact(ctx context.Context, env *run.Env, t risk.Type, propExtinction, propCatastrophe, yearsActive []float64) ([]float64, error)
}

type base struct {
	name        string
	description string
}

func (b base) Name() string        { return b.name }
func (b base) Description() string { return b.description }

type ExpectedYearsSaved struct{ base }

type ThousandYearImpact struct{ base }

type TimeOfPerils struct{ base }

func NewExpectedYearsSaved() ExpectedYearsSaved {
	return ExpectedYearsSaved{base{
		name:        params.MethodExpectedYearsSaved,
		description: "Estimating the expected years saved and calculating impact for population over that period",
	}}
}

func NewThousandYearImpact() ThousandYearImpact {
	return ThousandYearImpact{base{
		name: params.MethodThousandYearImpact,
		description: "Estimating the expected years saved assuming extinction in 1000 years, and calculating " +
			"impact for population over that period",
	}}
}

func NewTimeOfPerils() TimeOfPerils {
	return TimeOfPerils{base{
		name: params.MethodTimeOfPerils,
		description: "Estimating the expected years saved and calculating impact for population over that period, " +
			"assuming the Time of Perils ends in 2100, at which time x-risk is substantially reduced and " +
			"population spreads throughout the stars",
	}}
}

// Methods lists every crediting method in display order.
func Methods() []Method {
	return []Method{NewExpectedYearsSaved(), NewThousandYearImpact(), NewTimeOfPerils()}
}

func MethodByName(name string) (Method, error) {
	for _, m := range Methods() {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, apperr.NotFound("impact method " + name)
}

// FromParameters returns the method selected by p.
func FromParameters(p *params.Parameters) (Method, error) {
	return MethodByName(p.ImpactMethod.Method)
}

func (ExpectedYearsSaved) Horizon(p *params.Parameters) int {
	return p.LongTerm.MaxCreditableYear
}

func (ExpectedYearsSaved) Timeline(p *params.Parameters) (*risk.Timeline, error) {
	return p.Timeline()
}

func (m ExpectedYearsSaved) Impact(ctx context.Context, env *run.Env, t risk.Type, propExtinction, propCatastrophe, yearsActive []float64) ([]float64, error) {
	return baseImpact(ctx, m, env, t, propExtinction, yearsActive)
}

// Horizon ends a thousand years from now, or earlier if the creditable
// window is shorter.
func (ThousandYearImpact) Horizon(p *params.Parameters) int {
	return min(p.LongTerm.MaxCreditableYear, p.CurrentYear+1000)
}

func (ThousandYearImpact) Timeline(p *params.Parameters) (*risk.Timeline, error) {
	return p.Timeline()
}

func (m ThousandYearImpact) Impact(ctx context.Context, env *run.Env, t risk.Type, propExtinction, propCatastrophe, yearsActive []float64) ([]float64, error) {
	return baseImpact(ctx, m, env, t, propExtinction, yearsActive)
}

func (TimeOfPerils) Horizon(p *params.Parameters) int {
	return p.LongTerm.MaxCreditableYear
}

// Timeline replaces the configured eras with a short high-risk period that
// gives way to near-zero risk.
func (TimeOfPerils) Timeline(p *params.Parameters) (*risk.Timeline, error) {
	eras, err := risk.TimeOfPerilsEras(p.LongTerm.AIMisuseToMisalignment)
	if err != nil {
		return nil, err
	}
	return risk.NewTimeline(eras, p.CurrentYear)
}

func (m TimeOfPerils) Impact(ctx context.Context, env *run.Env, t risk.Type, propExtinction, propCatastrophe, yearsActive []float64) ([]float64, error) {
	return baseImpact(ctx, m, env, t, propExtinction, yearsActive)
}

// Trim caps years of credit at the method horizon, in place.
func Trim(m Method, p *params.Parameters, years []float64) []float64 {
	limit := float64(m.Horizon(p) - p.CurrentYear)
	for i, y := range years {
		if y > limit {
			years[i] = limit
		}
	}
	return years
}

// baseImpact only uses the sign rate of propExtinction: every world is
// either a full success or a full backfire. The catastrophe proportion
// is likewise replaced by the per-world sign.
func baseImpact(ctx context.Context, m Method, env *run.Env, t risk.Type, propExtinction, yearsActive []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(propExtinction)
	if len(yearsActive) != n {
		return nil, apperr.Validation("impact: %d risk changes but %d durations", n, len(yearsActive))
	}
	if t == risk.AI {
		return nil, apperr.Validation("impact needs a concrete AI risk type, not %q", t)
	}

	nonZero := sample.CountNonZero(propExtinction)
	if nonZero == 0 {
		return make([]float64, n), nil
	}
	positive := 0
	for _, v := range propExtinction {
		if v > 0 {
			positive++
		}
	}
	probGood := float64(positive) / float64(nonZero)
	goodOrBad := make([]float64, n)
	for i := range goodOrBad {
		goodOrBad[i] = -1
		if env.Rand.Float64() < probGood {
			goodOrBad[i] = 1
		}
	}

	tl, err := m.Timeline(env.Params)
	if err != nil {
		return nil, err
	}
	xrisk, err := xriskLifeYears(m, env, tl, t, goodOrBad, yearsActive)
	if err != nil {
		return nil, err
	}
	catastrophe, err := catastropheLifeYears(env, tl, t, goodOrBad, yearsActive)
	if err != nil {
		return nil, err
	}
	return sample.Add(xrisk, catastrophe), nil
}

func xriskLifeYears(m Method, env *run.Env, tl *risk.Timeline, t risk.Type, change, yearsActive []float64) ([]float64, error) {
	byType := tl.AverageRiskOverYearsByType(t, yearsActive)
	total := tl.AverageRiskOverYears(yearsActive)
	changes := make([]float64, len(change))
	for i := range changes {
		if total[i] > 0 {
			changes[i] = change[i] * byType[i] / total[i]
		}
	}

	delays, err := SampleYearsCredit(env.Rand, tl.YearsToExtinction(), changes, yearsActive, env.MaxIterations)
	if err != nil {
		return nil, err
	}
	signs := make([]float64, len(delays))
	for i, d := range delays {
		signs[i] = 1
		if d < 0 {
			signs[i] = -1
		}
		delays[i] = math.Abs(d)
	}
	Trim(m, env.Params, delays)
	return sample.Mul(population.LifeYearsUntil(env.Rand, env.Params, delays), signs), nil
}

func catastropheLifeYears(env *run.Env, tl *risk.Timeline, t risk.Type, change, yearsActive []float64) ([]float64, error) {
	lt := env.Params.LongTerm
	ratio, ok := lt.CatastropheExtinctionRatios[t]
	if !ok {
		return nil, apperr.Validation("no catastrophe ratio for risk type %q", t)
	}
	intensity, ok := lt.CatastropheIntensities[t]
	if !ok {
		return nil, apperr.Validation("no catastrophe intensity for risk type %q", t)
	}

	prob := tl.CumulativeCatastropheRisk(t, ratio, yearsActive)
	deaths := sample.Scale(intensity.Sample(env.Rand, len(change)), population.Now)
	out := make([]float64, len(change))
	for i := range out {
		if env.Rand.Float64() < math.Abs(change[i])*prob[i] {
			out[i] = deaths[i]
		}
	}
	out = population.LifeYearsLost(out)
	for i := range out {
		if change[i] < 0 {
			out[i] = -out[i]
		}
	}
	return out, nil
}
