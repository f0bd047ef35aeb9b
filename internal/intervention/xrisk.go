package intervention

import (
	"context"
	"math"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/impact"
	"ccm/internal/population"
	"ccm/internal/risk"
	"ccm/internal/run"
	"ccm/internal/sample"
)

const (
	minProjectCost = 5e6
	maxProjectCost = 100e9
)

// XRisk is an intervention that changes the extinction and catastrophe risk
// of one risk type for a number of years.
type XRisk struct {
	RiskType risk.Type `json:"risk_type" yaml:"risk_type"`
	// Cost is derived from the size of the effect when unset.
	Cost                     *dist.Distribution `json:"cost,omitempty" yaml:"cost,omitempty"`
	Persistence              dist.Distribution  `json:"persistence" yaml:"persistence"`
	ProbGood                 float64            `json:"prob_good" yaml:"prob_good" validate:"gte=0,lte=1"`
	ProbNoEffect             float64            `json:"prob_no_effect" yaml:"prob_no_effect" validate:"gte=0,lte=1"`
	IntensityBad             float64            `json:"intensity_bad" yaml:"intensity_bad" validate:"gte=0"`
	EffectOnXRisk            dist.Distribution  `json:"effect_on_xrisk" yaml:"effect_on_xrisk"`
	EffectOnCatastrophicRisk dist.Distribution  `json:"effect_on_catastrophic_risk" yaml:"effect_on_catastrophic_risk"`
}

// XRiskOption adjusts an XRisk built by NewXRisk.
type XRiskOption func(*XRisk)

func WithCost(d dist.Distribution) XRiskOption {
	return func(x *XRisk) { x.Cost = &d }
}

func WithProbNoEffect(p float64) XRiskOption {
	return func(x *XRisk) { x.ProbNoEffect = p }
}

// WithEffects sets the proportional reduction of extinction and catastrophe
// risk when the intervention works.
func WithEffects(onXRisk, onCatastrophe dist.Distribution) XRiskOption {
	return func(x *XRisk) {
		x.EffectOnXRisk = onXRisk
		x.EffectOnCatastrophicRisk = onCatastrophe
	}
}

func WithPersistence(d dist.Distribution) XRiskOption {
	return func(x *XRisk) { x.Persistence = d }
}

func NewXRisk(t risk.Type, opts ...XRiskOption) *XRisk {
	x := defaultXRisk(t)
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func defaultXRisk(t risk.Type) *XRisk {
	effect := dist.Must(dist.Lognorm(0.005, 0.05, dist.LClip(0), dist.RClip(0.2)))
	return &XRisk{
		RiskType:                 t,
		Persistence:              dist.Must(dist.Lognorm(15, 25, dist.LClip(0))),
		ProbGood:                 0.7,
		ProbNoEffect:             0.2,
		IntensityBad:             0.3,
		EffectOnXRisk:            effect,
		EffectOnCatastrophicRisk: effect,
	}
}

func (*XRisk) Kind() Kind { return KindXRisk }

func (x *XRisk) Validate() error {
	if x.RiskType == "" {
		return apperr.Validation("risk_type is required")
	}
	if !x.RiskType.Valid() {
		return apperr.Validation("unknown risk type %q", x.RiskType)
	}
	if x.RiskType == risk.AI {
		return apperr.Validation("choose %q or %q rather than the AI aggregate", risk.Misalignment, risk.Misuse)
	}
	if err := validate.Struct(x); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, err)
	}
	for _, d := range []dist.Distribution{x.Persistence, x.EffectOnXRisk, x.EffectOnCatastrophicRisk} {
		if d.IsZero() {
			return apperr.Validation("persistence and effect distributions are required")
		}
		if err := d.Validate(); err != nil {
			return err
		}
	}
	if x.Cost != nil {
		return x.Cost.Validate()
	}
	return nil
}

func (x *XRisk) estimate(ctx context.Context, env *run.Env) (sample.ZeroInflated, error) {
	saved, err := x.HealthyYearsSaved(ctx, env)
	if err != nil {
		return sample.ZeroInflated{}, err
	}

	var cost []float64
	if x.Cost != nil {
		cost = x.Cost.Sample(env.Rand, len(saved.Values))
	} else {
		cost = x.derivedCost(env, len(saved.Values))
	}
	out := make([]float64, len(saved.Values))
	for i, v := range saved.Values {
		out[i] = 1000 * v / cost[i]
	}
	return sample.ZeroInflated{Values: out, Zeros: saved.Zeros}, nil
}

// HealthyYearsSaved estimates life-years saved in the worlds where the
// intervention changes an extinction or catastrophe, and counts the worlds
// where it changes nothing as implicit zeros. The result holds N values.
func (x *XRisk) HealthyYearsSaved(ctx context.Context, env *run.Env) (sample.ZeroInflated, error) {
	lt := env.Params.LongTerm
	ratio, ok := lt.CatastropheExtinctionRatios[x.RiskType]
	if !ok {
		return sample.ZeroInflated{}, apperr.Validation("no catastrophe ratio for risk type %q", x.RiskType)
	}
	intensity, ok := lt.CatastropheIntensities[x.RiskType]
	if !ok {
		return sample.ZeroInflated{}, apperr.Validation("no catastrophe intensity for risk type %q", x.RiskType)
	}
	method, err := impact.FromParameters(env.Params)
	if err != nil {
		return sample.ZeroInflated{}, err
	}
	tl, err := env.Timeline()
	if err != nil {
		return sample.ZeroInflated{}, err
	}

	n := env.N()
	years := x.Persistence.Sample(env.Rand, n)
	for i, y := range years {
		years[i] = math.Trunc(y)
	}

	conditionalX, err := x.conditionalXRisk(ctx, env, method, tl, years)
	if err != nil {
		return sample.ZeroInflated{}, err
	}
	events := int(float64(len(conditionalX)) * ratio)
	deaths := sample.Scale(intensity.Sample(env.Rand, events), population.Now)
	conditionalC := population.LifeYearsLost(deaths)

	saved := append(x.backfire(env, conditionalX), x.backfire(env, conditionalC)...)

	propX := x.propChanged(env, tl.CumulativeRiskOverYearsByType(x.RiskType, years), x.EffectOnXRisk)
	propC := x.propChanged(env, tl.CumulativeCatastropheRisk(x.RiskType, ratio, years), x.EffectOnCatastrophicRisk)
	if propX+propC <= 0 {
		// nothing can be changed, so every world is an explicit zero
		return sample.ZeroInflated{Values: make([]float64, n)}, nil
	}
	zeros := int(float64(len(saved)) / (propX + propC))

	return sample.ZeroInflated{Values: saved, Zeros: zeros}.Resize(env.Rand, n), nil
}

// conditionalXRisk returns the life-years saved in worlds where an extinction
// of this type is certain to be averted while the intervention persists.
// Worlds where it makes no difference are dropped.
func (x *XRisk) conditionalXRisk(ctx context.Context, env *run.Env, method impact.Method, tl *risk.Timeline, years []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	delays, err := impact.SampleYearsCredit(env.Rand, tl.YearsToExtinction(), sample.Ones(len(years)), years, env.MaxIterations)
	if err != nil {
		return nil, err
	}
	impact.Trim(method, env.Params, delays)
	return sample.NonZero(population.LifeYearsUntil(env.Rand, env.Params, delays)), nil
}

// propChanged is the expected share of worlds in which the intervention
// changes an event whose cumulative probability is given per world.
func (x *XRisk) propChanged(env *run.Env, cumulative []float64, effect dist.Distribution) float64 {
	e := effect.Sample(env.Rand, len(cumulative))
	total := 0.0
	for i, c := range cumulative {
		total += c * (1 - x.ProbNoEffect) * e[i]
	}
	if len(cumulative) == 0 {
		return 0
	}
	return total / float64(len(cumulative))
}

// backfire negates each value with the probability that an intervention
// which had an effect made things worse.
func (x *XRisk) backfire(env *run.Env, values []float64) []float64 {
	pg, ib := x.ProbGood, x.IntensityBad
	denom := pg + (1-pg)*ib
	pBad := 0.0
	if denom > 0 {
		pBad = (1 - pg) * ib / denom
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v
		if env.Rand.Float64() < pBad {
			out[i] = -v
		}
	}
	return out
}

// derivedCost models project cost as a steep function of the size of the
// intended effect on x-risk, with normal noise, clipped to [5M, 100B].
func (x *XRisk) derivedCost(env *run.Env, n int) []float64 {
	effect := x.EffectOnXRisk.Sample(env.Rand, n)
	out := make([]float64, n)
	for i := range out {
		modifier := 1.0
		if env.Rand.Float64() >= x.ProbGood {
			modifier = -x.IntensityBad
		}
		magnitude := math.Abs(modifier * (1 - x.ProbNoEffect) * effect[i])
		mu := magnitude / 0.005 * 1e13 * math.Exp(-13*(1-magnitude))
		cost := env.Rand.NormFloat64()*mu/3 + mu
		out[i] = math.Min(math.Max(cost, minProjectCost), maxProjectCost)
	}
	return out
}
