package intervention

import (
	"context"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/moralweight"
	"ccm/internal/run"
	"ccm/internal/sample"
)

// Animal is a welfare intervention for one farmed species. Its result is
// human-equivalent DALYs per $1000 after moral-weight adjustment.
type Animal struct {
	Animal               moralweight.Animal `json:"animal" yaml:"animal"`
	UseOverride          bool               `json:"use_override" yaml:"use_override"`
	PropAffected         dist.Distribution  `json:"prop_affected" yaml:"prop_affected"`
	HoursSpentSuffering  dist.Distribution  `json:"hours_spent_suffering" yaml:"hours_spent_suffering"`
	PropSufferingReduced dist.Distribution  `json:"prop_suffering_reduced" yaml:"prop_suffering_reduced"`
	ProbSuccess          dist.Distribution  `json:"prob_success" yaml:"prob_success"`
	Cost                 dist.Distribution  `json:"cost_of_intervention" yaml:"cost_of_intervention"`
	Persistence          dist.Distribution  `json:"persistence" yaml:"persistence"`
	// SufferingYearsOverride is suffering-years averted per $1000, used
	// instead of the model when UseOverride is set.
	SufferingYearsOverride dist.Distribution `json:"suffering_years_per_dollar_override" yaml:"suffering_years_per_dollar_override"`
}

// GenericAnimal returns an intervention for a with the species-agnostic
// defaults.
func GenericAnimal(a moralweight.Animal) *Animal {
	const k, m = 1e3, 1e6
	return &Animal{
		Animal:                 a,
		PropAffected:           dist.Must(dist.Lognorm(5e-5, 1e-3, dist.LClip(1e-6), dist.RClip(5e-3))),
		HoursSpentSuffering:    dist.Must(dist.Norm(0.0072/24/365, 0.62/24/365, dist.LClip(0), dist.RClip(0.95))),
		PropSufferingReduced:   dist.Must(dist.Lognorm(0.5, 0.9, dist.LClip(0.1), dist.RClip(0.99))),
		ProbSuccess:            dist.Must(dist.Lognorm(0.2, 0.8, dist.LClip(0.05), dist.RClip(0.95))),
		Cost:                   dist.Must(dist.Lognorm(150*k, 1*m, dist.LClip(100*k), dist.RClip(1*m))),
		Persistence:            dist.Must(dist.Lognorm(5, 20, dist.LClip(1))),
		SufferingYearsOverride: dist.Must(dist.Norm(0.16*k, 3.63*k, dist.LClip(0.016*k))),
	}
}

// DefaultAnimal returns the reference intervention for a, with species
// specific suffering, success and reduction estimates.
func DefaultAnimal(a moralweight.Animal) *Animal {
	out := GenericAnimal(a)
	switch a {
	case moralweight.BSF:
		// 22-24 larval days; persistent suffering as bad as 1/20 to 1/5 of a DALY
		out.HoursSpentSuffering = dist.Must(dist.Norm(24*22/20.0, 24*24/5.0, dist.LClip(20), dist.RClip(26)))
		out.PropSufferingReduced = dist.Must(dist.Beta(9, 4))
		out.ProbSuccess = dist.Must(dist.Beta(3, 3))
	case moralweight.Carp:
		// culture cycle of about 383 days from hatching to harvest
		out.HoursSpentSuffering = dist.Must(dist.Norm(24*345/20.0, 24*421/5.0, dist.LClip(300), dist.RClip(500)))
		out.PropSufferingReduced = dist.Must(dist.Beta(1.6, 19))
		out.ProbSuccess = dist.Must(dist.Beta(3, 3))
	case moralweight.Shrimp:
		out.HoursSpentSuffering = dist.Must(dist.Norm(0.0072, 0.62, dist.LClip(0), dist.RClip(0.95)))
		out.PropSufferingReduced = dist.Must(dist.Beta(9, 4))
		out.ProbSuccess = dist.Must(dist.Beta(3, 3))
	case moralweight.Chicken:
		out.UseOverride = true
		out.SufferingYearsOverride = dist.Must(dist.Norm(160, 3630, dist.LClip(16), dist.RClip(100e3)))
	}
	return out
}

func (*Animal) Kind() Kind { return KindAnimal }

func (a *Animal) Validate() error {
	if _, err := moralweight.ParseAnimal(string(a.Animal)); err != nil {
		return apperr.Validation("unknown animal %q", a.Animal)
	}
	if !a.Animal.IsIntervenable() {
		return apperr.Validation("no welfare interventions are modelled for %q", a.Animal)
	}
	for name, d := range a.distributions() {
		if d.IsZero() {
			return apperr.Validation("%s is required", name)
		}
		if err := d.Validate(); err != nil {
			return apperr.Wrapf(err, "%s", name)
		}
	}
	return nil
}

func (a *Animal) distributions() map[string]dist.Distribution {
	return map[string]dist.Distribution{
		"prop_affected":                       a.PropAffected,
		"hours_spent_suffering":               a.HoursSpentSuffering,
		"prop_suffering_reduced":              a.PropSufferingReduced,
		"prob_success":                        a.ProbSuccess,
		"cost_of_intervention":                a.Cost,
		"persistence":                         a.Persistence,
		"suffering_years_per_dollar_override": a.SufferingYearsOverride,
	}
}

func (a *Animal) estimate(_ context.Context, env *run.Env) (sample.ZeroInflated, error) {
	n := env.N()
	var perThousand []float64
	if a.UseOverride {
		perThousand = a.SufferingYearsOverride.Sample(env.Rand, n)
	} else {
		perDollar, err := a.sufferingYearsPerDollar(env)
		if err != nil {
			return sample.ZeroInflated{}, err
		}
		perThousand = sample.Scale(perDollar, 1000)
	}

	adjust, err := moralweight.Adjustor(env.Rand, env.Params.Animal.MoralWeights, a.Animal, n)
	if err != nil {
		return sample.ZeroInflated{}, err
	}
	return sample.ZeroInflated{Values: sample.Mul(perThousand, adjust)}, nil
}

// sufferingYearsPerDollar is the expected years of suffering averted per
// dollar, zero in worlds where the intervention fails.
func (a *Animal) sufferingYearsPerDollar(env *run.Env) ([]float64, error) {
	n := env.N()
	bornDist, ok := env.Params.Animal.BornPerYear[a.Animal]
	if !ok {
		return nil, apperr.Validation("no birth rate configured for %q", a.Animal)
	}
	hours := a.HoursSpentSuffering.Sample(env.Rand, n)
	reduced := a.PropSufferingReduced.Sample(env.Rand, n)
	affected := a.PropAffected.Sample(env.Rand, n)
	persistence := a.Persistence.Sample(env.Rand, n)
	cost := a.Cost.Sample(env.Rand, n)
	born := bornDist.Sample(env.Rand, n)
	success := a.ProbSuccess.Sample(env.Rand, n)

	out := make([]float64, n)
	for i := range out {
		if success[i] < env.Rand.Float64() {
			continue
		}
		annual := born[i] * affected[i] * (hours[i] / moralweight.HoursPerYear) * reduced[i]
		out[i] = annual * persistence[i] / cost[i]
	}
	return out, nil
}
