package dist

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws n independent samples.
type Sampler interface {
	Sample(rng *rand.Rand, n int) []float64
}

// NewRand returns a deterministic PCG-backed generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Z returns the standard-normal quantile bounding the central credibility
// interval, e.g. 1.6449 for 90.
func Z(credibility int) float64 {
	return distuv.UnitNormal.Quantile(0.5 + float64(credibility)/200)
}

// Params returns the location and scale of a confidence distribution. For
// lognormals they are in log space.
func (d Distribution) Params() (mu, sigma float64) {
	lo, hi := d.Range[0], d.Range[1]
	if d.ResolvedFamily() == FamilyLognormal {
		lo, hi = math.Log(lo), math.Log(hi)
	}
	cred := d.Credibility
	if cred == 0 {
		cred = DefaultCredibility
	}
	return (lo + hi) / 2, (hi - lo) / (2 * Z(cred))
}

// Sample implements Sampler. It panics on a distribution that was never
// validated.
func (d Distribution) Sample(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	switch d.Type {
	case TypeConstant:
		for i := range out {
			out[i] = *d.Value
		}
	case TypeUniform:
		fill(out, distuv.Uniform{Min: d.Range[0], Max: d.Range[1], Src: rng}.Rand)
	case TypeConfidence:
		mu, sigma := d.Params()
		if d.ResolvedFamily() == FamilyLognormal {
			fill(out, distuv.LogNormal{Mu: mu, Sigma: sigma, Src: rng}.Rand)
		} else {
			fill(out, distuv.Normal{Mu: mu, Sigma: sigma, Src: rng}.Rand)
		}
		d.Clip.apply(out)
	case TypeGamma:
		fill(out, distuv.Gamma{Alpha: d.Shape, Beta: 1 / d.Scale, Src: rng}.Rand)
		d.Clip.apply(out)
	case TypeBeta:
		fill(out, distuv.Beta{Alpha: d.Alpha, Beta: d.Beta, Src: rng}.Rand)
	case TypeCategorical:
		weights := make([]float64, len(d.Items))
		for i, it := range d.Items {
			weights[i] = it.P
		}
		cat := distuv.NewCategorical(weights, rng)
		for i := range out {
			out[i] = d.Items[int(cat.Rand())].Value
		}
	default:
		panic("dist: sampling from an unset distribution")
	}
	return out
}

func fill(out []float64, draw func() float64) {
	for i := range out {
		out[i] = draw()
	}
}

func (b *Bounds) apply(values []float64) {
	if b == nil {
		return
	}
	for i, v := range values {
		if b.Lower != nil && v < *b.Lower {
			values[i] = *b.Lower
		}
		if b.Upper != nil && v > *b.Upper {
			values[i] = *b.Upper
		}
	}
}

// Complement samples 1 - X. Scaled interventions use it to express
// "retains between 75% and 95%" style scale factors.
type Complement struct {
	Of Sampler
}

func (c Complement) Sample(rng *rand.Rand, n int) []float64 {
	out := c.Of.Sample(rng, n)
	for i, v := range out {
		out[i] = 1 - v
	}
	return out
}

// Exponential draws from an exponential distribution with the given rate.
func Exponential(rng *rand.Rand, rate float64, n int) []float64 {
	out := make([]float64, n)
	fill(out, distuv.Exponential{Rate: rate, Src: rng}.Rand)
	return out
}
