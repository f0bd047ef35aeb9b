// Package moralweight converts animal welfare outcomes into human-equivalent
// terms by sampling sentience and welfare capacity per species.
package moralweight

import (
	"math/rand/v2"
	"slices"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/sample"
)

// Sentience returns 1 for each world in which the species is sentient.
func Sentience(rng *rand.Rand, p Params, a Animal, n int) ([]float64, error) {
	d, ok := p.SentienceRanges[a]
	if !ok {
		return nil, apperr.Validation("no sentience range for %q", a)
	}
	probs := d.Sample(rng, n)
	draws := sample.Uniform01(rng, n)
	out := make([]float64, n)
	for i := range out {
		if probs[i] >= draws[i] {
			out[i] = 1
		}
	}
	return out, nil
}

// WelfareCapacity samples the species' capacity for welfare, either from the
// override or from the model table, each model's value drawn with the
// probability of its weight.
func WelfareCapacity(rng *rand.Rand, p Params, a Animal, n int) ([]float64, error) {
	if p.OverrideType == OnlyWelfareCapacities {
		d, ok := p.WelfareCapacitiesOverride[a]
		if !ok {
			return nil, apperr.Validation("no welfare capacity override for %q", a)
		}
		return d.Sample(rng, n), nil
	}

	d, err := capacityDistribution(p, a)
	if err != nil {
		return nil, err
	}
	return d.Sample(rng, n), nil
}

func capacityDistribution(p Params, a Animal) (dist.Distribution, error) {
	capacities, ok := CapacityByModel[a]
	if !ok {
		return dist.Distribution{}, apperr.Validation("no welfare capacity estimates for %q", a)
	}

	// Identical values from different models pool their weight.
	weightByValue := make(map[float64]float64)
	var values []float64
	for i, model := range Models {
		v := capacities[i]
		if _, seen := weightByValue[v]; !seen {
			values = append(values, v)
		}
		weightByValue[v] += p.WeightsForModels[model]
	}
	slices.Sort(values)

	total := 0.0
	for _, v := range values {
		total += weightByValue[v]
	}
	items := make([]dist.Item, 0, len(values))
	for _, v := range values {
		items = append(items, dist.Item{P: weightByValue[v] / total, Value: v})
	}
	// Renormalising can leave a rounding residue; fold it into the last item.
	residue := 1.0
	for _, it := range items[:len(items)-1] {
		residue -= it.P
	}
	items[len(items)-1].P = residue
	return dist.Categorical(items...)
}

// Adjustor samples the multiplier that turns a species' suffering-years into
// human-equivalent DALYs.
func Adjustor(rng *rand.Rand, p Params, a Animal, n int) ([]float64, error) {
	if p.OverrideType == AllMoralWeights {
		d, ok := p.MoralWeightsOverride[a]
		if !ok {
			return nil, apperr.Validation("no moral weight override for %q", a)
		}
		return d.Sample(rng, n), nil
	}

	sentient, err := Sentience(rng, p, a, n)
	if err != nil {
		return nil, err
	}
	capacity, err := WelfareCapacity(rng, p, a, n)
	if err != nil {
		return nil, err
	}
	return sample.Mul(capacity, sentient), nil
}

// RelativeMoralWeights compares every pair of intervenable species by the
// ratio of their mean adjustors.
func RelativeMoralWeights(rng *rand.Rand, p Params, n int) (map[Animal]map[Animal]float64, error) {
	means := make(map[Animal]float64)
	for _, a := range Intervenable() {
		w, err := Adjustor(rng, p, a, n)
		if err != nil {
			return nil, err
		}
		means[a] = sample.Mean(w)
	}

	out := make(map[Animal]map[Animal]float64)
	for _, a := range Intervenable() {
		out[a] = make(map[Animal]float64)
		for _, b := range Intervenable() {
			if a == b || means[b] == 0 {
				continue
			}
			out[a][b] = means[a] / means[b]
		}
	}
	return out, nil
}
