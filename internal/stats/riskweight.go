package stats

import (
	"math"

	mfstats "github.com/montanaflynn/stats"

	"ccm/internal/apperr"
	"ccm/internal/sample"
)

// Weighter names a risk attitude used to collapse an outcome distribution
// into one number.
type Weighter string

const (
	WeighterEU           Weighter = "EU"
	WeighterMin          Weighter = "MIN"
	WeighterMax          Weighter = "MAX"
	WeighterWLUAggressive Weighter = "WLU - aggressive"
	WeighterWLUSymmetric Weighter = "WLU - symmetric"
)

func Weighters() []Weighter {
	return []Weighter{WeighterEU, WeighterMin, WeighterMax, WeighterWLUAggressive, WeighterWLUSymmetric}
}

func ParseWeighter(s string) (Weighter, error) {
	for _, w := range Weighters() {
		if string(w) == s {
			return w, nil
		}
	}
	return "", apperr.Validation("unknown risk weighter %q", s)
}

// RiskWeighted collapses z under the weighter. Implicit zeros count as
// outcomes of value zero.
func RiskWeighted(z sample.ZeroInflated, w Weighter) (float64, error) {
	if z.Len() == 0 {
		return 0, apperr.Validation("cannot risk-weight an empty sample set")
	}
	switch w {
	case WeighterEU, "":
		return z.Mean(), nil
	case WeighterMin, WeighterMax:
		extreme := mfstats.Min
		if w == WeighterMax {
			extreme = mfstats.Max
		}
		v := 0.0
		if len(z.Values) > 0 {
			v, _ = extreme(z.Values)
		}
		if z.Zeros > 0 {
			if w == WeighterMin {
				v = math.Min(v, 0)
			} else {
				v = math.Max(v, 0)
			}
		}
		return v, nil
	case WeighterWLUAggressive:
		return weightedLinearUtility(z, aggressiveWeight), nil
	case WeighterWLUSymmetric:
		return weightedLinearUtility(z, symmetricWeight), nil
	}
	return 0, apperr.Validation("unknown risk weighter %q", w)
}

// RiskWeightedMean is RiskWeighted over a dense sample vector.
func RiskWeightedMean(values []float64, w Weighter) (float64, error) {
	return RiskWeighted(sample.ZeroInflated{Values: values}, w)
}

// weightedLinearUtility reweights each equally likely outcome by its weight
// relative to the average weight. Zero outcomes have weight 1.
func weightedLinearUtility(z sample.ZeroInflated, weight func(float64) float64) float64 {
	n := float64(z.Len())
	weights := make([]float64, len(z.Values))
	total := float64(z.Zeros)
	for i, x := range z.Values {
		weights[i] = weight(x)
		total += weights[i]
	}
	avg := total / n
	out := 0.0
	for i, x := range z.Values {
		out += weights[i] / avg * x / n
	}
	return out
}

// aggressiveWeight discounts large gains and amplifies losses without bound.
func aggressiveWeight(x float64) float64 {
	if x < 0 {
		return math.Log(1-x) + 1
	}
	return 1 / (1 + math.Pow(x, 0.25))
}

// symmetricWeight mirrors the gain discount for losses, capped below 2.
func symmetricWeight(x float64) float64 {
	if x < 0 {
		return 2 - 1/(1+math.Pow(-x, 0.25))
	}
	return 1 / (1 + math.Pow(x, 0.25))
}
