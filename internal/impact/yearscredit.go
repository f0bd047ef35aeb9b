package impact

import (
	"math"
	"math/rand/v2"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/metrics"
	"ccm/internal/sample"
)

// SampleYearsCredit returns, per world, how many years an intervention moves
// extinction. Each world draws a first near-miss and a strictly later
// extinction. The intervention matters where the near-miss falls inside its
// effective window and a uniform draw lands under |change|; the credit is
// then the gap between the two draws, signed like change.
func SampleYearsCredit(rng *rand.Rand, years dist.Sampler, change, yearsEffective []float64, maxIterations int) ([]float64, error) {
	n := len(change)
	if len(yearsEffective) != n {
		return nil, apperr.Validation("years credit: %d changes but %d effective windows", n, len(yearsEffective))
	}

	first := years.Sample(rng, n)
	second, err := laterSamples(rng, years, first, yearsEffective, maxIterations)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := range out {
		if first[i] <= yearsEffective[i] && rng.Float64() < math.Abs(change[i]) {
			out[i] = (second[i] - first[i]) * sample.Sign(change[i])
		}
	}
	return out, nil
}

// laterSamples redraws worlds whose second draw does not come after the first,
// skipping worlds outside the effective window since they are never credited.
func laterSamples(rng *rand.Rand, years dist.Sampler, lower, limit []float64, maxIterations int) ([]float64, error) {
	higher := years.Sample(rng, len(lower))
	pending := make([]int, 0)
	for i := range higher {
		if higher[i] <= lower[i] && lower[i] <= limit[i] {
			pending = append(pending, i)
		}
	}

	rounds := 0
	for len(pending) > 0 {
		if rounds >= maxIterations {
			metrics.YearsCreditRounds.Observe(float64(rounds))
			return nil, apperr.NonConvergence("no later extinction year found for %d worlds after %d rounds", len(pending), rounds)
		}
		rounds++
		redrawn := years.Sample(rng, len(pending))
		still := pending[:0]
		for j, i := range pending {
			higher[i] = redrawn[j]
			if higher[i] <= lower[i] {
				still = append(still, i)
			}
		}
		pending = still
	}
	metrics.YearsCreditRounds.Observe(float64(rounds))
	return higher, nil
}
