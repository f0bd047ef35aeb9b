package risk

import (
	"math"
	"math/rand/v2"

	"ccm/internal/apperr"

	"gonum.org/v1/gonum/stat/distuv"
)

// OneBasisPoint is a 0.01 percentage point reduction in risk.
const OneBasisPoint = 1e-4

const smallestNormal = 0x1p-1022

// Timeline is an ordered sequence of eras starting at CurrentYear.
type Timeline struct {
	Eras        []Era
	CurrentYear int
}

func NewTimeline(eras []Era, currentYear int) (*Timeline, error) {
	if len(eras) == 0 {
		return nil, apperr.Validation("risk timeline needs at least one era")
	}
	return &Timeline{Eras: eras, CurrentYear: currentYear}, nil
}

// TotalLength is the number of years covered by all eras.
func (tl *Timeline) TotalLength() int {
	total := 0
	for _, e := range tl.Eras {
		total += e.Length
	}
	return total
}

// YearsToExtinction returns a sampler of the number of years until
// extinction. Each era contributes a floored, era-clipped exponential offset
// by its start, weighted by the chance that extinction first happens in it.
func (tl *Timeline) YearsToExtinction() *Mixture {
	m := &Mixture{}
	start := 0.0
	prev := 0.0
	for i, e := range tl.Eras {
		p := e.AnnualExtinctionRisk
		end := start + float64(e.Length) - 1
		var w float64
		if i == len(tl.Eras)-1 {
			w = 1 - prev
		} else {
			w = (1 - prev) * (1 - math.Pow(1-p, float64(e.Length)))
		}
		m.components = append(m.components, component{start: start, end: end, rate: p, weight: w})
		prev += w
		start = end + 1
	}
	return m
}

// Mixture samples years-to-extinction from per-era components.
type Mixture struct {
	components []component
}

type component struct {
	start, end float64
	rate       float64
	weight     float64
}

// Weights returns the probability of each era being the extinction era.
func (m *Mixture) Weights() []float64 {
	out := make([]float64, len(m.components))
	for i, c := range m.components {
		out[i] = c.weight
	}
	return out
}

func (m *Mixture) Sample(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		c := m.pick(rng.Float64())
		out[i] = c.draw(rng)
	}
	return out
}

func (m *Mixture) pick(u float64) component {
	acc := 0.0
	for _, c := range m.components {
		acc += c.weight
		if u < acc {
			return c
		}
	}
	return m.components[len(m.components)-1]
}

func (c component) draw(rng *rand.Rand) float64 {
	span := c.end - c.start
	if c.rate <= 0 {
		return c.end
	}
	x := distuv.Exponential{Rate: c.rate, Src: rng}.Rand()
	if x > span {
		x = span
	}
	return math.Floor(x + c.start)
}

// riskSumOver is the sum of the annual risks of t over the first h years.
// Years beyond the last era carry no risk.
func (tl *Timeline) riskSumOver(t Type, total bool, h int) float64 {
	sum := 0.0
	remaining := h
	for _, e := range tl.Eras {
		if remaining <= 0 {
			break
		}
		years := e.Length
		if years > remaining {
			years = remaining
		}
		r := e.AnnualExtinctionRisk
		if !total {
			r = e.Risk(t)
		}
		sum += r * float64(years)
		remaining -= years
	}
	return sum
}

// averageOver computes the mean annual risk over [0, h) for every horizon,
// evaluating each distinct horizon once.
func (tl *Timeline) averageOver(t Type, total bool, years []float64) []float64 {
	cache := make(map[int]float64)
	out := make([]float64, len(years))
	for i, y := range years {
		h := int(y)
		if h <= 0 {
			continue
		}
		avg, ok := cache[h]
		if !ok {
			avg = tl.riskSumOver(t, total, h) / float64(h)
			cache[h] = avg
		}
		out[i] = avg
	}
	return out
}

// AverageRiskOverYears is the mean annual total risk over each horizon.
func (tl *Timeline) AverageRiskOverYears(years []float64) []float64 {
	return tl.averageOver("", true, years)
}

func (tl *Timeline) AverageRiskOverYearsByType(t Type, years []float64) []float64 {
	return tl.averageOver(t, false, years)
}

func (tl *Timeline) CumulativeRiskOverYears(years []float64) []float64 {
	avg := tl.AverageRiskOverYears(years)
	for i := range avg {
		avg[i] *= years[i]
	}
	return avg
}

func (tl *Timeline) CumulativeRiskOverYearsByType(t Type, years []float64) []float64 {
	avg := tl.AverageRiskOverYearsByType(t, years)
	for i := range avg {
		avg[i] *= years[i]
	}
	return avg
}

// AverageCatastropheRiskByType scales the extinction risk of t by the number
// of catastrophes expected per extinction.
func (tl *Timeline) AverageCatastropheRiskByType(t Type, ratio float64, years []float64) []float64 {
	avg := tl.AverageRiskOverYearsByType(t, years)
	for i := range avg {
		avg[i] *= ratio
	}
	return avg
}

// CumulativeCatastropheRisk is the chance of at least one catastrophe of
// type t over each horizon.
func (tl *Timeline) CumulativeCatastropheRisk(t Type, ratio float64, years []float64) []float64 {
	yearly := tl.AverageCatastropheRiskByType(t, ratio, years)
	out := make([]float64, len(years))
	for i, y := range yearly {
		if y > 1 {
			y = 1
		}
		out[i] = 1 - math.Pow(1-y, years[i])
	}
	return out
}

// OneBasisPoint returns, per risk type plus "total" and "non-ai", the
// fraction of the cumulative risk that one basis point represents.
func (tl *Timeline) OneBasisPoint(years []float64) map[string][]float64 {
	out := make(map[string][]float64, len(Types())+2)
	byType := make(map[Type][]float64, len(Types()))
	for _, t := range Types() {
		byType[t] = tl.CumulativeRiskOverYearsByType(t, years)
		out[string(t)] = basisPoint(byType[t])
	}
	total := tl.CumulativeRiskOverYears(years)
	out["total"] = basisPoint(total)

	nonAI := make([]float64, len(years))
	for i := range nonAI {
		nonAI[i] = total[i] - byType[Misalignment][i] - byType[Misuse][i]
	}
	out["non-ai"] = basisPoint(nonAI)
	return out
}

func basisPoint(cumulative []float64) []float64 {
	out := make([]float64, len(cumulative))
	for i, c := range cumulative {
		if c == 0 {
			c = smallestNormal
		}
		out[i] = OneBasisPoint / c
	}
	return out
}

// RiskInYear returns the absolute annual risk of t in a calendar year, or 0
// after the last era.
func (tl *Timeline) RiskInYear(t Type, year int) float64 {
	idx := tl.CurrentYear
	for _, e := range tl.Eras {
		idx += e.Length
		if idx > year {
			return e.Risk(t)
		}
	}
	return 0
}
