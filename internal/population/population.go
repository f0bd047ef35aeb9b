// Package population turns years of continued survival into life-years,
// on Earth and, as civilisation expands, across the galaxy and supercluster.
package population

import (
	"math"
	"math/rand/v2"

	"ccm/internal/params"
)

const (
	// Now is the present world population.
	Now = 8e9
	// In2100 is the projected world population in 2100.
	In2100 = 11.2e9

	GalacticRadius     = 5e4 // light years
	SuperclusterRadius = 5e8 // light years

	// starsBurnOut bounds expansion when no speed is sampled.
	starsBurnOut = 100e12

	lifeExpectancy = 72
	averageAge     = 30
)

// LifeYearsLost is the remaining life-years of people killed now.
func LifeYearsLost(deaths []float64) []float64 {
	out := make([]float64, len(deaths))
	for i, d := range deaths {
		out[i] = d * (lifeExpectancy - averageAge)
	}
	return out
}

// LifeYearsUntil returns, for each entry of years, the life-years lived from
// now until that many years from now. Non-positive entries stay zero and
// consume no random draws.
func LifeYearsUntil(rng *rand.Rand, p *params.Parameters, years []float64) []float64 {
	idx := make([]int, 0, len(years))
	active := make([]float64, 0, len(years))
	for i, y := range years {
		if y > 0 {
			idx = append(idx, i)
			active = append(active, y)
		}
	}

	out := make([]float64, len(years))
	if len(active) == 0 {
		return out
	}
	terrestrial := Terrestrial(rng, p, active)
	extraterrestrial := Extraterrestrial(rng, p, active)
	for j, i := range idx {
		out[i] = terrestrial[j] + extraterrestrial[j]
	}
	return out
}

// Terrestrial counts life-years on Earth in three stages: growth to the 2100
// population, growth to a sampled perpetual capacity by 3000, and a constant
// population afterwards.
func Terrestrial(rng *rand.Rand, p *params.Parameters, years []float64) []float64 {
	cur := float64(p.CurrentYear)
	perpetual := p.LongTerm.StellarPopulationCapacity.Sample(rng, len(years))

	out := make([]float64, len(years))
	for i, y := range years {
		end := y + cur

		frac2100 := 1.0
		if end <= 2100 {
			frac2100 = y / (2100 - cur)
		}
		years2100 := frac2100 * (2100 - cur)
		until2100 := (Now + (In2100-Now)*frac2100/2) * years2100

		frac3000 := 1.0
		if end <= 3000 {
			frac3000 = math.Max((end-2100)/900, 0)
		}
		years3000 := 0.0
		if frac3000 > 0 {
			years3000 = frac3000 * 900
		}
		until3000 := (In2100 + (perpetual[i]-In2100)*frac3000/2) * years3000

		after := 0.0
		if end > 3000 {
			after = (end - 3000) * perpetual[i]
		}
		out[i] = until2100 + until3000 + after
	}
	return out
}

// Extraterrestrial counts life-years in space. Expansion starts now at a
// sampled speed and fills the galaxy and, separately, the supercluster.
func Extraterrestrial(rng *rand.Rand, p *params.Parameters, years []float64) []float64 {
	n := len(years)
	lt := p.LongTerm
	speeds := lt.ExpansionSpeed.Sample(rng, n)
	perStar := lt.StellarPopulationCapacity.Sample(rng, n)
	galactic := lt.GalacticDensity.Sample(rng, n)
	supercluster := lt.SuperclusterDensity.Sample(rng, n)

	out := make([]float64, n)
	for i, y := range years {
		g := InhabitedVolume(y, speeds[i], GalacticRadius) * perStar[i] * galactic[i]
		s := InhabitedVolume(y, speeds[i], SuperclusterRadius) * perStar[i] * supercluster[i]
		out[i] = g + s
	}
	return out
}

// InhabitedVolume is the space-time volume (light-year^3 x years) occupied by
// a sphere growing at speed until it reaches radius, integrated over t years.
func InhabitedVolume(t, speed, radius float64) float64 {
	finished := starsBurnOut
	if speed > 0 {
		finished = radius / speed
	}
	during := math.Min(t, finished)
	after := math.Max(t-during, 0)
	expanding := math.Pow(during, 4) * math.Pi * math.Pow(speed, 3) / 3
	settled := after * 4 / 3 * math.Pi * math.Pow(radius, 3)
	return expanding + settled
}
