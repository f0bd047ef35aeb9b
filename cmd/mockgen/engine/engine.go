package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"ccm/internal/research"
)

type GeneratorConfig struct {
	Scenario string // "mild", "speculative" or "mixed"
	Count    int
	Seed     uint64
}

// perDALYCosts are cost levels that exist in the "$X per DALY" catalog.
var perDALYCosts = []int{10, 25, 50, 75, 100, 150, 200, 300, 500, 1000}

var causes = []struct{ cause, sub string }{
	{"GHD", "Malaria"},
	{"GHD", "Deworming"},
	{"GHD", "Cash transfers"},
	{"Animal Welfare", "Cage-free"},
	{"Animal Welfare", "Shrimp"},
}

// Generate returns Count synthetic project rows. The same config always
// yields the same rows.
func Generate(cfg GeneratorConfig) []research.SheetRow {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	rows := make([]research.SheetRow, 0, cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		scenario := cfg.Scenario
		if scenario == "mixed" {
			scenario = "mild"
			if rng.Float64() < 0.5 {
				scenario = "speculative"
			}
		}

		// Target is always at least as cheap per DALY as the current intervention.
		a, b := rng.IntN(len(perDALYCosts)), rng.IntN(len(perDALYCosts))
		if a > b {
			a, b = b, a
		}
		c := causes[rng.IntN(len(causes))]

		row := research.SheetRow{
			ShortName:           fmt.Sprintf("MOCK-%d", i+1),
			Name:                fmt.Sprintf("Mock %s project %d", scenario, i+1),
			Description:         fmt.Sprintf("Synthetic %s project for %s.", scenario, c.sub),
			Cause:               c.cause,
			SubCause:            c.sub,
			TargetIntervention:  fmt.Sprintf("$%d per DALY", perDALYCosts[a]),
			CurrentIntervention: fmt.Sprintf("$%d per DALY", perDALYCosts[b]),
		}

		switch scenario {
		case "speculative":
			// Long, unlikely projects chasing large sums.
			row.FTEYears = interval(rng, "lognormal", 0.5, 4, 3, ptr(0.1), nil)
			row.ConclusionsRequireUpdating = interval(rng, "normal", 0.01, 0.1, 3, ptr(0), ptr(1))
			row.TargetUpdating = interval(rng, "normal", 0.05, 0.4, 2, ptr(0), ptr(1))
			row.MoneyInAreaMillions = interval(rng, "lognormal", 20, 500, 10, ptr(0), nil)
			row.PercentMoneyInfluenceable = interval(rng, "normal", 0.01, 0.2, 2, ptr(0), ptr(1))
			row.YearsCredit = interval(rng, "lognormal", 1, 8, 4, ptr(0), nil)
		default:
			// Short projects with likely, modest updates.
			row.FTEYears = interval(rng, "lognormal", 0.1, 0.5, 2, ptr(0.05), nil)
			row.ConclusionsRequireUpdating = interval(rng, "normal", 0.1, 0.4, 1.5, ptr(0), ptr(1))
			row.TargetUpdating = interval(rng, "normal", 0.3, 0.8, 1.2, ptr(0), ptr(1))
			row.MoneyInAreaMillions = interval(rng, "lognormal", 1, 20, 3, ptr(0), nil)
			row.PercentMoneyInfluenceable = interval(rng, "normal", 0.05, 0.3, 1.5, ptr(0), ptr(1))
			row.YearsCredit = interval(rng, "lognormal", 0.25, 2, 3, ptr(0), nil)
		}
		rows = append(rows, row)
	}
	return rows
}

// interval draws a low bound in [lo, hi) and a high bound up to spread
// times above it.
func interval(rng *rand.Rand, kind string, lo, hi, spread float64, lclip, rclip *float64) research.SheetDistribution {
	low := lo + rng.Float64()*(hi-lo)
	high := low * (1.1 + rng.Float64()*(spread-1))
	if rclip != nil && high > *rclip {
		high = *rclip
	}
	return research.SheetDistribution{
		Kind:  kind,
		Low:   round(low),
		High:  round(math.Max(high, low*1.01)),
		LClip: lclip,
		RClip: rclip,
	}
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func ptr(v float64) *float64 { return &v }

// Save writes rows to outDir/<name>.<format>.
func Save(outDir, name, format string, rows []research.SheetRow) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, name+"."+format)
	return path, research.WriteSheet(path, rows)
}
