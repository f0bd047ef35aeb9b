package intervention

import (
	"fmt"
	"sync"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/moralweight"
	"ccm/internal/risk"
	"ccm/internal/sample"
)

const (
	thousand = 1e3
	million  = 1e6
	billion  = 1e9
)

// Catalog is the read-only set of named interventions.
type Catalog struct {
	unscaled []*Intervention
	all      []*Intervention
	byName   map[string]*Intervention
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		unscaled := append(defaultInterventions(), animalInterventions()...)
		unscaled = append(unscaled, xriskInterventions()...)
		unscaled = append(unscaled, perDALYInterventions()...)
		defaultCatalog = NewCatalog(unscaled, scaledInterventions())
	})
	return defaultCatalog
}

func NewCatalog(unscaled, scaled []*Intervention) *Catalog {
	c := &Catalog{
		unscaled: unscaled,
		all:      append(append([]*Intervention{}, unscaled...), scaled...),
		byName:   make(map[string]*Intervention, len(unscaled)+len(scaled)),
	}
	for _, iv := range c.all {
		c.byName[iv.Name] = iv
	}
	return c
}

func (c *Catalog) All() []*Intervention {
	return c.all
}

// Unscaled omits the scaled variants.
func (c *Catalog) Unscaled() []*Intervention {
	return c.unscaled
}

func (c *Catalog) Get(name string) (*Intervention, error) {
	iv, ok := c.byName[name]
	if !ok {
		return nil, apperr.NotFound("intervention " + name)
	}
	return iv, nil
}

// CauseBenchmark builds the benchmark intervention of a cause area. The
// subcause names the animal for "Animals" and the risk type for "GLT" and
// "AIGS".
func CauseBenchmark(cause, subcause string, scale *Scale) (*Intervention, error) {
	name := fmt.Sprintf("%s - %s Benchmark%s", cause, subcause, scaleSuffix(scale))

	var payload Estimator
	switch cause {
	case "GHD":
		payload = DefaultGHD()
	case "Animals":
		a, err := moralweight.ParseAnimal(subcause)
		if err != nil {
			return nil, err
		}
		payload = DefaultAnimal(a)
	case "GLT":
		t, err := risk.ParseType(subcause)
		if err != nil {
			return nil, err
		}
		if t.IsAI() {
			return nil, apperr.Validation("%q is not a GLT risk type", subcause)
		}
		payload = NewXRisk(t)
	case "AIGS":
		t, err := risk.ParseType(subcause)
		if err != nil {
			return nil, err
		}
		if !t.IsAI() || t == risk.AI {
			return nil, apperr.Validation("%q is not an AI risk type", subcause)
		}
		payload = NewXRisk(t)
	default:
		return nil, apperr.Validation("no supported intervention for cause: [%s]", cause)
	}

	iv := New(name, "", payload)
	iv.Scale = scale
	return iv, nil
}

func scaleSuffix(s *Scale) string {
	if s == nil {
		return ""
	}
	draws := s.sampler().Sample(dist.NewRand(0), 10_000)
	return fmt.Sprintf(" scaled to ~%.0f%%", sample.Mean(draws)*100)
}

const barPreamble = "This intervention models the cost-effectiveness of a hypothetical intervention " +
	"that meets a funding bar almost exactly. "

func defaultInterventions() []*Intervention {
	ghd := func(name, description string, cost dist.Distribution) *Intervention {
		return New(name, description, NewGHD(cost))
	}
	rp := New("RP Research Projects", "Marginal efficiency of RP Research Projects (not an actual intervention).",
		&Result{ResultDistribution: dist.Must(dist.Norm(0.2, 100))})
	rp.Area = AreaNotAnInter

	return []*Intervention{
		ghd("Open Philanthropy Bar", barPreamble+
			"Open Philanthropy funds GHD projects producing over 2000x the value of cash given to someone "+
			"earning $50,000 per year, which works out to around $50 per DALY averted.", OpenPhilanthropyBar),
		ghd("GiveWell Bar", barPreamble+
			"GiveWell aims to fund projects at $56 per DALY or better; funded projects land on both sides "+
			"of that threshold.", GiveWellBar),
		ghd("Direct Cash Transfers",
			"A reference intervention modelled on cash transfer programs, converted to dollars per DALY "+
				"with a mostly arbitrary uncertainty around the central estimate.", GiveDirectlyBar),
		ghd("Good GHD Intervention",
			"A hypothetical intervention that is cost-effective by both Open Philanthropy's and GiveWell's standards.",
			dist.Must(dist.Lognorm(15, 50))),
		ghd("Weak GHD Intervention",
			"A hypothetical intervention centered at around $1000 per DALY averted.",
			dist.Must(dist.Norm(820, 1180))),
		ghd("Standard HIV Intervention",
			"A typical HIV prevention intervention such as Treatment as Prevention, around $900 per DALY averted.",
			dist.Must(dist.Norm(800, 1100, dist.Credibility(80)))),
		ghd("Best HIV Intervention",
			"A very cost-effective HIV intervention such as mother-to-child transmission prevention, "+
				"around $200 per DALY averted.",
			dist.Must(dist.Norm(150, 250, dist.Credibility(80)))),
		ghd("Ineffective GHD Intervention",
			"A hypothetical intervention centered on $25,000 per DALY averted.",
			dist.Must(dist.Norm(18.7*thousand, 31.25*thousand))),
		ghd("Very Ineffective GHD Intervention",
			"A hypothetical intervention centered on $50,000 per DALY averted.",
			dist.Must(dist.Norm(37.5*thousand, 62.5*thousand))),
		ghd("US Gov GHD Intervention",
			"A typical health intervention funded by the US government, centered on $1000 per DALY averted.",
			dist.Must(dist.Norm(820, 1180))),
		rp,
		New("Non-Impactful Spending",
			"A hypothetical intervention with zero impact, or no intervention at all (e.g. burning money).",
			&Result{ResultDistribution: dist.Constant(0)}),
	}
}

func animalInterventions() []*Intervention {
	animal := func(name, description string, a moralweight.Animal) *Intervention {
		return New(name, description, DefaultAnimal(a))
	}
	shrimp := func(name, description string, hours dist.Distribution) *Intervention {
		payload := GenericAnimal(moralweight.Shrimp)
		payload.ProbSuccess = dist.Must(dist.Beta(3, 3))
		payload.HoursSpentSuffering = hours
		return New(name, description, payload)
	}
	return []*Intervention{
		animal("Generic Black Soldier Fly Intervention",
			"An intervention aimed at improving the welfare of farmed black soldier flies through corporate advocacy.",
			moralweight.BSF),
		animal("Generic Chicken Campaign",
			"An intervention aimed at improving the welfare of egg-laying hens or broiler chickens through corporate advocacy.",
			moralweight.Chicken),
		animal("Generic Shrimp Intervention",
			"An intervention aimed at improving the welfare of farmed shrimp through corporate advocacy.",
			moralweight.Shrimp),
		animal("Generic Carp Intervention",
			"An intervention aimed at improving the welfare of farmed carp through corporate advocacy.",
			moralweight.Carp),
		animal("Cage-free Chicken Campaign",
			"An intervention aimed at improving the welfare of egg-laying hens through corporate advocacy.",
			moralweight.Chicken),
		animal("Shrimp Slaughter Intervention",
			"An intervention aimed at reducing harm during slaughter for farmed shrimp.",
			moralweight.Shrimp),
		shrimp("Shrimp Ammonia Intervention",
			"An intervention aimed at improving farmed shrimp welfare through lower ammonia concentration.",
			dist.Must(dist.Lognorm(0.189, 78.2, dist.LClip(0)))),
	}
}

type xriskSpec struct {
	name, description string
	t                 risk.Type
	cost              dist.Distribution
	probNoEffect      float64
	onXRisk           [2]float64
	onCatastrophe     [2]float64
}

func (s xriskSpec) intervention() *Intervention {
	effect := func(r [2]float64) dist.Distribution {
		return dist.Must(dist.Lognorm(r[0], r[1], dist.LClip(0), dist.RClip(1)))
	}
	return New(s.name, s.description, NewXRisk(s.t,
		WithCost(s.cost),
		WithProbNoEffect(s.probNoEffect),
		WithEffects(effect(s.onXRisk), effect(s.onCatastrophe)),
	))
}

func lognorm(lo, hi, lclip, rclip float64) dist.Distribution {
	return dist.Must(dist.Lognorm(lo, hi, dist.LClip(lclip), dist.RClip(rclip)))
}

// xriskSpecs are keyed by the short names used for the scaled variants.
var xriskSpecs = map[string]xriskSpec{
	"major misalignment": {
		name:          "AI Misalignment Megaproject",
		description:   "A very large project aimed at reducing existential risk from AI misalignment either through technical research or policy advocacy.",
		t:             risk.Misalignment,
		cost:          lognorm(8*billion, 28*billion, 1*billion, 500*billion),
		probNoEffect:  0.973,
		onXRisk:       [2]float64{0.5, 0.8},
		onCatastrophe: [2]float64{0.5, 0.8},
	},
	"misalignment": {
		name:          "Small-scale AI Misalignment Project",
		description:   "A small project aimed at reducing existential risk from AI misalignment either through technical research or policy advocacy.",
		t:             risk.Misalignment,
		cost:          lognorm(200*thousand, 1*million, 50*thousand, 4*million),
		probNoEffect:  0.964,
		onXRisk:       [2]float64{1e-6, 5.5e-5},
		onCatastrophe: [2]float64{1e-6, 5.5e-5},
	},
	"misuse": {
		name:          "Small-scale AI Misuse Project",
		description:   "A small project aimed at reducing existential risk from accidental misuse or intentional harmful use of AI.",
		t:             risk.Misuse,
		cost:          lognorm(200*thousand, 20*million, 8*thousand, 400*million),
		probNoEffect:  0.95,
		onXRisk:       [2]float64{1e-4, 5e-3},
		onCatastrophe: [2]float64{1e-2, 5e-2},
	},
	"major bio": {
		name:          "Portfolio of Biorisk Projects",
		description:   "A collection of small and midsized projects aimed at reducing the threat of engineered pandemics.",
		t:             risk.Bio,
		cost:          lognorm(15*million, 30*million, 8*thousand, 800*million),
		probNoEffect:  0.6,
		onXRisk:       [2]float64{1e-3, 5e-2},
		onCatastrophe: [2]float64{1e-2, 5e-2},
	},
	"bio": {
		name:          "Small-scale Biorisk Project",
		description:   "A single small project aimed at reducing the threat of engineered pandemics.",
		t:             risk.Bio,
		cost:          lognorm(500*thousand, 10*million, 8*thousand, 800*million),
		probNoEffect:  0.6,
		onXRisk:       [2]float64{1e-4, 5e-3},
		onCatastrophe: [2]float64{1e-3, 5e-3},
	},
	"major nano": {
		name:          "Nanotech Safety Megaproject",
		description:   "A very large project aimed at reducing the threat of nanotechnology.",
		t:             risk.Nano,
		cost:          lognorm(10*million, 30*million, 8*thousand, 400*million),
		probNoEffect:  0.9,
		onXRisk:       [2]float64{8e-3, 0.4},
		onCatastrophe: [2]float64{8e-3, 4e-2},
	},
	"nano": {
		name:          "Small-scale Nanotech Safety Project",
		description:   "A single small project aimed at reducing the threat of nanotechnology.",
		t:             risk.Nano,
		cost:          lognorm(200*thousand, 2*million, 8*thousand, 400*million),
		probNoEffect:  0.9,
		onXRisk:       [2]float64{1e-3, 5e-2},
		onCatastrophe: [2]float64{1e-3, 5e-3},
	},
	"natural": {
		name:          "Small-scale Natural Disaster Prevention Project",
		description:   "A small project aimed at reducing the probability that a natural disaster will cause human extinction.",
		t:             risk.Natural,
		cost:          lognorm(1*million, 20*million, 8*thousand, 800*million),
		probNoEffect:  0.5,
		onXRisk:       [2]float64{1e-3, 5e-2},
		onCatastrophe: [2]float64{1e-3, 5e-3},
	},
	"nukes": {
		name:          "Small-scale Nuclear Safety Project",
		description:   "A small project aimed at reducing the threat or severity of a nuclear war.",
		t:             risk.Nukes,
		cost:          lognorm(5*million, 20*million, 8*thousand, 800*million),
		probNoEffect:  0.8,
		onXRisk:       [2]float64{1e-3, 5e-2},
		onCatastrophe: [2]float64{1e-2, 5e-2},
	},
	"scaled unknown": {
		name:          "Exploratory Research into Unknown Risks",
		description:   "A small project aimed at better understanding potential novel existential risks.",
		t:             risk.Unknown,
		cost:          lognorm(50*thousand, 5*million, 8*thousand, 400*million),
		probNoEffect:  0.5,
		onXRisk:       [2]float64{1e-3, 5e-2},
		onCatastrophe: [2]float64{1e-2, 5e-2},
	},
	"unknown": {
		name:          "Exploratory Research into Unknown Risks",
		description:   "A small project aimed at better understanding potential novel existential risks.",
		t:             risk.Unknown,
		cost:          lognorm(500*thousand, 5*million, 8*thousand, 400*million),
		probNoEffect:  0.999,
		onXRisk:       [2]float64{1e-3, 5e-2},
		onCatastrophe: [2]float64{1e-2, 5e-2},
	},
}

var (
	gltOrder  = []string{"major bio", "bio", "major nano", "nano", "natural", "nukes", "unknown"}
	aigsOrder = []string{"major misalignment", "misalignment", "misuse"}
)

func xriskInterventions() []*Intervention {
	var out []*Intervention
	for _, key := range append(append([]string{}, gltOrder...), aigsOrder...) {
		out = append(out, xriskSpecs[key].intervention())
	}
	return out
}

// perDALYInterventions are convenience results named "$X per DALY", with a
// 90% interval of +/-20% around 1000/X DALYs per $1000.
func perDALYInterventions() []*Intervention {
	var costs []int
	for i := 1; i < 100; i++ {
		costs = append(costs, i)
	}
	for i := 0; i < 11; i++ {
		costs = append(costs, i*5+100)
	}
	for i := 1; i < 5; i++ {
		costs = append(costs, i*100+100)
	}
	costs = append(costs, 550)
	for i := 5; i < 15; i++ {
		costs = append(costs, i*100+100)
	}
	costs = append(costs, 10000, 20000)

	out := make([]*Intervention, 0, len(costs))
	for _, c := range costs {
		central := 1000 / float64(c)
		out = append(out, New(
			fmt.Sprintf("$%d per DALY", c),
			fmt.Sprintf("A generic intervention costing roughly $%d per DALY, added for convenience. "+
				"The 90%% interval spans +/-20%% of the cost per DALY.", c),
			&Result{ResultDistribution: dist.Must(dist.Norm(central*0.8, central*1.2))},
		))
	}
	return out
}

func scaledInterventions() []*Intervention {
	smallScale := Scale{Distribution: lognorm(0.05, 0.3, 0, 1), Complement: true}

	var out []*Intervention
	gw := New("GiveWell Bar", "", NewGHD(GiveWellBar))
	out = append(out, gw.WithScale("GiveWell Bar Scaled to ~88%", Scale{Distribution: lognorm(0.05, 0.25, 0, 1), Complement: true}))

	for _, key := range []string{"nano", "bio", "natural", "nukes", "scaled unknown", "misalignment", "misuse"} {
		iv := xriskSpecs[key].intervention()
		out = append(out, iv.WithScale(iv.Name+" Scaled to ~86%", smallScale))
	}
	for _, a := range []struct {
		name   string
		animal moralweight.Animal
	}{
		{"Cage-free Chicken Campaign Scaled to ~86%", moralweight.Chicken},
		{"Generic Shrimp Intervention Scaled to ~86%", moralweight.Shrimp},
		{"Generic Carp Intervention Scaled to ~86%", moralweight.Carp},
	} {
		out = append(out, New(a.name, "", DefaultAnimal(a.animal)).WithScale(a.name, smallScale))
	}
	return out
}
