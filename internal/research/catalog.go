package research

import (
	"fmt"
	"sort"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/funding"
	"ccm/internal/intervention"
)

// Project groups.
const (
	GroupAnimalWelfare = "animal-welfare"
	GroupGHD           = "ghd"
	GroupXRisk         = "xrisk"
	GroupAll           = "all"
	GroupOthers        = "others"
)

// Catalog holds the built-in projects plus any loaded from a sheet.
type Catalog struct {
	groups  map[string][]*Project
	all     []*Project
	byShort map[string]*Project
}

// CatalogOptions tune the built-in project set.
type CatalogOptions struct {
	// EqualMoneyForCauses gives every legacy project the same money in area.
	EqualMoneyForCauses bool
	// Extra projects are appended under GroupOthers, usually from a sheet.
	Extra []*Project
}

func NewCatalog(interventions *intervention.Catalog, opts CatalogOptions) (*Catalog, error) {
	c := &Catalog{groups: map[string][]*Project{}, byShort: map[string]*Project{}}

	sets := []struct {
		group string
		specs []projectSpec
	}{
		{GroupOthers, legacySpecs(opts.EqualMoneyForCauses)},
		{GroupGHD, ghdSpecs()},
		{GroupAnimalWelfare, animalSpecs()},
		{GroupXRisk, xriskSpecs()},
	}
	for _, set := range sets {
		for _, spec := range set.specs {
			p, err := spec.build(interventions)
			if err != nil {
				return nil, apperr.Wrapf(err, "built-in project %q", spec.short)
			}
			c.add(set.group, p)
		}
	}
	if err := equivalenceProject(c, interventions); err != nil {
		return nil, err
	}
	for _, p := range opts.Extra {
		if _, dup := c.byShort[p.ShortName]; dup {
			return nil, apperr.Validation("project %q is defined twice", p.ShortName)
		}
		c.add(GroupOthers, p)
	}
	return c, nil
}

func (c *Catalog) add(group string, p *Project) {
	c.groups[group] = append(c.groups[group], p)
	c.all = append(c.all, p)
	c.byShort[p.ShortName] = p
}

func (c *Catalog) All() []*Project {
	return c.all
}

// Group returns the projects of a named group; GroupAll returns every
// project.
func (c *Catalog) Group(name string) ([]*Project, error) {
	if name == GroupAll {
		return c.all, nil
	}
	projects, ok := c.groups[name]
	if !ok {
		return nil, apperr.NotFound("project group " + name)
	}
	return projects, nil
}

// GroupNames lists the groups in a stable order.
func (c *Catalog) GroupNames() []string {
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Get(shortName string) (*Project, error) {
	p, ok := c.byShort[shortName]
	if !ok {
		return nil, apperr.NotFound("project " + shortName)
	}
	return p, nil
}

type projectSpec struct {
	short, name, description string
	cause, subcause          string

	fte, conclusions, targetUpdating, money, share, years dist.Distribution

	target string
	source string
}

func (s projectSpec) build(catalog *intervention.Catalog) (*Project, error) {
	target, err := catalog.Get(s.target)
	if err != nil {
		return nil, err
	}
	source, err := catalog.Get(s.source)
	if err != nil {
		return nil, err
	}
	p := &Project{
		ShortName:                  s.short,
		Name:                       s.name,
		Description:                s.description,
		Cause:                      s.cause,
		SubCause:                   s.subcause,
		FTEYears:                   s.fte,
		ConclusionsRequireUpdating: s.conclusions,
		TargetUpdating:             s.targetUpdating,
		MoneyInAreaMillions:        s.money,
		PercentMoneyInfluenceable:  s.share,
		YearsCredit:                s.years,
		TargetIntervention:         target,
		Profile:                    funding.SinglePool("Funded by Client", funding.NewSpecifiedPool(source, "")),
	}
	return p, p.Validate()
}

// equivalenceProject checks mixed research funding: half the research is
// paid by the GiveWell bar and half by research capital.
func equivalenceProject(c *Catalog, catalog *intervention.Catalog) error {
	bar, err := catalog.Get("GiveWell Bar")
	if err != nil {
		return err
	}
	capital, err := catalog.Get("RP Research Projects")
	if err != nil {
		return err
	}
	barPool := funding.NewSpecifiedPool(bar, "")
	profile, err := funding.NewProfile("Mixed Funding Sources",
		[]funding.Weighted{
			{Pool: funding.NewSpecifiedPool(bar, ""), Weight: 0.5},
			{Pool: funding.NewSpecifiedPool(capital, "RP Capital"), Weight: 0.5},
		},
		[]funding.Weighted{{Pool: barPool, Weight: 1}},
	)
	if err != nil {
		return err
	}
	p := &Project{
		ShortName:                  "Equivalence Test",
		Name:                       "Equivalence Test",
		Description:                "Synthetic research project exercising mixed research funding sources.",
		Cause:                      "GHD",
		FTEYears:                   twoPeopleFourWeeks(),
		ConclusionsRequireUpdating: lognorm(0.06, 0.20, dist.LClip(0), dist.RClip(1)),
		TargetUpdating:             probNorm(0.9, 0.99),
		MoneyInAreaMillions:        lognorm(15, 90),
		PercentMoneyInfluenceable:  probNorm(0.95, 0.99),
		YearsCredit:                lognorm(0.25, 2, dist.LClip(0)),
		TargetIntervention:         bar,
		Profile:                    profile,
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.add(GroupOthers, p)
	return nil
}

func norm(lo, hi float64, opts ...dist.Option) dist.Distribution {
	return dist.Must(dist.Norm(lo, hi, opts...))
}

func lognorm(lo, hi float64, opts ...dist.Option) dist.Distribution {
	return dist.Must(dist.Lognorm(lo, hi, opts...))
}

func beta(a, b float64) dist.Distribution {
	return dist.Must(dist.Beta(a, b))
}

// probNorm is a normal clipped to a probability.
func probNorm(lo, hi float64) dist.Distribution {
	return norm(lo, hi, dist.LClip(0), dist.RClip(1))
}

func twoPeopleFourWeeks() dist.Distribution {
	return norm(1.5*2/52, 6.5*2/52, dist.LClip(0.03))
}

func perDALY(cost int) string {
	return fmt.Sprintf("$%d per DALY", cost)
}

func legacySpecs(equalMoney bool) []projectSpec {
	ghdMoney, nonOpGHDMoney := [2]float64{15, 90}, [2]float64{15, 90}
	animalMoney := [2]float64{2, 50}
	if equalMoney {
		ghdMoney, nonOpGHDMoney, animalMoney = [2]float64{500, 1000}, [2]float64{500, 1000}, [2]float64{500, 1000}
	}
	halfYear := norm(0.25, 0.75, dist.LClip(4.0/52))
	animal := func(short, name, description, subcause, target, source string) projectSpec {
		return projectSpec{
			short: short, name: name, description: description,
			cause: "Animals", subcause: subcause,
			fte:            halfYear,
			conclusions:    probNorm(0.5, 0.9),
			targetUpdating: probNorm(0.9, 0.99),
			money:          lognorm(animalMoney[0], animalMoney[1]),
			share:          probNorm(0.95, 0.99),
			years:          lognorm(0.5, 4, dist.LClip(0)),
			target:         target,
			source:         source,
		}
	}
	return []projectSpec{
		{
			short:          "GHD project (large)",
			name:           "Generic GHD project for large state of the art intervention",
			description:    "A project for about two people over roughly four weeks on optimizing a well-financed GHD project that is close to the state of the art.",
			cause:          "GHD",
			fte:            twoPeopleFourWeeks(),
			conclusions:    lognorm(0.06, 0.20, dist.LClip(0), dist.RClip(1)),
			targetUpdating: probNorm(0.9, 0.99),
			money:          lognorm(ghdMoney[0], ghdMoney[1]),
			share:          probNorm(0.95, 0.99),
			years:          lognorm(0.25, 2, dist.LClip(0)),
			target:         "GiveWell Bar",
			source:         "GiveWell Bar Scaled to ~88%",
		},
		{
			short:          "GHD project (small)",
			name:           "Generic GHD project optimizing moderately-well financed intervention",
			description:    "A project for about two people over roughly four weeks on optimizing a moderately well financed GHD intervention that is close to the state of the art.",
			cause:          "GHD",
			fte:            twoPeopleFourWeeks(),
			conclusions:    lognorm(0.02, 0.20, dist.LClip(0), dist.RClip(1)),
			targetUpdating: probNorm(0.9, 0.99),
			money:          lognorm(nonOpGHDMoney[0], nonOpGHDMoney[1]),
			share:          probNorm(0.95, 0.99),
			years:          lognorm(0.25, 2, dist.LClip(0)),
			target:         "GiveWell Bar",
			source:         "GiveWell Bar Scaled to ~88%",
		},
		animal("Chicken project", "Generic chicken welfare project",
			"A project for about half a year FTE on optimizing an intervention nearly as effective as a cage-free campaign.",
			"Chicken", "Cage-free Chicken Campaign", "Cage-free Chicken Campaign Scaled to ~86%"),
		animal("Carp project", "Generic carp welfare project",
			"A project for about half a year FTE on optimizing an effective carp welfare intervention.",
			"carp", "Generic Carp Intervention", "Generic Carp Intervention"),
		animal("Shrimp project", "Generic shrimp welfare project",
			"A project for about half a year FTE on optimizing an effective shrimp welfare intervention.",
			"shrimp", "Shrimp Slaughter Intervention", "Generic Shrimp Intervention Scaled to ~86%"),
	}
}

func ghdSpecs() []projectSpec {
	fourWeeks := twoPeopleFourWeeks()
	spec := func(short, name, description string, fte, conclusions, targetUpdating, money, share, years dist.Distribution, target, source int) projectSpec {
		return projectSpec{
			short: short, name: name, description: description, cause: "GHD",
			fte: fte, conclusions: conclusions, targetUpdating: targetUpdating,
			money: money, share: share, years: years,
			target: perDALY(target), source: perDALY(source),
		}
	}
	return []projectSpec{
		spec("Generic GHD project", "A generic GHD project", "A generic GHD project",
			fourWeeks, beta(0.1, 0.1), beta(0.1, 0.1), lognorm(1, 100_000), beta(0.1, 0.1),
			lognorm(1, 10, dist.LClip(0)), 100, 120),
		spec("Modest update to a state-of-the-art GHD project",
			"A project to modestly improve a well-funded effective GHD project.",
			"A project for about two people over roughly four weeks on optimizing a well-financed GHD project that is already unusually effective.",
			fourWeeks, beta(5, 100), beta(100, 30), lognorm(50, 100), beta(5, 15),
			lognorm(0.25, 2, dist.LClip(0)), 48, 50),
		spec("Speculative update for a state-of-the-art GHD project",
			"A speculative project to improve of a well-funded effective GHD project",
			"A project for about two people over roughly twelve weeks searching for a speculative (and unlikely to be found) improvement to a well-financed GHD project that is already unusually effective.",
			norm(6*2.0/52, 18*2.0/52, dist.LClip(0.03)), beta(4, 200), beta(100, 30), lognorm(50, 100), beta(5, 15),
			lognorm(4, 12, dist.LClip(0)), 48, 50),
		spec("Large improvement to a small-scale GHD project",
			"A longshot project to significantly improve a GHD project with unclear funding",
			"A project for about two people over roughly four weeks aimed at finding a significant improvement to a GHD project whose funding potential is unclear.",
			fourWeeks, beta(6, 30), beta(100, 30), norm(0, 20, dist.LClip(0)), beta(50, 2),
			lognorm(1, 5, dist.LClip(0)), 45, 55),
		spec("Large update to ineffective GHD project",
			"A project to improve a modestly-funded ineffective GHD project",
			"A project for about two people over roughly four weeks aimed at improving a modestly-funded GHD project that isn't particularly effective.",
			fourWeeks, beta(35, 25), beta(10, 60), lognorm(5, 10), beta(300, 600),
			lognorm(5, 10, dist.LClip(0)), 125, 150),
		spec("Speculative update to ineffective GHD project",
			"A longshot project to improve a modestly-funded ineffective GHD project",
			"A project for about two people over roughly four weeks aimed at significantly improving a modestly-funded GHD project that isn't particularly effective.",
			fourWeeks, beta(0.1, 30), beta(2, 60), lognorm(5, 20), beta(25, 40),
			lognorm(5, 20, dist.LClip(0)), 80, 125),
	}
}

func animalSpecs() []projectSpec {
	quarterToHalfYear := norm(12*1.25/52, 26*1.25/52, dist.LClip(0.03))
	spec := func(short, name, description, cause, subcause string, conclusions, targetUpdating, money, share, years dist.Distribution, target, source int) projectSpec {
		return projectSpec{
			short: short, name: name, description: description, cause: cause, subcause: subcause,
			fte: quarterToHalfYear, conclusions: conclusions, targetUpdating: targetUpdating,
			money: money, share: share, years: years,
			target: perDALY(target), source: perDALY(source),
		}
	}
	return []projectSpec{
		spec("Small update to a state-of-the-art animal welfare project",
			"A project to modestly improve a well-funded animal welfare project",
			"A project for about one person over roughly three to six months on optimizing a well-financed animal welfare project that is particularly effective.",
			"Animals", "", beta(5, 100), beta(100, 30), lognorm(5, 20), beta(5, 15),
			lognorm(3, 5, dist.LClip(0)), 9, 10),
		spec("Speculative improvement a state-of-the-art animal welfare project",
			"A speculative project to improve a state-of-the-art and well-funded animal project",
			"A project for about one person over roughly three to six months searching for a speculative improvement to a well-financed animal welfare project that is already particularly effective.",
			"Animals", "", beta(4, 200), beta(100, 30), lognorm(5, 20), beta(5, 15),
			lognorm(4, 12, dist.LClip(0)), 7, 10),
		spec("Large update to a small animal welfare project",
			"A project to significantly improve a animal welfare project whose funding is unclear",
			"A project for about one person over roughly three to six months on optimizing an animal welfare project that has an unclear amount of funding.",
			"Animals", "", beta(6, 30), beta(100, 30), norm(0, 4, dist.LClip(0)), beta(50, 2),
			lognorm(3, 5, dist.LClip(0)), 10, 20),
		spec("Large update to relatively ineffective animal welfare project",
			"A project to improve a modestly-funded ineffective animal project",
			"A project for about one person over roughly three to six months aimed at improving a well-financed animal welfare project that is not particularly effective.",
			"Animals", "Chickens", beta(35, 25), beta(10, 60), lognorm(5, 10), beta(300, 600),
			lognorm(5, 10, dist.LClip(0)), 70, 80),
		spec("Speculative update to ineffective animal welfare project",
			"A longshot project to improve a modestly-funded ineffective animal welfare project",
			"A project for about one person over roughly three to six months on improving an animal welfare project that is not particularly effective.",
			"GHD", "", beta(2, 60), beta(2, 60), lognorm(5, 10), beta(25, 40),
			lognorm(5, 20, dist.LClip(0)), 60, 80),
	}
}

func xriskSpecs() []projectSpec {
	spec := func(area, cause, subcause string, money, share dist.Distribution, target string) projectSpec {
		return projectSpec{
			short:          fmt.Sprintf("A significant update to relatively ineffective %s project", area),
			name:           fmt.Sprintf("A project to improve a modestly-funded ineffective %s project", area),
			description:    fmt.Sprintf("A project for about two people over roughly four weeks on optimizing a modestly-funded %s project that is ineffective relative to other, state of the art projects.", area),
			cause:          cause,
			subcause:       subcause,
			fte:            twoPeopleFourWeeks(),
			conclusions:    beta(40, 30),
			targetUpdating: beta(100, 30),
			money:          money,
			share:          share,
			years:          lognorm(5, 10, dist.LClip(0), dist.RClip(50)),
			target:         target,
			source:         target + " Scaled to ~86%",
		}
	}
	return []projectSpec{
		spec("AI misalignment", "AIGS", "ai misalignment", lognorm(209, 508, dist.LClip(0)), beta(3, 30), "Small-scale AI Misalignment Project"),
		spec("AI misuse", "AIGS", "ai misuse", lognorm(11.5, 58, dist.LClip(0)), beta(3, 30), "Small-scale AI Misuse Project"),
		spec("biological risk", "GLT", "bio", lognorm(771, 5_400, dist.LClip(0)), beta(2, 30), "Small-scale Biorisk Project"),
		spec("nanotechnology risk", "GLT", "nano", lognorm(22, 550, dist.LClip(0)), beta(0.1, 1), "Small-scale Nanotech Safety Project"),
		spec("natural risk", "GLT", "natural", lognorm(2_885, 57_703, dist.LClip(0)), beta(0.5, 50), "Small-scale Natural Disaster Prevention Project"),
		spec("nuclear risk", "GLT", "nukes", lognorm(11, 1_706, dist.LClip(0)), beta(0.5, 35), "Small-scale Nuclear Safety Project"),
		spec("unspecified risk", "GLT", "unknown", lognorm(41, 568, dist.LClip(0)), beta(0.5, 15), "Exploratory Research into Unknown Risks"),
	}
}
