// Package research assesses the return on research projects that could
// redirect money from an existing intervention to a better one.
package research

import (
	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/funding"
	"ccm/internal/intervention"
)

// NetImpactMode selects how per-pool research costs are taken off the gross
// impact.
type NetImpactMode string

const (
	// NetImpactOverwrite subtracts only the last research pool's cost. It is
	// the reference behaviour and the default.
	NetImpactOverwrite NetImpactMode = "overwrite"
	// NetImpactAccumulate subtracts every research pool's cost.
	NetImpactAccumulate NetImpactMode = "accumulate"
)

const (
	thousand = 1_000
	million  = 1_000_000

	minCostDALYs = 1e-20
)

// DefaultCostPerStaffYear is the loaded salary cost of one full-time year.
func DefaultCostPerStaffYear() dist.Distribution {
	return dist.Must(dist.Norm(140*thousand, 190*thousand, dist.LClip(100*thousand), dist.RClip(220*thousand)))
}

type Project struct {
	ShortName   string
	Name        string
	Description string
	Cause       string
	SubCause    string

	FTEYears dist.Distribution
	// ConclusionsRequireUpdating is the probability that a better target is
	// viable and discoverable.
	ConclusionsRequireUpdating dist.Distribution
	// TargetUpdating is the probability that funders act on the findings.
	TargetUpdating      dist.Distribution
	MoneyInAreaMillions dist.Distribution
	// PercentMoneyInfluenceable is the share of the area's money that moves
	// to the target on success.
	PercentMoneyInfluenceable dist.Distribution
	// YearsCredit is how many years earlier the target is adopted than it
	// would have been without the project.
	YearsCredit dist.Distribution

	TargetIntervention *intervention.Intervention
	Profile            *funding.Profile
	CostPerStaffYear   dist.Distribution
	NetImpactMode      NetImpactMode
}

func (p *Project) Validate() error {
	if p.ShortName == "" {
		return apperr.Validation("project short name is required")
	}
	if p.TargetIntervention == nil {
		return apperr.Validation("project %q has no target intervention", p.ShortName)
	}
	if p.Profile == nil {
		return apperr.Validation("project %q has no funding profile", p.ShortName)
	}
	if err := p.Profile.Validate(); err != nil {
		return err
	}
	switch p.NetImpactMode {
	case "", NetImpactOverwrite, NetImpactAccumulate:
	default:
		return apperr.Validation("project %q: unknown net impact mode %q", p.ShortName, p.NetImpactMode)
	}
	for name, d := range p.distributions() {
		if d.IsZero() {
			return apperr.Validation("project %q: %s is required", p.ShortName, name)
		}
		if err := d.Validate(); err != nil {
			return apperr.Wrapf(err, "project %q: %s", p.ShortName, name)
		}
	}
	return nil
}

func (p *Project) distributions() map[string]dist.Distribution {
	return map[string]dist.Distribution{
		"fte_years":                    p.FTEYears,
		"conclusions_require_updating": p.ConclusionsRequireUpdating,
		"target_updating":              p.TargetUpdating,
		"money_in_area_millions":       p.MoneyInAreaMillions,
		"percent_money_influenceable":  p.PercentMoneyInfluenceable,
		"years_credit":                 p.YearsCredit,
		"cost_per_staff_year":          p.salary(),
	}
}

func (p *Project) salary() dist.Distribution {
	if p.CostPerStaffYear.IsZero() {
		return DefaultCostPerStaffYear()
	}
	return p.CostPerStaffYear
}

func (p *Project) mode() NetImpactMode {
	if p.NetImpactMode == "" {
		return NetImpactOverwrite
	}
	return p.NetImpactMode
}

// SourceIntervention is the counterfactual use of the first intervention
// funding source.
func (p *Project) SourceIntervention() *intervention.Intervention {
	if p.Profile == nil || len(p.Profile.Intervention) == 0 {
		return nil
	}
	return p.Profile.Intervention[0].Pool.Intervention
}
