package funding

import (
	"math"

	"ccm/internal/apperr"
)

const weightTolerance = 1e-9

// Weighted is a pool's share of a funding profile.
type Weighted struct {
	Pool   *Pool
	Weight float64
}

// Profile splits research costs and intervention money across pools. Each
// side keeps the order it was given in.
type Profile struct {
	Name         string
	Research     []Weighted
	Intervention []Weighted
}

func NewProfile(name string, research, interventionSources []Weighted) (*Profile, error) {
	p := &Profile{Name: name, Research: research, Intervention: interventionSources}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SinglePool is the common profile where one pool pays for everything.
func SinglePool(name string, pool *Pool) *Profile {
	return &Profile{
		Name:         name,
		Research:     []Weighted{{Pool: pool, Weight: 1}},
		Intervention: []Weighted{{Pool: pool, Weight: 1}},
	}
}

func (p *Profile) Validate() error {
	if err := validateSide(p.Name, "research", p.Research); err != nil {
		return err
	}
	return validateSide(p.Name, "intervention", p.Intervention)
}

func validateSide(profile, side string, sources []Weighted) error {
	if len(sources) == 0 {
		return apperr.Validation("funding profile %q has no %s funding sources", profile, side)
	}
	total := 0.0
	for _, w := range sources {
		if w.Pool == nil {
			return apperr.Validation("funding profile %q has a nil %s pool", profile, side)
		}
		if w.Weight < 0 || math.IsNaN(w.Weight) {
			return apperr.Validation("funding profile %q: %s weight for %q is %v", profile, side, w.Pool.Name, w.Weight)
		}
		total += w.Weight
	}
	if math.Abs(total-1) > weightTolerance {
		return apperr.Validation("funding profile %q: %s weights sum to %v, not 1", profile, side, total)
	}
	return nil
}
