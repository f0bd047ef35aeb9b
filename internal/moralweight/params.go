package moralweight

import (
	"math"

	"ccm/internal/apperr"
	"ccm/internal/dist"
)

type OverrideType string

const (
	NoOverride            OverrideType = "No override"
	OnlyWelfareCapacities OverrideType = "Only welfare capacities"
	AllMoralWeights       OverrideType = "All moral weight calculations"
)

// Models lists the welfare-range models in table order.
var Models = []string{
	"Neuron Count",
	"Quantitative",
	"Qualitative",
	"Cubic",
	"Higher-confidence Proxies",
	"Qualitative-minus-social",
	"Pleasure-and-pain-centric",
	"Higher / Lower Pleasures",
	"Just Noticeable Differences",
	"Grouped Proxies",
	"Undiluted Experience",
	"Equality",
}

// CapacityByModel holds each model's welfare capacity of a species relative to
// humans, conditional on sentience. Values follow the order of Models.
var CapacityByModel = map[Animal][]float64{
	Chicken: {0.002, 0.641, 0.511, 0.160, 0.165, 0.552, 0.439, 0.274, 0.154, 0.923, 0.906, 0.953},
	Shrimp:  {0.000001, 1.069556, 0.138313, 0.002304, 0.005508, 0.190899, 0.172632, 0.026919, 0.105806, 0.924127, 0.969091, 1.093333},
	Carp:    {0.0002, 0.8761, 0.3117, 0.0308, 0.0541, 0.3436, 0.3613, 0.0960, 0.1022, 0.9994, 1.3500, 1.0560},
	BSF:     {0.000004, 1.404314, 0.073735, 0.000932, 0.003880, 0.142857, 0.118421, 0.014583, 0.096774, 0.851190, 0.433884, 1.000000},
}

// Params configures how moral weights of non-human species are derived.
type Params struct {
	Type                      string                       `json:"type" yaml:"type"`
	Version                   string                       `json:"version" yaml:"version"`
	OverrideType              OverrideType                 `json:"override_type" yaml:"override_type"`
	WeightsForModels          map[string]float64           `json:"weights_for_models" yaml:"weights_for_models"`
	SentienceRanges           map[Animal]dist.Distribution `json:"sentience_ranges" yaml:"sentience_ranges"`
	WelfareCapacitiesOverride map[Animal]dist.Distribution `json:"welfare_capacities_override" yaml:"welfare_capacities_override"`
	MoralWeightsOverride      map[Animal]dist.Distribution `json:"moral_weights_override" yaml:"moral_weights_override"`
}

func DefaultParams() Params {
	return Params{
		Type:         "Moral Weight Parameters",
		Version:      "1",
		OverrideType: OnlyWelfareCapacities,
		WeightsForModels: map[string]float64{
			"Neuron Count":                0.01,
			"Quantitative":                0.05,
			"Qualitative":                 0.05,
			"Cubic":                       0.01,
			"Higher-confidence Proxies":   0.2,
			"Qualitative-minus-social":    0.05,
			"Pleasure-and-pain-centric":   0.2,
			"Higher / Lower Pleasures":    0.03,
			"Just Noticeable Differences": 0.2,
			"Grouped Proxies":             0.1,
			"Undiluted Experience":        0.05,
			"Equality":                    0.05,
		},
		SentienceRanges: map[Animal]dist.Distribution{
			BSF:     dist.Must(dist.Beta(3, 6)),
			Carp:    dist.Must(dist.Beta(17, 7)),
			Chicken: dist.Must(dist.Beta(28, 5)),
			Shrimp:  dist.Must(dist.Beta(5, 6)),
		},
		WelfareCapacitiesOverride: map[Animal]dist.Distribution{
			BSF:     dist.Must(dist.Lognorm(0.001, 0.196, dist.LClip(0))),
			Carp:    dist.Must(dist.Lognorm(0.013, 0.568, dist.LClip(0))),
			Chicken: dist.Must(dist.Norm(0.002, 0.869, dist.LClip(0))),
			Shrimp:  dist.Must(dist.Lognorm(0.0008, 1.149, dist.LClip(0))),
		},
		MoralWeightsOverride: map[Animal]dist.Distribution{
			BSF:     dist.Must(dist.Norm(0.01, 0.215, dist.LClip(0))),
			Carp:    dist.Must(dist.Norm(0.05, 0.59, dist.LClip(0))),
			Chicken: dist.Must(dist.Norm(0.002, 0.856, dist.LClip(0))),
			Shrimp:  dist.Must(dist.Norm(0.01, 1.095, dist.LClip(0))),
		},
	}
}

func (p Params) Validate() error {
	switch p.OverrideType {
	case NoOverride, OnlyWelfareCapacities, AllMoralWeights:
	default:
		return apperr.Validation("unknown moral weight override type %q", p.OverrideType)
	}

	total := 0.0
	for model, w := range p.WeightsForModels {
		if !knownModel(model) {
			return apperr.Validation("unknown welfare model %q", model)
		}
		if w < 0 {
			return apperr.Validation("weight for model %q must be non-negative, got %v", model, w)
		}
		total += w
	}
	if math.Abs(total-1) > 1e-6 {
		return apperr.Validation("model weights must sum to 1, got %v", total)
	}

	for _, a := range Intervenable() {
		if _, ok := p.SentienceRanges[a]; !ok {
			return apperr.Validation("missing sentience range for %q", a)
		}
	}
	return nil
}

func knownModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
