package risk

import (
	"encoding/json"
	"math"

	"ccm/internal/apperr"

	"gopkg.in/yaml.v3"
)

// Era is a span of years with a constant annual extinction risk, split by type.
// It can be given by absolute per-type risks, from which the total and the
// proportions follow, or by a total and proportions.
type Era struct {
	Length                  int              `json:"length" yaml:"length"`
	AnnualExtinctionRisk    float64          `json:"annual_extinction_risk" yaml:"annual_extinction_risk"`
	AbsoluteRisksByType     map[Type]float64 `json:"absolute_risks_by_type,omitempty" yaml:"absolute_risks_by_type,omitempty"`
	ProportionalRisksByType map[Type]float64 `json:"proportional_risks_by_type,omitempty" yaml:"proportional_risks_by_type,omitempty"`
}

func NewEraAbsolute(length int, absolute map[Type]float64) (Era, error) {
	return Era{Length: length, AbsoluteRisksByType: absolute}.normalized()
}

func NewEraProportional(length int, total float64, proportional map[Type]float64) (Era, error) {
	return Era{Length: length, AnnualExtinctionRisk: total, ProportionalRisksByType: proportional}.normalized()
}

func MustEra(e Era, err error) Era {
	if err != nil {
		panic(err)
	}
	return e
}

const proportionTolerance = 1e-6

func (e Era) normalized() (Era, error) {
	if e.Length <= 0 {
		return Era{}, apperr.Validation("era length must be positive, got %d", e.Length)
	}
	for t := range e.AbsoluteRisksByType {
		if !t.Valid() || t == AI {
			return Era{}, apperr.Validation("era has unsupported risk type %q", t)
		}
	}
	for t := range e.ProportionalRisksByType {
		if !t.Valid() || t == AI {
			return Era{}, apperr.Validation("era has unsupported risk type %q", t)
		}
	}

	switch {
	case len(e.AbsoluteRisksByType) > 0:
		total := 0.0
		absolute := make(map[Type]float64, len(e.AbsoluteRisksByType))
		for _, t := range sortedTypes(e.AbsoluteRisksByType) {
			r := e.AbsoluteRisksByType[t]
			if r < 0 || r > 1 || math.IsNaN(r) {
				return Era{}, apperr.Validation("absolute risk for %q must be in [0, 1], got %v", t, r)
			}
			absolute[t] = r
			total += r
		}
		if total > 1 {
			return Era{}, apperr.Validation("annual extinction risk must be at most 1, got %v", total)
		}
		proportional := make(map[Type]float64, len(absolute))
		for t, r := range absolute {
			if total > 0 {
				proportional[t] = r / total
			} else {
				proportional[t] = 0
			}
		}
		for t, given := range e.ProportionalRisksByType {
			if math.Abs(given-proportional[t]) > proportionTolerance {
				return Era{}, apperr.Validation("proportional risk for %q (%v) disagrees with absolute risks (%v)", t, given, proportional[t])
			}
		}
		// A fully specified, consistent era is kept as given so that
		// decoding an encoded era is lossless.
		if len(e.ProportionalRisksByType) == len(proportional) && math.Abs(total-e.AnnualExtinctionRisk) <= 1e-12 {
			given := make(map[Type]float64, len(e.ProportionalRisksByType))
			for t, p := range e.ProportionalRisksByType {
				given[t] = p
			}
			return Era{Length: e.Length, AnnualExtinctionRisk: e.AnnualExtinctionRisk, AbsoluteRisksByType: absolute, ProportionalRisksByType: given}, nil
		}
		return Era{Length: e.Length, AnnualExtinctionRisk: total, AbsoluteRisksByType: absolute, ProportionalRisksByType: proportional}, nil

	case len(e.ProportionalRisksByType) > 0:
		if e.AnnualExtinctionRisk < 0 || e.AnnualExtinctionRisk > 1 || math.IsNaN(e.AnnualExtinctionRisk) {
			return Era{}, apperr.Validation("annual extinction risk must be in [0, 1], got %v", e.AnnualExtinctionRisk)
		}
		sum := 0.0
		proportional := make(map[Type]float64, len(e.ProportionalRisksByType))
		absolute := make(map[Type]float64, len(e.ProportionalRisksByType))
		for _, t := range sortedTypes(e.ProportionalRisksByType) {
			p := e.ProportionalRisksByType[t]
			if p < 0 || math.IsNaN(p) {
				return Era{}, apperr.Validation("proportional risk for %q must be non-negative, got %v", t, p)
			}
			sum += p
			proportional[t] = p
			absolute[t] = p * e.AnnualExtinctionRisk
		}
		if math.Abs(sum-1) > proportionTolerance {
			return Era{}, apperr.Validation("proportional risks must sum to 1, got %v", sum)
		}
		return Era{Length: e.Length, AnnualExtinctionRisk: e.AnnualExtinctionRisk, AbsoluteRisksByType: absolute, ProportionalRisksByType: proportional}, nil
	}
	return Era{}, apperr.Validation("era needs absolute risks by type or a total with proportional risks by type")
}

// Risk returns the absolute annual risk of t. The AI aggregate is the sum of
// misalignment and misuse.
func (e Era) Risk(t Type) float64 {
	if t == AI {
		return e.AbsoluteRisksByType[Misalignment] + e.AbsoluteRisksByType[Misuse]
	}
	return e.AbsoluteRisksByType[t]
}

type plainEra Era

func (e *Era) UnmarshalJSON(data []byte) error {
	var p plainEra
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, err)
	}
	out, err := Era(p).normalized()
	if err != nil {
		return err
	}
	*e = out
	return nil
}

func (e *Era) UnmarshalYAML(value *yaml.Node) error {
	var p plainEra
	if err := value.Decode(&p); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, err)
	}
	out, err := Era(p).normalized()
	if err != nil {
		return err
	}
	*e = out
	return nil
}
