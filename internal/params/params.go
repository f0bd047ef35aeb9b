// Package params defines the parameter tree every estimator reads from,
// together with its defaults, validation and request-scoped binding.
package params

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/moralweight"
	"ccm/internal/risk"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSimulations       = 50_000
	DefaultCurrentYear       = 2023
	DefaultMaxCreditableYear = 3023
)

// Impact method names.
const (
	MethodExpectedYearsSaved = "expected years saved"
	MethodThousandYearImpact = "thousand year impact"
	MethodTimeOfPerils       = "time of perils"
)

var validate = validator.New()

// Parameters is the full, immutable input to one estimation request.
type Parameters struct {
	Simulations  int                `json:"simulations" yaml:"simulations" validate:"gt=0"`
	CurrentYear  int                `json:"current_year" yaml:"current_year" validate:"gte=1900,lte=3000"`
	GHD          GHDParams          `json:"ghd_intervention_params" yaml:"ghd_intervention_params"`
	Animal       AnimalParams       `json:"animal_intervention_params" yaml:"animal_intervention_params"`
	LongTerm     LongTermParams     `json:"longterm_params" yaml:"longterm_params"`
	ImpactMethod ImpactMethodParams `json:"impact_method" yaml:"impact_method"`
}

type GHDParams struct {
	Type           string `json:"type" yaml:"type"`
	Version        string `json:"version" yaml:"version"`
	AdjustForXRisk bool   `json:"adjust_for_xrisk" yaml:"adjust_for_xrisk"`
}

type AnimalParams struct {
	Type         string                                   `json:"type" yaml:"type"`
	Version      string                                   `json:"version" yaml:"version"`
	MoralWeights moralweight.Params                       `json:"moral_weight_params" yaml:"moral_weight_params"`
	BornPerYear  map[moralweight.Animal]dist.Distribution `json:"num_animals_born_per_year" yaml:"num_animals_born_per_year"`
}

// LongTermParams describes the long-run future: risk eras, how far ahead
// impact is credited, space colonisation and catastrophes.
type LongTermParams struct {
	Type                        string                          `json:"type" yaml:"type"`
	Version                     string                          `json:"version" yaml:"version"`
	RiskEras                    []risk.Era                      `json:"risk_eras" yaml:"risk_eras" validate:"min=1"`
	MaxCreditableYear           int                             `json:"max_creditable_year" yaml:"max_creditable_year"`
	GalacticDensity             dist.Distribution               `json:"galactic_density" yaml:"galactic_density"`
	SuperclusterDensity         dist.Distribution               `json:"supercluster_density" yaml:"supercluster_density"`
	ExpansionSpeed              dist.Distribution               `json:"expansion_speed" yaml:"expansion_speed"`
	StellarPopulationCapacity   dist.Distribution               `json:"stellar_population_capacity" yaml:"stellar_population_capacity"`
	CatastropheExtinctionRatios map[risk.Type]float64           `json:"catastrophe_extinction_risk_ratios" yaml:"catastrophe_extinction_risk_ratios"`
	CatastropheIntensities      map[risk.Type]dist.Distribution `json:"catastrophe_intensities" yaml:"catastrophe_intensities"`
	AIMisuseToMisalignment      float64                         `json:"ai_misuse_to_misalignment_risk_prop" yaml:"ai_misuse_to_misalignment_risk_prop" validate:"gte=0"`
}

type ImpactMethodParams struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
	Method  string `json:"impact_method" yaml:"impact_method"`
}

// Default returns the reference parameter set.
func Default() *Parameters {
	eras, err := risk.DefaultEras(risk.DefaultMisuseToMisalignment)
	if err != nil {
		panic(fmt.Sprintf("params: default risk eras: %v", err))
	}
	return &Parameters{
		Simulations: DefaultSimulations,
		CurrentYear: DefaultCurrentYear,
		GHD: GHDParams{
			Type:    "GHD Intervention Parameters",
			Version: "1",
		},
		Animal: AnimalParams{
			Type:         "Animal Intervention Parameters",
			Version:      "1",
			MoralWeights: moralweight.DefaultParams(),
			BornPerYear:  defaultBornPerYear(),
		},
		LongTerm: LongTermParams{
			Type:                        "Long Term Parameters",
			Version:                     "2",
			RiskEras:                    eras,
			MaxCreditableYear:           DefaultMaxCreditableYear,
			GalacticDensity:             dist.Constant(2.2e-5),
			SuperclusterDensity:         dist.Constant(2.9e-9),
			ExpansionSpeed:              dist.Must(dist.Lognorm(1e-5, 1e-2, dist.LClip(1e-5), dist.RClip(0.1))),
			StellarPopulationCapacity:   dist.Must(dist.Lognorm(1e9, 100e9, dist.LClip(10))),
			CatastropheExtinctionRatios: defaultCatastropheRatios(),
			CatastropheIntensities:      defaultCatastropheIntensities(),
			AIMisuseToMisalignment:      risk.DefaultMisuseToMisalignment,
		},
		ImpactMethod: ImpactMethodParams{
			Type:    "Impact Method Parameters",
			Version: "1",
			Method:  MethodExpectedYearsSaved,
		},
	}
}

func defaultBornPerYear() map[moralweight.Animal]dist.Distribution {
	const b = 1e9
	return map[moralweight.Animal]dist.Distribution{
		moralweight.BSF:     dist.Must(dist.Norm(200*b, 300*b, dist.LClip(20*b), dist.RClip(1000*b))),
		moralweight.Carp:    dist.Must(dist.Norm(8.34*b, 16.7*b, dist.LClip(2*b), dist.RClip(50*b))),
		moralweight.Chicken: dist.Must(dist.Norm(360*b, 520*b, dist.LClip(100*b), dist.RClip(1000*b))),
		moralweight.Shrimp:  dist.Must(dist.Lognorm(300*b, 610*b, dist.LClip(50*b), dist.RClip(2000*b))),
	}
}

func defaultCatastropheRatios() map[risk.Type]float64 {
	return map[risk.Type]float64{
		risk.Nukes:        45,
		risk.Bio:          50,
		risk.Natural:      100,
		risk.Misalignment: 2,
		risk.Misuse:       50,
		risk.Nano:         50,
		risk.Unknown:      30,
	}
}

func defaultCatastropheIntensities() map[risk.Type]dist.Distribution {
	// fraction of the world population killed, from pandemic-scale death tolls
	lo, hi := 20e6/1.8e9, 100e6/1.8e9
	return map[risk.Type]dist.Distribution{
		risk.Nukes:        dist.Must(dist.Norm(0.36, 0.96, dist.LClip(1e-3), dist.RClip(0.99))),
		risk.Bio:          dist.Must(dist.Lognorm(lo, hi, dist.LClip(1e-4), dist.RClip(0.1))),
		risk.Natural:      dist.Must(dist.Lognorm(lo, hi, dist.LClip(1e-2), dist.RClip(0.99))),
		risk.Misalignment: dist.Must(dist.Norm(0.36, 0.96, dist.LClip(0.01), dist.RClip(0.99))),
		risk.Misuse:       dist.Must(dist.Norm(0.05, 0.96, dist.LClip(0.01), dist.RClip(0.99))),
		risk.Nano:         dist.Must(dist.Lognorm(lo, hi, dist.LClip(1e-3), dist.RClip(0.99))),
		risk.Unknown:      dist.Must(dist.Lognorm(lo, hi, dist.LClip(1e-3), dist.RClip(0.99))),
	}
}

// Validate checks the whole tree. It is called after every decode.
func (p *Parameters) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, fmt.Errorf("invalid parameters: %w", err))
	}

	lt := p.LongTerm
	if lt.MaxCreditableYear <= p.CurrentYear {
		return apperr.Validation("max creditable year %d must be after the current year %d", lt.MaxCreditableYear, p.CurrentYear)
	}
	for _, d := range []dist.Distribution{lt.GalacticDensity, lt.SuperclusterDensity, lt.ExpansionSpeed, lt.StellarPopulationCapacity} {
		if d.IsZero() {
			return apperr.Validation("long term distributions must all be set")
		}
	}
	for _, t := range risk.Types() {
		if r, ok := lt.CatastropheExtinctionRatios[t]; !ok || r < 0 {
			return apperr.Validation("missing or negative catastrophe ratio for %q", t)
		}
		if _, ok := lt.CatastropheIntensities[t]; !ok {
			return apperr.Validation("missing catastrophe intensity for %q", t)
		}
	}

	if err := p.Animal.MoralWeights.Validate(); err != nil {
		return err
	}
	for _, a := range moralweight.Intervenable() {
		if _, ok := p.Animal.BornPerYear[a]; !ok {
			return apperr.Validation("missing animals born per year for %q", a)
		}
	}

	switch p.ImpactMethod.Method {
	case MethodExpectedYearsSaved, MethodThousandYearImpact, MethodTimeOfPerils:
	default:
		return apperr.Validation("unknown impact method %q", p.ImpactMethod.Method)
	}
	return nil
}

// Timeline builds the risk timeline of the configured eras.
func (p *Parameters) Timeline() (*risk.Timeline, error) {
	return risk.NewTimeline(p.LongTerm.RiskEras, p.CurrentYear)
}

// Clone returns a deep copy through the JSON encoding.
func (p *Parameters) Clone() (*Parameters, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to encode parameters")
	}
	out := &Parameters{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, apperr.Wrap(err, "failed to decode parameters")
	}
	return out, nil
}

// Hash is a stable digest of the parameter values. Map keys are encoded in
// sorted order so equal trees hash equally.
func (p *Parameters) Hash() string {
	data, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("params: hash encode: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DecodeJSON overlays a JSON document on the defaults and validates the
// result. An empty document yields the defaults.
func DecodeJSON(data []byte) (*Parameters, error) {
	p := Default()
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, apperr.WithCode(apperr.CodeValidationError, fmt.Errorf("invalid parameters document: %w", err))
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Overlay decodes a JSON document on top of a copy of p and validates the
// result. Objects merge key by key; arrays replace.
func (p *Parameters) Overlay(data []byte) (*Parameters, error) {
	out, err := p.Clone()
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, apperr.WithCode(apperr.CodeValidationError, fmt.Errorf("invalid parameters document: %w", err))
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeYAML is DecodeJSON for YAML documents.
func DecodeYAML(data []byte) (*Parameters, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, apperr.WithCode(apperr.CodeValidationError, fmt.Errorf("invalid parameters document: %w", err))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a YAML parameter file. An empty path returns the defaults.
func Load(path string) (*Parameters, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.WithCode(apperr.CodeConfigInvalid, fmt.Errorf("failed to read parameters file %q: %w", path, err))
	}
	return DecodeYAML(data)
}

// YAML renders the parameters as a YAML document.
func (p *Parameters) YAML() ([]byte, error) {
	return yaml.Marshal(p)
}
