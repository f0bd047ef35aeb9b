// Package dist describes probability distributions as serialisable values and
// draws Monte-Carlo samples from them.
package dist

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ccm/internal/apperr"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Type string

const (
	TypeConstant    Type = "constant"
	TypeUniform     Type = "uniform"
	TypeConfidence  Type = "confidence"
	TypeGamma       Type = "gamma"
	TypeBeta        Type = "beta"
	TypeCategorical Type = "categorical"
)

// Family selects the shape of a confidence distribution. An empty family is
// resolved from the range: lognormal when the low bound is positive.
type Family string

const (
	FamilyAuto      Family = ""
	FamilyNormal    Family = "normal"
	FamilyLognormal Family = "lognormal"
)

// DefaultCredibility is the width of the confidence interval, in percent,
// that a confidence range describes when none is given.
const DefaultCredibility = 90

var validate = validator.New()

// Distribution is a tagged union over the supported distribution specs.
// Only the fields belonging to Type are meaningful.
type Distribution struct {
	Type         Type      `json:"type" yaml:"type" validate:"required,oneof=constant uniform confidence gamma beta categorical"`
	Distribution Family    `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Value        *float64  `json:"value,omitempty" yaml:"value,omitempty"`
	Range        []float64 `json:"range,omitempty" yaml:"range,omitempty" validate:"omitempty,len=2"`
	Credibility  int       `json:"credibility,omitempty" yaml:"credibility,omitempty" validate:"omitempty,oneof=50 80 90"`
	Clip         *Bounds   `json:"clip,omitempty" yaml:"clip,omitempty"`
	Shape        float64   `json:"shape,omitempty" yaml:"shape,omitempty"`
	Scale        float64   `json:"scale,omitempty" yaml:"scale,omitempty"`
	Alpha        float64   `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Beta         float64   `json:"beta,omitempty" yaml:"beta,omitempty"`
	Items        []Item    `json:"items,omitempty" yaml:"items,omitempty" validate:"omitempty,dive"`
}

// Bounds clips samples; a nil side is unbounded. Serialised as [lower, upper].
type Bounds struct {
	Lower *float64
	Upper *float64
}

// Item is one (probability, value) pair of a categorical distribution.
type Item struct {
	P     float64 `validate:"gte=0,lte=1"`
	Value float64
}

// Option tweaks a confidence or gamma distribution under construction.
type Option func(*Distribution)

func LClip(v float64) Option {
	return func(d *Distribution) {
		if d.Clip == nil {
			d.Clip = &Bounds{}
		}
		d.Clip.Lower = &v
	}
}

func RClip(v float64) Option {
	return func(d *Distribution) {
		if d.Clip == nil {
			d.Clip = &Bounds{}
		}
		d.Clip.Upper = &v
	}
}

func Credibility(c int) Option {
	return func(d *Distribution) { d.Credibility = c }
}

func Constant(v float64) Distribution {
	return Distribution{Type: TypeConstant, Distribution: Family(TypeConstant), Value: &v}
}

func Uniform(lo, hi float64) (Distribution, error) {
	return build(Distribution{Type: TypeUniform, Range: []float64{lo, hi}})
}

// Norm is a normal distribution whose credibility interval spans [lo, hi].
func Norm(lo, hi float64, opts ...Option) (Distribution, error) {
	return confidence(FamilyNormal, lo, hi, opts)
}

// Lognorm is a lognormal distribution whose credibility interval spans [lo, hi].
func Lognorm(lo, hi float64, opts ...Option) (Distribution, error) {
	return confidence(FamilyLognormal, lo, hi, opts)
}

// To picks lognormal for strictly positive ranges and normal otherwise.
func To(lo, hi float64, opts ...Option) (Distribution, error) {
	return confidence(FamilyAuto, lo, hi, opts)
}

func Gamma(shape, scale float64, opts ...Option) (Distribution, error) {
	d := Distribution{Type: TypeGamma, Shape: shape, Scale: scale}
	for _, opt := range opts {
		opt(&d)
	}
	return build(d)
}

func Beta(alpha, beta float64) (Distribution, error) {
	return build(Distribution{Type: TypeBeta, Alpha: alpha, Beta: beta})
}

func Categorical(items ...Item) (Distribution, error) {
	return build(Distribution{Type: TypeCategorical, Items: items})
}

// Must panics when err is non-nil. Intended for static default tables.
func Must(d Distribution, err error) Distribution {
	if err != nil {
		panic(err)
	}
	return d
}

func confidence(family Family, lo, hi float64, opts []Option) (Distribution, error) {
	d := Distribution{Type: TypeConfidence, Distribution: family, Range: []float64{lo, hi}}
	for _, opt := range opts {
		opt(&d)
	}
	return build(d)
}

func build(d Distribution) (Distribution, error) {
	d = d.normalized()
	if err := d.Validate(); err != nil {
		return Distribution{}, err
	}
	return d, nil
}

func (d Distribution) normalized() Distribution {
	switch d.Type {
	case TypeConfidence:
		if d.Credibility == 0 {
			d.Credibility = DefaultCredibility
		}
	case "":
	default:
		if d.Distribution == FamilyAuto {
			d.Distribution = Family(d.Type)
		}
	}
	return d
}

// Validate checks the spec for internal consistency.
func (d Distribution) Validate() error {
	if err := validate.Struct(d); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, fmt.Errorf("invalid distribution: %w", err))
	}

	switch d.Type {
	case TypeConstant:
		if d.Value == nil {
			return apperr.Validation("constant distribution requires a value")
		}
	case TypeUniform:
		if err := checkRange(d.Range); err != nil {
			return err
		}
	case TypeConfidence:
		if err := checkRange(d.Range); err != nil {
			return err
		}
		switch d.Distribution {
		case FamilyAuto, FamilyNormal:
		case FamilyLognormal:
			if d.Range[0] <= 0 {
				return apperr.Validation("lognormal range must be strictly positive, got %v", d.Range)
			}
		default:
			return apperr.Validation("unknown confidence distribution %q", d.Distribution)
		}
		if err := d.Clip.validate(); err != nil {
			return err
		}
	case TypeGamma:
		if d.Shape <= 0 || d.Scale <= 0 {
			return apperr.Validation("gamma shape and scale must be > 0, got shape=%v scale=%v", d.Shape, d.Scale)
		}
		if err := d.Clip.validate(); err != nil {
			return err
		}
	case TypeBeta:
		if d.Alpha <= 0 || d.Beta <= 0 {
			return apperr.Validation("beta alpha and beta must be > 0, got alpha=%v beta=%v", d.Alpha, d.Beta)
		}
	case TypeCategorical:
		if len(d.Items) == 0 {
			return apperr.Validation("categorical distribution requires at least one item")
		}
		total := 0.0
		for _, it := range d.Items {
			total += it.P
		}
		if math.Abs(total-1) > 1e-9 {
			return apperr.Validation("categorical probabilities must sum to 1, got %v", total)
		}
	}

	if d.Type != TypeConfidence && d.Distribution != FamilyAuto && string(d.Distribution) != string(d.Type) {
		return apperr.Validation("distribution %q does not match type %q", d.Distribution, d.Type)
	}
	return nil
}

func checkRange(r []float64) error {
	if len(r) != 2 {
		return apperr.Validation("range must have two elements, got %d", len(r))
	}
	if math.IsNaN(r[0]) || math.IsNaN(r[1]) || r[0] >= r[1] {
		return apperr.Validation("range must satisfy low < high, got %v", r)
	}
	return nil
}

func (b *Bounds) validate() error {
	if b == nil || b.Lower == nil || b.Upper == nil {
		return nil
	}
	if *b.Lower >= *b.Upper {
		return apperr.Validation("clip must satisfy lower < upper, got [%v, %v]", *b.Lower, *b.Upper)
	}
	return nil
}

// IsZero reports whether d is the empty (unset) distribution.
func (d Distribution) IsZero() bool {
	return d.Type == ""
}

// ResolvedFamily is the concrete family sampled for a confidence distribution.
func (d Distribution) ResolvedFamily() Family {
	if d.Distribution != FamilyAuto {
		return d.Distribution
	}
	if len(d.Range) == 2 && d.Range[0] > 0 {
		return FamilyLognormal
	}
	return FamilyNormal
}

func (d Distribution) String() string {
	switch d.Type {
	case TypeConstant:
		if d.Value == nil {
			return "constant(?)"
		}
		return "constant(" + num(*d.Value) + ")"
	case TypeUniform:
		return fmt.Sprintf("uniform(%s, %s)", num(d.Range[0]), num(d.Range[1]))
	case TypeConfidence:
		name := "norm"
		if d.ResolvedFamily() == FamilyLognormal {
			name = "lognorm"
		}
		args := []string{num(d.Range[0]), num(d.Range[1])}
		args = append(args, d.Clip.args()...)
		if d.Credibility != 0 && d.Credibility != DefaultCredibility {
			args = append(args, "credibility="+strconv.Itoa(d.Credibility))
		}
		return name + "(" + strings.Join(args, ", ") + ")"
	case TypeGamma:
		args := append([]string{num(d.Shape), num(d.Scale)}, d.Clip.args()...)
		return "gamma(" + strings.Join(args, ", ") + ")"
	case TypeBeta:
		return fmt.Sprintf("beta(%s, %s)", num(d.Alpha), num(d.Beta))
	case TypeCategorical:
		parts := make([]string, len(d.Items))
		for i, it := range d.Items {
			parts[i] = num(it.Value) + ": " + num(it.P)
		}
		return "discrete({" + strings.Join(parts, ", ") + "})"
	}
	return "<unset>"
}

func (b *Bounds) args() []string {
	if b == nil {
		return nil
	}
	var out []string
	if b.Lower != nil {
		out = append(out, "lclip="+num(*b.Lower))
	}
	if b.Upper != nil {
		out = append(out, "rclip="+num(*b.Upper))
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type plain Distribution

func (d *Distribution) UnmarshalJSON(data []byte) error {
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, err)
	}
	out, err := build(Distribution(p))
	if err != nil {
		return err
	}
	*d = out
	return nil
}

func (d *Distribution) UnmarshalYAML(value *yaml.Node) error {
	var p plain
	if err := value.Decode(&p); err != nil {
		return apperr.WithCode(apperr.CodeValidationError, err)
	}
	out, err := build(Distribution(p))
	if err != nil {
		return err
	}
	*d = out
	return nil
}

func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*float64{b.Lower, b.Upper})
}

func (b *Bounds) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.set(raw)
}

func (b Bounds) MarshalYAML() (interface{}, error) {
	return []*float64{b.Lower, b.Upper}, nil
}

func (b *Bounds) UnmarshalYAML(value *yaml.Node) error {
	var raw []*float64
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return b.set(raw)
}

func (b *Bounds) set(raw []*float64) error {
	if len(raw) != 2 {
		return fmt.Errorf("clip must have two elements, got %d", len(raw))
	}
	b.Lower, b.Upper = raw[0], raw[1]
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{it.P, it.Value})
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var raw [2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	it.P, it.Value = raw[0], raw[1]
	return nil
}

func (it Item) MarshalYAML() (interface{}, error) {
	return []float64{it.P, it.Value}, nil
}

func (it *Item) UnmarshalYAML(value *yaml.Node) error {
	var raw []float64
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("categorical item must be [probability, value], got %v", raw)
	}
	it.P, it.Value = raw[0], raw[1]
	return nil
}
