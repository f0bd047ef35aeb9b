// Package intervention estimates the cost-effectiveness of interventions,
// in DALYs (or their human-equivalent) per $1000, as zero-inflated samples.
package intervention

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/metrics"
	"ccm/internal/moralweight"
	"ccm/internal/run"
	"ccm/internal/sample"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Kind discriminates the payload of an Intervention on the wire.
type Kind string

const (
	KindResult Kind = "result"
	KindAnimal Kind = "animal-welfare"
	KindGHD    Kind = "ghd"
	KindXRisk  Kind = "xrisk"
)

// Areas an intervention may belong to.
const (
	AreaGHD        = "ghd"
	AreaAnimal     = "animal-welfare"
	AreaXRisk      = "xrisk"
	AreaUtility    = "utility"
	AreaNotAnInter = "not-an-intervention"
)

// Estimator is implemented by the intervention payloads: Result, Animal, GHD
// and XRisk.
type Estimator interface {
	Kind() Kind
	Validate() error
	estimate(ctx context.Context, env *run.Env) (sample.ZeroInflated, error)
}

// Scale multiplies every sample by draws of Distribution, or of
// 1-Distribution when Complement is set.
type Scale struct {
	Distribution dist.Distribution `json:"distribution" yaml:"distribution"`
	Complement   bool              `json:"complement,omitempty" yaml:"complement,omitempty"`
}

func (s Scale) sampler() dist.Sampler {
	if s.Complement {
		return dist.Complement{Of: s.Distribution}
	}
	return s.Distribution
}

// Intervention is the envelope shared by every kind of intervention. On the
// wire the payload fields sit next to the envelope fields.
type Intervention struct {
	Name        string
	Area        string
	Description string
	Scale       *Scale
	Payload     Estimator
}

func New(name, description string, payload Estimator) *Intervention {
	return &Intervention{
		Name:        name,
		Area:        defaultArea(payload.Kind()),
		Description: description,
		Payload:     payload,
	}
}

func defaultArea(k Kind) string {
	switch k {
	case KindAnimal:
		return AreaAnimal
	case KindGHD:
		return AreaGHD
	case KindXRisk:
		return AreaXRisk
	}
	return AreaUtility
}

func (iv *Intervention) Kind() Kind {
	return iv.Payload.Kind()
}

// WithScale returns a copy of iv renamed to name and scaled by s.
func (iv *Intervention) WithScale(name string, s Scale) *Intervention {
	out := *iv
	out.Name = name
	out.Scale = &s
	return &out
}

func (iv *Intervention) Validate() error {
	if iv.Payload == nil {
		return apperr.Validation("intervention %q has no payload", iv.Name)
	}
	if iv.Name == "" {
		return apperr.Validation("intervention name is required")
	}
	if iv.Scale != nil {
		if err := iv.Scale.Distribution.Validate(); err != nil {
			return apperr.Wrapf(err, "scale of intervention %q", iv.Name)
		}
	}
	if err := iv.Payload.Validate(); err != nil {
		return apperr.Wrapf(err, "intervention %q", iv.Name)
	}
	return nil
}

// Estimate returns DALYs per $1000 for every simulated world.
func (iv *Intervention) Estimate(ctx context.Context, env *run.Env) (sample.ZeroInflated, error) {
	if err := iv.Validate(); err != nil {
		return sample.ZeroInflated{}, err
	}
	if err := ctx.Err(); err != nil {
		return sample.ZeroInflated{}, err
	}
	defer metrics.ObserveEstimate(string(iv.Kind()), time.Now())

	out, err := iv.Payload.estimate(ctx, env)
	if err != nil {
		return sample.ZeroInflated{}, err
	}
	metrics.Simulations.Add(float64(env.N()))
	if iv.Scale != nil {
		out = out.Mul(iv.Scale.sampler().Sample(env.Rand, len(out.Values)))
	}
	return out, nil
}

type envelope struct {
	Type        Kind   `json:"type"`
	Name        string `json:"name"`
	Area        string `json:"area,omitempty"`
	Description string `json:"description,omitempty"`
	Scale       *Scale `json:"scale,omitempty"`
}

func (iv *Intervention) MarshalJSON() ([]byte, error) {
	if iv.Payload == nil {
		return nil, apperr.Validation("intervention %q has no payload", iv.Name)
	}
	head, err := json.Marshal(envelope{
		Type:        iv.Kind(),
		Name:        iv.Name,
		Area:        iv.Area,
		Description: iv.Description,
		Scale:       iv.Scale,
	})
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(iv.Payload)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if string(body) == "{}" {
		return head, nil
	}
	// splice the payload object into the envelope object
	merged := append(head[:len(head)-1], ',')
	return append(merged, body[1:]...), nil
}

// UnmarshalJSON decodes the payload selected by "type" over the defaults of
// its kind, so omitted payload fields keep their default distributions.
func (iv *Intervention) UnmarshalJSON(data []byte) error {
	var head envelope
	if err := json.Unmarshal(data, &head); err != nil {
		return apperr.WithCode(apperr.CodeInvalidInput, fmt.Errorf("decode intervention: %w", err))
	}

	var payload Estimator
	switch head.Type {
	case KindResult:
		payload = &Result{}
	case KindAnimal:
		payload = GenericAnimal(moralweight.Shrimp)
	case KindGHD:
		payload = DefaultGHD()
	case KindXRisk:
		payload = defaultXRisk("")
	default:
		return apperr.Validation("unknown intervention type %q", head.Type)
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return apperr.WithCode(apperr.CodeInvalidInput, fmt.Errorf("decode %s intervention: %w", head.Type, err))
	}

	*iv = Intervention{
		Name:        head.Name,
		Area:        head.Area,
		Description: head.Description,
		Scale:       head.Scale,
		Payload:     payload,
	}
	if iv.Area == "" {
		iv.Area = defaultArea(head.Type)
	}
	if iv.Name == "" {
		iv.Name = defaultName(payload)
	}
	return nil
}

func defaultName(e Estimator) string {
	switch p := e.(type) {
	case *Animal:
		return fmt.Sprintf("A generic %s welfare intervention", title(string(p.Animal)))
	case *XRisk:
		return fmt.Sprintf("A generic %s intervention", title(string(p.RiskType)))
	}
	return "Custom intervention"
}
