// Package simulation runs estimation requests: one intervention estimate,
// one project assessment, a concurrent batch of assessments, or the raw
// life-years impact of a change in existential risk.
package simulation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ccm/internal/apperr"
	"ccm/internal/impact"
	"ccm/internal/intervention"
	"ccm/internal/logging"
	"ccm/internal/params"
	"ccm/internal/research"
	"ccm/internal/risk"
	"ccm/internal/run"
	"ccm/internal/sample"
	"ccm/internal/stats"
)

// Options tune an Engine. A zero Seed draws one from the clock.
type Options struct {
	Seed          uint64
	MaxIterations int
	// Concurrency caps AssessAll workers; 0 means one per project.
	Concurrency int
}

// Engine is request-scoped: it owns the parameters of one request and the
// base seed every random stream of the request derives from.
type Engine struct {
	params        *params.Parameters
	seed          uint64
	maxIterations int
	concurrency   int
}

// Estimate is the outcome of one intervention estimate in DALYs per $1000.
type Estimate struct {
	ID           string
	Seed         uint64
	Intervention *intervention.Intervention
	Samples      sample.ZeroInflated
	Summary      stats.Summary
	RiskWeighted map[stats.Weighter]float64
}

// ImpactEstimate is the life-years outcome of changing one risk type.
type ImpactEstimate struct {
	ID       string
	Seed     uint64
	Method   string
	RiskType risk.Type
	Samples  sample.ZeroInflated
	Summary  stats.Summary
}

func NewEngine(p *params.Parameters, opts Options) (*Engine, error) {
	if p == nil {
		return nil, apperr.Lookup("simulation engine needs parameters")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Engine{
		params:        p,
		seed:          seed,
		maxIterations: opts.MaxIterations,
		concurrency:   opts.Concurrency,
	}, nil
}

func (e *Engine) Seed() uint64 {
	return e.seed
}

func (e *Engine) Parameters() *params.Parameters {
	return e.params
}

func (e *Engine) env() *run.Env {
	return run.New(e.params, e.seed, e.maxIterations)
}

// EstimateIntervention samples iv once per simulated world and summarizes
// the result.
func (e *Engine) EstimateIntervention(ctx context.Context, iv *intervention.Intervention) (*Estimate, error) {
	if iv == nil {
		return nil, apperr.InvalidInput("no intervention given")
	}
	start := time.Now()
	env := e.env()
	ctx = run.WithEnv(ctx, env)

	samples, err := iv.Estimate(ctx, env)
	if err != nil {
		return nil, apperr.Wrapf(err, "intervention %q", iv.Name)
	}

	out := &Estimate{
		ID:           uuid.NewString(),
		Seed:         e.seed,
		Intervention: iv,
		Samples:      samples,
		Summary:      stats.Summarize(samples),
		RiskWeighted: make(map[stats.Weighter]float64, len(stats.Weighters())),
	}
	for _, w := range stats.Weighters() {
		v, err := stats.RiskWeighted(samples, w)
		if err != nil {
			return nil, err
		}
		out.RiskWeighted[w] = v
	}

	logging.Ctx(ctx).Info().
		Str("intervention", iv.Name).
		Str("kind", string(iv.Kind())).
		Str("estimate_id", out.ID).
		Int("samples", env.N()).
		Float64("mean", out.Summary.Mean).
		Dur("duration", time.Since(start)).
		Msg("Intervention estimated")
	return out, nil
}

// AssessProject runs one research project assessment.
func (e *Engine) AssessProject(ctx context.Context, p *research.Project) (*research.Assessment, error) {
	return e.assess(ctx, e.env(), p)
}

func (e *Engine) assess(ctx context.Context, env *run.Env, p *research.Project) (*research.Assessment, error) {
	if p == nil {
		return nil, apperr.InvalidInput("no project given")
	}
	start := time.Now()
	a, err := p.Assess(run.WithEnv(ctx, env), env)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("project", p.ShortName).
		Str("assessment_id", a.ID).
		Int("samples", env.N()).
		Float64("mean_net_dalys", a.Net.Mean()).
		Dur("duration", time.Since(start)).
		Msg("Project assessed")
	return a, nil
}

// AssessAll assesses projects concurrently. Project i draws from a stream
// derived from the base seed and i, so results do not depend on
// scheduling. Results keep the order of projects; the first error cancels
// the rest.
func (e *Engine) AssessAll(ctx context.Context, projects []*research.Project) ([]*research.Assessment, error) {
	out := make([]*research.Assessment, len(projects))
	base := e.env()

	g, ctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, p := range projects {
		child := base.Child(i)
		g.Go(func() error {
			a, err := e.assess(ctx, child, p)
			if err != nil {
				if p != nil {
					return apperr.Wrapf(err, "project %q", p.ShortName)
				}
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// XRiskImpact estimates the life-years gained when the extinction and
// catastrophe risk of t change by the given proportions for yearsActive
// years, under the configured impact method.
func (e *Engine) XRiskImpact(ctx context.Context, t risk.Type, propExtinction, propCatastrophe, yearsActive float64) (*ImpactEstimate, error) {
	if !t.Valid() {
		return nil, apperr.NotFound("risk type " + string(t))
	}
	if propExtinction < -1 || propExtinction > 1 || propCatastrophe < -1 || propCatastrophe > 1 {
		return nil, apperr.Validation("risk changes must be in [-1, 1]")
	}
	if yearsActive < 0 {
		return nil, apperr.Validation("years active must not be negative, got %g", yearsActive)
	}
	method, err := impact.FromParameters(e.params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	env := e.env()
	ctx = run.WithEnv(ctx, env)
	n := env.N()
	values, err := method.Impact(ctx, env, t,
		sample.Full(n, propExtinction), sample.Full(n, propCatastrophe), sample.Full(n, yearsActive))
	if err != nil {
		return nil, err
	}
	samples := sample.ZeroInflated{Values: values}

	out := &ImpactEstimate{
		ID:       uuid.NewString(),
		Seed:     e.seed,
		Method:   method.Name(),
		RiskType: t,
		Samples:  samples,
		Summary:  stats.Summarize(samples),
	}
	logging.Ctx(ctx).Info().
		Str("risk_type", string(t)).
		Str("method", out.Method).
		Int("samples", n).
		Float64("mean_life_years", out.Summary.Mean).
		Dur("duration", time.Since(start)).
		Msg("Risk change impact estimated")
	return out, nil
}
