// Package run carries the per-request state shared by every estimator: the
// bound parameters, the random source and the iteration cap.
package run

import (
	"context"
	"hash/fnv"
	"math/rand/v2"

	"ccm/internal/apperr"
	"ccm/internal/params"
	"ccm/internal/risk"
)

// DefaultMaxIterations caps rejection-sampling loops.
const DefaultMaxIterations = 10_000

// Env is owned by a single request and must not be shared across goroutines.
type Env struct {
	Params        *params.Parameters
	Rand          *rand.Rand
	MaxIterations int
	Seed          uint64

	timeline *risk.Timeline
}

func New(p *params.Parameters, seed uint64, maxIterations int) *Env {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Env{
		Params:        p,
		Rand:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		MaxIterations: maxIterations,
		Seed:          seed,
	}
}

// N is the number of simulations per estimate.
func (e *Env) N() int {
	return e.Params.Simulations
}

// Timeline returns the risk timeline of the bound parameters, built once.
func (e *Env) Timeline() (*risk.Timeline, error) {
	if e.timeline == nil {
		tl, err := e.Params.Timeline()
		if err != nil {
			return nil, err
		}
		e.timeline = tl
	}
	return e.timeline, nil
}

// Child derives an independent environment for the i-th concurrent task.
func (e *Env) Child(i int) *Env {
	return New(e.Params, e.Seed+uint64(i+1)*0x2545f4914f6cdd1d, e.MaxIterations)
}

// Fork derives an environment whose random stream depends only on the base
// seed and label, not on how much of e's stream has been used.
func (e *Env) Fork(label string) *Env {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return New(e.Params, e.Seed^h.Sum64(), e.MaxIterations)
}

type contextKey struct{}

func WithEnv(ctx context.Context, e *Env) context.Context {
	return params.WithParameters(context.WithValue(ctx, contextKey{}, e), e.Params)
}

func FromContext(ctx context.Context) (*Env, error) {
	e, ok := ctx.Value(contextKey{}).(*Env)
	if !ok || e == nil {
		return nil, apperr.Lookup("no run environment bound to the request context")
	}
	return e, nil
}
