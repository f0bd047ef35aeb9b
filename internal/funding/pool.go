// Package funding models where research and intervention money comes from
// and what a dollar of it would otherwise have bought.
package funding

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ccm/internal/apperr"
	"ccm/internal/intervention"
	"ccm/internal/run"
	"ccm/internal/sample"
)

const (
	SpecifiedPoolName      = "Specified Intervention"
	CauseBenchmarkPoolName = "Cause Area Benchmark"
)

// Pool is a source of money whose counterfactual use is Intervention. ID
// scopes cache entries to one pool value; the random stream of a pool only
// depends on its name and intervention.
type Pool struct {
	ID           string
	Name         string
	Intervention *intervention.Intervention

	cache *Cache
}

// NewSpecifiedPool funds iv directly. An empty name becomes
// SpecifiedPoolName.
func NewSpecifiedPool(iv *intervention.Intervention, name string) *Pool {
	if name == "" {
		name = SpecifiedPoolName
	}
	return &Pool{ID: uuid.NewString(), Name: name, Intervention: iv}
}

// NewCauseBenchmarkPool funds the benchmark intervention of a cause area.
func NewCauseBenchmarkPool(cause, subcause string) (*Pool, error) {
	iv, err := intervention.CauseBenchmark(cause, subcause, nil)
	if err != nil {
		return nil, err
	}
	return &Pool{ID: uuid.NewString(), Name: CauseBenchmarkPoolName, Intervention: iv}, nil
}

// WithCache makes the pool use c instead of the shared cache.
func (p *Pool) WithCache(c *Cache) *Pool {
	p.cache = c
	return p
}

func (p *Pool) cacheOrShared() *Cache {
	if p.cache != nil {
		return p.cache
	}
	return Shared()
}

// Efficiency returns DALYs per dollar for every simulated world, scattered
// across a logical array that includes the estimate's zeros.
func (p *Pool) Efficiency(ctx context.Context, env *run.Env) (sample.Sparse, error) {
	if p.Intervention == nil {
		return sample.Sparse{}, apperr.Validation("funding pool %q has no intervention", p.Name)
	}
	key := cacheKey{pool: p.ID, params: env.Params.Hash(), n: env.N(), seed: env.Seed}
	return p.cacheOrShared().getOrCompute(key, func() (sample.Sparse, error) {
		label, err := p.streamLabel()
		if err != nil {
			return sample.Sparse{}, err
		}
		fill := env.Fork(label)
		est, err := p.Intervention.Estimate(ctx, fill)
		if err != nil {
			return sample.Sparse{}, err
		}
		log.Debug().
			Str("pool", p.Name).
			Str("intervention", p.Intervention.Name).
			Int("samples", len(est.Values)).
			Int("zeros", est.Zeros).
			Msg("Funding pool efficiency estimated")
		return sample.Scatter(fill.Rand, sample.Scale(est.Values, 1.0/1000), est.Zeros), nil
	})
}

// streamLabel names the pool's forked random stream by content, so equal
// pools draw equal samples in every process.
func (p *Pool) streamLabel() (string, error) {
	data, err := json.Marshal(p.Intervention)
	if err != nil {
		return "", apperr.Wrapf(err, "funding pool %q", p.Name)
	}
	return "pool:" + p.Name + ":" + string(data), nil
}

// ConvertDollarsToDALYs prices cost (one entry per stored value, or a single
// scalar) in DALYs the pool would otherwise have averted.
func (p *Pool) ConvertDollarsToDALYs(ctx context.Context, env *run.Env, cost []float64) (sample.Sparse, error) {
	eff, err := p.Efficiency(ctx, env)
	if err != nil {
		return sample.Sparse{}, err
	}
	if len(cost) == 1 && eff.NNZ() != 1 {
		cost = sample.Full(eff.NNZ(), cost[0])
	}
	if len(cost) != eff.NNZ() {
		return sample.Sparse{}, apperr.Validation("cost has %d samples but pool %q stores %d", len(cost), p.Name, eff.NNZ())
	}
	eff.Data = sample.Mul(cost, eff.Data)
	return eff, nil
}
