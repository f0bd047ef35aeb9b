package funding

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/intervention"
	"ccm/internal/params"
	"ccm/internal/run"
	"ccm/internal/sample"
)

func testEnv(n int, seed uint64) *run.Env {
	p := params.Default()
	p.Simulations = n
	return run.New(p, seed, 0)
}

func constantPool(t *testing.T, dalysPer1000 float64) *Pool {
	t.Helper()
	cache, err := NewCache(8)
	require.NoError(t, err)
	iv := intervention.New("constant", "", &intervention.Result{ResultDistribution: dist.Constant(dalysPer1000)})
	return NewSpecifiedPool(iv, "").WithCache(cache)
}

func TestSpecifiedPoolDefaultName(t *testing.T) {
	p := NewSpecifiedPool(nil, "")
	assert.Equal(t, SpecifiedPoolName, p.Name)
	assert.Equal(t, "Counterfactual", NewSpecifiedPool(nil, "Counterfactual").Name)
	assert.NotEqual(t, NewSpecifiedPool(nil, "").ID, p.ID)
}

func TestCauseBenchmarkPool(t *testing.T) {
	p, err := NewCauseBenchmarkPool("GHD", "")
	require.NoError(t, err)
	assert.Equal(t, CauseBenchmarkPoolName, p.Name)

	_, err = NewCauseBenchmarkPool("Astrology", "")
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))
}

func TestConvertDollarsToDALYs(t *testing.T) {
	pool := constantPool(t, 50)
	env := testEnv(100, 1)

	out, err := pool.ConvertDollarsToDALYs(context.Background(), env, sample.Full(100, 100_000))
	require.NoError(t, err)
	assert.Equal(t, 100, out.NNZ())
	assert.Equal(t, 100, out.Length)
	for _, v := range out.Data {
		assert.InDelta(t, 5000, v, 1e-9)
	}

	scalar, err := pool.ConvertDollarsToDALYs(context.Background(), env, []float64{2000})
	require.NoError(t, err)
	assert.InDelta(t, 100*100.0, scalar.Sum(), 1e-9)
}

func TestConvertRejectsMismatchedCost(t *testing.T) {
	pool := constantPool(t, 50)
	_, err := pool.ConvertDollarsToDALYs(context.Background(), testEnv(100, 1), sample.Ones(7))
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))
}

func TestEfficiencyIsCached(t *testing.T) {
	iv := intervention.New("bar", "", intervention.NewGHD(dist.Must(dist.Norm(31, 81))))
	cache, err := NewCache(8)
	require.NoError(t, err)
	pool := NewSpecifiedPool(iv, "").WithCache(cache)
	env := testEnv(500, 9)

	first, err := pool.Efficiency(context.Background(), env)
	require.NoError(t, err)
	second, err := pool.Efficiency(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Positions, second.Positions)
	assert.Equal(t, 1, cache.Len())

	// Callers own their copy.
	second.Data[0] = -1
	third, err := pool.Efficiency(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, first.Data[0], third.Data[0])

	other := testEnv(500, 10)
	_, err = pool.Efficiency(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestEfficiencyReproducibleAcrossPools(t *testing.T) {
	build := func() *Pool {
		iv := intervention.New("bar", "", intervention.NewGHD(dist.Must(dist.Norm(31, 81))))
		cache, err := NewCache(8)
		require.NoError(t, err)
		return NewSpecifiedPool(iv, "").WithCache(cache)
	}

	a, b := build(), build()
	require.NotEqual(t, a.ID, b.ID)

	first, err := a.Efficiency(context.Background(), testEnv(1000, 42))
	require.NoError(t, err)
	second, err := b.Efficiency(context.Background(), testEnv(1000, 42))
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Positions, second.Positions)
}

func TestEfficiencyShufflesEstimate(t *testing.T) {
	iv := intervention.New("bar", "", intervention.NewGHD(dist.Must(dist.Norm(31, 81))))
	cache, err := NewCache(8)
	require.NoError(t, err)
	pool := NewSpecifiedPool(iv, "").WithCache(cache)
	env := testEnv(500, 4)

	eff, err := pool.Efficiency(context.Background(), env)
	require.NoError(t, err)

	label, err := pool.streamLabel()
	require.NoError(t, err)
	direct, err := iv.Estimate(context.Background(), env.Fork(label))
	require.NoError(t, err)

	require.Equal(t, len(direct.Values), eff.NNZ())
	assert.Equal(t, direct.Len(), eff.Length)
	assert.InDelta(t, direct.Sum(), 1000*eff.Sum(), 1e-9*max(1, direct.Sum()))

	want := slices.Clone(direct.Values)
	got := sample.Scale(eff.Data, 1000)
	slices.Sort(want)
	slices.Sort(got)
	assert.InDeltaSlice(t, want, got, 1e-9)

	inOrder := true
	for i, pos := range eff.Positions {
		if pos != i {
			inOrder = false
			break
		}
	}
	assert.False(t, inOrder, "Expected the estimate to be scattered over new positions")
}

func TestEfficiencyIsPerDollar(t *testing.T) {
	pool := constantPool(t, 1000)
	eff, err := pool.Efficiency(context.Background(), testEnv(50, 3))
	require.NoError(t, err)
	for _, v := range eff.Data {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestProfileWeights(t *testing.T) {
	a := NewSpecifiedPool(nil, "a")
	b := NewSpecifiedPool(nil, "b")

	tests := []struct {
		name     string
		research []Weighted
		wantErr  bool
	}{
		{"single", []Weighted{{a, 1}}, false},
		{"split", []Weighted{{a, 0.3}, {b, 0.7}}, false},
		{"rounding", []Weighted{{a, 0.1}, {a, 0.2}, {b, 0.7}}, false},
		{"short", []Weighted{{a, 0.3}, {b, 0.6}}, true},
		{"over", []Weighted{{a, 0.5}, {b, 0.6}}, true},
		{"negative", []Weighted{{a, -0.5}, {b, 1.5}}, true},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfile("p", tt.research, []Weighted{{a, 1}})
			if tt.wantErr {
				assert.True(t, apperr.Is(err, apperr.CodeValidationError), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSinglePoolProfileIsValid(t *testing.T) {
	p := SinglePool("Funded by Client", NewSpecifiedPool(nil, ""))
	assert.NoError(t, p.Validate())
}
