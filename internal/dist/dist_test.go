package dist

import (
	"encoding/json"
	"math"
	"testing"

	"ccm/internal/apperr"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Distribution, error)
		ok    bool
	}{
		{"Norm", func() (Distribution, error) { return Norm(1, 2) }, true},
		{"InvertedRange", func() (Distribution, error) { return Norm(2, 1) }, false},
		{"EqualRange", func() (Distribution, error) { return Uniform(1, 1) }, false},
		{"InvertedClip", func() (Distribution, error) { return Norm(1, 2, LClip(5), RClip(3)) }, false},
		{"OneSidedClip", func() (Distribution, error) { return Norm(1, 2, LClip(5)) }, true},
		{"LognormNonPositive", func() (Distribution, error) { return Lognorm(0, 2) }, false},
		{"AutoNonPositive", func() (Distribution, error) { return To(-1, 2) }, true},
		{"BadCredibility", func() (Distribution, error) { return Norm(1, 2, Credibility(70)) }, false},
		{"GammaZeroShape", func() (Distribution, error) { return Gamma(0, 1) }, false},
		{"BetaNegative", func() (Distribution, error) { return Beta(1, -1) }, false},
		{"CategoricalSum", func() (Distribution, error) { return Categorical(Item{0.5, 1}, Item{0.4, 2}) }, false},
		{"CategoricalEmpty", func() (Distribution, error) { return Categorical() }, false},
		{"Categorical", func() (Distribution, error) { return Categorical(Item{0.5, 1}, Item{0.5, 2}) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if tt.ok && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Errorf("Expected validation error, got nil")
				} else if !apperr.Is(err, apperr.CodeValidationError) {
					t.Errorf("Expected %s, got %s", apperr.CodeValidationError, apperr.GetCode(err))
				}
			}
		})
	}
}

func TestAutoSelect(t *testing.T) {
	assert.Equal(t, FamilyLognormal, Must(To(1, 10)).ResolvedFamily())
	assert.Equal(t, FamilyNormal, Must(To(0, 10)).ResolvedFamily())
	assert.Equal(t, FamilyNormal, Must(To(-5, 10)).ResolvedFamily())
}

func TestCredibilityParams(t *testing.T) {
	d := Must(Norm(31, 81))
	mu, sigma := d.Params()
	assert.InDelta(t, 56, mu, 1e-9)
	assert.InDelta(t, 25/1.6448536, sigma, 1e-4)

	d80 := Must(Norm(31, 81, Credibility(80)))
	_, sigma80 := d80.Params()
	assert.InDelta(t, 25/1.2815516, sigma80, 1e-4)

	ln := Must(Lognorm(1, 100))
	lmu, _ := ln.Params()
	assert.InDelta(t, math.Log(10), lmu, 1e-9)
}

func TestSampleMoments(t *testing.T) {
	rng := NewRand(7)
	const n = 20000

	norm := Must(Norm(40, 60)).Sample(rng, n)
	median, _ := stats.Median(norm)
	assert.InDelta(t, 50, median, 0.5)

	// 90% of a 90% credibility normal should fall inside the range.
	inside := 0
	for _, v := range norm {
		if v >= 40 && v <= 60 {
			inside++
		}
	}
	assert.InDelta(t, 0.9, float64(inside)/n, 0.02)

	ln := Must(Lognorm(1, 100)).Sample(rng, n)
	lnMedian, _ := stats.Median(ln)
	assert.InDelta(t, 10, lnMedian, 0.6)

	g := Must(Gamma(2, 3)).Sample(rng, n)
	gMean, _ := stats.Mean(g)
	assert.InDelta(t, 6, gMean, 0.2)

	b := Must(Beta(9, 4)).Sample(rng, n)
	bMean, _ := stats.Mean(b)
	assert.InDelta(t, 9.0/13, bMean, 0.01)
}

func TestClipReplaces(t *testing.T) {
	rng := NewRand(1)
	values := Must(Norm(0, 10, LClip(4), RClip(6))).Sample(rng, 5000)
	atLower, atUpper := 0, 0
	for _, v := range values {
		require.GreaterOrEqual(t, v, 4.0)
		require.LessOrEqual(t, v, 6.0)
		if v == 4 {
			atLower++
		}
		if v == 6 {
			atUpper++
		}
	}
	assert.Greater(t, atLower, 1000)
	assert.Greater(t, atUpper, 1000)
}

func TestCategoricalAndConstant(t *testing.T) {
	rng := NewRand(3)
	values := Must(Categorical(Item{0.25, 1}, Item{0.75, 2})).Sample(rng, 10000)
	twos := 0
	for _, v := range values {
		require.Contains(t, []float64{1, 2}, v)
		if v == 2 {
			twos++
		}
	}
	assert.InDelta(t, 0.75, float64(twos)/10000, 0.02)

	for _, v := range Constant(3.5).Sample(rng, 10) {
		assert.Equal(t, 3.5, v)
	}
}

func TestComplement(t *testing.T) {
	rng := NewRand(5)
	values := Complement{Of: Must(Lognorm(0.05, 0.25, LClip(0), RClip(1)))}.Sample(rng, 5000)
	m, _ := stats.Median(values)
	assert.InDelta(t, 1-math.Sqrt(0.05*0.25), m, 0.01)
}

func TestJSONRoundTrip(t *testing.T) {
	in := Must(Norm(31, 81, LClip(10), Credibility(80)))
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"confidence","distribution":"normal","range":[31,81],"credibility":80,"clip":[10,null]}`, string(data))

	var out Distribution
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.String(), out.String())

	var cat Distribution
	require.NoError(t, json.Unmarshal([]byte(`{"type":"categorical","items":[[0.5,1],[0.5,2]]}`), &cat))
	assert.Equal(t, Family(TypeCategorical), cat.Distribution)

	var bad Distribution
	err = json.Unmarshal([]byte(`{"type":"uniform","range":[3,1]}`), &bad)
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))
}

func TestYAMLDecode(t *testing.T) {
	var d Distribution
	src := "type: confidence\nrange: [5, 20]\nclip: [1, null]\n"
	require.NoError(t, yaml.Unmarshal([]byte(src), &d))
	assert.Equal(t, DefaultCredibility, d.Credibility)
	assert.Equal(t, FamilyLognormal, d.ResolvedFamily())
	assert.Equal(t, "lognorm(5, 20, lclip=1)", d.String())

	err := yaml.Unmarshal([]byte("type: beta\nalpha: 0\nbeta: 2\n"), &d)
	assert.Error(t, err)
}
