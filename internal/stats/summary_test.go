package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccm/internal/apperr"
	"ccm/internal/sample"
)

func TestSummarize(t *testing.T) {
	s := Summarize(sample.ZeroInflated{Values: []float64{4, -2, 6, 8}, Zeros: 4})

	assert.Equal(t, 8, s.N)
	assert.InDelta(t, 2, s.Mean, 1e-12)
	assert.InDelta(t, 0, s.Median, 1e-12)
	assert.InDelta(t, -2, s.Min, 1e-12)
	assert.InDelta(t, 8, s.Max, 1e-12)
	assert.InDelta(t, 0.5, s.ZeroProportion, 1e-12)
	assert.InDelta(t, 5, s.NonZeroMedian, 1e-12)
	assert.LessOrEqual(t, s.P5, s.P25)
	assert.LessOrEqual(t, s.P75, s.P95)
}

func TestSummarizeClampsExtremesToZero(t *testing.T) {
	s := Summarize(sample.ZeroInflated{Values: []float64{3, 5}, Zeros: 1})
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 5.0, s.Max)

	assert.Equal(t, Summary{}, Summarize(sample.ZeroInflated{}))
}

func TestRiskWeighted(t *testing.T) {
	z := sample.ZeroInflated{Values: []float64{-10, 1, 100}, Zeros: 1}

	tests := []struct {
		weighter Weighter
		expected float64
	}{
		{WeighterEU, 91.0 / 4},
		{WeighterMin, -10},
		{WeighterMax, 100},
	}
	for _, tt := range tests {
		t.Run(string(tt.weighter), func(t *testing.T) {
			got, err := RiskWeighted(z, tt.weighter)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}

	mean := z.Mean()
	for _, w := range []Weighter{WeighterWLUAggressive, WeighterWLUSymmetric} {
		got, err := RiskWeighted(z, w)
		require.NoError(t, err)
		assert.Less(t, got, mean, "%s should be risk averse", w)
	}
}

func TestWLUOnConstantEqualsMean(t *testing.T) {
	for _, v := range []float64{-3, 0.5, 7} {
		for _, w := range []Weighter{WeighterWLUAggressive, WeighterWLUSymmetric} {
			got, err := RiskWeightedMean([]float64{v, v, v, v}, w)
			require.NoError(t, err)
			assert.InDelta(t, v, got, 1e-12)
		}
	}
}

func TestWeightFunctions(t *testing.T) {
	assert.InDelta(t, 0.5, aggressiveWeight(1), 1e-12)
	assert.InDelta(t, 1+math.Log(2), aggressiveWeight(-1), 1e-12)
	assert.InDelta(t, 1.5, symmetricWeight(-1), 1e-12)
	assert.Less(t, symmetricWeight(-1e12), 2.0)
}

func TestParseWeighter(t *testing.T) {
	w, err := ParseWeighter("WLU - symmetric")
	require.NoError(t, err)
	assert.Equal(t, WeighterWLUSymmetric, w)

	_, err = ParseWeighter("YOLO")
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))

	_, err = RiskWeighted(sample.ZeroInflated{}, WeighterEU)
	assert.True(t, apperr.Is(err, apperr.CodeValidationError))
}

func TestSummarizeDense(t *testing.T) {
	s := SummarizeDense([]float64{1, 2, 3})
	assert.Equal(t, 3, s.N)
	assert.InDelta(t, 2, s.Median, 1e-12)
	assert.InDelta(t, 0, s.ZeroProportion, 1e-12)
}
