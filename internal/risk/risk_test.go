package risk

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"ccm/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTimeline(t *testing.T) *Timeline {
	t.Helper()
	eras := []Era{
		MustEra(NewEraAbsolute(10, map[Type]float64{Bio: 0.01, Misalignment: 0.02, Misuse: 0.01})),
		MustEra(NewEraProportional(20, 0.001, map[Type]float64{Unknown: 1})),
	}
	tl, err := NewTimeline(eras, 2023)
	require.NoError(t, err)
	return tl
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"nukes", Nukes},
		{"ai misuse", Misuse},
		{"MISALIGNMENT", Misalignment},
		{"Bio", Bio},
		{"ai", AI},
		{"TOTAL", AI},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseType("asteroids")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	assert.NotContains(t, Types(), AI)
}

func TestEraForms(t *testing.T) {
	abs := MustEra(NewEraAbsolute(5, map[Type]float64{Bio: 0.03, Nukes: 0.01}))
	assert.InDelta(t, 0.04, abs.AnnualExtinctionRisk, 1e-12)
	assert.InDelta(t, 0.75, abs.ProportionalRisksByType[Bio], 1e-12)

	prop := MustEra(NewEraProportional(5, 0.04, map[Type]float64{Bio: 0.75, Nukes: 0.25}))
	assert.InDelta(t, 0.03, prop.AbsoluteRisksByType[Bio], 1e-12)

	ai := MustEra(NewEraProportional(5, 0.1, map[Type]float64{Misalignment: 0.9, Misuse: 0.1}))
	assert.InDelta(t, 0.1, ai.Risk(AI), 1e-12)
	assert.InDelta(t, 1.0/9, ai.Risk(Misuse)/ai.Risk(Misalignment), 1e-9)

	bad := []struct {
		name string
		era  Era
	}{
		{"Empty", Era{Length: 5}},
		{"ZeroLength", Era{Length: 0, AbsoluteRisksByType: map[Type]float64{Bio: 0.1}}},
		{"PropSum", Era{Length: 5, AnnualExtinctionRisk: 0.1, ProportionalRisksByType: map[Type]float64{Bio: 0.5}}},
		{"Disagree", Era{Length: 5, AbsoluteRisksByType: map[Type]float64{Bio: 0.1, Nukes: 0.1}, ProportionalRisksByType: map[Type]float64{Bio: 0.9}}},
		{"UnknownType", Era{Length: 5, AbsoluteRisksByType: map[Type]float64{"asteroids": 0.1}}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.era.normalized()
			assert.True(t, apperr.Is(err, apperr.CodeValidationError), "got %v", err)
		})
	}
}

func TestEraJSON(t *testing.T) {
	var e Era
	require.NoError(t, json.Unmarshal([]byte(`{"length":3,"absolute_risks_by_type":{"bio":0.2}}`), &e))
	assert.Equal(t, 0.2, e.AnnualExtinctionRisk)
	assert.Equal(t, 1.0, e.ProportionalRisksByType[Bio])

	data, err := json.Marshal(e)
	require.NoError(t, err)
	var back Era
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e, back)
}

func TestAverageAndCumulativeRisk(t *testing.T) {
	tl := testTimeline(t)
	years := []float64{0, 5, 10, 20, 30, 100}

	avg := tl.AverageRiskOverYears(years)
	assert.Equal(t, 0.0, avg[0])
	assert.InDelta(t, 0.04, avg[1], 1e-12)
	assert.InDelta(t, 0.04, avg[2], 1e-12)
	assert.InDelta(t, (0.4+0.01)/20, avg[3], 1e-12)
	assert.InDelta(t, (0.4+0.02)/30, avg[4], 1e-12)
	// beyond the last era there is no risk
	assert.InDelta(t, (0.4+0.02)/100, avg[5], 1e-12)

	cum := tl.CumulativeRiskOverYears(years)
	assert.InDelta(t, 0.42, cum[4], 1e-12)

	ai := tl.AverageRiskOverYearsByType(AI, []float64{10})
	assert.InDelta(t, 0.03, ai[0], 1e-12)

	cat := tl.CumulativeCatastropheRisk(Bio, 2, []float64{10})
	assert.InDelta(t, 1-math.Pow(0.98, 10), cat[0], 1e-12)

	bp := tl.OneBasisPoint([]float64{10})
	assert.InDelta(t, OneBasisPoint/0.4, bp["total"][0], 1e-12)
	assert.InDelta(t, OneBasisPoint/0.1, bp["non-ai"][0], 1e-9)
	assert.False(t, math.IsInf(bp[string(Nano)][0], 0))
}

func TestRiskInYear(t *testing.T) {
	tl := testTimeline(t)
	assert.Equal(t, 0.01, tl.RiskInYear(Bio, 2023))
	assert.Equal(t, 0.01, tl.RiskInYear(Bio, 2032))
	assert.Equal(t, 0.0, tl.RiskInYear(Bio, 2033))
	assert.Equal(t, 0.001, tl.RiskInYear(Unknown, 2040))
	assert.Equal(t, 0.0, tl.RiskInYear(Unknown, 2053))
}

func TestYearsToExtinction(t *testing.T) {
	tl := testTimeline(t)
	m := tl.YearsToExtinction()
	w := m.Weights()
	assert.InDelta(t, 1-math.Pow(0.96, 10), w[0], 1e-12)
	assert.InDelta(t, 1, w[0]+w[1], 1e-12)

	rng := rand.New(rand.NewPCG(4, 4))
	samples := m.Sample(rng, 20000)
	early := 0
	for _, v := range samples {
		require.Equal(t, math.Floor(v), v)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 29.0)
		if v < 10 {
			early++
		}
	}
	assert.InDelta(t, w[0], float64(early)/20000, 0.02)
}

func TestDefaultEras(t *testing.T) {
	eras, err := DefaultEras(DefaultMisuseToMisalignment)
	require.NoError(t, err)
	require.Len(t, eras, 4)
	assert.Equal(t, []int{30, 100, 1000, 100_000_000}, []int{eras[0].Length, eras[1].Length, eras[2].Length, eras[3].Length})
	assert.InDelta(t, eras[2].AnnualExtinctionRisk, eras[3].AnnualExtinctionRisk, 1e-15)
	assert.InDelta(t, DefaultMisuseToMisalignment, eras[0].ProportionalRisksByType[Misuse]/eras[0].ProportionalRisksByType[Misalignment], 1e-9)

	for _, e := range eras {
		sum := 0.0
		for _, p := range e.ProportionalRisksByType {
			sum += p
		}
		assert.InDelta(t, 1, sum, 1e-6)
	}

	perils, err := TimeOfPerilsEras(DefaultMisuseToMisalignment)
	require.NoError(t, err)
	assert.Equal(t, 0.05, perils[0].AnnualExtinctionRisk)
	assert.Equal(t, 3023, perils[3].Length)
}

func TestDefaultErasReproducible(t *testing.T) {
	first, err := DefaultEras(DefaultMisuseToMisalignment)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	// Map iteration order changes between calls; the eras must not.
	for i := 0; i < 20; i++ {
		eras, err := DefaultEras(DefaultMisuseToMisalignment)
		require.NoError(t, err)
		got, err := json.Marshal(eras)
		require.NoError(t, err)
		require.Equal(t, string(want), string(got), "call %d", i)
	}
}

func TestAbsoluteEraTotalReproducible(t *testing.T) {
	absolute := map[Type]float64{
		Nukes: 0.0013, Bio: 0.0021, Natural: 0.00007, Unknown: 0.0009,
		Nano: 0.00031, Misalignment: 0.0047, Misuse: 0.00052,
	}
	first := MustEra(NewEraAbsolute(10, absolute))
	for i := 0; i < 20; i++ {
		e := MustEra(NewEraAbsolute(10, absolute))
		require.Equal(t, first.AnnualExtinctionRisk, e.AnnualExtinctionRisk)
		require.Equal(t, first.ProportionalRisksByType, e.ProportionalRisksByType)
	}
}
