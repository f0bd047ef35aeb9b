package moralweight

import (
	"math"
	"math/rand/v2"
	"testing"

	"ccm/internal/apperr"
	"ccm/internal/sample"
)

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("Expected default params to validate, got %v", err)
	}

	p := DefaultParams()
	p.WeightsForModels["Cubic"] = 0.5
	if err := p.Validate(); !apperr.Is(err, apperr.CodeValidationError) {
		t.Errorf("Expected validation error for weights, got %v", err)
	}

	p = DefaultParams()
	p.OverrideType = "Sometimes"
	if err := p.Validate(); err == nil {
		t.Errorf("Expected validation error for override type")
	}
}

func TestParseAnimal(t *testing.T) {
	if a, err := ParseAnimal("Shrimp"); err != nil || a != Shrimp {
		t.Errorf("Expected shrimp, got %v (%v)", a, err)
	}
	if _, err := ParseAnimal("octopus"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	if Human.IsIntervenable() {
		t.Errorf("Expected humans not to be intervenable")
	}
}

func TestAdjustorModes(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	const n = 20000

	tests := []struct {
		name     string
		override OverrideType
		animal   Animal
		minMean  float64
		maxMean  float64
	}{
		// welfare capacity override mean scaled by P(sentient)=28/33
		{"ChickenWelfareOverride", OnlyWelfareCapacities, Chicken, 0.30, 0.45},
		{"ChickenAllOverride", AllMoralWeights, Chicken, 0.38, 0.48},
		{"ShrimpModels", NoOverride, Shrimp, 0.08, 0.18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.OverrideType = tt.override
			w, err := Adjustor(rng, p, tt.animal, n)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(w) != n {
				t.Fatalf("Expected %d samples, got %d", n, len(w))
			}
			m := sample.Mean(w)
			if m < tt.minMean || m > tt.maxMean {
				t.Errorf("Expected mean in [%v, %v], got %v", tt.minMean, tt.maxMean, m)
			}
		})
	}
}

func TestCapacityFromModels(t *testing.T) {
	p := DefaultParams()
	p.OverrideType = NoOverride
	d, err := capacityDistribution(p, Chicken)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := 0.0
	for i, m := range Models {
		expected += p.WeightsForModels[m] * CapacityByModel[Chicken][i]
	}
	got := 0.0
	for _, it := range d.Items {
		got += it.P * it.Value
	}
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected weighted capacity %v, got %v", expected, got)
	}
}

func TestRelativeMoralWeights(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	rel, err := RelativeMoralWeights(rng, DefaultParams(), 5000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ab := rel[Chicken][Shrimp]
	ba := rel[Shrimp][Chicken]
	if math.Abs(ab*ba-1) > 1e-9 {
		t.Errorf("Expected reciprocal ratios, got %v and %v", ab, ba)
	}
	if _, ok := rel[Chicken][Chicken]; ok {
		t.Errorf("Expected no self comparison")
	}
}
