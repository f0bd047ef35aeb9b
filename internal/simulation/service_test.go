package simulation

import (
	"testing"

	"ccm/internal/apperr"
	"ccm/internal/config"
)

func testService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(&config.AppConfig{
		Simulations:              100,
		MaxSimulations:           1000,
		CurrentYear:              2023,
		Seed:                     17,
		YearsCreditMaxIterations: 10_000,
		PoolCacheSize:            16,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return s
}

func TestService_Engine(t *testing.T) {
	s := testService(t)

	tests := []struct {
		name     string
		req      Request
		wantN    int
		wantSeed uint64
		code     string
	}{
		{"defaults", Request{}, 100, 17, ""},
		{"override simulations and seed", Request{Simulations: 500, Seed: 3}, 500, 3, ""},
		{"above the cap", Request{Simulations: 5000}, 0, 0, apperr.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := s.Engine(tt.req)
			if tt.code != "" {
				if !apperr.Is(err, tt.code) {
					t.Errorf("Expected %s, got %v", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Engine failed: %v", err)
			}
			if e.Parameters().Simulations != tt.wantN {
				t.Errorf("Expected %d simulations, got %d", tt.wantN, e.Parameters().Simulations)
			}
			if e.Seed() != tt.wantSeed {
				t.Errorf("Expected seed %d, got %d", tt.wantSeed, e.Seed())
			}
		})
	}

	if s.Base.Simulations != 100 {
		t.Errorf("Expected base parameters to stay at 100 simulations, got %d", s.Base.Simulations)
	}
}
