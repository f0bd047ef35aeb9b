package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"ccm/internal/apperr"
	"ccm/internal/params"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulations != params.DefaultSimulations {
		t.Errorf("Expected %d simulations, got %d", params.DefaultSimulations, cfg.Simulations)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("Expected :8000, got %s", cfg.HTTPAddr)
	}
	if cfg.Seed != 0 {
		t.Errorf("Expected seed 0, got %d", cfg.Seed)
	}
	if _, err := os.Stat(cfg.LogDir); err != nil {
		t.Errorf("Expected log directory to exist: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("CCM_SIMULATIONS", "2000")
	t.Setenv("CCM_SEED", "42")
	t.Setenv("CCM_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulations != 2000 || cfg.Seed != 42 || cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"simulations above cap", "CCM_SIMULATIONS", "2000000"},
		{"negative seed", "CCM_SEED", "-1"},
		{"zero cache", "CCM_POOL_CACHE_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_PATH", t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if apperr.GetCode(err) != apperr.CodeConfigInvalid {
				t.Errorf("Expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestParametersOverlay(t *testing.T) {
	dir := t.TempDir()
	p := params.Default()
	p.Simulations = 123
	data, err := p.YAML()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "params.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &AppConfig{Simulations: 500, MaxSimulations: 1000, CurrentYear: 2023, ParametersFile: path}
	got, err := cfg.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if got.Simulations != 123 {
		t.Errorf("Expected file value 123, got %d", got.Simulations)
	}

	cfg.ParametersFile = ""
	got, err = cfg.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if got.Simulations != 500 {
		t.Errorf("Expected configured value 500, got %d", got.Simulations)
	}
}

func TestCheckSimulations(t *testing.T) {
	cfg := &AppConfig{MaxSimulations: 100}
	if err := cfg.CheckSimulations(100); err != nil {
		t.Errorf("Expected 100 to pass, got %v", err)
	}
	for _, n := range []int{0, -1, 101} {
		if apperr.GetCode(cfg.CheckSimulations(n)) != apperr.CodeValidationError {
			t.Errorf("Expected validation error for %d", n)
		}
	}
}

func TestGodotenvQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(`CCM_FRONT_END_URL='https://example.org/?q="x"'`), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `https://example.org/?q="x"`
	if env["CCM_FRONT_END_URL"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["CCM_FRONT_END_URL"])
	}
}
