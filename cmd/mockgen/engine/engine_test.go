package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccm/internal/intervention"
	"ccm/internal/research"
)

func TestGenerateIsReproducible(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "mixed", Count: 12, Seed: 5}
	assert.Equal(t, Generate(cfg), Generate(cfg))

	other := Generate(GeneratorConfig{Scenario: "mixed", Count: 12, Seed: 6})
	assert.NotEqual(t, Generate(cfg), other)
}

func TestGeneratedRowsAreValidProjects(t *testing.T) {
	catalog := intervention.Default()
	for _, scenario := range []string{"mild", "speculative", "mixed"} {
		t.Run(scenario, func(t *testing.T) {
			rows := Generate(GeneratorConfig{Scenario: scenario, Count: 25, Seed: 1})
			require.Len(t, rows, 25)
			for _, r := range rows {
				assert.LessOrEqual(t, r.ConclusionsRequireUpdating.High, 1.0)
				assert.Less(t, r.FTEYears.Low, r.FTEYears.High)
				_, err := r.Project(catalog)
				require.NoError(t, err, r.ShortName)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	rows := Generate(GeneratorConfig{Scenario: "mild", Count: 4, Seed: 9})
	catalog := intervention.Default()

	for _, format := range []string{"csv", "xlsx"} {
		t.Run(format, func(t *testing.T) {
			path, err := Save(t.TempDir(), "projects", format, rows)
			require.NoError(t, err)

			projects, err := research.LoadProjects(path, catalog)
			require.NoError(t, err)
			require.Len(t, projects, len(rows))
			assert.Equal(t, "MOCK-1", projects[0].ShortName)
			assert.Equal(t, rows[3].TargetIntervention, projects[3].TargetIntervention.Name)
		})
	}
}

func TestSaveRejectsUnknownFormat(t *testing.T) {
	_, err := Save(t.TempDir(), "projects", "txt", nil)
	assert.Error(t, err)
}
