package main

import (
	"flag"
	"fmt"
	"os"

	"ccm/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, speculative, mixed")
	format := flag.String("format", "csv", "Output format: csv, xlsx")
	outDir := flag.String("out", "./.cache", "Output directory for mock files")
	count := flag.Int("count", 20, "Number of projects to generate")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Count: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Count, cfg.Seed, *outDir)

	rows := engine.Generate(cfg)

	path, err := engine.Save(*outDir, "MOCK_PROJECTS", *format, rows)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %s\n", path)
}
