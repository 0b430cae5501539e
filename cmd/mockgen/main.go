package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sprint-kpi/internal/config"
	"sprint-kpi/internal/mock"
	"sprint-kpi/internal/pipeline"
)

func main() {
	scenario := flag.String("scenario", mock.ScenarioFixed, "Scenario to generate: fixed, noisy")
	boards := flag.String("boards", strings.Join(mock.DefaultBoards, ","), "Comma separated board ids")
	sprints := flag.Int("sprints", 6, "Closed sprints per board")
	seed := flag.Int64("seed", 1, "Random seed for the noisy scenario")
	out := flag.String("out", "./.cache/mock-sprints.json", "Snapshot file to write")
	flag.Parse()

	cfg := mock.Config{
		Scenario: *scenario,
		Boards:   config.SplitList(*boards),
		Sprints:  *sprints,
		Seed:     *seed,
		Now:      time.Now(),
	}
	if cfg.Scenario != mock.ScenarioFixed && cfg.Scenario != mock.ScenarioNoisy {
		fmt.Fprintf(os.Stderr, "Unknown scenario %q\n", cfg.Scenario)
		os.Exit(2)
	}

	fmt.Printf("Generating scenario '%s' (%d sprints on %s) to %s...\n", cfg.Scenario, cfg.Sprints, strings.Join(cfg.Boards, ", "), *out)

	sprintList, labels := mock.Generate(cfg)
	if err := pipeline.SaveSnapshot(*out, pipeline.Snapshot{Sprints: sprintList, Labels: labels}); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
