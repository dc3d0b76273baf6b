package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"jira-extract/cmd/mockjira/engine"
)

func main() {
	project := flag.String("project", "MOCK", "Project key served by the fake Jira")
	scenario := flag.String("scenario", "clean", "Scenario to generate: clean, messy")
	count := flag.Int("count", 200, "Number of issues to generate")
	seed := flag.Uint64("seed", 1, "Random seed")
	addr := flag.String("addr", "127.0.0.1:8089", "Listen address")
	outDir := flag.String("out", "", "Write the generated search response to this directory and exit")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		ProjectKey: *project,
		Scenario:   *scenario,
		Count:      *count,
		Seed:       *seed,
		Now:        time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Project: %s, Count: %d)...\n", cfg.Scenario, cfg.ProjectKey, cfg.Count)
	issues := engine.Generate(cfg)

	if *outDir != "" {
		path, err := engine.Save(*outDir, cfg.ProjectKey, issues)
		if err != nil {
			fmt.Printf("Failed to save mock data: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", path)
		return
	}

	fmt.Printf("Fake Jira listening on http://%s (set JIRA_BASE_URL to this address for local runs)\n", *addr)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           engine.NewServer(cfg.ProjectKey, issues),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		fmt.Printf("Server stopped: %v\n", err)
		os.Exit(1)
	}
}
