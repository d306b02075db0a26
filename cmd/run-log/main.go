// Command run-log lists query runs recorded by stress-report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/tailrisk/causal/pkg/causal/store/sqlite"
)

func main() {
	var (
		dbPath = flag.String("db", "", "SQLite run store (required)")
		limit  = flag.Int("limit", 20, "Maximum runs to list")
		runID  = flag.String("id", "", "Optional: show one run in full")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if *runID != "" {
		run, ok, err := st.GetRun(ctx, *runID)
		if err != nil {
			log.Fatalf("get run: %v", err)
		}
		if !ok {
			log.Fatalf("no run %q", *runID)
		}
		fmt.Printf("%s  %s  %s  scenario=%s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Kind, run.Scenario)
		if len(run.Evidence) > 0 {
			fmt.Printf("evidence: %v\n", run.Evidence)
		}
		if run.Attempted > 0 {
			fmt.Printf("accepted %d/%d (seed %d)\n", run.Accepted, run.Attempted, run.Seed)
		}
		fmt.Printf("P(%s)\n", strings.Join(run.Targets, ", "))
		for _, c := range run.Cells {
			fmt.Printf("  %-40s %.4f\n", strings.Join(c.States, ", "), c.P)
		}
		return
	}

	runs, err := st.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatalf("list runs: %v", err)
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %-6s  scenario=%-12s  targets=%s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Kind,
			run.Scenario, strings.Join(run.Targets, ","))
	}
}
