// Command stress-report answers a YAML plan of queries against one of
// the built-in stress scenarios and prints the posteriors. With -db,
// every answered query is also recorded in a SQLite run store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/tailrisk/causal/internal/scenario"
	"github.com/tailrisk/causal/pkg/causal"
	"github.com/tailrisk/causal/pkg/causal/config"
	"github.com/tailrisk/causal/pkg/causal/network"
	"github.com/tailrisk/causal/pkg/causal/query"
	"github.com/tailrisk/causal/pkg/causal/sample"
	"github.com/tailrisk/causal/pkg/causal/store"
	"github.com/tailrisk/causal/pkg/causal/store/sqlite"
)

var scenarios = map[string]func() (*network.Network, error){
	"eurozone":     scenario.Eurozone,
	"tariff-shock": scenario.TariffShock,
}

func main() {
	var (
		scenarioName = flag.String("scenario", "", "Scenario to query (required)")
		planPath     = flag.String("plan", "", "Path to YAML run plan (required)")
		dbPath       = flag.String("db", "", "Optional: SQLite file to record runs in")
	)
	flag.Parse()

	if *scenarioName == "" {
		log.Fatalf("--scenario required (one of %v)", scenarioNames())
	}
	if *planPath == "" {
		log.Fatal("--plan required")
	}

	build, ok := scenarios[*scenarioName]
	if !ok {
		log.Fatalf("unknown scenario %q (one of %v)", *scenarioName, scenarioNames())
	}
	net, err := build()
	if err != nil {
		log.Fatalf("build scenario: %v", err)
	}

	plan, err := config.LoadPlan(*planPath)
	if err != nil {
		log.Fatalf("load plan: %v", err)
	}

	ctx := context.Background()

	var st store.Store
	if *dbPath != "" {
		st, err = sqlite.OpenSQLite(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
	}

	eng := causal.New(causal.Options{
		Network:  net,
		Store:    st,
		Scenario: *scenarioName,
	})
	defer eng.Close()

	for _, q := range plan.Queries {
		fmt.Printf("=== %s (%s)\n", q.Name, q.Method)
		if len(q.Evidence) > 0 {
			fmt.Printf("evidence: %v\n", q.Evidence)
		}

		switch q.Method {
		case config.MethodExact:
			dist, err := eng.Infer(ctx, query.Request{
				Targets:  q.Targets,
				Evidence: q.Evidence,
			})
			if err != nil {
				log.Fatalf("query %q: %v", q.Name, err)
			}
			fmt.Print(dist)
		case config.MethodSample:
			res, err := eng.Simulate(ctx, sample.Request{
				N:        q.Samples,
				Targets:  q.Targets,
				Evidence: q.Evidence,
				Seed:     q.Seed,
			})
			if err != nil {
				log.Fatalf("query %q: %v", q.Name, err)
			}
			if res.Accepted == 0 {
				fmt.Printf("no trials consistent with evidence after %d attempts\n", res.Attempted)
				break
			}
			fmt.Print(res.Dist)
			fmt.Printf("accepted %d/%d trials (%.1f%%)\n",
				res.Accepted, res.Attempted, 100*res.AcceptanceRate())
			if res.AcceptanceRate() < 0.01 {
				fmt.Println("warning: acceptance rate below 1%; estimates are noisy")
			}
		}
		fmt.Println()
	}
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
