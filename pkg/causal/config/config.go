// Package config loads YAML run plans: named query batches to answer
// against a network. Plans reference variables and states by name
// only; networks themselves are constructed programmatically and are
// never read from files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tailrisk/causal/pkg/causal/internalerr"
)

// Method selects which engine answers a planned query.
const (
	MethodExact  = "exact"
	MethodSample = "sample"
)

// Plan is a batch of queries to run against one network.
type Plan struct {
	Queries []Query `yaml:"queries"`
}

// Query is one planned question.
type Query struct {
	// Name labels the query in reports and run records.
	Name string `yaml:"name"`

	// Method is "exact" (default) or "sample".
	Method string `yaml:"method"`

	Targets  []string          `yaml:"targets"`
	Evidence map[string]string `yaml:"evidence"`

	// Samples and Seed apply to sampled queries only.
	Samples int    `yaml:"samples"`
	Seed    uint64 `yaml:"seed"`
}

// LoadPlan loads and validates a run plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks structural consistency of the plan. Variable and
// state names are only resolvable against a network, so they are
// checked at query time, not here.
func (p *Plan) Validate() error {
	if len(p.Queries) == 0 {
		return fmt.Errorf("plan has no queries: %w", internalerr.ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(p.Queries))
	for i := range p.Queries {
		q := &p.Queries[i]
		if q.Name == "" {
			return fmt.Errorf("query %d has no name: %w", i, internalerr.ErrInvalidConfig)
		}
		if _, dup := seen[q.Name]; dup {
			return fmt.Errorf("duplicate query name %q: %w", q.Name, internalerr.ErrInvalidConfig)
		}
		seen[q.Name] = struct{}{}

		if len(q.Targets) == 0 {
			return fmt.Errorf("query %q has no targets: %w", q.Name, internalerr.ErrInvalidConfig)
		}
		switch q.Method {
		case "":
			q.Method = MethodExact
		case MethodExact, MethodSample:
		default:
			return fmt.Errorf("query %q method %q: %w", q.Name, q.Method, internalerr.ErrInvalidConfig)
		}
		if q.Method == MethodSample && q.Samples <= 0 {
			return fmt.Errorf("query %q needs a positive sample count: %w", q.Name, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}
