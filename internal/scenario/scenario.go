// Package scenario builds the stress-testing networks used by the
// command-line tools, the examples, and the end-to-end tests. The
// probabilities are expert-elicited constants in the Rebonato-Denev
// tradition: causal structure first, then conditional tables for the
// extreme branches.
package scenario

import "github.com/tailrisk/causal/pkg/causal/network"

// dist builds a distribution map over the given states.
func dist(states []string, probs ...float64) map[string]float64 {
	out := make(map[string]float64, len(states))
	for i, s := range states {
		out[s] = probs[i]
	}
	return out
}

// root is a single-row CPD for a parentless node.
func root(states []string, probs ...float64) network.CPD {
	return network.CPD{{Probs: dist(states, probs...)}}
}

// row is one conditional row of a CPD.
func row(given []string, states []string, probs ...float64) network.Row {
	return network.Row{Given: given, Probs: dist(states, probs...)}
}
