package scenario

import "github.com/tailrisk/causal/pkg/causal/network"

// TariffShock builds the 2025 tariff-escalation stress network:
// aggressive tariff policy and the strength of the trade-partner
// response drive a possible trade war, which propagates through
// supply chains, inflation, the dollar, and central-bank policy into
// sector outcomes.
func TariffShock() (*network.Network, error) {
	b := network.NewBuilder()
	vars := []struct {
		name   string
		states []string
	}{
		{"Tariff_Policy", []string{"Moderate", "Aggressive"}},
		{"China_Response", []string{"Limited", "Strong"}},
		{"Trade_War_Escalation", []string{"Contained", "Severe"}},
		{"Supply_Chain_Disruption", []string{"Minor", "Major"}},
		{"Inflation_Surge", []string{"Modest", "Significant"}},
		{"Dollar_Strength", []string{"Stable", "Strengthening"}},
		{"Fed_Policy", []string{"Accommodative", "Hawkish"}},
		{"Treasury_Yields", []string{"Low", "Rising"}},
		{"Manufacturing", []string{"Resilient", "Stressed"}},
		{"Consumer_Discretionary", []string{"Stable", "Weak"}},
		{"Multinationals", []string{"Stable", "Pressured"}},
		{"Tech_Sector", []string{"Strong", "Weak"}},
		{"REITs", []string{"Stable", "Declining"}},
	}
	for _, v := range vars {
		if err := b.AddVariable(v.name, v.states); err != nil {
			return nil, err
		}
	}

	type node struct {
		name    string
		parents []string
		cpd     network.CPD
	}
	states := func(name string) []string {
		for _, v := range vars {
			if v.name == name {
				return v.states
			}
		}
		return nil
	}
	// chain is a two-row CPD for a binary node with one binary parent:
	// probabilities of the node's first state given each parent state.
	chain := func(name, parent string, pFirstGivenFirst, pFirstGivenSecond float64) network.CPD {
		s := states(name)
		ps := states(parent)
		return network.CPD{
			row([]string{ps[0]}, s, pFirstGivenFirst, 1-pFirstGivenFirst),
			row([]string{ps[1]}, s, pFirstGivenSecond, 1-pFirstGivenSecond),
		}
	}

	nodes := []node{
		{"Tariff_Policy", nil, root(states("Tariff_Policy"), 0.30, 0.70)},
		{"China_Response", nil, root(states("China_Response"), 0.35, 0.65)},
		{"Trade_War_Escalation", []string{"Tariff_Policy", "China_Response"}, network.CPD{
			row([]string{"Moderate", "Limited"}, states("Trade_War_Escalation"), 0.80, 0.20),
			row([]string{"Moderate", "Strong"}, states("Trade_War_Escalation"), 0.50, 0.50),
			row([]string{"Aggressive", "Limited"}, states("Trade_War_Escalation"), 0.40, 0.60),
			// Aggressive tariffs met with full retaliation: the
			// black-swan branch.
			row([]string{"Aggressive", "Strong"}, states("Trade_War_Escalation"), 0.10, 0.90),
		}},
		{"Supply_Chain_Disruption", []string{"Trade_War_Escalation"},
			chain("Supply_Chain_Disruption", "Trade_War_Escalation", 0.85, 0.20)},
		{"Inflation_Surge", []string{"Trade_War_Escalation"},
			chain("Inflation_Surge", "Trade_War_Escalation", 0.75, 0.25)},
		{"Dollar_Strength", []string{"Trade_War_Escalation"},
			chain("Dollar_Strength", "Trade_War_Escalation", 0.60, 0.45)},
		{"Fed_Policy", []string{"Inflation_Surge"},
			chain("Fed_Policy", "Inflation_Surge", 0.70, 0.20)},
		{"Treasury_Yields", []string{"Fed_Policy", "Inflation_Surge"}, network.CPD{
			row([]string{"Accommodative", "Modest"}, states("Treasury_Yields"), 0.80, 0.20),
			row([]string{"Accommodative", "Significant"}, states("Treasury_Yields"), 0.40, 0.60),
			row([]string{"Hawkish", "Modest"}, states("Treasury_Yields"), 0.30, 0.70),
			row([]string{"Hawkish", "Significant"}, states("Treasury_Yields"), 0.10, 0.90),
		}},
		{"Manufacturing", []string{"Supply_Chain_Disruption"},
			chain("Manufacturing", "Supply_Chain_Disruption", 0.85, 0.30)},
		{"Consumer_Discretionary", []string{"Inflation_Surge"},
			chain("Consumer_Discretionary", "Inflation_Surge", 0.75, 0.30)},
		{"Multinationals", []string{"Dollar_Strength"},
			chain("Multinationals", "Dollar_Strength", 0.80, 0.40)},
		{"Tech_Sector", []string{"Treasury_Yields"},
			chain("Tech_Sector", "Treasury_Yields", 0.75, 0.35)},
		{"REITs", []string{"Treasury_Yields"},
			chain("REITs", "Treasury_Yields", 0.80, 0.30)},
	}
	for _, n := range nodes {
		if err := b.AddNode(n.name, n.parents, n.cpd); err != nil {
			return nil, err
		}
	}

	return b.Build()
}
