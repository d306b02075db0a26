package scenario

import "github.com/tailrisk/causal/pkg/causal/network"

// Eurozone builds the eurozone-breakup stress network: a black swan
// scenario where political instability and economic weakness drive a
// possible breakup, which propagates through credit spreads and a
// flight to quality into asset-class outcomes.
//
//	Political_Instability ─┐
//	Economic_Weakness ─────┴─> Eurozone_Breakup ─┬─> Credit_Spreads ──┬─> Corporate_Bonds
//	                                             └─> Flight_to_Quality ─┬─> Government_Bonds
//	                                                 (both) ───────────┴─> Equities
func Eurozone() (*network.Network, error) {
	lowHigh := []string{"Low", "High"}
	noYes := []string{"No", "Yes"}
	normalWidening := []string{"Normal", "Widening"}
	stableFalling := []string{"Stable", "Falling"}
	stableRally := []string{"Stable", "Rally"}

	b := network.NewBuilder()
	vars := []struct {
		name   string
		states []string
	}{
		{"Political_Instability", lowHigh},
		{"Economic_Weakness", lowHigh},
		{"Eurozone_Breakup", noYes},
		{"Credit_Spreads", normalWidening},
		{"Flight_to_Quality", noYes},
		{"Corporate_Bonds", stableFalling},
		{"Government_Bonds", stableRally},
		{"Equities", stableFalling},
	}
	for _, v := range vars {
		if err := b.AddVariable(v.name, v.states); err != nil {
			return nil, err
		}
	}

	add := func(name string, parents []string, cpd network.CPD) error {
		return b.AddNode(name, parents, cpd)
	}

	if err := add("Political_Instability", nil, root(lowHigh, 0.70, 0.30)); err != nil {
		return nil, err
	}
	if err := add("Economic_Weakness", nil, root(lowHigh, 0.60, 0.40)); err != nil {
		return nil, err
	}
	if err := add("Eurozone_Breakup", []string{"Political_Instability", "Economic_Weakness"}, network.CPD{
		row([]string{"Low", "Low"}, noYes, 0.95, 0.05),
		row([]string{"Low", "High"}, noYes, 0.80, 0.20),
		row([]string{"High", "Low"}, noYes, 0.70, 0.30),
		row([]string{"High", "High"}, noYes, 0.30, 0.70),
	}); err != nil {
		return nil, err
	}
	if err := add("Credit_Spreads", []string{"Eurozone_Breakup"}, network.CPD{
		row([]string{"No"}, normalWidening, 0.80, 0.20),
		row([]string{"Yes"}, normalWidening, 0.10, 0.90),
	}); err != nil {
		return nil, err
	}
	if err := add("Flight_to_Quality", []string{"Eurozone_Breakup"}, network.CPD{
		row([]string{"No"}, noYes, 0.85, 0.15),
		row([]string{"Yes"}, noYes, 0.10, 0.90),
	}); err != nil {
		return nil, err
	}
	if err := add("Corporate_Bonds", []string{"Credit_Spreads"}, network.CPD{
		row([]string{"Normal"}, stableFalling, 0.90, 0.10),
		row([]string{"Widening"}, stableFalling, 0.20, 0.80),
	}); err != nil {
		return nil, err
	}
	if err := add("Government_Bonds", []string{"Flight_to_Quality"}, network.CPD{
		row([]string{"No"}, stableRally, 0.80, 0.20),
		row([]string{"Yes"}, stableRally, 0.10, 0.90),
	}); err != nil {
		return nil, err
	}
	if err := add("Equities", []string{"Credit_Spreads", "Flight_to_Quality"}, network.CPD{
		row([]string{"Normal", "No"}, stableFalling, 0.90, 0.10),
		row([]string{"Normal", "Yes"}, stableFalling, 0.60, 0.40),
		row([]string{"Widening", "No"}, stableFalling, 0.40, 0.60),
		row([]string{"Widening", "Yes"}, stableFalling, 0.10, 0.90),
	}); err != nil {
		return nil, err
	}

	return b.Build()
}
