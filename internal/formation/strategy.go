package formation

import "strings"

// Strategy selects the team builder
type Strategy string

const (
	StrategyBalance   Strategy = "balance"
	StrategyHighPower Strategy = "high_power"
	StrategyCarry     Strategy = "carry"
)

// Strategies lists the canonical strategy names
var Strategies = []Strategy{StrategyBalance, StrategyHighPower, StrategyCarry}

// ParseStrategy resolves a strategy name and its aliases. An empty name selects balance.
func ParseStrategy(name string) (Strategy, bool) {
	switch strings.TrimSpace(name) {
	case "", "balance":
		return StrategyBalance, true
	case "high_power", "highPower", "high-power":
		return StrategyHighPower, true
	case "carry":
		return StrategyCarry, true
	}
	return "", false
}
