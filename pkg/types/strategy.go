package types

import "fmt"

// Strategy is the rule for choosing which open lot a sale consumes
// first.
type Strategy int

const (
	// StrategyHighestCost consumes the lot with the highest unit cost
	// first, minimizing reported taxable gain. Ties broken by earliest
	// acquisition time.
	StrategyHighestCost Strategy = iota
	// StrategyFIFO consumes the earliest-acquired lot first.
	StrategyFIFO
)

func (s Strategy) String() string {
	switch s {
	case StrategyHighestCost:
		return "highest"
	case StrategyFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name. An unknown name is a
// configuration error and is fatal to the run.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "highest":
		return StrategyHighestCost, nil
	case "fifo":
		return StrategyFIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis strategy: %q", s)
	}
}
