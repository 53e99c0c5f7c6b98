package strategy

import "errors"

// Factory errors
var (
	ErrUnknownStrategyName = errors.New("unknown strategy name")
	ErrInvalidPeriod       = errors.New("strategy period must be positive")
	ErrFastNotBelowSlow    = errors.New("fast period must be below slow period")
)

// Params carries the tunable knobs shared by the bundled strategies.
// Strategies read only the fields they need.
type Params struct {
	// Length is the lookback for channel strategies.
	Length int

	// Fast and Slow are the moving-average periods for crossover
	// strategies.
	Fast int
	Slow int
}

// FromName creates a bundled Strategy by name. Validates required
// parameters per strategy.
func FromName(name string, p Params) (Strategy, error) {
	switch name {
	case "doten":
		if p.Length <= 0 {
			return nil, ErrInvalidPeriod
		}
		return NewDotenStrategy(p.Length), nil
	case "sma_cross":
		if p.Fast <= 0 || p.Slow <= 0 {
			return nil, ErrInvalidPeriod
		}
		if p.Fast >= p.Slow {
			return nil, ErrFastNotBelowSlow
		}
		return NewSMACrossStrategy(p.Fast, p.Slow), nil
	case "stub":
		return NewStubStrategy(), nil
	default:
		return nil, ErrUnknownStrategyName
	}
}
