package strategy

import (
	"context"
	"fmt"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/indicators"
)

// SMACrossStrategy enters long when the fast simple moving average
// crosses above the slow one and reverses short on the opposite
// cross.
type SMACrossStrategy struct {
	fast int
	slow int
}

// NewSMACrossStrategy creates a moving-average crossover strategy.
func NewSMACrossStrategy(fast, slow int) *SMACrossStrategy {
	return &SMACrossStrategy{fast: fast, slow: slow}
}

// OnBar places a market entry on each crossover.
func (s *SMACrossStrategy) OnBar(_ context.Context, t Trader, w Window) error {
	if w.Len() < s.slow+1 {
		return nil
	}
	lot := t.Lot() / 2
	if lot <= 0 {
		return nil
	}
	fast := indicators.SMA(w.Close, s.fast)
	slow := indicators.SMA(w.Close, s.slow)
	switch {
	case indicators.Crossover(fast, slow):
		return t.Entry("Long", domain.SideLong, lot, 0, 0, false)
	case indicators.Crossunder(fast, slow):
		return t.Entry("Short", domain.SideShort, lot, 0, 0, false)
	}
	return nil
}

// Name returns the strategy identifier.
func (s *SMACrossStrategy) Name() string {
	return fmt.Sprintf("sma_cross_%d_%d", s.fast, s.slow)
}

var _ Strategy = (*SMACrossStrategy)(nil)
