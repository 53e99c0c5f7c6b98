package strategy

import (
	"context"
	"fmt"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/indicators"
)

// DotenStrategy is a stop-and-reverse channel breakout. It keeps a
// long entry stop at the highest high and a short entry stop at the
// lowest low of the lookback channel; whichever triggers first flips
// the position.
type DotenStrategy struct {
	length int
}

// NewDotenStrategy creates a channel breakout over length bars.
func NewDotenStrategy(length int) *DotenStrategy {
	return &DotenStrategy{length: length}
}

// OnBar re-stages both breakout stops at the current channel bounds.
func (s *DotenStrategy) OnBar(_ context.Context, t Trader, w Window) error {
	if w.Len() < s.length {
		return nil
	}
	lot := t.Lot() / 2
	if lot <= 0 {
		return nil
	}
	up := indicators.Last(indicators.Highest(w.High, s.length))
	down := indicators.Last(indicators.Lowest(w.Low, s.length))
	if err := t.Entry("Long", domain.SideLong, lot, 0, up, false); err != nil {
		return err
	}
	return t.Entry("Short", domain.SideShort, lot, 0, down, false)
}

// Name returns the strategy identifier.
func (s *DotenStrategy) Name() string {
	return fmt.Sprintf("doten_%d", s.length)
}

var _ Strategy = (*DotenStrategy)(nil)
