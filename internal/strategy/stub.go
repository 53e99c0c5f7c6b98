package strategy

import "context"

// StubStrategy records every window it is shown and never trades.
// Useful for pipeline tests and dry runs.
type StubStrategy struct {
	// Windows holds every window OnBar received, in order.
	Windows []Window

	// Err, when set, is returned from every OnBar call.
	Err error
}

// NewStubStrategy creates an inert recording strategy.
func NewStubStrategy() *StubStrategy {
	return &StubStrategy{}
}

// OnBar records the window and returns Err.
func (s *StubStrategy) OnBar(_ context.Context, _ Trader, w Window) error {
	s.Windows = append(s.Windows, w)
	return s.Err
}

// Name returns the strategy identifier.
func (s *StubStrategy) Name() string { return "stub" }

var _ Strategy = (*StubStrategy)(nil)
