package domain

import "time"

// RunRecord is the persisted summary of one completed simulation run.
type RunRecord struct {
	// RunID uniquely identifies the run.
	RunID string

	// Strategy is the strategy identifier, parameters included.
	Strategy string

	// Symbol is the instrument the run traded.
	Symbol string

	// CreatedAt is when the run finished.
	CreatedAt time.Time

	// StartBalance and FinalBalance bracket the account equity.
	StartBalance float64
	FinalBalance float64

	// TradeCount is the number of closing trades.
	TradeCount int

	// WinCount and LoseCount split TradeCount by sign.
	WinCount  int
	LoseCount int

	// MaxDrawdownPct is the worst session drawdown as a percentage of
	// the balance high-water mark.
	MaxDrawdownPct float64

	// ProfitFactor is gross profit divided by gross loss.
	ProfitFactor float64
}
