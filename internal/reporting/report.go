// Package reporting condenses a finished simulation run into summary
// metrics and renders them for humans and spreadsheets.
package reporting

import (
	"time"

	"tradesim-lab/internal/account"
	"tradesim-lab/internal/domain"
)

// Summary holds the headline metrics of one run.
type Summary struct {
	Strategy    string
	Symbol      string
	GeneratedAt time.Time

	StartBalance float64
	FinalBalance float64
	ProfitRate   float64 // (final - start) / start

	TradeCount int // closing trades
	WinCount   int
	LoseCount  int
	WinRate    float64 // wins / closing trades, 0 when no trades

	GrossProfit  float64
	GrossLoss    float64 // positive magnitude
	ProfitFactor float64 // gross profit / gross loss, 0 when no losses

	MaxLossRate    float64 // worst single-trade leveraged close rate
	MaxDrawdown    float64 // worst balance decline from the high-water mark
	MaxDrawdownPct float64 // same, as a percentage of the high-water mark
}

// BuildSummary condenses a frozen ledger into a Summary.
func BuildSummary(strategy, symbol string, l *account.Ledger, now time.Time) Summary {
	s := Summary{
		Strategy:     strategy,
		Symbol:       symbol,
		GeneratedAt:  now,
		StartBalance: l.StartBalance(),
		FinalBalance: l.Balance(),
		TradeCount:   l.WinCount() + l.LoseCount(),
		WinCount:     l.WinCount(),
		LoseCount:    l.LoseCount(),
		GrossProfit:  l.WinProfit(),
		GrossLoss:    l.LoseLoss(),
		MaxLossRate:  l.MaxLossRate(),
	}
	s.MaxDrawdown, s.MaxDrawdownPct = l.MaxDrawdown()
	if s.StartBalance != 0 {
		s.ProfitRate = (s.FinalBalance - s.StartBalance) / s.StartBalance
	}
	if s.TradeCount > 0 {
		s.WinRate = float64(s.WinCount) / float64(s.TradeCount)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}

// RunRecord converts the summary into its persistable form.
func (s Summary) RunRecord(runID string) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:          runID,
		Strategy:       s.Strategy,
		Symbol:         s.Symbol,
		CreatedAt:      s.GeneratedAt,
		StartBalance:   s.StartBalance,
		FinalBalance:   s.FinalBalance,
		TradeCount:     s.TradeCount,
		WinCount:       s.WinCount,
		LoseCount:      s.LoseCount,
		MaxDrawdownPct: s.MaxDrawdownPct,
		ProfitFactor:   s.ProfitFactor,
	}
}
