package domain

import "time"

// TradeLogRow is one append-only audit record of a committed fill.
// The simulation never reads these rows back; they exist for later
// statistics and equity-curve reconstruction.
type TradeLogRow struct {
	Time        time.Time
	Side        Side
	OrderID     string
	Price       float64
	Qty         float64
	Position    float64 // signed position size after the commit
	RealizedPnL float64 // zero for pure opening trades
	Balance     float64
	Drawdown    float64 // percent decline from balance ATH after the commit
}
