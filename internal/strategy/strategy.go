// Package strategy defines the port through which trading logic
// observes closed bars and places orders, plus a small set of bundled
// strategies.
package strategy

import (
	"context"

	"tradesim-lab/internal/domain"
)

// Trader is the order-placement surface a strategy sees. It is
// implemented by engine.Engine; strategies never hold a reference to
// the engine itself.
type Trader interface {
	// Entry places an entry order with same-side suppression and
	// automatic reversal sizing.
	Entry(id string, side domain.Side, qty, limit, stop float64, postOnly bool) error

	// Order places an order verbatim, including reduce-only orders.
	Order(id string, side domain.Side, qty, limit, stop float64, postOnly, reduceOnly bool) error

	// Cancel removes a staged order. Unknown ids are a no-op.
	Cancel(id string) bool

	// CancelAll removes every staged order.
	CancelAll()

	// CloseAll flattens the position at the market price.
	CloseAll() error

	// ClosePartial reduces the position by qty at the market price.
	ClosePartial(qty float64) error

	// Exit arms the absolute profit/loss/trailing exit policy.
	Exit(profit, loss, trailOffset float64) error

	// Sltp arms the percentage stop-loss/take-profit policy.
	Sltp(profitLong, profitShort, stopLong, stopShort float64, evalTPNextCandle bool) error

	// Security returns the trailing window for another subscribed
	// timeframe, ending at the most recent bar closed on it.
	Security(timeframe string) (Window, error)

	// Lot returns the order quantity for the full buying power at
	// the current market price.
	Lot() float64

	Balance() float64
	PositionSize() float64
	AvgEntryPrice() float64
	MarketPrice() float64
}

// Window holds the trailing closed-bar series for one timeframe,
// oldest first. All slices share the same length.
type Window struct {
	Timeframe string
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64
}

// NewWindow converts a closed-candle slice into column arrays.
func NewWindow(timeframe string, candles []domain.Candle) Window {
	w := Window{
		Timeframe: timeframe,
		Open:      make([]float64, len(candles)),
		High:      make([]float64, len(candles)),
		Low:       make([]float64, len(candles)),
		Close:     make([]float64, len(candles)),
		Volume:    make([]float64, len(candles)),
	}
	for i, c := range candles {
		w.Open[i] = c.Open
		w.High[i] = c.High
		w.Low[i] = c.Low
		w.Close[i] = c.Close
		w.Volume[i] = c.Volume
	}
	return w
}

// Len returns the number of bars in the window.
func (w Window) Len() int { return len(w.Close) }

// Strategy reacts to closed bars. OnBar is invoked once per closed
// bar per subscribed timeframe, after resting orders have been
// evaluated against that bar and before exit policies run.
type Strategy interface {
	// OnBar observes the trailing window ending at the bar that just
	// closed and may place or cancel orders through t. A non-nil
	// error aborts the run.
	OnBar(ctx context.Context, t Trader, w Window) error

	// Name returns the strategy identifier (includes parameters).
	Name() string
}
