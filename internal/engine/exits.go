package engine

import (
	"errors"

	"tradesim-lab/internal/domain"
)

// Exit reason tags recorded on fills issued by the exit policies.
const (
	ReasonTrailingStop = "trailing_stop"
	ReasonStopLoss     = "stop_loss"
	ReasonTakeProfit   = "take_profit"
)

// Well-known ids of the resting orders maintained by the SL/TP mode.
const (
	sltpTakeProfitID = "TP"
	sltpStopLossID   = "SL"
)

// ErrConflictingExit rejects exit configuration that cannot be honored.
var ErrConflictingExit = errors.New("conflicting exit policy values")

// ExitPolicy holds the threshold-based exit rules evaluated once per
// bar: absolute unrealized-PnL targets and a trailing offset in price
// units. Trailing takes precedence when both it and a stop loss are set.
type ExitPolicy struct {
	Profit      float64
	Loss        float64
	TrailOffset float64

	active bool
}

// SLTPPolicy holds the simple stop-loss / take-profit percentages,
// stored as fractions of the average entry price.
type SLTPPolicy struct {
	ProfitLong  float64
	ProfitShort float64
	StopLong    float64
	StopShort   float64
	// EvalTPNextCandle defers take-profit staging by one bar after an
	// entry, so an entry filled mid-bar cannot take profit from price
	// action that preceded it.
	EvalTPNextCandle bool

	active   bool
	tpStaged bool
}

// Exit configures the threshold exit policy. profit and loss are
// absolute unrealized-PnL values; trailOffset is in price units.
func (e *Engine) Exit(profit, loss, trailOffset float64) error {
	if profit < 0 || loss < 0 || trailOffset < 0 {
		return ErrConflictingExit
	}
	e.exitPolicy = ExitPolicy{Profit: profit, Loss: loss, TrailOffset: trailOffset, active: true}
	return nil
}

// Sltp configures the simple SL/TP mode. Values are percentages (5 for
// 5%) and stored as fractions.
func (e *Engine) Sltp(profitLong, profitShort, stopLong, stopShort float64, evalTPNextCandle bool) error {
	if profitLong < 0 || profitShort < 0 || stopLong < 0 || stopShort < 0 {
		return ErrConflictingExit
	}
	e.sltpPolicy = SLTPPolicy{
		ProfitLong:       profitLong / 100,
		ProfitShort:      profitShort / 100,
		StopLong:         stopLong / 100,
		StopShort:        stopShort / 100,
		EvalTPNextCandle: evalTPNextCandle,
		active:           true,
	}
	return nil
}

// EvalExitPolicies runs the configured exit rules for one newly closed
// bar. Drivers call it after the strategy callback and after the bar's
// order evaluation.
func (e *Engine) EvalExitPolicies(bar domain.Candle) error {
	if e.exitPolicy.active {
		if err := e.evalExit(); err != nil {
			return err
		}
	}
	if e.sltpPolicy.active {
		if err := e.evalSLTP(); err != nil {
			return err
		}
	}
	return nil
}

// evalExit checks the trailing stop and the absolute profit/loss
// thresholds against the current mark price, flattening on breach.
func (e *Engine) evalExit() error {
	pos := e.ledger.PositionSize()
	if pos == 0 {
		return nil
	}

	price := e.marketPrice

	if e.exitPolicy.TrailOffset > 0 && e.trailPrice > 0 {
		offset := e.exitPolicy.TrailOffset
		if pos > 0 && price-offset < e.trailPrice {
			e.log.WithField("trail_offset", offset).Info("trailing stop hit")
			return e.closeAt(price, ReasonTrailingStop)
		}
		if pos < 0 && price+offset > e.trailPrice {
			e.log.WithField("trail_offset", offset).Info("trailing stop hit")
			return e.closeAt(price, ReasonTrailingStop)
		}
	}

	upnl := e.ledger.UnrealizedPnL(price)

	if upnl < 0 && e.exitPolicy.Loss > 0 && -upnl > e.exitPolicy.Loss {
		e.log.WithField("loss", e.exitPolicy.Loss).Info("stop loss hit")
		return e.closeAt(price, ReasonStopLoss)
	}
	if upnl > 0 && e.exitPolicy.Profit > 0 && upnl > e.exitPolicy.Profit {
		e.log.WithField("profit", e.exitPolicy.Profit).Info("take profit hit")
		return e.closeAt(price, ReasonTakeProfit)
	}
	return nil
}

// evalSLTP maintains the resting reduce-only take-profit (limit) and
// stop-loss (stop) orders so they always cover exactly the open
// quantity. The orders are re-issued whenever the position changes and
// fill through normal order evaluation on later bars.
func (e *Engine) evalSLTP() error {
	pos := e.ledger.PositionSize()
	p := &e.sltpPolicy

	if pos == 0 {
		if e.sltpStagedQty != 0 {
			e.book.Cancel(sltpTakeProfitID)
			e.book.Cancel(sltpStopLossID)
			e.sltpStagedQty, e.sltpStagedEntry = 0, 0
			p.tpStaged = false
		}
		return nil
	}

	qty := pos
	if qty < 0 {
		qty = -qty
	}
	avg := e.ledger.AvgEntryPrice()

	if qty != e.sltpStagedQty || avg != e.sltpStagedEntry {
		e.book.Cancel(sltpTakeProfitID)
		e.book.Cancel(sltpStopLossID)
		p.tpStaged = false

		if err := e.stageStopLoss(pos, qty, avg); err != nil {
			return err
		}
		e.sltpStagedQty, e.sltpStagedEntry = qty, avg
	}

	entryThisBar := e.barLongEntry || e.barShortEntry
	if !p.tpStaged && !(p.EvalTPNextCandle && entryThisBar) {
		if err := e.stageTakeProfit(pos, qty, avg); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) stageStopLoss(pos, qty, avg float64) error {
	p := &e.sltpPolicy
	if pos > 0 && p.StopLong > 0 {
		return e.book.Stage(domain.Order{
			ID:         sltpStopLossID,
			Side:       domain.SideShort,
			Qty:        qty,
			Stop:       avg * (1 - p.StopLong),
			ReduceOnly: true,
			Reason:     ReasonStopLoss,
		})
	}
	if pos < 0 && p.StopShort > 0 {
		return e.book.Stage(domain.Order{
			ID:         sltpStopLossID,
			Side:       domain.SideLong,
			Qty:        qty,
			Stop:       avg * (1 + p.StopShort),
			ReduceOnly: true,
			Reason:     ReasonStopLoss,
		})
	}
	return nil
}

func (e *Engine) stageTakeProfit(pos, qty, avg float64) error {
	p := &e.sltpPolicy
	if pos > 0 && p.ProfitLong > 0 {
		p.tpStaged = true
		return e.book.Stage(domain.Order{
			ID:         sltpTakeProfitID,
			Side:       domain.SideShort,
			Qty:        qty,
			Limit:      avg * (1 + p.ProfitLong),
			ReduceOnly: true,
			Reason:     ReasonTakeProfit,
		})
	}
	if pos < 0 && p.ProfitShort > 0 {
		p.tpStaged = true
		return e.book.Stage(domain.Order{
			ID:         sltpTakeProfitID,
			Side:       domain.SideLong,
			Qty:        qty,
			Limit:      avg * (1 - p.ProfitShort),
			ReduceOnly: true,
			Reason:     ReasonTakeProfit,
		})
	}
	return nil
}
