package engine

import (
	"fmt"
	"math"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/observability"
	"tradesim-lab/internal/orderbook"
)

// Order-placement API exposed to strategies. Market orders (no limit,
// no stop) commit immediately at the current mark price; anything else
// rests in the book and is evaluated against the next bar's OHLC.

// Entry places an entry order with TradingView strategy.entry
// semantics: it is suppressed while a position is open on the same
// side, and an opposite position is reversed by sizing the order to
// qty plus the open position.
func (e *Engine) Entry(id string, side domain.Side, qty, limit, stop float64, postOnly bool) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity %v", orderbook.ErrInvalidOrder, qty)
	}

	pos := e.ledger.PositionSize()
	if side == domain.SideLong && pos > 0 {
		return nil
	}
	if side == domain.SideShort && pos < 0 {
		return nil
	}

	e.book.Cancel(id)
	ordQty := qty + math.Abs(pos)

	return e.place(domain.Order{
		ID:       id,
		Side:     side,
		Qty:      ordQty,
		Limit:    limit,
		Stop:     stop,
		PostOnly: postOnly,
	})
}

// Order places an order without same-side suppression. A reduce-only
// order that would increase or flip the current position is rejected.
func (e *Engine) Order(id string, side domain.Side, qty, limit, stop float64, postOnly, reduceOnly bool) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity %v", orderbook.ErrInvalidOrder, qty)
	}

	pos := e.ledger.PositionSize()
	if reduceOnly &&
		((pos > 0 && (side == domain.SideLong || qty > pos)) ||
			(pos < 0 && (side == domain.SideShort || qty > -pos))) {
		return fmt.Errorf("%w: reduce-only order would increase or flip position", orderbook.ErrInvalidOrder)
	}

	e.book.Cancel(id)

	return e.place(domain.Order{
		ID:         id,
		Side:       side,
		Qty:        qty,
		Limit:      limit,
		Stop:       stop,
		PostOnly:   postOnly,
		ReduceOnly: reduceOnly,
	})
}

// Cancel removes a resting order. Returns false for unknown ids.
func (e *Engine) Cancel(id string) bool {
	return e.book.Cancel(id)
}

// CancelAll removes every resting order.
func (e *Engine) CancelAll() {
	e.book.CancelAll()
}

// CloseAll flattens the position with a market order at the current
// mark price.
func (e *Engine) CloseAll() error {
	return e.CloseAllAtPrice(e.marketPrice)
}

// CloseAllAtPrice flattens the position at a given price. Backtests use
// it to fill exit levels at the level itself rather than at the bar
// close.
func (e *Engine) CloseAllAtPrice(price float64) error {
	return e.closeAt(price, "")
}

// ClosePartial reduces the position by qty at the current mark price.
func (e *Engine) ClosePartial(qty float64) error {
	pos := e.ledger.PositionSize()
	if pos == 0 {
		return nil
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity %v", orderbook.ErrInvalidOrder, qty)
	}
	side := domain.SideShort
	if pos < 0 {
		side = domain.SideLong
	}
	return e.commitFill(domain.Fill{
		ID:         "Close",
		Side:       side,
		Qty:        math.Min(qty, math.Abs(pos)),
		Price:      e.marketPrice,
		ReduceOnly: true,
	})
}

// closeAt flattens the full position at a price, tagging the fill with
// the exit reason so the trade log can attribute it.
func (e *Engine) closeAt(price float64, reason string) error {
	pos := e.ledger.PositionSize()
	if pos == 0 {
		return nil
	}
	side := domain.SideShort
	if pos < 0 {
		side = domain.SideLong
	}
	return e.commitFill(domain.Fill{
		ID:         "Close",
		Side:       side,
		Qty:        math.Abs(pos),
		Price:      price,
		ReduceOnly: true,
		Reason:     reason,
	})
}

// place stages a resting order or commits a market order immediately.
func (e *Engine) place(o domain.Order) error {
	if o.Kind() == domain.KindMarket {
		return e.commitFill(domain.Fill{
			ID:         o.ID,
			Side:       o.Side,
			Qty:        o.Qty,
			Price:      e.marketPrice,
			ReduceOnly: o.ReduceOnly,
		})
	}
	if err := e.book.Stage(o); err != nil {
		return err
	}
	observability.DefaultMetrics.OrdersStaged.Inc()
	return nil
}

// Lot returns the full-balance position size at the current mark.
func (e *Engine) Lot() float64 {
	return e.ledger.Lot(e.marketPrice)
}

// Balance returns the account balance.
func (e *Engine) Balance() float64 { return e.ledger.Balance() }

// PositionSize returns the signed position size.
func (e *Engine) PositionSize() float64 { return e.ledger.PositionSize() }

// AvgEntryPrice returns the volume-weighted average entry price, zero
// when flat.
func (e *Engine) AvgEntryPrice() float64 { return e.ledger.AvgEntryPrice() }
