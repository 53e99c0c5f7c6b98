// Package orderbook simulates order acceptance and triggering against
// historical bars. It holds the set of resting simulated orders and
// evaluates them against a bar's OHLC extremes; it never touches
// account state. Fills are returned to the driver, which commits them
// after evaluation completes, so no engine state mutates mid-iteration.
package orderbook

import (
	"errors"
	"fmt"
	"strings"

	"tradesim-lab/internal/domain"
)

// ErrInvalidOrder rejects orders that cannot be staged. The simulation
// continues; the error is reported to the caller only.
var ErrInvalidOrder = errors.New("invalid order")

// TieBreak selects the stop-limit policy for bars where both the stop
// and the limit leg would trigger. Real exchanges differ here, so the
// choice is configuration rather than a hard-coded assumption.
type TieBreak int

const (
	// LimitWins fills at the limit price immediately when the stop
	// triggers and the bar close has already traded through the limit,
	// proving the limit leg was reachable on the same bar.
	LimitWins TieBreak = iota
	// ConvertOnly never fills a stop-limit on its triggering bar; the
	// order always converts to a plain limit first.
	ConvertOnly
)

// Book is the set of currently-resting simulated orders, keyed by user
// id, in deterministic staging order.
type Book struct {
	tieBreak TieBreak
	orders   []domain.Order
}

// NewBook creates an empty book with the given stop-limit policy.
func NewBook(tieBreak TieBreak) *Book {
	return &Book{tieBreak: tieBreak}
}

// Stage adds an order, replacing any resting order with the same id.
// Orders with non-positive quantity are rejected.
func (b *Book) Stage(o domain.Order) error {
	if o.Qty <= 0 {
		return fmt.Errorf("%w: quantity %v", ErrInvalidOrder, o.Qty)
	}
	b.Cancel(o.ID)
	b.orders = append(b.orders, o)
	return nil
}

// Cancel removes the order with the given id. Canceling an unknown id
// returns false and leaves the book unchanged.
func (b *Book) Cancel(id string) bool {
	for i, o := range b.orders {
		if o.ID == id {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			return true
		}
	}
	return false
}

// CancelAll empties the book.
func (b *Book) CancelAll() {
	b.orders = nil
}

// Find returns the first resting order whose id starts with the given
// prefix, mirroring the live exchanges' client-order-id lookup.
func (b *Book) Find(prefix string) (domain.Order, bool) {
	for _, o := range b.orders {
		if strings.HasPrefix(o.ID, prefix) {
			return o, true
		}
	}
	return domain.Order{}, false
}

// Orders returns a copy of the resting orders in staging order.
func (b *Book) Orders() []domain.Order {
	out := make([]domain.Order, len(b.orders))
	copy(out, b.orders)
	return out
}

// Len returns the number of resting orders.
func (b *Book) Len() int { return len(b.orders) }

// Evaluate runs every resting order against one bar. positionSize is
// the signed position at the start of the bar, used for reduce-only
// demotion. Orders that neither trigger nor convert remain staged
// unchanged. Triggered orders are removed and returned as fills; the
// caller commits them. Market orders never reach the book (the engine
// commits them on placement), so an order with neither a limit nor a
// stop leg rests inertly forever.
func (b *Book) Evaluate(bar domain.Candle, positionSize float64) []domain.Fill {
	var (
		fills   []domain.Fill
		resting []domain.Order
	)

	for _, o := range b.orders {
		// A reduce-only order whose position has already flattened or
		// flipped to the order's own side can no longer reduce
		// anything: demote it to a resting no-op with the stop leg
		// cleared, per exchange reduce-only semantics.
		if o.ReduceOnly && (positionSize == 0 ||
			(o.Side == domain.SideLong && positionSize > 0) ||
			(o.Side == domain.SideShort && positionSize < 0)) {
			o.Stop = 0
			resting = append(resting, o)
			continue
		}

		switch o.Kind() {
		case domain.KindStopLimit:
			if !stopTriggered(bar, o.Stop) {
				resting = append(resting, o)
				continue
			}
			if b.tieBreak == LimitWins && closeCrossedLimit(bar, o) {
				fills = append(fills, fillAt(o, o.Limit))
				continue
			}
			// Stop triggered but the limit is not proven reachable on
			// this bar: convert to a plain limit for later bars. A
			// stop-limit cannot be guaranteed to fill on its
			// triggering bar.
			o.Stop = 0
			resting = append(resting, o)

		case domain.KindLimit:
			if limitTouched(bar, o) {
				fills = append(fills, fillAt(o, o.Limit))
				continue
			}
			resting = append(resting, o)

		case domain.KindStop:
			if stopTriggered(bar, o.Stop) {
				fills = append(fills, fillAt(o, o.Stop))
				continue
			}
			resting = append(resting, o)

		default:
			// No leg left to trigger on. Demoted reduce-only orders
			// end up here and must keep resting, never fill.
			resting = append(resting, o)
		}
	}

	b.orders = resting
	return fills
}

// stopTriggered reports whether the stop price traded within the bar.
func stopTriggered(bar domain.Candle, stop float64) bool {
	return bar.High >= stop && stop >= bar.Low
}

// limitTouched reports whether the bar traded through the limit price:
// a long fills only if the bar printed below it, a short only above.
func limitTouched(bar domain.Candle, o domain.Order) bool {
	if o.Side == domain.SideLong {
		return bar.Low < o.Limit
	}
	return bar.High > o.Limit
}

// closeCrossedLimit reports whether the bar close traded through the
// limit: beyond it on the side that proves the limit printed after the
// stop triggered. A close that stops short of the limit converts the
// order instead.
func closeCrossedLimit(bar domain.Candle, o domain.Order) bool {
	if o.Side == domain.SideLong {
		return bar.Close > o.Limit
	}
	return bar.Close < o.Limit
}

func fillAt(o domain.Order, price float64) domain.Fill {
	return domain.Fill{
		ID:         o.ID,
		Side:       o.Side,
		Qty:        o.Qty,
		Price:      price,
		ReduceOnly: o.ReduceOnly,
		Reason:     o.Reason,
	}
}
