// Package engine composes the order book, the account ledger and the
// exit policies into one simulation context. The same engine backs the
// historical replay driver and the live paper-trading driver; the
// driver is the only axis of variation.
package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/account"
	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/observability"
	"tradesim-lab/internal/orderbook"
)

// Engine is the simulation context: it owns the account ledger, the
// simulated order book and the exit-policy state, and exposes the
// order-placement API consumed by strategies. It is single-threaded;
// drivers must serialize all calls.
type Engine struct {
	cfg    Config
	ledger *account.Ledger
	book   *orderbook.Book
	log    *logrus.Logger

	marketPrice float64
	now         time.Time

	// trailPrice is the ratchet used by the trailing-stop exit; it only
	// moves in the position's favor.
	trailPrice float64

	exitPolicy ExitPolicy
	sltpPolicy SLTPPolicy

	// Entry history, most recent last, consulted by the deferred
	// take-profit evaluation. Three entries cover the lookback the
	// deferral needs.
	longEntry  [3]bool
	shortEntry [3]bool
	// flags for the bar currently being processed
	barLongEntry  bool
	barShortEntry bool

	// last quantity/entry the SL/TP orders were staged against
	sltpStagedQty   float64
	sltpStagedEntry float64

	fills []domain.Fill
}

// New builds an engine from a validated config.
func New(cfg Config, log *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	ledger, err := account.NewLedger(cfg.Account)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		ledger: ledger,
		book:   orderbook.NewBook(cfg.TieBreak),
		log:    log,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Ledger exposes the account for read access and reporting.
func (e *Engine) Ledger() *account.Ledger { return e.ledger }

// Book exposes the resting orders for inspection.
func (e *Engine) Book() *orderbook.Book { return e.book }

// SetClock advances the simulation clock. Drivers call it once per bar
// with the bar's close time.
func (e *Engine) SetClock(t time.Time) { e.now = t }

// Now returns the simulation clock.
func (e *Engine) Now() time.Time { return e.now }

// SetMarketPrice updates the mark price (the close of the bar being
// processed).
func (e *Engine) SetMarketPrice(p float64) { e.marketPrice = p }

// MarketPrice returns the current mark price.
func (e *Engine) MarketPrice() float64 { return e.marketPrice }

// TrailPrice returns the trailing-stop ratchet price.
func (e *Engine) TrailPrice() float64 { return e.trailPrice }

// RatchetTrail moves the trail price in the position's favor: up to the
// bar low for longs, down to the bar high for shorts. Called once per
// base-granularity bar before order evaluation.
func (e *Engine) RatchetTrail(bar domain.Candle) {
	pos := e.ledger.PositionSize()
	if pos > 0 && bar.Low > e.trailPrice {
		e.trailPrice = bar.Low
	}
	if pos < 0 && bar.High < e.trailPrice {
		e.trailPrice = bar.High
	}
}

// EvaluateOrders runs the resting orders against a newly closed bar and
// commits the resulting fills. Fills are committed after evaluation so
// the book never observes a position mutated mid-iteration.
func (e *Engine) EvaluateOrders(bar domain.Candle) ([]domain.Fill, error) {
	fills := e.book.Evaluate(bar, e.ledger.PositionSize())
	for _, f := range fills {
		if err := e.commitFill(f); err != nil {
			return nil, err
		}
	}
	e.fills = append(e.fills, fills...)
	return fills, nil
}

// BarFills returns the fills committed since the last FinishBar call.
// It replaces per-order completion callbacks: strategies and drivers
// read the results after the bar instead of being re-entered mid-bar.
func (e *Engine) BarFills() []domain.Fill {
	out := make([]domain.Fill, len(e.fills))
	copy(out, e.fills)
	return out
}

// FinishBar rolls the per-bar entry flags into the entry history and
// clears the per-bar fill list. Drivers call it after exit evaluation.
func (e *Engine) FinishBar() {
	e.longEntry = [3]bool{e.longEntry[1], e.longEntry[2], e.barLongEntry}
	e.shortEntry = [3]bool{e.shortEntry[1], e.shortEntry[2], e.barShortEntry}
	e.barLongEntry = false
	e.barShortEntry = false
	e.fills = e.fills[:0]
}

// commitFill applies one fill to the ledger and maintains the trail
// ratchet and entry history.
func (e *Engine) commitFill(f domain.Fill) error {
	res, err := e.ledger.Commit(f.ID, f.Side, f.Qty, f.Price, true, f.ReduceOnly, f.Reason, e.now)
	if err != nil {
		return err
	}
	if res.Opened {
		e.trailPrice = f.Price
		if f.Side == domain.SideLong {
			e.barLongEntry = true
		} else {
			e.barShortEntry = true
		}
	}
	e.logFill(f, res)
	reason := f.Reason
	if reason == "" {
		reason = "order"
	}
	observability.RecordFill(reason, e.ledger.Balance(), e.ledger.DrawdownPct())
	return nil
}

func (e *Engine) logFill(f domain.Fill, res account.CommitResult) {
	e.log.WithFields(logrus.Fields{
		"time":     e.now.Format(time.RFC3339),
		"id":       f.ID,
		"side":     f.Side.String(),
		"qty":      f.Qty,
		"price":    f.Price,
		"position": res.Position,
		"pnl":      res.RealizedPnL,
		"balance":  e.ledger.Balance(),
	}).Info("fill")
}
