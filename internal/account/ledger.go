// Package account implements the simulated account: balance, position
// averaging, realized-PnL counters and drawdown statistics. The ledger
// is the single writer of position state; every other component reads
// it through accessors, which keeps the single-threaded simulation free
// of locks by construction.
package account

import (
	"errors"
	"math"
	"time"

	"tradesim-lab/internal/domain"
)

// Ledger errors.
var (
	ErrFrozen      = errors.New("ledger is frozen for reporting")
	ErrZeroEntry   = errors.New("commit with no average entry price")
	ErrNonPositive = errors.New("commit quantity must be positive")
)

// Config holds the accounting parameters, validated once at setup.
type Config struct {
	StartBalance float64
	Commission   float64 // taker commission as a fraction (0.001 = 0.1%)
	Leverage     float64
	// QtyInUSDT selects quote-currency position sizing, which changes
	// the realized-profit formula: profit is qty*rate directly instead
	// of qty*rate*entry_price.
	QtyInUSDT bool
}

// Validate reports configuration errors. Fatal before streaming begins.
func (c Config) Validate() error {
	if c.StartBalance <= 0 {
		return errors.New("start balance must be positive")
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return errors.New("commission must be a fraction in [0, 1)")
	}
	if c.Leverage <= 0 {
		return errors.New("leverage must be positive")
	}
	return nil
}

// CommitResult summarizes the effect of one commit.
type CommitResult struct {
	Filled      float64 // quantity actually applied after reduce-only clamping
	RealizedPnL float64
	Closed      bool // a closing leg was realized
	Opened      bool // a position was opened or increased
	Position    float64
	AvgEntry    float64
}

// Ledger tracks balance and the current position. Mutated only by
// Commit; frozen after finalization.
type Ledger struct {
	cfg Config

	balance    float64
	balanceATH float64

	positionSize  float64 // signed, >0 long
	avgEntryPrice float64

	orderCount int
	winCount   int
	loseCount  int
	winProfit  float64
	loseLoss   float64

	// maxLossRate is the worst single-trade close rate times leverage.
	maxLossRate float64
	// session drawdown, absolute and percent of ATH.
	maxDrawdown    float64
	maxDrawdownPct float64
	drawdownPct    float64

	log    []domain.TradeLogRow
	frozen bool
}

// NewLedger creates a ledger with the opening balance.
func NewLedger(cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{
		cfg:        cfg,
		balance:    cfg.StartBalance,
		balanceATH: cfg.StartBalance,
	}, nil
}

// Commit applies a fill to the account. When the fill opposes the
// current position it realizes PnL on the overlapping quantity first;
// any excess reverses into a fresh position on the fill's side.
// Reduce-only fills are clamped to the resting position size.
func (l *Ledger) Commit(id string, side domain.Side, qty, price float64, applyCommission, reduceOnly bool, reason string, now time.Time) (CommitResult, error) {
	if l.frozen {
		return CommitResult{}, ErrFrozen
	}
	if qty <= 0 {
		return CommitResult{}, ErrNonPositive
	}

	if reduceOnly && qty > math.Abs(l.positionSize) {
		qty = math.Abs(l.positionSize)
	}
	if qty == 0 {
		return CommitResult{Position: l.positionSize, AvgEntry: l.avgEntryPrice}, nil
	}

	l.orderCount++

	orderQty := qty
	if side == domain.SideShort {
		orderQty = -qty
	}

	commission := 0.0
	if applyCommission {
		commission = l.cfg.Commission
	}

	res := CommitResult{Filled: qty}

	opposing := (l.positionSize > 0 && orderQty < 0) || (l.positionSize < 0 && orderQty > 0)
	if opposing {
		if l.avgEntryPrice == 0 {
			return CommitResult{}, ErrZeroEntry
		}
		closingQty := math.Min(qty, math.Abs(l.positionSize))

		var closeRate float64
		if l.positionSize > 0 {
			closeRate = (price-l.avgEntryPrice)/l.avgEntryPrice - commission
		} else {
			closeRate = (l.avgEntryPrice-price)/l.avgEntryPrice - commission
		}

		denom := l.avgEntryPrice
		if l.cfg.QtyInUSDT {
			denom = 1
		}
		profit := closingQty * closeRate * denom

		if profit > 0 {
			l.winProfit += profit
			l.winCount++
		} else {
			l.loseLoss += -profit
			l.loseCount++
			if closeRate*l.cfg.Leverage < l.maxLossRate {
				l.maxLossRate = closeRate * l.cfg.Leverage
			}
		}

		l.balance += profit
		l.observeBalance()

		remaining := l.positionSize + sign(l.positionSize)*(-closingQty)
		l.appendLog(now, side, closeReasonID(id, qty, l.positionSize), price, closingQty, remaining, profit)

		l.positionSize = remaining
		if l.positionSize == 0 {
			l.avgEntryPrice = 0
		}
		res.Closed = true
		res.RealizedPnL = profit

		qty -= closingQty
		if qty == 0 {
			res.Position = l.positionSize
			res.AvgEntry = l.avgEntryPrice
			return res, nil
		}
	}

	// Opening leg: fresh position, reversal remainder, or same-side add.
	oldSize := math.Abs(l.positionSize)
	newSize := oldSize + qty
	if oldSize > 0 {
		l.avgEntryPrice = (l.avgEntryPrice*oldSize + price*qty) / newSize
	} else {
		l.avgEntryPrice = price
	}
	if side == domain.SideLong {
		l.positionSize = newSize
	} else {
		l.positionSize = -newSize
	}

	l.appendLog(now, side, id, price, qty, l.positionSize, 0)

	res.Opened = true
	res.Position = l.positionSize
	res.AvgEntry = l.avgEntryPrice
	return res, nil
}

// observeBalance maintains the all-time high and the session drawdown
// statistics after a balance change.
func (l *Ledger) observeBalance() {
	if l.balance > l.balanceATH {
		l.balanceATH = l.balance
	}
	if l.balanceATH > l.balance {
		pct := (l.balanceATH - l.balance) / l.balanceATH * 100
		if pct > l.maxDrawdownPct {
			l.maxDrawdownPct = pct
			l.maxDrawdown = l.balanceATH - l.balance
		}
	}
	l.drawdownPct = (l.balanceATH - l.balance) / l.balanceATH * 100
}

func (l *Ledger) appendLog(now time.Time, side domain.Side, id string, price, qty, position, pnl float64) {
	l.log = append(l.log, domain.TradeLogRow{
		Time:        now,
		Side:        side,
		OrderID:     id,
		Price:       price,
		Qty:         qty,
		Position:    position,
		RealizedPnL: pnl,
		Balance:     l.balance,
		Drawdown:    l.drawdownPct,
	})
}

// UnrealizedPnL computes the open position's PnL at the given mark
// price, net of one round of commission, scaled by leverage.
func (l *Ledger) UnrealizedPnL(mark float64) float64 {
	if l.positionSize == 0 || l.avgEntryPrice == 0 || mark == 0 {
		return 0
	}
	var closeRate float64
	if l.avgEntryPrice > mark {
		closeRate = ((l.avgEntryPrice-mark)/mark - l.cfg.Commission) * l.cfg.Leverage
		return -l.positionSize * closeRate
	}
	closeRate = ((mark-l.avgEntryPrice)/l.avgEntryPrice - l.cfg.Commission) * l.cfg.Leverage
	return l.positionSize * closeRate
}

// Freeze marks the ledger terminal; further commits fail.
func (l *Ledger) Freeze() { l.frozen = true }

// Accessors. Single-writer discipline: everything below is read-only.

func (l *Ledger) Balance() float64       { return l.balance }
func (l *Ledger) BalanceATH() float64    { return l.balanceATH }
func (l *Ledger) StartBalance() float64  { return l.cfg.StartBalance }
func (l *Ledger) PositionSize() float64  { return l.positionSize }
func (l *Ledger) AvgEntryPrice() float64 { return l.avgEntryPrice }
func (l *Ledger) Commission() float64    { return l.cfg.Commission }
func (l *Ledger) Leverage() float64      { return l.cfg.Leverage }
func (l *Ledger) DrawdownPct() float64   { return l.drawdownPct }
func (l *Ledger) OrderCount() int        { return l.orderCount }
func (l *Ledger) WinCount() int          { return l.winCount }
func (l *Ledger) LoseCount() int         { return l.loseCount }
func (l *Ledger) WinProfit() float64     { return l.winProfit }
func (l *Ledger) LoseLoss() float64      { return l.loseLoss }
func (l *Ledger) MaxLossRate() float64   { return l.maxLossRate }

// MaxDrawdown returns the session maximum drawdown, absolute and as a
// percentage of the balance all-time high.
func (l *Ledger) MaxDrawdown() (abs, pct float64) {
	return l.maxDrawdown, l.maxDrawdownPct
}

// TradeLog returns a copy of the append-only audit rows.
func (l *Ledger) TradeLog() []domain.TradeLogRow {
	out := make([]domain.TradeLogRow, len(l.log))
	copy(out, l.log)
	return out
}

// Lot sizes a full-balance position at the given price:
// balance * leverage / price.
func (l *Ledger) Lot(price float64) float64 {
	if price == 0 {
		return 0
	}
	return l.balance * l.cfg.Leverage / price
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// closeReasonID labels reversal closes the way the trade log expects:
// a close that flips the position is recorded as a reversal rather
// than under the triggering order's id.
func closeReasonID(id string, qty, position float64) string {
	if qty > math.Abs(position) {
		return "Reversal"
	}
	return id
}
