package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/engine"
	"tradesim-lab/internal/observability"
	"tradesim-lab/internal/strategy"
	"tradesim-lab/internal/timeframe"
)

// Phase is the replay state machine position.
type Phase int

// Replay phases.
const (
	PhaseWarmup Phase = iota
	PhaseStreaming
	PhaseDone
)

// Driver errors.
var (
	ErrStrategyAborted = errors.New("strategy aborted the run")
	ErrAlreadyRun      = errors.New("driver has already finished a run")
)

// EquityPoint is one sample of the balance series, taken once per
// base-resolution tick.
type EquityPoint struct {
	Time        time.Time
	Balance     float64
	DrawdownPct float64
}

// Driver feeds base candles through the aggregator and runs the
// per-bar pipeline on every closed bar: resting orders first, then
// the strategy, then exit policies. During warmup bars accumulate but
// nothing trades; at end of data the position is flattened at the
// last price and the ledger frozen.
type Driver struct {
	eng        *engine.Engine
	agg        *timeframe.Aggregator
	strat      strategy.Strategy
	log        *logrus.Logger
	warmupBars int

	phase     Phase
	ticks     int
	lastPrice float64
	history   []EquityPoint
}

// NewDriver creates a replay driver for an engine and strategy.
func NewDriver(eng *engine.Engine, strat strategy.Strategy, log *logrus.Logger) (*Driver, error) {
	if strat == nil {
		return nil, errors.New("strategy is required")
	}
	if log == nil {
		log = logrus.New()
	}
	cfg := eng.Config()
	agg, err := timeframe.NewAggregator(cfg.Timeframes, cfg.MinuteGranularity, cfg.OHLCVLen, cfg.TimeframeOrder)
	if err != nil {
		return nil, err
	}
	return &Driver{
		eng:        eng,
		agg:        agg,
		strat:      strat,
		log:        log,
		warmupBars: cfg.WarmupBars(),
		phase:      PhaseWarmup,
	}, nil
}

// Phase returns the current state machine position.
func (d *Driver) Phase() Phase { return d.phase }

// History returns the balance series sampled per base tick, warmup
// included.
func (d *Driver) History() []EquityPoint {
	out := make([]EquityPoint, len(d.history))
	copy(out, d.history)
	return out
}

// Run consumes the source to exhaustion, then finalizes. Each run
// needs a fresh driver.
func (d *Driver) Run(ctx context.Context, src CandleSource) error {
	if d.phase == PhaseDone {
		return ErrAlreadyRun
	}
	d.log.WithFields(logrus.Fields{
		"strategy":    d.strat.Name(),
		"timeframes":  d.agg.Timeframes(),
		"warmup_bars": d.warmupBars,
	}).Info("replay started")

	for {
		c, err := src.Next(ctx)
		if errors.Is(err, ErrEndOfData) {
			break
		}
		if err != nil {
			return err
		}
		if err := d.Tick(ctx, c); err != nil {
			return err
		}
	}
	return d.Finalize()
}

// Tick processes one base-resolution candle.
func (d *Driver) Tick(ctx context.Context, c domain.Candle) error {
	if d.phase == PhaseDone {
		return ErrAlreadyRun
	}
	closed, err := d.agg.Push(c)
	if err != nil {
		return err
	}
	d.ticks++
	d.lastPrice = c.Close
	observability.RecordCandleReplayed()
	d.eng.SetClock(c.Timestamp)
	d.eng.SetMarketPrice(c.Close)

	if d.phase == PhaseWarmup {
		// History stays flat at the starting balance until trading
		// begins, so warmup never contributes to drawdown.
		d.recordEquity(c.Timestamp)
		if d.ticks >= d.warmupBars {
			d.phase = PhaseStreaming
			d.log.WithField("bars", d.ticks).Info("warmup complete")
		}
		return nil
	}

	for _, cl := range closed {
		if err := d.runBar(ctx, cl); err != nil {
			return err
		}
	}
	d.recordEquity(c.Timestamp)
	return nil
}

// Finalize flattens any open position at the last seen price and
// freezes the ledger. Safe to call on an empty run.
func (d *Driver) Finalize() error {
	if d.phase == PhaseDone {
		return nil
	}
	d.phase = PhaseDone
	if d.eng.PositionSize() != 0 && d.lastPrice > 0 {
		if err := d.eng.CloseAllAtPrice(d.lastPrice); err != nil {
			return fmt.Errorf("finalize: %w", err)
		}
	}
	d.eng.Ledger().Freeze()
	d.log.WithFields(logrus.Fields{
		"ticks":   d.ticks,
		"trades":  d.eng.Ledger().OrderCount(),
		"balance": d.eng.Balance(),
	}).Info("replay finished")
	return nil
}

func (d *Driver) runBar(ctx context.Context, cl timeframe.Closed) error {
	bar := cl.Bar
	observability.RecordBarClosed(cl.Timeframe)
	d.eng.RatchetTrail(bar)
	if _, err := d.eng.EvaluateOrders(bar); err != nil {
		return err
	}

	tv := &traderView{Engine: d.eng, agg: d.agg, windowLen: d.eng.Config().OHLCVLen}
	w := strategy.NewWindow(cl.Timeframe, d.agg.Window(cl.Timeframe, d.eng.Config().OHLCVLen))
	if err := d.strat.OnBar(ctx, tv, w); err != nil {
		return fmt.Errorf("%w: %s on %s bar %s: %v",
			ErrStrategyAborted, d.strat.Name(), cl.Timeframe, bar.Timestamp.Format(time.RFC3339), err)
	}

	if err := d.eng.EvalExitPolicies(bar); err != nil {
		return err
	}
	d.eng.FinishBar()
	return nil
}

func (d *Driver) recordEquity(ts time.Time) {
	d.history = append(d.history, EquityPoint{
		Time:        ts,
		Balance:     d.eng.Balance(),
		DrawdownPct: d.eng.Ledger().DrawdownPct(),
	})
}

// traderView is the Trader handed to strategies. It widens the engine
// with window access so strategies can read other timeframes.
type traderView struct {
	*engine.Engine
	agg       *timeframe.Aggregator
	windowLen int
}

// Security returns the trailing window for another subscribed
// timeframe.
func (v *traderView) Security(label string) (strategy.Window, error) {
	if _, ok := v.agg.Spec(label); !ok {
		return strategy.Window{}, timeframe.ErrUnknownTimeframe
	}
	return strategy.NewWindow(label, v.agg.Window(label, v.windowLen)), nil
}

var _ strategy.Trader = (*traderView)(nil)
