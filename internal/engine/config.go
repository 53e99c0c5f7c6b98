package engine

import (
	"errors"
	"fmt"

	"tradesim-lab/internal/account"
	"tradesim-lab/internal/orderbook"
	"tradesim-lab/internal/timeframe"
)

// Config enumerates every recognized simulation option with explicit
// defaults. It replaces the ad-hoc attribute injection of older bots:
// unknown options cannot exist, and validation happens once, before
// streaming begins.
type Config struct {
	// Timeframes the strategy subscribes to, e.g. ["4h", "5m"].
	Timeframes []string
	// OHLCVLen is the closed-bar window length passed to the strategy.
	OHLCVLen int
	// MinuteGranularity derives every timeframe from 1m candles,
	// required when subscribing to more than one timeframe.
	MinuteGranularity bool
	// TimeframeOrder fixes the evaluation order on ticks where several
	// buckets close at once.
	TimeframeOrder timeframe.SortOrder
	// WarmupTF scales the warmup length when minute granularity is on.
	// Empty selects the longest subscribed timeframe.
	WarmupTF string
	// TieBreak selects the stop-limit same-bar policy.
	TieBreak orderbook.TieBreak

	Account account.Config
}

// DefaultConfig returns a config with the conventional defaults: one
// hour bars, a 100-bar window, longest-first evaluation, 0.1%/100x-free
// accounting on a 1000-unit quote balance.
func DefaultConfig() Config {
	return Config{
		Timeframes:     []string{"1h"},
		OHLCVLen:       100,
		TimeframeOrder: timeframe.Descending,
		Account: account.Config{
			StartBalance: 1000,
			Commission:   0.001,
			Leverage:     1,
			QtyInUSDT:    true,
		},
	}
}

// Validate reports the first configuration error. Any error here is
// fatal at setup time, before the Streaming state is entered.
func (c *Config) Validate() error {
	if len(c.Timeframes) == 0 {
		return errors.New("at least one timeframe is required")
	}
	if len(c.Timeframes) > 1 && !c.MinuteGranularity {
		return errors.New("multiple timeframes require minute granularity")
	}
	for _, tf := range c.Timeframes {
		if _, err := timeframe.Lookup(tf); err != nil {
			return err
		}
	}
	if c.WarmupTF != "" {
		if _, err := timeframe.Lookup(c.WarmupTF); err != nil {
			return fmt.Errorf("warmup timeframe: %w", err)
		}
	}
	if c.OHLCVLen <= 0 {
		return errors.New("ohlcv window length must be positive")
	}
	return c.Account.Validate()
}

// WarmupTimeframe resolves the timeframe whose bucket length scales the
// warmup: the configured one, or the longest subscribed.
func (c *Config) WarmupTimeframe() string {
	if c.WarmupTF != "" {
		return c.WarmupTF
	}
	longest := c.Timeframes[0]
	max, _ := timeframe.Lookup(longest)
	for _, tf := range c.Timeframes[1:] {
		s, _ := timeframe.Lookup(tf)
		if s.Minutes > max.Minutes {
			max, longest = s, tf
		}
	}
	return longest
}

// WarmupBars returns how many base-resolution candles must be consumed
// before the strategy sees its first bar.
func (c *Config) WarmupBars() int {
	if !c.MinuteGranularity {
		return c.OHLCVLen
	}
	s, _ := timeframe.Lookup(c.WarmupTimeframe())
	return s.Minutes * c.OHLCVLen
}
