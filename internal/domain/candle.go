package domain

import (
	"errors"
	"fmt"
	"time"
)

// Candle validation errors.
var (
	ErrCandleRange    = errors.New("candle violates high >= open/close >= low >= 0")
	ErrCandleZeroTime = errors.New("candle has zero timestamp")
)

// Candle is one OHLCV record for a fixed time bucket.
// Timestamp marks the open of the bucket, in UTC.
// A candle is immutable once its bucket has closed.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Validate checks the OHLC ordering invariant:
// high >= max(open, close) >= min(open, close) >= low >= 0.
func (c *Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return ErrCandleZeroTime
	}
	if c.Low < 0 ||
		c.High < c.Open || c.High < c.Close ||
		c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("%w: o=%v h=%v l=%v c=%v at %s",
			ErrCandleRange, c.Open, c.High, c.Low, c.Close, c.Timestamp.Format(time.RFC3339))
	}
	return nil
}
