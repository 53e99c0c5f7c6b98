package timeframe

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tradesim-lab/internal/domain"
)

// SortOrder controls the order in which subscribed timeframes are
// processed on ticks where several buckets close simultaneously.
// The order is a user-visible invariant: with Descending a 4h signal is
// always evaluated before a 5m signal on a shared boundary.
type SortOrder int

// Sort orders.
const (
	Descending SortOrder = iota // longest bucket first (default)
	Ascending                   // shortest bucket first
	Insertion                   // subscription order
)

// Aggregator errors.
var (
	ErrMixedBaseResolution = errors.New("subscribed timeframes require different base resolutions")
	ErrNoTimeframes        = errors.New("no timeframes subscribed")
	ErrStaleCandle         = errors.New("base candle is older than the current bucket")
)

// Closed pairs a finished resampled bar with its timeframe label.
type Closed struct {
	Timeframe string
	Bar       domain.Candle
}

// bucketState accumulates the base candles of the currently open bucket.
// The partial bar it represents is never exposed to strategies.
type bucketState struct {
	start time.Time
	base  []domain.Candle
}

// Aggregator owns the per-timeframe buffers of a replay: for each
// subscribed timeframe it maintains a bounded window of closed bars and
// one in-progress bucket. Bucket boundaries are wall-clock aligned
// (computed from the candle timestamp, never from a counter), so a
// resumed stream resamples identically regardless of starting offset.
type Aggregator struct {
	specs     map[string]Spec
	order     []string
	windowLen int

	partial map[string]*bucketState
	windows map[string][]domain.Candle
}

// NewAggregator subscribes the given timeframe labels. With
// minuteGranularity every bucket is derived from 1m candles; otherwise
// each label's catalog base resolution is used, and all subscribed
// labels must then share that base. windowLen bounds the closed-bar
// window per timeframe (warmup length plus one).
func NewAggregator(labels []string, minuteGranularity bool, windowLen int, order SortOrder) (*Aggregator, error) {
	if len(labels) == 0 {
		return nil, ErrNoTimeframes
	}
	if windowLen < 1 {
		return nil, fmt.Errorf("window length must be positive, got %d", windowLen)
	}

	specs := make(map[string]Spec, len(labels))
	base := ""
	for _, label := range labels {
		var (
			s   Spec
			err error
		)
		if minuteGranularity {
			s, err = LookupMinute(label)
		} else {
			s, err = Lookup(label)
		}
		if err != nil {
			return nil, err
		}
		if base == "" {
			base = s.Base
		} else if base != s.Base {
			return nil, fmt.Errorf("%w: %s needs %s base, stream is %s (enable minute granularity)",
				ErrMixedBaseResolution, label, s.Base, base)
		}
		specs[label] = s
	}

	ordered := append([]string(nil), labels...)
	switch order {
	case Descending:
		sort.SliceStable(ordered, func(i, j int) bool {
			return specs[ordered[i]].Minutes > specs[ordered[j]].Minutes
		})
	case Ascending:
		sort.SliceStable(ordered, func(i, j int) bool {
			return specs[ordered[i]].Minutes < specs[ordered[j]].Minutes
		})
	}

	return &Aggregator{
		specs:     specs,
		order:     ordered,
		windowLen: windowLen,
		partial:   make(map[string]*bucketState, len(specs)),
		windows:   make(map[string][]domain.Candle, len(specs)),
	}, nil
}

// Push feeds one base-resolution candle to every subscribed timeframe
// and returns the bars whose buckets that tick proved complete, in the
// configured processing order. A repeated timestamp replaces the
// previous contribution of that base candle (live feeds re-send the
// in-progress candle); an older timestamp is an error.
func (a *Aggregator) Push(c domain.Candle) ([]Closed, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var closed []Closed
	for _, label := range a.order {
		spec := a.specs[label]
		bucketStart := c.Timestamp.UTC().Truncate(spec.Bucket)

		st := a.partial[label]
		if st == nil {
			a.partial[label] = &bucketState{start: bucketStart, base: []domain.Candle{c}}
			continue
		}

		switch {
		case bucketStart.After(st.start):
			// The new tick proves the previous bucket is complete.
			bar := resampleBucket(st.start, st.base)
			a.appendClosed(label, bar)
			closed = append(closed, Closed{Timeframe: label, Bar: bar})
			a.partial[label] = &bucketState{start: bucketStart, base: []domain.Candle{c}}
		case bucketStart.Equal(st.start):
			last := len(st.base) - 1
			if st.base[last].Timestamp.Equal(c.Timestamp) {
				st.base[last] = c
			} else if c.Timestamp.After(st.base[last].Timestamp) {
				st.base = append(st.base, c)
			} else {
				return nil, fmt.Errorf("%w: %s", ErrStaleCandle, c.Timestamp)
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrStaleCandle, c.Timestamp)
		}
	}
	return closed, nil
}

// Window returns up to n most recent closed bars for a timeframe,
// oldest first. The returned slice is a copy.
func (a *Aggregator) Window(label string, n int) []domain.Candle {
	w := a.windows[label]
	if n < len(w) {
		w = w[len(w)-n:]
	}
	out := make([]domain.Candle, len(w))
	copy(out, w)
	return out
}

// ClosedCount returns how many closed bars a timeframe has accumulated,
// capped at the window length. Used to decide when warmup is over.
func (a *Aggregator) ClosedCount(label string) int {
	return len(a.windows[label])
}

// Timeframes returns the subscribed labels in processing order.
func (a *Aggregator) Timeframes() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Spec returns the resolved spec for a subscribed label.
func (a *Aggregator) Spec(label string) (Spec, bool) {
	s, ok := a.specs[label]
	return s, ok
}

func (a *Aggregator) appendClosed(label string, bar domain.Candle) {
	w := append(a.windows[label], bar)
	if len(w) > a.windowLen {
		w = w[len(w)-a.windowLen:]
	}
	a.windows[label] = w
}

// resampleBucket collapses the base candles of one bucket using
// open:first, high:max, low:min, close:last, volume:sum. The resulting
// bar is stamped with the bucket's wall-clock open.
func resampleBucket(start time.Time, base []domain.Candle) domain.Candle {
	bar := domain.Candle{
		Timestamp: start,
		Open:      base[0].Open,
		High:      base[0].High,
		Low:       base[0].Low,
		Close:     base[len(base)-1].Close,
	}
	for _, c := range base {
		if c.High > bar.High {
			bar.High = c.High
		}
		if c.Low < bar.Low {
			bar.Low = c.Low
		}
		bar.Volume += c.Volume
	}
	return bar
}
