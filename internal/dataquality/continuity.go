// Package dataquality checks candle series for the defects that make
// a replay lie: gaps, duplicates, and out-of-order or malformed rows.
// The replay pipeline itself assumes clean input; run these checks on
// ingest or before a backtest.
package dataquality

import (
	"fmt"
	"time"

	"tradesim-lab/internal/domain"
)

// IssueKind classifies a continuity defect.
type IssueKind string

// Issue kinds.
const (
	IssueGap       IssueKind = "gap"
	IssueDuplicate IssueKind = "duplicate"
	IssueUnsorted  IssueKind = "unsorted"
	IssueMalformed IssueKind = "malformed"
)

// Issue is one continuity defect found in a candle series.
type Issue struct {
	Kind IssueKind

	// Index is the position of the offending candle.
	Index int

	// At is the offending candle's timestamp.
	At time.Time

	// Expected is the timestamp a gap check wanted to see. Zero for
	// other kinds.
	Expected time.Time

	// Detail describes malformed rows.
	Detail string
}

// String renders the issue for logs and reports.
func (i Issue) String() string {
	switch i.Kind {
	case IssueGap:
		return fmt.Sprintf("gap at index %d: expected %s, got %s",
			i.Index, i.Expected.Format(time.RFC3339), i.At.Format(time.RFC3339))
	case IssueDuplicate:
		return fmt.Sprintf("duplicate timestamp at index %d: %s", i.Index, i.At.Format(time.RFC3339))
	case IssueUnsorted:
		return fmt.Sprintf("out of order at index %d: %s", i.Index, i.At.Format(time.RFC3339))
	default:
		return fmt.Sprintf("malformed candle at index %d: %s", i.Index, i.Detail)
	}
}

// CheckContinuity scans a base-resolution series expected to advance
// by step between consecutive candles. Returns every defect found;
// an empty result means the series is clean.
func CheckContinuity(candles []domain.Candle, step time.Duration) []Issue {
	var issues []Issue
	var prev time.Time

	for i, c := range candles {
		if err := c.Validate(); err != nil {
			issues = append(issues, Issue{Kind: IssueMalformed, Index: i, At: c.Timestamp, Detail: err.Error()})
			continue
		}
		if i == 0 {
			prev = c.Timestamp
			continue
		}
		switch {
		case c.Timestamp.Equal(prev):
			issues = append(issues, Issue{Kind: IssueDuplicate, Index: i, At: c.Timestamp})
		case c.Timestamp.Before(prev):
			issues = append(issues, Issue{Kind: IssueUnsorted, Index: i, At: c.Timestamp})
		case step > 0 && c.Timestamp.Sub(prev) != step:
			issues = append(issues, Issue{Kind: IssueGap, Index: i, At: c.Timestamp, Expected: prev.Add(step)})
			prev = c.Timestamp
		default:
			prev = c.Timestamp
		}
	}
	return issues
}
