// Package replay drives a simulation engine through a historical
// candle sequence in deterministic order, with a warmup phase before
// trading starts and a forced flatten at the end of data.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"tradesim-lab/internal/domain"
)

// ErrEndOfData is returned by CandleSource.Next when the sequence is
// exhausted.
var ErrEndOfData = errors.New("end of candle data")

// ErrOutOfOrder is returned when a source yields candles with
// non-increasing timestamps.
var ErrOutOfOrder = errors.New("candles are not in ascending time order")

// CandleSource yields base-resolution candles in strictly ascending
// time order. Sources are finite and restartable.
type CandleSource interface {
	// Next returns the next candle, or ErrEndOfData when exhausted.
	Next(ctx context.Context) (domain.Candle, error)

	// Reset rewinds the source to its first candle.
	Reset() error
}

// MemorySource replays a fixed in-memory candle slice.
type MemorySource struct {
	candles []domain.Candle
	pos     int
}

// NewMemorySource creates a source over candles. The slice is not
// copied; callers must not mutate it while the source is in use.
func NewMemorySource(candles []domain.Candle) *MemorySource {
	return &MemorySource{candles: candles}
}

// Next returns the next candle in the slice.
func (s *MemorySource) Next(ctx context.Context) (domain.Candle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Candle{}, err
	}
	if s.pos >= len(s.candles) {
		return domain.Candle{}, ErrEndOfData
	}
	c := s.candles[s.pos]
	s.pos++
	return c, nil
}

// Reset rewinds to the first candle.
func (s *MemorySource) Reset() error {
	s.pos = 0
	return nil
}

var _ CandleSource = (*MemorySource)(nil)

// CSVSource streams candles from a CSV file with rows of
// time,open,high,low,close,volume. Time is RFC 3339 or a unix
// timestamp in seconds. A header row is skipped when present.
type CSVSource struct {
	path   string
	file   *os.File
	reader *csv.Reader
	line   int
	lastTS time.Time
}

// NewCSVSource opens path for streaming.
func NewCSVSource(path string) (*CSVSource, error) {
	s := &CSVSource{path: path}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Next reads and parses the next row.
func (s *CSVSource) Next(ctx context.Context) (domain.Candle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Candle{}, err
	}
	for {
		rec, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return domain.Candle{}, ErrEndOfData
		}
		if err != nil {
			return domain.Candle{}, fmt.Errorf("read %s: %w", s.path, err)
		}
		s.line++
		if len(rec) < 6 {
			return domain.Candle{}, fmt.Errorf("%s line %d: expected 6 columns, got %d", s.path, s.line, len(rec))
		}
		ts, err := parseTime(rec[0])
		if err != nil {
			// Header row.
			if s.line == 1 {
				continue
			}
			return domain.Candle{}, fmt.Errorf("%s line %d: %w", s.path, s.line, err)
		}
		c, err := parseCandle(ts, rec)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("%s line %d: %w", s.path, s.line, err)
		}
		if !s.lastTS.IsZero() && !c.Timestamp.After(s.lastTS) {
			return domain.Candle{}, fmt.Errorf("%s line %d: %w", s.path, s.line, ErrOutOfOrder)
		}
		s.lastTS = c.Timestamp
		return c, nil
	}
}

// Reset reopens the file from the beginning.
func (s *CSVSource) Reset() error {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return err
		}
	}
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open candle file: %w", err)
	}
	s.file = f
	s.reader = csv.NewReader(f)
	s.reader.FieldsPerRecord = -1
	s.line = 0
	s.lastTS = time.Time{}
	return nil
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

var _ CandleSource = (*CSVSource)(nil)

func parseTime(field string) (time.Time, error) {
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, field)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", field, err)
	}
	return ts.UTC(), nil
}

func parseCandle(ts time.Time, rec []string) (domain.Candle, error) {
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse column %d: %w", i+1, err)
		}
		vals[i] = v
	}
	c := domain.Candle{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}
	if err := c.Validate(); err != nil {
		return domain.Candle{}, err
	}
	return c, nil
}
