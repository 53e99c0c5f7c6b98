package timeframe

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownTimeframe is returned when a label is not in the catalog.
// It is a configuration error and fatal at setup time.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Spec describes how one timeframe label is built from a base resolution.
type Spec struct {
	Label   string
	Base    string        // resolution of the candles that feed the bucket
	Bucket  time.Duration // wall-clock span aggregated into one bar
	Combine int           // number of base candles per bucket
	Minutes int           // bucket length in minutes
}

// catalog maps labels to specs for the standard base resolutions
// (minute labels build from 1m, sub-hour multiples from 5m, and so on).
var catalog = map[string]Spec{
	"1m":  {"1m", "1m", time.Minute, 1, 1},
	"2m":  {"2m", "1m", 2 * time.Minute, 2, 2},
	"3m":  {"3m", "1m", 3 * time.Minute, 3, 3},
	"4m":  {"4m", "1m", 4 * time.Minute, 4, 4},
	"5m":  {"5m", "1m", 5 * time.Minute, 5, 5},
	"6m":  {"6m", "1m", 6 * time.Minute, 6, 6},
	"7m":  {"7m", "1m", 7 * time.Minute, 7, 7},
	"8m":  {"8m", "1m", 8 * time.Minute, 8, 8},
	"9m":  {"9m", "1m", 9 * time.Minute, 9, 9},
	"10m": {"10m", "1m", 10 * time.Minute, 10, 10},
	"11m": {"11m", "1m", 11 * time.Minute, 11, 11},
	"15m": {"15m", "5m", 15 * time.Minute, 3, 15},
	"30m": {"30m", "5m", 30 * time.Minute, 6, 30},
	"45m": {"45m", "5m", 45 * time.Minute, 9, 45},
	"1h":  {"1h", "1h", time.Hour, 1, 60},
	"2h":  {"2h", "1h", 2 * time.Hour, 2, 120},
	"3h":  {"3h", "1h", 3 * time.Hour, 3, 180},
	"4h":  {"4h", "1h", 4 * time.Hour, 4, 240},
	"6h":  {"6h", "1h", 6 * time.Hour, 6, 360},
	"12h": {"12h", "1h", 12 * time.Hour, 12, 720},
	"1d":  {"1d", "1d", 24 * time.Hour, 1, 1440},
	"3d":  {"3d", "1d", 72 * time.Hour, 3, 4320},
}

// Lookup resolves a timeframe label against the standard catalog.
func Lookup(label string) (Spec, error) {
	s, ok := catalog[label]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, label)
	}
	return s, nil
}

// LookupMinute resolves a label as if every timeframe were built
// directly from 1m candles. This is how multi-timeframe replays run:
// one base stream, every bucket derived from it.
func LookupMinute(label string) (Spec, error) {
	s, ok := catalog[label]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, label)
	}
	return Spec{
		Label:   s.Label,
		Base:    "1m",
		Bucket:  time.Duration(s.Minutes) * time.Minute,
		Combine: s.Minutes,
		Minutes: s.Minutes,
	}, nil
}

// FromMinutes returns the label whose bucket is exactly the given
// number of minutes, or an error when no catalog entry matches.
func FromMinutes(minutes int) (string, error) {
	for label, s := range catalog {
		if s.Minutes == minutes {
			return label, nil
		}
	}
	return "", fmt.Errorf("%w: %d minutes", ErrUnknownTimeframe, minutes)
}

// Labels returns all known labels. Intended for validation messages.
func Labels() []string {
	out := make([]string, 0, len(catalog))
	for label := range catalog {
		out = append(out, label)
	}
	return out
}
