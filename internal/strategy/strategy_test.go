package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesim-lab/internal/domain"
)

type entryCall struct {
	id   string
	side domain.Side
	qty  float64
	stop float64
}

// fakeTrader records entry calls and answers sizing queries from fixed
// values.
type fakeTrader struct {
	lot     float64
	entries []entryCall
}

func (f *fakeTrader) Entry(id string, side domain.Side, qty, limit, stop float64, postOnly bool) error {
	f.entries = append(f.entries, entryCall{id: id, side: side, qty: qty, stop: stop})
	return nil
}

func (f *fakeTrader) Order(id string, side domain.Side, qty, limit, stop float64, postOnly, reduceOnly bool) error {
	return nil
}

func (f *fakeTrader) Cancel(string) bool                               { return false }
func (f *fakeTrader) CancelAll()                                       {}
func (f *fakeTrader) CloseAll() error                                  { return nil }
func (f *fakeTrader) ClosePartial(float64) error                       { return nil }
func (f *fakeTrader) Exit(profit, loss, trailOffset float64) error     { return nil }
func (f *fakeTrader) Sltp(pl, ps, sl, ss float64, deferred bool) error { return nil }
func (f *fakeTrader) Security(timeframe string) (Window, error)        { return Window{}, nil }
func (f *fakeTrader) Lot() float64                                     { return f.lot }
func (f *fakeTrader) Balance() float64                                 { return 1000 }
func (f *fakeTrader) PositionSize() float64                            { return 0 }
func (f *fakeTrader) AvgEntryPrice() float64                           { return 0 }
func (f *fakeTrader) MarketPrice() float64                             { return 100 }

var _ Trader = (*fakeTrader)(nil)

func windowOf(closes []float64) Window {
	w := Window{Timeframe: "1h"}
	for _, c := range closes {
		w.Open = append(w.Open, c)
		w.High = append(w.High, c+1)
		w.Low = append(w.Low, c-1)
		w.Close = append(w.Close, c)
		w.Volume = append(w.Volume, 1)
	}
	return w
}

func TestDotenStrategy_StagesBothBreakoutStops(t *testing.T) {
	s := NewDotenStrategy(3)
	tr := &fakeTrader{lot: 10}

	w := windowOf([]float64{100, 104, 102})
	if err := s.OnBar(context.Background(), tr, w); err != nil {
		t.Fatalf("OnBar failed: %v", err)
	}

	if len(tr.entries) != 2 {
		t.Fatalf("Entries: got %d, want 2", len(tr.entries))
	}
	long, short := tr.entries[0], tr.entries[1]
	if long.id != "Long" || long.side != domain.SideLong || long.stop != 105 {
		t.Errorf("Long entry: %+v", long)
	}
	if short.id != "Short" || short.side != domain.SideShort || short.stop != 99 {
		t.Errorf("Short entry: %+v", short)
	}
	// Half the full lot on each side.
	if long.qty != 5 || short.qty != 5 {
		t.Errorf("Quantities: %f and %f, want 5", long.qty, short.qty)
	}
}

func TestDotenStrategy_WaitsForHistory(t *testing.T) {
	s := NewDotenStrategy(5)
	tr := &fakeTrader{lot: 10}

	if err := s.OnBar(context.Background(), tr, windowOf([]float64{100, 101})); err != nil {
		t.Fatalf("OnBar failed: %v", err)
	}
	if len(tr.entries) != 0 {
		t.Errorf("Entries before enough history: %d", len(tr.entries))
	}
}

func TestSMACrossStrategy_EntersOnCross(t *testing.T) {
	s := NewSMACrossStrategy(2, 3)

	t.Run("crossover goes long", func(t *testing.T) {
		tr := &fakeTrader{lot: 10}
		if err := s.OnBar(context.Background(), tr, windowOf([]float64{10, 10, 10, 16})); err != nil {
			t.Fatalf("OnBar failed: %v", err)
		}
		if len(tr.entries) != 1 || tr.entries[0].side != domain.SideLong {
			t.Fatalf("Entries: %+v", tr.entries)
		}
	})

	t.Run("crossunder goes short", func(t *testing.T) {
		tr := &fakeTrader{lot: 10}
		if err := s.OnBar(context.Background(), tr, windowOf([]float64{10, 10, 10, 4})); err != nil {
			t.Fatalf("OnBar failed: %v", err)
		}
		if len(tr.entries) != 1 || tr.entries[0].side != domain.SideShort {
			t.Fatalf("Entries: %+v", tr.entries)
		}
	})

	t.Run("no cross stays flat", func(t *testing.T) {
		tr := &fakeTrader{lot: 10}
		if err := s.OnBar(context.Background(), tr, windowOf([]float64{10, 10, 10, 10})); err != nil {
			t.Fatalf("OnBar failed: %v", err)
		}
		if len(tr.entries) != 0 {
			t.Fatalf("Entries: %+v", tr.entries)
		}
	})
}

func TestStubStrategy_RecordsWindows(t *testing.T) {
	s := NewStubStrategy()
	w := windowOf([]float64{1, 2, 3})

	if err := s.OnBar(context.Background(), &fakeTrader{}, w); err != nil {
		t.Fatalf("OnBar failed: %v", err)
	}
	if len(s.Windows) != 1 || s.Windows[0].Len() != 3 {
		t.Errorf("Windows: %+v", s.Windows)
	}

	s.Err = errors.New("boom")
	if err := s.OnBar(context.Background(), &fakeTrader{}, w); err == nil {
		t.Error("Expected configured error")
	}
}

func TestFromName(t *testing.T) {
	cases := []struct {
		name     string
		strat    string
		params   Params
		wantErr  error
		wantName string
	}{
		{"doten", "doten", Params{Length: 20}, nil, "doten_20"},
		{"doten bad length", "doten", Params{}, ErrInvalidPeriod, ""},
		{"sma cross", "sma_cross", Params{Fast: 9, Slow: 26}, nil, "sma_cross_9_26"},
		{"sma cross zero fast", "sma_cross", Params{Slow: 26}, ErrInvalidPeriod, ""},
		{"sma cross inverted", "sma_cross", Params{Fast: 26, Slow: 9}, ErrFastNotBelowSlow, ""},
		{"stub", "stub", Params{}, nil, "stub"},
		{"unknown", "turtle", Params{}, ErrUnknownStrategyName, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromName(tc.strat, tc.params)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Error: got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromName failed: %v", err)
			}
			if s.Name() != tc.wantName {
				t.Errorf("Name: got %s, want %s", s.Name(), tc.wantName)
			}
		})
	}
}

func TestNewWindow(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: t0.Add(time.Hour), Open: 1.5, High: 3, Low: 1, Close: 2, Volume: 20},
	}

	w := NewWindow("1h", candles)
	if w.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", w.Len())
	}
	if w.Timeframe != "1h" {
		t.Errorf("Timeframe: got %s", w.Timeframe)
	}
	if w.High[1] != 3 || w.Volume[0] != 10 || w.Close[1] != 2 {
		t.Errorf("Columns: %+v", w)
	}
}
