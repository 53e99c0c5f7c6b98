package indicators

import (
	"math"
	"testing"
)

func eq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)

	if len(got) != 5 {
		t.Fatalf("Length: got %d, want 5", len(got))
	}
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("Leading values must be NaN, got %v", got[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !eq(got[i+2], w) {
			t.Errorf("SMA[%d]: got %f, want %f", i+2, got[i+2], w)
		}
	}
}

func TestSMA_PeriodLongerThanInput(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("Index %d: got %f, want NaN", i, v)
		}
	}
}

func TestEMA(t *testing.T) {
	// Seeded with the SMA of the first period values, alpha 2/(p+1).
	got := EMA([]float64{10, 20, 30, 40}, 3)

	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("Leading values must be NaN, got %v", got[:2])
	}
	if !eq(got[2], 20) {
		t.Errorf("Seed: got %f, want 20", got[2])
	}
	want := 0.5*40 + 0.5*20
	if !eq(got[3], want) {
		t.Errorf("EMA[3]: got %f, want %f", got[3], want)
	}
}

func TestHighestLowest(t *testing.T) {
	src := []float64{3, 1, 4, 1, 5}

	hi := Highest(src, 3)
	if !eq(hi[2], 4) || !eq(hi[3], 4) || !eq(hi[4], 5) {
		t.Errorf("Highest: got %v", hi[2:])
	}

	lo := Lowest(src, 3)
	if !eq(lo[2], 1) || !eq(lo[3], 1) || !eq(lo[4], 1) {
		t.Errorf("Lowest: got %v", lo[2:])
	}
}

func TestStdev(t *testing.T) {
	// Population stdev of {2,4,4,4,5,5,7,9} is 2.
	src := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := Stdev(src, 8)
	if !eq(got[7], 2) {
		t.Errorf("Stdev: got %f, want 2", got[7])
	}
}

func TestATR(t *testing.T) {
	high := []float64{12, 13, 14}
	low := []float64{10, 11, 11}
	close := []float64{11, 12, 13}

	got := ATR(high, low, close, 2)
	// TR = [2, 2, 3]; SMA(2) of the last pair is 2.5.
	if !eq(got[2], 2.5) {
		t.Errorf("ATR: got %f, want 2.5", got[2])
	}
}

func TestRSI(t *testing.T) {
	// Monotonic gains pin the index at 100.
	up := []float64{1, 2, 3, 4, 5, 6}
	got := RSI(up, 3)
	if !eq(got[5], 100) {
		t.Errorf("RSI of pure gains: got %f, want 100", got[5])
	}

	down := []float64{6, 5, 4, 3, 2, 1}
	got = RSI(down, 3)
	if !eq(got[5], 0) {
		t.Errorf("RSI of pure losses: got %f, want 0", got[5])
	}
}

func TestCrossoverCrossunder(t *testing.T) {
	if !Crossover([]float64{1, 3}, []float64{2, 2}) {
		t.Error("Expected crossover")
	}
	if Crossover([]float64{3, 3}, []float64{2, 2}) {
		t.Error("Already-above is not a crossover")
	}
	if !Crossunder([]float64{3, 1}, []float64{2, 2}) {
		t.Error("Expected crossunder")
	}
	if Crossunder([]float64{1, 1}, []float64{2, 2}) {
		t.Error("Already-below is not a crossunder")
	}
	if Crossover([]float64{1}, []float64{2}) {
		t.Error("Single-element series cannot cross")
	}
}

func TestLast(t *testing.T) {
	if !eq(Last([]float64{1, 2, 3}), 3) {
		t.Error("Last of {1,2,3} should be 3")
	}
	if !math.IsNaN(Last(nil)) {
		t.Error("Last of empty series should be NaN")
	}
}
