// Package indicators provides the array helpers the bundled strategies
// compute their signals from. All functions return a series aligned
// with the input; leading positions without enough history hold NaN.
package indicators

import "math"

// Last returns the most recent value of a series.
func Last(src []float64) float64 {
	if len(src) == 0 {
		return math.NaN()
	}
	return src[len(src)-1]
}

// Highest returns the rolling maximum over period bars.
func Highest(src []float64, period int) []float64 {
	return rolling(src, period, func(w []float64) float64 {
		max := w[0]
		for _, v := range w[1:] {
			if v > max {
				max = v
			}
		}
		return max
	})
}

// Lowest returns the rolling minimum over period bars.
func Lowest(src []float64, period int) []float64 {
	return rolling(src, period, func(w []float64) float64 {
		min := w[0]
		for _, v := range w[1:] {
			if v < min {
				min = v
			}
		}
		return min
	})
}

// SMA returns the simple moving average over period bars.
func SMA(src []float64, period int) []float64 {
	return rolling(src, period, func(w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum / float64(len(w))
	})
}

// EMA returns the exponential moving average with alpha 2/(period+1),
// seeded with an SMA over the first period bars.
func EMA(src []float64, period int) []float64 {
	out := nanSeries(len(src))
	if period <= 0 || len(src) < period {
		return out
	}
	alpha := 2.0 / float64(period+1)
	seed := 0.0
	for _, v := range src[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out[period-1] = prev
	for i := period; i < len(src); i++ {
		prev = alpha*src[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// Stdev returns the rolling population standard deviation.
func Stdev(src []float64, period int) []float64 {
	return rolling(src, period, func(w []float64) float64 {
		mean := 0.0
		for _, v := range w {
			mean += v
		}
		mean /= float64(len(w))
		varsum := 0.0
		for _, v := range w {
			d := v - mean
			varsum += d * d
		}
		return math.Sqrt(varsum / float64(len(w)))
	})
}

// ATR returns the average true range over period bars.
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			tr[i] = high[i] - low[i]
			continue
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return SMA(tr, period)
}

// RSI returns Wilder's relative strength index.
func RSI(close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 || len(close) <= period {
		return out
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := close[i] - close[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(close); i++ {
		d := close[i] - close[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// Crossover reports whether series a crossed above series b on the
// most recent bar.
func Crossover(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) < 2 {
		return false
	}
	m := len(b)
	return a[n-2] <= b[m-2] && a[n-1] > b[m-1]
}

// Crossunder reports whether series a crossed below series b on the
// most recent bar.
func Crossunder(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) < 2 {
		return false
	}
	m := len(b)
	return a[n-2] >= b[m-2] && a[n-1] < b[m-1]
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func rolling(src []float64, period int, agg func([]float64) float64) []float64 {
	out := nanSeries(len(src))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(src); i++ {
		out[i] = agg(src[i-period+1 : i+1])
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
