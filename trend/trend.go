package trend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// TheilSen returns the Theil-Sen estimator for the series: the median of all
// pairwise slopes (price units per second) and the median intercept. The
// naive O(n²) pass is fine for the few hundred points a daily report covers.
func TheilSen(samples []Sample) (slope, intercept float64) {
	n := len(samples)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, samples[0].Price
	}

	t := make([]float64, n)
	for i, s := range samples {
		t[i] = s.TS.Sub(samples[0].TS).Seconds()
	}

	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if dt := t[j] - t[i]; dt != 0 {
				slopes = append(slopes, (samples[j].Price-samples[i].Price)/dt)
			}
		}
	}
	if len(slopes) == 0 {
		return 0, samples[0].Price
	}

	slope = median(slopes)

	intercepts := make([]float64, n)
	for i, s := range samples {
		intercepts[i] = s.Price - slope*t[i]
	}
	intercept = median(intercepts)

	return slope, intercept
}

// VWAP returns the volume-weighted average price over the whole series,
// falling back to the simple mean when fewer than two samples carry volume.
func VWAP(samples []Sample) float64 {
	var vSum, pvSum float64
	valid := 0
	for _, s := range samples {
		if s.Volume > 0 {
			valid++
			vSum += s.Volume
			pvSum += s.Price * s.Volume
		}
	}
	if valid < 2 {
		var sum float64
		for _, s := range samples {
			sum += s.Price
		}
		return sum / float64(len(samples))
	}
	return pvSum / vSum
}

// bar is one OHLC bucket of the resampled series.
type bar struct {
	start                  time.Time
	open, high, low, close float64
}

// resample rolls the raw samples up into OHLC bars of the given width.
func resample(samples []Sample, freq time.Duration) []bar {
	var bars []bar
	for _, s := range samples {
		start := s.TS.Truncate(freq)
		if len(bars) == 0 || !bars[len(bars)-1].start.Equal(start) {
			bars = append(bars, bar{start: start, open: s.Price, high: s.Price, low: s.Price, close: s.Price})
			continue
		}
		last := &bars[len(bars)-1]
		last.high = math.Max(last.high, s.Price)
		last.low = math.Min(last.low, s.Price)
		last.close = s.Price
	}
	return bars
}

// ATRPercent computes ATR over OHLC bars resampled at freq, normalizes it by
// each bar's close and forward-fills the result back onto the raw samples.
// Resampling first matters: on raw ticks the high/low range collapses and
// ATR reads as zero.
func ATRPercent(samples []Sample, period int, freq time.Duration) ([]float64, error) {
	bars := resample(samples, freq)
	if len(bars) <= period {
		return nil, fmt.Errorf("need more than %d bars at %s for ATR, have %d", period, freq, len(bars))
	}

	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		high[i], low[i], closes[i] = b.high, b.low, b.close
	}

	atr := talib.Atr(high, low, closes, period)

	atrPct := make([]float64, len(bars))
	for i := range bars {
		if closes[i] != 0 {
			atrPct[i] = atr[i] / closes[i] * 100
		}
	}

	// Forward-fill bar values onto the raw timestamps.
	out := make([]float64, len(samples))
	barIdx := 0
	for i, s := range samples {
		for barIdx+1 < len(bars) && !bars[barIdx+1].start.After(s.TS) {
			barIdx++
		}
		out[i] = atrPct[barIdx]
	}
	return out, nil
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
