package trend

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func linearSeries(n int, start, slopePerHour float64) []Sample {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{
			TS:    base.Add(time.Duration(i) * time.Hour),
			Price: start + slopePerHour*float64(i),
		}
	}
	return samples
}

func TestTheilSenLinearSeries(t *testing.T) {
	samples := linearSeries(24, 100, 2)

	slope, intercept := TheilSen(samples)
	require.InDelta(t, 2.0/3600, slope, 1e-9)
	require.InDelta(t, 100, intercept, 1e-6)
}

func TestTheilSenRobustToOutlier(t *testing.T) {
	samples := linearSeries(24, 100, 2)
	samples[10].Price = 10000

	slope, _ := TheilSen(samples)
	require.InDelta(t, 2.0/3600, slope, 1e-4)
}

func TestTheilSenDegenerate(t *testing.T) {
	slope, intercept := TheilSen(nil)
	require.Zero(t, slope)
	require.Zero(t, intercept)

	slope, intercept = TheilSen([]Sample{{Price: 42}})
	require.Zero(t, slope)
	require.Equal(t, 42.0, intercept)
}

func TestVWAP(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{TS: base, Price: 100, Volume: 1},
		{TS: base.Add(time.Hour), Price: 200, Volume: 3},
	}
	require.InDelta(t, 175, VWAP(samples), 1e-9)
}

func TestVWAPFallsBackToMean(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{TS: base, Price: 100},
		{TS: base.Add(time.Hour), Price: 200, Volume: 5},
	}
	// A single volumed sample is not enough for a weighted average.
	require.InDelta(t, 150, VWAP(samples), 1e-9)
}

func TestATRPercentNeedsEnoughBars(t *testing.T) {
	samples := linearSeries(5, 100, 1)
	_, err := ATRPercent(samples, 14, time.Hour)
	require.Error(t, err)
}

func TestATRPercentForwardFills(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	var samples []Sample
	for i := 0; i < 12*4; i++ {
		price := 100 + 5*math.Sin(float64(i))
		samples = append(samples, Sample{TS: base.Add(time.Duration(i) * 15 * time.Minute), Price: price})
	}

	atrPct, err := ATRPercent(samples, 3, time.Hour)
	require.NoError(t, err)
	require.Len(t, atrPct, len(samples))
	require.Greater(t, atrPct[len(atrPct)-1], 0.0)

	// Samples inside the same hourly bar share one value.
	require.Equal(t, atrPct[len(atrPct)-1], atrPct[len(atrPct)-2])
}

func TestAnalyze(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	var samples []Sample
	for i := 0; i < 48; i++ {
		price := 100 + 2*float64(i) + math.Sin(float64(i))
		samples = append(samples, Sample{TS: base.Add(time.Duration(i) * time.Hour), Price: price, Volume: 10})
	}

	analysis, err := Analyze(samples, 3, time.Hour)
	require.NoError(t, err)

	summary := analysis.Summary
	require.Equal(t, samples[0].Price, summary.OpenPrice)
	require.Equal(t, samples[len(samples)-1].Price, summary.ClosePrice)
	require.InDelta(t, 2, summary.SlopePerHour, 0.2)
	require.Greater(t, summary.MaxPrice, summary.MinPrice)
	require.Greater(t, summary.PercentChange, 0.0)

	signals := analysis.Signals
	require.True(t, signals.MomentumFilter)
	require.Less(t, signals.StopLoss, summary.ClosePrice)
	require.GreaterOrEqual(t, signals.PositionSizeMultiplier, 1.0)
	require.LessOrEqual(t, signals.PositionSizeMultiplier, 10.0)
}
