package trend

import (
	"math"
	"time"
)

// Summary condenses the series and its Theil-Sen trend.
type Summary struct {
	OpenPrice            float64   `json:"open_price"`
	ClosePrice           float64   `json:"close_price"`
	MinPrice             float64   `json:"min_price"`
	MinTime              time.Time `json:"min_time"`
	MaxPrice             float64   `json:"max_price"`
	MaxTime              time.Time `json:"max_time"`
	PercentChange        float64   `json:"percent_change"`
	SlopePerSecond       float64   `json:"theil_sen_slope_sec"`
	SlopePerHour         float64   `json:"theil_sen_slope_hour"`
	SlopePercentPerHour  float64   `json:"theil_sen_slope_perc_hour"`
	VWAP                 float64   `json:"vwap"`
	LastATRPercent       float64   `json:"last_atr_percent"`
}

// Signals are the derived trading hints of the report.
type Signals struct {
	// MeanReversion flags a price at least 1% away from VWAP.
	MeanReversion bool `json:"mean_reversion"`
	// MomentumFilter flags a trend slope steeper than 0.1%/h.
	MomentumFilter bool `json:"momentum_filter"`
	// StopLoss is the price two ATR% below the last close.
	StopLoss float64 `json:"stop_loss"`
	// PositionSizeMultiplier shrinks from 10 toward 1 as ATR% grows.
	PositionSizeMultiplier float64 `json:"position_size_multiplier"`
}

// Analysis is the machine-readable result of a trend report.
type Analysis struct {
	Summary Summary `json:"summary"`
	Signals Signals `json:"signals"`
}

const (
	meanReversionThresholdPct = 1.0
	momentumThresholdPctHour  = 0.1
	stopLossATRMultiplier     = 2.0
)

// Analyze runs the full pipeline over a sorted series: Theil-Sen slope,
// VWAP, resampled ATR and the derived signals.
func Analyze(samples []Sample, atrPeriod int, atrFreq time.Duration) (*Analysis, error) {
	slope, _ := TheilSen(samples)
	vwap := VWAP(samples)

	atrPct, err := ATRPercent(samples, atrPeriod, atrFreq)
	if err != nil {
		return nil, err
	}
	lastATR := atrPct[len(atrPct)-1]

	open := samples[0].Price
	last := samples[len(samples)-1].Price

	summary := Summary{
		OpenPrice:      open,
		ClosePrice:     last,
		MinPrice:       math.Inf(1),
		MaxPrice:       math.Inf(-1),
		SlopePerSecond: slope,
		SlopePerHour:   slope * 3600,
		VWAP:           vwap,
		LastATRPercent: lastATR,
	}
	if open != 0 {
		summary.PercentChange = (last - open) / open * 100
		summary.SlopePercentPerHour = summary.SlopePerHour / open * 100
	}
	for _, s := range samples {
		if s.Price < summary.MinPrice {
			summary.MinPrice = s.Price
			summary.MinTime = s.TS
		}
		if s.Price > summary.MaxPrice {
			summary.MaxPrice = s.Price
			summary.MaxTime = s.TS
		}
	}

	pctFromVWAP := 0.0
	if vwap != 0 {
		pctFromVWAP = 100 * (last - vwap) / vwap
	}

	raw := 10.0 - lastATR*4.5
	signals := Signals{
		MeanReversion:          math.Abs(pctFromVWAP) >= meanReversionThresholdPct,
		MomentumFilter:         math.Abs(summary.SlopePercentPerHour) > momentumThresholdPctHour,
		StopLoss:               last * (1 - (lastATR*stopLossATRMultiplier)/100),
		PositionSizeMultiplier: math.Round(math.Max(1, math.Min(10, raw))*100) / 100,
	}

	return &Analysis{Summary: summary, Signals: signals}, nil
}
