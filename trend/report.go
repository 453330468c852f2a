package trend

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
)

// WriteJSON emits the machine-readable analysis.
func WriteJSON(w io.Writer, analysis *Analysis) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(analysis)
}

// WriteText renders the human-readable report: the summary block, a signals
// table and a histogram of the price distribution.
func WriteText(w io.Writer, analysis *Analysis, samples []Sample) error {
	s := analysis.Summary

	fmt.Fprintf(w, "Open price:  $%.2f\n", s.OpenPrice)
	fmt.Fprintf(w, "Close price: $%.2f\n", s.ClosePrice)
	fmt.Fprintf(w, "Change:      %+.2f%%\n\n", s.PercentChange)
	fmt.Fprintf(w, "High: $%.2f  (%s)\n", s.MaxPrice, s.MaxTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Low:  $%.2f  (%s)\n\n", s.MinPrice, s.MinTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Theil-Sen slope/hour: %+.2f USD/h (%+.4f%%/h)\n", s.SlopePerHour, s.SlopePercentPerHour)
	fmt.Fprintf(w, "VWAP (full period):   $%.2f\n", s.VWAP)
	fmt.Fprintf(w, "Last ATR:             %.2f%%\n\n", s.LastATRPercent)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Signal", "Value"})
	table.Append([]string{"Mean reversion", strconv.FormatBool(analysis.Signals.MeanReversion)})
	table.Append([]string{"Momentum filter", strconv.FormatBool(analysis.Signals.MomentumFilter)})
	table.Append([]string{"Stop loss", fmt.Sprintf("$%.2f", analysis.Signals.StopLoss)})
	table.Append([]string{"Position size", fmt.Sprintf("%.2f", analysis.Signals.PositionSizeMultiplier)})
	table.Render()

	prices := make([]float64, len(samples))
	for i, sample := range samples {
		prices[i] = sample.Price
	}

	fmt.Fprintf(w, "\nPrice distribution:\n")
	hist := histogram.Hist(10, prices)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
