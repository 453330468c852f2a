package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/coinward/coinward/trend"
)

func buildTrendCmd() *cobra.Command {
	var (
		inputFile   string
		summaryJSON bool
		atrFreq     string
		atrPeriod   int
	)

	trendCmd := &cobra.Command{
		Use:   "trend",
		Short: "Analyze a price series and print a trend report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var input io.Reader = cmd.InOrStdin()
			if inputFile != "" {
				file, err := os.Open(inputFile)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer file.Close()
				input = file
			}

			freq, err := str2duration.ParseDuration(atrFreq)
			if err != nil {
				return fmt.Errorf("invalid atr frequency: %w", err)
			}

			samples, err := trend.ParseSamples(input)
			if err != nil {
				return err
			}

			analysis, err := trend.Analyze(samples, atrPeriod, freq)
			if err != nil {
				return err
			}

			if summaryJSON {
				return trend.WriteJSON(cmd.OutOrStdout(), analysis)
			}
			return trend.WriteText(cmd.OutOrStdout(), analysis, samples)
		},
	}

	trendCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input JSON file (default stdin)")
	trendCmd.Flags().BoolVar(&summaryJSON, "summary-json", false, "Print the summary as JSON")
	trendCmd.Flags().StringVar(&atrFreq, "atr-freq", "1h", "Bar size used for ATR resampling")
	trendCmd.Flags().IntVar(&atrPeriod, "atr-period", 14, "ATR lookback period in bars")
	return trendCmd
}
