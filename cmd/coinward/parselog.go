package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/coinward/coinward/logparse"
)

func buildParseLogCmd() *cobra.Command {
	var inputFile string

	parseCmd := &cobra.Command{
		Use:   "parselog",
		Short: "Extract price updates from a bot log into JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var input io.Reader = cmd.InOrStdin()
			if inputFile != "" {
				file, err := os.Open(inputFile)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer file.Close()

				info, err := file.Stat()
				if err != nil {
					return fmt.Errorf("stat input: %w", err)
				}
				bar := progressbar.DefaultBytes(info.Size(), "parsing")
				input = io.TeeReader(file, bar)
			}

			records, err := logparse.Parse(input)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		},
	}

	parseCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input log file (default stdin)")
	return parseCmd
}
