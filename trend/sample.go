// Package trend is an offline analytics tool over historical price series:
// Theil-Sen trend slope, VWAP, resampled ATR and a small set of derived
// trading signals. It shares no runtime state with the ledger engine.
package trend

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Sample is one observation of a price series. Volume is optional; zero
// means unknown.
type Sample struct {
	TS     time.Time
	Price  float64
	Volume float64
}

var tsLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON accepts either a "close" or a "price" field, preferring
// "close", and several timestamp layouts.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw struct {
		TS     string   `json:"ts"`
		Close  *float64 `json:"close"`
		Price  *float64 `json:"price"`
		Volume float64  `json:"volume"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Close != nil:
		s.Price = *raw.Close
	case raw.Price != nil:
		s.Price = *raw.Price
	default:
		return fmt.Errorf("sample has neither 'close' nor 'price'")
	}

	if raw.TS == "" {
		return fmt.Errorf("sample has no 'ts'")
	}
	var err error
	for _, layout := range tsLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, raw.TS); err == nil {
			s.TS = ts
			break
		}
	}
	if err != nil {
		return fmt.Errorf("unparseable timestamp %q", raw.TS)
	}

	s.Volume = raw.Volume
	return nil
}

// ParseSamples reads a JSON array of samples and returns them sorted by
// timestamp ascending.
func ParseSamples(r io.Reader) ([]Sample, error) {
	var samples []Sample
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("expected a non-empty JSON array")
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].TS.Before(samples[j].TS)
	})
	return samples, nil
}
