// Package logparse extracts structured price records from bot log lines of
// the form "Prices updated at <timestamp> UTC -> {'bitcoin': 61234.5}".
package logparse

import (
	"bufio"
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

var lineRegexp = regexp.MustCompile(`^Prices updated at (.*?) UTC -> (.*)$`)

// Record is one extracted log line: the timestamp as written and the price
// mapping at that moment.
type Record struct {
	TS    string             `json:"ts"`
	Price map[string]float64 `json:"price"`
}

// Parse scans the reader line by line and returns the records of every line
// matching the price-update pattern. Lines that do not match, or whose
// payload is not valid JSON even after single-quote normalization, are
// skipped silently.
func Parse(r io.Reader) ([]Record, error) {
	records := make([]Record, 0)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		match := lineRegexp.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if match == nil {
			continue
		}

		payload := strings.ReplaceAll(match[2], "'", `"`)
		var prices map[string]float64
		if err := json.Unmarshal([]byte(payload), &prices); err != nil {
			continue
		}

		records = append(records, Record{TS: match[1], Price: prices})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
