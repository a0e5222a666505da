// parse.go converts the provider's delimited text responses into rows.
// Parsing is pure and tolerant: blank lines are dropped, empty input yields
// an empty slice, and a malformed line still produces a row (with however
// many fields it has) — field-count validation is the aggregation layer's
// concern.
package distimo

import (
	"encoding/csv"
	"strings"
)

// Format selects the delimiter convention of a response body.
type Format string

const (
	// FormatSCSV is semicolon-separated values, the provider default.
	// Fields are split naively on ';' with surrounding quotes preserved;
	// downstream name normalization strips them.
	FormatSCSV Format = "scsv"

	// FormatCSV is comma-separated values with standard quoting, so fields
	// may themselves contain commas inside double quotes.
	FormatCSV Format = "csv"
)

// Row is one parsed line of a response body: an ordered sequence of string
// fields. By provider convention the first row of a payload is a header row.
type Row []string

// ParseRows splits text into rows according to the given format. Blank and
// whitespace-only lines are discarded. Empty or all-blank input yields an
// empty slice, never an error.
func ParseRows(text string, format Format) []Row {
	var rows []Row
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, parseLine(line, format))
	}
	return rows
}

func parseLine(line string, format Format) Row {
	if format == FormatCSV {
		r := csv.NewReader(strings.NewReader(line))
		r.FieldsPerRecord = -1 // field counts are validated downstream
		r.LazyQuotes = true
		record, err := r.Read()
		if err == nil {
			return Row(record)
		}
		// Unparseable as CSV; fall through to a naive split so the line is
		// still surfaced to the aggregator rather than silently dropped.
		return Row(strings.Split(line, ","))
	}
	return Row(strings.Split(line, ";"))
}
