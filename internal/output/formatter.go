// Package output renders command results on stdout as aligned tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Format represents supported output formats
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"

	// tabwriterPadding is the padding between columns in table output
	tabwriterPadding = 2
)

// Formatter handles output formatting for commands
type Formatter struct {
	writer io.Writer
	format Format
}

// NewFormatter creates a new output formatter writing to stdout
// Defaults to table format if invalid format provided
func NewFormatter(format string) *Formatter {
	return NewFormatterWithWriter(os.Stdout, format)
}

// NewFormatterWithWriter creates a formatter writing to w
func NewFormatterWithWriter(w io.Writer, format string) *Formatter {
	f := Format(format)
	if f != FormatTable && f != FormatJSON {
		f = FormatTable
	}
	return &Formatter{
		writer: w,
		format: f,
	}
}

// Format returns the effective output format
func (f *Formatter) Format() Format {
	return f.format
}

// Table represents a table with headers and rows
type Table struct {
	Headers []string
	Rows    [][]string
}

// PrintTable prints data in the configured format (table or json)
// In JSON mode each row becomes an object keyed by header
func (f *Formatter) PrintTable(table Table) error {
	if f.format == FormatJSON {
		return f.printJSON(tableToMaps(table))
	}
	if len(table.Rows) == 0 {
		_, err := fmt.Fprintln(f.writer, "No data found")
		return err
	}
	return f.printTable(table)
}

// PrintResult prints table in table format and data as-is in JSON format,
// for results whose JSON shape differs from their tabular rendering
func (f *Formatter) PrintResult(table Table, data interface{}) error {
	if f.format == FormatJSON {
		return f.printJSON(data)
	}
	return f.PrintTable(table)
}

// printTable prints data in table format using tabwriter
func (f *Formatter) printTable(table Table) error {
	w := tabwriter.NewWriter(f.writer, 0, 0, tabwriterPadding, ' ', 0)

	fmt.Fprintln(w, strings.Join(table.Headers, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}

// printJSON prints data in JSON format
func (f *Formatter) printJSON(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// tableToMaps converts a Table to a slice of maps for JSON output
func tableToMaps(table Table) []map[string]string {
	result := make([]map[string]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		item := make(map[string]string)
		for i, header := range table.Headers {
			if i < len(row) {
				item[header] = row[i]
			}
		}
		result = append(result, item)
	}
	return result
}

// PrintMessage prints a simple message (only in table format, ignored in JSON)
func (f *Formatter) PrintMessage(message string) {
	if f.format == FormatTable {
		fmt.Fprintln(f.writer, message)
	}
}
