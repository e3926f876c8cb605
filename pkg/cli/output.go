package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/newsletter/export"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is aligned key/value text (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV, for record lists.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, FormatJSON, FormatCSV:
		return OutputFormat(s), nil
	case "":
		return FormatText, nil
	}
	return "", NewConfigError("output", fmt.Sprintf("unknown format %q (text, json, csv)", s))
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// Field is one labelled line of text output.
type Field struct {
	Key   string
	Value any
}

// Fields renders as aligned "key: value" lines in text output.
type Fields []Field

// TextFormatter formats output as plain text. Fields are aligned; anything
// else prints with %v.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	fields, ok := data.(Fields)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, field := range fields {
		if _, err := fmt.Fprintf(tw, "%s:\t%v\n", field.Key, field.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats newsletter records as CSV.
type CSVFormatter struct {
	Header bool
}

// FormatTo writes records to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	var records []*newsletter.Record
	switch v := data.(type) {
	case []*newsletter.Record:
		records = v
	case *newsletter.Record:
		records = []*newsletter.Record{v}
	default:
		return fmt.Errorf("CSV output is not supported for %T", data)
	}
	return export.NewCSVExporter(f.Header).Export(context.Background(), records, w)
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{Header: true}
	default:
		return &TextFormatter{}
	}
}
