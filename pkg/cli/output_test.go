package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/courier/pkg/newsletter"
)

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	err := (&TextFormatter{}).FormatTo(&buf, Fields{
		{Key: "audio_files_deleted", Value: 2},
		{Key: "text_cutoff", Value: "2024-06-01"},
	})
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "text_cutoff:") || !strings.HasSuffix(lines[1], "2024-06-01") {
		t.Errorf("unexpected line %q", lines[1])
	}
	if strings.Index(lines[0], "2") != strings.Index(lines[1], "2024") {
		t.Errorf("values are not aligned:\n%s", buf.String())
	}
}

func TestTextFormatter_Plain(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).FormatTo(&buf, "hello"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	data := map[string]any{"count": 3}

	var compact, indented bytes.Buffer
	if err := (&JSONFormatter{}).FormatTo(&compact, data); err != nil {
		t.Fatal(err)
	}
	if err := (&JSONFormatter{Indent: true}).FormatTo(&indented, data); err != nil {
		t.Fatal(err)
	}

	if compact.String() != "{\"count\":3}\n" {
		t.Errorf("compact = %q", compact.String())
	}
	if !strings.Contains(indented.String(), "\n  \"count\": 3") {
		t.Errorf("indented = %q", indented.String())
	}

	var decoded map[string]int
	if err := json.Unmarshal(indented.Bytes(), &decoded); err != nil || decoded["count"] != 3 {
		t.Errorf("indented output does not round-trip: %v", err)
	}
}

func TestCSVFormatter(t *testing.T) {
	records := []*newsletter.Record{
		{ID: "a", PublishDate: "2025-06-02", Title: "Two", Status: newsletter.StatusComplete},
		{ID: "b", PublishDate: "2025-06-01", Title: "One", Status: newsletter.StatusFailed},
	}

	var buf bytes.Buffer
	if err := NewFormatter(FormatCSV).FormatTo(&buf, records); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,publish_date,status") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "a,2025-06-02,complete") {
		t.Errorf("row = %q", lines[1])
	}

	if err := NewFormatter(FormatCSV).FormatTo(&buf, Fields{}); err == nil {
		t.Error("expected error for non-record data")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got := typeName(NewFormatter(tt.format))
			if got != tt.want {
				t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, valid := range []string{"text", "json", "csv", ""} {
		if _, err := ParseOutputFormat(valid); err != nil {
			t.Errorf("ParseOutputFormat(%q) error = %v", valid, err)
		}
	}
	if _, err := ParseOutputFormat("junit"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextFormatter:
		return "*cli.TextFormatter"
	case *JSONFormatter:
		return "*cli.JSONFormatter"
	case *CSVFormatter:
		return "*cli.CSVFormatter"
	}
	return "unknown"
}
