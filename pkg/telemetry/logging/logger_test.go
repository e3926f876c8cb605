package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"text warn", Config{Level: "WARN", Format: "text"}, false},
		{"bad level", Config{Level: "verbose"}, true},
		{"bad format", Config{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Writer = &bytes.Buffer{}
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "error", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	child := logger.With("component", "test")

	child.Info("before")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	child.Debug("after")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "after" {
		t.Fatalf("derived logger did not follow level change: %v", lines)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v", logger.Level())
	}
	if err := logger.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithPublishDate(ctx, "2025-06-01")
	logger.With("component", "generation").InfoContext(ctx, "started")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	line := lines[0]
	if line["request_id"] != "req-1" || line["publish_date"] != "2025-06-01" || line["component"] != "generation" {
		t.Errorf("missing context fields: %v", line)
	}
	if _, ok := line["trace_id"]; ok {
		t.Error("trace_id should be absent without a span")
	}
}

func TestLogger_RedactSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{RedactSecrets: true, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("calling provider",
		"api_key", "sk-ant-abcdef123456",
		"admin_secret", "hunter2",
		"detail", "header was Bearer abc.def",
		"date", "2025-06-01",
	)

	line := decodeLines(t, &buf)[0]
	if line["api_key"] != "sk-a***" {
		t.Errorf("api_key = %v", line["api_key"])
	}
	if line["admin_secret"] != "***" {
		t.Errorf("admin_secret = %v", line["admin_secret"])
	}
	if line["detail"] != "header was Bearer ***" {
		t.Errorf("detail = %v", line["detail"])
	}
	if line["date"] != "2025-06-01" {
		t.Errorf("benign value altered: %v", line["date"])
	}
}

func TestLogger_Install(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Install()

	slog.Default().With("component", "x").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "component=x") {
		t.Errorf("default logger output = %q", buf.String())
	}
}

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"nothing here", "nothing here"},
		{"key sk-proj-1234567890", "key sk-***"},
		{"password=letmein&x=1", "password=***&x=1"},
	}
	for _, tt := range tests {
		if got := r.RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetPublishDate(ctx) != "" {
		t.Error("empty context should yield empty values")
	}
	ctx = WithRequestID(WithPublishDate(ctx, "2025-01-02"), "abc")
	if GetRequestID(ctx) != "abc" || GetPublishDate(ctx) != "2025-01-02" {
		t.Error("context helpers did not round-trip")
	}
}
