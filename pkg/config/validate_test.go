package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Security.AdminSecret = "secret"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config with secret should validate, got %v", err)
	}
}

func TestValidate_EmptySecretAllowed(t *testing.T) {
	cfg := Default()
	cfg.Security.AdminSecret = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("CLI commands run without an admin secret, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "no-port" }, "server.listen_address"},
		{"negative request timeout", func(c *Config) { c.Server.RequestTimeout = -1 }, "server.request_timeout"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"unknown driver", func(c *Config) { c.Storage.SQLite.Driver = "pg" }, "storage.sqlite.driver"},
		{"prefix with slash", func(c *Config) { c.Artifacts.Prefix = "a/b" }, "artifacts.prefix"},
		{"extension with dot", func(c *Config) { c.Artifacts.Extension = ".wav" }, "artifacts.extension"},
		{"relative public base", func(c *Config) { c.Artifacts.PublicBase = "audio" }, "artifacts.public_base"},
		{"nats without url", func(c *Config) { c.Artifacts.Mirror.Backend = "nats" }, "artifacts.mirror.nats.url"},
		{"s3 without bucket", func(c *Config) { c.Artifacts.Mirror.Backend = "s3" }, "artifacts.mirror.s3.bucket"},
		{"unknown mirror", func(c *Config) { c.Artifacts.Mirror.Backend = "gcs" }, "artifacts.mirror.backend"},
		{"negative generation timeout", func(c *Config) { c.Generation.Timeout = -1 }, "generation.timeout"},
		{"temperature above one", func(c *Config) { c.Providers.Content.Temperature = 1.5 }, "providers.content.temperature"},
		{"bad narration url", func(c *Config) { c.Providers.Narration.BaseURL = "::" }, "providers.narration.base_url"},
		{"audio days zero", func(c *Config) { c.Retention.AudioDays = 0 }, "retention.audio_days"},
		{"text days negative", func(c *Config) { c.Retention.TextDays = -3 }, "retention.text_days"},
		{"bad schedule", func(c *Config) { c.Retention.Schedule = "every night" }, "retention.schedule"},
		{"archive without path", func(c *Config) {
			c.Retention.ArchiveBeforeDelete = true
			c.Retention.ArchivePath = ""
		}, "retention.archive_path"},
		{"empty admin header", func(c *Config) { c.Security.AdminHeader = "" }, "security.admin_header"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"bad sampler", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Sampler = "sometimes"
		}, "telemetry.tracing.sampler"},
		{"bad ratio", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Sampler = "ratio"
			c.Telemetry.Tracing.SampleRatio = 2
		}, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range ve.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.field, ve.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("single error = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "b: worse") {
		t.Errorf("multi error = %q", got)
	}
}

func TestValidate_MemoryBackendSkipsSQLite(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "memory"
	cfg.Storage.SQLite.Driver = "whatever"
	if err := Validate(cfg); err != nil {
		t.Errorf("memory backend should ignore sqlite settings, got %v", err)
	}
}
