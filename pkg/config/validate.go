package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateArtifacts(&cfg.Artifacts)...)
	errs = append(errs, validateGeneration(&cfg.Generation)...)
	errs = append(errs, validateProviders(&cfg.Providers)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must not be empty"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address format (expected host:port): %v", err),
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must not be negative"})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.request_timeout", Message: "must not be negative"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "must not be negative"})
	}
	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "storage.sqlite.path", Message: "must not be empty"})
		}
		switch cfg.SQLite.Driver {
		case "sqlite", "sqlite3":
		default:
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("must be 'sqlite' or 'sqlite3', got %q", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{Field: "storage.sqlite.max_open_conns", Message: "must not be negative"})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{Field: "storage.sqlite.max_idle_conns", Message: "must not be negative"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be 'sqlite' or 'memory', got %q", cfg.Backend),
		})
	}
	return errs
}

func validateArtifacts(cfg *ArtifactsConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" {
		errs = append(errs, FieldError{Field: "artifacts.dir", Message: "must not be empty"})
	}
	if strings.ContainsAny(cfg.Prefix, `/\`) || cfg.Prefix == "" {
		errs = append(errs, FieldError{Field: "artifacts.prefix", Message: "must be a non-empty file name fragment"})
	}
	if strings.ContainsAny(cfg.Extension, `/\.`) || cfg.Extension == "" {
		errs = append(errs, FieldError{Field: "artifacts.extension", Message: "must be a bare extension without a dot"})
	}
	if !strings.HasPrefix(cfg.PublicBase, "/") {
		if u, err := url.Parse(cfg.PublicBase); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{Field: "artifacts.public_base", Message: "must be an absolute path or URL"})
		}
	}

	switch cfg.Mirror.Backend {
	case "":
	case "nats":
		if cfg.Mirror.NATS.URL == "" {
			errs = append(errs, FieldError{Field: "artifacts.mirror.nats.url", Message: "required when mirror backend is nats"})
		}
	case "s3":
		if cfg.Mirror.S3.Bucket == "" {
			errs = append(errs, FieldError{Field: "artifacts.mirror.s3.bucket", Message: "required when mirror backend is s3"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "artifacts.mirror.backend",
			Message: fmt.Sprintf("must be empty, 'nats' or 's3', got %q", cfg.Mirror.Backend),
		})
	}
	return errs
}

func validateGeneration(cfg *GenerationConfig) []FieldError {
	if cfg.Timeout < 0 {
		return []FieldError{{Field: "generation.timeout", Message: "must not be negative"}}
	}
	return nil
}

func validateProviders(cfg *ProvidersConfig) []FieldError {
	var errs []FieldError

	if cfg.Content.MaxTokens <= 0 {
		errs = append(errs, FieldError{Field: "providers.content.max_tokens", Message: "must be positive"})
	}
	if cfg.Content.Temperature < 0 || cfg.Content.Temperature > 1 {
		errs = append(errs, FieldError{Field: "providers.content.temperature", Message: "must be between 0 and 1"})
	}
	if cfg.Content.TopP < 0 || cfg.Content.TopP > 1 {
		errs = append(errs, FieldError{Field: "providers.content.top_p", Message: "must be between 0 and 1"})
	}

	if u, err := url.Parse(cfg.Narration.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{Field: "providers.narration.base_url", Message: "must be a valid URL"})
	}
	if cfg.Narration.Timeout < 0 {
		errs = append(errs, FieldError{Field: "providers.narration.timeout", Message: "must not be negative"})
	}
	if cfg.Narration.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "providers.narration.max_retries", Message: "must not be negative"})
	}
	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.AudioDays < 1 {
		errs = append(errs, FieldError{Field: "retention.audio_days", Message: "must be at least 1"})
	}
	if cfg.TextDays < 1 {
		errs = append(errs, FieldError{Field: "retention.text_days", Message: "must be at least 1"})
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{Field: "retention.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
	}
	if cfg.ArchiveBeforeDelete && cfg.ArchivePath == "" {
		errs = append(errs, FieldError{Field: "retention.archive_path", Message: "required when archive_before_delete is set"})
	}
	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	// An empty secret is valid here: only serve needs it, and serve checks.
	if cfg.AdminHeader == "" {
		errs = append(errs, FieldError{Field: "security.admin_header", Message: "must not be empty"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", cfg.Logging.Format),
		})
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("must be always, never or ratio, got %q", cfg.Tracing.Sampler),
			})
		}
	}
	return errs
}
