package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path skips the file and starts
// from defaults, so a deployment can be configured from the environment only.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies COURIER_SECTION_FIELD environment overrides.
// Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server
	envString("COURIER_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("COURIER_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("COURIER_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("COURIER_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("COURIER_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	// Storage
	envString("COURIER_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("COURIER_STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envString("COURIER_STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)

	// Artifacts
	envString("COURIER_ARTIFACTS_DIR", &cfg.Artifacts.Dir)
	envString("COURIER_ARTIFACTS_PUBLIC_BASE", &cfg.Artifacts.PublicBase)
	envString("COURIER_ARTIFACTS_MIRROR_BACKEND", &cfg.Artifacts.Mirror.Backend)
	envString("COURIER_ARTIFACTS_MIRROR_NATS_URL", &cfg.Artifacts.Mirror.NATS.URL)
	envString("COURIER_ARTIFACTS_MIRROR_NATS_BUCKET", &cfg.Artifacts.Mirror.NATS.Bucket)
	envString("COURIER_ARTIFACTS_MIRROR_S3_BUCKET", &cfg.Artifacts.Mirror.S3.Bucket)
	envString("COURIER_ARTIFACTS_MIRROR_S3_PREFIX", &cfg.Artifacts.Mirror.S3.Prefix)
	envString("COURIER_ARTIFACTS_MIRROR_S3_REGION", &cfg.Artifacts.Mirror.S3.Region)
	envString("COURIER_ARTIFACTS_MIRROR_S3_ENDPOINT", &cfg.Artifacts.Mirror.S3.Endpoint)
	envString("COURIER_ARTIFACTS_MIRROR_S3_ACCESS_KEY_ID", &cfg.Artifacts.Mirror.S3.AccessKeyID)
	envString("COURIER_ARTIFACTS_MIRROR_S3_SECRET_ACCESS_KEY", &cfg.Artifacts.Mirror.S3.SecretAccessKey)

	// Generation
	envBool("COURIER_GENERATION_REJECT_CONCURRENT", &cfg.Generation.RejectConcurrent)
	envDuration("COURIER_GENERATION_TIMEOUT", &cfg.Generation.Timeout)

	// Providers
	envString("COURIER_PROVIDERS_CONTENT_API_KEY", &cfg.Providers.Content.APIKey)
	envString("COURIER_PROVIDERS_CONTENT_MODEL", &cfg.Providers.Content.Model)
	envInt("COURIER_PROVIDERS_CONTENT_MAX_TOKENS", &cfg.Providers.Content.MaxTokens)
	envString("COURIER_PROVIDERS_NARRATION_BASE_URL", &cfg.Providers.Narration.BaseURL)
	envString("COURIER_PROVIDERS_NARRATION_API_KEY", &cfg.Providers.Narration.APIKey)
	envDuration("COURIER_PROVIDERS_NARRATION_TIMEOUT", &cfg.Providers.Narration.Timeout)
	envString("COURIER_PROVIDERS_NARRATION_SPEAKER_REF_PATH", &cfg.Providers.Narration.SpeakerRefPath)

	// Retention
	envInt("COURIER_RETENTION_AUDIO_DAYS", &cfg.Retention.AudioDays)
	envInt("COURIER_RETENTION_TEXT_DAYS", &cfg.Retention.TextDays)
	envBool("COURIER_RETENTION_ARCHIVE_BEFORE_DELETE", &cfg.Retention.ArchiveBeforeDelete)
	envString("COURIER_RETENTION_ARCHIVE_PATH", &cfg.Retention.ArchivePath)
	envBool("COURIER_RETENTION_ARCHIVE_COMPRESS", &cfg.Retention.ArchiveCompress)
	if val := os.Getenv("COURIER_RETENTION_SCHEDULER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Retention.SchedulerEnabled = &b
		}
	}

	// Security
	envString("COURIER_SECURITY_ADMIN_SECRET", &cfg.Security.AdminSecret)
	envString("COURIER_SECURITY_ADMIN_HEADER", &cfg.Security.AdminHeader)

	// Telemetry
	envString("COURIER_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("COURIER_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	if val := os.Getenv("COURIER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	envBool("COURIER_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("COURIER_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv("COURIER_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
