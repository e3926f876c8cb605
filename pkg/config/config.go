package config

import "time"

// Config is the root configuration structure for courier.
type Config struct {
	// Server contains HTTP API server configuration.
	Server ServerConfig `yaml:"server"`

	// Storage selects and configures the newsletter record store.
	Storage StorageConfig `yaml:"storage"`

	// Artifacts configures the audio artifact directory and optional mirror.
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Generation configures the generation orchestrator.
	Generation GenerationConfig `yaml:"generation"`

	// Providers configures the content and narration collaborators.
	Providers ProvidersConfig `yaml:"providers"`

	// Retention configures the cleanup policy and its schedule.
	Retention RetentionConfig `yaml:"retention"`

	// Security contains the shared admin secret.
	Security SecurityConfig `yaml:"security"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// in-flight generation tasks.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds each HTTP handler. Generation runs detached and
	// is not subject to it.
	// Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains Cross-Origin Resource Sharing configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite record store.
type SQLiteConfig struct {
	// Path is the database file path, or ":memory:".
	// Default: "data/courier.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      *bool         `yaml:"wal_mode"` // default true
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// WAL reports whether write-ahead logging is enabled.
func (s SQLiteConfig) WAL() bool {
	return s.WALMode == nil || *s.WALMode
}

// ArtifactsConfig configures the audio artifact store.
type ArtifactsConfig struct {
	// Dir is the flat directory holding narration files.
	// Default: "data/audio"
	Dir string `yaml:"dir"`

	// Prefix and Extension form file names <prefix>-<date>.<extension>.
	// Defaults: "newsletter", "wav"
	Prefix    string `yaml:"prefix"`
	Extension string `yaml:"extension"`

	// PublicBase is the URL path the files are served under.
	// Default: "/audio"
	PublicBase string `yaml:"public_base"`

	// Mirror optionally copies every written file to an object store.
	Mirror MirrorConfig `yaml:"mirror"`
}

// MirrorConfig selects an optional artifact mirror.
type MirrorConfig struct {
	// Backend is "", "nats" or "s3". Empty disables mirroring.
	Backend string `yaml:"backend"`

	NATS NATSMirrorConfig `yaml:"nats"`
	S3   S3MirrorConfig   `yaml:"s3"`
}

// NATSMirrorConfig configures the JetStream object store mirror.
type NATSMirrorConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
}

// S3MirrorConfig configures the S3 mirror.
type S3MirrorConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// GenerationConfig configures the generation orchestrator.
type GenerationConfig struct {
	// RejectConcurrent makes a second generation request for a date that
	// already has a live task fail with 409 instead of starting another run.
	// Default: false
	RejectConcurrent bool `yaml:"reject_concurrent"`

	// Timeout bounds one generation run. Zero means no bound.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`
}

// ProvidersConfig holds the collaborator configurations.
type ProvidersConfig struct {
	Content   ContentProviderConfig   `yaml:"content"`
	Narration NarrationProviderConfig `yaml:"narration"`
}

// ContentProviderConfig configures the LLM content generator.
type ContentProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopK        int     `yaml:"top_k"`
	TopP        float64 `yaml:"top_p"`

	// SystemPrompt overrides the built-in editor instructions.
	SystemPrompt string `yaml:"system_prompt"`
}

// NarrationProviderConfig configures the TTS service client.
type NarrationProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	SpeakerRefPath string        `yaml:"speaker_ref_path"`
	Language       string        `yaml:"language"`
	Temperature    float64       `yaml:"temperature"`
}

// RetentionConfig configures the retention policy engine and scheduler.
type RetentionConfig struct {
	// AudioDays is the audio retention window in days.
	// Default: 14
	AudioDays int `yaml:"audio_days"`

	// TextDays is the record retention window in days.
	// Default: 365
	TextDays int `yaml:"text_days"`

	// Schedule is the cron expression for automatic cleanup, evaluated in UTC.
	// Default: "0 2 * * *"
	Schedule string `yaml:"schedule"`

	// SchedulerEnabled starts the scheduler with the server.
	// Default: true
	SchedulerEnabled *bool `yaml:"scheduler_enabled"`

	// ArchiveBeforeDelete exports expiring records before deleting them.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for archive files.
	// Default: "data/archives"
	ArchivePath string `yaml:"archive_path"`

	// ArchiveCompress gzips archive files (.json.gz).
	// Default: false
	ArchiveCompress bool `yaml:"archive_compress"`
}

// SchedulerOn reports whether the cleanup scheduler should run.
func (r RetentionConfig) SchedulerOn() bool {
	return r.SchedulerEnabled == nil || *r.SchedulerEnabled
}

// SecurityConfig contains the shared admin secret.
type SecurityConfig struct {
	// AdminSecret guards the mutating endpoints. It must be set.
	AdminSecret string `yaml:"admin_secret"`

	// AdminHeader is the request header carrying the secret.
	// Default: "X-Admin-Secret"
	AdminHeader string `yaml:"admin_header"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks secret-looking attribute values.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the exposition path.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// On reports whether metrics are enabled.
func (m MetricsConfig) On() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Sampler     string  `yaml:"sampler"`
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS on the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	Timeout time.Duration `yaml:"timeout"`
}
