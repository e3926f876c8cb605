package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultCORSMaxAge      = 3600

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultSQLitePath         = "data/courier.db"
	DefaultSQLiteDriver       = "sqlite"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Artifact defaults
	DefaultArtifactDir        = "data/audio"
	DefaultArtifactPrefix     = "newsletter"
	DefaultArtifactExtension  = "wav"
	DefaultArtifactPublicBase = "/audio"
	DefaultNATSBucket         = "courier-audio"

	// Provider defaults
	DefaultContentModel       = "claude-sonnet-4-20250514"
	DefaultContentMaxTokens   = 4096
	DefaultContentTemperature = 0.7
	DefaultNarrationBaseURL   = "http://127.0.0.1:8000"
	DefaultNarrationTimeout   = 5 * time.Minute
	DefaultNarrationRetries   = 2
	DefaultNarrationLanguage  = "en"

	// Retention defaults
	DefaultAudioRetentionDays = 14
	DefaultTextRetentionDays  = 365
	DefaultRetentionSchedule  = "0 2 * * *"
	DefaultArchivePath        = "data/archives"

	// Security defaults
	DefaultAdminHeader = "X-Admin-Secret"

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingServiceName = "courier"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
)

// ApplyDefaults fills every unset field of cfg with its default value.
// Fields that are already set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	sq := &cfg.Storage.SQLite
	if sq.Path == "" {
		sq.Path = DefaultSQLitePath
	}
	if sq.WALMode == nil {
		sq.WALMode = boolPtr(true)
	}
	if sq.Driver == "" {
		sq.Driver = DefaultSQLiteDriver
	}
	if sq.MaxOpenConns == 0 {
		sq.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if sq.MaxIdleConns == 0 {
		sq.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if sq.BusyTimeout == 0 {
		sq.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Artifacts
	a := &cfg.Artifacts
	if a.Dir == "" {
		a.Dir = DefaultArtifactDir
	}
	if a.Prefix == "" {
		a.Prefix = DefaultArtifactPrefix
	}
	if a.Extension == "" {
		a.Extension = DefaultArtifactExtension
	}
	if a.PublicBase == "" {
		a.PublicBase = DefaultArtifactPublicBase
	}
	if a.Mirror.Backend == "nats" && a.Mirror.NATS.Bucket == "" {
		a.Mirror.NATS.Bucket = DefaultNATSBucket
	}

	// Providers
	c := &cfg.Providers.Content
	if c.Model == "" {
		c.Model = DefaultContentModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultContentMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultContentTemperature
	}
	n := &cfg.Providers.Narration
	if n.BaseURL == "" {
		n.BaseURL = DefaultNarrationBaseURL
	}
	if n.Timeout == 0 {
		n.Timeout = DefaultNarrationTimeout
	}
	if n.MaxRetries == 0 {
		n.MaxRetries = DefaultNarrationRetries
	}
	if n.Language == "" {
		n.Language = DefaultNarrationLanguage
	}

	// Retention
	r := &cfg.Retention
	if r.AudioDays == 0 {
		r.AudioDays = DefaultAudioRetentionDays
	}
	if r.TextDays == 0 {
		r.TextDays = DefaultTextRetentionDays
	}
	if r.Schedule == "" {
		r.Schedule = DefaultRetentionSchedule
	}
	if r.SchedulerEnabled == nil {
		r.SchedulerEnabled = boolPtr(true)
	}
	if r.ArchivePath == "" {
		r.ArchivePath = DefaultArchivePath
	}

	// Security
	if cfg.Security.AdminHeader == "" {
		cfg.Security.AdminHeader = DefaultAdminHeader
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if len(s.CORS.AllowedOrigins) == 0 {
		s.CORS.AllowedOrigins = []string{"*"}
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = []string{"Content-Type", DefaultAdminHeader}
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Logging.RedactSecrets == nil {
		t.Logging.RedactSecrets = boolPtr(true)
	}

	if t.Metrics.Enabled == nil {
		t.Metrics.Enabled = boolPtr(true)
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}

	tr := &t.Tracing
	if tr.ServiceName == "" {
		tr.ServiceName = DefaultTracingServiceName
	}
	if tr.Endpoint == "" {
		tr.Endpoint = DefaultTracingEndpoint
	}
	if tr.Sampler == "" {
		tr.Sampler = DefaultTracingSampler
	}
	if tr.SampleRatio == 0 {
		tr.SampleRatio = DefaultTracingSampleRatio
	}
	if tr.Timeout == 0 {
		tr.Timeout = DefaultTracingTimeout
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func boolPtr(b bool) *bool {
	return &b
}
