package providers

import "time"

// Config contains configuration for one external service client.
type Config struct {
	// Name is the provider identifier used in logs and errors.
	Name string

	// BaseURL is the service endpoint base URL.
	BaseURL string

	// APIKey is the authentication key, when the service needs one.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts after the first.
	MaxRetries int

	// RetryBackoff is the delay before the first retry; later retries double it.
	// Default: 1s
	RetryBackoff time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// Health is a snapshot of a client's recent request outcomes.
type Health struct {
	IsHealthy             bool
	LastCheck             time.Time
	LastError             error
	ConsecutiveFailures   int
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// Narration is the audio produced for one newsletter.
type Narration struct {
	// Audio is the encoded audio payload.
	Audio []byte

	// ContentType is the MIME type reported by the service.
	ContentType string

	// DurationSeconds is the playback length, rounded to the nearest second.
	DurationSeconds int
}
