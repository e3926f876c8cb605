package newsletter

import (
	"context"
	"time"
)

// Status is the generation state of a record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// Section is one headed block of newsletter body text.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Source is an attributed reference returned alongside generated content.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Record is the persisted newsletter for one publish date.
type Record struct {
	// Identity
	ID          string `json:"id"`           // UUID v4, assigned on first insert
	PublishDate string `json:"publish_date"` // YYYY-MM-DD, unique key

	// Content
	Title      string    `json:"title"`
	Hook       string    `json:"hook"`
	Sections   []Section `json:"sections"`
	Conclusion string    `json:"conclusion"`
	Sources    []Source  `json:"sources"`

	// Narration
	AudioURL             *string `json:"audio_url"`
	AudioDurationSeconds *int    `json:"audio_duration_seconds"`

	// Outcome
	Status       Status  `json:"status"`
	ErrorMessage *string `json:"error_message"`

	// Timestamps (server-assigned, UTC)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Sections = append([]Section{}, r.Sections...)
	c.Sources = append([]Source{}, r.Sources...)
	if r.AudioURL != nil {
		v := *r.AudioURL
		c.AudioURL = &v
	}
	if r.AudioDurationSeconds != nil {
		v := *r.AudioDurationSeconds
		c.AudioDurationSeconds = &v
	}
	if r.ErrorMessage != nil {
		v := *r.ErrorMessage
		c.ErrorMessage = &v
	}
	return &c
}

// Store defines the interface for newsletter record backends.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Upsert inserts the record for its publish date, or overwrites every
	// content field of the existing row for that date. ID and CreatedAt of an
	// existing row are preserved; UpdatedAt always advances. Returns the row
	// as stored.
	Upsert(ctx context.Context, record *Record) (*Record, error)

	// UpdateStatus changes only the status and error message of the row for
	// date, creating a placeholder row if none exists.
	UpdateStatus(ctx context.Context, date string, status Status, errorMessage *string) (*Record, error)

	// GetByDate returns the row for date or ErrNotFound.
	GetByDate(ctx context.Context, date string) (*Record, error)

	// GetLatestComplete returns the most recently updated complete row or
	// ErrNotFound.
	GetLatestComplete(ctx context.Context) (*Record, error)

	// GetHistory returns up to limit complete rows, newest publish date first.
	GetHistory(ctx context.Context, limit int) ([]*Record, error)

	// GetAll returns every row, newest publish date first.
	GetAll(ctx context.Context) ([]*Record, error)

	// GetOlderThan returns rows whose publish date is strictly before cutoff,
	// oldest first.
	GetOlderThan(ctx context.Context, cutoff string) ([]*Record, error)

	// DeleteOlderThan removes rows whose publish date is strictly before
	// cutoff and returns the number removed. It uses the same predicate as
	// GetOlderThan.
	DeleteOlderThan(ctx context.Context, cutoff string) (int64, error)

	// DeleteByDate removes the row for date or returns ErrNotFound.
	DeleteByDate(ctx context.Context, date string) error

	// DeleteByID removes the row with the given identifier or returns
	// ErrNotFound.
	DeleteByID(ctx context.Context, id string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}
