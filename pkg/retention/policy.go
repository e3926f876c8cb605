package retention

import (
	"time"

	"mercator-hq/courier/pkg/newsletter"
)

// Default retention windows.
const (
	DefaultAudioDays = 14
	DefaultTextDays  = 365
)

// Policy holds the retention windows in days.
type Policy struct {
	AudioDays int `json:"audio_days"`
	TextDays  int `json:"text_days"`
}

// DefaultPolicy returns the 14/365 day policy.
func DefaultPolicy() Policy {
	return Policy{AudioDays: DefaultAudioDays, TextDays: DefaultTextDays}
}

// AudioCutoff returns the instant before which audio files are stale.
func (p Policy) AudioCutoff(now time.Time) time.Time {
	return now.UTC().Add(-time.Duration(p.AudioDays) * 24 * time.Hour)
}

// TextCutoff returns the publish date before which records are stale.
func (p Policy) TextCutoff(now time.Time) string {
	return newsletter.FormatDate(now.UTC().AddDate(0, 0, -p.TextDays))
}
