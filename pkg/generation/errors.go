package generation

import (
	"errors"
	"fmt"

	"mercator-hq/courier/pkg/newsletter"
)

// ErrAlreadyRunning is returned by Start when concurrent runs are rejected
// and a run for the same date is in flight.
var ErrAlreadyRunning = errors.New("generation already running for date")

// ErrInvalidContent is returned when the content generator produces a
// document with missing required fields.
var ErrInvalidContent = newsletter.ErrInvalidContent

// Stage names the pipeline step that failed.
type Stage string

const (
	StageContent   Stage = "content"
	StageNarration Stage = "narration"
	StageArtifact  Stage = "artifact"
	StagePersist   Stage = "persist"
)

// GenerationError reports a failed run.
type GenerationError struct {
	Date  string
	Stage Stage
	Cause error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation for %s failed at %s: %v", e.Date, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// failureMessage is the text stored in the record's error message.
func (e *GenerationError) failureMessage() string {
	switch e.Stage {
	case StageContent:
		return "content generation failed: " + e.Cause.Error()
	case StageNarration:
		return "narration failed: " + e.Cause.Error()
	case StageArtifact:
		return "writing audio failed: " + e.Cause.Error()
	default:
		return "saving newsletter failed: " + e.Cause.Error()
	}
}
