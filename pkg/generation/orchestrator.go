package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/courier/pkg/artifact"
	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/providers"
	"mercator-hq/courier/pkg/telemetry/logging"
	"mercator-hq/courier/pkg/telemetry/metrics"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// failureWriteTimeout bounds the final status write after a failed run. It
// runs on a fresh context because the run's own context may be the reason
// for the failure.
const failureWriteTimeout = 30 * time.Second

// ContentGenerator produces the newsletter document for a date.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, date string) (*newsletter.Content, error)
}

// Narrator renders text as audio.
type Narrator interface {
	Narrate(ctx context.Context, text string) (*providers.Narration, error)
}

// ArtifactWriter stores audio for a date. *artifact.Store implements it.
type ArtifactWriter interface {
	Write(ctx context.Context, date string, data []byte) (artifact.Descriptor, error)
	PublicURL(date string) string
}

// Config controls run behavior.
type Config struct {
	// RejectConcurrent makes Start and Generate return ErrAlreadyRunning
	// while a run for the same date is in flight. Off by default: a second
	// run proceeds and the last write wins.
	RejectConcurrent bool

	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// Deps are the orchestrator's collaborators. Mirror and Metrics are
// optional.
type Deps struct {
	Store     newsletter.Store
	Artifacts ArtifactWriter
	Content   ContentGenerator
	Narrator  Narrator
	Mirror    artifact.Mirror
	Metrics   *metrics.Collector
}

// Orchestrator runs the generation pipeline.
type Orchestrator struct {
	store     newsletter.Store
	artifacts ArtifactWriter
	content   ContentGenerator
	narrator  Narrator
	mirror    artifact.Mirror
	metrics   *metrics.Collector

	config   Config
	registry *Registry
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("generation: record store is required")
	case deps.Artifacts == nil:
		return nil, errors.New("generation: artifact store is required")
	case deps.Content == nil:
		return nil, errors.New("generation: content generator is required")
	case deps.Narrator == nil:
		return nil, errors.New("generation: narrator is required")
	}

	return &Orchestrator{
		store:     deps.Store,
		artifacts: deps.Artifacts,
		content:   deps.Content,
		narrator:  deps.Narrator,
		mirror:    deps.Mirror,
		metrics:   deps.Metrics,
		config:    cfg,
		registry:  NewRegistry(),
		logger:    slog.Default().With("component", "generation"),
	}, nil
}

// Registry returns the in-flight run registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Running reports whether a run for date is in flight.
func (o *Orchestrator) Running(date string) bool {
	return o.registry.Running(date)
}

// Active returns all in-flight runs.
func (o *Orchestrator) Active() []Task {
	return o.registry.Active()
}

// Wait blocks until all detached runs finish or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	return o.registry.Wait(ctx)
}

// Generate runs the whole pipeline for date and returns the complete record.
// On failure the record is left failed and the error is returned.
func (o *Orchestrator) Generate(ctx context.Context, date string) (*newsletter.Record, error) {
	task, err := o.accept(ctx, date)
	if err != nil {
		return nil, err
	}
	defer o.registry.finish(task)

	return o.run(ctx, task)
}

// Start marks date generating and runs the rest of the pipeline in the
// background, detached from ctx. It returns once the generating status is
// stored. Errors from the background run are logged, not returned.
func (o *Orchestrator) Start(ctx context.Context, date string) (Task, error) {
	task, err := o.accept(ctx, date)
	if err != nil {
		return Task{}, err
	}

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer o.registry.finish(task)
		_, _ = o.run(runCtx, task)
	}()

	return task, nil
}

// accept validates date, registers the run and stores the generating status.
func (o *Orchestrator) accept(ctx context.Context, date string) (Task, error) {
	if err := newsletter.ValidateDate(date); err != nil {
		return Task{}, err
	}

	task, ok := o.registry.begin(date, o.config.RejectConcurrent)
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, date)
	}

	if _, err := o.store.UpdateStatus(ctx, date, newsletter.StatusGenerating, nil); err != nil {
		o.registry.finish(task)
		return Task{}, fmt.Errorf("failed to mark %s generating: %w", date, err)
	}

	o.logger.InfoContext(ctx, "generation accepted", "date", date, "task_id", task.ID)
	return task, nil
}

func (o *Orchestrator) run(ctx context.Context, task Task) (record *newsletter.Record, err error) {
	date := task.Date
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	ctx = logging.WithPublishDate(ctx, date)
	ctx, span := tracing.Start(ctx, "generation.run")
	span.SetAttributes(tracing.PublishDate(date))
	defer func() { tracing.End(span, err) }()

	o.metrics.GenerationStarted()
	start := time.Now()

	record, err = o.pipeline(ctx, date)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			o.markFailed(ctx, genErr)
		}
		o.metrics.GenerationFinished(string(newsletter.StatusFailed), time.Since(start))
		o.logger.ErrorContext(ctx, "generation failed",
			"task_id", task.ID,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	o.metrics.GenerationFinished(string(newsletter.StatusComplete), time.Since(start))
	o.logger.InfoContext(ctx, "generation complete",
		"task_id", task.ID,
		"id", record.ID,
		"audio_url", *record.AudioURL,
		"audio_duration_seconds", *record.AudioDurationSeconds,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

func (o *Orchestrator) pipeline(ctx context.Context, date string) (*newsletter.Record, error) {
	var content *newsletter.Content
	err := o.stage(ctx, StageContent, func(ctx context.Context) error {
		var err error
		content, err = o.content.GenerateContent(ctx, date)
		if err == nil && content == nil {
			err = fmt.Errorf("%w: no content returned", ErrInvalidContent)
		}
		if err == nil {
			err = content.Validate()
		}
		return err
	})
	if err != nil {
		return nil, &GenerationError{Date: date, Stage: StageContent, Cause: err}
	}

	var narration *providers.Narration
	err = o.stage(ctx, StageNarration, func(ctx context.Context) error {
		var err error
		narration, err = o.narrator.Narrate(ctx, content.NarrationText())
		if err == nil && (narration == nil || len(narration.Audio) == 0) {
			err = errors.New("narrator returned no audio")
		}
		return err
	})
	if err != nil {
		return nil, &GenerationError{Date: date, Stage: StageNarration, Cause: err}
	}

	err = o.stage(ctx, StageArtifact, func(ctx context.Context) error {
		desc, err := o.artifacts.Write(ctx, date, narration.Audio)
		if err != nil {
			return err
		}
		o.mirrorPut(ctx, desc.FileName, narration.Audio)
		return nil
	})
	if err != nil {
		return nil, &GenerationError{Date: date, Stage: StageArtifact, Cause: err}
	}

	record := content.Record(date)
	audioURL := o.artifacts.PublicURL(date)
	duration := narration.DurationSeconds
	record.AudioURL = &audioURL
	record.AudioDurationSeconds = &duration

	var saved *newsletter.Record
	err = o.stage(ctx, StagePersist, func(ctx context.Context) error {
		var err error
		saved, err = o.store.Upsert(ctx, record)
		return err
	})
	if err != nil {
		return nil, &GenerationError{Date: date, Stage: StagePersist, Cause: err}
	}
	return saved, nil
}

func (o *Orchestrator) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, span := tracing.Start(ctx, "generation."+string(stage))
	span.SetAttributes(tracing.Stage(string(stage)))
	err := fn(ctx)
	tracing.End(span, err)

	if err != nil && (stage == StageContent || stage == StageNarration) {
		errorType := providers.ErrorType(err)
		if errors.Is(err, ErrInvalidContent) {
			errorType = "invalid_content"
		}
		o.metrics.RecordProviderError(string(stage), errorType)
	}
	return err
}

func (o *Orchestrator) mirrorPut(ctx context.Context, name string, data []byte) {
	if o.mirror == nil {
		return
	}
	if err := o.mirror.Put(ctx, name, data); err != nil {
		o.metrics.RecordMirrorError("put")
		o.logger.WarnContext(ctx, "mirror upload failed",
			"mirror", o.mirror.Name(),
			"file", name,
			"error", err,
		)
	}
}

func (o *Orchestrator) markFailed(ctx context.Context, genErr *GenerationError) {
	msg := genErr.failureMessage()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	if _, err := o.store.UpdateStatus(writeCtx, genErr.Date, newsletter.StatusFailed, &msg); err != nil {
		o.logger.ErrorContext(ctx, "failed to record generation failure",
			"stage", genErr.Stage,
			"error", err,
		)
	}
}
