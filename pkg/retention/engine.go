package retention

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"mercator-hq/courier/pkg/artifact"
	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/newsletter/export"
	"mercator-hq/courier/pkg/telemetry/metrics"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// ArtifactStore is the part of the artifact store the engine needs.
// *artifact.Store implements it.
type ArtifactStore interface {
	List(ctx context.Context) ([]artifact.Descriptor, error)
	DeleteIfOlderThan(desc artifact.Descriptor, cutoff time.Time) (artifact.Outcome, error)
}

// Config configures the engine.
type Config struct {
	Policy Policy

	// ArchiveBeforeDelete exports stale records to ArchivePath as JSON
	// before they are deleted.
	ArchiveBeforeDelete bool
	ArchivePath         string

	// ArchiveCompress writes gzip archives.
	ArchiveCompress bool
}

// AudioStats summarizes the audio directory against the audio cutoff.
type AudioStats struct {
	TotalFiles    int   `json:"total_files"`
	TotalBytes    int64 `json:"total_bytes"`
	KeptFiles     int   `json:"kept_files"`
	KeptBytes     int64 `json:"kept_bytes"`
	ToDeleteFiles int   `json:"to_delete_files"`
	ToDeleteBytes int64 `json:"to_delete_bytes"`
}

// NewsletterStats summarizes records against the text cutoff.
type NewsletterStats struct {
	Total    int `json:"total"`
	ToDelete int `json:"to_delete"`
}

// Stats is a read-only retention snapshot.
type Stats struct {
	Policy      Policy          `json:"policy"`
	AudioCutoff time.Time       `json:"audio_cutoff"`
	TextCutoff  string          `json:"text_cutoff"`
	Audio       AudioStats      `json:"audio"`
	Newsletters NewsletterStats `json:"newsletters"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// Summary reports one cleanup run.
type Summary struct {
	AudioCutoff        time.Time `json:"audio_cutoff"`
	TextCutoff         string    `json:"text_cutoff"`
	AudioFilesDeleted  int       `json:"audio_files_deleted"`
	AudioFileErrors    int       `json:"audio_file_errors"`
	AudioFilesVanished int       `json:"audio_files_vanished"`
	AudioBytesFreed    int64     `json:"audio_bytes_freed"`
	NewslettersDeleted int64     `json:"newsletters_deleted"`
	DatabaseErrors     int       `json:"database_errors"`
	ArchiveFile        string    `json:"archive_file,omitempty"`
	Errors             []string  `json:"errors"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	DurationMs         int64     `json:"duration_ms"`
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMirror deletes the mirrored copy of every removed audio file.
func WithMirror(m artifact.Mirror) Option {
	return func(e *Engine) { e.mirror = m }
}

// WithMetrics records run counters and pending gauges.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine applies the retention policy.
type Engine struct {
	store     newsletter.Store
	artifacts ArtifactStore
	config    Config
	mirror    artifact.Mirror
	metrics   *metrics.Collector
	now       func() time.Time
	logger    *slog.Logger
}

// NewEngine creates an engine. Zero policy windows fall back to the
// defaults.
func NewEngine(store newsletter.Store, artifacts ArtifactStore, cfg Config, opts ...Option) *Engine {
	if cfg.Policy.AudioDays <= 0 {
		cfg.Policy.AudioDays = DefaultAudioDays
	}
	if cfg.Policy.TextDays <= 0 {
		cfg.Policy.TextDays = DefaultTextDays
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = "data/archives"
	}

	e := &Engine{
		store:     store,
		artifacts: artifacts,
		config:    cfg,
		now:       time.Now,
		logger:    slog.Default().With("component", "retention"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the active retention policy.
func (e *Engine) Policy() Policy {
	return e.config.Policy
}

// ComputeStats previews a cleanup without changing anything.
func (e *Engine) ComputeStats(ctx context.Context) (stats *Stats, err error) {
	ctx, span := tracing.Start(ctx, "retention.stats")
	defer func() { tracing.End(span, err) }()

	now := e.now().UTC()
	stats = &Stats{
		Policy:      e.config.Policy,
		AudioCutoff: e.config.Policy.AudioCutoff(now),
		TextCutoff:  e.config.Policy.TextCutoff(now),
		ComputedAt:  now,
	}

	descs, err := e.artifacts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio files: %w", err)
	}
	for _, d := range descs {
		stats.Audio.TotalFiles++
		stats.Audio.TotalBytes += d.SizeBytes
		if d.LastModified.Before(stats.AudioCutoff) {
			stats.Audio.ToDeleteFiles++
			stats.Audio.ToDeleteBytes += d.SizeBytes
		} else {
			stats.Audio.KeptFiles++
			stats.Audio.KeptBytes += d.SizeBytes
		}
	}

	all, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count newsletters: %w", err)
	}
	stale, err := e.store.GetOlderThan(ctx, stats.TextCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count stale newsletters: %w", err)
	}
	stats.Newsletters.Total = len(all)
	stats.Newsletters.ToDelete = len(stale)

	e.metrics.SetCleanupPending(metrics.KindAudio, stats.Audio.ToDeleteFiles)
	e.metrics.SetCleanupPending(metrics.KindNewsletter, stats.Newsletters.ToDelete)
	return stats, nil
}

// RunCleanup deletes stale audio files and records. Per-item failures are
// counted in the summary; an error is returned only when ctx is cancelled,
// together with the partial summary.
func (e *Engine) RunCleanup(ctx context.Context) (summary *Summary, err error) {
	ctx, span := tracing.Start(ctx, "retention.cleanup")
	defer func() { tracing.End(span, err) }()

	now := e.now().UTC()
	summary = &Summary{
		AudioCutoff: e.config.Policy.AudioCutoff(now),
		TextCutoff:  e.config.Policy.TextCutoff(now),
		Errors:      []string{},
		StartedAt:   now,
	}
	defer e.finish(summary)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	e.logger.InfoContext(ctx, "cleanup started",
		"audio_cutoff", summary.AudioCutoff,
		"text_cutoff", summary.TextCutoff,
	)

	if err := e.cleanAudio(ctx, summary); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	e.cleanText(ctx, summary)

	return summary, nil
}

func (e *Engine) cleanAudio(ctx context.Context, summary *Summary) error {
	descs, err := e.artifacts.List(ctx)
	if err != nil {
		summary.AudioFileErrors++
		summary.Errors = append(summary.Errors, fmt.Sprintf("list audio files: %v", err))
		e.logger.ErrorContext(ctx, "failed to list audio files", "error", err)
		return nil
	}

	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := e.artifacts.DeleteIfOlderThan(d, summary.AudioCutoff)
		if err != nil {
			summary.AudioFileErrors++
			summary.Errors = append(summary.Errors, fmt.Sprintf("delete %s: %v", d.FileName, err))
			e.logger.WarnContext(ctx, "failed to delete audio file", "file", d.FileName, "error", err)
			continue
		}

		switch outcome {
		case artifact.OutcomeDeleted:
			summary.AudioFilesDeleted++
			summary.AudioBytesFreed += d.SizeBytes
			e.mirrorDelete(ctx, d.FileName)
		case artifact.OutcomeVanished:
			summary.AudioFilesVanished++
			e.logger.DebugContext(ctx, "audio file vanished before delete", "file", d.FileName)
		}
	}
	return nil
}

func (e *Engine) cleanText(ctx context.Context, summary *Summary) {
	if e.config.ArchiveBeforeDelete {
		file, err := e.archive(ctx, summary.TextCutoff, summary.StartedAt)
		if err != nil {
			summary.DatabaseErrors++
			summary.Errors = append(summary.Errors, fmt.Sprintf("archive newsletters: %v", err))
			e.logger.ErrorContext(ctx, "archive failed, skipping newsletter delete", "error", err)
			return
		}
		summary.ArchiveFile = file
	}

	deleted, err := e.store.DeleteOlderThan(ctx, summary.TextCutoff)
	if err != nil {
		summary.DatabaseErrors++
		summary.Errors = append(summary.Errors, fmt.Sprintf("delete newsletters: %v", err))
		e.logger.ErrorContext(ctx, "failed to delete old newsletters", "error", err)
		return
	}
	summary.NewslettersDeleted = deleted
}

// archive writes the records older than cutoff to a JSON file and returns
// its path, or "" when there was nothing to archive.
func (e *Engine) archive(ctx context.Context, cutoff string, now time.Time) (string, error) {
	records, err := e.store.GetOlderThan(ctx, cutoff)
	if err != nil {
		return "", fmt.Errorf("failed to query records for archiving: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(e.config.ArchivePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := ".json"
	if e.config.ArchiveCompress {
		ext = ".json.gz"
	}
	path := filepath.Join(e.config.ArchivePath, "newsletters-"+newsletter.FormatDate(now)+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		path = filepath.Join(e.config.ArchivePath, "newsletters-"+now.Format("2006-01-02-150405")+ext)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}

	var w io.Writer = f
	var zw *gzip.Writer
	if e.config.ArchiveCompress {
		zw = gzip.NewWriter(f)
		zw.Name = filepath.Base(strings.TrimSuffix(path, ".gz"))
		w = zw
	}

	if err := export.NewJSONExporter(true).Export(ctx, records, w); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to export records to archive: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to finish compressed archive: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	e.logger.InfoContext(ctx, "newsletters archived", "archive_file", path, "record_count", len(records))
	return path, nil
}

func (e *Engine) mirrorDelete(ctx context.Context, name string) {
	if e.mirror == nil {
		return
	}
	if err := e.mirror.Delete(ctx, name); err != nil {
		e.metrics.RecordMirrorError("delete")
		e.logger.WarnContext(ctx, "mirror delete failed", "mirror", e.mirror.Name(), "file", name, "error", err)
	}
}

func (e *Engine) finish(summary *Summary) {
	summary.FinishedAt = e.now().UTC()
	summary.DurationMs = summary.FinishedAt.Sub(summary.StartedAt).Milliseconds()

	e.metrics.RecordCleanup(metrics.CleanupResult{
		AudioDeleted:       summary.AudioFilesDeleted,
		AudioErrors:        summary.AudioFileErrors,
		BytesFreed:         summary.AudioBytesFreed,
		NewslettersDeleted: summary.NewslettersDeleted,
		DatabaseErrors:     summary.DatabaseErrors,
	})

	e.logger.Info("cleanup finished",
		"audio_files_deleted", summary.AudioFilesDeleted,
		"audio_file_errors", summary.AudioFileErrors,
		"audio_files_vanished", summary.AudioFilesVanished,
		"audio_bytes_freed", summary.AudioBytesFreed,
		"newsletters_deleted", summary.NewslettersDeleted,
		"database_errors", summary.DatabaseErrors,
		"duration_ms", summary.DurationMs,
	)
}
