package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mercator-hq/courier/pkg/artifact"
	"mercator-hq/courier/pkg/artifact/mirror"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/generation"
	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/newsletter/storage"
	"mercator-hq/courier/pkg/providers/anthropic"
	"mercator-hq/courier/pkg/providers/tts"
	"mercator-hq/courier/pkg/retention"
	"mercator-hq/courier/pkg/telemetry/metrics"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// appOptions selects which parts of the application a command needs.
type appOptions struct {
	// generation builds the content and narration providers and the
	// orchestrator.
	generation bool

	// metrics creates the Prometheus collector.
	metrics bool
}

// app holds the wired components shared by the commands.
type app struct {
	cfg     *config.Config
	tracer  *tracing.Tracer
	metrics *metrics.Collector

	store     newsletter.Store
	artifacts *artifact.Store
	mirror    artifact.Mirror
	engine    *retention.Engine

	narrator     *tts.Narrator
	orchestrator *generation.Orchestrator

	closers []func(context.Context) error
}

// newApp wires storage, retention and, when requested, generation. On error
// everything opened so far is closed.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.closers = append(a.closers, a.tracer.Shutdown)

	if opts.metrics && cfg.Telemetry.Metrics.On() {
		a.metrics = metrics.NewCollector(nil)
	}

	a.store, err = openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return a.store.Close() })

	a.artifacts, err = artifact.NewStore(artifact.Config{
		Dir:        cfg.Artifacts.Dir,
		Prefix:     cfg.Artifacts.Prefix,
		Extension:  cfg.Artifacts.Extension,
		PublicBase: cfg.Artifacts.PublicBase,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}
	if err := a.artifacts.EnsureStorageRoot(); err != nil {
		return nil, err
	}

	a.mirror, err = openMirror(ctx, cfg.Artifacts.Mirror)
	if err != nil {
		return nil, err
	}
	if a.mirror != nil {
		a.closers = append(a.closers, func(context.Context) error { return a.mirror.Close() })
	}

	engineOpts := []retention.Option{retention.WithMetrics(a.metrics)}
	if a.mirror != nil {
		engineOpts = append(engineOpts, retention.WithMirror(a.mirror))
	}
	a.engine = retention.NewEngine(a.store, a.artifacts, retention.Config{
		Policy: retention.Policy{
			AudioDays: cfg.Retention.AudioDays,
			TextDays:  cfg.Retention.TextDays,
		},
		ArchiveBeforeDelete: cfg.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Retention.ArchivePath,
		ArchiveCompress:     cfg.Retention.ArchiveCompress,
	}, engineOpts...)

	if opts.generation {
		if err := a.wireGeneration(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *app) wireGeneration() error {
	content := a.cfg.Providers.Content
	generator, err := anthropic.NewGenerator(anthropic.Config{
		APIKey:       content.APIKey,
		Model:        content.Model,
		MaxTokens:    content.MaxTokens,
		Temperature:  content.Temperature,
		TopK:         content.TopK,
		TopP:         content.TopP,
		SystemPrompt: content.SystemPrompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create content generator: %w", err)
	}

	narration := a.cfg.Providers.Narration
	a.narrator, err = tts.NewNarrator(tts.Config{
		BaseURL:        narration.BaseURL,
		APIKey:         narration.APIKey,
		Timeout:        narration.Timeout,
		MaxRetries:     narration.MaxRetries,
		SpeakerRefPath: narration.SpeakerRefPath,
		Language:       narration.Language,
		Temperature:    narration.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to create narrator: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return a.narrator.Close() })

	a.orchestrator, err = generation.New(generation.Deps{
		Store:     a.store,
		Artifacts: a.artifacts,
		Content:   generator,
		Narrator:  a.narrator,
		Mirror:    a.mirror,
		Metrics:   a.metrics,
	}, generation.Config{
		RejectConcurrent: a.cfg.Generation.RejectConcurrent,
		Timeout:          a.cfg.Generation.Timeout,
	})
	return err
}

// Close releases components in reverse order of creation.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(cfg config.StorageConfig) (newsletter.Store, error) {
	switch cfg.Backend {
	case "memory":
		slog.Warn("using in-memory record store; newsletters are lost on restart")
		return storage.NewMemoryStorage(), nil
	case "sqlite", "":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WAL(),
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// openMirror returns nil when mirroring is disabled.
func openMirror(ctx context.Context, cfg config.MirrorConfig) (artifact.Mirror, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "nats":
		m, err := mirror.NewNATS(mirror.NATSConfig{URL: cfg.NATS.URL, Bucket: cfg.NATS.Bucket})
		if err != nil {
			return nil, fmt.Errorf("failed to open NATS mirror: %w", err)
		}
		return m, nil
	case "s3":
		m, err := mirror.NewS3(ctx, mirror.S3Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open S3 mirror: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported mirror backend: %s", cfg.Backend)
	}
}
