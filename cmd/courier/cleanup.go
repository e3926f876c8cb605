package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/retention"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Preview or run retention cleanup",
	Long: `Preview or run retention cleanup.

Audio files older than the audio window (14 days by default) and newsletters
older than the text window (365 days by default) are removed.`,
}

var cleanupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Delete expired audio files and newsletters now",
	RunE:  runCleanup,
}

var cleanupStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the next cleanup would delete",
	RunE:  runCleanupStats,
}

func init() {
	cleanupCmd.AddCommand(cleanupRunCmd, cleanupStatsCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, "cleanup run", func(ctx context.Context, out cli.Formatter, engine *retention.Engine) error {
		summary, err := engine.RunCleanup(ctx)
		if err != nil {
			return err
		}
		if _, ok := out.(*cli.TextFormatter); ok {
			return out.FormatTo(cmd.OutOrStdout(), summaryFields(summary))
		}
		return out.FormatTo(cmd.OutOrStdout(), summary)
	})
}

func runCleanupStats(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, "cleanup stats", func(ctx context.Context, out cli.Formatter, engine *retention.Engine) error {
		stats, err := engine.ComputeStats(ctx)
		if err != nil {
			return err
		}
		if _, ok := out.(*cli.TextFormatter); ok {
			return out.FormatTo(cmd.OutOrStdout(), statsFields(stats))
		}
		return out.FormatTo(cmd.OutOrStdout(), stats)
	})
}

// withEngine loads config, wires retention without the providers and runs fn.
func withEngine(cmd *cobra.Command, name string, fn func(context.Context, cli.Formatter, *retention.Engine) error) error {
	out, err := formatter()
	if err != nil {
		return err
	}
	if _, ok := out.(*cli.CSVFormatter); ok {
		return cli.NewConfigError("output", "csv is only supported by generate")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	defer a.Close(context.Background())

	if err := fn(ctx, out, a.engine); err != nil {
		return cli.NewCommandError(name, err)
	}
	return nil
}

func summaryFields(s *retention.Summary) cli.Fields {
	fields := cli.Fields{
		{Key: "audio_cutoff", Value: s.AudioCutoff.Format(time.RFC3339)},
		{Key: "text_cutoff", Value: s.TextCutoff},
		{Key: "audio_files_deleted", Value: s.AudioFilesDeleted},
		{Key: "audio_bytes_freed", Value: s.AudioBytesFreed},
		{Key: "audio_files_vanished", Value: s.AudioFilesVanished},
		{Key: "audio_file_errors", Value: s.AudioFileErrors},
		{Key: "newsletters_deleted", Value: s.NewslettersDeleted},
		{Key: "database_errors", Value: s.DatabaseErrors},
		{Key: "duration_ms", Value: s.DurationMs},
	}
	if s.ArchiveFile != "" {
		fields = append(fields, cli.Field{Key: "archive_file", Value: s.ArchiveFile})
	}
	if len(s.Errors) > 0 {
		fields = append(fields, cli.Field{Key: "errors", Value: strings.Join(s.Errors, "; ")})
	}
	return fields
}

func statsFields(s *retention.Stats) cli.Fields {
	return cli.Fields{
		{Key: "audio_days", Value: s.Policy.AudioDays},
		{Key: "text_days", Value: s.Policy.TextDays},
		{Key: "audio_cutoff", Value: s.AudioCutoff.Format(time.RFC3339)},
		{Key: "text_cutoff", Value: s.TextCutoff},
		{Key: "audio_files", Value: s.Audio.TotalFiles},
		{Key: "audio_bytes", Value: s.Audio.TotalBytes},
		{Key: "audio_files_to_delete", Value: s.Audio.ToDeleteFiles},
		{Key: "audio_bytes_to_delete", Value: s.Audio.ToDeleteBytes},
		{Key: "newsletters", Value: s.Newsletters.Total},
		{Key: "newsletters_to_delete", Value: s.Newsletters.ToDelete},
	}
}
