package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/newsletter"
)

var generateFlags struct {
	date string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the newsletter for one date",
	Long: `Generate the newsletter for one date and wait for the result.

The record is upserted by publish date, so running this again for the same
date replaces the earlier issue. On failure the record is left failed with the
error message.

Examples:
  # Generate today's issue (UTC)
  courier generate

  # Regenerate a specific date
  courier generate --date 2025-06-01 --output json`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateFlags.date, "date", "d", "", "publish date YYYY-MM-DD (default: today UTC)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	date := generateFlags.date
	if date == "" {
		date = newsletter.FormatDate(time.Now())
	}
	if err := newsletter.ValidateDate(date); err != nil {
		return cli.NewConfigError("date", err.Error())
	}
	out, err := formatter()
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{generation: true})
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	defer a.Close(context.Background())

	progress := cli.NewProgressReporter(cmd.ErrOrStderr())
	progress.Start("generating " + date)

	record, err := a.orchestrator.Generate(ctx, date)
	if err != nil {
		progress.Error(err)
		return cli.NewCommandError("generate", err)
	}
	progress.Finish(string(record.Status))

	if _, ok := out.(*cli.TextFormatter); ok {
		return out.FormatTo(cmd.OutOrStdout(), recordFields(record))
	}
	return out.FormatTo(cmd.OutOrStdout(), record)
}

func recordFields(r *newsletter.Record) cli.Fields {
	fields := cli.Fields{
		{Key: "id", Value: r.ID},
		{Key: "publish_date", Value: r.PublishDate},
		{Key: "status", Value: r.Status},
		{Key: "title", Value: r.Title},
		{Key: "sections", Value: len(r.Sections)},
		{Key: "sources", Value: len(r.Sources)},
	}
	if r.AudioURL != nil {
		fields = append(fields, cli.Field{Key: "audio_url", Value: *r.AudioURL})
	}
	if r.AudioDurationSeconds != nil {
		fields = append(fields, cli.Field{Key: "audio_duration_seconds", Value: *r.AudioDurationSeconds})
	}
	if r.ErrorMessage != nil {
		fields = append(fields, cli.Field{Key: "error", Value: *r.ErrorMessage})
	}
	return fields
}
