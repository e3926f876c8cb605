/*
Package cli provides command-line helpers for the courier command.

Output Formatting:

Command results print as aligned text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

CSV is only defined for newsletter record lists.

Progress Reporting:

Long synchronous operations report elapsed time until they finish:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start("generating 2025-06-01")
	record, err := orchestrator.Generate(ctx, "2025-06-01")
	if err != nil {
		progress.Error(err)
		return err
	}
	progress.Finish("complete")

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
