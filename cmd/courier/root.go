package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier - daily newsletter generation API",
	Long: `Courier generates one newsletter per calendar day, narrates it to audio,
stores the result keyed by publish date and serves it over HTTP.

Audio files are kept for 14 days and newsletter text for 365 days; a daily
job at 02:00 UTC removes anything older.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, csv)")
}

// loadConfig loads the configuration file and installs the logger. Logs go
// to stderr so command output on stdout stays machine-readable.
func loadConfig() (*config.Config, *logging.Logger, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	logCfg.Writer = os.Stderr
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.Install()

	return cfg, logger, nil
}

// formatter returns the formatter selected by --output.
func formatter() (cli.Formatter, error) {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format), nil
}
