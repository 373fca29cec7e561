package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"playground/internal/config"
	"playground/internal/logger"
)

var version = "1.0.0"

// cfg is the configuration loaded by main before Execute.
var cfg = config.Default()

// cfgErr is the error from loading cfg. Every command fails with it.
var cfgErr error

var rootCmd = &cobra.Command{
	Use:   "playground",
	Short: "Playground CLI - OCR analysis and storage relay tools",
	Long: `Playground CLI bundles small tools around external services:

  ocr      recognise an image with fast, standard inference
  analyze  recognise an image with preprocessing and high-accuracy inference
  harness  run the OCR modes across configurations and compare them
  relay    download an object from S3 and forward it to an HTTP API
  ledger   show the latest rows of the Google Sheet ledger

Configuration is read from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return fmt.Errorf("invalid configuration: %w", cfgErr)
		}
		return nil
	},
}

// Execute runs the root command with the configuration main loaded and
// exits with status 1 on failure. A non-nil loadErr fails every command.
func Execute(c *config.Config, loadErr error) {
	log := logger.WithComponent("cmd")

	if c != nil {
		cfg = c
	}
	cfgErr = loadErr

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured console output")
}
