package cmd

import (
	"github.com/spf13/cobra"

	"playground/internal/harness"
	"playground/internal/logger"
)

var harnessCmd = &cobra.Command{
	Use:   "harness [image-file]",
	Short: "Run the OCR modes across configurations and compare them",
	Long: `Exercise basic and advanced mode OCR on one image.

Suites:
  basic     basic mode with per-fragment confidences
  advanced  preprocessing and inference combinations in a table (default)
  compare   basic mode against full advanced mode, with a recommendation
  all       every suite above

A failing run is reported and the suite continues. The image defaults to
images/ocr_test_01.png.`,
	Example: `  # Compare advanced configurations on the default image
  playground harness

  # Run every suite on receipt.png
  playground harness receipt.png --suite all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHarness,
}

func init() {
	rootCmd.AddCommand(harnessCmd)

	harnessCmd.Flags().String("suite", harness.SuiteAdvanced, "Test suite: basic, advanced, compare or all")
	harnessCmd.Flags().Int("timeout", 900, "Overall timeout in seconds")
}

func runHarness(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("harness")

	suite, _ := cmd.Flags().GetString("suite")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := harness.DefaultImage
	if len(args) > 0 {
		imagePath = args[0]
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	analyzer, cleanup, err := createAnalyzer(ctx, log)
	if err != nil {
		return err
	}
	defer cleanup()

	return harness.New(analyzer, newPrinter(cmd)).Run(ctx, suite, imagePath)
}
