package cmd

import (
	"github.com/spf13/cobra"

	"playground/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image-file]",
	Short: "Recognise text with preprocessing and high-accuracy inference",
	Long: `Run advanced mode OCR on an image file.

By default the image is preprocessed (grayscale, smoothing, CLAHE, Otsu
binarisation and closing) and recognised with the engine's enhanced inference
configuration. When the engine cannot run enhanced inference, the standard
configuration is used instead.

Statistics are printed and a report is written to
<image>_advanced_result.txt next to the input.`,
	Example: `  # Preprocess and use enhanced inference
  playground analyze sample.jpg

  # Skip preprocessing
  playground analyze sample.jpg --no-preprocess

  # Use standard inference (faster)
  playground analyze sample.jpg --basic-params

  # Record the result in the Google Sheet ledger
  playground analyze sample.jpg --sheet`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Bool("no-preprocess", false, "Disable image preprocessing")
	analyzeCmd.Flags().Bool("basic-params", false, "Use standard inference (faster)")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON")
	analyzeCmd.Flags().Bool("sheet", false, "Append the analysis to the Google Sheet ledger")
	analyzeCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	noPreprocess, _ := cmd.Flags().GetBool("no-preprocess")
	basicParams, _ := cmd.Flags().GetBool("basic-params")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	usePreprocess := !noPreprocess
	highAccuracy := !basicParams

	log.Info().
		Str("file", imagePath).
		Bool("preprocess", usePreprocess).
		Bool("high_accuracy", highAccuracy).
		Int("timeout", timeoutSecs).
		Msg("Starting advanced mode OCR")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	analyzer, cleanup, err := createAnalyzer(ctx, log)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := analyzer.AnalyzeAdvanced(ctx, imagePath, usePreprocess, highAccuracy)
	if err != nil {
		return handleOCRError(err, log)
	}

	return outputAnalysis(ctx, cmd, analysis, jsonOutput, toSheet, log)
}
