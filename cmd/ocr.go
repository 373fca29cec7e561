package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"playground/internal/logger"
	"playground/internal/ocr"
	"playground/internal/report"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Recognise text in an image with fast, standard inference",
	Long: `Run basic mode OCR on an image file.

Basic mode uses the engine's standard configuration without preprocessing.
The recognised text and block count are printed, and a report is written to
<image>_basic_result.txt next to the input.

The engine is selected with OCR_ENGINE (tesseract or vision) and the language
with OCR_LANGUAGE (default kor).`,
	Example: `  # Recognise sample.jpg
  playground ocr sample.jpg

  # Print the analysis as JSON
  playground ocr sample.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Bool("sheet", false, "Append the analysis to the Google Sheet ledger")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting basic mode OCR")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	analyzer, cleanup, err := createAnalyzer(ctx, log)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := analyzer.AnalyzeBasic(ctx, imagePath)
	if err != nil {
		return handleOCRError(err, log)
	}

	return outputAnalysis(ctx, cmd, analysis, jsonOutput, toSheet, log)
}

// outputAnalysis writes the result file, prints the console or JSON report and
// optionally records the analysis in the sheet ledger.
func outputAnalysis(ctx context.Context, cmd *cobra.Command, analysis *ocr.Analysis, jsonOutput, toSheet bool, log zerolog.Logger) error {
	log.Info().
		Str("mode", string(analysis.Mode)).
		Int("blocks", analysis.Stats.TotalBlocks).
		Float64("avg_confidence", analysis.Stats.AvgConfidence).
		Dur("duration", analysis.ProcessingDuration).
		Msg("OCR processing completed successfully")

	resultFile, err := report.WriteFile(analysis)
	if err != nil {
		log.Error().Err(err).Str("image", analysis.ImagePath).Msg("Failed to write result file")
		return err
	}
	log.Info().Str("output_file", resultFile).Msg("OCR results written to file")

	if jsonOutput {
		data, err := report.JSON(analysis, resultFile)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		printer := newPrinter(cmd)
		printer.Analysis(analysis)
		printer.Success("\nResult saved: %s", resultFile)
	}

	if toSheet {
		svc, err := createSheetsService(ctx, log)
		if err != nil {
			return err
		}
		if err := svc.AppendAnalysis(ctx, cfg.GoogleSheetWorksheet, analysis); err != nil {
			log.Error().Err(err).Msg("Failed to append analysis to Google Sheet")
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
	}

	return nil
}
