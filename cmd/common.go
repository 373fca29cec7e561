package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"playground/internal/config"
	"playground/internal/ocr"
	"playground/internal/ocr/tesseract"
	"playground/internal/preprocess"
	"playground/internal/report"
	"playground/internal/sheets"
)

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// newPrinter returns a console printer honouring --no-color and NO_COLOR.
func newPrinter(cmd *cobra.Command) *report.Printer {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return report.NewPrinter(os.Stdout, noColor || cfg.LogNoColor)
}

// createAnalyzer builds the analyzer for the configured OCR engine. The
// returned cleanup func releases engine resources and is never nil.
func createAnalyzer(ctx context.Context, log zerolog.Logger) (*ocr.Analyzer, func(), error) {
	cleanup := func() {}

	var engine ocr.Engine
	switch cfg.OCREngine {
	case config.EngineVision:
		if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" && os.Getenv("GOOGLE_CREDENTIALS") == "" {
			log.Warn().Msg("Google Cloud credentials not configured, trying application default credentials")
		}
		vision, err := ocr.NewVisionEngine(ctx)
		if err != nil {
			if errors.Is(err, ocr.ErrMissingCredentials) {
				return nil, cleanup, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
					"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
					"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
					"2. Export GOOGLE_CREDENTIALS with inline JSON\n\n" +
					"3. Or set OCR_ENGINE=tesseract to use the local engine")
			}
			log.Error().Err(err).Msg("Failed to create Vision engine")
			return nil, cleanup, fmt.Errorf("failed to create OCR engine: %w", err)
		}
		engine = vision
		cleanup = func() {
			if err := vision.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Vision client")
			}
		}
	default:
		engine = tesseract.New(cfg.TessdataBestDir)
	}

	pre := preprocess.New(cfg.PreprocessBackend, preprocess.DefaultOptions())

	log.Debug().
		Str("engine", engine.Name()).
		Str("language", cfg.OCRLanguage).
		Str("preprocess_backend", cfg.PreprocessBackend).
		Msg("OCR analyzer created")

	return ocr.NewAnalyzer(engine,
		ocr.WithPreprocessor(pre),
		ocr.WithLanguage(cfg.OCRLanguage),
	), cleanup, nil
}

// createSheetsService connects to the configured ledger spreadsheet.
func createSheetsService(ctx context.Context, log zerolog.Logger) (*sheets.Service, error) {
	if cfg.GoogleSheetURL == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_URL is required for the Google Sheet ledger")
	}
	svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets service")
		return nil, fmt.Errorf("failed to create Google Sheets service: %w", err)
	}
	return svc, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or using a smaller image")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileNotFound):
		return fmt.Errorf("file not found: %w", err)
	case errors.Is(err, ocr.ErrNotRegularFile):
		return fmt.Errorf("path is not a regular file: %w", err)
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image file is too large (maximum 20MB). Try resizing or compressing it")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials are missing: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account has the 'Cloud Vision API User' role")
	case strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud Vision API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. Check that the OCR engine is installed and the image is readable: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}
