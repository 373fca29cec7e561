// Package harness runs the OCR analysis flows across several configurations
// against one image and prints comparison tables. A failing run is reported
// and never stops the suite.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"playground/internal/logger"
	"playground/internal/ocr"
	"playground/internal/report"
)

// DefaultImage is used when no image is given.
const DefaultImage = "images/ocr_test_01.png"

// Suite names.
const (
	SuiteBasic    = "basic"
	SuiteAdvanced = "advanced"
	SuiteCompare  = "compare"
	SuiteAll      = "all"
)

// ErrUnknownSuite is returned by Run for an unrecognised suite name.
var ErrUnknownSuite = errors.New("unknown test suite")

// Analyzer is the part of ocr.Analyzer the harness drives.
type Analyzer interface {
	AnalyzeBasic(ctx context.Context, imagePath string) (*ocr.Analysis, error)
	AnalyzeAdvanced(ctx context.Context, imagePath string, usePreprocess, highAccuracy bool) (*ocr.Analysis, error)
}

// Config is one advanced-mode configuration.
type Config struct {
	Name         string
	Preprocess   bool
	HighAccuracy bool
}

// AdvancedConfigs are the configurations exercised by the advanced suite, in order.
var AdvancedConfigs = []Config{
	{Name: "Preprocess + enhanced inference", Preprocess: true, HighAccuracy: true},
	{Name: "Enhanced inference only", Preprocess: false, HighAccuracy: true},
	{Name: "Preprocess only", Preprocess: true, HighAccuracy: false},
}

// Harness runs test suites with one analyzer.
type Harness struct {
	analyzer Analyzer
	printer  *report.Printer
	log      zerolog.Logger
}

// New returns a Harness printing through printer.
func New(analyzer Analyzer, printer *report.Printer) *Harness {
	return &Harness{
		analyzer: analyzer,
		printer:  printer,
		log:      logger.WithComponent("harness"),
	}
}

// Run dispatches to the named suite.
func (h *Harness) Run(ctx context.Context, suite, imagePath string) error {
	runID := uuid.NewString()
	h.log = logger.WithRequestID("harness", runID)
	h.log.Info().Str("suite", suite).Str("image", imagePath).Msg("Starting test suite")

	switch suite {
	case SuiteBasic:
		h.RunBasic(ctx, imagePath)
	case SuiteAdvanced:
		h.RunAdvanced(ctx, imagePath)
	case SuiteCompare:
		h.RunComparison(ctx, imagePath)
	case SuiteAll:
		h.RunAll(ctx, imagePath)
	default:
		return fmt.Errorf("%w: %q (expected %s, %s, %s or %s)",
			ErrUnknownSuite, suite, SuiteBasic, SuiteAdvanced, SuiteCompare, SuiteAll)
	}

	h.log.Info().Str("suite", suite).Msg("Test suite finished")
	return nil
}

// RunBasic runs the basic mode once and prints the text, block count and
// per-fragment confidences. It reports whether the run succeeded.
func (h *Harness) RunBasic(ctx context.Context, imagePath string) bool {
	h.printer.Banner("Basic mode test")

	result, err := h.analyzer.AnalyzeBasic(ctx, imagePath)
	if err != nil {
		h.reportFailure("Basic mode", imagePath, err)
		return false
	}

	h.printer.Section("Recognized text")
	h.printer.Text(result.Text)
	if len(result.Raw) > 0 && result.Raw[0].RecTexts != nil {
		h.printer.Text(fmt.Sprintf("\nRecognized text blocks: %d\n", len(result.Raw[0].RecTexts)))
		h.printer.Fragments(result.Raw)
	}

	h.printer.Success("Basic mode test completed")
	return true
}

// RunAdvanced runs every AdvancedConfigs entry and prints the comparison table.
func (h *Harness) RunAdvanced(ctx context.Context, imagePath string) []report.Row {
	h.printer.Banner("Advanced mode test")

	rows := make([]report.Row, 0, len(AdvancedConfigs))
	for _, cfg := range AdvancedConfigs {
		h.printer.Section(cfg.Name)

		result, err := h.analyzer.AnalyzeAdvanced(ctx, imagePath, cfg.Preprocess, cfg.HighAccuracy)
		if err != nil {
			h.reportFailure(cfg.Name, imagePath, err)
			rows = append(rows, report.Row{Name: cfg.Name})
			continue
		}

		h.printer.Text(result.Text)
		h.printer.Stats(result.Stats)
		rows = append(rows, report.Row{
			Name:          cfg.Name,
			Success:       true,
			AvgConfidence: result.Stats.AvgConfidence,
			TotalBlocks:   result.Stats.TotalBlocks,
		})
	}

	h.printer.AdvancedTable(rows)
	h.printer.Success("Advanced mode test completed")
	return rows
}

// Comparison holds the outcome of a basic versus advanced run.
type Comparison struct {
	BasicBlocks int
	Advanced    ocr.Stats
}

// RunComparison runs basic mode and advanced mode with preprocessing and
// enhanced inference, then prints them side by side. It returns nil when
// either run failed.
func (h *Harness) RunComparison(ctx context.Context, imagePath string) *Comparison {
	h.printer.Banner("Basic mode vs advanced mode")

	h.printer.Section("Running basic mode")
	basic, basicErr := h.analyzer.AnalyzeBasic(ctx, imagePath)
	if basicErr != nil {
		h.reportFailure("Basic mode", imagePath, basicErr)
	}

	h.printer.Section("Running advanced mode")
	advanced, advErr := h.analyzer.AnalyzeAdvanced(ctx, imagePath, true, true)
	if advErr != nil {
		h.reportFailure("Advanced mode", imagePath, advErr)
	}

	if basicErr != nil || advErr != nil {
		h.printer.Failure("Comparison test failed")
		return nil
	}

	cmp := &Comparison{BasicBlocks: basic.Stats.TotalBlocks, Advanced: advanced.Stats}
	h.printer.ComparisonTable(cmp.BasicBlocks, cmp.Advanced)
	return cmp
}

// RunAll checks that the image exists and runs the basic, advanced and
// comparison suites in order. It reports whether the suites ran.
func (h *Harness) RunAll(ctx context.Context, imagePath string) bool {
	h.printer.Banner("OCR full test run")

	if _, err := os.Stat(imagePath); err != nil {
		h.log.Warn().Err(err).Str("image", imagePath).Msg("Test image not found")
		h.printer.Warning("Test image not found: %s", imagePath)
		h.printer.Warning("Prepare an image file to run the tests.")
		return false
	}
	h.printer.Success("Test image: %s", imagePath)

	h.RunBasic(ctx, imagePath)
	h.RunAdvanced(ctx, imagePath)
	h.RunComparison(ctx, imagePath)

	h.printer.Success("All tests completed")
	return true
}

func (h *Harness) reportFailure(name, imagePath string, err error) {
	h.log.Error().Err(err).Str("run", name).Str("image", imagePath).Msg("Run failed")
	if errors.Is(err, ocr.ErrFileNotFound) {
		h.printer.Failure("File not found: %s", imagePath)
		return
	}
	h.printer.Failure("%s error: %v", name, err)
}
