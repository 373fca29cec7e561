package ocr

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"playground/internal/logger"
)

// DefaultLanguage is the recognition target language.
const DefaultLanguage = "kor"

// Analyzer runs the basic and advanced analysis flows on top of an Engine.
type Analyzer struct {
	engine       Engine
	preprocessor Preprocessor
	language     string
	log          zerolog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithPreprocessor sets the preprocessor used by AnalyzeAdvanced.
func WithPreprocessor(p Preprocessor) AnalyzerOption {
	return func(a *Analyzer) {
		a.preprocessor = p
	}
}

// WithLanguage overrides the recognition language.
func WithLanguage(language string) AnalyzerOption {
	return func(a *Analyzer) {
		if language != "" {
			a.language = language
		}
	}
}

// NewAnalyzer creates an Analyzer for engine.
func NewAnalyzer(engine Engine, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		engine:   engine,
		language: DefaultLanguage,
		log:      logger.WithComponent("analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeBasic recognises imagePath with the engine's standard (fast) configuration.
func (a *Analyzer) AnalyzeBasic(ctx context.Context, imagePath string) (*Analysis, error) {
	const op = "AnalyzeBasic"

	if err := checkImage(op, imagePath); err != nil {
		return nil, err
	}
	start := time.Now()

	a.log.Info().
		Str("engine", a.engine.Name()).
		Str("file", imagePath).
		Msg("Running basic mode (fast recognition)")

	raw, err := a.engine.Recognize(ctx, imagePath, a.options(false))
	if err != nil {
		return nil, WrapOCRError(op, err, "recognition failed")
	}

	text, stats := Aggregate(raw, false, false)
	return a.analysis(imagePath, ModeBasic, raw, text, stats, start), nil
}

// AnalyzeAdvanced optionally preprocesses imagePath and recognises it, trying the
// enhanced configuration first when highAccuracy is set.
func (a *Analyzer) AnalyzeAdvanced(ctx context.Context, imagePath string, usePreprocess, highAccuracy bool) (*Analysis, error) {
	const op = "AnalyzeAdvanced"

	if err := checkImage(op, imagePath); err != nil {
		return nil, err
	}
	start := time.Now()

	processedPath := imagePath
	if usePreprocess && a.preprocessor != nil {
		processedPath = a.preprocessor.Process(imagePath, "")
		if processedPath != imagePath {
			defer a.removeTemp(processedPath)
		}
	}

	raw, err := a.recognize(ctx, processedPath, highAccuracy)
	if err != nil {
		return nil, WrapOCRError(op, err, "recognition failed")
	}

	text, stats := Aggregate(raw, usePreprocess, highAccuracy)
	return a.analysis(imagePath, ModeAdvanced, raw, text, stats, start), nil
}

func (a *Analyzer) recognize(ctx context.Context, imagePath string, highAccuracy bool) (RawResult, error) {
	if !highAccuracy {
		a.log.Info().Str("file", imagePath).Msg("Running with standard inference")
		return a.engine.Recognize(ctx, imagePath, a.options(false))
	}

	a.log.Info().Str("file", imagePath).Msg("Running high-accuracy mode (enhanced inference)")
	raw, err := a.engine.Recognize(ctx, imagePath, a.options(true))
	if errors.Is(err, ErrUnsupportedConfig) {
		a.log.Warn().
			Err(err).
			Str("engine", a.engine.Name()).
			Msg("Enhanced inference unsupported, falling back to standard inference")
		return a.engine.Recognize(ctx, imagePath, a.options(false))
	}
	return raw, err
}

func (a *Analyzer) options(enhanced bool) Options {
	return Options{
		Language:            a.language,
		AngleClassification: true,
		Enhanced:            enhanced,
	}
}

func (a *Analyzer) analysis(imagePath string, mode Mode, raw RawResult, text string, stats Stats, start time.Time) *Analysis {
	now := time.Now()
	result := &Analysis{
		ImagePath:          imagePath,
		Mode:               mode,
		Engine:             a.engine.Name(),
		Raw:                raw,
		Text:               text,
		Stats:              stats,
		ProcessedAt:        now,
		ProcessingDuration: now.Sub(start),
	}

	a.log.Info().
		Str("mode", string(mode)).
		Int("blocks", stats.TotalBlocks).
		Float64("avg_confidence", stats.AvgConfidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Analysis completed")

	return result
}

func (a *Analyzer) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.log.Warn().Err(err).Str("file", path).Msg("Failed to remove temporary preprocessed image")
		return
	}
	a.log.Debug().Str("file", path).Msg("Removed temporary preprocessed image")
}

// checkImage verifies that imagePath names an existing regular file.
func checkImage(op, imagePath string) error {
	info, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewOCRError(op, ErrFileNotFound, imagePath)
		}
		return NewOCRError(op, err, "cannot access image")
	}
	if !info.Mode().IsRegular() {
		return NewOCRError(op, ErrNotRegularFile, imagePath)
	}
	return nil
}
