// Package ocr provides the OCR invocation layer: an engine abstraction, the
// basic and advanced analysis flows, and aggregation of engine output into
// merged text and confidence statistics.
//
// Engines normalise their output into a RawResult: an ordered list of records,
// each carrying parallel rec_texts / rec_scores lists. Only the first record is
// used for aggregation.
//
// Available engines:
//   - tesseract (subpackage tesseract): local Tesseract via gosseract.
//   - vision (VisionEngine): Google Cloud Vision document text detection.
//
// The Vision engine reads credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Advanced analysis with high accuracy first asks the engine for its enhanced
// configuration. Engines that cannot provide it return ErrUnsupportedConfig and
// the analyzer silently retries with the standard configuration.
package ocr

import (
	"context"
	"time"
)

// Engine recognises text in a single image file.
type Engine interface {
	// Name identifies the engine in logs and reports.
	Name() string

	// Recognize runs the engine on the image at imagePath.
	// Returns ErrUnsupportedConfig (wrapped) when opts.Enhanced cannot be honoured.
	Recognize(ctx context.Context, imagePath string, opts Options) (RawResult, error)
}

// Preprocessor prepares an image for recognition. It never fails: when it
// cannot process the input it returns imagePath unchanged.
type Preprocessor interface {
	Process(imagePath, outputPath string) string
}

// Options configures a single recognition call.
type Options struct {
	// Language is the Tesseract-style language code, e.g. "kor" or "kor+eng".
	Language string

	// AngleClassification enables orientation detection of rotated text.
	AngleClassification bool

	// Enhanced requests the engine's high-accuracy inference configuration.
	Enhanced bool
}

// Inference configuration labels recorded on each Record.
const (
	ConfigStandard = "standard"
	ConfigEnhanced = "enhanced"
)

// Record is one engine result record.
type Record struct {
	InputPath string    `json:"input_path"`
	Engine    string    `json:"engine"`
	Config    string    `json:"config"`
	RecTexts  []string  `json:"rec_texts"`
	RecScores []float64 `json:"rec_scores"`
}

// RawResult is the engine's structured output, in record order.
type RawResult []Record

// Stats summarises a RawResult.
type Stats struct {
	TotalBlocks   int     `json:"total_blocks"`
	AvgConfidence float64 `json:"avg_confidence"`
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
	Preprocessing bool    `json:"preprocessing"`
	HighAccuracy  bool    `json:"high_accuracy"`
}

// Mode names the analysis flow that produced an Analysis.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
)

// Analysis is the outcome of one analyzer invocation.
type Analysis struct {
	ImagePath string    `json:"image_path"`
	Mode      Mode      `json:"mode"`
	Engine    string    `json:"engine"`
	Raw       RawResult `json:"raw_result"`
	Text      string    `json:"text"`
	Stats     Stats     `json:"stats"`

	// ProcessedAt is the timestamp when the analysis completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long preprocessing and recognition took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
