// Package tesseract provides the local OCR engine backed by Tesseract via gosseract.
//
// The standard configuration uses the system tessdata models. The enhanced
// configuration switches to the "best" LSTM models found in a separate
// directory (typically a checkout of tessdata_best); when that directory or the
// requested language model is missing the engine reports ocr.ErrUnsupportedConfig.
package tesseract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"playground/internal/logger"
	"playground/internal/ocr"
)

const enhancedDPI = "300"

// Engine implements ocr.Engine using the gosseract client.
type Engine struct {
	clientFactory   func() *gosseract.Client
	bestTessdataDir string
	log             zerolog.Logger
}

// New constructs a Tesseract engine. bestTessdataDir may be empty, in which
// case the enhanced configuration is unsupported.
func New(bestTessdataDir string) *Engine {
	return &Engine{
		clientFactory:   gosseract.NewClient,
		bestTessdataDir: bestTessdataDir,
		log:             logger.WithComponent("tesseract"),
	}
}

// Name implements ocr.Engine.
func (e *Engine) Name() string { return "tesseract" }

// Recognize implements ocr.Engine. Each detected text line becomes one
// fragment; its confidence is rescaled from 0-100 to 0-1.
func (e *Engine) Recognize(ctx context.Context, imagePath string, opts ocr.Options) (ocr.RawResult, error) {
	const op = "tesseract.Recognize"

	if err := ctx.Err(); err != nil {
		return nil, ocr.WrapOCRError(op, err, "canceled before recognition")
	}

	languages := splitLanguages(opts.Language)
	configName := ocr.ConfigStandard
	if opts.Enhanced {
		if err := checkBestModels(e.bestTessdataDir, languages); err != nil {
			return nil, ocr.NewOCRError(op, ocr.ErrUnsupportedConfig, err.Error())
		}
		configName = ocr.ConfigEnhanced
	}

	client := e.clientFactory()
	defer client.Close()

	if err := e.configure(client, languages, opts); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, err.Error())
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set image: %v", err))
	}

	e.log.Debug().
		Str("file", imagePath).
		Strs("languages", languages).
		Str("config", configName).
		Msg("Running Tesseract")

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		// Initialisation against the best models happens lazily here.
		if opts.Enhanced && strings.Contains(err.Error(), "initialize") {
			return nil, ocr.NewOCRError(op, ocr.ErrUnsupportedConfig, err.Error())
		}
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("recognize text: %v", err))
	}

	record := ocr.Record{
		InputPath: imagePath,
		Engine:    e.Name(),
		Config:    configName,
		RecTexts:  make([]string, 0, len(boxes)),
		RecScores: make([]float64, 0, len(boxes)),
	}
	for _, box := range boxes {
		record.RecTexts = append(record.RecTexts, strings.TrimRight(box.Word, "\r\n"))
		record.RecScores = append(record.RecScores, normalizeConfidence(box.Confidence))
	}

	return ocr.RawResult{record}, nil
}

func (e *Engine) configure(client *gosseract.Client, languages []string, opts ocr.Options) error {
	if opts.Enhanced {
		if err := client.SetTessdataPrefix(e.bestTessdataDir); err != nil {
			return fmt.Errorf("set tessdata prefix: %w", err)
		}
		if err := client.SetVariable("user_defined_dpi", enhancedDPI); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return fmt.Errorf("set languages: %w", err)
		}
	}

	mode := gosseract.PSM_AUTO
	if opts.AngleClassification {
		mode = gosseract.PSM_AUTO_OSD
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return fmt.Errorf("set page segmentation mode: %w", err)
	}
	return nil
}

// checkBestModels verifies that every language has a model in dir.
func checkBestModels(dir string, languages []string) error {
	if dir == "" {
		return fmt.Errorf("TESSDATA_BEST_DIR not configured")
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("best tessdata directory %s not found", dir)
	}
	for _, lang := range languages {
		model := filepath.Join(dir, lang+".traineddata")
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("best model for %q not found at %s", lang, model)
		}
	}
	return nil
}

func splitLanguages(language string) []string {
	var out []string
	for _, lang := range strings.Split(language, "+") {
		if lang = strings.TrimSpace(lang); lang != "" {
			out = append(out, lang)
		}
	}
	return out
}

func normalizeConfidence(c float64) float64 {
	c /= 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
