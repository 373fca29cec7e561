package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"playground/internal/logger"
)

const (
	// MaxImageSizeBytes is the maximum inline image size accepted by the Vision API (20MB)
	MaxImageSizeBytes = 20 * 1024 * 1024

	visionModelStable = "builtin/stable"
	visionModelLatest = "builtin/latest"
)

// visionLanguageHints maps Tesseract language codes to BCP-47 hints.
var visionLanguageHints = map[string]string{
	"kor":     "ko",
	"eng":     "en",
	"jpn":     "ja",
	"chi_sim": "zh",
	"chi_tra": "zh-Hant",
	"deu":     "de",
	"fra":     "fr",
}

// VisionEngine implements Engine using Google Cloud Vision document text detection.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionEngine creates a Vision engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewVisionEngineWithClient(client), nil
}

// NewVisionEngineWithClient creates a Vision engine with an explicit client.
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient) *VisionEngine {
	return &VisionEngine{
		client: client,
		log:    logger.WithComponent("vision"),
	}
}

// Name implements Engine.
func (v *VisionEngine) Name() string { return "vision" }

// Recognize implements Engine. The enhanced configuration uses the latest
// text detection model; the standard configuration pins the stable one.
func (v *VisionEngine) Recognize(ctx context.Context, imagePath string, opts Options) (RawResult, error) {
	const op = "VisionEngine.Recognize"

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image")
	}
	if len(data) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	model, configName := visionModelStable, ConfigStandard
	if opts.Enhanced {
		model, configName = visionModelLatest, ConfigEnhanced
	}
	if !opts.AngleClassification {
		v.log.Debug().Msg("Vision detects text orientation automatically; angle classification flag ignored")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{
						Type:  visionpb.Feature_DOCUMENT_TEXT_DETECTION,
						Model: model,
					},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: languageHints(opts.Language),
				},
			},
		},
	}

	v.log.Debug().
		Str("file", imagePath).
		Str("model", model).
		Int("size", len(data)).
		Msg("Calling Vision API")

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		if opts.Enhanced && status.Code(err) == codes.InvalidArgument {
			return nil, NewOCRError(op, ErrUnsupportedConfig, fmt.Sprintf("model %s rejected: %v", model, err))
		}
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	imageResp := resp.Responses[0]
	if imageResp.Error != nil {
		if opts.Enhanced && codes.Code(imageResp.Error.Code) == codes.InvalidArgument {
			return nil, NewOCRError(op, ErrUnsupportedConfig, imageResp.Error.Message)
		}
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imageResp.Error.Message))
	}

	record := recordFromAnnotation(imageResp.FullTextAnnotation)
	record.InputPath = imagePath
	record.Engine = v.Name()
	record.Config = configName

	return RawResult{record}, nil
}

// recordFromAnnotation turns each paragraph into one text fragment, scored by
// the paragraph confidence.
func recordFromAnnotation(annotation *visionpb.TextAnnotation) Record {
	record := Record{
		RecTexts:  []string{},
		RecScores: []float64{},
	}
	if annotation == nil {
		return record
	}

	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				record.RecTexts = append(record.RecTexts, paragraphText(paragraph))
				record.RecScores = append(record.RecScores, float64(paragraph.Confidence))
			}
		}
	}
	return record
}

func paragraphText(paragraph *visionpb.Paragraph) string {
	var b strings.Builder
	for _, word := range paragraph.Words {
		for _, symbol := range word.Symbols {
			b.WriteString(symbol.Text)
			if symbol.Property == nil || symbol.Property.DetectedBreak == nil {
				continue
			}
			switch symbol.Property.DetectedBreak.Type {
			case visionpb.TextAnnotation_DetectedBreak_SPACE,
				visionpb.TextAnnotation_DetectedBreak_SURE_SPACE,
				visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
				visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
				b.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func languageHints(language string) []string {
	var hints []string
	for _, code := range strings.Split(language, "+") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if hint, ok := visionLanguageHints[code]; ok {
			code = hint
		}
		hints = append(hints, code)
	}
	return hints
}

// Close closes the underlying Vision client.
func (v *VisionEngine) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
