// Package expense extracts receipt metadata (amount, date, seller, item) from
// receipt images and PDFs with the Google Document AI expense parser.
//
// Credentials are read from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package expense

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/gabriel-vasile/mimetype"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"playground/internal/logger"
	"playground/pkg/models"
)

// MaxDocumentSizeBytes is the maximum inline document size (20MB).
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// supportedMimeTypes are the raw document types accepted by Document AI.
var supportedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"image/gif":       true,
	"image/bmp":       true,
	"image/webp":      true,
}

// Config identifies the Document AI expense processor.
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// documentProcessor is the subset of the Document AI client used here.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// Extractor reads expense fields with Document AI.
type Extractor struct {
	client documentProcessor
	config Config
	log    zerolog.Logger
}

// NewExtractor creates an Extractor with credentials from the environment.
// ProjectID and ProcessorID are required; Location defaults to "us".
func NewExtractor(ctx context.Context, config Config) (*Extractor, error) {
	const op = "NewExtractor"

	if config.ProjectID == "" {
		return nil, NewExtractionError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, NewExtractionError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	clientOptions := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)),
	}
	hasCredentials := false
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
		hasCredentials = true
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
		hasCredentials = true
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if !hasCredentials {
			return nil, NewExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, NewExtractionError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewExtractorWithClient(config, client), nil
}

// NewExtractorWithClient creates an Extractor around an existing client.
func NewExtractorWithClient(config Config, client documentProcessor) *Extractor {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Extractor{
		client: client,
		config: config,
		log:    logger.WithComponent("expense"),
	}
}

// Extract implements relay.MetadataExtractor. mimeType may be empty, in which
// case it is detected from content.
func (e *Extractor) Extract(ctx context.Context, content []byte, mimeType string) (models.TransferMetadata, error) {
	meta, _, err := e.ExtractWithConfidence(ctx, content, mimeType)
	return meta, err
}

// ExtractWithConfidence extracts receipt metadata together with the
// confidence of each entity type found.
func (e *Extractor) ExtractWithConfidence(ctx context.Context, content []byte, mimeType string) (models.TransferMetadata, map[string]float32, error) {
	const op = "Extract"

	if len(content) > MaxDocumentSizeBytes {
		return models.TransferMetadata{}, nil, NewExtractionError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(content)))
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(content).String()
	}
	mimeType = baseMimeType(mimeType)
	if !supportedMimeTypes[mimeType] {
		return models.TransferMetadata{}, nil, NewExtractionError(op, ErrUnsupportedFormat, mimeType)
	}

	processCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
	}

	e.log.Debug().
		Str("processor", req.Name).
		Str("mime_type", mimeType).
		Int("bytes", len(content)).
		Msg("Sending document to Document AI")

	resp, err := e.client.ProcessDocument(processCtx, req)
	if err != nil {
		return models.TransferMetadata{}, nil, e.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return models.TransferMetadata{}, nil, NewExtractionError(op, ErrProcessingFailed, "no document in response")
	}

	meta, confidence := e.metadataFromDocument(resp.GetDocument())
	if meta == (models.TransferMetadata{}) {
		return meta, confidence, NewExtractionError(op, ErrNoEntities, "")
	}

	e.log.Info().
		Str("amount", meta.Amount).
		Str("date", meta.Date).
		Str("seller", meta.Seller).
		Str("item", meta.Item).
		Msg("Document AI extraction completed")

	return meta, confidence, nil
}

// processorName constructs the full processor resource name.
func (e *Extractor) processorName() string {
	if e.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			e.config.ProjectID, e.config.Location, e.config.ProcessorID, e.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.config.ProjectID, e.config.Location, e.config.ProcessorID)
}

// handleProcessingError maps gRPC status codes to extraction errors.
func (e *Extractor) handleProcessingError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewExtractionError(op, context.DeadlineExceeded, "processing timeout")
	case errors.Is(err, context.Canceled):
		return NewExtractionError(op, context.Canceled, "processing was canceled")
	}

	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return NewExtractionError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case codes.ResourceExhausted:
		return NewExtractionError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case codes.NotFound:
		return NewExtractionError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", e.config.ProcessorID))
	case codes.InvalidArgument:
		return NewExtractionError(op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case codes.DeadlineExceeded:
		return NewExtractionError(op, context.DeadlineExceeded, "processing timeout")
	case codes.Canceled:
		return NewExtractionError(op, context.Canceled, "processing was canceled")
	default:
		return NewExtractionError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (e *Extractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
