package expense

import (
	"errors"
	"fmt"
)

// Common expense extraction errors
var (
	// ErrUnsupportedFormat is returned when the document MIME type cannot be
	// processed by Document AI.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrDocumentTooLarge is returned when the document exceeds the inline size limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrProcessingFailed is returned when Document AI or OCR processing fails.
	ErrProcessingFailed = errors.New("document processing failed")

	// ErrNoEntities is returned when the response contains no usable expense fields.
	ErrNoEntities = errors.New("no expense fields found in document")

	// ErrInvalidCredentials is returned when Google Cloud credentials are invalid
	// or lack the Document AI permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrInvalidConfiguration is returned when project or processor settings are missing.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrProcessorNotFound is returned when the configured processor does not exist.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when Document AI API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("Document AI API quota exceeded")
)

// ExtractionError wraps errors with the failing operation and context.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Extract", "NewExtractor").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("expense: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("expense: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(op string, err error, details string) *ExtractionError {
	return &ExtractionError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return err
	}

	return NewExtractionError(op, err, details)
}
