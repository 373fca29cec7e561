package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"playground/pkg/models"
)

// Kind classifies a relay failure.
type Kind string

const (
	KindCredentials Kind = "credentials"
	KindStorage     Kind = "storage"
	KindTransport   Kind = "transport"
	KindUnexpected  Kind = "unexpected"
)

// ErrNoCredentials is returned by client factories when no usable AWS
// credentials could be resolved.
var ErrNoCredentials = errors.New("AWS credentials not found")

// rejectedCredentialCodes are S3 error codes meaning the credentials were
// presented but refused.
var rejectedCredentialCodes = map[string]bool{
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"ExpiredToken":          true,
	"InvalidToken":          true,
}

// Result is the outcome of one relay. Exactly one of the success fields
// (StatusCode, Response) or Error is meaningful.
type Result struct {
	StatusCode int
	// Response is the decoded JSON body, or the raw body text when the
	// endpoint did not answer with JSON.
	Response any

	Error string
	Kind  Kind

	RequestID string
	// Metadata holds the fields sent with the upload, after any extraction.
	Metadata models.TransferMetadata
}

// OK reports whether the relay succeeded.
func (r Result) OK() bool {
	return r.Error == ""
}

// MarshalJSON encodes {"status_code":..,"response":..} on success and
// {"error":".."} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(struct {
		StatusCode int `json:"status_code"`
		Response   any `json:"response"`
	}{r.StatusCode, r.Response})
}

func failure(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Error: fmt.Sprintf(format, args...)}
}

// classifyStorageError maps an S3 failure to a Result.
func classifyStorageError(err error) Result {
	if errors.Is(err, ErrNoCredentials) {
		return failure(KindCredentials, "%s", ErrNoCredentials.Error())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && rejectedCredentialCodes[apiErr.ErrorCode()] {
		return failure(KindCredentials, "AWS credentials rejected: %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return failure(KindStorage, "S3 client error: %v", err)
}

// filename returns the last path segment of an object key.
func filename(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}
