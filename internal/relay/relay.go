// Package relay downloads one object from S3 and forwards it to an HTTP API as
// a multipart upload together with four receipt metadata fields.
//
// Send never returns a Go error. Every failure is reported in the Result with
// a message and a Kind:
//   - credentials: no AWS credentials, or S3 rejected them
//   - storage: any other S3 failure
//   - transport: the HTTP request failed or the API answered with a non-2xx status
//   - unexpected: anything else
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"playground/internal/logger"
	"playground/pkg/models"
)

// DefaultRegion is used when a request names no region.
const DefaultRegion = "ap-northeast-2"

// Request describes one relay.
type Request struct {
	Key    string
	Bucket string

	AccessKeyID     string
	SecretAccessKey string
	Region          string

	// URL is the destination API endpoint.
	URL string

	Metadata models.TransferMetadata
}

// MetadataExtractor derives receipt metadata from the document itself.
type MetadataExtractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) (models.TransferMetadata, error)
}

// Relay moves objects from S3 to an HTTP API.
type Relay struct {
	newClient  ClientFactory
	httpClient *http.Client
	extractor  MetadataExtractor
}

// Option configures a Relay.
type Option func(*Relay)

// WithClientFactory replaces the S3 client factory.
func WithClientFactory(f ClientFactory) Option {
	return func(r *Relay) {
		r.newClient = f
	}
}

// WithHTTPClient replaces the HTTP client used for the upload.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) {
		r.httpClient = c
	}
}

// WithExtractor enables filling empty metadata fields from the document.
func WithExtractor(e MetadataExtractor) Option {
	return func(r *Relay) {
		r.extractor = e
	}
}

// New creates a Relay that uses static credentials only and a 60 second
// HTTP timeout unless overridden.
func New(opts ...Option) *Relay {
	r := &Relay{
		newClient:  S3ClientFactory(false, ""),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send fetches req.Key from req.Bucket and posts it to req.URL.
func (r *Relay) Send(ctx context.Context, req Request) (result Result) {
	requestID := uuid.NewString()
	log := logger.WithRequestID("relay", requestID)

	defer func() {
		if p := recover(); p != nil {
			result = failure(KindUnexpected, "unexpected error: %v", p)
		}
		result.RequestID = requestID
		if !result.OK() {
			log.Error().Str("kind", string(result.Kind)).Msg(result.Error)
		}
	}()

	if req.Region == "" {
		req.Region = DefaultRegion
	}

	client, err := r.newClient(ctx, req)
	if err != nil {
		return classifyStorageError(err)
	}

	log.Info().
		Str("bucket", req.Bucket).
		Str("key", req.Key).
		Str("region", req.Region).
		Msg("Downloading object from S3")

	content, err := fetch(ctx, client, req.Bucket, req.Key)
	if err != nil {
		return classifyStorageError(err)
	}

	mtype := mimetype.Detect(content)
	log.Debug().
		Int("bytes", len(content)).
		Str("mime_type", mtype.String()).
		Msg("Object downloaded")

	meta := req.Metadata
	if meta.Missing() && r.extractor != nil {
		r.fillMetadata(ctx, log, &meta, content, mtype.String())
	}

	log.Info().Str("url", req.URL).Msg("Sending data to API")
	result = r.upload(ctx, log, requestID, req.URL, filename(req.Key), content, meta)
	result.Metadata = meta
	return result
}

func (r *Relay) fillMetadata(ctx context.Context, log zerolog.Logger, meta *models.TransferMetadata, content []byte, mimeType string) {
	extracted, err := r.extractor.Extract(ctx, content, mimeType)
	if err != nil {
		log.Warn().Err(err).Msg("Metadata extraction failed, sending fields as given")
		return
	}
	if filled := meta.FillFrom(extracted); len(filled) > 0 {
		log.Info().Strs("fields", filled).Msg("Filled metadata from document")
	}
}

func (r *Relay) upload(ctx context.Context, log zerolog.Logger, requestID, url, name string, content []byte, meta models.TransferMetadata) Result {
	body, contentType, err := multipartBody(name, content, meta)
	if err != nil {
		return failure(KindUnexpected, "unexpected error: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return failure(KindTransport, "API request error: %v", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return failure(KindTransport, "API request error: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(KindTransport, "API request error: read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(KindTransport, "API request error: %d %s for url: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), url)
	}

	result := Result{StatusCode: resp.StatusCode, Response: string(data)}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return failure(KindTransport, "API request error: invalid JSON response: %v", err)
		}
		result.Response = decoded
	}

	log.Info().Int("status", resp.StatusCode).Msg("API request succeeded")
	return result
}

// multipartBody encodes the file part and the metadata fields.
func multipartBody(name string, content []byte, meta models.TransferMetadata) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	fields := []struct{ name, value string }{
		{"amount", meta.Amount},
		{"date", meta.Date},
		{"seller", meta.Seller},
		{"item", meta.Item},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
