package expense

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/genproto/googleapis/type/date"
	"google.golang.org/genproto/googleapis/type/money"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"playground/pkg/models"
)

type fakeProcessor struct {
	resp *documentaipb.ProcessResponse
	err  error
	req  *documentaipb.ProcessRequest
}

func (f *fakeProcessor) ProcessDocument(_ context.Context, req *documentaipb.ProcessRequest, _ ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeProcessor) Close() error { return nil }

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func receiptDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Entities: []*documentaipb.Document_Entity{
			{
				Type:        "supplier_name",
				MentionText: " 커피빈코리아 ",
				Confidence:  0.97,
			},
			{
				Type:        "total_amount",
				MentionText: "12,200",
				Confidence:  0.95,
				NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
					StructuredValue: &documentaipb.Document_Entity_NormalizedValue_MoneyValue{
						MoneyValue: &money.Money{CurrencyCode: "KRW", Units: 12200},
					},
				},
			},
			{
				Type:        "receipt_date",
				MentionText: "2025.08.07",
				Confidence:  0.9,
				NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
					StructuredValue: &documentaipb.Document_Entity_NormalizedValue_DateValue{
						DateValue: &date.Date{Year: 2025, Month: 8, Day: 7},
					},
				},
			},
			{
				Type:        "line_item",
				MentionText: "커피빈카노노 1 4,100",
				Properties: []*documentaipb.Document_Entity{
					{Type: "line_item/description", MentionText: "커피빈카노노"},
					{Type: "line_item/amount", MentionText: "4,100"},
				},
			},
			{
				Type: "line_item",
				Properties: []*documentaipb.Document_Entity{
					{Type: "line_item/description", MentionText: "Cookie"},
				},
			},
		},
	}
}

func newTestExtractor(p *fakeProcessor) *Extractor {
	return NewExtractorWithClient(Config{ProjectID: "proj", Location: "us", ProcessorID: "abc123"}, p)
}

func TestExtract(t *testing.T) {
	p := &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: receiptDocument()}}

	meta, confidence, err := newTestExtractor(p).ExtractWithConfidence(context.Background(), pngHeader, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := models.TransferMetadata{Amount: "12200", Date: "20250807", Seller: "커피빈코리아", Item: "커피빈카노노"}
	if meta != want {
		t.Errorf("meta = %+v, want %+v", meta, want)
	}
	if confidence["supplier_name"] != 0.97 {
		t.Errorf("confidence = %v", confidence)
	}
	if p.req.GetName() != "projects/proj/locations/us/processors/abc123" {
		t.Errorf("processor name = %q", p.req.GetName())
	}
	if p.req.GetRawDocument().GetMimeType() != "image/png" {
		t.Errorf("mime type = %q", p.req.GetRawDocument().GetMimeType())
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	p := &fakeProcessor{}
	_, err := newTestExtractor(p).Extract(context.Background(), []byte("plain text"), "text/plain; charset=utf-8")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if p.req != nil {
		t.Error("processor should not be called")
	}
}

func TestExtractTooLarge(t *testing.T) {
	_, err := newTestExtractor(&fakeProcessor{}).Extract(context.Background(), make([]byte, MaxDocumentSizeBytes+1), "image/png")
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("err = %v, want ErrDocumentTooLarge", err)
	}
}

func TestExtractNoEntities(t *testing.T) {
	p := &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{}}}
	_, err := newTestExtractor(p).Extract(context.Background(), pngHeader, "image/png")
	if !errors.Is(err, ErrNoEntities) {
		t.Fatalf("err = %v, want ErrNoEntities", err)
	}
}

func TestExtractErrorMapping(t *testing.T) {
	tests := []struct {
		code codes.Code
		want error
	}{
		{codes.PermissionDenied, ErrInvalidCredentials},
		{codes.Unauthenticated, ErrInvalidCredentials},
		{codes.ResourceExhausted, ErrQuotaExceeded},
		{codes.NotFound, ErrProcessorNotFound},
		{codes.InvalidArgument, ErrUnsupportedFormat},
		{codes.DeadlineExceeded, context.DeadlineExceeded},
		{codes.Internal, ErrProcessingFailed},
	}
	for _, tt := range tests {
		p := &fakeProcessor{err: status.Error(tt.code, "boom")}
		_, err := newTestExtractor(p).Extract(context.Background(), pngHeader, "image/png")
		if !errors.Is(err, tt.want) {
			t.Errorf("%v: err = %v, want %v", tt.code, err, tt.want)
		}
		var extractionErr *ExtractionError
		if !errors.As(err, &extractionErr) || extractionErr.Op != "Extract" {
			t.Errorf("%v: not an ExtractionError: %v", tt.code, err)
		}
	}
}

func TestNewExtractorRequiresConfiguration(t *testing.T) {
	if _, err := NewExtractor(context.Background(), Config{ProcessorID: "x"}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("missing project: err = %v", err)
	}
	if _, err := NewExtractor(context.Background(), Config{ProjectID: "p"}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("missing processor: err = %v", err)
	}
}

func TestParseWholeUnits(t *testing.T) {
	tests := map[string]string{
		"12,200원":    "12200",
		"₩ 12,200":   "12200",
		"7.303,08 €": "7303",
		"$12.50":     "12",
		"1,000,000":  "1000000",
		"4100":       "4100",
	}
	for in, want := range tests {
		got, err := parseWholeUnits(in)
		if err != nil || got != want {
			t.Errorf("parseWholeUnits(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := parseWholeUnits("free"); err == nil {
		t.Error("expected error for amount without digits")
	}
}

func TestParseDate(t *testing.T) {
	tests := map[string]string{
		"2025.08.07":       "20250807",
		"2025-08-07 13:45": "20250807",
		"2025. 8. 7.":      "20250807",
		"2025년 8월 7일":      "20250807",
		"20250807":         "20250807",
	}
	for in, want := range tests {
		got, err := parseDate(in)
		if err != nil || got != want {
			t.Errorf("parseDate(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := parseDate("yesterday"); err == nil {
		t.Error("expected error for unparseable date")
	}
}
