package sheets

import (
	"context"
	"path/filepath"

	"playground/internal/ocr"
	"playground/internal/relay"
	"playground/pkg/models"
)

const timestampLayout = "2006-01-02 15:04:05"

var analysisHeaders = []interface{}{
	"File", "Mode", "Engine", "Text blocks", "Avg confidence", "Min confidence",
	"Max confidence", "Preprocessing", "High accuracy", "Text", "Processed at",
}

var transferHeaders = []interface{}{
	"Bucket", "Key", "Amount", "Date", "Seller", "Item",
	"Status", "HTTP status", "Error", "Request ID", "Processed at",
}

// Transfer is one relay outcome to record.
type Transfer struct {
	Request relay.Request
	Result  relay.Result
}

// AppendAnalysis appends one row describing an OCR analysis to sheetName.
func (s *Service) AppendAnalysis(ctx context.Context, sheetName string, a *ocr.Analysis) error {
	return s.appendRows(ctx, sheetName, analysisHeaders, [][]interface{}{s.analysisRow(a)})
}

// AppendTransfer appends one row describing a relay outcome to sheetName.
func (s *Service) AppendTransfer(ctx context.Context, sheetName string, t Transfer) error {
	return s.appendRows(ctx, sheetName, transferHeaders, [][]interface{}{s.transferRow(t)})
}

func (s *Service) analysisRow(a *ocr.Analysis) []interface{} {
	processedAt := a.ProcessedAt
	if processedAt.IsZero() {
		processedAt = s.now()
	}
	return []interface{}{
		filepath.Base(a.ImagePath),          // A: File
		string(a.Mode),                      // B: Mode
		a.Engine,                            // C: Engine
		a.Stats.TotalBlocks,                 // D: Text blocks
		a.Stats.AvgConfidence,               // E: Avg confidence
		a.Stats.MinConfidence,               // F: Min confidence
		a.Stats.MaxConfidence,               // G: Max confidence
		a.Stats.Preprocessing,               // H: Preprocessing
		a.Stats.HighAccuracy,                // I: High accuracy
		a.Text,                              // J: Text
		processedAt.Format(timestampLayout), // K: Processed at
	}
}

func (s *Service) transferRow(t Transfer) []interface{} {
	status := "OK"
	if !t.Result.OK() {
		status = "FAILED (" + string(t.Result.Kind) + ")"
	}
	meta := t.Result.Metadata
	if meta == (models.TransferMetadata{}) {
		meta = t.Request.Metadata
	}
	return []interface{}{
		t.Request.Bucket,                // A: Bucket
		t.Request.Key,                   // B: Key
		meta.Amount,                     // C: Amount
		meta.Date,                       // D: Date
		meta.Seller,                     // E: Seller
		meta.Item,                       // F: Item
		status,                          // G: Status
		t.Result.StatusCode,             // H: HTTP status
		t.Result.Error,                  // I: Error
		t.Result.RequestID,              // J: Request ID
		s.now().Format(timestampLayout), // K: Processed at
	}
}

// Recent returns the header row of sheetName and its last limit data rows.
// A limit of zero or less returns every row.
func (s *Service) Recent(ctx context.Context, sheetName string, limit int) ([]interface{}, [][]interface{}, error) {
	values, err := s.ReadRange(ctx, sheetName)
	if err != nil {
		return nil, nil, err
	}
	if len(values) == 0 {
		return nil, nil, nil
	}

	header, rows := values[0], values[1:]
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return header, rows, nil
}
