package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playground/internal/ocr"
	"playground/internal/report"
)

type call struct {
	basic        bool
	preprocess   bool
	highAccuracy bool
}

type fakeAnalyzer struct {
	calls []call
	fail  func(c call) error
}

func (f *fakeAnalyzer) result(c call) (*ocr.Analysis, error) {
	f.calls = append(f.calls, c)
	if f.fail != nil {
		if err := f.fail(c); err != nil {
			return nil, err
		}
	}
	raw := ocr.RawResult{{RecTexts: []string{"A", "", "B"}, RecScores: []float64{0.96, 0.94}}}
	text, stats := ocr.Aggregate(raw, c.preprocess, c.highAccuracy)
	return &ocr.Analysis{Raw: raw, Text: text, Stats: stats}, nil
}

func (f *fakeAnalyzer) AnalyzeBasic(_ context.Context, _ string) (*ocr.Analysis, error) {
	return f.result(call{basic: true})
}

func (f *fakeAnalyzer) AnalyzeAdvanced(_ context.Context, _ string, usePreprocess, highAccuracy bool) (*ocr.Analysis, error) {
	return f.result(call{preprocess: usePreprocess, highAccuracy: highAccuracy})
}

func newHarness(a Analyzer) (*Harness, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(a, report.NewPrinter(&buf, true)), &buf
}

func TestRunAdvancedConfigurations(t *testing.T) {
	fake := &fakeAnalyzer{}
	h, _ := newHarness(fake)

	rows := h.RunAdvanced(context.Background(), "img.png")

	want := []call{{preprocess: true, highAccuracy: true}, {highAccuracy: true}, {preprocess: true}}
	if len(fake.calls) != len(want) {
		t.Fatalf("calls = %+v", fake.calls)
	}
	for i := range want {
		if fake.calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, fake.calls[i], want[i])
		}
	}
	for _, r := range rows {
		if !r.Success || r.TotalBlocks != 3 {
			t.Errorf("row = %+v", r)
		}
	}
}

func TestRunAdvancedContinuesAfterFailure(t *testing.T) {
	fake := &fakeAnalyzer{fail: func(c call) error {
		if !c.preprocess {
			return errors.New("engine exploded")
		}
		return nil
	}}
	h, buf := newHarness(fake)

	rows := h.RunAdvanced(context.Background(), "img.png")

	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if !rows[0].Success || rows[1].Success || !rows[2].Success {
		t.Fatalf("success flags = %v %v %v", rows[0].Success, rows[1].Success, rows[2].Success)
	}
	out := buf.String()
	if !strings.Contains(out, "engine exploded") || !strings.Contains(out, "failed") {
		t.Errorf("failure not reported:\n%s", out)
	}
}

func TestRunComparison(t *testing.T) {
	fake := &fakeAnalyzer{}
	h, buf := newHarness(fake)

	cmp := h.RunComparison(context.Background(), "img.png")
	if cmp == nil {
		t.Fatal("expected comparison")
	}
	if cmp.BasicBlocks != 3 || !cmp.Advanced.Preprocessing || !cmp.Advanced.HighAccuracy {
		t.Errorf("comparison = %+v", cmp)
	}
	if !strings.Contains(buf.String(), "Advanced mode: when high confidence is required") {
		t.Errorf("missing recommendation:\n%s", buf.String())
	}
}

func TestRunComparisonFailure(t *testing.T) {
	fake := &fakeAnalyzer{fail: func(c call) error {
		if c.basic {
			return ocr.NewOCRError("AnalyzeBasic", ocr.ErrFileNotFound, "img.png")
		}
		return nil
	}}
	h, buf := newHarness(fake)

	if cmp := h.RunComparison(context.Background(), "img.png"); cmp != nil {
		t.Fatalf("expected nil comparison, got %+v", cmp)
	}
	if len(fake.calls) != 2 {
		t.Errorf("advanced run should still happen, calls = %+v", fake.calls)
	}
	if !strings.Contains(buf.String(), "File not found: img.png") {
		t.Errorf("missing file message:\n%s", buf.String())
	}
}

func TestRunAllMissingImage(t *testing.T) {
	fake := &fakeAnalyzer{}
	h, _ := newHarness(fake)

	if h.RunAll(context.Background(), filepath.Join(t.TempDir(), "missing.png")) {
		t.Fatal("RunAll should not run without an image")
	}
	if len(fake.calls) != 0 {
		t.Errorf("analyzer called: %+v", fake.calls)
	}
}

func TestRunAll(t *testing.T) {
	image := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(image, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	fake := &fakeAnalyzer{}
	h, _ := newHarness(fake)

	if !h.RunAll(context.Background(), image) {
		t.Fatal("RunAll returned false")
	}
	// basic + three advanced + basic and advanced for the comparison
	if len(fake.calls) != 6 {
		t.Errorf("calls = %d, want 6", len(fake.calls))
	}
}

func TestRunUnknownSuite(t *testing.T) {
	h, _ := newHarness(&fakeAnalyzer{})
	if err := h.Run(context.Background(), "nightly", "img.png"); !errors.Is(err, ErrUnknownSuite) {
		t.Fatalf("err = %v, want ErrUnknownSuite", err)
	}
}
