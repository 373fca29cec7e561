package report

import (
	"bytes"
	"strings"
	"testing"

	"playground/internal/ocr"
)

func TestAdvancedTableMarksFailures(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true).AdvancedTable([]Row{
		{Name: "Preprocess + enhanced", Success: true, AvgConfidence: 0.934, TotalBlocks: 12},
		{Name: "Enhanced only", Success: false},
	})
	got := buf.String()

	if !strings.Contains(got, "93.4%") || !strings.Contains(got, "12") {
		t.Errorf("success row not rendered:\n%s", got)
	}
	lines := strings.Split(got, "\n")
	var failed string
	for _, l := range lines {
		if strings.HasPrefix(l, "Enhanced only") {
			failed = l
		}
	}
	if !strings.Contains(failed, "failed") || !strings.HasSuffix(strings.TrimSpace(failed), "-") {
		t.Errorf("failed row = %q", failed)
	}
}

func TestRecommendations(t *testing.T) {
	if got := Recommendations(0.95); len(got) != 2 || !strings.HasPrefix(got[0], "Advanced mode") {
		t.Errorf("Recommendations(0.95) = %v", got)
	}
	if got := Recommendations(0.9); len(got) != 1 || !strings.HasPrefix(got[0], "Basic mode") {
		t.Errorf("Recommendations(0.9) = %v", got)
	}
}

func TestComparisonTable(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true).ComparisonTable(7, ocr.Stats{TotalBlocks: 9, AvgConfidence: 0.5, Preprocessing: true})
	got := buf.String()

	for _, want := range []string{"Text blocks", "7", "9", "50.0%", "yes", "Basic mode: when fast processing is required"} {
		if !strings.Contains(got, want) {
			t.Errorf("comparison missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "Advanced mode: when high confidence") {
		t.Errorf("unexpected advanced recommendation:\n%s", got)
	}
}
