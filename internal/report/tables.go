package report

import (
	"fmt"
	"strconv"
	"strings"

	"playground/internal/ocr"
)

// RecommendThreshold is the average confidence above which the advanced mode
// is recommended.
const RecommendThreshold = 0.9

// Row is one configuration outcome in the advanced comparison table.
type Row struct {
	Name          string
	Success       bool
	AvgConfidence float64
	TotalBlocks   int
}

// AdvancedTable prints mode, confidence and block count per configuration.
// Failed configurations show "failed" and "-".
func (p *Printer) AdvancedTable(rows []Row) {
	p.Banner("Advanced mode result comparison")
	p.label.Fprintf(p.out, "%-30s %-12s %s\n", "Mode", "Confidence", "Text blocks")
	fmt.Fprintln(p.out, strings.Repeat("-", 55))
	for _, r := range rows {
		if r.Success {
			fmt.Fprintf(p.out, "%-30s %-12s %d\n", r.Name, Percent(r.AvgConfidence), r.TotalBlocks)
			continue
		}
		p.failure.Fprintf(p.out, "%-30s %-12s %s\n", r.Name, "failed", "-")
	}
}

// ComparisonTable prints basic versus advanced mode side by side followed by
// the recommendations.
func (p *Printer) ComparisonTable(basicBlocks int, advanced ocr.Stats) {
	p.Banner("Comparison result")
	line := func(item, basic, adv string) {
		fmt.Fprintf(p.out, "%-24s %-16s %s\n", item, basic, adv)
	}
	p.label.Fprintf(p.out, "%-24s %-16s %s\n", "Item", "Basic mode", "Advanced mode")
	fmt.Fprintln(p.out, strings.Repeat("-", 55))
	line("Processing time", "fast", "slow")
	line("Model size", "small", "large")
	line("Text blocks", strconv.Itoa(basicBlocks), strconv.Itoa(advanced.TotalBlocks))
	line("Average confidence", "-", Percent(advanced.AvgConfidence))
	line("Preprocessing", "none", presence(advanced.Preprocessing))

	fmt.Fprintln(p.out)
	p.label.Fprintln(p.out, "Recommendations:")
	for _, r := range Recommendations(advanced.AvgConfidence) {
		fmt.Fprintf(p.out, "   - %s\n", r)
	}
}

// Recommendations returns the usage advice for an advanced-mode average confidence.
func Recommendations(avgConfidence float64) []string {
	var out []string
	if avgConfidence > RecommendThreshold {
		out = append(out, "Advanced mode: when high confidence is required")
	}
	return append(out, "Basic mode: when fast processing is required")
}

func presence(b bool) string {
	if b {
		return "yes"
	}
	return "none"
}
