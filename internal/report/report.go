// Package report renders OCR analyses for the console, for result files
// written next to the input image, and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"playground/internal/ocr"
)

const rule = "=================================================="

// Printer writes human-readable reports to a writer.
type Printer struct {
	out     io.Writer
	heading *color.Color
	label   *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
}

// NewPrinter returns a Printer writing to out. Colours follow fatih/color's
// terminal detection and are always disabled when noColor is set.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	p := &Printer{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		label:   color.New(color.Bold),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.label, p.success, p.warning, p.failure} {
			c.DisableColor()
		}
	}
	return p
}

// Banner prints a title framed by rules.
func (p *Printer) Banner(title string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, rule)
	p.heading.Fprintln(p.out, title)
	fmt.Fprintln(p.out, rule)
}

// Section prints a title underlined with a short rule.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.out)
	p.heading.Fprintln(p.out, title)
	fmt.Fprintln(p.out, strings.Repeat("-", 40))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.success.Fprintf(p.out, format+"\n", args...)
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...any) {
	p.warning.Fprintf(p.out, format+"\n", args...)
}

// Failure prints an error line.
func (p *Printer) Failure(format string, args ...any) {
	p.failure.Fprintf(p.out, format+"\n", args...)
}

// Text prints s followed by a newline.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.out, s)
}

// Analysis prints the console report for a basic or advanced analysis.
func (p *Printer) Analysis(a *ocr.Analysis) {
	if a.Mode == ocr.ModeBasic {
		p.Banner("Basic mode analysis result")
	} else {
		p.Banner("Advanced mode analysis result")
	}

	fmt.Fprintln(p.out)
	p.label.Fprintln(p.out, "Recognized text:")
	fmt.Fprintln(p.out, a.Text)

	fmt.Fprintln(p.out)
	if a.Mode == ocr.ModeBasic {
		p.label.Fprintf(p.out, "Recognized text blocks: %d\n", a.Stats.TotalBlocks)
		return
	}

	p.label.Fprintln(p.out, "Statistics:")
	p.Stats(a.Stats)
	fmt.Fprintf(p.out, "   - Preprocessing: %s\n", applied(a.Stats.Preprocessing))
	fmt.Fprintf(p.out, "   - Model type: %s\n", modelType(a.Stats.HighAccuracy))
}

// Stats prints block count and confidence figures.
func (p *Printer) Stats(s ocr.Stats) {
	fmt.Fprintf(p.out, "   - Text blocks: %d\n", s.TotalBlocks)
	fmt.Fprintf(p.out, "   - Average confidence: %s\n", Percent(s.AvgConfidence))
	fmt.Fprintf(p.out, "   - Highest confidence: %s\n", Percent(s.MaxConfidence))
	fmt.Fprintf(p.out, "   - Lowest confidence: %s\n", Percent(s.MinConfidence))
}

// Fragments lists every non-blank fragment of the first record with its score.
func (p *Printer) Fragments(raw ocr.RawResult) {
	if len(raw) == 0 || raw[0].RecTexts == nil {
		return
	}
	rec := raw[0]
	p.label.Fprintln(p.out, "Text and confidence:")
	for i, text := range rec.RecTexts {
		if strings.TrimSpace(text) == "" || i >= len(rec.RecScores) {
			continue
		}
		fmt.Fprintf(p.out, "  %d. '%s' (confidence: %s)\n", i+1, text, Percent(rec.RecScores[i]))
	}
}

// Percent formats a [0,1] ratio as a percentage with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func applied(b bool) string {
	if b {
		return "applied"
	}
	return "not applied"
}

func modelType(highAccuracy bool) string {
	if highAccuracy {
		return "high-accuracy parameters"
	}
	return "basic parameters"
}

// ResultPath returns the report file path for imagePath:
// <image-without-extension>_<mode>_result.txt.
func ResultPath(imagePath string, mode ocr.Mode) string {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	return fmt.Sprintf("%s_%s_result.txt", base, mode)
}

// Render builds the result file content for an analysis.
func Render(a *ocr.Analysis) ([]byte, error) {
	var b strings.Builder

	if a.Mode == ocr.ModeBasic {
		b.WriteString("=== Basic mode OCR analysis result ===\n\n")
		fmt.Fprintf(&b, "Source file: %s\n", a.ImagePath)
		fmt.Fprintf(&b, "Engine: %s\n", a.Engine)
		b.WriteString("Mode: basic (fast recognition)\n\n")
	} else {
		b.WriteString("=== Advanced mode OCR analysis result ===\n\n")
		fmt.Fprintf(&b, "Source file: %s\n", a.ImagePath)
		fmt.Fprintf(&b, "Engine: %s\n", a.Engine)
		b.WriteString("Mode: advanced (high accuracy)\n")
		fmt.Fprintf(&b, "Preprocessing: %s\n", applied(a.Stats.Preprocessing))
		fmt.Fprintf(&b, "Model type: %s\n\n", inferenceType(a.Stats.HighAccuracy))
		b.WriteString("Statistics:\n")
		fmt.Fprintf(&b, "  - Text blocks: %d\n", a.Stats.TotalBlocks)
		fmt.Fprintf(&b, "  - Average confidence: %s\n", Percent(a.Stats.AvgConfidence))
		fmt.Fprintf(&b, "  - Confidence range: %s ~ %s\n\n",
			Percent(a.Stats.MinConfidence), Percent(a.Stats.MaxConfidence))
	}

	b.WriteString("Recognized text:\n")
	b.WriteString(a.Text)
	b.WriteString("\n\n")

	raw, err := json.MarshalIndent(a.Raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal raw result: %w", err)
	}
	b.WriteString("Raw Result:\n")
	b.Write(raw)
	b.WriteString("\n")

	return []byte(b.String()), nil
}

func inferenceType(highAccuracy bool) string {
	if highAccuracy {
		return "enhanced inference"
	}
	return "standard inference"
}

// WriteFile renders the analysis to ResultPath and returns that path.
func WriteFile(a *ocr.Analysis) (string, error) {
	data, err := Render(a)
	if err != nil {
		return "", err
	}
	path := ResultPath(a.ImagePath, a.Mode)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}
	return path, nil
}

// Output is the JSON shape of an analysis.
type Output struct {
	ImagePath          string        `json:"image_path"`
	Mode               ocr.Mode      `json:"mode"`
	Engine             string        `json:"engine"`
	Text               string        `json:"text"`
	Stats              ocr.Stats     `json:"stats"`
	RawResult          ocr.RawResult `json:"raw_result"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration string        `json:"processing_duration"`
	ResultFile         string        `json:"result_file,omitempty"`
}

// JSON renders the analysis as indented JSON. resultFile may be empty.
func JSON(a *ocr.Analysis, resultFile string) ([]byte, error) {
	out := Output{
		ImagePath:          a.ImagePath,
		Mode:               a.Mode,
		Engine:             a.Engine,
		Text:               a.Text,
		Stats:              a.Stats,
		RawResult:          a.Raw,
		ProcessedAt:        a.ProcessedAt,
		ProcessingDuration: a.ProcessingDuration.String(),
		ResultFile:         resultFile,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON output: %w", err)
	}
	return data, nil
}
