package tesseract

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"playground/internal/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderText(t *testing.T, text string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	path := filepath.Join(t.TempDir(), "text.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	path := renderText(t, "Hello OCR")
	raw, err := New("").Recognize(context.Background(), path, ocr.Options{Language: "eng"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(raw) != 1 || raw[0].Config != ocr.ConfigStandard {
		t.Fatalf("unexpected result: %+v", raw)
	}
	if len(raw[0].RecTexts) != len(raw[0].RecScores) {
		t.Fatalf("texts and scores are not parallel: %+v", raw[0])
	}
	got := strings.ToLower(ocr.MergeText(raw))
	if !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", got)
	}
}

func TestEnhancedWithoutBestModelsIsUnsupported(t *testing.T) {
	e := New("")
	_, err := e.Recognize(context.Background(), "ignored.png", ocr.Options{Language: "kor", Enhanced: true})
	if !errors.Is(err, ocr.ErrUnsupportedConfig) {
		t.Fatalf("err = %v, want ErrUnsupportedConfig", err)
	}
}

func TestCheckBestModels(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kor.traineddata"), []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := checkBestModels(dir, []string{"kor"}); err != nil {
		t.Errorf("kor: unexpected error %v", err)
	}
	if err := checkBestModels(dir, []string{"kor", "eng"}); err == nil {
		t.Error("kor+eng: expected missing eng model")
	}
	if err := checkBestModels(filepath.Join(dir, "nope"), []string{"kor"}); err == nil {
		t.Error("expected missing directory error")
	}
}

func TestRecognizeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("").Recognize(ctx, "ignored.png", ocr.Options{Language: "eng"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSplitLanguages(t *testing.T) {
	if got := splitLanguages("kor + eng"); !reflect.DeepEqual(got, []string{"kor", "eng"}) {
		t.Errorf("splitLanguages = %v", got)
	}
	if got := splitLanguages(""); got != nil {
		t.Errorf("splitLanguages(\"\") = %v, want nil", got)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	for in, want := range map[float64]float64{95: 0.95, -1: 0, 250: 1, 0: 0} {
		if got := normalizeConfidence(in); got != want {
			t.Errorf("normalizeConfidence(%v) = %v, want %v", in, got, want)
		}
	}
}
