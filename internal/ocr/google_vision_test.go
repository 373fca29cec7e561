package ocr

import (
	"reflect"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

func symbols(text string, last visionpb.TextAnnotation_DetectedBreak_BreakType) []*visionpb.Symbol {
	runes := []rune(text)
	out := make([]*visionpb.Symbol, 0, len(runes))
	for i, r := range runes {
		s := &visionpb.Symbol{Text: string(r)}
		if i == len(runes)-1 {
			s.Property = &visionpb.TextAnnotation_TextProperty{
				DetectedBreak: &visionpb.TextAnnotation_DetectedBreak{Type: last},
			}
		}
		out = append(out, s)
	}
	return out
}

func TestRecordFromAnnotation(t *testing.T) {
	annotation := &visionpb.TextAnnotation{
		Pages: []*visionpb.Page{{
			Blocks: []*visionpb.Block{
				{Paragraphs: []*visionpb.Paragraph{{
					Confidence: 0.5,
					Words: []*visionpb.Word{
						{Symbols: symbols("커피빈", visionpb.TextAnnotation_DetectedBreak_SPACE)},
						{Symbols: symbols("코리아", visionpb.TextAnnotation_DetectedBreak_LINE_BREAK)},
					},
				}}},
				{Paragraphs: []*visionpb.Paragraph{{
					Confidence: 0.25,
					Words: []*visionpb.Word{
						{Symbols: symbols("12,200", visionpb.TextAnnotation_DetectedBreak_UNKNOWN)},
					},
				}}},
			},
		}},
	}

	record := recordFromAnnotation(annotation)

	wantTexts := []string{"커피빈 코리아", "12,200"}
	if !reflect.DeepEqual(record.RecTexts, wantTexts) {
		t.Errorf("RecTexts = %q, want %q", record.RecTexts, wantTexts)
	}
	wantScores := []float64{0.5, 0.25}
	if !reflect.DeepEqual(record.RecScores, wantScores) {
		t.Errorf("RecScores = %v, want %v", record.RecScores, wantScores)
	}
}

func TestRecordFromNilAnnotation(t *testing.T) {
	record := recordFromAnnotation(nil)
	if record.RecTexts == nil || len(record.RecTexts) != 0 {
		t.Errorf("RecTexts = %#v, want empty non-nil slice", record.RecTexts)
	}
}

func TestLanguageHints(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "kor", want: []string{"ko"}},
		{in: "kor+eng", want: []string{"ko", "en"}},
		{in: "vie", want: []string{"vie"}},
		{in: "", want: nil},
	}
	for _, tt := range tests {
		if got := languageHints(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("languageHints(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
