package ocr

import "strings"

// firstRecord returns the text and score lists of the first record, and
// whether that record carries a text list at all.
func firstRecord(raw RawResult) ([]string, []float64, bool) {
	if len(raw) == 0 || raw[0].RecTexts == nil {
		return nil, nil, false
	}
	return raw[0].RecTexts, raw[0].RecScores, true
}

// MergeText joins the non-blank text fragments of the first record, one per
// line, without a trailing line break.
func MergeText(raw RawResult) string {
	texts, _, ok := firstRecord(raw)
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summarize computes block count and confidence statistics for the first record.
// Without scores the confidence fields keep their neutral values: avg 0, min 1, max 0.
func Summarize(raw RawResult, preprocessing, highAccuracy bool) Stats {
	stats := Stats{
		MinConfidence: 1.0,
		Preprocessing: preprocessing,
		HighAccuracy:  highAccuracy,
	}

	texts, scores, ok := firstRecord(raw)
	if !ok {
		return stats
	}
	stats.TotalBlocks = len(texts)
	if len(scores) == 0 {
		return stats
	}

	var sum float64
	stats.MinConfidence = scores[0]
	stats.MaxConfidence = scores[0]
	for _, s := range scores {
		sum += s
		if s < stats.MinConfidence {
			stats.MinConfidence = s
		}
		if s > stats.MaxConfidence {
			stats.MaxConfidence = s
		}
	}
	stats.AvgConfidence = sum / float64(len(scores))
	return stats
}

// Aggregate returns the merged text and statistics of raw.
func Aggregate(raw RawResult, preprocessing, highAccuracy bool) (string, Stats) {
	return MergeText(raw), Summarize(raw, preprocessing, highAccuracy)
}
