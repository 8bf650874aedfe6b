package analyzer

import (
	"math"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// mergeSummary folds per-kind results into one unified summary. The text
// result anchors sentiment and topics; image and video results extend the
// topic list. When no kind succeeded the summary is explicitly empty and
// the record is persisted anyway so chain and checkpoint state stay
// consistent. The degraded flag is set when at least one kind failed.
func mergeSummary(results map[domain.MediaKind]domain.AnalysisResult) (domain.UnifiedSummary, bool) {
	var summary domain.UnifiedSummary

	degraded := false
	succeeded := 0

	for _, r := range results {
		if r.Failed() {
			degraded = true
		} else {
			succeeded++
		}
	}

	if succeeded == 0 {
		summary.Empty = true

		return summary, degraded
	}

	if text, ok := results[domain.MediaKindText]; ok && !text.Failed() {
		summary.Topics = appendUnique(summary.Topics, stringSlice(text.Parsed["main_topics"])...)
		summary.Sentiment = stringValue(text.Parsed["overall_mood"])
		summary.SentimentScore = clampScore(floatValue(text.Parsed["sentiment_score"]))
		summary.Highlights = stringSlice(text.Parsed["highlights"])
	}

	if image, ok := results[domain.MediaKindImage]; ok && !image.Failed() {
		summary.Topics = appendUnique(summary.Topics, stringSlice(image.Parsed["visual_themes"])...)

		if summary.Sentiment == "" {
			summary.Sentiment = stringValue(image.Parsed["mood"])
		}
	}

	if video, ok := results[domain.MediaKindVideo]; ok && !video.Failed() {
		summary.Topics = appendUnique(summary.Topics, stringSlice(video.Parsed["main_themes"])...)
	}

	return summary, degraded
}

// distribution weights the content mix by bucket share of total entries.
func distribution(stats domain.ContentStats) map[domain.MediaKind]float64 {
	total := stats.TextItems
	for _, n := range stats.MediaCounts {
		total += n
	}

	if total == 0 {
		return nil
	}

	dist := make(map[domain.MediaKind]float64)

	if stats.TextItems > 0 {
		dist[domain.MediaKindText] = float64(stats.TextItems) / float64(total)
	}

	for kind, n := range stats.MediaCounts {
		dist[kind] = float64(n) / float64(total)
	}

	return dist
}

// CostMinorUnits computes the estimated run cost in integer minor currency
// units: max(1, floor(totalTokens/1000*100)) for positive token counts, 0
// otherwise. The floor-to-one keeps small analyses from reporting a
// misleading zero cost.
func CostMinorUnits(totalTokens int) int64 {
	if totalTokens <= 0 {
		return 0
	}

	cents := int64(math.Floor(float64(totalTokens) / 1000.0 * 100.0))
	if cents < 1 {
		return 1
	}

	return cents
}

func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

func stringValue(value any) string {
	s, _ := value.(string)

	return s
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}

	if score > 1 {
		return 1
	}

	return score
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}

	for _, s := range values {
		if s == "" || seen[s] {
			continue
		}

		dst = append(dst, s)
		seen[s] = true
	}

	return dst
}
