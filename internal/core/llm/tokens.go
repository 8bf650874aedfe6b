package llm

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// estimateTokens is the fallback heuristic when the API does not report
// usage: one token per four characters.
func estimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}

	tokens := n / charsPerTokenHeuristic
	if tokens == 0 {
		tokens = 1
	}

	return tokens
}

// usageOrEstimate prefers exact token counts from the API; when both are
// zero it estimates from the prompt and payload and flags the count.
func usageOrEstimate(prompt, payload string, request, response int) domain.TokenCount {
	if request > 0 || response > 0 {
		return domain.TokenCount{Request: request, Response: response}
	}

	return domain.TokenCount{
		Request:   estimateTokens(prompt),
		Response:  estimateTokens(payload),
		Estimated: true,
	}
}

// parsePayload attempts a strict JSON object decode of the model output,
// tolerating surrounding prose or markdown fences. Malformed output never
// raises: it degrades to {"raw": payload} so the caller still persists what
// the model said.
func parsePayload(payload string) map[string]any {
	candidate := extractJSON(payload)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil && parsed != nil {
		return parsed
	}

	return map[string]any{"raw": payload}
}

// extractJSON trims the payload to the outermost JSON object or array when
// the model wrapped it in prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	start = strings.Index(text, "[")
	end = strings.LastIndex(text, "]")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}
