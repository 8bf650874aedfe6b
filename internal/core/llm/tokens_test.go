package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty", in: "", want: 0},
		{name: "shorter than heuristic", in: "abc", want: 1},
		{name: "exact multiple", in: strings.Repeat("a", 400), want: 100},
		{name: "multibyte runes counted once", in: strings.Repeat("ж", 8), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimateTokens(tt.in))
		})
	}
}

func TestUsageOrEstimate(t *testing.T) {
	exact := usageOrEstimate("prompt", "payload", 100, 20)
	assert.Equal(t, domain.TokenCount{Request: 100, Response: 20}, exact)

	estimated := usageOrEstimate(strings.Repeat("a", 40), strings.Repeat("b", 8), 0, 0)
	assert.True(t, estimated.Estimated)
	assert.Equal(t, 10, estimated.Request)
	assert.Equal(t, 2, estimated.Response)
}

func TestParsePayload(t *testing.T) {
	parsed := parsePayload(`Here is the result:
` + "```json\n" + `{"main_topics": ["go"], "sentiment_score": 0.7}` + "\n```")
	require.NotContains(t, parsed, "raw")
	assert.Equal(t, []any{"go"}, parsed["main_topics"])

	degraded := parsePayload("the model rambled instead of answering")
	assert.Equal(t, "the model rambled instead of answering", degraded["raw"])
}

func TestExtractJSONPrefersObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON(`noise {"a": 1} trailing`))
	assert.Equal(t, `[1, 2]`, extractJSON(`list: [1, 2] done`))
	assert.Equal(t, "no structure", extractJSON("no structure"))
}

func TestEffectiveVendor(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.Provider
		want     string
	}{
		{
			name:     "typed openai",
			provider: domain.Provider{Type: domain.ProviderTypeOpenAI},
			want:     "openai",
		},
		{
			name:     "custom gateway to known vendor",
			provider: domain.Provider{Type: domain.ProviderTypeCustom, Endpoint: "https://openrouter.ai/api/v1"},
			want:     "openrouter",
		},
		{
			name:     "custom with unknown host",
			provider: domain.Provider{Type: domain.ProviderTypeCustom, Endpoint: "https://llm.internal.corp/v1"},
			want:     "llm.internal.corp",
		},
		{
			name:     "custom without endpoint",
			provider: domain.Provider{Type: domain.ProviderTypeCustom},
			want:     "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveVendor(tt.provider))
		})
	}
}
