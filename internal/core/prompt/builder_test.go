package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

func TestBuildUsesDefaultTemplate(t *testing.T) {
	builder := NewBuilder()

	got := builder.Build(domain.MediaKindText, nil, nil)

	assert.Contains(t, got, "social media analyst")
	assert.Contains(t, got, `"main_topics"`)
	assert.Contains(t, got, `"sentiment_score"`)
}

func TestBuildCustomTemplateWins(t *testing.T) {
	builder := NewBuilder()
	scenario := &domain.Scenario{
		Prompts: map[domain.MediaKind]string{
			domain.MediaKindText: "Summarize {source.platform} chatter",
		},
	}
	context := map[string]any{"source": map[string]any{"platform": "twitter"}}

	got := builder.Build(domain.MediaKindText, scenario, context)

	assert.True(t, strings.HasPrefix(got, "Summarize twitter chatter"))
	assert.NotContains(t, got, "social media analyst")
	// Format enforcement still appends the instruction block.
	assert.Contains(t, got, `"main_topics"`)
}

func TestEnforceOutputFormatIdempotent(t *testing.T) {
	once := EnforceOutputFormat(domain.MediaKindImage, "Describe the pictures")
	twice := EnforceOutputFormat(domain.MediaKindImage, once)

	require.Contains(t, once, `"visual_themes"`)
	assert.Equal(t, once, twice)
}

func TestEnforceOutputFormatRespectsExistingFormat(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{name: "english marker", prompt: "Reply in JSON with fields a and b"},
		{name: "cyrillic marker", prompt: "Ответь в формате джейсон"},
		{name: "cyrillic slang marker", prompt: "выведи жсон"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.prompt, EnforceOutputFormat(domain.MediaKindText, tt.prompt))
		})
	}
}

func TestEnforceOutputFormatAudioUnchanged(t *testing.T) {
	assert.Equal(t, "Describe the audio", EnforceOutputFormat(domain.MediaKindAudio, "Describe the audio"))
}

func TestBuildVideoFormatFields(t *testing.T) {
	got := NewBuilder().Build(domain.MediaKindVideo, nil, nil)

	assert.Contains(t, got, `"video_types"`)
	assert.Contains(t, got, `"content_style"`)
}
