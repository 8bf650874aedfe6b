package prompt

import "github.com/sifterlab/mediasift/internal/core/domain"

// Default per-kind analysis prompts, used when a scenario carries no custom
// template for the kind. Collected content is appended after the prompt by
// the LLM client.
const (
	defaultTextPrompt = `You are a social media analyst. Analyze the following posts and comments.
Identify the main topics discussed, the overall mood of the audience, and the
most notable highlights. Consider engagement counters when weighing importance.`

	defaultImagePrompt = `You are a visual content analyst. Analyze the attached images from a
social media feed. Describe the visual themes, the dominant colors, and the
overall mood they convey.`

	defaultVideoPrompt = `You are a video content analyst. Analyze the attached videos from a
social media feed. Identify the types of video, their main themes, and the
style of content.`

	defaultAudioPrompt = `You are an audio content analyst. Analyze the attached audio clips from a
social media feed. Identify the kind of audio, its main subjects, and the tone.`
)

// Kind-specific output format instruction blocks, appended when the rendered
// template does not already demand a structured format. Each block enumerates
// the exact field set the merge step reads.
const (
	textFormatInstruction = `

Respond with a single JSON object, no prose, with exactly these fields:
{"main_topics": [string], "overall_mood": string, "highlights": [string], "sentiment_score": number between 0.0 and 1.0}`

	imageFormatInstruction = `

Respond with a single JSON object, no prose, with exactly these fields:
{"visual_themes": [string], "dominant_colors": [string], "mood": string}`

	videoFormatInstruction = `

Respond with a single JSON object, no prose, with exactly these fields:
{"video_types": [string], "main_themes": [string], "content_style": string}`
)

// defaultTemplates maps each media kind to its built-in prompt.
//
//nolint:gochecknoglobals
var defaultTemplates = map[domain.MediaKind]string{
	domain.MediaKindText:  defaultTextPrompt,
	domain.MediaKindImage: defaultImagePrompt,
	domain.MediaKindVideo: defaultVideoPrompt,
	domain.MediaKindAudio: defaultAudioPrompt,
}

// formatInstructions maps media kinds to their enforcement blocks. Audio has
// none; audio analyses stay free-form.
//
//nolint:gochecknoglobals
var formatInstructions = map[domain.MediaKind]string{
	domain.MediaKindText:  textFormatInstruction,
	domain.MediaKindImage: imageFormatInstruction,
	domain.MediaKindVideo: videoFormatInstruction,
}

// formatPhrases are the case-insensitive markers indicating the template
// author already specified an output format. The Cyrillic entries cover
// templates written by the Russian-speaking operator base.
//
//nolint:gochecknoglobals
var formatPhrases = []string{"json", "джейсон", "жсон"}
