package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
)

// openaiClient serves OpenAI and every OpenAI-compatible backend (gateways,
// custom provider types). Compatibility is the factory's fallback: unknown
// type tags land here with the provider's own endpoint as base URL.
type openaiClient struct {
	provider    domain.Provider
	client      *openai.Client
	vendor      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func newOpenAIClient(p domain.Provider, apiKey string, timeout time.Duration, rps int, logger *zerolog.Logger) *openaiClient {
	cfg := openai.DefaultConfig(apiKey)
	if p.Endpoint != "" {
		cfg.BaseURL = p.Endpoint
	}

	if rps <= 0 {
		rps = defaultRateLimiterRPS
	}

	return &openaiClient{
		provider:    p,
		client:      openai.NewClientWithConfig(cfg),
		vendor:      EffectiveVendor(p),
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
		logger:      logger,
	}
}

func (c *openaiClient) Analyze(ctx context.Context, req Request) (Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errFmtRateLimiter, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: c.provider.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: c.buildParts(req),
			},
		},
	}

	// The API rejects JSON mode unless the word "json" appears in the
	// messages. Free-form prompts (audio, Russian-marker templates) go
	// without it; parsePayload handles prose either way.
	if wantsJSONMode(req.Prompt) {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if c.provider.Config.Temperature > 0 {
		chatReq.Temperature = c.provider.Config.Temperature
	}

	if c.provider.Config.MaxTokens > 0 {
		chatReq.MaxTokens = c.provider.Config.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, fmt.Errorf(errFmtChatCall, fmt.Errorf("%w: %w", pipeerr.ErrLLMCall, err))
	}

	if len(resp.Choices) == 0 {
		return Response{}, pipeerr.ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content

	c.logger.Debug().
		Str(logKeyProvider, c.provider.ID).
		Str(logKeyModel, c.provider.Model).
		Int("content_len", len(content)).
		Msg("llm response received")

	return Response{
		Raw:    content,
		Parsed: parsePayload(content),
		Tokens: usageOrEstimate(req.Prompt, content, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Vendor: c.vendor,
		Model:  c.provider.Model,
	}, nil
}

// wantsJSONMode reports whether the rendered prompt names JSON literally,
// the precondition the OpenAI API puts on structured response format.
func wantsJSONMode(prompt string) bool {
	return strings.Contains(strings.ToLower(prompt), "json")
}

// buildParts assembles the multi-part user message: prompt text first, then
// one image part per media URL.
func (c *openaiClient) buildParts(req Request) []openai.ChatMessagePart {
	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: req.Prompt,
		},
	}

	for _, u := range req.MediaURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    u,
				Detail: openai.ImageURLDetailLow,
			},
		})
	}

	return parts
}
