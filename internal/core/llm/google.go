package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
)

// googleClient serves Gemini-family providers. Media URLs are passed as
// reference lines in the prompt.
type googleClient struct {
	provider    domain.Provider
	client      *genai.Client
	vendor      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func newGoogleClient(ctx context.Context, p domain.Provider, apiKey string, timeout time.Duration, rps int, logger *zerolog.Logger) (*googleClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if rps <= 0 {
		rps = defaultRateLimiterRPS
	}

	return &googleClient{
		provider:    p,
		client:      client,
		vendor:      EffectiveVendor(p),
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
		logger:      logger,
	}, nil
}

func (c *googleClient) Analyze(ctx context.Context, req Request) (Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errFmtRateLimiter, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.provider.Model)
	if c.provider.Config.Temperature > 0 {
		model.SetTemperature(c.provider.Config.Temperature)
	}

	if c.provider.Config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.provider.Config.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(promptWithMediaRefs(req)))
	if err != nil {
		return Response{}, fmt.Errorf(errFmtGenerate, fmt.Errorf("%w: %w", pipeerr.ErrLLMCall, err))
	}

	content := googleText(resp)
	if content == "" {
		return Response{}, pipeerr.ErrEmptyResponse
	}

	c.logger.Debug().
		Str(logKeyProvider, c.provider.ID).
		Str(logKeyModel, c.provider.Model).
		Int("content_len", len(content)).
		Msg("llm response received")

	var promptTokens, responseTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		responseTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return Response{
		Raw:    content,
		Parsed: parsePayload(content),
		Tokens: usageOrEstimate(req.Prompt, content, promptTokens, responseTokens),
		Vendor: c.vendor,
		Model:  c.provider.Model,
	}, nil
}

func googleText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}

		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	return strings.TrimSpace(sb.String())
}
