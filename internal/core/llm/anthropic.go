package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
)

// anthropicClient serves providers with the Anthropic Messages wire format.
// Media URLs are passed as reference lines in the prompt; the Messages API
// has no remote-URL attachment type common to all Claude models.
type anthropicClient struct {
	provider    domain.Provider
	client      anthropic.Client
	vendor      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func newAnthropicClient(p domain.Provider, apiKey string, timeout time.Duration, rps int, logger *zerolog.Logger) *anthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if p.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(p.Endpoint))
	}

	if rps <= 0 {
		rps = defaultRateLimiterRPS
	}

	return &anthropicClient{
		provider:    p,
		client:      anthropic.NewClient(opts...),
		vendor:      EffectiveVendor(p),
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
		logger:      logger,
	}
}

func (c *anthropicClient) Analyze(ctx context.Context, req Request) (Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errFmtRateLimiter, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := int64(c.provider.Config.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.provider.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptWithMediaRefs(req))),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf(errFmtMessageCall, fmt.Errorf("%w: %w", pipeerr.ErrLLMCall, err))
	}

	content := anthropicText(resp)
	if content == "" {
		return Response{}, pipeerr.ErrEmptyResponse
	}

	c.logger.Debug().
		Str(logKeyProvider, c.provider.ID).
		Str(logKeyModel, c.provider.Model).
		Int("content_len", len(content)).
		Msg("llm response received")

	return Response{
		Raw:    content,
		Parsed: parsePayload(content),
		Tokens: usageOrEstimate(req.Prompt, content, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)),
		Vendor: c.vendor,
		Model:  c.provider.Model,
	}, nil
}

func anthropicText(resp *anthropic.Message) string {
	var sb strings.Builder

	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(sb.String())
}

// promptWithMediaRefs appends media URLs to the prompt as a reference list.
func promptWithMediaRefs(req Request) string {
	if len(req.MediaURLs) == 0 {
		return req.Prompt
	}

	var sb strings.Builder

	sb.WriteString(req.Prompt)
	sb.WriteString("\n\nMedia to analyze:\n")

	for _, u := range req.MediaURLs {
		sb.WriteString("- ")
		sb.WriteString(u)
		sb.WriteString("\n")
	}

	return sb.String()
}
