package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// Factory maps a provider's type tag to a concrete client. Unknown and
// custom types fall back to the OpenAI-compatible client so third-party
// gateways work without bespoke code.
type Factory struct {
	secrets SecretResolver
	timeout time.Duration
	rps     int
	logger  *zerolog.Logger
}

// FactoryOptions tunes per-call behavior for clients the factory builds.
type FactoryOptions struct {
	// CallTimeout bounds every individual LLM call.
	CallTimeout time.Duration
	// RateLimitRPS is the per-client request rate.
	RateLimitRPS int
}

// NewFactory creates a client factory. A nil secrets resolver defaults to
// environment lookup.
func NewFactory(secrets SecretResolver, opts FactoryOptions, logger *zerolog.Logger) *Factory {
	if secrets == nil {
		secrets = EnvSecrets{}
	}

	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Factory{
		secrets: secrets,
		timeout: opts.CallTimeout,
		rps:     opts.RateLimitRPS,
		logger:  logger,
	}
}

// ClientFor builds a client for the provider, resolving its credential
// reference at call time. Credentials are never cached across runs.
func (f *Factory) ClientFor(ctx context.Context, p domain.Provider) (Client, error) {
	apiKey, err := f.secrets.Resolve(p.CredentialRef)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.ID, err)
	}

	switch p.Type {
	case domain.ProviderTypeAnthropic:
		return newAnthropicClient(p, apiKey, f.timeout, f.rps, f.logger), nil
	case domain.ProviderTypeGoogle:
		return newGoogleClient(ctx, p, apiKey, f.timeout, f.rps, f.logger)
	case domain.ProviderTypeOpenAI, domain.ProviderTypeCustom:
		return newOpenAIClient(p, apiKey, f.timeout, f.rps, f.logger), nil
	default:
		// Unknown tags degrade gracefully to the OpenAI-compatible client.
		f.logger.Debug().
			Str(logKeyProvider, p.ID).
			Str("provider_type", string(p.Type)).
			Str(logKeyVendor, EffectiveVendor(p)).
			Msg("unknown provider type, using openai-compatible client")

		return newOpenAIClient(p, apiKey, f.timeout, f.rps, f.logger), nil
	}
}
