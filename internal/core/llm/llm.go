// Package llm provides the uniform call interface to LLM provider HTTP APIs
// and the factory mapping configured provider types to concrete clients.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
)

// Request is one analysis call: a rendered prompt plus optional media URLs.
type Request struct {
	Prompt    string
	MediaURLs []string
}

// Response is the parsed outcome of one analysis call.
type Response struct {
	// Raw is the untouched message content returned by the provider.
	Raw string
	// Parsed is the strict-JSON decode of Raw, or {"raw": Raw} when the
	// model produced malformed output. Never nil on success.
	Parsed map[string]any
	Tokens domain.TokenCount
	// Vendor is the effective provider name for billing attribution.
	Vendor string
	// Model is the model id the call was made with.
	Model string
}

// Client is the uniform call interface to a provider's API.
type Client interface {
	Analyze(ctx context.Context, req Request) (Response, error)
}

// SecretResolver resolves a credential reference into the actual secret.
// The registry stores only references; raw secrets never touch the database
// and are re-resolved every run.
type SecretResolver interface {
	Resolve(ref string) (string, error)
}

// EnvSecrets resolves credential references against process environment
// variables.
type EnvSecrets struct{}

// Resolve looks the reference up as an environment variable name.
func (EnvSecrets) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", pipeerr.ErrMissingCredential)
	}

	value, ok := os.LookupEnv(ref)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", pipeerr.ErrMissingCredential, ref)
	}

	return value, nil
}
