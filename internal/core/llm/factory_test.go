package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

type staticSecrets struct{}

func (staticSecrets) Resolve(string) (string, error) { return "test-key", nil }

func TestClientForUnknownTypeFallsBackToOpenAICompatible(t *testing.T) {
	factory := NewFactory(staticSecrets{}, FactoryOptions{}, nil)

	client, err := factory.ClientFor(context.Background(), domain.Provider{
		ID:       "gateway",
		Type:     domain.ProviderType("litellm-proxy"),
		Model:    "some-model",
		Endpoint: "https://gateway.internal/v1",
	})
	require.NoError(t, err)

	compatible, ok := client.(*openaiClient)
	require.True(t, ok)
	assert.Equal(t, "gateway.internal", compatible.vendor)
}
