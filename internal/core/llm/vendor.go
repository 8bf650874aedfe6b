package llm

import (
	"net/url"
	"strings"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// hostVendors maps endpoint host fragments to vendor names. Used to resolve
// the effective vendor when a registry entry carries a generic custom type
// (for example an OpenAI-compatible gateway fronting a known vendor).
//
//nolint:gochecknoglobals
var hostVendors = []struct {
	fragment string
	vendor   string
}{
	{"openai.com", "openai"},
	{"anthropic.com", "anthropic"},
	{"googleapis.com", "google"},
	{"openrouter.ai", "openrouter"},
	{"deepseek.com", "deepseek"},
	{"mistral.ai", "mistral"},
	{"together.xyz", "together"},
	{"groq.com", "groq"},
}

// EffectiveVendor returns the provider name persisted for billing and
// attribution. Known type tags map directly; custom/unknown tags are
// inferred from the endpoint host, falling back to the raw tag.
func EffectiveVendor(p domain.Provider) string {
	switch p.Type {
	case domain.ProviderTypeOpenAI:
		return "openai"
	case domain.ProviderTypeAnthropic:
		return "anthropic"
	case domain.ProviderTypeGoogle:
		return "google"
	default:
	}

	if host := endpointHost(p.Endpoint); host != "" {
		for _, hv := range hostVendors {
			if strings.Contains(host, hv.fragment) {
				return hv.vendor
			}
		}

		return host
	}

	if p.Type != "" {
		return string(p.Type)
	}

	return "custom"
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}

	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
