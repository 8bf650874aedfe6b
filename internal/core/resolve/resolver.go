// Package resolve maps the media kinds present in a classified batch to the
// configured LLM provider that will serve each kind, honoring explicit
// per-kind overrides before strategy-based auto-selection.
package resolve

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
)

// Mapping is the ephemeral result of resolution. It is never persisted;
// providers may be toggled between runs, so it is recomputed per run.
type Mapping map[domain.MediaKind]domain.Provider

// Resolver selects providers for media kinds. Given the same registry
// snapshot and scenario it is pure and deterministic.
type Resolver struct {
	logger *zerolog.Logger
}

// New creates a Resolver.
func New(logger *zerolog.Logger) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Resolver{logger: logger}
}

// Resolve returns a provider per requested kind plus a per-kind error map
// for kinds that could not be served. A kind-level failure never aborts
// resolution of the remaining kinds.
func (r *Resolver) Resolve(kinds []domain.MediaKind, scenario *domain.Scenario, registry []domain.Provider) (Mapping, map[domain.MediaKind]error) {
	mapping := make(Mapping, len(kinds))
	failures := make(map[domain.MediaKind]error)

	strategy := domain.StrategyCostEfficient
	if scenario != nil && scenario.Strategy != "" {
		strategy = scenario.Strategy
	}

	multimodal := r.pickMultimodal(strategy, kinds, registry)

	for _, kind := range kinds {
		provider, err := r.resolveKind(kind, scenario, strategy, registry, multimodal)
		if err != nil {
			failures[kind] = err

			r.logger.Debug().
				Str(logKeyKind, string(kind)).
				Err(err).
				Msg("media kind unresolvable, skipping")

			continue
		}

		mapping[kind] = provider
	}

	return mapping, failures
}

// resolveKind applies the resolution order for one kind: explicit override,
// then strategy auto-selection.
func (r *Resolver) resolveKind(
	kind domain.MediaKind,
	scenario *domain.Scenario,
	strategy domain.Strategy,
	registry []domain.Provider,
	multimodal *domain.Provider,
) (domain.Provider, error) {
	if scenario != nil {
		if overrideID, ok := scenario.ProviderOverrides[kind]; ok && overrideID != "" {
			return resolveOverride(kind, overrideID, registry)
		}
	}

	if multimodal != nil && multimodal.Supports(kind) {
		return *multimodal, nil
	}

	switch strategy {
	case domain.StrategyQuality:
		if premium, ok := cheapestCapable(registry, kind, true); ok {
			return premium, nil
		}

		return costEfficient(registry, kind)
	case domain.StrategyCostEfficient, domain.StrategyMultimodal:
		return costEfficient(registry, kind)
	default:
		return costEfficient(registry, kind)
	}
}

// resolveOverride validates an explicit override: it must exist, be active,
// and declare the kind's capability. An invalid override fails the kind with
// ErrProviderMismatch; it never falls back silently to another provider.
func resolveOverride(kind domain.MediaKind, overrideID string, registry []domain.Provider) (domain.Provider, error) {
	for _, p := range registry {
		if p.ID != overrideID {
			continue
		}

		if !p.Active {
			return domain.Provider{}, fmt.Errorf("%w: provider %s is inactive", pipeerr.ErrProviderMismatch, overrideID)
		}

		if !p.Supports(kind) {
			return domain.Provider{}, fmt.Errorf("%w: provider %s lacks %s capability", pipeerr.ErrProviderMismatch, overrideID, kind)
		}

		return p, nil
	}

	return domain.Provider{}, fmt.Errorf("%w: provider %s not in registry", pipeerr.ErrProviderMismatch, overrideID)
}

// pickMultimodal returns the single provider preferred under the multimodal
// strategy: the cheapest active provider that supports every kind present in
// the batch. Nil when the strategy differs or no provider covers all kinds.
func (r *Resolver) pickMultimodal(strategy domain.Strategy, kinds []domain.MediaKind, registry []domain.Provider) *domain.Provider {
	if strategy != domain.StrategyMultimodal || len(kinds) == 0 {
		return nil
	}

	var candidates []domain.Provider

	for _, p := range registry {
		if p.Active && p.SupportsAll(kinds) {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sortByCost(candidates)
	chosen := candidates[0]

	return &chosen
}

// costEfficient picks the lowest-cost active provider supporting the kind.
func costEfficient(registry []domain.Provider, kind domain.MediaKind) (domain.Provider, error) {
	if p, ok := cheapestCapable(registry, kind, false); ok {
		return p, nil
	}

	return domain.Provider{}, fmt.Errorf("%w: %s", pipeerr.ErrNoProviderAvailable, kind)
}

// cheapestCapable returns the cheapest active provider supporting kind.
// With premiumOnly set, only providers flagged premium are considered.
func cheapestCapable(registry []domain.Provider, kind domain.MediaKind, premiumOnly bool) (domain.Provider, bool) {
	var candidates []domain.Provider

	for _, p := range registry {
		if !p.Active || !p.Supports(kind) {
			continue
		}

		if premiumOnly && !p.Premium {
			continue
		}

		candidates = append(candidates, p)
	}

	if len(candidates) == 0 {
		return domain.Provider{}, false
	}

	sortByCost(candidates)

	return candidates[0], true
}

// sortByCost orders providers by per-1K cost, breaking ties on id so that
// resolution stays deterministic across runs.
func sortByCost(providers []domain.Provider) {
	sort.Slice(providers, func(i, j int) bool {
		if providers[i].CostPer1K != providers[j].CostPer1K {
			return providers[i].CostPer1K < providers[j].CostPer1K
		}

		return providers[i].ID < providers[j].ID
	})
}

const logKeyKind = "media_kind"
