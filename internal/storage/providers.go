package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// ListProviders returns the full provider registry, active and inactive.
// Resolution filters on the Active flag itself.
func (d *DB) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, name, provider_type, capabilities, endpoint, credential_ref,
			model, active, cost_per_1k, premium, config
		FROM providers
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf(errFmtQuery, "providers", err)
	}
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		var (
			p            domain.Provider
			providerType string
			capabilities []string
			configJSON   []byte
		)
		if err = rows.Scan(&p.ID, &p.Name, &providerType, &capabilities, &p.Endpoint,
			&p.CredentialRef, &p.Model, &p.Active, &p.CostPer1K, &p.Premium, &configJSON); err != nil {
			return nil, fmt.Errorf(errFmtScan, "provider", err)
		}
		p.Type = domain.ProviderType(providerType)
		p.Capabilities = toMediaKinds(capabilities)
		if len(configJSON) > 0 {
			if err = json.Unmarshal(configJSON, &p.Config); err != nil {
				return nil, fmt.Errorf(errFmtUnmarshal, "provider config", err)
			}
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// UpsertProvider inserts or replaces a registry entry keyed by id.
func (d *DB) UpsertProvider(ctx context.Context, p domain.Provider) error {
	configJSON, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf(errFmtMarshal, "provider config", err)
	}
	_, err = d.Pool.Exec(ctx, `
		INSERT INTO providers (id, name, provider_type, capabilities, endpoint,
			credential_ref, model, active, cost_per_1k, premium, config)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			provider_type = EXCLUDED.provider_type,
			capabilities = EXCLUDED.capabilities,
			endpoint = EXCLUDED.endpoint,
			credential_ref = EXCLUDED.credential_ref,
			model = EXCLUDED.model,
			active = EXCLUDED.active,
			cost_per_1k = EXCLUDED.cost_per_1k,
			premium = EXCLUDED.premium,
			config = EXCLUDED.config,
			updated_at = now()`,
		p.ID, p.Name, string(p.Type), fromMediaKinds(p.Capabilities), p.Endpoint,
		p.CredentialRef, p.Model, p.Active, p.CostPer1K, p.Premium, configJSON)
	if err != nil {
		return fmt.Errorf(errFmtExec, "upsert provider", err)
	}
	return nil
}

func toMediaKinds(values []string) []domain.MediaKind {
	if len(values) == 0 {
		return nil
	}
	kinds := make([]domain.MediaKind, 0, len(values))
	for _, v := range values {
		kinds = append(kinds, domain.MediaKind(v))
	}
	return kinds
}

func fromMediaKinds(kinds []domain.MediaKind) []string {
	values := make([]string, 0, len(kinds))
	for _, k := range kinds {
		values = append(values, string(k))
	}
	return values
}
