package core

import (
	"fmt"
	"strings"
)

// Config is the deployment-time configuration for a ledger/decider pair.
// Runtime mutations happen through the owner-gated setters, not here.
type Config struct {
	ServiceName          string   `koanf:"service_name" mapstructure:"service_name"`
	Owner                string   `koanf:"owner" mapstructure:"owner"`
	SettlementAuthority  string   `koanf:"settlement_authority" mapstructure:"settlement_authority"`
	Treasury             string   `koanf:"treasury" mapstructure:"treasury"`
	SettlementAsset      string   `koanf:"settlement_asset" mapstructure:"settlement_asset"`
	FeeBasisPoints       uint32   `koanf:"fee_basis_points" mapstructure:"fee_basis_points"`
	ToleranceBasisPoints uint32   `koanf:"tolerance_basis_points" mapstructure:"tolerance_basis_points"`
	SupportedAssets      []string `koanf:"supported_assets" mapstructure:"supported_assets"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "escrow",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.FeeBasisPoints > MaxBasisPoints {
		return fmt.Errorf("core: fee_basis_points must be <= %d", MaxBasisPoints)
	}
	if c.ToleranceBasisPoints > MaxBasisPoints {
		return fmt.Errorf("core: tolerance_basis_points must be <= %d", MaxBasisPoints)
	}
	return nil
}

func (c Config) ledgerConfig() LedgerConfig {
	cfg := LedgerConfig{
		Owner:               normalizeIdentity(c.Owner),
		SettlementAuthority: normalizeIdentity(c.SettlementAuthority),
		Treasury:            normalizeIdentity(c.Treasury),
		SettlementAsset:     normalizeAsset(c.SettlementAsset),
		FeeBasisPoints:      c.FeeBasisPoints,
		SupportedAssets:     make(map[string]struct{}, len(c.SupportedAssets)),
	}
	for _, asset := range c.SupportedAssets {
		if normalized := normalizeAsset(asset); normalized != "" {
			cfg.SupportedAssets[normalized] = struct{}{}
		}
	}
	return cfg
}
