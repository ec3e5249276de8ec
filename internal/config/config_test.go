package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctify/settlement-engine/internal/domain/pricing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, `
server:
  port: 9090
billing:
  legal_entity: AUCTIFY-FR
  tax_rule: standard
  vat_rate: "0.055"
batch:
  timeout: 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/settlement.db", cfg.Database.Path)
	assert.Equal(t, "AUCTIFY-FR", cfg.Billing.LegalEntity)
	assert.Equal(t, "FA", cfg.Billing.InvoicePrefix)
	assert.Equal(t, 2*time.Minute, cfg.Batch.Timeout)
	assert.Equal(t, time.Minute, cfg.Worker.ArtifactPollInterval)

	rule, err := cfg.Billing.Rule()
	require.NoError(t, err)
	assert.Equal(t, pricing.RuleStandard, rule.Name())

	cc, err := cfg.ToContainerConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cc.Server.BatchTimeout)
	assert.Equal(t, "0.2", cc.Billing.CommissionVAT.String())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SETTLEMENT_LEGAL_ENTITY", "FROM-ENV")

	cfg, err := Load(writeConfig(t, "logger:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "FROM-ENV", cfg.Billing.LegalEntity)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Path: "x.db"},
			Storage:  StorageConfig{ArtifactDir: "artifacts"},
			Billing: BillingConfig{
				LegalEntity:       "AUCTIFY-FR",
				Currency:          "EUR",
				TaxRule:           pricing.RulePremiumOnly,
				VATRate:           "0.20",
				CommissionVATRate: "0.20",
			},
			Batch: BatchConfig{Timeout: time.Second},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing legal entity", func(c *Config) { c.Billing.LegalEntity = " " }},
		{"foreign currency", func(c *Config) { c.Billing.Currency = "USD" }},
		{"unknown tax rule", func(c *Config) { c.Billing.TaxRule = "flat" }},
		{"rate above one", func(c *Config) { c.Billing.VATRate = "20" }},
		{"bad commission rate", func(c *Config) { c.Billing.CommissionVATRate = "abc" }},
		{"no timeout", func(c *Config) { c.Batch.Timeout = 0 }},
		{"no database", func(c *Config) { c.Database.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
