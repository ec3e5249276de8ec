package config

import (
	"github.com/auctify/settlement-engine/internal/container"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure. Call it on a validated Config.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	rule, err := c.Billing.Rule()
	if err != nil {
		return nil, err
	}
	commissionVAT, err := money.ParseRate(c.Billing.CommissionVATRate)
	if err != nil {
		return nil, err
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Storage: container.StorageConfig{
			ArtifactDir: c.Storage.ArtifactDir,
		},
		Billing: container.BillingConfig{
			LegalEntity:   c.Billing.LegalEntity,
			InvoicePrefix: c.Billing.InvoicePrefix,
			TaxRule:       rule,
			CommissionVAT: commissionVAT,
		},
		Server: container.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			BatchTimeout:   c.Batch.Timeout,
			MaxUploadBytes: c.Server.MaxUploadBytes,
		},
		Worker: container.WorkerConfig{
			ArtifactPollInterval: c.Worker.ArtifactPollInterval,
		},
	}, nil
}
