// Package container provides dependency injection and lifecycle management
// for the settlement engine.
package container

import (
	"fmt"
	"strings"
	"time"

	"github.com/auctify/settlement-engine/internal/domain/money"
	"github.com/auctify/settlement-engine/internal/domain/pricing"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Billing  BillingConfig
	Server   ServerConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file path
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// StorageConfig holds artifact storage configuration.
type StorageConfig struct {
	// ArtifactDir receives payment files and report exports
	ArtifactDir string
}

// BillingConfig holds the invoicing identity and tax settings.
type BillingConfig struct {
	LegalEntity   string
	InvoicePrefix string
	TaxRule       pricing.TaxRule
	CommissionVAT money.Rate
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BatchTimeout   time.Duration
	MaxUploadBytes int64
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// ArtifactPollInterval is how often unwritten payment files are retried.
	// Zero disables the worker.
	ArtifactPollInterval time.Duration
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if err := c.Billing.Validate(); err != nil {
		return fmt.Errorf("billing config: %w", err)
	}
	return nil
}

// Validate checks database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("max open connections must be non-negative")
	}
	return nil
}

// Validate checks storage configuration.
func (c *StorageConfig) Validate() error {
	if c.ArtifactDir == "" {
		return fmt.Errorf("artifact directory is required")
	}
	return nil
}

// Validate checks billing configuration.
func (c *BillingConfig) Validate() error {
	if strings.TrimSpace(c.LegalEntity) == "" {
		return fmt.Errorf("legal entity is required")
	}
	if c.TaxRule == nil {
		return fmt.Errorf("tax rule is required")
	}
	return nil
}
