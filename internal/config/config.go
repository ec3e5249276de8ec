package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/auctify/settlement-engine/internal/domain/money"
	"github.com/auctify/settlement-engine/internal/domain/pricing"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// StorageConfig holds artifact storage configuration
type StorageConfig struct {
	ArtifactDir string `mapstructure:"artifact_dir"`
}

// BillingConfig holds the invoicing identity and tax settings
type BillingConfig struct {
	LegalEntity   string `mapstructure:"legal_entity"`
	InvoicePrefix string `mapstructure:"invoice_prefix"`
	Currency      string `mapstructure:"currency"`
	TaxRule       string `mapstructure:"tax_rule"`

	// VATRate applies to invoice lines; CommissionVATRate to seller commissions
	VATRate           string `mapstructure:"vat_rate"`
	CommissionVATRate string `mapstructure:"commission_vat_rate"`
}

// WorkerConfig tunes background workers
type WorkerConfig struct {
	ArtifactPollInterval time.Duration `mapstructure:"artifact_poll_interval"`
}

// BatchConfig bounds batch operations
type BatchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from file and environment variables. A .env file
// next to the working directory is loaded first when present; variables
// already set in the environment win.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.max_upload_bytes", 20<<20)

	// Database defaults
	viper.SetDefault("database.path", "data/settlement.db")
	viper.SetDefault("database.max_open_conns", 1)
	viper.SetDefault("database.max_idle_conns", 1)
	viper.SetDefault("database.conn_max_lifetime", 0)
	viper.SetDefault("database.busy_timeout", 5*time.Second)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")

	// Storage defaults
	viper.SetDefault("storage.artifact_dir", "data/artifacts")

	// Billing defaults
	viper.SetDefault("billing.invoice_prefix", "FA")
	viper.SetDefault("billing.currency", "EUR")
	viper.SetDefault("billing.tax_rule", pricing.RulePremiumOnly)
	viper.SetDefault("billing.vat_rate", "0.20")
	viper.SetDefault("billing.commission_vat_rate", "0.20")

	// Batch defaults
	viper.SetDefault("batch.timeout", 45*time.Second)

	// Worker defaults
	viper.SetDefault("worker.artifact_poll_interval", time.Minute)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("database.path", "SETTLEMENT_DB_PATH")
	viper.BindEnv("storage.artifact_dir", "SETTLEMENT_ARTIFACT_DIR")
	viper.BindEnv("billing.legal_entity", "SETTLEMENT_LEGAL_ENTITY")
	viper.BindEnv("server.port", "PORT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.ArtifactDir == "" {
		return fmt.Errorf("storage.artifact_dir is required")
	}
	if strings.TrimSpace(c.Billing.LegalEntity) == "" {
		return fmt.Errorf("billing.legal_entity is required")
	}
	if !strings.EqualFold(c.Billing.Currency, "EUR") {
		return fmt.Errorf("billing.currency %q is not supported, only EUR", c.Billing.Currency)
	}
	if _, err := c.Billing.Rule(); err != nil {
		return fmt.Errorf("billing: %w", err)
	}
	if _, err := money.ParseRate(c.Billing.CommissionVATRate); err != nil {
		return fmt.Errorf("billing.commission_vat_rate: %w", err)
	}
	if c.Batch.Timeout <= 0 {
		return fmt.Errorf("batch.timeout must be positive")
	}
	return nil
}

// Rule builds the configured tax rule
func (b BillingConfig) Rule() (pricing.TaxRule, error) {
	rate, err := money.ParseRate(b.VATRate)
	if err != nil {
		return nil, fmt.Errorf("vat_rate: %w", err)
	}
	return pricing.RuleByName(b.TaxRule, rate)
}
