package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
)

// CompanyRepository implements port.CompanyRepository on the singleton row
type CompanyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company profile repository
func NewCompanyRepository(db *sql.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the company profile
func (r *CompanyRepository) Get(ctx context.Context) (*entity.CompanyProfile, error) {
	query := `
		SELECT legal_name, siret, address, iban, bic, logos, legal_footer, updated_at
		FROM company_profile WHERE id = 1
	`

	var profile entity.CompanyProfile
	var logos string
	err := r.getExecutor(ctx).QueryRowContext(ctx, query).Scan(
		&profile.LegalName,
		&profile.SIRET,
		&profile.Address,
		&profile.IBAN,
		&profile.BIC,
		&logos,
		&profile.LegalFooter,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company profile", zap.Error(err))
		return nil, fmt.Errorf("failed to get company profile: %w", err)
	}

	if err := json.Unmarshal([]byte(logos), &profile.Logos); err != nil {
		return nil, fmt.Errorf("failed to decode logos: %w", err)
	}
	return &profile, nil
}

// Save upserts the company profile
func (r *CompanyRepository) Save(ctx context.Context, profile *entity.CompanyProfile) error {
	logos := profile.Logos
	if logos == nil {
		logos = map[string]string{}
	}
	logosJSON, err := json.Marshal(logos)
	if err != nil {
		return fmt.Errorf("failed to encode logos: %w", err)
	}

	query := `
		INSERT INTO company_profile (id, legal_name, siret, address, iban, bic, logos, legal_footer, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			legal_name = excluded.legal_name,
			siret = excluded.siret,
			address = excluded.address,
			iban = excluded.iban,
			bic = excluded.bic,
			logos = excluded.logos,
			legal_footer = excluded.legal_footer,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err = r.getExecutor(ctx).ExecContext(ctx, query,
		profile.LegalName,
		profile.SIRET,
		profile.Address,
		profile.IBAN,
		profile.BIC,
		string(logosJSON),
		profile.LegalFooter,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to save company profile", zap.Error(err))
		return fmt.Errorf("failed to save company profile: %w", err)
	}

	profile.UpdatedAt = now
	r.logger.Info("Company profile saved", zap.String("legal_name", profile.LegalName))
	return nil
}

func (r *CompanyRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.CompanyRepository = (*CompanyRepository)(nil)
