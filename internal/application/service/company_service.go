package service

import (
	"context"
	"strings"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/pkg/utils"
)

var logoDocuments = map[string]bool{
	entity.DocumentInvoice:    true,
	entity.DocumentSettlement: true,
	entity.DocumentReport:     true,
}

// CompanyService manages the platform's own company profile
type CompanyService interface {
	GetProfile(ctx context.Context) (*entity.CompanyProfile, error)
	UpdateProfile(ctx context.Context, profile *entity.CompanyProfile) (*entity.CompanyProfile, error)
}

type companyServiceImpl struct {
	companyRepo port.CompanyRepository
	publisher   EventPublisher
	logger      Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo port.CompanyRepository, publisher EventPublisher, logger Logger) CompanyService {
	return &companyServiceImpl{
		companyRepo: companyRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// GetProfile returns the stored profile, or an empty one when none was saved
func (s *companyServiceImpl) GetProfile(ctx context.Context) (*entity.CompanyProfile, error) {
	profile, err := s.companyRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to get company profile", "error", err)
		return nil, err
	}
	if profile == nil {
		return &entity.CompanyProfile{Logos: map[string]string{}}, nil
	}
	return profile, nil
}

// UpdateProfile replaces the profile
func (s *companyServiceImpl) UpdateProfile(ctx context.Context, profile *entity.CompanyProfile) (*entity.CompanyProfile, error) {
	profile.LegalName = strings.TrimSpace(profile.LegalName)
	if profile.LegalName == "" {
		return nil, apperr.Validation(apperr.Field("legal_name"), "legal name is required")
	}
	if profile.IBAN != "" {
		if err := utils.ValidateIBAN(profile.IBAN); err != nil {
			return nil, apperr.Validation(apperr.Field("iban"), "%v", err)
		}
		profile.IBAN = utils.NormalizeIBAN(profile.IBAN)
	}
	if profile.BIC != "" {
		if err := utils.ValidateBIC(profile.BIC); err != nil {
			return nil, apperr.Validation(apperr.Field("bic"), "%v", err)
		}
		profile.BIC = strings.ToUpper(strings.TrimSpace(profile.BIC))
	}
	for doc := range profile.Logos {
		if !logoDocuments[doc] {
			return nil, apperr.Validation(apperr.Field("logos"), "unknown document type %q", doc)
		}
	}

	if err := s.companyRepo.Save(ctx, profile); err != nil {
		s.logger.Error("Failed to save company profile", "error", err)
		return nil, err
	}

	s.logger.Info("Company profile updated", "legal_name", profile.LegalName)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeCompanyProfileUpdated, "company", 1, nil))
	return profile, nil
}
