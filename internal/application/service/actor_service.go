package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/pkg/utils"
)

// ActorService manages sellers and buyers
type ActorService interface {
	CreateActor(ctx context.Context, actor *entity.Actor) (*entity.Actor, error)
	GetActor(ctx context.Context, id int64) (*entity.Actor, error)
	ListActors(ctx context.Context, actorType string) ([]*entity.Actor, error)
	UpdateBanking(ctx context.Context, id int64, iban, bic string, vatSubject bool) (*entity.Actor, error)
	DeleteActor(ctx context.Context, id int64) error
}

type actorServiceImpl struct {
	actorRepo port.ActorRepository
	txManager port.TransactionManager
	publisher EventPublisher
	logger    Logger
}

// NewActorService creates a new ActorService
func NewActorService(
	actorRepo port.ActorRepository,
	txManager port.TransactionManager,
	publisher EventPublisher,
	logger Logger,
) ActorService {
	return &actorServiceImpl{
		actorRepo: actorRepo,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateActor validates and stores an actor
func (s *actorServiceImpl) CreateActor(ctx context.Context, actor *entity.Actor) (*entity.Actor, error) {
	actor.Name = strings.TrimSpace(utils.SanitizeString(actor.Name))
	if actor.Name == "" {
		return nil, apperr.Validation(apperr.Field("name"), "actor name is required")
	}
	if actor.Type != entity.ActorTypeSeller && actor.Type != entity.ActorTypeBuyer {
		return nil, apperr.Validation(apperr.Field("type"), "unknown actor type %q", actor.Type)
	}
	actor.Email = strings.TrimSpace(actor.Email)
	if actor.Email != "" {
		if err := utils.ValidateEmail(actor.Email); err != nil {
			return nil, apperr.Validation(apperr.Field("email"), "%v", err)
		}
	}
	if actor.SirenSiret != "" {
		if err := utils.ValidateSiret(actor.SirenSiret); err != nil {
			return nil, apperr.Validation(apperr.Field("siren_siret"), "%v", err)
		}
	}
	if err := validateBanking(actor.IBAN, actor.BIC); err != nil {
		return nil, err
	}
	actor.IBAN = utils.NormalizeIBAN(actor.IBAN)
	actor.BIC = strings.ToUpper(strings.TrimSpace(actor.BIC))

	if err := s.actorRepo.Create(ctx, actor); err != nil {
		s.logger.Error("Failed to create actor", "error", err, "name", actor.Name)
		return nil, err
	}

	s.logger.Info("Actor created", "actor_id", actor.ID, "type", actor.Type)
	return actor, nil
}

// GetActor retrieves an actor or reports it missing
func (s *actorServiceImpl) GetActor(ctx context.Context, id int64) (*entity.Actor, error) {
	actor, err := s.actorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return nil, apperr.NotFound(apperr.Actor(id))
	}
	return actor, nil
}

// ListActors lists actors of one type, or all when actorType is empty
func (s *actorServiceImpl) ListActors(ctx context.Context, actorType string) ([]*entity.Actor, error) {
	actorType = strings.ToUpper(strings.TrimSpace(actorType))
	if actorType != "" && actorType != entity.ActorTypeSeller && actorType != entity.ActorTypeBuyer {
		return nil, apperr.Validation(apperr.Field("type"), "unknown actor type %q", actorType)
	}
	return s.actorRepo.List(ctx, actorType)
}

// UpdateBanking sets the bank details used by payment files
func (s *actorServiceImpl) UpdateBanking(ctx context.Context, id int64, iban, bic string, vatSubject bool) (*entity.Actor, error) {
	if err := validateBanking(iban, bic); err != nil {
		return nil, err
	}

	var actor *entity.Actor
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if actor, err = s.GetActor(txCtx, id); err != nil {
			return err
		}

		actor.IBAN = utils.NormalizeIBAN(iban)
		actor.BIC = strings.ToUpper(strings.TrimSpace(bic))
		actor.VATSubject = vatSubject
		return s.actorRepo.UpdateBanking(txCtx, id, actor.IBAN, actor.BIC, vatSubject)
	})
	if err != nil {
		s.logger.Error("Failed to update banking details", "error", err, "actor_id", id)
		return nil, err
	}

	s.logger.Info("Banking details updated", "actor_id", id)
	return actor, nil
}

// DeleteActor removes an actor nothing refers to
func (s *actorServiceImpl) DeleteActor(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.GetActor(txCtx, id); err != nil {
			return err
		}

		refs, err := s.actorRepo.CountReferences(txCtx, id)
		if err != nil {
			return fmt.Errorf("count references: %w", err)
		}
		if refs > 0 {
			return apperr.ImmutableState(apperr.Actor(id), "actor is referenced by %d mapping, result, invoice or settlement rows", refs)
		}
		return s.actorRepo.Delete(txCtx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete actor", "error", err, "actor_id", id)
		return err
	}

	s.logger.Info("Actor deleted", "actor_id", id)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeActorDeleted, "actor", id, nil))
	return nil
}

// validateBanking checks optional bank details; empty values are allowed
func validateBanking(iban, bic string) error {
	if strings.TrimSpace(iban) != "" {
		if err := utils.ValidateIBAN(iban); err != nil {
			return apperr.Validation(apperr.Field("iban"), "%v", err)
		}
	}
	if strings.TrimSpace(bic) != "" {
		if err := utils.ValidateBIC(bic); err != nil {
			return apperr.Validation(apperr.Field("bic"), "%v", err)
		}
	}
	return nil
}
