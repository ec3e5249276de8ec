package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
)

// ActorRepository implements port.ActorRepository
type ActorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActorRepository creates a new actor repository
func NewActorRepository(db *sql.DB, logger *zap.Logger) port.ActorRepository {
	return &ActorRepository{
		db:     db,
		logger: logger,
	}
}

const actorColumns = `id, name, type, email, phone, address, siren_siret, iban, bic, vat_subject, created_at`

// Create creates a new actor
func (r *ActorRepository) Create(ctx context.Context, actor *entity.Actor) error {
	query := `
		INSERT INTO actors (
			name, type, email, phone, address, siren_siret, iban, bic, vat_subject
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		actor.Name,
		actor.Type,
		nullString(actor.Email),
		nullString(actor.Phone),
		nullString(actor.Address),
		nullString(actor.SirenSiret),
		nullString(actor.IBAN),
		nullString(actor.BIC),
		actor.VATSubject,
	)
	if err != nil {
		r.logger.Error("Failed to create actor", zap.String("name", actor.Name), zap.Error(err))
		return fmt.Errorf("failed to create actor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	actor.ID = id
	return nil
}

// GetByID retrieves an actor by ID
func (r *ActorRepository) GetByID(ctx context.Context, id int64) (*entity.Actor, error) {
	return r.getOne(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = ?`, id)
}

// GetByName retrieves the first actor of a type with the exact name
func (r *ActorRepository) GetByName(ctx context.Context, name, actorType string) (*entity.Actor, error) {
	return r.getOne(ctx, `SELECT `+actorColumns+` FROM actors WHERE name = ? AND type = ? ORDER BY id LIMIT 1`,
		strings.TrimSpace(name), actorType)
}

// GetByEmail retrieves the first actor of a type with the email, case-insensitive
func (r *ActorRepository) GetByEmail(ctx context.Context, email, actorType string) (*entity.Actor, error) {
	return r.getOne(ctx, `SELECT `+actorColumns+` FROM actors WHERE lower(email) = lower(?) AND type = ? ORDER BY id LIMIT 1`,
		strings.TrimSpace(email), actorType)
}

// List retrieves actors, optionally restricted to one type
func (r *ActorRepository) List(ctx context.Context, actorType string) ([]*entity.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors WHERE (? = '' OR type = ?) ORDER BY name, id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, actorType, actorType)
	if err != nil {
		r.logger.Error("Failed to list actors", zap.String("type", actorType), zap.Error(err))
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	defer rows.Close()

	var actors []*entity.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, actor)
	}
	return actors, rows.Err()
}

// UpdateBanking updates the payment details and VAT status of an actor
func (r *ActorRepository) UpdateBanking(ctx context.Context, id int64, iban, bic string, vatSubject bool) error {
	query := `UPDATE actors SET iban = ?, bic = ?, vat_subject = ? WHERE id = ?`

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, nullString(iban), nullString(bic), vatSubject, id); err != nil {
		r.logger.Error("Failed to update actor banking", zap.Int64("actor_id", id), zap.Error(err))
		return fmt.Errorf("failed to update actor banking: %w", err)
	}
	return nil
}

// Delete removes an actor
func (r *ActorRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM actors WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete actor", zap.Int64("actor_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete actor: %w", err)
	}
	return nil
}

// CountReferences counts the records that point at the actor
func (r *ActorRepository) CountReferences(ctx context.Context, id int64) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM lot_mappings WHERE seller_id = ?1) +
			(SELECT COUNT(*) FROM reconciliation_results WHERE seller_id = ?1 OR buyer_id = ?1) +
			(SELECT COUNT(*) FROM invoices WHERE buyer_id = ?1) +
			(SELECT COUNT(*) FROM settlements WHERE seller_id = ?1)
	`

	var count int
	if err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		r.logger.Error("Failed to count actor references", zap.Int64("actor_id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to count actor references: %w", err)
	}
	return count, nil
}

func (r *ActorRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.Actor, error) {
	actor, err := scanActor(r.getExecutor(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get actor", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return actor, nil
}

func scanActor(row rowScanner) (*entity.Actor, error) {
	var actor entity.Actor
	var email, phone, address, siret, iban, bic sql.NullString

	err := row.Scan(
		&actor.ID,
		&actor.Name,
		&actor.Type,
		&email,
		&phone,
		&address,
		&siret,
		&iban,
		&bic,
		&actor.VATSubject,
		&actor.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	actor.Email = email.String
	actor.Phone = phone.String
	actor.Address = address.String
	actor.SirenSiret = siret.String
	actor.IBAN = iban.String
	actor.BIC = bic.String
	return &actor, nil
}

func (r *ActorRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.ActorRepository = (*ActorRepository)(nil)
