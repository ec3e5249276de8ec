package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
)

const invoiceColumns = `id, sale_id, buyer_id, buyer_name, legal_entity, year, sequence, number, tax_rule,
	total_excl, total_vat, total_incl, status, signature_date, hash, previous_hash, created_at`

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a draft invoice together with its lines
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			sale_id, buyer_id, buyer_name, legal_entity, tax_rule,
			total_excl, total_vat, total_incl, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := r.getExecutor(ctx)
	now := time.Now().UTC()
	result, err := exec.ExecContext(ctx, query,
		invoice.SaleID,
		invoice.BuyerID,
		invoice.BuyerName,
		invoice.LegalEntity,
		invoice.TaxRule,
		invoice.TotalExcl,
		invoice.TotalVAT,
		invoice.TotalIncl,
		invoice.Status,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice",
			zap.Int64("sale_id", invoice.SaleID),
			zap.Int64("buyer_id", invoice.BuyerID),
			zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	invoice.ID = id
	invoice.CreatedAt = now

	lineQuery := `
		INSERT INTO invoice_lines (
			invoice_id, lot_number, description, seller_id, hammer_price, premium,
			line_total, taxable_base, vat_rate, vat
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, line := range invoice.Lines {
		result, err := exec.ExecContext(ctx, lineQuery,
			invoice.ID,
			line.LotNumber,
			line.Description,
			line.SellerID,
			line.HammerPrice,
			line.Premium,
			line.LineTotal,
			line.TaxableBase,
			line.VATRate,
			line.VAT,
		)
		if err != nil {
			r.logger.Error("Failed to create invoice line",
				zap.Int64("invoice_id", invoice.ID),
				zap.Int("lot_number", line.LotNumber),
				zap.Error(err))
			return fmt.Errorf("failed to create invoice line: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			line.ID = id
		}
		line.InvoiceID = invoice.ID
	}

	r.logger.Info("Invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.Int64("buyer_id", invoice.BuyerID),
		zap.Int("lines", len(invoice.Lines)))
	return nil
}

// GetByID retrieves an invoice with its lines
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

	invoice, err := scanInvoice(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.Int64("invoice_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	lines, err := r.listLines(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	invoice.Lines = lines[id]
	return invoice, nil
}

// ListBySale retrieves every invoice of a sale with its lines
func (r *InvoiceRepository) ListBySale(ctx context.Context, saleID int64) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE sale_id = ? ORDER BY buyer_name, id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, saleID)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	var invoices []*entity.Invoice
	var ids []int64
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
		ids = append(ids, invoice.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	lines, err := r.listLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, invoice := range invoices {
		invoice.Lines = lines[invoice.ID]
	}
	return invoices, nil
}

// MarkIssued writes the number, signature date and hash of a draft and freezes it
func (r *InvoiceRepository) MarkIssued(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET year = ?, sequence = ?, number = ?, status = ?, signature_date = ?, hash = ?, previous_hash = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		invoice.Year,
		invoice.Sequence,
		invoice.Number,
		entity.InvoiceStatusIssued,
		nullTime(invoice.SignatureDate),
		invoice.Hash,
		invoice.PreviousHash,
		invoice.ID,
		entity.InvoiceStatusDraft,
	)
	if err != nil {
		r.logger.Error("Failed to issue invoice", zap.Int64("invoice_id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to issue invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.ConcurrencyConflict(apperr.Invoice(invoice.ID), "invoice is no longer a draft")
	}

	invoice.Status = entity.InvoiceStatusIssued
	return nil
}

// NextSequence reserves the next number of (legal entity, year). It must run
// inside the issuing transaction so a rollback gives the number back.
func (r *InvoiceRepository) NextSequence(ctx context.Context, legalEntity string, year int) (int64, error) {
	query := `
		INSERT INTO invoice_sequences (legal_entity, year, last_value) VALUES (?, ?, 1)
		ON CONFLICT (legal_entity, year) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value
	`

	var next int64
	if err := r.getExecutor(ctx).QueryRowContext(ctx, query, legalEntity, year).Scan(&next); err != nil {
		r.logger.Error("Failed to reserve invoice number",
			zap.String("legal_entity", legalEntity),
			zap.Int("year", year),
			zap.Error(err))
		return 0, fmt.Errorf("failed to reserve invoice number: %w", err)
	}
	return next, nil
}

// LastIssuedHash returns the hash at the head of the legal entity's chain
func (r *InvoiceRepository) LastIssuedHash(ctx context.Context, legalEntity string) (string, error) {
	query := `
		SELECT hash FROM invoices
		WHERE legal_entity = ? AND status = ?
		ORDER BY year DESC, sequence DESC
		LIMIT 1
	`

	var hash sql.NullString
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, legalEntity, entity.InvoiceStatusIssued).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get last invoice hash", zap.String("legal_entity", legalEntity), zap.Error(err))
		return "", fmt.Errorf("failed to get last invoice hash: %w", err)
	}
	return hash.String, nil
}

func (r *InvoiceRepository) listLines(ctx context.Context, invoiceIDs []int64) (map[int64][]*entity.InvoiceLine, error) {
	lines := make(map[int64][]*entity.InvoiceLine, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return lines, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(invoiceIDs)), ",")
	query := `
		SELECT id, invoice_id, lot_number, description, seller_id, hammer_price, premium,
			line_total, taxable_base, vat_rate, vat
		FROM invoice_lines
		WHERE invoice_id IN (` + placeholders + `)
		ORDER BY invoice_id, lot_number
	`
	args := make([]interface{}, len(invoiceIDs))
	for i, id := range invoiceIDs {
		args[i] = id
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoice lines", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line entity.InvoiceLine
		if err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&line.LotNumber,
			&line.Description,
			&line.SellerID,
			&line.HammerPrice,
			&line.Premium,
			&line.LineTotal,
			&line.TaxableBase,
			&line.VATRate,
			&line.VAT,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		lines[line.InvoiceID] = append(lines[line.InvoiceID], &line)
	}
	return lines, rows.Err()
}

func (r *InvoiceRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var year, sequence sql.NullInt64
	var number, hash, previousHash sql.NullString
	var signatureDate sql.NullTime

	err := row.Scan(
		&invoice.ID,
		&invoice.SaleID,
		&invoice.BuyerID,
		&invoice.BuyerName,
		&invoice.LegalEntity,
		&year,
		&sequence,
		&number,
		&invoice.TaxRule,
		&invoice.TotalExcl,
		&invoice.TotalVAT,
		&invoice.TotalIncl,
		&invoice.Status,
		&signatureDate,
		&hash,
		&previousHash,
		&invoice.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Year = int(year.Int64)
	invoice.Sequence = sequence.Int64
	invoice.Number = number.String
	invoice.SignatureDate = timePtr(signatureDate)
	invoice.Hash = hash.String
	invoice.PreviousHash = previousHash.String
	return &invoice, nil
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
