package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/internal/domain/money"
	"github.com/auctify/settlement-engine/internal/domain/settlement"
	"github.com/auctify/settlement-engine/internal/domain/workflow"
	"github.com/auctify/settlement-engine/pkg/utils"
)

// SettlementSettings holds the rates and clock used when settling sellers
type SettlementSettings struct {
	CommissionVAT money.Rate

	// Now is the clock used for status timestamps; time.Now when nil
	Now func() time.Time
}

// ComputeResult summarises a settlement computation
type ComputeResult struct {
	SaleID      int64                `json:"sale_id"`
	Settlements []*entity.Settlement `json:"settlements"`
	Problems    []apperr.ItemError   `json:"problems"`
}

// ExportResult summarises a payment file export
type ExportResult struct {
	Batch    *entity.PaymentBatch `json:"batch"`
	Included []int64              `json:"included"`
	Skipped  []apperr.ItemError   `json:"skipped"`
}

// SettlementService computes seller settlements and exports them as payment files
type SettlementService interface {
	ComputeSettlements(ctx context.Context, saleID int64) (*ComputeResult, error)
	ForceCorrection(ctx context.Context, saleID, sellerID int64) (*entity.Settlement, error)
	MarkPaid(ctx context.Context, id int64) (*entity.Settlement, error)
	ExportSEPA(ctx context.Context, saleID int64, executionDate time.Time) (*ExportResult, error)
	PaymentBatchXML(ctx context.Context, batchID int64) ([]byte, error)
	ListSettlements(ctx context.Context, saleID int64) ([]*entity.Settlement, error)
	ListPaymentBatches(ctx context.Context, saleID int64) ([]*entity.PaymentBatch, error)
}

type settlementServiceImpl struct {
	saleRepo       port.SaleRepository
	actorRepo      port.ActorRepository
	resultRepo     port.ReconciliationRepository
	settlementRepo port.SettlementRepository
	batchRepo      port.PaymentBatchRepository
	companyRepo    port.CompanyRepository
	txManager      port.TransactionManager
	encoder        port.PaymentFileEncoder
	artifacts      port.ArtifactStore
	locks          *SaleLocks
	settings       SettlementSettings
	publisher      EventPublisher
	logger         Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	saleRepo port.SaleRepository,
	actorRepo port.ActorRepository,
	resultRepo port.ReconciliationRepository,
	settlementRepo port.SettlementRepository,
	batchRepo port.PaymentBatchRepository,
	companyRepo port.CompanyRepository,
	txManager port.TransactionManager,
	encoder port.PaymentFileEncoder,
	artifacts port.ArtifactStore,
	locks *SaleLocks,
	settings SettlementSettings,
	publisher EventPublisher,
	logger Logger,
) SettlementService {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &settlementServiceImpl{
		saleRepo:       saleRepo,
		actorRepo:      actorRepo,
		resultRepo:     resultRepo,
		settlementRepo: settlementRepo,
		batchRepo:      batchRepo,
		companyRepo:    companyRepo,
		txManager:      txManager,
		encoder:        encoder,
		artifacts:      artifacts,
		locks:          locks,
		settings:       settings,
		publisher:      publisher,
		logger:         logger,
	}
}

// ComputeSettlements replaces the PENDING settlements of a sale with freshly
// computed ones. Sellers already exported or paid keep their settlements and
// are reported; the call then fails with ErrImmutableState after committing
// the others.
func (s *settlementServiceImpl) ComputeSettlements(ctx context.Context, saleID int64) (*ComputeResult, error) {
	release, err := s.locks.TryLock(saleID, "settlement computation")
	if err != nil {
		return nil, err
	}
	defer release()

	s.logger.Info("Settlement computation started", "sale_id", saleID)

	result := &ComputeResult{SaleID: saleID}
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		sale, totals, err := s.sellerTotals(txCtx, saleID)
		if err != nil {
			return err
		}
		if err := requireOpen(sale); err != nil {
			return err
		}

		existing, err := s.settlementRepo.ListBySale(txCtx, saleID)
		if err != nil {
			return fmt.Errorf("list settlements: %w", err)
		}
		committed := make(map[int64]bool)
		pending := make(map[int64]bool)
		for _, st := range existing {
			if st.IsCommitted() {
				committed[st.SellerID] = true
			} else {
				pending[st.SellerID] = true
			}
		}

		computed := make(map[int64]bool, len(totals))
		for _, total := range totals {
			computed[total.SellerID] = true
			if committed[total.SellerID] {
				result.Problems = append(result.Problems, apperr.Item(apperr.ImmutableState(apperr.Seller(total.SellerID),
					"seller %s already has an exported or paid settlement; use a correction", total.SellerName)))
				continue
			}

			if err := s.settlementRepo.DeletePending(txCtx, saleID, total.SellerID); err != nil {
				return err
			}
			st := settlement.ToSettlement(saleID, entity.SettlementKindRegular, total)
			if err := s.settlementRepo.Create(txCtx, st); err != nil {
				return fmt.Errorf("create settlement for seller %d: %w", total.SellerID, err)
			}
			result.Settlements = append(result.Settlements, st)
		}

		// sellers that no longer have a sold lot lose their stale pending settlement
		for sellerID := range pending {
			if !computed[sellerID] {
				if err := s.settlementRepo.DeletePending(txCtx, saleID, sellerID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Settlement computation failed", "error", err, "sale_id", saleID)
		return nil, err
	}

	logProblems(s.logger, "settlement computation", result.Problems)
	s.logger.Info("Settlement computation completed",
		"sale_id", saleID,
		"settlements", len(result.Settlements),
		"rejected", len(result.Problems),
	)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeSettlementsComputed, "sale", saleID, map[string]interface{}{
		"settlements": len(result.Settlements),
		"rejected":    len(result.Problems),
	}))

	if len(result.Problems) > 0 {
		return result, fmt.Errorf("%d sellers already settled: %w", len(result.Problems), apperr.ErrImmutableState)
	}
	return result, nil
}

// ForceCorrection creates a PENDING CORRECTION settlement carrying the
// difference between the recomputed and the committed amounts of a seller
func (s *settlementServiceImpl) ForceCorrection(ctx context.Context, saleID, sellerID int64) (*entity.Settlement, error) {
	release, err := s.locks.TryLock(saleID, "settlement correction")
	if err != nil {
		return nil, err
	}
	defer release()

	var correction *entity.Settlement
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		sale, totals, err := s.sellerTotals(txCtx, saleID)
		if err != nil {
			return err
		}
		if err := requireOpen(sale); err != nil {
			return err
		}

		existing, err := s.settlementRepo.ListBySale(txCtx, saleID)
		if err != nil {
			return fmt.Errorf("list settlements: %w", err)
		}
		var committed []*entity.Settlement
		for _, st := range existing {
			if st.SellerID == sellerID && st.IsCommitted() {
				committed = append(committed, st)
			}
		}
		if len(committed) == 0 {
			return apperr.Precondition(apperr.Seller(sellerID), "no exported or paid settlement to correct")
		}

		recomputed := settlement.SellerTotal{SellerID: sellerID, SellerName: committed[0].SellerName}
		for _, t := range totals {
			if t.SellerID == sellerID {
				recomputed = t
			}
		}

		correction = settlement.Correction(saleID, recomputed, committed)
		if correction.Amount.IsZero() && correction.Gross.IsZero() {
			return apperr.Precondition(apperr.Seller(sellerID), "committed settlements already match the results")
		}

		if err := s.settlementRepo.DeletePending(txCtx, saleID, sellerID); err != nil {
			return err
		}
		if err := s.settlementRepo.Create(txCtx, correction); err != nil {
			return fmt.Errorf("create correction: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Settlement correction failed", "error", err, "sale_id", saleID, "seller_id", sellerID)
		return nil, err
	}

	s.logger.Info("Settlement correction created",
		"sale_id", saleID,
		"seller_id", sellerID,
		"settlement_id", correction.ID,
		"amount", correction.Amount.String(),
	)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeSettlementCorrected, "settlement", correction.ID, map[string]interface{}{
		"sale_id":   saleID,
		"seller_id": sellerID,
		"amount":    correction.Amount.String(),
	}))
	return correction, nil
}

// MarkPaid records the payment of an exported settlement
func (s *settlementServiceImpl) MarkPaid(ctx context.Context, id int64) (*entity.Settlement, error) {
	var st *entity.Settlement
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if st, err = s.getSettlement(txCtx, id); err != nil {
			return err
		}

		next, err := workflow.Next(txCtx, workflow.SettlementMachine(workflow.State(st.Status)), workflow.TriggerMarkPaid)
		if err != nil {
			if st.Status == entity.SettlementStatusPaid {
				return apperr.ImmutableState(apperr.Settlement(id), "settlement is already paid")
			}
			return apperr.Precondition(apperr.Settlement(id), "cannot mark a %s settlement as paid", st.Status)
		}

		now := s.settings.Now().UTC()
		n, err := s.settlementRepo.Transition(txCtx, id, st.Status, next.String(), nil, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.ConcurrencyConflict(apperr.Settlement(id), "settlement changed concurrently")
		}
		st.Status = next.String()
		st.PaidAt = &now
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to mark settlement paid", "error", err, "settlement_id", id)
		return nil, err
	}

	s.logger.Info("Settlement paid", "settlement_id", id, "sale_id", st.SaleID)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeSettlementPaid, "settlement", id, map[string]interface{}{
		"sale_id": st.SaleID,
		"amount":  st.Amount.String(),
	}))
	return st, nil
}

// ExportSEPA writes the PENDING settlements of a sale into one payment file.
// The batch row and the status changes commit together; the artifact file is
// written afterwards and can be regenerated from the stored XML.
func (s *settlementServiceImpl) ExportSEPA(ctx context.Context, saleID int64, executionDate time.Time) (*ExportResult, error) {
	release, err := s.locks.TryLock(saleID, "payment export")
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.settings.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if executionDate.IsZero() {
		executionDate = today
	}
	if executionDate.Before(today) {
		return nil, apperr.Validation(apperr.Field("execution_date"), "execution date %s is in the past", executionDate.Format("2006-01-02"))
	}

	debtor, err := s.debtor(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment export started", "sale_id", saleID, "execution_date", executionDate.Format("2006-01-02"))

	result := &ExportResult{}
	var sale *entity.Sale
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if sale, err = loadSale(txCtx, s.saleRepo, saleID); err != nil {
			return err
		}

		settlements, err := s.settlementRepo.ListBySale(txCtx, saleID)
		if err != nil {
			return fmt.Errorf("list settlements: %w", err)
		}

		order := port.PaymentOrder{
			MessageID:     strings.ReplaceAll(uuid.NewString(), "-", ""),
			PaymentInfoID: "PMT-" + sale.Number,
			CreatedAt:     now,
			ExecutionDate: executionDate,
			Debtor:        debtor,
		}
		control := money.Zero
		var included []*entity.Settlement

		for _, st := range settlements {
			transfer, err := s.transferFor(txCtx, sale, st)
			if err != nil {
				var item *apperr.Error
				if !errors.As(err, &item) {
					return err
				}
				result.Skipped = append(result.Skipped, apperr.Item(err))
				continue
			}
			order.Transfers = append(order.Transfers, transfer)
			included = append(included, st)
			control = control.Add(transfer.Amount)
		}
		if len(included) == 0 {
			return apperr.Validation(apperr.Sale(saleID), "no settlement can be paid (%d skipped)", len(result.Skipped))
		}

		xml, err := s.encoder.Encode(order)
		if err != nil {
			return err
		}

		batch := &entity.PaymentBatch{
			SaleID:        saleID,
			MessageID:     order.MessageID,
			ExecutionDate: executionDate,
			ControlSum:    control.Round(),
			TxCount:       len(included),
			XML:           xml,
		}
		if err := s.batchRepo.Create(txCtx, batch); err != nil {
			return fmt.Errorf("store payment batch: %w", err)
		}

		for _, st := range included {
			n, err := s.settlementRepo.Transition(txCtx, st.ID, entity.SettlementStatusPending, entity.SettlementStatusExported, &batch.ID, now)
			if err != nil {
				return err
			}
			if n == 0 {
				return apperr.ConcurrencyConflict(apperr.Settlement(st.ID), "settlement left PENDING during export")
			}
			result.Included = append(result.Included, st.ID)
		}

		result.Batch = batch
		return nil
	})
	if err != nil {
		s.logger.Error("Payment export failed", "error", err, "sale_id", saleID)
		return nil, err
	}

	logProblems(s.logger, "payment export", result.Skipped)
	s.writeArtifact(ctx, sale, result.Batch)

	s.logger.Info("Payment export completed",
		"sale_id", saleID,
		"batch_id", result.Batch.ID,
		"included", len(result.Included),
		"skipped", len(result.Skipped),
		"control_sum", result.Batch.ControlSum.String(),
	)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeSettlementsExported, "sale", saleID, map[string]interface{}{
		"batch_id":    result.Batch.ID,
		"message_id":  result.Batch.MessageID,
		"included":    len(result.Included),
		"skipped":     len(result.Skipped),
		"control_sum": result.Batch.ControlSum.String(),
	}))
	return result, nil
}

// transferFor checks that a settlement can be paid and builds its transfer.
// Classified errors are skips; anything else aborts the export.
func (s *settlementServiceImpl) transferFor(ctx context.Context, sale *entity.Sale, st *entity.Settlement) (port.CreditTransfer, error) {
	subject := apperr.Settlement(st.ID)
	if st.Status != entity.SettlementStatusPending {
		return port.CreditTransfer{}, apperr.ImmutableState(subject, "settlement is %s", st.Status)
	}
	if !st.Amount.IsPositive() {
		return port.CreditTransfer{}, apperr.Validation(subject, "amount %s is not payable", st.Amount)
	}

	seller, err := s.actorRepo.GetByID(ctx, st.SellerID)
	if err != nil {
		return port.CreditTransfer{}, fmt.Errorf("get seller %d: %w", st.SellerID, err)
	}
	if seller == nil {
		return port.CreditTransfer{}, apperr.DataIntegrity(subject, "seller %d does not exist", st.SellerID)
	}
	if err := utils.ValidateIBAN(seller.IBAN); err != nil {
		return port.CreditTransfer{}, apperr.Validation(subject, "seller %s: %v", seller.Name, err)
	}
	if err := utils.ValidateBIC(seller.BIC); err != nil {
		return port.CreditTransfer{}, apperr.Validation(subject, "seller %s: %v", seller.Name, err)
	}

	return port.CreditTransfer{
		EndToEndID: fmt.Sprintf("STL-%010d", st.ID),
		Amount:     st.Amount.Round(),
		Creditor: port.Party{
			Name: seller.Name,
			IBAN: utils.NormalizeIBAN(seller.IBAN),
			BIC:  strings.ToUpper(strings.TrimSpace(seller.BIC)),
		},
		Remittance: fmt.Sprintf("Sale %s settlement %d, %d lots", sale.Number, st.ID, st.LotCount),
	}, nil
}

// debtor reads the paying account from the company profile
func (s *settlementServiceImpl) debtor(ctx context.Context) (port.Party, error) {
	profile, err := s.companyRepo.Get(ctx)
	if err != nil {
		return port.Party{}, fmt.Errorf("get company profile: %w", err)
	}
	if profile == nil {
		return port.Party{}, apperr.Validation(apperr.Named("company", "profile"), "company profile is not configured")
	}
	if err := utils.ValidateIBAN(profile.IBAN); err != nil {
		return port.Party{}, apperr.Validation(apperr.Named("company", "iban"), "debtor account: %v", err)
	}
	if err := utils.ValidateBIC(profile.BIC); err != nil {
		return port.Party{}, apperr.Validation(apperr.Named("company", "bic"), "debtor agent: %v", err)
	}
	return port.Party{
		Name: profile.LegalName,
		IBAN: utils.NormalizeIBAN(profile.IBAN),
		BIC:  strings.ToUpper(strings.TrimSpace(profile.BIC)),
	}, nil
}

// writeArtifact stores the batch XML next to the other files of the sale
func (s *settlementServiceImpl) writeArtifact(ctx context.Context, sale *entity.Sale, batch *entity.PaymentBatch) {
	if s.artifacts == nil {
		return
	}
	path, err := s.artifacts.Save(ctx, sale.Number, batch.FileName(), batch.XML)
	if err != nil {
		s.logger.Error("Failed to write payment file", "error", err, "batch_id", batch.ID)
		return
	}
	if err := s.batchRepo.SetArtifactPath(ctx, batch.ID, path); err != nil {
		s.logger.Error("Failed to record payment file path", "error", err, "batch_id", batch.ID)
		return
	}
	batch.ArtifactPath = path
}

// PaymentBatchXML returns the stored document of a batch
func (s *settlementServiceImpl) PaymentBatchXML(ctx context.Context, batchID int64) ([]byte, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("get payment batch: %w", err)
	}
	if batch == nil {
		return nil, apperr.NotFound(apperr.PaymentBatch(batchID))
	}
	return batch.XML, nil
}

// ListSettlements lists the settlements of a sale
func (s *settlementServiceImpl) ListSettlements(ctx context.Context, saleID int64) ([]*entity.Settlement, error) {
	if _, err := loadSale(ctx, s.saleRepo, saleID); err != nil {
		return nil, err
	}
	return s.settlementRepo.ListBySale(ctx, saleID)
}

// ListPaymentBatches lists the payment files of a sale
func (s *settlementServiceImpl) ListPaymentBatches(ctx context.Context, saleID int64) ([]*entity.PaymentBatch, error) {
	if _, err := loadSale(ctx, s.saleRepo, saleID); err != nil {
		return nil, err
	}
	return s.batchRepo.ListBySale(ctx, saleID)
}

func (s *settlementServiceImpl) getSettlement(ctx context.Context, id int64) (*entity.Settlement, error) {
	st, err := s.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	if st == nil {
		return nil, apperr.NotFound(apperr.Settlement(id))
	}
	return st, nil
}

// sellerTotals aggregates the SOLD lots of the latest result set per seller
func (s *settlementServiceImpl) sellerTotals(ctx context.Context, saleID int64) (*entity.Sale, []settlement.SellerTotal, error) {
	sale, err := loadSale(ctx, s.saleRepo, saleID)
	if err != nil {
		return nil, nil, err
	}
	results, err := latestResults(ctx, s.saleRepo, s.resultRepo, saleID)
	if err != nil {
		return nil, nil, err
	}

	sellers := make(map[int64]*entity.Actor)
	var lots []settlement.SoldLot
	for _, res := range results {
		if !res.IsSold() {
			continue
		}
		if res.SellerID == nil {
			return nil, nil, apperr.DataIntegrity(apperr.Lot(res.LotNumber), "sold lot has no seller")
		}

		seller, ok := sellers[*res.SellerID]
		if !ok {
			if seller, err = s.actorRepo.GetByID(ctx, *res.SellerID); err != nil {
				return nil, nil, fmt.Errorf("get seller %d: %w", *res.SellerID, err)
			}
			if seller == nil {
				return nil, nil, apperr.DataIntegrity(apperr.Seller(*res.SellerID), "seller referenced by results does not exist")
			}
			sellers[*res.SellerID] = seller
		}

		lots = append(lots, settlement.SoldLot{
			LotNumber:        res.LotNumber,
			SellerID:         seller.ID,
			SellerName:       seller.Name,
			SellerVATSubject: seller.VATSubject,
			HammerPrice:      res.HammerPrice,
		})
	}

	totals, err := settlement.Aggregate(settlement.RatesFor(sale, s.settings.CommissionVAT), lots)
	if err != nil {
		return nil, nil, err
	}
	return sale, totals, nil
}
