package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
	"github.com/auctify/settlement-engine/migrations"
	"github.com/auctify/settlement-engine/pkg/database"
)

func setupTestDB(t *testing.T) (*sql.DB, *zap.Logger) {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(migrations.FS))
	return db.DB, logger
}

func createSale(t *testing.T, db *sql.DB, logger *zap.Logger, number string) *entity.Sale {
	t.Helper()
	sale := &entity.Sale{
		Name:            "Spring sale",
		Number:          number,
		Date:            time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:          entity.SaleStatusCreated,
		BuyerFeeRate:    money.MustRate("0.20"),
		SellerFeeRate:   money.MustRate("0.10"),
		PlatformFeeRate: money.MustRate("0.01"),
	}
	require.NoError(t, NewSaleRepository(db, logger).Create(context.Background(), sale))
	return sale
}

func createActor(t *testing.T, db *sql.DB, logger *zap.Logger, name, actorType string) *entity.Actor {
	t.Helper()
	actor := &entity.Actor{Name: name, Type: actorType, Email: name + "@example.com"}
	require.NoError(t, NewActorRepository(db, logger).Create(context.Background(), actor))
	return actor
}

func TestSaleRepository_CreateAndGet(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewSaleRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	require.NotZero(t, sale.ID)

	got, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "14-03-2025-0001", got.Number)
	assert.Equal(t, entity.SaleStatusCreated, got.Status)
	assert.Equal(t, "0.2", got.BuyerFeeRate.String())
	assert.Equal(t, 2025, got.Date.Year())

	require.NoError(t, repo.UpdateStatus(ctx, sale.ID, entity.SaleStatusMapped))
	got, err = repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusMapped, got.Status)

	count, err := repo.CountByDate(ctx, sale.Date)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestActorRepository_References(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewActorRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	seller := createActor(t, db, logger, "dupont", entity.ActorTypeSeller)

	refs, err := repo.CountReferences(ctx, seller.ID)
	require.NoError(t, err)
	assert.Zero(t, refs)

	require.NoError(t, NewMappingRepository(db, logger).ReplaceForSale(ctx, sale.ID, []*entity.LotMapping{
		{LotNumber: 1, SellerID: seller.ID, Description: "Vase"},
	}))

	refs, err = repo.CountReferences(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	byEmail, err := repo.GetByEmail(ctx, "DUPONT@example.com", entity.ActorTypeSeller)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, seller.ID, byEmail.ID)

	require.NoError(t, repo.UpdateBanking(ctx, seller.ID, "FR7630006000011234567890189", "AGRIFRPP", true))
	got, err := repo.GetByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "AGRIFRPP", got.BIC)
	assert.True(t, got.VATSubject)
}

func TestMappingRepository_ReplaceForSale(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewMappingRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	a := createActor(t, db, logger, "alpha", entity.ActorTypeSeller)
	b := createActor(t, db, logger, "beta", entity.ActorTypeSeller)

	require.NoError(t, repo.ReplaceForSale(ctx, sale.ID, []*entity.LotMapping{
		{LotNumber: 2, SellerID: a.ID},
		{LotNumber: 1, SellerID: a.ID},
	}))
	require.NoError(t, repo.ReplaceForSale(ctx, sale.ID, []*entity.LotMapping{
		{LotNumber: 3, SellerID: b.ID, Description: "Chair"},
		{LotNumber: 1, SellerID: a.ID},
	}))

	mappings, err := repo.ListBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, 1, mappings[0].LotNumber)
	assert.Equal(t, "alpha", mappings[0].SellerName)
	assert.Equal(t, 3, mappings[1].LotNumber)
	assert.Equal(t, "Chair", mappings[1].Description)
}

func TestReconciliationRepository_Versions(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewReconciliationRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	seller := createActor(t, db, logger, "alpha", entity.ActorTypeSeller)

	latest, err := repo.LatestRun(ctx, sale.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := &entity.ReconciliationRun{SaleID: sale.ID, RowCount: 1}
	require.NoError(t, repo.CreateRun(ctx, first))
	assert.Equal(t, 1, first.Version)

	second := &entity.ReconciliationRun{SaleID: sale.ID, RowCount: 2}
	require.NoError(t, repo.CreateRun(ctx, second))
	assert.Equal(t, 2, second.Version)

	require.NoError(t, repo.InsertResults(ctx, second.ID, []*entity.ReconciliationResult{
		{SaleID: sale.ID, LotNumber: 2, Status: entity.ResultStatusUnsold, SellerID: &seller.ID},
		{SaleID: sale.ID, LotNumber: 1, Status: entity.ResultStatusSold, HammerPrice: money.Some(money.MustParse("150.50")), SellerID: &seller.ID},
	}))

	latest, err = repo.LatestRun(ctx, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	results, err := repo.ListResults(ctx, latest.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].LotNumber)
	assert.True(t, results[0].HammerPrice.Valid)
	assert.Equal(t, "150.50", results[0].HammerPrice.Amount.String())
	assert.False(t, results[1].HammerPrice.Valid)
	assert.Nil(t, results[1].BuyerID)
}

func TestReconciliationRepository_SoldRequiresPrice(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewReconciliationRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	run := &entity.ReconciliationRun{SaleID: sale.ID}
	require.NoError(t, repo.CreateRun(ctx, run))

	err := repo.InsertResults(ctx, run.ID, []*entity.ReconciliationResult{
		{SaleID: sale.ID, LotNumber: 1, Status: entity.ResultStatusSold},
	})
	assert.Error(t, err)
}

func newDraft(saleID, buyerID int64) *entity.Invoice {
	return &entity.Invoice{
		SaleID:      saleID,
		BuyerID:     buyerID,
		BuyerName:   "Martin Paul",
		LegalEntity: "AUCTIFY SAS",
		TaxRule:     "premium_only",
		TotalExcl:   money.MustParse("120.00"),
		TotalVAT:    money.MustParse("4.00"),
		TotalIncl:   money.MustParse("124.00"),
		Status:      entity.InvoiceStatusDraft,
		Lines: []*entity.InvoiceLine{{
			LotNumber:   1,
			SellerID:    1,
			HammerPrice: money.MustParse("100.00"),
			Premium:     money.MustParse("20.00"),
			LineTotal:   money.MustParse("120.00"),
			TaxableBase: money.MustParse("20.00"),
			VATRate:     money.MustRate("0.20"),
			VAT:         money.MustParse("4.00"),
		}},
	}
}

func TestInvoiceRepository_IssueAndFreeze(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewInvoiceRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	buyer := createActor(t, db, logger, "martin", entity.ActorTypeBuyer)

	invoice := newDraft(sale.ID, buyer.ID)
	require.NoError(t, repo.Create(ctx, invoice))
	require.NotZero(t, invoice.ID)

	head, err := repo.LastIssuedHash(ctx, invoice.LegalEntity)
	require.NoError(t, err)
	assert.Empty(t, head)

	seq, err := repo.NextSequence(ctx, invoice.LegalEntity, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	signed := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	invoice.Year = 2025
	invoice.Sequence = seq
	invoice.Number = "FA2025-000001"
	invoice.SignatureDate = &signed
	invoice.Hash = "abc"
	invoice.PreviousHash = "GENESIS"
	require.NoError(t, repo.MarkIssued(ctx, invoice))

	got, err := repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.InvoiceStatusIssued, got.Status)
	assert.Equal(t, "FA2025-000001", got.Number)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "20.00", got.Lines[0].Premium.String())
	require.NotNil(t, got.SignatureDate)
	assert.True(t, signed.Equal(*got.SignatureDate))

	head, err = repo.LastIssuedHash(ctx, invoice.LegalEntity)
	require.NoError(t, err)
	assert.Equal(t, "abc", head)

	err = repo.MarkIssued(ctx, invoice)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)

	_, err = db.Exec(`UPDATE invoices SET total_incl = '0' WHERE id = ?`, invoice.ID)
	assert.Error(t, err)
	_, err = db.Exec(`DELETE FROM invoices WHERE id = ?`, invoice.ID)
	assert.Error(t, err)
}

func TestInvoiceRepository_SequenceRollsBackWithTransaction(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewInvoiceRepository(db, logger)
	tm := sqlite.NewDB(db, logger)
	ctx := context.Background()

	seq, err := repo.NextSequence(ctx, "AUCTIFY SAS", 2025)
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)

	err = tm.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := repo.NextSequence(ctx, "AUCTIFY SAS", 2025)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	seq, err = repo.NextSequence(ctx, "AUCTIFY SAS", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	seq, err = repo.NextSequence(ctx, "AUCTIFY SAS", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestSettlementRepository_Transition(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewSettlementRepository(db, logger)
	batches := NewPaymentBatchRepository(db, logger)
	ctx := context.Background()

	sale := createSale(t, db, logger, "14-03-2025-0001")
	seller := createActor(t, db, logger, "alpha", entity.ActorTypeSeller)

	s := &entity.Settlement{
		SaleID:        sale.ID,
		SellerID:      seller.ID,
		SellerName:    seller.Name,
		Kind:          entity.SettlementKindRegular,
		LotCount:      1,
		Gross:         money.MustParse("100.00"),
		Commission:    money.MustParse("10.00"),
		CommissionVAT: money.MustParse("2.00"),
		PlatformFee:   money.MustParse("1.00"),
		Amount:        money.MustParse("87.00"),
		Status:        entity.SettlementStatusPending,
	}
	require.NoError(t, repo.Create(ctx, s))

	batch := &entity.PaymentBatch{
		SaleID:        sale.ID,
		MessageID:     "MSG-1",
		ExecutionDate: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		ControlSum:    s.Amount,
		TxCount:       1,
		XML:           []byte("<Document/>"),
	}
	require.NoError(t, batches.Create(ctx, batch))

	now := time.Now().UTC().Truncate(time.Second)
	n, err := repo.Transition(ctx, s.ID, entity.SettlementStatusPending, entity.SettlementStatusExported, &batch.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Transition(ctx, s.ID, entity.SettlementStatusPending, entity.SettlementStatusExported, &batch.ID, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementStatusExported, got.Status)
	require.NotNil(t, got.BatchID)
	assert.Equal(t, batch.ID, *got.BatchID)
	assert.NotNil(t, got.ExportedAt)
	assert.Nil(t, got.PaidAt)

	require.NoError(t, repo.DeletePending(ctx, sale.ID, seller.ID))
	list, err := repo.ListBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	stored, err := batches.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "<Document/>", string(stored.XML))
	assert.Equal(t, "2025-03-20", stored.ExecutionDate.Format(dateLayout))
	assert.Equal(t, "87.00", stored.ControlSum.String())
}

func TestCompanyRepository_Upsert(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewCompanyRepository(db, logger)
	ctx := context.Background()

	profile, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, repo.Save(ctx, &entity.CompanyProfile{LegalName: "Auctify", Logos: map[string]string{"invoice": "logo.png"}}))
	require.NoError(t, repo.Save(ctx, &entity.CompanyProfile{LegalName: "Auctify SAS", IBAN: "FR76"}))

	profile, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Auctify SAS", profile.LegalName)
	assert.Empty(t, profile.Logos)
}

func TestAuditRepository_AppendIsIdempotent(t *testing.T) {
	db, logger := setupTestDB(t)
	repo := NewAuditRepository(db, logger)
	ctx := context.Background()

	entry := &entity.AuditEntry{
		EventID:      "evt-1",
		Timestamp:    time.Now().UTC(),
		Action:       "sale.created",
		ResourceType: "sale",
		ResourceID:   7,
		Details:      "{}",
	}
	require.NoError(t, repo.Append(ctx, entry))
	require.NoError(t, repo.Append(ctx, entry))
	require.NoError(t, repo.Append(ctx, &entity.AuditEntry{
		EventID:      "evt-2",
		Timestamp:    time.Now().UTC(),
		Action:       "actor.deleted",
		ResourceType: "actor",
		ResourceID:   3,
		Details:      "{}",
	}))

	entries, err := repo.List(ctx, "sale", 7, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sale.created", entries[0].Action)

	all, err := repo.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
