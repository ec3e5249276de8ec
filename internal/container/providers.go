package container

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/dispatcher"
	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/application/service"
	"github.com/auctify/settlement-engine/internal/infrastructure/export"
	"github.com/auctify/settlement-engine/internal/infrastructure/facturx"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/repository"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
	"github.com/auctify/settlement-engine/internal/infrastructure/sepa"
	"github.com/auctify/settlement-engine/internal/infrastructure/storage"
	"github.com/auctify/settlement-engine/internal/infrastructure/worker"
	"github.com/auctify/settlement-engine/migrations"
	"github.com/auctify/settlement-engine/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Database       *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Sale           port.SaleRepository
	Actor          port.ActorRepository
	Company        port.CompanyRepository
	Mapping        port.MappingRepository
	Reconciliation port.ReconciliationRepository
	Invoice        port.InvoiceRepository
	Settlement     port.SettlementRepository
	PaymentBatch   port.PaymentBatchRepository
	Audit          port.AuditRepository
}

// StorageBundle holds artifact storage and the file codecs writing into it.
type StorageBundle struct {
	Artifacts port.ArtifactStore
	Encoder   port.PaymentFileEncoder
	Invoices  port.InvoiceDocumentEncoder
	Reports   port.ReportWriter
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Sale           service.SaleService
	Actor          service.ActorService
	Company        service.CompanyService
	Mapping        service.MappingService
	Reconciliation service.ReconciliationService
	Invoice        service.InvoiceService
	Settlement     service.SettlementService
	Audit          service.AuditService
}

// ProvideDatabase opens the database and applies the embedded migrations.
// Returns DatabaseBundle containing the connection and TransactionManager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Database:       db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Sale:           repository.NewSaleRepository(sqlDB, logger),
		Actor:          repository.NewActorRepository(sqlDB, logger),
		Company:        repository.NewCompanyRepository(sqlDB, logger),
		Mapping:        repository.NewMappingRepository(sqlDB, logger),
		Reconciliation: repository.NewReconciliationRepository(sqlDB, logger),
		Invoice:        repository.NewInvoiceRepository(sqlDB, logger),
		Settlement:     repository.NewSettlementRepository(sqlDB, logger),
		PaymentBatch:   repository.NewPaymentBatchRepository(sqlDB, logger),
		Audit:          repository.NewAuditRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates the artifact store, the SEPA encoder and the report writer.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &StorageBundle{
		Artifacts: storage.NewLocalArtifactStore(cfg.ArtifactDir, logger),
		Encoder:   sepa.NewEncoder(),
		Invoices:  facturx.NewEncoder(),
		Reports:   export.NewReportWriter(logger),
	}, nil
}

// auditHandlerName is the catch-all subscription persisting audit rows
const auditHandlerName = "audit-trail"

// ProvideDispatcher creates the event dispatcher and subscribes the audit
// trail to every event type.
func ProvideDispatcher(auditRepo port.AuditRepository, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if auditRepo == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(&ZapLoggerAdapter{logger: logger}),
	)
	d.SubscribeAll(auditHandlerName, dispatcher.NewAuditHandler(auditRepo))
	return d, nil
}

// ProvideWorkers registers the background workers on a manager.
// A zero poll interval leaves the artifact worker out.
func ProvideWorkers(cfg *WorkerConfig, repos *RepositoryBundle, store *StorageBundle, logger *zap.Logger) (*worker.WorkerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if repos == nil || store == nil {
		return nil, fmt.Errorf("repositories and storage are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(logger)
	if cfg.ArtifactPollInterval > 0 {
		wcfg := worker.DefaultArtifactWorkerConfig()
		wcfg.PollInterval = cfg.ArtifactPollInterval
		manager.Register(worker.NewArtifactWorker(wcfg, repos.PaymentBatch, repos.Sale, store.Artifacts, logger))
	}
	return manager, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    *StorageBundle
	Billing    *BillingConfig
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
// Services mutating the same sale share one SaleLocks instance.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Billing == nil {
		return nil, fmt.Errorf("billing config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &ZapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos
	locks := service.NewSaleLocks()

	var publisher service.EventPublisher
	if deps.Dispatcher != nil {
		publisher = deps.Dispatcher
	}

	return &ServiceBundle{
		Sale:    service.NewSaleService(repos.Sale, deps.TxManager, publisher, serviceLogger),
		Actor:   service.NewActorService(repos.Actor, deps.TxManager, publisher, serviceLogger),
		Company: service.NewCompanyService(repos.Company, publisher, serviceLogger),
		Mapping: service.NewMappingService(
			repos.Sale,
			repos.Actor,
			repos.Mapping,
			deps.TxManager,
			locks,
			publisher,
			serviceLogger,
		),
		Reconciliation: service.NewReconciliationService(
			repos.Sale,
			repos.Actor,
			repos.Mapping,
			repos.Reconciliation,
			deps.TxManager,
			deps.Storage.Reports,
			locks,
			publisher,
			serviceLogger,
		),
		Invoice: service.NewInvoiceService(
			repos.Sale,
			repos.Actor,
			repos.Reconciliation,
			repos.Invoice,
			repos.Company,
			deps.TxManager,
			deps.Storage.Invoices,
			locks,
			service.NewKeyedMutex(),
			service.InvoiceSettings{
				LegalEntity: deps.Billing.LegalEntity,
				Prefix:      deps.Billing.InvoicePrefix,
				Rule:        deps.Billing.TaxRule,
			},
			publisher,
			serviceLogger,
		),
		Settlement: service.NewSettlementService(
			repos.Sale,
			repos.Actor,
			repos.Reconciliation,
			repos.Settlement,
			repos.PaymentBatch,
			repos.Company,
			deps.TxManager,
			deps.Storage.Encoder,
			deps.Storage.Artifacts,
			locks,
			service.SettlementSettings{CommissionVAT: deps.Billing.CommissionVAT},
			publisher,
			serviceLogger,
		),
		Audit: service.NewAuditService(repos.Audit),
	}, nil
}
