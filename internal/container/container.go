package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/dispatcher"
	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
	"github.com/auctify/settlement-engine/internal/infrastructure/worker"
	httpapi "github.com/auctify/settlement-engine/internal/interfaces/http"
	"github.com/auctify/settlement-engine/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Files
	storage *StorageBundle

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	workers    *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Artifact storage and file codecs
// 3. Event dispatcher with the audit trail handler
// 4. Application services
// 5. Background workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize storage
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized")

	// Step 3: Initialize dispatcher
	if err := c.initDispatcher(); err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized")

	// Step 4: Initialize application services
	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 5: Start background workers
	if err := c.initWorkers(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.GetWorkerCount()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop workers (reverse of step 5)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	// Step 2: Close dispatcher (reverse of step 3)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close database (reverse of step 1)
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, healthy bool, message string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: message}
		if !healthy {
			status.Overall = false
		}
	}

	// Check database
	if c.database == nil {
		set("database", false, "not initialized")
	} else if err := c.database.PingContext(ctx); err != nil {
		set("database", false, fmt.Sprintf("ping failed: %v", err))
	} else {
		set("database", true, "")
	}

	// Check dispatcher and the audit trail subscription
	if c.dispatcher == nil {
		set("dispatcher", false, "not initialized")
	} else if !hasHandler(c.dispatcher.ListHandlers(dispatcher.AllEvents), auditHandlerName) {
		set("dispatcher", false, "audit trail not subscribed")
	} else {
		set("dispatcher", true, "")
	}

	// Check services
	if c.services == nil {
		set("services", false, "not initialized")
	} else {
		set("services", true, "")
	}

	// Check workers
	if c.workers == nil {
		set("workers", false, "not initialized")
	} else if c.workers.GetWorkerCount() > 0 && !c.workers.IsRunning() {
		set("workers", false, "stopped")
	} else {
		set("workers", true, fmt.Sprintf("%d registered", c.workers.GetWorkerCount()))
	}

	return status
}

func hasHandler(handlers []dispatcher.HandlerInfo, name string) bool {
	for _, h := range handlers {
		if h.Name == name {
			return true
		}
	}
	return false
}

// initDatabase opens the database, applies migrations and builds repositories.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.Database
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.database.DB, c.logger)
	if err != nil {
		_ = c.database.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// initStorage initializes the artifact store and file codecs.
func (c *Container) initStorage() error {
	storageBundle, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}

	c.storage = storageBundle
	return nil
}

// initDispatcher creates the dispatcher and subscribes the audit trail.
func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.repositories.Audit, c.logger)
	if err != nil {
		return err
	}

	c.dispatcher = disp
	return nil
}

// initServices initializes all application services.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Storage:    c.storage,
		Billing:    &c.config.Billing,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// initWorkers registers and starts the background workers.
// Workers run on their own context so they outlive the caller of Start.
func (c *Container) initWorkers(_ context.Context) error {
	manager, err := ProvideWorkers(&c.config.Worker, c.repositories, c.storage, c.logger)
	if err != nil {
		return err
	}
	if err := manager.StartAll(context.Background()); err != nil {
		return err
	}

	c.workers = manager
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// HTTPServices exposes the services in the shape the HTTP adapter expects.
func (c *Container) HTTPServices() httpapi.Services {
	s := c.services
	return httpapi.Services{
		Sales:          s.Sale,
		Actors:         s.Actor,
		Company:        s.Company,
		Mapping:        s.Mapping,
		Reconciliation: s.Reconciliation,
		Invoices:       s.Invoice,
		Settlements:    s.Settlement,
		Audit:          s.Audit,
	}
}

// HTTPServerConfig returns the HTTP server configuration.
func (c *Container) HTTPServerConfig() httpapi.ServerConfig {
	cfg := httpapi.DefaultServerConfig()
	s := c.config.Server
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port > 0 {
		cfg.Port = s.Port
	}
	if s.ReadTimeout > 0 {
		cfg.ReadTimeout = s.ReadTimeout
	}
	if s.WriteTimeout > 0 {
		cfg.WriteTimeout = s.WriteTimeout
	}
	if s.BatchTimeout > 0 {
		cfg.BatchTimeout = s.BatchTimeout
	}
	if s.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = s.MaxUploadBytes
	}
	return cfg
}

// ServiceLogger returns the container logger adapted to the key/value
// Logger interfaces used by services and adapters.
func (c *Container) ServiceLogger() *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: c.logger}
}

// ZapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces.
type ZapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *ZapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
