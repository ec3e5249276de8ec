// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/auctify/settlement-engine/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// BatchTimeout bounds every batch operation (import, reconcile, invoice, settle, export)
	BatchTimeout time.Duration

	// MaxUploadBytes caps uploaded spreadsheets
	MaxUploadBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		BatchTimeout:   45 * time.Second,
		MaxUploadBytes: 20 << 20,
	}
}

// Services groups the application services exposed over HTTP
type Services struct {
	Sales          service.SaleService
	Actors         service.ActorService
	Company        service.CompanyService
	Mapping        service.MappingService
	Reconciliation service.ReconciliationService
	Invoices       service.InvoiceService
	Settlements    service.SettlementService
	Audit          service.AuditService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		// Sales
		api.POST("/sales", h.CreateSale)
		api.GET("/sales", h.ListSales)
		api.GET("/sales/:id", h.GetSale)
		api.POST("/sales/:id/close", h.CloseSale)

		// Mapping and reconciliation
		api.POST("/sales/:id/mapping", h.ImportMapping)
		api.GET("/sales/:id/mapping", h.ListMappings)
		api.POST("/sales/:id/reconciliation", h.Reconcile)
		api.GET("/sales/:id/reconciliation/stats", h.ReconciliationStats)
		api.GET("/sales/:id/reconciliation/results", h.ReconciliationResults)
		api.GET("/sales/:id/reconciliation/export", h.ExportResults)

		// Invoices
		api.POST("/sales/:id/invoices", h.GenerateInvoices)
		api.POST("/sales/:id/invoices/issue", h.IssueSaleInvoices)
		api.GET("/sales/:id/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.POST("/invoices/:id/issue", h.IssueInvoice)
		api.GET("/invoices/:id/verify", h.VerifyInvoice)
		api.GET("/invoices/:id/facturx", h.InvoiceFacturX)

		// Settlements and payments
		api.POST("/sales/:id/settlements", h.ComputeSettlements)
		api.GET("/sales/:id/settlements", h.ListSettlements)
		api.POST("/sales/:id/settlements/correction/:sellerId", h.ForceCorrection)
		api.POST("/sales/:id/settlements/export", h.ExportSEPA)
		api.GET("/sales/:id/payment-batches", h.ListPaymentBatches)
		api.POST("/settlements/:id/paid", h.MarkPaid)
		api.GET("/payment-batches/:id/xml", h.PaymentBatchXML)

		// Actors
		api.POST("/actors", h.CreateActor)
		api.GET("/actors", h.ListActors)
		api.GET("/actors/:id", h.GetActor)
		api.PUT("/actors/:id/banking", h.UpdateBanking)
		api.DELETE("/actors/:id", h.DeleteActor)

		// Company profile
		api.GET("/company", h.GetCompany)
		api.PUT("/company", h.UpdateCompany)

		// Audit trail
		api.GET("/audit", h.ListAudit)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
