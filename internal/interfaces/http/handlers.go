package http

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	config   ServerConfig
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, config ServerConfig, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		config:   config,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// batchContext bounds a batch operation by the configured timeout
func (h *Handlers) batchContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.config.BatchTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.config.BatchTimeout)
}

// idParam parses a positive integer path parameter, answering 400 otherwise
func (h *Handlers) idParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid "+name+": "+raw)
		return 0, false
	}
	return id, true
}

// upload opens the "file" form field, capped at MaxUploadBytes
func (h *Handlers) upload(c *gin.Context) (multipart.File, bool) {
	if h.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "multipart field \"file\" is required")
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		h.badRequest(c, "cannot open uploaded file")
		return nil, false
	}
	return file, true
}
