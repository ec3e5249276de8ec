package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/reconciliation"
	"github.com/auctify/settlement-engine/internal/infrastructure/importer"
)

// ResultsQuery filters reconciliation results
type ResultsQuery struct {
	Status string `form:"status"`
	Seller string `form:"seller"`
	Format string `form:"format"`
}

// ImportMapping handles POST /api/sales/:id/mapping (multipart xlsx)
func (h *Handlers) ImportMapping(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	file, valid := h.upload(c)
	if !valid {
		return
	}
	defer file.Close()

	rows, err := importer.ParseMappingXLSX(file)
	if err != nil {
		h.respondError(c, "parse mapping", err, nil)
		return
	}

	ctx, cancel := h.batchContext(c)
	defer cancel()

	result, err := h.services.Mapping.ImportMapping(ctx, id, rows)
	if err != nil {
		h.respondError(c, "import mapping", err, nil)
		return
	}
	ok(c, result)
}

// ListMappings handles GET /api/sales/:id/mapping
func (h *Handlers) ListMappings(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	mappings, err := h.services.Mapping.ListMappings(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list mappings", err, nil)
		return
	}
	ok(c, mappings)
}

// Reconcile handles POST /api/sales/:id/reconciliation (multipart csv)
func (h *Handlers) Reconcile(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	file, valid := h.upload(c)
	if !valid {
		return
	}
	defer file.Close()

	rows, err := importer.ParseResultCSV(file)
	if err != nil {
		h.respondError(c, "parse results", err, nil)
		return
	}

	ctx, cancel := h.batchContext(c)
	defer cancel()

	result, err := h.services.Reconciliation.Reconcile(ctx, id, rows)
	if err != nil {
		h.respondError(c, "reconcile", err, nil)
		return
	}
	ok(c, result)
}

// ReconciliationStats handles GET /api/sales/:id/reconciliation/stats
func (h *Handlers) ReconciliationStats(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	stats, err := h.services.Reconciliation.Stats(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "reconciliation stats", err, nil)
		return
	}
	ok(c, stats)
}

// ReconciliationResults handles GET /api/sales/:id/reconciliation/results
func (h *Handlers) ReconciliationResults(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	var q ResultsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	results, err := h.services.Reconciliation.Results(c.Request.Context(), id, reconciliation.Filter{Status: q.Status, SellerName: q.Seller})
	if err != nil {
		h.respondError(c, "reconciliation results", err, nil)
		return
	}
	ok(c, results)
}

// ExportResults handles GET /api/sales/:id/reconciliation/export?format=xlsx|csv
func (h *Handlers) ExportResults(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	var q ResultsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	q.Format = strings.ToLower(strings.TrimSpace(q.Format))
	if q.Format == "" {
		q.Format = port.ReportFormatXLSX
	}

	// rendered into memory first so that a failure can still produce a JSON error
	var buf bytes.Buffer
	filter := reconciliation.Filter{Status: q.Status, SellerName: q.Seller}
	if err := h.services.Reconciliation.Export(c.Request.Context(), id, filter, q.Format, &buf); err != nil {
		h.respondError(c, "export results", err, nil)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if q.Format == port.ReportFormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reconciliation-%d.%s"`, id, q.Format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
