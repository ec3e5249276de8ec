package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ExportRequest is the optional body of POST /api/sales/:id/settlements/export
type ExportRequest struct {
	// ExecutionDate is YYYY-MM-DD; today when empty
	ExecutionDate string `json:"execution_date"`
}

// ComputeSettlements handles POST /api/sales/:id/settlements
func (h *Handlers) ComputeSettlements(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	ctx, cancel := h.batchContext(c)
	defer cancel()

	result, err := h.services.Settlements.ComputeSettlements(ctx, id)
	if err != nil {
		h.respondError(c, "compute settlements", err, result)
		return
	}
	ok(c, result)
}

// ListSettlements handles GET /api/sales/:id/settlements
func (h *Handlers) ListSettlements(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	settlements, err := h.services.Settlements.ListSettlements(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list settlements", err, nil)
		return
	}
	ok(c, settlements)
}

// ForceCorrection handles POST /api/sales/:id/settlements/correction/:sellerId
func (h *Handlers) ForceCorrection(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	sellerID, valid := h.idParam(c, "sellerId")
	if !valid {
		return
	}
	ctx, cancel := h.batchContext(c)
	defer cancel()

	correction, err := h.services.Settlements.ForceCorrection(ctx, id, sellerID)
	if err != nil {
		h.respondError(c, "force correction", err, nil)
		return
	}
	created(c, correction)
}

// ExportSEPA handles POST /api/sales/:id/settlements/export
func (h *Handlers) ExportSEPA(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}

	var req ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid export request: "+err.Error())
			return
		}
	}
	var executionDate time.Time
	if req.ExecutionDate != "" {
		d, err := time.Parse("2006-01-02", req.ExecutionDate)
		if err != nil {
			h.badRequest(c, "execution_date must be YYYY-MM-DD")
			return
		}
		executionDate = d
	}

	ctx, cancel := h.batchContext(c)
	defer cancel()

	result, err := h.services.Settlements.ExportSEPA(ctx, id, executionDate)
	if err != nil {
		h.respondError(c, "export payments", err, nil)
		return
	}
	created(c, result)
}

// ListPaymentBatches handles GET /api/sales/:id/payment-batches
func (h *Handlers) ListPaymentBatches(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	batches, err := h.services.Settlements.ListPaymentBatches(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list payment batches", err, nil)
		return
	}
	ok(c, batches)
}

// MarkPaid handles POST /api/settlements/:id/paid
func (h *Handlers) MarkPaid(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	settlement, err := h.services.Settlements.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "mark paid", err, nil)
		return
	}
	ok(c, settlement)
}

// PaymentBatchXML handles GET /api/payment-batches/:id/xml
func (h *Handlers) PaymentBatchXML(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	xml, err := h.services.Settlements.PaymentBatchXML(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "payment batch xml", err, nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sepa-%d.xml"`, id))
	c.Data(http.StatusOK, "application/xml", xml)
}
