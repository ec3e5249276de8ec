package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GenerateInvoices handles POST /api/sales/:id/invoices
func (h *Handlers) GenerateInvoices(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	ctx, cancel := h.batchContext(c)
	defer cancel()

	result, err := h.services.Invoices.GenerateInvoices(ctx, id)
	if err != nil {
		h.respondError(c, "generate invoices", err, result)
		return
	}
	ok(c, result)
}

// IssueSaleInvoices handles POST /api/sales/:id/invoices/issue
func (h *Handlers) IssueSaleInvoices(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	ctx, cancel := h.batchContext(c)
	defer cancel()

	result, err := h.services.Invoices.IssueSale(ctx, id)
	if err != nil {
		h.respondError(c, "issue invoices", err, result)
		return
	}
	ok(c, result)
}

// ListInvoices handles GET /api/sales/:id/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	invoices, err := h.services.Invoices.ListInvoices(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list invoices", err, nil)
		return
	}
	ok(c, invoices)
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	invoice, err := h.services.Invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get invoice", err, nil)
		return
	}
	ok(c, invoice)
}

// IssueInvoice handles POST /api/invoices/:id/issue
func (h *Handlers) IssueInvoice(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	invoice, err := h.services.Invoices.IssueInvoice(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "issue invoice", err, nil)
		return
	}
	ok(c, invoice)
}

// VerifyInvoice handles GET /api/invoices/:id/verify
func (h *Handlers) VerifyInvoice(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	verification, err := h.services.Invoices.VerifyInvoice(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "verify invoice", err, nil)
		return
	}
	ok(c, verification)
}

// InvoiceFacturX handles GET /api/invoices/:id/facturx
func (h *Handlers) InvoiceFacturX(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	doc, err := h.services.Invoices.InvoiceXML(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "invoice document", err, nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="factur-x-%d.xml"`, id))
	c.Data(http.StatusOK, "application/xml", doc)
}
