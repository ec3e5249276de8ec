package http

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/auctify/settlement-engine/internal/application/service"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

// CreateSaleRequest is the body of POST /api/sales
type CreateSaleRequest struct {
	Name            string     `json:"name"`
	Date            string     `json:"date"`
	BuyerFeeRate    money.Rate `json:"buyer_fee_rate"`
	SellerFeeRate   money.Rate `json:"seller_fee_rate"`
	PlatformFeeRate money.Rate `json:"platform_fee_rate"`
}

// ListRequest represents paging query parameters
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// CreateSale handles POST /api/sales
func (h *Handlers) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, money.ErrInvalidRate) {
			h.respondError(c, "create sale", apperr.Validation(apperr.Field("rate"), "%v", err), nil)
			return
		}
		h.badRequest(c, "invalid sale: "+err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	sale, err := h.services.Sales.CreateSale(c.Request.Context(), service.CreateSaleInput{
		Name:            req.Name,
		Date:            date,
		BuyerFeeRate:    req.BuyerFeeRate,
		SellerFeeRate:   req.SellerFeeRate,
		PlatformFeeRate: req.PlatformFeeRate,
	})
	if err != nil {
		h.respondError(c, "create sale", err, nil)
		return
	}
	created(c, sale)
}

// ListSales handles GET /api/sales
func (h *Handlers) ListSales(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	sales, err := h.services.Sales.ListSales(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, "list sales", err, nil)
		return
	}
	ok(c, sales)
}

// GetSale handles GET /api/sales/:id
func (h *Handlers) GetSale(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	sale, err := h.services.Sales.GetSale(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get sale", err, nil)
		return
	}
	ok(c, sale)
}

// CloseSale handles POST /api/sales/:id/close
func (h *Handlers) CloseSale(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	sale, err := h.services.Sales.CloseSale(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "close sale", err, nil)
		return
	}
	ok(c, sale)
}
