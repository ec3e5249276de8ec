package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auctify/settlement-engine/internal/domain/entity"
)

// BankingRequest is the body of PUT /api/actors/:id/banking
type BankingRequest struct {
	IBAN       string `json:"iban"`
	BIC        string `json:"bic"`
	VATSubject bool   `json:"vat_subject"`
}

// AuditQuery filters the audit trail
type AuditQuery struct {
	ResourceType string `form:"resource_type"`
	ResourceID   int64  `form:"resource_id"`
	Limit        int    `form:"limit"`
}

// CreateActor handles POST /api/actors
func (h *Handlers) CreateActor(c *gin.Context) {
	var actor entity.Actor
	if err := c.ShouldBindJSON(&actor); err != nil {
		h.badRequest(c, "invalid actor: "+err.Error())
		return
	}
	result, err := h.services.Actors.CreateActor(c.Request.Context(), &actor)
	if err != nil {
		h.respondError(c, "create actor", err, nil)
		return
	}
	created(c, result)
}

// ListActors handles GET /api/actors?type=SELLER|BUYER
func (h *Handlers) ListActors(c *gin.Context) {
	actors, err := h.services.Actors.ListActors(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.respondError(c, "list actors", err, nil)
		return
	}
	ok(c, actors)
}

// GetActor handles GET /api/actors/:id
func (h *Handlers) GetActor(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	actor, err := h.services.Actors.GetActor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get actor", err, nil)
		return
	}
	ok(c, actor)
}

// UpdateBanking handles PUT /api/actors/:id/banking
func (h *Handlers) UpdateBanking(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	var req BankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid banking details: "+err.Error())
		return
	}
	actor, err := h.services.Actors.UpdateBanking(c.Request.Context(), id, req.IBAN, req.BIC, req.VATSubject)
	if err != nil {
		h.respondError(c, "update banking", err, nil)
		return
	}
	ok(c, actor)
}

// DeleteActor handles DELETE /api/actors/:id
func (h *Handlers) DeleteActor(c *gin.Context) {
	id, valid := h.idParam(c, "id")
	if !valid {
		return
	}
	if err := h.services.Actors.DeleteActor(c.Request.Context(), id); err != nil {
		h.respondError(c, "delete actor", err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"deleted": id}})
}

// GetCompany handles GET /api/company
func (h *Handlers) GetCompany(c *gin.Context) {
	profile, err := h.services.Company.GetProfile(c.Request.Context())
	if err != nil {
		h.respondError(c, "get company", err, nil)
		return
	}
	ok(c, profile)
}

// UpdateCompany handles PUT /api/company
func (h *Handlers) UpdateCompany(c *gin.Context) {
	var profile entity.CompanyProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.badRequest(c, "invalid company profile: "+err.Error())
		return
	}
	result, err := h.services.Company.UpdateProfile(c.Request.Context(), &profile)
	if err != nil {
		h.respondError(c, "update company", err, nil)
		return
	}
	ok(c, result)
}

// ListAudit handles GET /api/audit
func (h *Handlers) ListAudit(c *gin.Context) {
	var q AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	entries, err := h.services.Audit.List(c.Request.Context(), q.ResourceType, q.ResourceID, q.Limit)
	if err != nil {
		h.respondError(c, "list audit", err, nil)
		return
	}
	ok(c, entries)
}
