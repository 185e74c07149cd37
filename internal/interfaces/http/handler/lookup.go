package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wmsexpress/backend/internal/application/lookup"
	"github.com/wmsexpress/backend/internal/domain/scan"
	"github.com/wmsexpress/backend/internal/interfaces/http/middleware"
)

// LookupHandler serves the client picker, receipt lists and search endpoints
type LookupHandler struct {
	BaseHandler
	service *lookup.Service
}

// NewLookupHandler creates a new LookupHandler
func NewLookupHandler(service *lookup.Service) *LookupHandler {
	return &LookupHandler{service: service}
}

// ResolveRequest is the body of a typed search
type ResolveRequest struct {
	Query     string              `json:"query" binding:"trimmax=64"`
	Selection lookup.SelectionDTO `json:"selection"`
}

// ScanFrameRequest is the body of one camera frame
type ScanFrameRequest struct {
	Viewport   scan.Viewport       `json:"viewport"`
	Detections []scan.Detection    `json:"detections" binding:"max=32"`
	Selection  lookup.SelectionDTO `json:"selection"`
}

// ListClients returns the client picker, "All Clients" first.
//
//	GET /api/v1/clients
func (h *LookupHandler) ListClients(c *gin.Context) {
	h.Success(c, h.service.ListClients(c.Request.Context()))
}

// ListReceipts returns a client's receipts. The optional highlight query
// parameter flags one receipt.
//
//	GET /api/v1/clients/:id/receipts?highlight=WR-001
func (h *LookupHandler) ListReceipts(c *gin.Context) {
	clientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	resp, err := h.service.ListReceipts(c.Request.Context(), clientID, c.Query("highlight"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Dashboard returns the home screen card for a client, "All Clients" when
// client_id is absent.
//
//	GET /api/v1/dashboard?client_id=1
func (h *LookupHandler) Dashboard(c *gin.Context) {
	clientID := 0
	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid client ID")
			return
		}
		clientID = id
	}

	resp, err := h.service.Dashboard(c.Request.Context(), clientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Resolve resolves a typed query against the catalog and returns the
// updated selection. EMPTY, INVALID_FORMAT and NOT_FOUND are 200 responses.
//
//	POST /api/v1/lookup/resolve
func (h *LookupHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	resp, err := h.service.Resolve(c.Request.Context(), lookup.ResolveRequest{
		Query:     req.Query,
		Selection: req.Selection,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SearchForMove resolves a query for the stock move form.
//
//	GET /api/v1/lookup/move?q=PO-001
func (h *LookupHandler) SearchForMove(c *gin.Context) {
	h.Success(c, h.service.SearchForMove(c.Request.Context(), c.Query("q")))
}

// ScanFrame filters a frame's detections to the scan area and resolves each one.
//
//	POST /api/v1/lookup/scan
func (h *LookupHandler) ScanFrame(c *gin.Context) {
	var req ScanFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	resp, err := h.service.ScanFrame(c.Request.Context(), lookup.ScanRequest{
		Viewport:   req.Viewport,
		Detections: req.Detections,
		Selection:  req.Selection,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
