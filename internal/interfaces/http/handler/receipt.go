package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wmsexpress/backend/internal/application/lookup"
	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/interfaces/http/middleware"
)

// ReceiptHandler serves receipt details, edits and stock moves
type ReceiptHandler struct {
	BaseHandler
	service *lookup.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(service *lookup.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// Get returns the detail record of a receipt.
//
//	GET /api/v1/receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	d, err := h.service.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, d)
}

// Update validates an edited receipt detail. The normalized record is
// returned with persisted=false.
//
//	PUT /api/v1/receipts/:id
func (h *ReceiptHandler) Update(c *gin.Context) {
	var edit receipt.Detail
	if err := c.ShouldBindJSON(&edit); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// MoveStock validates a stock move. Accepted moves are acknowledged with
// 201 and persisted=false.
//
//	POST /api/v1/stock-moves
func (h *ReceiptHandler) MoveStock(c *gin.Context) {
	var req receipt.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	resp, err := h.service.MoveStock(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}
