package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/domain/shared"
	"github.com/wmsexpress/backend/internal/infrastructure/logger"
	"github.com/wmsexpress/backend/internal/interfaces/http/dto"
	"github.com/wmsexpress/backend/internal/interfaces/http/middleware"
)

// BaseHandler writes the JSON envelope shared by every endpoint
type BaseHandler struct{}

// requestID prefers the ID assigned by the RequestID middleware over the
// raw header.
func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends data with 200
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends data with 201
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error envelope with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}

// ErrorWithCode sends an error envelope whose status follows from code.
// Domain codes are accepted and mapped to their API form.
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeNotFound, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeInternal, message)
}

// ValidationError sends 400 with one detail per rejected field
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestID(c), details))
}

// HandleDomainError maps err onto the envelope. Receipt field validation keeps
// its per-field details; errors outside the domain are logged and hidden
// behind a generic 500.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var verr *receipt.ValidationError
	var derr *shared.DomainError
	switch {
	case errors.As(err, &verr):
		details := make([]dto.ValidationDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = dto.ValidationDetail{Field: f.Field, Message: f.Message}
		}
		h.ValidationError(c, details)
	case errors.As(err, &derr):
		h.ErrorWithCode(c, derr.Code, derr.Message)
	default:
		_ = c.Error(err)
		logger.L(c.Request.Context()).Error("Unhandled request error", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
	}
}
