package dto

import (
	"net/http"

	"github.com/wmsexpress/backend/internal/domain/shared"
)

// API error codes, ERR_<CATEGORY>[_<DETAIL>].
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeBusinessRule    = "ERR_BUSINESS_RULE" // e.g. moving another client's purchase order
	ErrCodeInvalidCatalog  = "ERR_INVALID_CATALOG"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

var errorStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeBusinessRule:    http.StatusUnprocessableEntity,
	ErrCodeInvalidCatalog:  http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// domainCodes translates shared.DomainError codes.
var domainCodes = map[string]string{
	shared.ErrNotFound.Code:       ErrCodeNotFound,
	shared.ErrInvalidInput.Code:   ErrCodeInvalidInput,
	shared.ErrValidation.Code:     ErrCodeValidation,
	shared.ErrBusinessRule.Code:   ErrCodeBusinessRule,
	shared.ErrInvalidCatalog.Code: ErrCodeInvalidCatalog,
}

// GetHTTPStatus returns the status for an API error code, 500 when unknown.
func GetHTTPStatus(code string) int {
	if status, ok := errorStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode maps a domain code to its API code. API codes and
// unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if api, ok := domainCodes[code]; ok {
		return api
	}
	return code
}
