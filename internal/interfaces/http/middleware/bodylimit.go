package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wmsexpress/backend/internal/interfaces/http/dto"
)

// DefaultBodyLimit caps JSON request bodies; scan frames are the largest payload
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects requests whose declared Content-Length exceeds maxBytes
// and caps chunked bodies while they are read. A non-positive maxBytes means
// DefaultBodyLimit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortPayloadTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func abortPayloadTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodePayloadTooLarge,
		"Request body exceeds maximum allowed size",
		requestIDOf(c),
	))
}
