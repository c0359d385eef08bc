package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unimerch/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies above maxBytes. Multipart uploads get multipartMax
// instead, since images are checked file by file downstream.
func BodyLimit(maxBytes, multipartMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if strings.HasPrefix(c.ContentType(), "multipart/") && multipartMax > 0 {
			limit = multipartMax
		}
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			abort(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBodyTooLarge, "Request body exceeds maximum allowed size")
			return
		}

		// streaming bodies without a length are cut off at the limit
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
