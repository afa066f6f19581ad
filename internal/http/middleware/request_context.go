package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	errMissingToken = errors.New("missing or invalid token")
	errForbidden    = errors.New("forbidden")
)

// RequestTimeout bounds the request context so every downstream call made
// with it (database, model, nutrient lookup) is cancelled together.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
