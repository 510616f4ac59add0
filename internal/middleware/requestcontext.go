package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greencloud/reqattr/internal/reqctx"
)

// RequestContext returns a middleware that gives each request a fresh
// reqctx.RequestContext, reachable through reqctx.FromContext. A context
// already installed further out is kept.
func RequestContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reqctx.FromContext(r.Context()) == nil {
				r = r.WithContext(reqctx.WithContext(r.Context(), reqctx.New()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GinRequestContext is RequestContext for gin engines.
func GinRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if reqctx.FromContext(c.Request.Context()) == nil {
			c.Request = c.Request.WithContext(reqctx.WithContext(c.Request.Context(), reqctx.New()))
		}
		c.Next()
	}
}
