package middleware

import (
	"net/http"

	"github.com/greencloud/reqattr/internal/reqctx"
)

// RewriteURI returns a middleware that stores the value of header as the
// request URI override in the RequestContext. It must run after
// RequestContext and before anything that reads the effective URI.
func RewriteURI(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if override := r.Header.Get(header); override != "" {
				reqctx.FromContext(r.Context()).SetRequestURI(override)
			}
			next.ServeHTTP(w, r)
		})
	}
}
