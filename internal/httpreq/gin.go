package httpreq

import (
	"github.com/gin-gonic/gin"
)

// GinRequest is a read-only view of a *gin.Context. Header, query and form
// lookups go to the underlying *http.Request; the remote address comes from
// gin, which already strips the port.
type GinRequest struct {
	HTTPRequest
	c *gin.Context
}

// FromGin wraps c.
func FromGin(c *gin.Context) GinRequest {
	return GinRequest{HTTPRequest: FromHTTP(c.Request), c: c}
}

// RemoteAddr returns the transport peer address as gin reports it.
func (g GinRequest) RemoteAddr() string {
	return g.c.RemoteIP()
}
