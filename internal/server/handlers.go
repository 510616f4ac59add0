package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greencloud/reqattr/internal/attribute"
	"github.com/greencloud/reqattr/internal/health"
	"github.com/greencloud/reqattr/internal/httpreq"
	"github.com/greencloud/reqattr/internal/observability"
	"github.com/greencloud/reqattr/internal/reqctx"
)

const contentTypeForm = "application/x-www-form-urlencoded"

// InspectResponse is the body of /inspect.
type InspectResponse struct {
	attribute.Facts
	Form      map[string]string `json:"form,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ResolveResponse is the body of /inspect/resolve/:name.
type ResolveResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.Health())
}

func (s *Server) handleReady(c *gin.Context) {
	resp := s.health.Readiness()
	status := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (s *Server) handleInspect(c *gin.Context) {
	rc := s.requestContext(c)

	form, err := s.readForm(c)
	if err != nil {
		s.abortBody(c, err)
		return
	}

	facts := s.resolver.Facts(httpreq.FromGin(c), rc, s.includeHeaders.Load())
	c.JSON(http.StatusOK, InspectResponse{
		Facts:     facts,
		Form:      form,
		RequestID: observability.RequestIDFromContext(c.Request.Context()),
	})
}

func (s *Server) handleResolve(c *gin.Context) {
	rc := s.requestContext(c)

	if _, err := s.readForm(c); err != nil {
		s.abortBody(c, err)
		return
	}

	name := c.Param("name")
	value, found := s.resolver.Resolve(httpreq.FromGin(c), rc, name)

	status := http.StatusOK
	if !found {
		status = http.StatusNotFound
	}
	c.JSON(status, ResolveResponse{Name: name, Value: value, Found: found})
}

// requestContext returns the RequestContext installed by the middleware
// chain, or installs one when the engine is served without it.
func (s *Server) requestContext(c *gin.Context) *reqctx.RequestContext {
	rc := reqctx.FromContext(c.Request.Context())
	if rc == nil {
		rc = reqctx.New()
		c.Request = c.Request.WithContext(reqctx.WithContext(c.Request.Context(), rc))
	}
	return rc
}

// readForm reads a urlencoded body, returns its first values and restores
// it so the request's own form parsing sees the same bytes.
func (s *Server) readForm(c *gin.Context) (map[string]string, error) {
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), contentTypeForm) {
		return nil, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	_ = c.Request.Body.Close()

	form := s.resolver.FormParamsFirstValue(string(body))

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err := c.Request.ParseForm(); err != nil {
		s.logger.Debug("form parse failed, form lookups use the query only",
			observability.Error(err),
		)
	}
	return form, nil
}

func (s *Server) abortBody(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request entity too large"})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
}
