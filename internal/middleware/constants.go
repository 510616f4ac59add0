package middleware

// HTTP header and content type constants.
const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"

	// HeaderRewriteURI carries a request URI override, as a rewrite filter
	// in front of the resolvers would store it.
	HeaderRewriteURI = "X-Rewrite-URI"
)

// JSON error bodies.
const (
	ErrInternalServerError   = `{"error":"internal server error"}`
	ErrRequestEntityTooLarge = `{"error":"request entity too large"}`
)
