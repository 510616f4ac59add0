package config

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/greencloud/reqattr/internal/observability"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator collects every problem in a configuration instead of stopping
// at the first.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates cfg and returns ValidationErrors, or nil.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates cfg and returns ValidationErrors, or nil.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = v.errors[:0]

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateLogging(&cfg.Logging)
	v.validateMetrics(&cfg.Metrics)
	v.validateURI(&cfg.URI)
	v.validateClientIP(&cfg.ClientIP)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(s *ServerConfig) {
	if s.Address == "" {
		v.addError("server.address", "address is required")
	} else if _, _, err := net.SplitHostPort(s.Address); err != nil {
		v.addError("server.address", fmt.Sprintf("invalid address %q: %v", s.Address, err))
	}
	if s.ReadTimeout < 0 {
		v.addError("server.readTimeout", "must not be negative")
	}
	if s.WriteTimeout < 0 {
		v.addError("server.writeTimeout", "must not be negative")
	}
	if s.IdleTimeout < 0 {
		v.addError("server.idleTimeout", "must not be negative")
	}
	if s.ShutdownTimeout < 0 {
		v.addError("server.shutdownTimeout", "must not be negative")
	}
	if s.MaxBodyBytes < 0 {
		v.addError("server.maxBodyBytes", "must not be negative")
	}
}

func (v *Validator) validateLogging(l *LoggingConfig) {
	if _, err := observability.ParseLevel(l.Level); err != nil {
		v.addError("logging.level", fmt.Sprintf("invalid level %q", l.Level))
	}
	switch l.Format {
	case "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format %q, must be json or console", l.Format))
	}
	switch l.Output {
	case "stdout", "stderr":
	default:
		v.addError("logging.output", fmt.Sprintf("invalid output %q, must be stdout or stderr", l.Output))
	}
}

func (v *Validator) validateMetrics(m *MetricsConfig) {
	if !m.Enabled {
		return
	}
	if !strings.HasPrefix(m.Path, "/") {
		v.addError("metrics.path", "path must start with /")
	}
	if m.Namespace == "" {
		v.addError("metrics.namespace", "namespace is required")
	}
}

func (v *Validator) validateURI(u *URIConfig) {
	if _, err := htmlindex.Get(u.Charset); err != nil {
		v.addError("uri.charset", fmt.Sprintf("unsupported charset %q", u.Charset))
	}
}

func (v *Validator) validateClientIP(c *ClientIPConfig) {
	for i, proxy := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err == nil {
			continue
		}
		if net.ParseIP(proxy) == nil {
			v.addError(fmt.Sprintf("clientIP.trustedProxies[%d]", i),
				fmt.Sprintf("invalid CIDR or IP %q", proxy))
		}
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{
		Path:    path,
		Message: message,
	})
}
