package config

import (
	"slices"
)

// RuntimeConfig is the part of Config that takes effect without a restart.
type RuntimeConfig struct {
	LogLevel       string
	IncludeHeaders bool
}

// Runtime returns the runtime-reloadable settings of c.
func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{
		LogLevel:       c.Logging.Level,
		IncludeHeaders: c.Inspect.IncludeHeaders,
	}
}

// RestartRequired lists the paths of settings that differ between running
// and next and only take effect after a restart. A nil running yields nil.
func RestartRequired(running, next *Config) []string {
	if running == nil || next == nil {
		return nil
	}

	var fields []string
	changed := func(path string, differ bool) {
		if differ {
			fields = append(fields, path)
		}
	}

	rs, ns := running.Server, next.Server
	changed("server.address", rs.Address != ns.Address)
	changed("server.readTimeout", rs.ReadTimeout != ns.ReadTimeout)
	changed("server.writeTimeout", rs.WriteTimeout != ns.WriteTimeout)
	changed("server.idleTimeout", rs.IdleTimeout != ns.IdleTimeout)
	changed("server.shutdownTimeout", rs.ShutdownTimeout != ns.ShutdownTimeout)
	changed("server.maxBodyBytes", rs.MaxBodyBytes != ns.MaxBodyBytes)

	changed("logging.format", running.Logging.Format != next.Logging.Format)
	changed("logging.output", running.Logging.Output != next.Logging.Output)

	changed("metrics", running.Metrics != next.Metrics)
	changed("uri.charset", running.URI.Charset != next.URI.Charset)
	changed("clientIP.trustedProxies",
		!slices.Equal(running.ClientIP.TrustedProxies, next.ClientIP.TrustedProxies))

	return fields
}
