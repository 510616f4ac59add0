// Package config provides configuration management for the request
// attribute service. Configuration is read from a YAML file with
// ${VAR} and ${VAR:-default} environment substitution, then defaulted and
// validated.
package config

import (
	"time"
)

// Config holds all configuration settings.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	URI      URIConfig      `json:"uri" yaml:"uri"`
	ClientIP ClientIPConfig `json:"clientIP" yaml:"clientIP"`
	Inspect  InspectConfig  `json:"inspect" yaml:"inspect"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string   `json:"address" yaml:"address"`
	ReadTimeout     Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// MaxBodyBytes caps how much of a form body is read for inspection.
	MaxBodyBytes int64 `json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Path      string `json:"path" yaml:"path"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// URIConfig configures request URI override encoding.
type URIConfig struct {
	Charset string `json:"charset" yaml:"charset"`
}

// ClientIPConfig configures client address resolution. With no trusted
// proxies every peer's proxy headers are honored.
type ClientIPConfig struct {
	TrustedProxies []string `json:"trustedProxies" yaml:"trustedProxies"`
}

// InspectConfig configures the inspection endpoint.
type InspectConfig struct {
	IncludeHeaders bool `json:"includeHeaders" yaml:"includeHeaders"`
}

// Default values.
const (
	DefaultAddress         = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = 1 << 20 // 1 MB
	DefaultMetricsPath     = "/metrics"
	DefaultMetricsNS       = "reqattr"
	DefaultCharset         = "UTF-8"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
		Inspect: InspectConfig{IncludeHeaders: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNS
	}

	if c.URI.Charset == "" {
		c.URI.Charset = DefaultCharset
	}
}
