// Package config provides declarative configuration for cidrfence.
package config

import (
	"time"

	"github.com/cidrfence/cidrfence/internal/policy"
)

// Cache backend types.
const (
	// CacheTypeMemory uses the in-process decision cache.
	CacheTypeMemory = "memory"

	// CacheTypeRedis shares decisions through a Redis instance.
	CacheTypeRedis = "redis"

	// CacheTypeNone disables decision memoization.
	CacheTypeNone = "none"
)

// Config is the top-level cidrfence configuration.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics configures prometheus metrics exposure.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Cache configures the decision cache backend.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// TrustedProxies lists CIDR blocks of proxies whose forwarded
	// address headers may be trusted.
	TrustedProxies []string `json:"trustedProxies" yaml:"trustedProxies"`

	// Rules is the ordered list of declarative access rules.
	Rules []policy.RuleRecord `json:"rules" yaml:"rules"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddress   string   `json:"listenAddress" yaml:"listenAddress"`
	ReadTimeout     Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    Duration `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// DeniedStatusCode is the HTTP status returned for denied requests.
	DeniedStatusCode int `json:"deniedStatusCode" yaml:"deniedStatusCode"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
}

// MetricsConfig configures prometheus metrics exposure.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Path      string `json:"path" yaml:"path"`
}

// CacheConfig configures the decision cache backend.
type CacheConfig struct {
	Type  string            `json:"type" yaml:"type"`
	Redis *RedisCacheConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisCacheConfig configures the Redis decision cache.
type RedisCacheConfig struct {
	URL string   `json:"url" yaml:"url"`
	TTL Duration `json:"ttl" yaml:"ttl"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:    ":8080",
			ReadTimeout:      Duration(10 * time.Second),
			WriteTimeout:     Duration(10 * time.Second),
			ShutdownTimeout:  Duration(15 * time.Second),
			DeniedStatusCode: 403,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "cidrfence",
			Path:      "/metrics",
		},
		Cache: CacheConfig{
			Type: CacheTypeMemory,
		},
	}
}
