package config

import (
	"errors"
	"fmt"
	"net/http"
)

// Common configuration validation errors.
var (
	// ErrMissingListenAddress indicates that no listen address is set.
	ErrMissingListenAddress = errors.New("server listen address is required")

	// ErrInvalidCacheType indicates an unknown cache backend type.
	ErrInvalidCacheType = errors.New("invalid cache type")

	// ErrMissingRedisURL indicates that the redis cache lacks a URL.
	ErrMissingRedisURL = errors.New("redis cache requires a url")

	// ErrInvalidStatusCode indicates an unusable denied status code.
	ErrInvalidStatusCode = errors.New("denied status code must be a client or server error")
)

// Validate checks the configuration for structural problems. Rule
// contents (resource patterns, CIDR values) are validated when the
// policy registry is built.
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return ErrMissingListenAddress
	}

	if code := c.Server.DeniedStatusCode; code < http.StatusBadRequest || code > 599 {
		return fmt.Errorf("%w: %d", ErrInvalidStatusCode, code)
	}

	switch c.Cache.Type {
	case CacheTypeMemory, CacheTypeNone, "":
	case CacheTypeRedis:
		if c.Cache.Redis == nil || c.Cache.Redis.URL == "" {
			return ErrMissingRedisURL
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidCacheType, c.Cache.Type)
	}

	for i := range c.Rules {
		if err := c.Rules[i].Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return nil
}
