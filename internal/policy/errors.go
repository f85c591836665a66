package policy

import (
	"errors"
	"fmt"

	"github.com/cidrfence/cidrfence/internal/pattern"
)

// Common configuration and evaluation errors.
var (
	// ErrInvalidResource indicates that a resource path specification is
	// not a usable non-empty string.
	ErrInvalidResource = pattern.ErrInvalidResource

	// ErrDuplicateResource indicates that an identical resource pattern
	// was registered twice within the same open batch.
	ErrDuplicateResource = errors.New("duplicate resource pattern in batch")

	// ErrInvalidCIDR indicates that a value is neither the catch-all
	// symbol nor a valid network/prefix pair.
	ErrInvalidCIDR = errors.New("invalid CIDR block")

	// ErrMalformedRule indicates that a declarative rule record lacks a
	// resource or specifies neither allow nor deny values.
	ErrMalformedRule = errors.New("malformed rule record")

	// ErrInvalidAddress indicates that an address passed to Evaluate is
	// not a parseable IP literal.
	ErrInvalidAddress = errors.New("invalid address")
)

// ConfigError represents a configuration error with additional context.
type ConfigError struct {
	// Err is the underlying error.
	Err error

	// Resource is the resource path specification involved, if any.
	Resource string

	// Value is the offending value, if any.
	Value string
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	switch {
	case e.Resource != "" && e.Value != "":
		return fmt.Sprintf("%v: resource %q, value %q", e.Err, e.Resource, e.Value)
	case e.Resource != "":
		return fmt.Sprintf("%v: resource %q", e.Err, e.Resource)
	case e.Value != "":
		return fmt.Sprintf("%v: value %q", e.Err, e.Value)
	default:
		return e.Err.Error()
	}
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsDuplicateResource checks if an error is a duplicate resource error.
func IsDuplicateResource(err error) bool {
	return errors.Is(err, ErrDuplicateResource)
}

// IsInvalidCIDR checks if an error is an invalid CIDR error.
func IsInvalidCIDR(err error) bool {
	return errors.Is(err, ErrInvalidCIDR)
}
