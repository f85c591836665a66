package pattern

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidResource indicates that a resource path specification is not
// a usable non-empty string.
var ErrInvalidResource = errors.New("invalid resource path")

// Pattern is a compiled resource path specification.
type Pattern struct {
	spec     string
	identity string
	regex    *regexp.Regexp
	literal  int
}

// Compile compiles a resource path specification into a Pattern.
//
// A specification with no parameter or wildcard syntax compiles to an
// exact-match pattern whose identity is the literal string itself.
// Otherwise the specification compiles to an anchored expression where
// ":name" matches a single path segment and "*" matches the remainder
// of the path; the identity is the anchored expression source.
func Compile(spec string) (*Pattern, error) {
	if spec == "" {
		return nil, ErrInvalidResource
	}

	p := &Pattern{
		spec:    spec,
		literal: literalLength(spec),
	}

	if !hasMeta(spec) {
		p.identity = spec
		return p, nil
	}

	escaped := regexp.QuoteMeta(spec)
	// Rest-of-path wildcard
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	// Single-segment path parameters like :id
	escaped = regexp.MustCompile(`:[^/]+`).ReplaceAllString(escaped, `[^/]+`)

	source := "^" + escaped + "$"
	regex, err := regexp.Compile(source)
	if err != nil {
		return nil, ErrInvalidResource
	}

	p.identity = source
	p.regex = regex
	return p, nil
}

// hasMeta reports whether the specification uses parameter or wildcard
// syntax.
func hasMeta(spec string) bool {
	if strings.Contains(spec, "*") {
		return true
	}
	for _, segment := range strings.Split(spec, "/") {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			return true
		}
	}
	return false
}

// literalLength returns the length of the literal prefix of the
// specification, up to the first parameter or wildcard.
func literalLength(spec string) int {
	for i, r := range spec {
		if r == '*' || r == ':' {
			return i
		}
	}
	return len(spec)
}

// Spec returns the original path specification.
func (p *Pattern) Spec() string {
	return p.spec
}

// Identity returns the stable textual identity of the pattern. Two
// patterns are identical for registry purposes only if their identities
// are textually identical.
func (p *Pattern) Identity() string {
	return p.identity
}

// LiteralLength returns the length of the literal portion of the
// pattern, used for deterministic pattern ordering.
func (p *Pattern) LiteralLength() int {
	return p.literal
}

// Matches reports whether the concrete request path conforms to the
// pattern. Exact patterns match by string equality.
func (p *Pattern) Matches(path string) bool {
	if p.regex == nil {
		return p.spec == path
	}
	return p.regex.MatchString(path)
}
