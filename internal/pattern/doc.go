// Package pattern compiles resource path specifications into matchable
// patterns.
//
// A specification is either a literal path ("/health_check") or a
// parameterized path using ":name" single-segment parameters and the
// "*" rest-of-path wildcard ("/users/:id", "/path/*"). Compiled
// patterns expose a stable textual identity used by the policy registry
// for duplicate detection and keying.
package pattern
