// Package middleware adapts the policy engine to HTTP requests.
//
// The access-control middleware extracts the request path and the
// remote client address (preferring forwarded-address headers over the
// raw connection address), evaluates them against a frozen policy
// evaluator, and maps the boolean decision to an HTTP response.
package middleware
