// Package policy implements a path/CIDR access-control engine.
//
// A Registry maps compiled resource patterns to ordered allow/deny
// rules, each scoped to a CIDR block. Rules are registered through a
// fluent, chainable API or built from declarative rule records, then
// frozen by Build into an Evaluator.
//
// Evaluation pools the rules of every pattern matching the request
// path, filters them by address containment, and resolves conflicts by
// CIDR specificity: the narrowest containing block wins, an exact-size
// tie combines by logical AND (a deny overrides an allow), and the
// implicit baseline when nothing applies is allow.
//
// # Usage
//
//	registry := policy.NewRegistry().
//	    ForResource("/health_check").
//	    Deny("*").
//	    Allow("127.0.0.1/32")
//
//	evaluator, err := registry.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	allowed, err := evaluator.Evaluate(ctx, "/health_check", "127.0.0.1")
//
// The Evaluator memoizes decisions per (path, address) pair and is safe
// for concurrent use; the memo is valid because the registry is
// immutable once Build has run.
package policy
