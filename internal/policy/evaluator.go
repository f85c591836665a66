package policy

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cidrfence/cidrfence/internal/observability"
)

// Evaluator is the frozen, memoizing decision function produced by
// Registry.Build. It is safe for concurrent use: the underlying
// registry snapshot is immutable and the decision cache tolerates
// concurrent population (duplicate first-time computation is harmless
// since decisions are pure functions of their input).
type Evaluator struct {
	resolver *resolver
	cache    DecisionCache
	logger   observability.Logger
	metrics  *Metrics
}

// Evaluate decides whether the given remote address may access the
// given resource path. The decision is memoized per (path, address)
// pair; identical pairs never re-run resolution.
//
// A malformed address fails with ErrInvalidAddress before the cache is
// consulted. For well-formed inputs evaluation never fails: unmatched
// paths and uncontained addresses resolve to the baseline allow.
func (e *Evaluator) Evaluate(ctx context.Context, path, address string) (bool, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	// Order-sensitive composite key; NUL cannot occur in either part.
	key := path + "\x00" + address

	if decision, ok := e.cache.Get(ctx, key); ok {
		if e.metrics != nil {
			e.metrics.RecordCacheHit()
		}
		return decision, nil
	}
	if e.metrics != nil {
		e.metrics.RecordCacheMiss()
	}

	start := time.Now()
	decision := e.resolver.Resolve(path, ip)
	if e.metrics != nil {
		e.metrics.RecordEvaluation(decision, time.Since(start))
	}

	e.cache.Set(ctx, key, decision)

	e.logger.Debug("access decision",
		observability.String("path", path),
		observability.String("address", address),
		observability.Bool("allowed", decision),
	)

	return decision, nil
}

// Close releases the evaluator's decision cache.
func (e *Evaluator) Close() error {
	return e.cache.Close()
}
