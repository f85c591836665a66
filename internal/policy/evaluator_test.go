package policy

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustBuild builds the registry's evaluator, failing the test on any
// configuration error.
func mustBuild(t *testing.T, r *Registry) *Evaluator {
	t.Helper()

	e, err := r.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func assertAllowed(t *testing.T, e *Evaluator, path, address string) {
	t.Helper()

	allowed, err := e.Evaluate(context.Background(), path, address)
	require.NoError(t, err)
	assert.True(t, allowed, "expected %s from %s to be allowed", path, address)
}

func assertDenied(t *testing.T, e *Evaluator, path, address string) {
	t.Helper()

	allowed, err := e.Evaluate(context.Background(), path, address)
	require.NoError(t, err)
	assert.False(t, allowed, "expected %s from %s to be denied", path, address)
}

func TestEvaluator_HealthCheckScenario(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/health_check").
		Deny("*").
		Allow("127.0.0.1/32"))

	assertAllowed(t, e, "/health_check", "127.0.0.1")
	assertDenied(t, e, "/health_check", "10.0.0.1")
}

func TestEvaluator_BaselineAllow(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry())
	assertAllowed(t, e, "/anything", "8.8.8.8")
}

func TestEvaluator_DenyAllAllowRange(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Deny("*").
		Allow("172.16.0.0/12"))

	assertAllowed(t, e, "/r", "172.16.0.1")
	assertAllowed(t, e, "/r", "172.31.255.255")
	assertDenied(t, e, "/r", "172.32.0.1")
	assertDenied(t, e, "/r", "1.2.3.4")
}

func TestEvaluator_NestedRanges(t *testing.T) {
	t.Parallel()

	// deny *, allow C1, deny C2 with C2 inside C1.
	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Deny("*").
		Allow("10.0.0.0/8").
		Deny("10.1.0.0/16"))

	assertAllowed(t, e, "/r", "10.2.0.1")
	assertDenied(t, e, "/r", "10.1.0.1")
	assertDenied(t, e, "/r", "11.0.0.1")
}

func TestEvaluator_MostSpecificWinsRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	orders := []*Registry{
		NewRegistry().ForResource("/r").Allow("10.0.0.0/8").Deny("10.1.0.0/16"),
		NewRegistry().ForResource("/r").Deny("10.1.0.0/16").Allow("10.0.0.0/8"),
	}

	for _, r := range orders {
		e := mustBuild(t, r)
		assertDenied(t, e, "/r", "10.1.2.3")
		assertAllowed(t, e, "/r", "10.2.0.1")
	}
}

func TestEvaluator_TieDenyWins(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Allow("10.1.0.0/16").
		Deny("10.1.0.0/16"))

	assertDenied(t, e, "/r", "10.1.2.3")
}

func TestEvaluator_TieAccumulates(t *testing.T) {
	t.Parallel()

	// A tie at one specificity does not outrank a narrower rule.
	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Allow("10.1.0.0/16").
		Deny("10.1.0.0/16").
		Allow("10.1.2.0/24"))

	assertAllowed(t, e, "/r", "10.1.2.3")
	assertDenied(t, e, "/r", "10.1.3.1")
}

func TestEvaluator_WildcardResource(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/path/*").
		Deny("*"))

	assertDenied(t, e, "/path/1", "8.8.8.8")
	assertDenied(t, e, "/path/1/2", "8.8.8.8")
	assertAllowed(t, e, "/other", "8.8.8.8")
}

func TestEvaluator_PathParameterResource(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/users/:id").
		Deny("*").
		Allow("127.0.0.1/32"))

	assertAllowed(t, e, "/users/42", "127.0.0.1")
	assertDenied(t, e, "/users/42", "8.8.8.8")
	assertAllowed(t, e, "/users", "8.8.8.8")
}

func TestEvaluator_IPv6(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Deny("*").
		Allow("2001:db8::/32"))

	assertAllowed(t, e, "/r", "2001:db8::1")
	assertDenied(t, e, "/r", "2001:db9::1")
	assertDenied(t, e, "/r", "8.8.8.8")
}

func TestEvaluator_Idempotent(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Deny("*").
		Allow("127.0.0.1/32"))

	ctx := context.Background()
	first, err := e.Evaluate(ctx, "/r", "127.0.0.1")
	require.NoError(t, err)
	second, err := e.Evaluate(ctx, "/r", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluator_KeyIsOrderSensitive(t *testing.T) {
	t.Parallel()

	// A path that looks like an address must not collide with the
	// address component of another key.
	e := mustBuild(t, NewRegistry().
		ForResource("/10.0.0.1").
		Deny("*"))

	assertDenied(t, e, "/10.0.0.1", "8.8.8.8")
	assertAllowed(t, e, "/other", "10.0.0.1")
}

func TestEvaluator_InvalidAddress(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Deny("*"))

	for _, address := range []string{"", "not-an-ip", "999.0.0.1"} {
		_, err := e.Evaluate(context.Background(), "/r", address)
		assert.ErrorIs(t, err, ErrInvalidAddress, "address %q", address)
	}
}

func TestEvaluator_ConcurrentEvaluation(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, NewRegistry().
		ForResource("/r").
		Deny("*").
		Allow("10.0.0.0/8"))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				allowed, err := e.Evaluate(context.Background(), "/r", "10.0.0.1")
				assert.NoError(t, err)
				assert.True(t, allowed)

				allowed, err = e.Evaluate(context.Background(), "/r", "8.8.8.8")
				assert.NoError(t, err)
				assert.False(t, allowed)
			}
		}()
	}
	wg.Wait()
}

func TestEvaluator_Metrics(t *testing.T) {
	t.Parallel()

	metrics := NewMetricsWithRegisterer("test_eval", prometheus.NewRegistry())

	e := mustBuild(t, NewRegistry(WithMetrics(metrics)).
		ForResource("/r").
		Deny("*"))

	ctx := context.Background()
	_, err := e.Evaluate(ctx, "/r", "8.8.8.8")
	require.NoError(t, err)
	_, err = e.Evaluate(ctx, "/r", "8.8.8.8")
	require.NoError(t, err)
}
