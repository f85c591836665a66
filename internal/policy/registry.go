package policy

import (
	"sort"

	"github.com/cidrfence/cidrfence/internal/observability"
	"github.com/cidrfence/cidrfence/internal/pattern"
)

// resource is a registered pattern and its ordered rule list.
type resource struct {
	pattern *pattern.Pattern
	rules   []Rule
}

// Registry owns the mapping from compiled resource patterns to their
// ordered allow/deny rule lists.
//
// Registration is batched: ForResource opens or extends the current
// batch, and Allow/Deny attach a rule to every pattern in it. The batch
// stays open across rule calls and only resets on the next ForResource
// call, and only once a batch member already owns rules. This allows
// grouping several resources under the same rules in one call chain,
// and reopening a previously-used pattern later to append more rules.
//
// Configuration errors are sticky: the first error disables all further
// calls and is surfaced by Err and Build. Callers must treat registry
// construction as atomic; a failed registry never yields an evaluator.
type Registry struct {
	resources map[string]*resource
	order     []*resource
	batch     []*resource
	err       error

	logger  observability.Logger
	metrics *Metrics
	cache   DecisionCache
}

// RegistryOption is a functional option for the registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used by the registry and its evaluator.
func WithLogger(logger observability.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorded by the evaluator.
func WithMetrics(metrics *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// WithDecisionCache sets the decision cache used by the evaluator. The
// default is an unbounded in-memory cache.
func WithDecisionCache(cache DecisionCache) RegistryOption {
	return func(r *Registry) {
		r.cache = cache
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		resources: make(map[string]*resource),
		logger:    observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ForResource compiles and registers a resource pattern, opening or
// extending the current batch. Registering an identical pattern twice
// within the same open batch fails with ErrDuplicateResource; an
// unusable path specification fails with ErrInvalidResource.
func (r *Registry) ForResource(spec string) *Registry {
	if r.err != nil {
		return r
	}

	p, err := pattern.Compile(spec)
	if err != nil {
		r.err = &ConfigError{Err: err, Resource: spec}
		return r
	}

	// The batch closes only once one of its members owns rules.
	if r.batchOwnsRules() {
		r.batch = nil
	}

	for _, res := range r.batch {
		if res.pattern.Identity() == p.Identity() {
			r.err = &ConfigError{Err: ErrDuplicateResource, Resource: spec}
			return r
		}
	}

	res, ok := r.resources[p.Identity()]
	if !ok {
		res = &resource{pattern: p}
		r.resources[p.Identity()] = res
		r.order = append(r.order, res)
	}
	r.batch = append(r.batch, res)

	return r
}

// Allow appends an allow rule for the given CIDR value to every pattern
// in the open batch. With no open batch the call validates the value
// but attaches nothing.
func (r *Registry) Allow(cidr string) *Registry {
	return r.addRule(ActionAllow, cidr)
}

// Deny appends a deny rule for the given CIDR value to every pattern in
// the open batch. With no open batch the call validates the value but
// attaches nothing.
func (r *Registry) Deny(cidr string) *Registry {
	return r.addRule(ActionDeny, cidr)
}

func (r *Registry) addRule(action Action, value string) *Registry {
	if r.err != nil {
		return r
	}

	network, err := ParseNetwork(value)
	if err != nil {
		r.err = err
		return r
	}

	for _, res := range r.batch {
		res.rules = append(res.rules, Rule{Action: action, Network: network})
	}

	return r
}

// Err returns the first configuration error encountered, if any.
func (r *Registry) Err() error {
	return r.err
}

// batchOwnsRules reports whether any pattern in the open batch already
// owns one or more rules.
func (r *Registry) batchOwnsRules() bool {
	for _, res := range r.batch {
		if len(res.rules) > 0 {
			return true
		}
	}
	return false
}

// Build freezes the registry and returns the memoizing evaluator. The
// pattern scan order is deterministic: ascending literal length, ties
// broken by identity. Mutating the registry after Build is not
// reflected in the evaluator.
func (r *Registry) Build() (*Evaluator, error) {
	if r.err != nil {
		return nil, r.err
	}

	resources := make([]*resource, 0, len(r.order))
	for _, res := range r.order {
		resources = append(resources, &resource{
			pattern: res.pattern,
			rules:   append([]Rule(nil), res.rules...),
		})
	}

	sort.Slice(resources, func(i, j int) bool {
		li, lj := resources[i].pattern.LiteralLength(), resources[j].pattern.LiteralLength()
		if li != lj {
			return li < lj
		}
		return resources[i].pattern.Identity() < resources[j].pattern.Identity()
	})

	if r.metrics != nil {
		ruleCount := 0
		for _, res := range resources {
			ruleCount += len(res.rules)
		}
		r.metrics.SetResourceCount(len(resources))
		r.metrics.SetRuleCount(ruleCount)
	}

	cache := r.cache
	if cache == nil {
		cache = NewMemoryDecisionCache()
	}

	return &Evaluator{
		resolver: &resolver{resources: resources},
		cache:    cache,
		logger:   r.logger,
		metrics:  r.metrics,
	}, nil
}
