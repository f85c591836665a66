package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList is a list of strings that unmarshals from either a single
// YAML scalar or a sequence.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*l = StringList(many)
		return nil
	default:
		return fmt.Errorf("%w: expected string or list of strings", ErrMalformedRule)
	}
}

// RuleRecord is the declarative form of one registration: one or more
// resource path specifications plus the allow and/or deny CIDR values
// to attach to them.
type RuleRecord struct {
	// Resource lists the resource path specifications.
	Resource StringList `yaml:"resource" json:"resource"`

	// Allow lists CIDR values allowed access.
	Allow StringList `yaml:"allow,omitempty" json:"allow,omitempty"`

	// Deny lists CIDR values denied access.
	Deny StringList `yaml:"deny,omitempty" json:"deny,omitempty"`
}

// Validate checks that the record names at least one resource and at
// least one allow or deny value.
func (r *RuleRecord) Validate() error {
	if len(r.Resource) == 0 {
		return &ConfigError{Err: ErrMalformedRule, Value: "missing resource"}
	}
	if len(r.Allow) == 0 && len(r.Deny) == 0 {
		return &ConfigError{
			Err:      ErrMalformedRule,
			Resource: r.Resource[0],
			Value:    "neither allow nor deny specified",
		}
	}
	return nil
}

// NewRegistryFromRules constructs a registry from an ordered list of
// declarative rule records. Per record, all listed resources are
// registered, then all deny values and then all allow values are
// attached; the deny-then-allow ordering is part of the declarative
// form's contract regardless of field order. Construction fails fast on
// the first malformed record or invalid value.
func NewRegistryFromRules(records []RuleRecord, opts ...RegistryOption) (*Registry, error) {
	r := NewRegistry(opts...)

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		for _, res := range records[i].Resource {
			r.ForResource(res)
		}
		for _, cidr := range records[i].Deny {
			r.Deny(cidr)
		}
		for _, cidr := range records[i].Allow {
			r.Allow(cidr)
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return r, nil
}
