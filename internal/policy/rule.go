package policy

// Action is the verdict a rule attaches to its network range.
type Action string

const (
	// ActionAllow permits access for addresses in the rule's range.
	ActionAllow Action = "allow"

	// ActionDeny forbids access for addresses in the rule's range.
	ActionDeny Action = "deny"
)

// Rule binds an allow/deny action to a network range. Rules are
// append-only: once attached to a resource pattern they are never
// removed or mutated.
type Rule struct {
	// Action is the verdict for addresses inside Network.
	Action Action

	// Network is the range of addresses the rule applies to.
	Network Network
}
