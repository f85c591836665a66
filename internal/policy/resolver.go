package policy

import (
	"net"
)

// resolver resolves a (path, address) pair to a single allow/deny
// decision over a frozen resource snapshot.
type resolver struct {
	resources []*resource
}

// Resolve pools the rules of every pattern matching the path, filters
// them by address containment, and reduces the pool most-specific-wins.
//
// The reduction starts from an implicit allow over the widest possible
// range, so an unmatched path or an uncontained address resolves to
// allow. A strictly narrower candidate replaces the current winner
// outright; a strictly wider one is discarded; an exact size tie
// combines by logical AND, so a deny overrides an allow at the same
// specificity while the tied specificity keeps accumulating.
func (r *resolver) Resolve(path string, addr net.IP) bool {
	winner := Rule{Action: ActionAllow, Network: Network{catchAll: true}}

	for _, res := range r.resources {
		if !res.pattern.Matches(path) {
			continue
		}
		for _, rule := range res.rules {
			if !rule.Network.Contains(addr) {
				continue
			}
			switch {
			case rule.Network.hostBits() < winner.Network.hostBits():
				winner = rule
			case rule.Network.hostBits() > winner.Network.hostBits():
				// Less specific than the current winner.
			default:
				if rule.Action == ActionDeny {
					winner.Action = ActionDeny
				}
			}
		}
	}

	return winner.Action == ActionAllow
}
