package policy

import (
	"net"
)

// CatchAll is the literal symbol accepted wherever a CIDR value is
// expected, denoting every possible address.
const CatchAll = "*"

// catchAllBits is the specificity exponent of the catch-all network,
// equivalent in size to ::/0.
const catchAllBits = 128

// Network is a contiguous range of addresses: either a parsed CIDR
// block or the catch-all covering every address.
type Network struct {
	ipnet    *net.IPNet
	catchAll bool
}

// ParseNetwork parses a CIDR value. The catch-all symbol is accepted
// and normalized to the widest possible range. Any other value must be
// a syntactically valid network/prefix pair; an empty string, a
// malformed address, or a bare address without a prefix fail with
// ErrInvalidCIDR.
func ParseNetwork(value string) (Network, error) {
	if value == CatchAll {
		return Network{catchAll: true}, nil
	}

	_, ipnet, err := net.ParseCIDR(value)
	if err != nil {
		return Network{}, &ConfigError{Err: ErrInvalidCIDR, Value: value}
	}

	return Network{ipnet: ipnet}, nil
}

// Contains reports whether the network contains the given address. The
// containment test is inclusive of the network and broadcast addresses.
func (n Network) Contains(ip net.IP) bool {
	if n.catchAll {
		return true
	}
	return n.ipnet.Contains(ip)
}

// hostBits returns the number of free host bits in the network, used as
// the specificity exponent: fewer free bits means fewer covered
// addresses and a more specific, higher-priority range.
func (n Network) hostBits() int {
	if n.catchAll {
		return catchAllBits
	}
	ones, bits := n.ipnet.Mask.Size()
	return bits - ones
}

// String returns the textual form of the network.
func (n Network) String() string {
	if n.catchAll {
		return CatchAll
	}
	return n.ipnet.String()
}
