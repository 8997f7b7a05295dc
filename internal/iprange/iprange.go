package iprange

import (
	"errors"
	"fmt"
	"net"

	"github.com/jpillora/ipmath"
)

var (
	ErrInvalidGateway = errors.New("invalid gateway address")
	ErrInvalidMask    = errors.New("invalid subnet mask")
)

// Range is the set of usable host addresses derived from a gateway and
// subnet mask pair. Hosts excludes the network and broadcast addresses
// and is ordered ascending.
type Range struct {
	Network   net.IP
	Broadcast net.IP
	Mask      net.IPMask
	Hosts     []net.IP
}

// CIDR renders the range in prefix notation, e.g. "192.168.1.0/24".
func (r *Range) CIDR() string {
	ones, _ := r.Mask.Size()
	return fmt.Sprintf("%s/%d", r.Network, ones)
}

// Compute derives the usable host range for a gateway and dotted-quad
// subnet mask. The mask must be a contiguous prefix mask; anything else
// is rejected. Prefix lengths of 31 and 32 yield an empty host list.
func Compute(gateway, mask string) (*Range, error) {
	gw := net.ParseIP(gateway)
	if gw == nil || gw.To4() == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGateway, gateway)
	}
	gw = gw.To4()

	maskIP := net.ParseIP(mask)
	if maskIP == nil || maskIP.To4() == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMask, mask)
	}
	ipMask := net.IPMask(maskIP.To4())
	ones, bits := ipMask.Size()
	if bits != 32 {
		// Size reports 0,0 for non-contiguous masks.
		return nil, fmt.Errorf("%w: %q is not a contiguous prefix mask", ErrInvalidMask, mask)
	}
	if ones == 0 {
		return nil, fmt.Errorf("%w: %q covers the whole address space", ErrInvalidMask, mask)
	}

	network := gw.Mask(ipMask)
	broadcast := make(net.IP, len(network))
	copy(broadcast, network)
	for i := range broadcast {
		broadcast[i] |= ^ipMask[i]
	}

	ipNet := &net.IPNet{IP: network, Mask: ipMask}
	hosts := make([]net.IP, 0, hostCapacity(ones))
	// A /31 or /32 has no addresses between network and broadcast; for
	// /32 the single address is both at once and must not be walked.
	if ones < 31 {
		for curr := network; ipNet.Contains(curr); curr = ipmath.NextIP(curr) {
			if ipmath.IsNetworkAddress(curr, ipNet) || ipmath.IsBroadcastAddress(curr, ipNet) {
				continue
			}
			host := make(net.IP, len(curr))
			copy(host, curr)
			hosts = append(hosts, host)
		}
	}

	return &Range{
		Network:   network,
		Broadcast: broadcast,
		Mask:      ipMask,
		Hosts:     hosts,
	}, nil
}

func hostCapacity(prefix int) int {
	if prefix >= 31 {
		return 0
	}
	return (1 << (32 - prefix)) - 2
}
