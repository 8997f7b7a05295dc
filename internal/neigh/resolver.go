// Package neigh resolves hardware (link-layer) addresses for IPv4
// hosts on the local segment, either by reading the OS neighbor table
// or by issuing real ARP requests.
package neigh

import (
	"context"
	"net"
)

// Resolver retrieves the hardware address associated with an IP
// address. A missing entry is reported as absent, not as an error: the
// neighbor table only holds recently contacted hosts.
type Resolver interface {
	Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, bool)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, ip net.IP) (net.HardwareAddr, bool)

func (f Func) Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, bool) {
	return f(ctx, ip)
}
