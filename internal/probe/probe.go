// Package probe issues single reachability probes against IPv4 hosts.
//
// Three transports are available: a raw ICMP socket (requires elevated
// privilege on most platforms), an unprivileged datagram ICMP socket,
// and the platform ping utility. All of them share the same contract:
// a probe either measures a round trip within the timeout or reports
// the host offline. Transport and privilege failures are normal
// outcomes, never errors.
package probe

import (
	"context"
	"net"
	"time"
)

// Prober issues a single reachability probe against one address.
type Prober interface {
	Probe(ctx context.Context, ip net.IP, timeout time.Duration) (online bool, rtt time.Duration)
}

// Func adapts a plain function to the Prober interface.
type Func func(ctx context.Context, ip net.IP, timeout time.Duration) (bool, time.Duration)

func (f Func) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, time.Duration) {
	return f(ctx, ip, timeout)
}
