//go:build linux

package neigh

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/mdlayher/arp"
)

// ActiveResolver issues real ARP requests on a network interface
// instead of relying on the kernel's table. It needs a packet socket,
// so it is Linux-only and usually requires elevated privilege.
type ActiveResolver struct {
	mu      sync.Mutex
	client  *arp.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewActiveResolver(ifaceName string, timeout time.Duration, logger *slog.Logger) (Resolver, error) {
	if ifaceName == "" {
		return nil, fmt.Errorf("active arp resolution requires an interface name")
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", ifaceName, err)
	}
	client, err := arp.Dial(iface)
	if err != nil {
		return nil, fmt.Errorf("arp client on %s: %w", ifaceName, err)
	}
	return &ActiveResolver{client: client, timeout: timeout, logger: logger}, nil
}

func (r *ActiveResolver) Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, bool) {
	addr, ok := netip.AddrFromSlice(ip.To4())
	if !ok {
		return nil, false
	}

	// The ARP client multiplexes one packet socket; serialize requests.
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := r.client.SetDeadline(deadline); err != nil {
		return nil, false
	}
	mac, err := r.client.Resolve(addr)
	if err != nil {
		r.logger.Debug("arp request failed", "target", ip.String(), "err", err)
		return nil, false
	}
	return mac, true
}

// Close releases the packet socket.
func (r *ActiveResolver) Close() error {
	return r.client.Close()
}
