//go:build !windows

package neigh

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strings"
)

const procNetARP = "/proc/net/arp"

// TableResolver reads the OS neighbor table. On Linux it parses
// /proc/net/arp directly; elsewhere (and as a fallback) it queries the
// ip and arp utilities the same way the classic tooling does.
type TableResolver struct {
	logger *slog.Logger
}

func NewTableResolver(logger *slog.Logger) *TableResolver {
	return &TableResolver{logger: logger}
}

func (r *TableResolver) Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, bool) {
	if data, err := os.ReadFile(procNetARP); err == nil {
		if mac, ok := parseProcNetARP(strings.NewReader(string(data)), ip); ok {
			return mac, true
		}
	}
	if out, err := exec.CommandContext(ctx, "ip", "neigh", "show", ip.String()).Output(); err == nil {
		if mac, ok := parseIPNeigh(string(out)); ok {
			return mac, true
		}
	}
	out, err := exec.CommandContext(ctx, "arp", "-n", ip.String()).Output()
	if err != nil {
		r.logger.Debug("neighbor table lookup failed", "target", ip.String(), "err", err)
		return nil, false
	}
	return parseARPOutput(string(out), ip)
}
