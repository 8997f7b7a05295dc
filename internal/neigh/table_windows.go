//go:build windows

package neigh

import (
	"context"
	"log/slog"
	"net"
	"os/exec"
)

// TableResolver reads the OS neighbor cache via `arp -a`.
type TableResolver struct {
	logger *slog.Logger
}

func NewTableResolver(logger *slog.Logger) *TableResolver {
	return &TableResolver{logger: logger}
}

func (r *TableResolver) Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, bool) {
	out, err := exec.CommandContext(ctx, "arp", "-a", ip.String()).Output()
	if err != nil {
		r.logger.Debug("neighbor table lookup failed", "target", ip.String(), "err", err)
		return nil, false
	}
	return parseARPOutput(string(out), ip)
}
