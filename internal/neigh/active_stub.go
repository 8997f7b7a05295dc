//go:build !linux

package neigh

import (
	"fmt"
	"log/slog"
	"time"
)

// NewActiveResolver is Linux-only; other platforms fall back to the
// neighbor table resolver.
func NewActiveResolver(ifaceName string, timeout time.Duration, logger *slog.Logger) (Resolver, error) {
	return nil, fmt.Errorf("active arp resolution is only supported on linux")
}
