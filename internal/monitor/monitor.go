// Package monitor reruns subnet scans on a fixed cadence so the
// snapshot keeps tracking the network without anyone polling the scan
// endpoints. It is idle until a target is set.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lanwatch/lanwatch/internal/iprange"
	"github.com/lanwatch/lanwatch/internal/scan"
	"github.com/lanwatch/lanwatch/internal/service"
)

const defaultInterval = 3 * time.Second

// Target is the gateway+mask pair the monitor keeps rescanning.
type Target struct {
	Gateway string `json:"gateway"`
	Mask    string `json:"mask"`
}

type Monitor struct {
	service   *service.Service
	interval  time.Duration
	refreshCh chan struct{}
	logger    *slog.Logger

	mu      sync.Mutex
	enabled bool
	target  Target
}

func New(svc *service.Service, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{service: svc, interval: interval, refreshCh: make(chan struct{}, 1), logger: logger}
}

// Enable validates the target and keeps rescanning it every interval
// until Disable. The first scan starts immediately unless one is
// already running, in which case it is deferred to the run loop.
func (m *Monitor) Enable(target Target) (network string, targets int, err error) {
	rng, err := iprange.Compute(target.Gateway, target.Mask)
	if err != nil {
		return "", 0, err
	}
	if _, _, err := m.service.StartScan(target.Gateway, target.Mask); err != nil && !errors.Is(err, scan.ErrScanInProgress) {
		return "", 0, err
	}
	m.mu.Lock()
	m.enabled = true
	m.target = target
	m.mu.Unlock()
	m.TriggerRefresh()
	return rng.CIDR(), len(rng.Hosts), nil
}

// Disable stops future rescans. A scan already running is left alone.
func (m *Monitor) Disable() {
	m.mu.Lock()
	m.enabled = false
	m.mu.Unlock()
}

// Status reports whether the monitor is rescanning and what it targets.
func (m *Monitor) Status() (Target, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target, m.enabled
}

// TriggerRefresh asks the run loop to rescan without waiting for the
// timer. Never blocks.
func (m *Monitor) TriggerRefresh() {
	select {
	case m.refreshCh <- struct{}{}:
	default:
	}
}

func (m *Monitor) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.refreshCh:
			timer.Stop()
		case <-timer.C:
		}

		m.mu.Lock()
		enabled, target := m.enabled, m.target
		m.mu.Unlock()
		if !enabled {
			continue
		}

		if _, _, err := m.service.StartScan(target.Gateway, target.Mask); err != nil {
			if errors.Is(err, scan.ErrScanInProgress) {
				continue
			}
			m.logger.Error("monitor rescan failed", "gateway", target.Gateway, "mask", target.Mask, "err", err)
			m.Disable()
			continue
		}
		m.service.Wait()
	}
}
