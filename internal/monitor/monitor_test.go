package monitor

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lanwatch/lanwatch/internal/neigh"
	"github.com/lanwatch/lanwatch/internal/probe"
	"github.com/lanwatch/lanwatch/internal/scan"
	"github.com/lanwatch/lanwatch/internal/service"
)

func newTestMonitor(t *testing.T, probes *atomic.Int64) *Monitor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	prober := probe.Func(func(_ context.Context, _ net.IP, _ time.Duration) (bool, time.Duration) {
		probes.Add(1)
		return true, time.Millisecond
	})
	resolver := neigh.Func(func(_ context.Context, _ net.IP) (net.HardwareAddr, bool) {
		return nil, false
	})
	session := scan.NewSession(prober, resolver, scan.Options{Workers: 4}, logger)
	svc := service.New(context.Background(), session, prober, nil, nil, logger)
	return New(svc, 5*time.Millisecond, logger)
}

func TestEnableScansAndReportsStatus(t *testing.T) {
	var probes atomic.Int64
	m := newTestMonitor(t, &probes)

	if _, enabled := m.Status(); enabled {
		t.Fatalf("monitor must start disabled")
	}

	network, targets, err := m.Enable(Target{Gateway: "10.0.0.1", Mask: "255.255.255.248"})
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if network != "10.0.0.0/29" || targets != 6 {
		t.Fatalf("unexpected scan parameters: %s %d", network, targets)
	}

	target, enabled := m.Status()
	if !enabled || target.Gateway != "10.0.0.1" {
		t.Fatalf("status not updated: %+v enabled=%v", target, enabled)
	}

	if _, _, err := m.Enable(Target{Gateway: "bogus", Mask: "255.255.255.0"}); err == nil {
		t.Fatalf("expected error for invalid target")
	}
}

func TestEnableDuringActiveScanStillReportsTarget(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	release := make(chan struct{})
	blocking := probe.Func(func(ctx context.Context, _ net.IP, _ time.Duration) (bool, time.Duration) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return false, 0
	})
	resolver := neigh.Func(func(_ context.Context, _ net.IP) (net.HardwareAddr, bool) {
		return nil, false
	})
	session := scan.NewSession(blocking, resolver, scan.Options{Workers: 4}, logger)
	svc := service.New(context.Background(), session, blocking, nil, nil, logger)
	m := New(svc, time.Minute, logger)

	if _, _, err := svc.StartScan("10.0.0.1", "255.255.255.240"); err != nil {
		t.Fatalf("start: %v", err)
	}

	network, targets, err := m.Enable(Target{Gateway: "10.0.0.1", Mask: "255.255.255.248"})
	if err != nil {
		t.Fatalf("enable with active scan: %v", err)
	}
	if network != "10.0.0.0/29" || targets != 6 {
		t.Fatalf("expected deferred target shape 10.0.0.0/29 with 6 targets, got %s %d", network, targets)
	}
	if _, enabled := m.Status(); !enabled {
		t.Fatalf("monitor must be enabled even when the first scan is deferred")
	}

	close(release)
	svc.Wait()
}

func TestRunRescansUntilDisabled(t *testing.T) {
	var probes atomic.Int64
	m := newTestMonitor(t, &probes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()

	if _, _, err := m.Enable(Target{Gateway: "10.0.0.1", Mask: "255.255.255.252"}); err != nil {
		t.Fatalf("enable: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for probes.Load() < 6 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated rescans, saw %d probes", probes.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Disable()
	if _, enabled := m.Status(); enabled {
		t.Fatalf("monitor still enabled after Disable")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("run loop did not exit on cancel")
	}
}
