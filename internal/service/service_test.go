package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/lanwatch/lanwatch/internal/neigh"
	"github.com/lanwatch/lanwatch/internal/oui"
	"github.com/lanwatch/lanwatch/internal/probe"
	"github.com/lanwatch/lanwatch/internal/scan"
	"github.com/lanwatch/lanwatch/internal/storage"
)

const testMAC = "B8:27:EB:11:22:33"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, prober probe.Prober) (*Service, *storage.Repository) {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()

	repo, err := storage.New(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	db, err := oui.Load([]byte(`{"B827EB":"Raspberry Pi Foundation"}`))
	if err != nil {
		t.Fatalf("load oui: %v", err)
	}

	mac, _ := net.ParseMAC(testMAC)
	resolver := neigh.Func(func(_ context.Context, _ net.IP) (net.HardwareAddr, bool) {
		return mac, true
	})

	session := scan.NewSession(prober, resolver, scan.Options{Workers: 8}, logger)
	return New(ctx, session, prober, repo, db, logger), repo
}

func evenProber() probe.Prober {
	return probe.Func(func(_ context.Context, ip net.IP, _ time.Duration) (bool, time.Duration) {
		if ip.To4()[3]%2 == 0 {
			return true, 4 * time.Millisecond
		}
		return false, 0
	})
}

func TestStartScanAndStatus(t *testing.T) {
	svc, _ := newTestService(t, evenProber())
	ctx := context.Background()

	if err := svc.RegisterDevice(ctx, "b8:27:eb:11:22:33", RegisterInput{Name: strp("pi-hole")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	network, targets, err := svc.StartScan("192.168.1.1", "255.255.255.248")
	if err != nil {
		t.Fatalf("start scan: %v", err)
	}
	if network != "192.168.1.0/29" {
		t.Fatalf("expected network 192.168.1.0/29, got %s", network)
	}
	if targets != 6 {
		t.Fatalf("expected 6 targets, got %d", targets)
	}
	svc.Wait()

	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Running {
		t.Fatalf("expected scan finished")
	}
	if status.Completed != 6 || status.Total != 6 {
		t.Fatalf("expected 6/6 completed, got %d/%d", status.Completed, status.Total)
	}
	if status.CompletedAt == nil {
		t.Fatalf("expected completion time")
	}
	if len(status.Devices) != 6 {
		t.Fatalf("expected 6 device rows, got %d", len(status.Devices))
	}

	prev := ""
	for _, device := range status.Devices {
		if prev != "" && ipValue(device.IP) <= ipValue(prev) {
			t.Fatalf("devices not sorted: %s after %s", device.IP, prev)
		}
		prev = device.IP

		last := net.ParseIP(device.IP).To4()[3]
		if device.Online != (last%2 == 0) {
			t.Fatalf("device %s: unexpected online=%v", device.IP, device.Online)
		}
		if device.Online {
			if device.LatencyMS == nil || *device.LatencyMS <= 0 {
				t.Fatalf("device %s: expected positive latency", device.IP)
			}
			if device.LastSeen == nil {
				t.Fatalf("device %s: expected last-seen", device.IP)
			}
			if device.MAC == nil || *device.MAC != testMAC {
				t.Fatalf("device %s: unexpected mac %v", device.IP, device.MAC)
			}
			if device.Vendor != "Raspberry Pi Foundation" {
				t.Fatalf("device %s: unexpected vendor %q", device.IP, device.Vendor)
			}
			if device.Name != "pi-hole" {
				t.Fatalf("device %s: registry name not merged, got %q", device.IP, device.Name)
			}
		} else {
			if device.LatencyMS != nil || device.LastSeen != nil || device.MAC != nil {
				t.Fatalf("device %s: offline row carries probe data", device.IP)
			}
		}
	}
}

func TestStartScanRejectsInvalidInputAndConflicts(t *testing.T) {
	release := make(chan struct{})
	blocking := probe.Func(func(ctx context.Context, _ net.IP, _ time.Duration) (bool, time.Duration) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return false, 0
	})
	svc, _ := newTestService(t, blocking)

	if _, _, err := svc.StartScan("bogus", "255.255.255.0"); err == nil {
		t.Fatalf("expected invalid gateway error")
	}
	if svc.Active() {
		t.Fatalf("failed validation must not start a scan")
	}

	if _, _, err := svc.StartScan("10.0.0.1", "255.255.255.240"); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _, err := svc.StartScan("10.0.0.1", "255.255.255.240")
	if !errors.Is(err, scan.ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}

	close(release)
	svc.Wait()
}

func TestDevicesFilterOnline(t *testing.T) {
	svc, _ := newTestService(t, evenProber())
	if _, _, err := svc.StartScan("192.168.1.1", "255.255.255.240"); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc.Wait()

	online := true
	devices, err := svc.Devices(context.Background(), ListFilter{Online: &online})
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if len(devices) != 7 {
		t.Fatalf("expected 7 online devices in /28, got %d", len(devices))
	}
	for _, device := range devices {
		if !device.Online {
			t.Fatalf("filter leaked offline device %s", device.IP)
		}
	}
}

func TestPingOnce(t *testing.T) {
	always := probe.Func(func(_ context.Context, _ net.IP, _ time.Duration) (bool, time.Duration) {
		return true, 2 * time.Millisecond
	})
	svc, _ := newTestService(t, always)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		view, err := svc.PingOnce(ctx, "192.0.2.7")
		if err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
		if !view.Online {
			t.Fatalf("ping %d: expected online", i)
		}
		if view.LatencyMS == nil || *view.LatencyMS < 0 {
			t.Fatalf("ping %d: expected non-negative latency", i)
		}
	}

	if _, err := svc.PingOnce(ctx, ""); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for empty target, got %v", err)
	}
}

func TestRegisterDeviceValidatesMAC(t *testing.T) {
	svc, _ := newTestService(t, evenProber())
	err := svc.RegisterDevice(context.Background(), "not-a-mac", RegisterInput{Name: strp("x")})
	if err == nil {
		t.Fatalf("expected error for malformed mac")
	}
}

func strp(s string) *string { return &s }
