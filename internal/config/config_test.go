package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":8099" {
		t.Fatalf("unexpected default addr %q", cfg.HTTPAddr)
	}
	if cfg.ProbeMode != ProbeModeAuto {
		t.Fatalf("unexpected default probe mode %q", cfg.ProbeMode)
	}
	if cfg.ResolverMode != ResolverModeTable {
		t.Fatalf("unexpected default resolver mode %q", cfg.ResolverMode)
	}
	if cfg.ProbeTimeout != time.Second {
		t.Fatalf("unexpected default probe timeout %s", cfg.ProbeTimeout)
	}
	if cfg.MonitorInterval != 3*time.Second {
		t.Fatalf("unexpected default monitor interval %s", cfg.MonitorInterval)
	}
	if cfg.ScanWorkers < 8 || cfg.ScanWorkers > 64 {
		t.Fatalf("worker default out of range: %d", cfg.ScanWorkers)
	}
	if cfg.LookupHostnames {
		t.Fatalf("hostname lookups must default to off")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PROBE_MODE", "Ping")
	t.Setenv("PROBE_TIMEOUT", "250ms")
	t.Setenv("SCAN_WORKERS", "16")
	t.Setenv("RESOLVER_MODE", "active")
	t.Setenv("RESOLVER_IFACE", "eth0")
	t.Setenv("LOOKUP_HOSTNAMES", "true")
	t.Setenv("MONITOR_INTERVAL", "10s")

	cfg := Load()
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("addr not read: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("log level not read: %v", cfg.LogLevel)
	}
	if cfg.ProbeMode != ProbeModePing {
		t.Fatalf("probe mode not read: %q", cfg.ProbeMode)
	}
	if cfg.ProbeTimeout != 250*time.Millisecond {
		t.Fatalf("probe timeout not read: %s", cfg.ProbeTimeout)
	}
	if cfg.ScanWorkers != 16 {
		t.Fatalf("workers not read: %d", cfg.ScanWorkers)
	}
	if cfg.ResolverMode != ResolverModeActive || cfg.ResolverIface != "eth0" {
		t.Fatalf("resolver settings not read: %q %q", cfg.ResolverMode, cfg.ResolverIface)
	}
	if !cfg.LookupHostnames {
		t.Fatalf("hostname toggle not read")
	}
	if cfg.MonitorInterval != 10*time.Second {
		t.Fatalf("monitor interval not read: %s", cfg.MonitorInterval)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("PROBE_MODE", "carrier-pigeon")
	t.Setenv("PROBE_TIMEOUT", "-5s")
	t.Setenv("SCAN_WORKERS", "zero")
	t.Setenv("RESOLVER_MODE", "psychic")

	cfg := Load()
	if cfg.ProbeMode != ProbeModeAuto {
		t.Fatalf("unknown probe mode must fall back to auto, got %q", cfg.ProbeMode)
	}
	if cfg.ProbeTimeout != time.Second {
		t.Fatalf("negative timeout must fall back to default, got %s", cfg.ProbeTimeout)
	}
	if cfg.ScanWorkers < 8 {
		t.Fatalf("bad worker count must fall back to default, got %d", cfg.ScanWorkers)
	}
	if cfg.ResolverMode != ResolverModeTable {
		t.Fatalf("unknown resolver mode must fall back to table, got %q", cfg.ResolverMode)
	}
}
