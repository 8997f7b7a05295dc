package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lanwatch/lanwatch/internal/logging"
)

const (
	defaultHTTPAddr        = ":8099"
	defaultDBPath          = "/data/lanwatch.db"
	defaultProbeTimeout    = time.Second
	defaultMonitorInterval = 3 * time.Second
)

// ProbeMode selects the reachability probe transport.
type ProbeMode string

const (
	// ProbeModeAuto picks a raw ICMP socket when the process has the
	// privilege for one and falls back to a datagram socket otherwise.
	ProbeModeAuto ProbeMode = "auto"
	ProbeModeICMP ProbeMode = "icmp"
	ProbeModeUDP  ProbeMode = "udp"
	// ProbeModePing shells out to the platform ping utility.
	ProbeModePing ProbeMode = "ping"
)

// ResolverMode selects how hardware addresses are looked up.
type ResolverMode string

const (
	// ResolverModeTable reads the OS neighbor table.
	ResolverModeTable ResolverMode = "table"
	// ResolverModeActive sends real ARP requests (Linux only).
	ResolverModeActive ResolverMode = "active"
)

// Config stores runtime settings loaded from environment variables.
type Config struct {
	HTTPAddr        string
	DBPath          string
	LogLevel        slog.Level
	ProbeMode       ProbeMode
	ProbeTimeout    time.Duration
	ScanWorkers     int
	ResolverMode    ResolverMode
	ResolverIface   string
	LookupHostnames bool
	MonitorInterval time.Duration
}

// Load builds Config from environment variables using stable defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", defaultHTTPAddr),
		DBPath:          getenv("DB_PATH", defaultDBPath),
		LogLevel:        logging.ParseLevel(getenv("LOG_LEVEL", "info")),
		ProbeMode:       parseProbeMode(getenv("PROBE_MODE", "auto")),
		ProbeTimeout:    parseDuration("PROBE_TIMEOUT", defaultProbeTimeout),
		ScanWorkers:     parseInt("SCAN_WORKERS", defaultWorkers()),
		ResolverMode:    parseResolverMode(getenv("RESOLVER_MODE", "table")),
		ResolverIface:   getenv("RESOLVER_IFACE", ""),
		LookupHostnames: parseBool("LOOKUP_HOSTNAMES", false),
		MonitorInterval: parseDuration("MONITOR_INTERVAL", defaultMonitorInterval),
	}
}

// DBDir returns the target directory for DBPath.
func (c Config) DBDir() string {
	return filepath.Dir(c.DBPath)
}

// defaultWorkers mirrors the scanner's classic pool sizing: at least 8,
// at most 64, scaled by available CPUs.
func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 8 {
		n = 8
	}
	if n > 64 {
		n = 64
	}
	return n
}

func parseProbeMode(raw string) ProbeMode {
	switch ProbeMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ProbeModeICMP:
		return ProbeModeICMP
	case ProbeModeUDP:
		return ProbeModeUDP
	case ProbeModePing:
		return ProbeModePing
	default:
		return ProbeModeAuto
	}
}

func parseResolverMode(raw string) ResolverMode {
	if ResolverMode(strings.ToLower(strings.TrimSpace(raw))) == ResolverModeActive {
		return ResolverModeActive
	}
	return ResolverModeTable
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
