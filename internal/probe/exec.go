package probe

import (
	"context"
	"log/slog"
	"net"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

var (
	latencyPattern = regexp.MustCompile(`(?i)time[=<]\s*([\d.]+)\s*ms`)
	averagePattern = regexp.MustCompile(`(?i)Average\s*=\s*(\d+)\s*ms`)
)

// ExecProber shells out to the platform ping utility. It needs no
// socket privilege and works wherever ping does.
type ExecProber struct {
	logger *slog.Logger
}

func NewExecProber(logger *slog.Logger) *ExecProber {
	return &ExecProber{logger: logger}
}

// Probe runs one ping and parses the reported round trip. A nonzero
// exit status or an unparseable reply counts as offline.
func (p *ExecProber) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, time.Duration) {
	// Grace period covers process startup on top of the probe timeout.
	runCtx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	start := time.Now()
	out, err := exec.CommandContext(runCtx, "ping", pingArgs(ip, timeout)...).CombinedOutput()
	if err != nil {
		return false, 0
	}
	if rtt, ok := parsePingLatency(string(out)); ok {
		return true, rtt
	}
	// Reply arrived but the output format is unknown; fall back to the
	// wall-clock measurement.
	p.logger.Debug("ping output without latency", "target", ip.String())
	return true, time.Since(start)
}

func pingArgs(ip net.IP, timeout time.Duration) []string {
	if runtime.GOOS == "windows" {
		return []string{"-n", "1", "-w", strconv.Itoa(int(timeout.Milliseconds())), ip.String()}
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), ip.String()}
}

// parsePingLatency extracts the round trip from ping output, handling
// the "time=23.4 ms", "time<1ms" and Windows "Average = 23ms" forms.
func parsePingLatency(output string) (time.Duration, bool) {
	m := latencyPattern.FindStringSubmatch(output)
	if m == nil {
		m = averagePattern.FindStringSubmatch(output)
	}
	if m == nil {
		return 0, false
	}
	ms, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}
