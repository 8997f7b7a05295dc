package neigh

import (
	"bufio"
	"io"
	"net"
	"regexp"
	"strings"
)

var (
	lladdrPattern = regexp.MustCompile(`(?i)lladdr\s+([0-9a-f:]{17})`)
	macPattern    = regexp.MustCompile(`(?i)([0-9a-f]{2}(?:[:-][0-9a-f]{2}){5})`)
)

// parseProcNetARP scans /proc/net/arp content for the given address.
// Format: IP address, HW type, Flags, HW address, Mask, Device.
func parseProcNetARP(r io.Reader, ip net.IP) (net.HardwareAddr, bool) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, false // header
	}
	target := ip.String()
	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) < 6 || fields[0] != target {
			continue
		}
		return normalizeMAC(fields[3])
	}
	return nil, false
}

// parseIPNeigh extracts the lladdr from `ip neigh show <ip>` output,
// e.g. "192.168.1.10 dev wlan0 lladdr a4:5e:60:c2:9b:2a REACHABLE".
func parseIPNeigh(output string) (net.HardwareAddr, bool) {
	m := lladdrPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, false
	}
	return normalizeMAC(m[1])
}

// parseARPOutput extracts a hardware address from `arp` output on the
// line mentioning the given address. Handles both colon and dash
// separators.
func parseARPOutput(output string, ip net.IP) (net.HardwareAddr, bool) {
	target := ip.String()
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !lineMentionsIP(line, target) {
			continue
		}
		m := macPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return normalizeMAC(m[1])
	}
	return nil, false
}

// lineMentionsIP matches the address as a whole field so 192.168.1.1
// never matches the 192.168.1.10 entry.
func lineMentionsIP(line, target string) bool {
	for _, field := range strings.Fields(line) {
		if strings.Trim(field, "()") == target {
			return true
		}
	}
	return false
}

func normalizeMAC(raw string) (net.HardwareAddr, bool) {
	raw = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "-", ":"))
	if raw == "00:00:00:00:00:00" || raw == "<incomplete>" || raw == "" {
		return nil, false
	}
	mac, err := net.ParseMAC(raw)
	if err != nil {
		return nil, false
	}
	return mac, true
}
