package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/jpillora/opts"
	"github.com/lanwatch/lanwatch/internal/probe"
)

type result struct {
	Target    string   `json:"target"`
	IP        string   `json:"ip"`
	Online    bool     `json:"online"`
	LatencyMS *float64 `json:"latency_ms"`
}

func main() {
	c := struct {
		Target  string        `type:"arg" help:"<target> is an IPv4 address or hostname"`
		Timeout time.Duration `help:"Probe timeout"`
		UseUDP  bool          `help:"Use an unprivileged datagram socket (auto-enabled for non-root users)"`
		Ping    bool          `help:"Shell out to the system ping utility instead of opening a socket"`
		JSON    bool          `help:"Output result in JSON"`
	}{
		Timeout: 1500 * time.Millisecond,
	}

	opts.New(&c).Name("lanping").Parse()

	if !c.UseUDP && os.Getuid() != 0 {
		c.UseUDP = true
	}

	addr, err := net.ResolveIPAddr("ip4", c.Target)
	if err != nil || addr.IP == nil {
		log.Fatalf("cannot resolve %q to an IPv4 address", c.Target)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var prober probe.Prober
	if c.Ping {
		prober = probe.NewExecProber(logger)
	} else {
		prober = probe.NewSocketProber(!c.UseUDP, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout+time.Second)
	defer cancel()
	online, rtt := prober.Probe(ctx, addr.IP, c.Timeout)

	res := result{Target: c.Target, IP: addr.IP.String(), Online: online}
	if online {
		ms := float64(rtt) / float64(time.Millisecond)
		res.LatencyMS = &ms
	}

	if c.JSON {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "  ")
		_ = e.Encode(res)
	} else if online {
		fmt.Printf("%s (%s) is online, rtt %s\n", c.Target, res.IP, rtt)
	} else {
		fmt.Printf("%s (%s) is offline\n", c.Target, res.IP)
	}

	if !online {
		os.Exit(1)
	}
}
