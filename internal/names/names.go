// Package names performs best-effort reverse hostname lookups for
// scanned hosts, querying the host itself over mDNS and the subnet's
// DNS server in parallel.
package names

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Lookuper resolves a display hostname for an address. Absence is the
// common case and is not an error.
type Lookuper interface {
	Hostname(ctx context.Context, ip net.IP) (string, bool)
}

// Client queries PTR records over plain DNS and mDNS.
type Client struct {
	dns dns.Client
	// Server is the DNS server address. When empty, the .1 address of
	// the target's /24 is assumed, which on home networks is almost
	// always the router.
	Server string
}

func New(server string, timeout time.Duration) *Client {
	return &Client{
		dns:    dns.Client{Timeout: timeout},
		Server: server,
	}
}

// Hostname returns the first PTR answer from either the host's mDNS
// responder or the DNS server.
func (c *Client) Hostname(ctx context.Context, ip net.IP) (string, bool) {
	target, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return "", false
	}
	m := dns.Msg{}
	m.SetQuestion(target, dns.TypePTR)

	var wg sync.WaitGroup
	results := make(chan string, 2)

	// Ask the host itself (mDNS).
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, _, err := c.dns.ExchangeContext(ctx, &m, net.JoinHostPort(ip.String(), "5353"))
		if err == nil && len(r.Answer) > 0 {
			if ptr, ok := r.Answer[0].(*dns.PTR); ok {
				results <- strings.TrimSuffix(strings.TrimSuffix(ptr.Ptr, "."), ".local")
			}
		}
	}()

	// Ask the DNS server, with a slight headstart for the host.
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		server := c.Server
		if server == "" {
			guess := make(net.IP, 4)
			copy(guess, ip.To4())
			guess[3] = 1
			server = guess.String()
		}
		r, _, err := c.dns.ExchangeContext(ctx, &m, net.JoinHostPort(server, "53"))
		if err == nil && len(r.Answer) > 0 {
			if ptr, ok := r.Answer[0].(*dns.PTR); ok {
				results <- strings.TrimSuffix(ptr.Ptr, ".")
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	hostname := <-results
	return hostname, hostname != ""
}
