package probe

import (
	"context"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const protocolICMP = 1

// SocketProber probes hosts with ICMP echo requests over a raw or
// datagram socket. Each probe opens its own socket so concurrent
// probes never race on reply matching.
type SocketProber struct {
	proto  string // "ip4:icmp" or "udp4"
	logger *slog.Logger
	seq    atomic.Uint32
}

// NewSocketProber returns a prober using a raw ICMP socket when
// privileged is true, or an unprivileged datagram ICMP socket
// otherwise.
func NewSocketProber(privileged bool, logger *slog.Logger) *SocketProber {
	proto := "udp4"
	if privileged {
		proto = "ip4:icmp"
	}
	return &SocketProber{proto: proto, logger: logger}
}

// NewAutoSocketProber probes for raw socket privilege once and picks
// the datagram fallback when it is absent.
func NewAutoSocketProber(logger *slog.Logger) *SocketProber {
	if conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0"); err == nil {
		_ = conn.Close()
		return NewSocketProber(true, logger)
	}
	logger.Info("raw icmp socket unavailable, using unprivileged datagram icmp")
	return NewSocketProber(false, logger)
}

// Probe sends one echo request and waits up to timeout for the
// matching reply.
func (p *SocketProber) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, time.Duration) {
	conn, err := icmp.ListenPacket(p.proto, "0.0.0.0")
	if err != nil {
		p.logger.Debug("icmp listen failed", "target", ip.String(), "err", err)
		return false, 0
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false, 0
	}

	id := os.Getpid() & 0xffff
	seq := int(p.seq.Add(1) & 0xffff)
	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  seq,
			Data: []byte("lanwatch"),
		},
	}
	data, err := msg.Marshal(nil)
	if err != nil {
		return false, 0
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if p.proto == "udp4" {
		dst = &net.UDPAddr{IP: ip}
	}

	start := time.Now()
	if _, err := conn.WriteTo(data, dst); err != nil {
		p.logger.Debug("icmp send failed", "target", ip.String(), "err", err)
		return false, 0
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			// Timeout; the host is treated as offline.
			return false, 0
		}
		if !peerIP(peer).Equal(ip) {
			continue
		}
		reply, err := icmp.ParseMessage(protocolICMP, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok {
			continue
		}
		// The kernel rewrites the echo ID on datagram sockets, so the
		// ID only identifies our traffic on the raw transport.
		if p.proto != "udp4" && echo.ID != id {
			continue
		}
		if echo.Seq != seq {
			continue
		}
		return true, time.Since(start)
	}
}

func peerIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	default:
		return nil
	}
}
