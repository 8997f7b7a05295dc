// Package scan orchestrates concurrent reachability scans of an
// address range and owns the resulting snapshots.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lanwatch/lanwatch/internal/iprange"
	"github.com/lanwatch/lanwatch/internal/names"
	"github.com/lanwatch/lanwatch/internal/neigh"
	"github.com/lanwatch/lanwatch/internal/probe"
)

// ErrScanInProgress is returned by Start while another scan is active.
var ErrScanInProgress = errors.New("scan already in progress")

const (
	defaultProbeTimeout = time.Second
	defaultWorkers      = 32
)

// Options tunes a Session. Zero values pick the defaults; Hostnames is
// optional and disables hostname lookups when nil.
type Options struct {
	ProbeTimeout time.Duration
	Workers      int
	Hostnames    names.Lookuper
}

// Session owns the most recent snapshot and the single-scan-at-a-time
// discipline. All reads go through deep copies, so callers may poll
// freely while a scan is running.
type Session struct {
	prober   probe.Prober
	resolver neigh.Resolver
	names    names.Lookuper
	logger   *slog.Logger

	timeout time.Duration
	workers int

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}
	snap   *Snapshot
}

func NewSession(prober probe.Prober, resolver neigh.Resolver, opts Options, logger *slog.Logger) *Session {
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	done := make(chan struct{})
	close(done)
	return &Session{
		prober:   prober,
		resolver: resolver,
		names:    opts.Hostnames,
		logger:   logger,
		timeout:  timeout,
		workers:  workers,
		done:     done,
		snap:     emptySnapshot(),
	}
}

// Start begins scanning the range and returns immediately; the
// snapshot fills in as probes complete. A second Start while a scan is
// active fails with ErrScanInProgress and leaves the running scan
// untouched.
func (s *Session) Start(ctx context.Context, rng *iprange.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrScanInProgress
	}

	scanCtx, cancel := context.WithCancel(ctx)
	s.snap = newSnapshot(rng)
	s.active = true
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("scan started", "network", s.snap.Network, "targets", s.snap.Total, "workers", s.workers)
	go s.run(scanCtx, rng, s.done)
	return nil
}

// Stop cancels the running scan, if any. New probes stop being
// dispatched; in-flight ones finish and merge their results.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current scan finishes. It returns immediately
// when no scan is running.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	<-done
}

// Active reports whether a scan is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Snapshot returns a copy of the latest snapshot, possibly partially
// filled while a scan is active.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// run fans probes out over a bounded worker pool and aggregates the
// results. It is the only writer of the snapshot while it runs.
func (s *Session) run(ctx context.Context, rng *iprange.Range, done chan struct{}) {
	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup

	for _, host := range rng.Hosts {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Canceled: stop dispatching, let in-flight probes finish.
			break
		}
		wg.Add(1)
		go func(ip net.IP) {
			defer wg.Done()
			defer sem.Release(1)
			s.merge(s.probeOne(ctx, ip))
		}(host)
	}
	wg.Wait()
	s.finish(done)
}

// probeOne probes a single address and, when it answers, resolves its
// hardware address and hostname. Every failure path yields data, never
// an error: unreachable hosts are an expected outcome.
func (s *Session) probeOne(ctx context.Context, ip net.IP) Result {
	online, rtt := s.prober.Probe(ctx, ip, s.timeout)
	res := Result{IP: ip, Online: online, SeenAt: time.Now().UTC()}
	if !online {
		return res
	}
	res.RTT = rtt
	// Resolve after the probe: the echo exchange is what populates the
	// neighbor table in the first place.
	if mac, ok := s.resolver.Resolve(ctx, ip); ok {
		res.MAC = mac
	}
	if s.names != nil {
		if hostname, ok := s.names.Hostname(ctx, ip); ok {
			res.Hostname = hostname
		}
	}
	return res
}

func (s *Session) merge(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Results[res.IP.String()] = res
	s.snap.Completed = len(s.snap.Results)
}

func (s *Session) finish(done chan struct{}) {
	s.mu.Lock()
	if s.snap.Completed == s.snap.Total {
		s.snap.CompletedAt = time.Now().UTC()
	} else {
		s.snap.Aborted = true
	}
	s.active = false
	s.cancel = nil
	network := s.snap.Network
	completed, total, aborted := s.snap.Completed, s.snap.Total, s.snap.Aborted
	s.mu.Unlock()

	close(done)
	s.logger.Info("scan finished", "network", network, "completed", completed, "total", total, "aborted", aborted)
}
