// Package service exposes the scan engine to the presentation and
// export layers: it validates scan requests, owns the session
// lifecycle and merges snapshots with the device registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/lanwatch/lanwatch/internal/iprange"
	"github.com/lanwatch/lanwatch/internal/probe"
	"github.com/lanwatch/lanwatch/internal/scan"
	"github.com/lanwatch/lanwatch/internal/storage"
)

const pingOnceTimeout = 1500 * time.Millisecond

// ErrInvalidTarget marks one-shot ping targets that cannot be
// resolved to an IPv4 address.
var ErrInvalidTarget = errors.New("invalid ping target")

// OUILookup maps a hardware address to a vendor name.
type OUILookup interface {
	Vendor(mac net.HardwareAddr) string
}

// Registry is the subset of the storage repository the service needs.
type Registry interface {
	List(ctx context.Context) (map[string]storage.RegisteredDevice, error)
	Upsert(ctx context.Context, mac string, name, comment *string) error
	Patch(ctx context.Context, mac string, name, comment *string) error
	Delete(ctx context.Context, mac string) error
}

type Service struct {
	// base outlives individual HTTP requests; scans started from a
	// request must not die with it.
	base     context.Context
	session  *scan.Session
	prober   probe.Prober
	registry Registry
	oui      OUILookup
	logger   *slog.Logger
}

func New(base context.Context, session *scan.Session, prober probe.Prober, registry Registry, ouiDB OUILookup, logger *slog.Logger) *Service {
	return &Service{
		base:     base,
		session:  session,
		prober:   prober,
		registry: registry,
		oui:      ouiDB,
		logger:   logger,
	}
}

// StartScan validates the gateway and mask, computes the target range
// and launches an asynchronous scan. Validation errors and
// scan.ErrScanInProgress propagate to the caller; everything after
// that is data in the snapshot.
func (s *Service) StartScan(gateway, mask string) (network string, targets int, err error) {
	rng, err := iprange.Compute(gateway, mask)
	if err != nil {
		return "", 0, err
	}
	if err := s.session.Start(s.base, rng); err != nil {
		return "", 0, err
	}
	return rng.CIDR(), len(rng.Hosts), nil
}

// StopScan cancels the running scan, if any.
func (s *Service) StopScan() {
	s.session.Stop()
}

// Active reports whether a scan is in progress.
func (s *Service) Active() bool {
	return s.session.Active()
}

// Wait blocks until the current scan finishes.
func (s *Service) Wait() {
	s.session.Wait()
}

// DeviceView is one host row as rendered by the HTTP and export
// layers. Nullable fields mirror absent probe data.
type DeviceView struct {
	IP        string     `json:"ip"`
	Online    bool       `json:"online"`
	LatencyMS *float64   `json:"latency_ms"`
	MAC       *string    `json:"mac"`
	Vendor    string     `json:"vendor,omitempty"`
	Hostname  string     `json:"hostname,omitempty"`
	Name      string     `json:"name,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	LastSeen  *time.Time `json:"last_seen"`
}

// StatusView is the pull-based scan status consumed by pollers.
type StatusView struct {
	Devices     []DeviceView `json:"devices"`
	Running     bool         `json:"running"`
	Network     string       `json:"network,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Aborted     bool         `json:"aborted,omitempty"`
	Total       int          `json:"total"`
	Completed   int          `json:"completed"`
	Timestamp   time.Time    `json:"timestamp"`
}

// ListFilter narrows device listings.
type ListFilter struct {
	Online *bool
	Query  string
}

// Status renders the current snapshot with registry labels merged in.
func (s *Service) Status(ctx context.Context) (StatusView, error) {
	snap := s.session.Snapshot()
	devices, err := s.views(ctx, snap, ListFilter{})
	if err != nil {
		return StatusView{}, err
	}
	view := StatusView{
		Devices:   devices,
		Running:   s.session.Active(),
		Network:   snap.Network,
		Aborted:   snap.Aborted,
		Total:     snap.Total,
		Completed: snap.Completed,
		Timestamp: time.Now().UTC(),
	}
	if !snap.StartedAt.IsZero() {
		started := snap.StartedAt
		view.StartedAt = &started
	}
	if !snap.CompletedAt.IsZero() {
		completed := snap.CompletedAt
		view.CompletedAt = &completed
	}
	return view, nil
}

// Devices lists snapshot hosts, optionally filtered.
func (s *Service) Devices(ctx context.Context, filter ListFilter) ([]DeviceView, error) {
	return s.views(ctx, s.session.Snapshot(), filter)
}

func (s *Service) views(ctx context.Context, snap scan.Snapshot, filter ListFilter) ([]DeviceView, error) {
	registered := map[string]storage.RegisteredDevice{}
	if s.registry != nil {
		var err error
		registered, err = s.registry.List(ctx)
		if err != nil {
			return nil, err
		}
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	views := make([]DeviceView, 0, len(snap.Results))
	for _, res := range snap.Results {
		view := DeviceView{
			IP:     res.IP.String(),
			Online: res.Online,
		}
		if res.Online {
			ms := float64(res.RTT) / float64(time.Millisecond)
			view.LatencyMS = &ms
			seen := res.SeenAt
			view.LastSeen = &seen
		}
		if res.MAC != nil {
			mac := strings.ToUpper(res.MAC.String())
			view.MAC = &mac
			if s.oui != nil {
				view.Vendor = s.oui.Vendor(res.MAC)
			}
			if reg, ok := registered[mac]; ok {
				if reg.Name != nil {
					view.Name = *reg.Name
				}
				if reg.Comment != nil {
					view.Comment = *reg.Comment
				}
			}
		}
		view.Hostname = res.Hostname

		if filter.Online != nil && view.Online != *filter.Online {
			continue
		}
		if query != "" && !matchesQuery(view, query) {
			continue
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool {
		return ipValue(views[i].IP) < ipValue(views[j].IP)
	})
	return views, nil
}

func matchesQuery(view DeviceView, query string) bool {
	if strings.Contains(strings.ToLower(view.IP), query) {
		return true
	}
	if view.MAC != nil && strings.Contains(strings.ToLower(*view.MAC), query) {
		return true
	}
	if strings.Contains(strings.ToLower(view.Vendor), query) {
		return true
	}
	if strings.Contains(strings.ToLower(view.Hostname), query) {
		return true
	}
	return strings.Contains(strings.ToLower(view.Name), query)
}

// PingView is the result of a one-shot probe.
type PingView struct {
	Target    string   `json:"target"`
	IP        string   `json:"ip"`
	Online    bool     `json:"online"`
	LatencyMS *float64 `json:"latency_ms"`
}

// PingOnce probes a single target (IP or hostname) with a generous
// timeout, independent of any running scan.
func (s *Service) PingOnce(ctx context.Context, target string) (PingView, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return PingView{}, fmt.Errorf("%w: empty target", ErrInvalidTarget)
	}
	addr, err := net.ResolveIPAddr("ip4", target)
	if err != nil {
		return PingView{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	online, rtt := s.prober.Probe(ctx, addr.IP, pingOnceTimeout)
	view := PingView{Target: target, IP: addr.IP.String(), Online: online}
	if online {
		ms := float64(rtt) / float64(time.Millisecond)
		view.LatencyMS = &ms
	}
	return view, nil
}

// RegisterInput carries optional registry fields.
type RegisterInput struct {
	Name    *string `json:"name"`
	Comment *string `json:"comment"`
}

// RegisterDevice stores a label for a hardware address.
func (s *Service) RegisterDevice(ctx context.Context, mac string, in RegisterInput) error {
	normalized, err := normalizeMAC(mac)
	if err != nil {
		return err
	}
	return s.registry.Upsert(ctx, normalized, in.Name, in.Comment)
}

// PatchDevice updates an existing label.
func (s *Service) PatchDevice(ctx context.Context, mac string, in RegisterInput) error {
	normalized, err := normalizeMAC(mac)
	if err != nil {
		return err
	}
	return s.registry.Patch(ctx, normalized, in.Name, in.Comment)
}

// UnregisterDevice removes a label. Unknown addresses are a no-op.
func (s *Service) UnregisterDevice(ctx context.Context, mac string) error {
	normalized, err := normalizeMAC(mac)
	if err != nil {
		return err
	}
	return s.registry.Delete(ctx, normalized)
}

func normalizeMAC(mac string) (string, error) {
	parsed, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil {
		return "", fmt.Errorf("invalid hardware address %q: %w", mac, err)
	}
	return strings.ToUpper(strings.ReplaceAll(parsed.String(), "-", ":")), nil
}

func ipValue(ip string) uint32 {
	v4 := net.ParseIP(ip).To4()
	if v4 == nil {
		return 0
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}
