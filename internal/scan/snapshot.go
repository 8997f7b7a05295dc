package scan

import (
	"net"
	"time"

	"github.com/lanwatch/lanwatch/internal/iprange"
)

// Result is the outcome of one probe and resolve pair for a single
// address. Immutable once merged into a snapshot. RTT is only
// meaningful when Online is true; MAC and Hostname stay empty whenever
// resolution found nothing, which is not an error.
type Result struct {
	IP       net.IP
	Online   bool
	RTT      time.Duration
	MAC      net.HardwareAddr
	Hostname string
	SeenAt   time.Time
}

// Snapshot is the aggregated, point-in-time result set of one scan.
// Completed never exceeds Total; CompletedAt stays zero until every
// target has an entry, so an interrupted scan is visibly incomplete
// rather than silently truncated.
type Snapshot struct {
	Network     string
	StartedAt   time.Time
	CompletedAt time.Time
	Aborted     bool
	Total       int
	Completed   int
	Results     map[string]Result
}

func newSnapshot(rng *iprange.Range) *Snapshot {
	return &Snapshot{
		Network:   rng.CIDR(),
		StartedAt: time.Now().UTC(),
		Total:     len(rng.Hosts),
		Results:   make(map[string]Result, len(rng.Hosts)),
	}
}

func emptySnapshot() *Snapshot {
	return &Snapshot{Results: map[string]Result{}}
}

// clone deep-copies the snapshot so readers never alias the map the
// scan workers are still merging into.
func (s *Snapshot) clone() Snapshot {
	out := *s
	out.Results = make(map[string]Result, len(s.Results))
	for k, v := range s.Results {
		out.Results[k] = v
	}
	return out
}
