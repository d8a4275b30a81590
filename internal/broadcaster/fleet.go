package broadcaster

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"
)

// maxHeightDrift is how far a peer's reported height may differ from our
// own height, in either direction, before it is considered unhealthy, per
// spec.md §4.6.
const maxHeightDrift = 2

// PeerHealthChecker probes a peer's reported chain height, grounded on the
// `/lcd/blocks/latest` health probe of spec.md §4.6.
type PeerHealthChecker interface {
	LatestHeight(ctx context.Context, peerURL string) (int64, error)
}

// IPReflector reports this process's observed public IP, one of several
// services the self-filtering majority vote consults.
type IPReflector interface {
	PublicIP(ctx context.Context) (string, error)
}

// ErrNoMajorityIP is returned when no public IP reflector agreed.
var ErrNoMajorityIP = errors.New("no majority public ip across reflectors")

// MajorityPublicIP resolves this host's public IP via a majority vote
// across several reflector services, per spec.md §4.6's self-filtering
// rule.
func MajorityPublicIP(ctx context.Context, reflectors []IPReflector) (string, error) {
	votes := make(map[string]int)
	for _, r := range reflectors {
		ip, err := r.PublicIP(ctx)
		if err != nil {
			continue
		}
		votes[ip]++
	}
	best, bestCount := "", 0
	for ip, count := range votes {
		if count > bestCount {
			best, bestCount = ip, count
		}
	}
	if best == "" {
		return "", ErrNoMajorityIP
	}
	return best, nil
}

// Fleet tracks configured broadcaster peers and elects an active one, per
// spec.md §4.6. URLs pointing at this host's own public IP are removed at
// construction time.
type Fleet struct {
	mu      sync.Mutex
	peers   []string
	active  string
	checker PeerHealthChecker
}

// NewFleet builds a Fleet, filtering out any peer whose host matches
// selfIP — the address MajorityPublicIP resolved for this process, per
// spec.md §4.6's self-filtering rule. selfIP == "" (no reflector agreed)
// disables filtering rather than dropping every peer.
func NewFleet(peers []string, selfIP string, checker PeerHealthChecker) *Fleet {
	filtered := make([]string, 0, len(peers))
	for _, p := range peers {
		if selfIP == "" || hostOf(p) != selfIP {
			filtered = append(filtered, p)
		}
	}
	return &Fleet{peers: filtered, checker: checker}
}

// hostOf extracts the bare host (no port) from a peer URL, falling back to
// the raw string when it doesn't parse as a URL with a host component.
func hostOf(peerURL string) string {
	u, err := url.Parse(peerURL)
	if err != nil || u.Host == "" {
		return peerURL
	}
	if host, _, err := net.SplitHostPort(u.Host); err == nil {
		return host
	}
	return u.Host
}

// ActivePeer returns the currently-elected active peer, if any.
func (f *Fleet) ActivePeer() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.active != ""
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Elect pings each configured peer's health endpoint and sticks with the
// active peer until it fails; the first OK peer becomes (or stays) active.
// When no peer is OK, Elect clears the active peer so the caller falls
// back to its own LCD ("stop using broadcaster").
func (f *Fleet) Elect(ctx context.Context, ourHeight int64) (string, bool) {
	f.mu.Lock()
	active := f.active
	peers := append([]string(nil), f.peers...)
	f.mu.Unlock()

	if active != "" {
		if h, err := f.checker.LatestHeight(ctx, active); err == nil && absInt64(h-ourHeight) <= maxHeightDrift {
			return active, true
		}
	}

	for _, p := range peers {
		if p == active {
			continue // already known stale above
		}
		h, err := f.checker.LatestHeight(ctx, p)
		if err != nil || absInt64(h-ourHeight) > maxHeightDrift {
			continue
		}
		f.mu.Lock()
		f.active = p
		f.mu.Unlock()
		return p, true
	}

	f.mu.Lock()
	f.active = ""
	f.mu.Unlock()
	return "", false
}
