package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/paw-chain/arb/internal/broadcaster"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/config"
	"github.com/paw-chain/arb/internal/route"
)

// RouteConfig names one configured arbitrage route: the tokens/pools to
// walk and the minimum net profit to require, loaded from the strategy
// bundle selected by ARB_STRATEGY (spec.md §6's process-boundary rule).
type RouteConfig struct {
	Key          string
	Route        route.Route
	MinProfitRef string // parsed with the same precision as config.Config.ParseThresholds
}

// Clients bundles the external-collaborator implementations a deployment
// supplies. internal/chain deliberately specifies only interfaces (see
// internal/chain/interfaces.go) — wiring concrete HTTP/gRPC/WS transports
// is a per-deployment concern left to the ClientFactory below, the same
// boundary spec.md §6 draws around "node RPCs consumed".
type Clients struct {
	LCD        chain.LCDClient
	GRPC       chain.GRPCClient
	Mempool    chain.MempoolClient
	Subscriber chain.BlockSubscriber
	Signer     chain.Signer
}

// ClientFactory builds the live transport clients and the route set for a
// resolved Config. Production binaries pass a factory that dials real LCD/
// gRPC/WebSocket endpoints; tests pass one returning fakes.
type ClientFactory func(cfg config.Config) (Clients, []RouteConfig, error)

// httpPeerHealthChecker probes a broadcaster peer's `/lcd/blocks/latest`
// endpoint directly over HTTP, the proxy route internal/broadcaster.Server
// exposes on every fleet member (spec.md §4.6). This is the one place the
// daemon dials another peer's HTTP surface rather than the local node's, so
// it is kept separate from chain.LCDClient's own (local-node) transport.
type httpPeerHealthChecker struct {
	client *http.Client
}

func newHTTPPeerHealthChecker(timeout time.Duration) httpPeerHealthChecker {
	return httpPeerHealthChecker{client: &http.Client{Timeout: timeout}}
}

func (h httpPeerHealthChecker) LatestHeight(ctx context.Context, peerURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peerURL+"/lcd/blocks/latest", nil)
	if err != nil {
		return 0, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("peer %s returned status %d", peerURL, resp.StatusCode)
	}
	var body struct {
		Block struct {
			Header struct {
				Height string `json:"height"`
			} `json:"header"`
		} `json:"block"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	var height int64
	if _, err := fmt.Sscanf(body.Block.Header.Height, "%d", &height); err != nil {
		return 0, err
	}
	return height, nil
}

// ipv4Pattern matches a bare dotted-quad, the same shape the original
// get_host_ip helper validates each reflector's response against before
// counting it as a vote.
var ipv4Pattern = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)

// defaultIPReflectorURLs mirrors the original implementation's reflector
// list for the self-filtering majority-vote public IP lookup (spec.md
// §4.6): several independent plain-text "what's my IP" services queried
// in parallel, with the most common answer winning.
var defaultIPReflectorURLs = []string{
	"http://icanhazip.com",
	"http://ifconfig.me",
	"http://api.ipify.org",
	"http://bot.whatismyipaddress.com",
	"http://ipinfo.io/ip",
	"http://ipecho.net/plain",
}

// httpIPReflector queries one plain-text "what's my IP" endpoint.
type httpIPReflector struct {
	client *http.Client
	url    string
}

func newHTTPIPReflectors(timeout time.Duration, urls []string) []broadcaster.IPReflector {
	client := &http.Client{Timeout: timeout}
	reflectors := make([]broadcaster.IPReflector, 0, len(urls))
	for _, u := range urls {
		reflectors = append(reflectors, httpIPReflector{client: client, url: u})
	}
	return reflectors
}

func (h httpIPReflector) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reflector %s returned status %d", h.url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if !ipv4Pattern.MatchString(ip) {
		return "", fmt.Errorf("reflector %s returned non-IP body %q", h.url, ip)
	}
	return ip, nil
}

// liveClientFactory is the production ClientFactory. Wiring real LCD/gRPC/
// WebSocket transports is an external-collaborator concern spec.md §6
// deliberately leaves unspecified (internal/chain defines only the
// interfaces); a deployment supplies its own factory satisfying
// ClientFactory, typically wrapping this function to add the concrete
// clients before delegating here for address-book/whitelist loading.
func liveClientFactory(cfg config.Config) (Clients, []RouteConfig, error) {
	if cfg.AddressBookPath != "" {
		if _, err := os.Stat(cfg.AddressBookPath); err != nil {
			return Clients{}, nil, fmt.Errorf("address book %q: %w", cfg.AddressBookPath, err)
		}
	}
	if cfg.CW20WhitelistPath != "" {
		if _, err := os.Stat(cfg.CW20WhitelistPath); err != nil {
			return Clients{}, nil, fmt.Errorf("cw20 whitelist %q: %w", cfg.CW20WhitelistPath, err)
		}
	}
	return Clients{}, nil, fmt.Errorf(
		"no transport clients configured for chain %q: wire a ClientFactory supplying LCD/gRPC/mempool/subscriber/signer implementations for %s",
		cfg.ChainID, cfg.LCDEndpoint,
	)
}
