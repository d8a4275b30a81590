package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/paw-chain/arb/internal/broadcaster"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/config"
	"github.com/paw-chain/arb/internal/engine"
	"github.com/paw-chain/arb/internal/fee"
	"github.com/paw-chain/arb/internal/filter"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/mempool"
	"github.com/paw-chain/arb/internal/strategy"
	"github.com/paw-chain/arb/internal/telemetry"
)

// newRunCmd builds the `arbd run` subcommand, wiring config -> clients ->
// engines -> strategy driver -> graceful shutdown, the way the teacher's
// cmd/pawd/main.go starts a metrics server then hands off to
// svrcmd.Execute, generalized here into one cobra RunE.
func newRunCmd(factory ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the arbitrage engine against the configured strategy bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, factory)
		},
	}
}

func runDaemon(ctx context.Context, cfg config.Config, factory ClientFactory) error {
	logger := logging.New()

	thresholds, err := cfg.ParseThresholds()
	if err != nil {
		return fmt.Errorf("parse thresholds: %w", err)
	}
	gasAdjustment, err := math.LegacyNewDecFromStr(cfg.GasAdjustment)
	if err != nil {
		return fmt.Errorf("gas_adjustment: %w", err)
	}
	gasPrice, err := math.LegacyNewDecFromStr(cfg.GasPrice)
	if err != nil {
		return fmt.Errorf("gas_price: %w", err)
	}

	clients, routeCfgs, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("build clients: %w", err)
	}
	if len(routeCfgs) == 0 {
		return errors.New("strategy bundle resolved zero routes")
	}

	// mempoolContains is what the fee and broadcast retry paths consult to
	// tell a genuine account-sequence race from a prior broadcast that
	// already landed (spec.md §8 scenario 5). No mempool lookup is wired in
	// here: it always reports false, so every sequence mismatch is treated
	// as a race and retried.
	mempoolContains := func(ctx context.Context, sender string) (bool, error) {
		return false, nil
	}

	estimator := fee.NewEstimator(clients.LCD, clients.Signer, gasAdjustment, gasPrice, cfg.FeeDenom, cfg.UseFallbackFee, mempoolContains)
	broadcasterClient := fee.NewBroadcaster(clients.LCD, clients.Signer, mempoolContains, nil, logger)

	engineCfg := engine.DefaultConfig()
	engineCfg.MaxBlockBroadcastDelay = cfg.MaxBlockBroadcastDelay
	engineCfg.MaxBlocksWaitReceipt = cfg.MaxBlocksWaitReceipt
	engineCfg.MinConfirmations = cfg.MinConfirmations
	engineCfg.MinProfitRef = thresholds.MinProfitRef
	engineCfg.NMax = cfg.NMax
	engineCfg.MaxSingleAmount = thresholds.MaxSingleAmount
	engineCfg.SeedAmount = thresholds.SeedAmount

	entries := make([]strategy.RouteEntry, 0, len(routeCfgs))
	for _, rc := range routeCfgs {
		routeEngineCfg := engineCfg
		if rc.MinProfitRef != "" {
			minProfit, err := math.LegacyNewDecFromStr(rc.MinProfitRef)
			if err != nil {
				return fmt.Errorf("route %s min_profit_ref: %w", rc.Key, err)
			}
			routeEngineCfg.MinProfitRef = minProfit
		}
		e := engine.New(rc.Route, rc.Route.Tokens[0], clients.Signer.Address(), estimator, broadcasterClient, clients.LCD, routeEngineCfg, logger)
		entries = append(entries, strategy.RouteEntry{
			Key:    rc.Key,
			Engine: e,
			Filter: filter.Func(func(tx chain.DecodedTx) bool { return true }),
		})
	}

	watcher := mempool.NewWatcher(clients.Mempool, clients.Subscriber, clients.LCD, cfg.MempoolPollInterval, logger)
	checker := newHTTPPeerHealthChecker(5 * time.Second)

	selfIP, err := broadcaster.MajorityPublicIP(ctx, newHTTPIPReflectors(3*time.Second, defaultIPReflectorURLs))
	if err != nil {
		logger.Warn("could not resolve own public IP, broadcaster self-filtering disabled", "error", err)
		selfIP = ""
	}
	fleet := broadcaster.NewFleet(cfg.BroadcasterPeers, selfIP, checker)

	driver := strategy.New(entries, watcher, fleet, logger)

	dupCache := broadcaster.NewDuplicateCache()
	broadcastServer := broadcaster.NewServer(dupCache, clients.LCD, clients.Signer, logger)
	httpSrv := &http.Server{Addr: cfg.BroadcasterListenAddr, Handler: broadcastServer.Engine()}

	prober := livenessProbe{watcher: watcher}
	telemetrySrv := telemetry.NewServer(prober)
	healthSrv := &http.Server{Addr: cfg.HealthAddr, Handler: telemetrySrv.Router()}

	if _, err := telemetry.NewTracerProvider("arbd"); err != nil {
		logger.Warn("failed to install tracer provider, spans will be no-ops", "error", err)
	}
	if mp, err := telemetry.NewMeterProvider("arbd"); err != nil {
		logger.Warn("failed to install OTel meter provider", "error", err)
	} else {
		startCounter, err := telemetry.Meter(mp, "github.com/paw-chain/arb/cmd/arbd").Int64Counter(
			"arb_daemon_starts_total",
			otelmetric.WithDescription("Number of times the daemon process has started"),
		)
		if err != nil {
			logger.Warn("failed to register daemon start counter", "error", err)
		} else {
			startCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("chain_id", cfg.ChainID)))
		}
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- driver.Run(runCtx) }()
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("broadcaster http server stopped", "error", err)
		}
	}()
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server stopped", "error", err)
		}
	}()
	go reportFleetMetrics(runCtx, watcher, fleet)

	select {
	case <-runCtx.Done():
		logger.Info("shutdown signal received, cancelling outstanding tasks")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("strategy driver exited", "error", err)
		}
	}

	// Broadcast is fire-and-forget once the request has left the process
	// (spec.md §5): shutdown here only stops accepting new work and closes
	// the HTTP/WS surfaces, it does not cancel in-flight broadcasts.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = healthSrv.Shutdown(shutdownCtx)

	return nil
}

// reportFleetMetrics polls the watcher's last-seen height and the fleet's
// currently-elected peer on a short interval and reflects them into the
// arb_mempool_height and arb_broadcaster_peer_active gauges, until ctx is
// canceled.
func reportFleetMetrics(ctx context.Context, watcher *mempool.Watcher, fleet *broadcaster.Fleet) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	lastActive := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			telemetry.MempoolHeight.Set(float64(watcher.Height()))

			active, ok := fleet.ActivePeer()
			if !ok {
				active = ""
			}
			if active != lastActive {
				if lastActive != "" {
					telemetry.ActiveBroadcasterPeer.WithLabelValues(lastActive).Set(0)
				}
				if active != "" {
					telemetry.ActiveBroadcasterPeer.WithLabelValues(active).Set(1)
				}
				lastActive = active
			}
		}
	}
}

type livenessProbe struct {
	watcher *mempool.Watcher
}

// IsLive reports whether the mempool watcher has observed at least one
// block since startup. Staleness after the first block (no block in
// several poll intervals) is not detected: once any height has been seen,
// IsLive reports live.
func (p livenessProbe) IsLive() (bool, string) {
	if p.watcher.Height() == 0 {
		return false, "no block observed yet"
	}
	return true, ""
}
