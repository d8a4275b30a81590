// Package config loads the arbitrage daemon's runtime configuration via
// viper, the way the teacher's cmd/pawd/cmd/root.go binds cobra flags into a
// viper-backed settings object, generalized here to api/server.go's
// Config/DefaultConfig struct-plus-defaults shape.
package config

import (
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvStrategy is the single environment variable that selects the strategy
// bundle to run, per spec.md §6's "Strategy selected by a single
// environment variable" process-boundary rule.
const EnvStrategy = "ARB_STRATEGY"

// EnvPrefix namespaces every other setting so operators can override config
// file values with ARB_-prefixed environment variables.
const EnvPrefix = "ARB"

// Config holds everything the daemon needs to construct a chain client,
// mempool watcher, broadcaster fleet, and one engine per configured route.
type Config struct {
	Strategy string `mapstructure:"strategy"`

	ChainID      string `mapstructure:"chain_id"`
	LCDEndpoint  string `mapstructure:"lcd_endpoint"`
	RPCEndpoint  string `mapstructure:"rpc_endpoint"` // CometBFT RPC, ws:// for block subscription
	GRPCEndpoint string `mapstructure:"grpc_endpoint"`

	SecretsStore      string `mapstructure:"secrets_store"` // resolved once at startup, not re-read
	AddressBookPath   string `mapstructure:"address_book_path"`
	CW20WhitelistPath string `mapstructure:"cw20_whitelist_path"`

	SenderAddress string `mapstructure:"sender_address"`

	MempoolPollInterval time.Duration `mapstructure:"mempool_poll_interval"`
	MempoolPollBurst    int           `mapstructure:"mempool_poll_burst"`

	GasAdjustment   string `mapstructure:"gas_adjustment"`
	GasPrice        string `mapstructure:"gas_price"`
	FeeDenom        string `mapstructure:"fee_denom"`
	UseFallbackFee  bool   `mapstructure:"use_fallback_fee"`
	MinProfitRef    string `mapstructure:"min_profit_ref"`
	NMax            int    `mapstructure:"n_max"`
	MaxSingleAmount string `mapstructure:"max_single_amount"`
	SeedAmount      string `mapstructure:"seed_amount"`

	MaxBlockBroadcastDelay int64 `mapstructure:"max_block_broadcast_delay"`
	MaxBlocksWaitReceipt   int64 `mapstructure:"max_blocks_wait_receipt"`
	MinConfirmations       int64 `mapstructure:"min_confirmations"`

	BroadcasterListenAddr string   `mapstructure:"broadcaster_listen_addr"`
	BroadcasterPeers      []string `mapstructure:"broadcaster_peers"`

	HealthAddr  string `mapstructure:"health_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Default returns conservative defaults, overridden by config file/env/flags
// in that precedence order (viper's standard order, teacher-style).
func Default() Config {
	return Config{
		MempoolPollInterval:    1500 * time.Millisecond,
		MempoolPollBurst:       1,
		GasAdjustment:          "1.3",
		GasPrice:               "0.015",
		FeeDenom:               "uusd",
		UseFallbackFee:         true,
		MinProfitRef:           "1",
		NMax:                   3,
		MaxSingleAmount:        "1000000",
		SeedAmount:             "100",
		MaxBlockBroadcastDelay: 2,
		MaxBlocksWaitReceipt:   10,
		MinConfirmations:       1,
		BroadcasterListenAddr:  "0.0.0.0:7071",
		HealthAddr:             "0.0.0.0:8080",
		MetricsAddr:            "0.0.0.0:9090",
	}
}

// BindFlags registers the flag set cobra's run command exposes, mirroring
// the teacher's root.go pattern of binding persistent flags through viper
// rather than reading them directly.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	d := Default()
	flags.String("chain-id", "", "chain id to connect to")
	flags.String("lcd-endpoint", "", "LCD (REST) endpoint")
	flags.String("rpc-endpoint", "", "CometBFT RPC endpoint (used for WS block subscription)")
	flags.String("grpc-endpoint", "", "gRPC endpoint")
	flags.String("sender-address", "", "bech32 address broadcasting transactions")
	flags.Duration("mempool-poll-interval", d.MempoolPollInterval, "unconfirmed-tx poll interval")
	flags.String("gas-adjustment", d.GasAdjustment, "gas simulation safety multiplier")
	flags.String("gas-price", d.GasPrice, "gas price in the fee denom")
	flags.String("fee-denom", d.FeeDenom, "denom used to pay gas")
	flags.Bool("use-fallback-fee", d.UseFallbackFee, "fall back to a conservative fee estimate when simulation fails")
	flags.String("min-profit-ref", d.MinProfitRef, "minimum net profit, in the reference token, to broadcast")
	flags.Int("n-max", d.NMax, "maximum number of repeated broadcasts per opportunity")
	flags.String("broadcaster-listen-addr", d.BroadcasterListenAddr, "address the broadcaster fleet HTTP server binds")
	flags.StringSlice("broadcaster-peers", nil, "broadcaster fleet peer base URLs")
	flags.String("health-addr", d.HealthAddr, "address the health/metrics server binds")

	// Config's mapstructure keys use underscores where the flag names use dashes.
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	return bindErr
}

// Load resolves a Config from v, which the caller has already wired to read
// a config file (if any), ARB_-prefixed environment variables, and bound
// flags, in viper's standard precedence order.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// EnvStrategy already carries the prefix, so bind it under its literal name.
	if err := v.BindEnv(EnvStrategy, EnvStrategy); err != nil {
		return Config{}, fmt.Errorf("bind %s: %w", EnvStrategy, err)
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Strategy == "" {
		cfg.Strategy = v.GetString(EnvStrategy)
	}
	if cfg.Strategy == "" {
		return Config{}, fmt.Errorf("%s is not set: the daemon requires exactly one strategy bundle selected at startup", EnvStrategy)
	}
	return cfg, nil
}

// ParsedThresholds is the subset of Config that needs to become
// cosmossdk.io/math values before it can feed an engine.Config.
type ParsedThresholds struct {
	MinProfitRef    math.LegacyDec
	MaxSingleAmount math.LegacyDec
	SeedAmount      math.LegacyDec
}

// ParseThresholds converts the string-typed decimal settings (kept as
// strings in Config so they round-trip cleanly through viper/env/flags)
// into LegacyDec values.
func (c Config) ParseThresholds() (ParsedThresholds, error) {
	minProfit, err := math.LegacyNewDecFromStr(c.MinProfitRef)
	if err != nil {
		return ParsedThresholds{}, fmt.Errorf("min_profit_ref: %w", err)
	}
	maxSingle, err := math.LegacyNewDecFromStr(c.MaxSingleAmount)
	if err != nil {
		return ParsedThresholds{}, fmt.Errorf("max_single_amount: %w", err)
	}
	seed, err := math.LegacyNewDecFromStr(c.SeedAmount)
	if err != nil {
		return ParsedThresholds{}, fmt.Errorf("seed_amount: %w", err)
	}
	return ParsedThresholds{MinProfitRef: minProfit, MaxSingleAmount: maxSingle, SeedAmount: seed}, nil
}
