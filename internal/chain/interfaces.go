package chain

import (
	"context"

	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/amount"
)

// LCDClient is the node-local HTTP/JSON query interface (spec.md §6). Only
// the interface is specified; the concrete implementation (HTTP transport,
// retries, timeouts) is an external collaborator out of scope here.
type LCDClient interface {
	ContractQuery(ctx context.Context, contract string, query, result any) error
	ContractInfo(ctx context.Context, contract string) (ContractInfo, error)
	TxInfo(ctx context.Context, hash string) (TxInfo, error)
	BroadcastSync(ctx context.Context, txBytes []byte) (TxInfo, error)
	DecodeTx(ctx context.Context, txString string) (DecodedTx, error)
	TaxRate(ctx context.Context) (math.LegacyDec, error)
	TaxCap(ctx context.Context, denom string) (math.Int, error)
	OracleExchangeRates(ctx context.Context) (map[string]math.LegacyDec, error)
	MarketParameters(ctx context.Context) (MarketParams, error)
	IBCChannels(ctx context.Context) ([]ChannelInfo, error)
	LatestBlock(ctx context.Context) (BlockInfo, error)
	Simulate(ctx context.Context, txBytes []byte) (gasUsed uint64, err error)
}

// GRPCClient is the gRPC query surface (spec.md §6).
type GRPCClient interface {
	BankBalance(ctx context.Context, addr, denom string) (math.Int, error)
	BankAllBalances(ctx context.Context, addr string) ([]amount.TokenAmount, error)
	AuthAccount(ctx context.Context, addr string) (AccountInfo, error)
	LatestBlockHeight(ctx context.Context) (int64, error)
	IsSyncing(ctx context.Context) (bool, error)
	WasmContractStore(ctx context.Context, contract string, query, result any) error
	WasmContractInfo(ctx context.Context, contract string) (ContractInfo, error)
	GammPool(ctx context.Context, poolID uint64) (GammPoolInfo, error)
}

// MempoolClient is the RPC HTTP surface used to poll pending transactions.
type MempoolClient interface {
	UnconfirmedTxs(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
}

// BlockSubscriber is the RPC WebSocket surface used to watch new heights.
// Implementations are expected to reconnect with increasing subscription ids
// on disconnect, per spec.md §4.5.
type BlockSubscriber interface {
	SubscribeNewBlockHeader(ctx context.Context) (<-chan int64, error)
}

// Signer owns the account sequence and produces signed transaction bytes.
// Single-owner per spec.md §5: only the broadcast path mutates sequence.
type Signer interface {
	Address() string
	AccountNumber() uint64
	Sequence() uint64
	SetSequence(seq uint64)
	SignTx(ctx context.Context, msgs []Msg, fee Fee, sequence uint64) ([]byte, error)
}
