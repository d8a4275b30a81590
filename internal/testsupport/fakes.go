// Package testsupport holds shared fakes for the external-collaborator
// interfaces in internal/chain, used across package test suites the way the
// teacher's x/dex/keeper tests build in-memory keepers.
package testsupport

import (
	"context"

	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
)

// FakeLCD is a function-field based fake chain.LCDClient. Unset fields
// return zero values so tests only need to wire what they exercise.
type FakeLCD struct {
	ContractQueryFunc       func(ctx context.Context, contract string, query, result any) error
	ContractInfoFunc        func(ctx context.Context, contract string) (chain.ContractInfo, error)
	TxInfoFunc              func(ctx context.Context, hash string) (chain.TxInfo, error)
	BroadcastSyncFunc       func(ctx context.Context, txBytes []byte) (chain.TxInfo, error)
	DecodeTxFunc            func(ctx context.Context, txString string) (chain.DecodedTx, error)
	TaxRateFunc             func(ctx context.Context) (math.LegacyDec, error)
	TaxCapFunc              func(ctx context.Context, denom string) (math.Int, error)
	OracleExchangeRatesFunc func(ctx context.Context) (map[string]math.LegacyDec, error)
	MarketParametersFunc    func(ctx context.Context) (chain.MarketParams, error)
	IBCChannelsFunc         func(ctx context.Context) ([]chain.ChannelInfo, error)
	LatestBlockFunc         func(ctx context.Context) (chain.BlockInfo, error)
	SimulateFunc            func(ctx context.Context, txBytes []byte) (uint64, error)
}

func (f *FakeLCD) ContractQuery(ctx context.Context, contract string, query, result any) error {
	if f.ContractQueryFunc != nil {
		return f.ContractQueryFunc(ctx, contract, query, result)
	}
	return nil
}

func (f *FakeLCD) ContractInfo(ctx context.Context, contract string) (chain.ContractInfo, error) {
	if f.ContractInfoFunc != nil {
		return f.ContractInfoFunc(ctx, contract)
	}
	return chain.ContractInfo{}, nil
}

func (f *FakeLCD) TxInfo(ctx context.Context, hash string) (chain.TxInfo, error) {
	if f.TxInfoFunc != nil {
		return f.TxInfoFunc(ctx, hash)
	}
	return chain.TxInfo{}, nil
}

func (f *FakeLCD) BroadcastSync(ctx context.Context, txBytes []byte) (chain.TxInfo, error) {
	if f.BroadcastSyncFunc != nil {
		return f.BroadcastSyncFunc(ctx, txBytes)
	}
	return chain.TxInfo{}, nil
}

func (f *FakeLCD) DecodeTx(ctx context.Context, txString string) (chain.DecodedTx, error) {
	if f.DecodeTxFunc != nil {
		return f.DecodeTxFunc(ctx, txString)
	}
	return chain.DecodedTx{}, nil
}

func (f *FakeLCD) TaxRate(ctx context.Context) (math.LegacyDec, error) {
	if f.TaxRateFunc != nil {
		return f.TaxRateFunc(ctx)
	}
	return math.LegacyZeroDec(), nil
}

func (f *FakeLCD) TaxCap(ctx context.Context, denom string) (math.Int, error) {
	if f.TaxCapFunc != nil {
		return f.TaxCapFunc(ctx, denom)
	}
	return math.ZeroInt(), nil
}

func (f *FakeLCD) OracleExchangeRates(ctx context.Context) (map[string]math.LegacyDec, error) {
	if f.OracleExchangeRatesFunc != nil {
		return f.OracleExchangeRatesFunc(ctx)
	}
	return nil, nil
}

func (f *FakeLCD) MarketParameters(ctx context.Context) (chain.MarketParams, error) {
	if f.MarketParametersFunc != nil {
		return f.MarketParametersFunc(ctx)
	}
	return chain.MarketParams{}, nil
}

func (f *FakeLCD) IBCChannels(ctx context.Context) ([]chain.ChannelInfo, error) {
	if f.IBCChannelsFunc != nil {
		return f.IBCChannelsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeLCD) LatestBlock(ctx context.Context) (chain.BlockInfo, error) {
	if f.LatestBlockFunc != nil {
		return f.LatestBlockFunc(ctx)
	}
	return chain.BlockInfo{}, nil
}

func (f *FakeLCD) Simulate(ctx context.Context, txBytes []byte) (uint64, error) {
	if f.SimulateFunc != nil {
		return f.SimulateFunc(ctx, txBytes)
	}
	return 0, nil
}

// FakeMempoolClient is a function-field fake chain.MempoolClient.
type FakeMempoolClient struct {
	UnconfirmedTxsFunc func(ctx context.Context) ([]string, error)
	HealthFunc         func(ctx context.Context) error
}

func (f *FakeMempoolClient) UnconfirmedTxs(ctx context.Context) ([]string, error) {
	if f.UnconfirmedTxsFunc != nil {
		return f.UnconfirmedTxsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeMempoolClient) Health(ctx context.Context) error {
	if f.HealthFunc != nil {
		return f.HealthFunc(ctx)
	}
	return nil
}

// FakeBlockSubscriber is a function-field fake chain.BlockSubscriber.
type FakeBlockSubscriber struct {
	SubscribeFunc func(ctx context.Context) (<-chan int64, error)
}

func (f *FakeBlockSubscriber) SubscribeNewBlockHeader(ctx context.Context) (<-chan int64, error) {
	if f.SubscribeFunc != nil {
		return f.SubscribeFunc(ctx)
	}
	ch := make(chan int64)
	close(ch)
	return ch, nil
}

// FakeSigner is a function-field fake chain.Signer with simple in-memory
// sequence tracking.
type FakeSigner struct {
	AddressValue       string
	AccountNumberValue uint64
	SeqValue           uint64
	SignTxFunc         func(ctx context.Context, msgs []chain.Msg, fee chain.Fee, sequence uint64) ([]byte, error)
}

func (f *FakeSigner) Address() string         { return f.AddressValue }
func (f *FakeSigner) AccountNumber() uint64   { return f.AccountNumberValue }
func (f *FakeSigner) Sequence() uint64        { return f.SeqValue }
func (f *FakeSigner) SetSequence(seq uint64)  { f.SeqValue = seq }
func (f *FakeSigner) SignTx(ctx context.Context, msgs []chain.Msg, fee chain.Fee, sequence uint64) ([]byte, error) {
	if f.SignTxFunc != nil {
		return f.SignTxFunc(ctx, msgs, fee, sequence)
	}
	return []byte("signed-tx"), nil
}

// NativeToken is a small helper so package tests don't repeat the
// NewNativeToken error-handling boilerplate.
func NativeToken(denom string, decimals uint32) amount.Token {
	tok, err := amount.NewNativeToken(denom, denom, decimals)
	if err != nil {
		panic(err)
	}
	return tok
}
