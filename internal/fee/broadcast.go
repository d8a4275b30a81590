package fee

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
	"github.com/paw-chain/arb/internal/logging"
)

// Broadcaster signs and submits a transaction, recovering from
// account-sequence races (spec.md §4.7 steps 1-3).
type Broadcaster struct {
	lcd             chain.LCDClient
	signer          chain.Signer
	mempoolContains func(ctx context.Context, sender string) (bool, error)
	peerLCDs        []chain.LCDClient
	log             logging.Logger
}

// NewBroadcaster builds a Broadcaster. peerLCDs receive a best-effort
// asynchronous re-post of the same signed tx bytes on success.
func NewBroadcaster(lcd chain.LCDClient, signer chain.Signer, mempoolContains func(ctx context.Context, sender string) (bool, error), peerLCDs []chain.LCDClient, log logging.Logger) *Broadcaster {
	return &Broadcaster{lcd: lcd, signer: signer, mempoolContains: mempoolContains, peerLCDs: peerLCDs, log: log}
}

// Broadcast signs msgs with the current sequence and submits them, retrying
// on sequence mismatch up to maxBroadcastRetries times. On success it bumps
// the signer's sequence locally and re-posts the signed bytes to configured
// peers best-effort.
func (b *Broadcaster) Broadcast(ctx context.Context, msgs []chain.Msg, txFee chain.Fee) (chain.TxInfo, error) {
	var lastErr error
	for attempt := 0; attempt < maxBroadcastRetries; attempt++ {
		seq := b.signer.Sequence()
		txBytes, err := b.signer.SignTx(ctx, msgs, txFee, seq)
		if err != nil {
			return chain.TxInfo{}, err
		}

		// a submitted tx is fire-and-forget: caller cancellation must not abort it
		info, err := b.lcd.BroadcastSync(context.WithoutCancel(ctx), txBytes)
		if err == nil {
			b.signer.SetSequence(seq + 1)
			b.repostBestEffort(txBytes)
			return info, nil
		}

		expected, isMismatch := ParseExpectedSequence(err.Error())
		if !isMismatch {
			return chain.TxInfo{}, err
		}

		alreadyBroadcast, checkErr := b.mempoolContains(ctx, b.signer.Address())
		if checkErr == nil && alreadyBroadcast {
			return chain.TxInfo{}, errorsmod.Wrap(errs.ErrTxAlreadyBroadcasted, "prior tx already present in mempool")
		}
		b.signer.SetSequence(expected)
		lastErr = err
	}
	return chain.TxInfo{}, errorsmod.Wrapf(errs.ErrBroadcastExhausted, "exhausted %d broadcast sequence-mismatch retries: %v", maxBroadcastRetries, lastErr)
}

// repostBestEffort fires the same signed bytes at every configured peer LCD
// without waiting for or propagating their results.
func (b *Broadcaster) repostBestEffort(txBytes []byte) {
	for _, peer := range b.peerLCDs {
		go func(p chain.LCDClient) {
			if _, err := p.BroadcastSync(context.Background(), txBytes); err != nil {
				b.log.Debug("peer re-post failed", "error", err)
			}
		}(peer)
	}
}
