package broadcaster

import (
	"fmt"
	"math/big"
	stdmath "math"
	"strings"

	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/chain"
)

// coarsenAmount replaces a stringified number with floor(log10(value)) to
// resist trivial amount changes between otherwise-identical intents
// (spec.md §4.6). Per spec.md §9's Open Question #2, exactly-zero values
// fall back to the literal string instead of floor(log10(0)), which is
// mathematically undefined.
func coarsenAmount(amt math.Int) string {
	if amt.IsZero() {
		return amt.String()
	}
	abs := amt.Abs()
	f, _ := new(big.Float).SetString(abs.String())
	val, _ := f.Float64()
	order := stdmath.Floor(stdmath.Log10(val))

	sign := ""
	if amt.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s%d", sign, int64(order))
}

// Fingerprint computes a coarse fingerprint of a message sequence by
// recursively replacing every stringified number with its coarsened order
// of magnitude, per spec.md §4.6.
func Fingerprint(msgs []chain.Msg) string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(string(m.Kind))
		sb.WriteByte('|')
		sb.WriteString(m.Contract)
		sb.WriteByte('|')
		sb.WriteString(m.OfferDenom)
		sb.WriteByte('|')
		sb.WriteString(m.AskDenom)
		sb.WriteByte('|')
		sb.WriteString(coarsenAmount(m.OfferAmt))
		for _, hop := range m.RouterHops {
			sb.WriteByte(';')
			sb.WriteString(hop.PoolAddress)
			sb.WriteByte(':')
			sb.WriteString(hop.OfferDenom)
			sb.WriteByte('>')
			sb.WriteString(hop.AskDenom)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// extractPoolIdentities returns the set of pool/contract addresses touched
// by a message sequence, used for the "current pools" intersection check.
func extractPoolIdentities(msgs []chain.Msg) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, m := range msgs {
		add(m.Contract)
		for _, hop := range m.RouterHops {
			add(hop.PoolAddress)
		}
	}
	return ids
}
