// Package amount implements the typed token identities and fixed-precision
// amount arithmetic that every other component builds on.
package amount

import (
	"fmt"
	"strings"

	"github.com/paw-chain/arb/internal/errs"
)

// Kind distinguishes a native bank denom from a CW20 contract token.
type Kind uint8

const (
	NativeDenom Kind = iota
	Contract
)

func (k Kind) String() string {
	if k == Contract {
		return "contract"
	}
	return "native"
}

// MaxDecimals is the upper bound of the [0, 18] decimals invariant.
const MaxDecimals = 18

// Token is a typed token identity: either a native denom or a CW20 contract
// address, tagged with the display symbol and decimal precision used to
// convert between on-chain integer amounts and decimal amounts. Token values
// are immutable once constructed and compared by their variant payload, not
// by symbol.
type Token struct {
	kind     Kind
	id       string
	symbol   string
	decimals uint32
}

// NewNativeToken builds a Token for a bank-module denom such as "uluna".
func NewNativeToken(denom, symbol string, decimals uint32) (Token, error) {
	return newToken(NativeDenom, denom, symbol, decimals)
}

// NewContractToken builds a Token for a CW20 contract address.
func NewContractToken(address, symbol string, decimals uint32) (Token, error) {
	return newToken(Contract, address, symbol, decimals)
}

func newToken(kind Kind, id, symbol string, decimals uint32) (Token, error) {
	if strings.TrimSpace(id) == "" {
		return Token{}, errs.ErrInvalidAmount.Wrap("token id must not be empty")
	}
	if decimals > MaxDecimals {
		return Token{}, errs.ErrInvalidAmount.Wrapf("decimals %d exceeds maximum of %d", decimals, MaxDecimals)
	}
	return Token{kind: kind, id: id, symbol: symbol, decimals: decimals}, nil
}

// Kind reports whether this is a native denom or a contract token.
func (t Token) Kind() Kind { return t.kind }

// ID returns the denom string or the bech32 contract address.
func (t Token) ID() string { return t.id }

// Symbol returns the display symbol (not part of equality).
func (t Token) Symbol() string { return t.symbol }

// Decimals returns the fixed-point precision used for on-chain conversion.
func (t Token) Decimals() uint32 { return t.decimals }

// IsZero reports whether t is the zero value (never constructed).
func (t Token) IsZero() bool { return t.id == "" }

// Equal compares tokens by variant payload (kind + id), ignoring symbol.
func (t Token) Equal(other Token) bool {
	return t.kind == other.kind && t.id == other.id
}

// Key returns a canonical, order-stable string used to hash and sort token
// pairs — "native:<denom>" or "contract:<address>".
func (t Token) Key() string {
	return fmt.Sprintf("%s:%s", t.kind, t.id)
}

func (t Token) String() string {
	if t.symbol != "" {
		return t.symbol
	}
	return t.Key()
}

// CanonicalPair returns (a, b) reordered so pool token pairs have a stable
// (min, max) form for hashing and registry lookups, per spec.md §4.1.
func CanonicalPair(a, b Token) (Token, Token) {
	if a.Key() <= b.Key() {
		return a, b
	}
	return b, a
}
