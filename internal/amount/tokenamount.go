package amount

import (
	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/errs"
)

// TokenAmount pairs a Token with a decimal-precision amount. Arithmetic
// between two TokenAmounts of different tokens fails loudly rather than
// silently producing a meaningless result, per spec.md §3.
type TokenAmount struct {
	Token  Token
	Amount math.LegacyDec
}

// NewTokenAmount builds a TokenAmount directly from a decimal amount.
func NewTokenAmount(token Token, dec math.LegacyDec) TokenAmount {
	return TokenAmount{Token: token, Amount: dec}
}

// Zero returns the additive identity for token.
func Zero(token Token) TokenAmount {
	return TokenAmount{Token: token, Amount: math.LegacyZeroDec()}
}

// pow10 computes 10^decimals as a LegacyDec, used to convert between the
// decimal and on-chain integer representations.
func pow10(decimals uint32) math.LegacyDec {
	return math.LegacyNewDec(10).Power(uint64(decimals))
}

// FromInt builds a TokenAmount from an on-chain integer amount, per
// spec.md §4.1's `from_int(n) = n / 10^decimals`.
func FromInt(token Token, n math.Int) TokenAmount {
	dec := math.LegacyNewDecFromInt(n).Quo(pow10(token.decimals))
	return TokenAmount{Token: token, Amount: dec}
}

// IntAmount converts back to the on-chain integer representation. Per the
// concrete scenario in spec.md §8 ("quote_out(10 000; …).int_amount =
// 19742" from an exact value of 19742.574...), the conversion floors rather
// than rounds to nearest — the engine must never claim a larger on-chain
// amount than the contract will actually deliver.
func (a TokenAmount) IntAmount() math.Int {
	scaled := a.Amount.Mul(pow10(a.Token.decimals))
	return scaled.TruncateInt()
}

// requireSameToken returns an error when a and b reference different tokens.
func requireSameToken(a, b Token) error {
	if !a.Equal(b) {
		return errs.ErrMismatchedTokens.Wrapf("%s vs %s", a, b)
	}
	return nil
}

// Add returns a+b; errors if the tokens differ.
func (a TokenAmount) Add(b TokenAmount) (TokenAmount, error) {
	if err := requireSameToken(a.Token, b.Token); err != nil {
		return TokenAmount{}, err
	}
	return TokenAmount{Token: a.Token, Amount: a.Amount.Add(b.Amount)}, nil
}

// Sub returns a-b; errors if the tokens differ.
func (a TokenAmount) Sub(b TokenAmount) (TokenAmount, error) {
	if err := requireSameToken(a.Token, b.Token); err != nil {
		return TokenAmount{}, err
	}
	return TokenAmount{Token: a.Token, Amount: a.Amount.Sub(b.Amount)}, nil
}

// MulDec scales the amount by a dimensionless factor, preserving the token.
func (a TokenAmount) MulDec(factor math.LegacyDec) TokenAmount {
	return TokenAmount{Token: a.Token, Amount: a.Amount.Mul(factor)}
}

// Cmp compares a and b numerically; errors if the tokens differ.
func (a TokenAmount) Cmp(b TokenAmount) (int, error) {
	if err := requireSameToken(a.Token, b.Token); err != nil {
		return 0, err
	}
	switch {
	case a.Amount.GT(b.Amount):
		return 1, nil
	case a.Amount.LT(b.Amount):
		return -1, nil
	default:
		return 0, nil
	}
}

// IsZero reports whether the amount is exactly zero.
func (a TokenAmount) IsZero() bool { return a.Amount.IsZero() }

// IsNegative reports whether the amount is strictly negative.
func (a TokenAmount) IsNegative() bool { return a.Amount.IsNegative() }

func (a TokenAmount) String() string {
	return a.Amount.String() + " " + a.Token.String()
}
