/*

Withdrawal validators.

A validator caps, per token, how much the owner may take out of the vault in one call.
The vault withdraws at most min(holding, allowance).

*/

package validator

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fixed"
)

const codespace = "validator"

var ErrInvalidValidator = errorsmod.Register(codespace, 2, "invalid validator")

// Unlimited is the allowance of a validator that does not restrict withdrawals.
var Unlimited = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), sdkmath.MaxBitLen-1), big.NewInt(1)))

// Permissive allows withdrawing everything.
type Permissive struct{}

func (Permissive) Allowance(int) sdkmath.Int { return Unlimited }

// Static returns a fixed allowance per token index. Indexes without an entry get zero.
type Static struct {
	allowances []sdkmath.Int
}

// NewStatic validates the allowances and returns a Static validator.
func NewStatic(allowances []sdkmath.Int) (*Static, error) {
	for i, a := range allowances {
		if a.IsNil() || a.IsNegative() {
			return nil, errorsmod.Wrapf(ErrInvalidValidator, "allowance %d is %s", i, a)
		}
	}
	return &Static{allowances: append([]sdkmath.Int(nil), allowances...)}, nil
}

func (s *Static) Allowance(index int) sdkmath.Int {
	if index < 0 || index >= len(s.allowances) {
		return sdkmath.ZeroInt()
	}
	return s.allowances[index]
}

// Holdings is where Fractional reads the current balances from.
type Holdings interface {
	Balances() []sdkmath.Int
}

// Fractional allows withdrawing a fixed fraction of each current holding.
type Fractional struct {
	source   Holdings
	fraction sdkmath.LegacyDec
}

// NewFractional returns a validator allowing fraction of every holding, with fraction in [0, 1].
func NewFractional(source Holdings, fraction sdkmath.LegacyDec) (*Fractional, error) {
	if source == nil {
		return nil, errorsmod.Wrap(ErrInvalidValidator, "holdings source cannot be nil")
	}
	if fraction.IsNil() || fraction.IsNegative() || fraction.GT(fixed.One()) {
		return nil, errorsmod.Wrapf(ErrInvalidValidator, "fraction %s outside [0, 1]", fraction)
	}
	return &Fractional{source: source, fraction: fraction}, nil
}

func (f *Fractional) Allowance(index int) sdkmath.Int {
	balances := f.source.Balances()
	if index < 0 || index >= len(balances) {
		return sdkmath.ZeroInt()
	}
	allowed, err := fixed.MulInt(balances[index], f.fraction)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return allowed
}
