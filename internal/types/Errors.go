package types

import (
	errorsmod "cosmossdk.io/errors"
)

const codespace = "position"

var (
	ErrDifferentTokensInPosition = errorsmod.Register(codespace, 2, "different tokens in position")
	ErrValueLengthIsNotSame      = errorsmod.Register(codespace, 3, "value length is not same")
	ErrNegativeAmount            = errorsmod.Register(codespace, 4, "amount is negative")
)

// CheckPosition verifies that denoms match the canonical token list index by index.
func CheckPosition(tokens, denoms []string) error {
	if len(tokens) != len(denoms) {
		return errorsmod.Wrapf(ErrValueLengthIsNotSame, "expected %d values, got %d", len(tokens), len(denoms))
	}
	for i := range tokens {
		if tokens[i] != denoms[i] {
			return errorsmod.Wrapf(ErrDifferentTokensInPosition, "index %d: expected %s, got %s", i, tokens[i], denoms[i])
		}
	}
	return nil
}
