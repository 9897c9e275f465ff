/*

Token tagged values used by every call that carries a per-token vector.

Tagging each value with its denom lets the vault reject a vector whose order does not
match the canonical, sorted token list instead of silently applying it to the wrong token.

*/

package types

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TokenAmount is an amount of a single managed token, in base units.
type TokenAmount struct {
	Denom  string      `json:"denom"`
	Amount sdkmath.Int `json:"amount"`
}

// TokenWeight is a normalized weight for a single managed token.
type TokenWeight struct {
	Denom  string            `json:"denom"`
	Weight sdkmath.LegacyDec `json:"weight"`
}

// AmountDenoms returns the denoms of the amounts in order.
func AmountDenoms(amounts []TokenAmount) []string {
	denoms := make([]string, len(amounts))
	for i, a := range amounts {
		denoms[i] = a.Denom
	}
	return denoms
}

// WeightDenoms returns the denoms of the weights in order.
func WeightDenoms(weights []TokenWeight) []string {
	denoms := make([]string, len(weights))
	for i, w := range weights {
		denoms[i] = w.Denom
	}
	return denoms
}

// AmountVector checks the position and returns the raw amounts in canonical order.
func AmountVector(tokens []string, amounts []TokenAmount) ([]sdkmath.Int, error) {
	if err := CheckPosition(tokens, AmountDenoms(amounts)); err != nil {
		return nil, err
	}
	out := make([]sdkmath.Int, len(amounts))
	for i, a := range amounts {
		if a.Amount.IsNil() {
			out[i] = sdkmath.ZeroInt()
			continue
		}
		if a.Amount.IsNegative() {
			return nil, errorsmod.Wrapf(ErrNegativeAmount, "%s: %s", a.Denom, a.Amount)
		}
		out[i] = a.Amount
	}
	return out, nil
}

// WeightVector checks the position and returns the raw weights in canonical order.
func WeightVector(tokens []string, weights []TokenWeight) ([]sdkmath.LegacyDec, error) {
	if err := CheckPosition(tokens, WeightDenoms(weights)); err != nil {
		return nil, err
	}
	out := make([]sdkmath.LegacyDec, len(weights))
	for i, w := range weights {
		if w.Weight.IsNil() {
			out[i] = sdkmath.LegacyZeroDec()
			continue
		}
		out[i] = w.Weight
	}
	return out, nil
}

// Amounts zips a vector back into token tagged amounts.
func Amounts(tokens []string, values []sdkmath.Int) []TokenAmount {
	out := make([]TokenAmount, len(tokens))
	for i := range tokens {
		out[i] = TokenAmount{Denom: tokens[i], Amount: values[i]}
	}
	return out
}

// Weights zips a vector back into token tagged weights.
func Weights(tokens []string, values []sdkmath.LegacyDec) []TokenWeight {
	out := make([]TokenWeight, len(tokens))
	for i := range tokens {
		out[i] = TokenWeight{Denom: tokens[i], Weight: values[i]}
	}
	return out
}

// Coins converts a canonical amount vector into sdk.Coins, dropping zero entries.
func Coins(tokens []string, values []sdkmath.Int) sdk.Coins {
	coins := make([]sdk.Coin, 0, len(tokens))
	for i := range tokens {
		if values[i].IsNil() || !values[i].IsPositive() {
			continue
		}
		coins = append(coins, sdk.NewCoin(tokens[i], values[i]))
	}
	return sdk.NewCoins(coins...)
}

// IsSortedUnique reports whether denoms are strictly ascending.
func IsSortedUnique(denoms []string) bool {
	return sort.SliceIsSorted(denoms, func(i, j int) bool { return denoms[i] < denoms[j] }) && !hasDuplicates(denoms)
}

func hasDuplicates(denoms []string) bool {
	seen := make(map[string]struct{}, len(denoms))
	for _, d := range denoms {
		if _, ok := seen[d]; ok {
			return true
		}
		seen[d] = struct{}{}
	}
	return false
}

// ZeroAmounts returns a vector of n zero amounts.
func ZeroAmounts(n int) []sdkmath.Int {
	out := make([]sdkmath.Int, n)
	for i := range out {
		out[i] = sdkmath.ZeroInt()
	}
	return out
}

// IsAllZero reports whether every amount is zero.
func IsAllZero(values []sdkmath.Int) bool {
	for _, v := range values {
		if !v.IsNil() && !v.IsZero() {
			return false
		}
	}
	return true
}

// EqualAmounts reports whether two vectors hold the same amounts.
func EqualAmounts(a, b []sdkmath.Int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
