/*

Fixed point helpers on top of cosmossdk.io/math.

Ratios are LegacyDec values (an integer scaled by 10^18), token amounts are Int values.
Every multiply and divide rounds down. Any overflow or division by zero surfaces as a
registered error instead of a panic so callers can revert cleanly.

*/

package fixed

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

const (
	// Precision is the number of decimals carried by every ratio.
	Precision = sdkmath.LegacyPrecision

	codespace = "fixed"
)

var (
	ErrArithmeticOverflow = errorsmod.Register(codespace, 2, "arithmetic overflow")
	ErrDivisionByZero     = errorsmod.Register(codespace, 3, "division by zero")
	ErrAmountUnderflow    = errorsmod.Register(codespace, 4, "amount underflow")
	ErrInvalidDecimals    = errorsmod.Register(codespace, 5, "invalid decimals")
)

// One returns 1.0.
func One() sdkmath.LegacyDec { return sdkmath.LegacyOneDec() }

// Zero returns 0.0.
func Zero() sdkmath.LegacyDec { return sdkmath.LegacyZeroDec() }

// guard runs fn and turns a math panic into ErrArithmeticOverflow.
func guard[T any](op string, fn func() T) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = zero
			err = errorsmod.Wrapf(ErrArithmeticOverflow, "%s: %v", op, r)
		}
	}()
	return fn(), nil
}

// Add returns a + b.
func Add(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return guard("add", func() sdkmath.LegacyDec { return a.Add(b) })
}

// Sub returns a - b. The result may be negative.
func Sub(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return guard("sub", func() sdkmath.LegacyDec { return a.Sub(b) })
}

// Mul returns a * b rounded down.
func Mul(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return guard("mul", func() sdkmath.LegacyDec { return a.MulTruncate(b) })
}

// Quo returns a / b rounded down.
func Quo(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if b.IsZero() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrDivisionByZero, "%s / 0", a)
	}
	return guard("quo", func() sdkmath.LegacyDec { return a.QuoTruncate(b) })
}

// MulInt scales an amount by a ratio and rounds down to whole units.
func MulInt(amount sdkmath.Int, ratio sdkmath.LegacyDec) (sdkmath.Int, error) {
	res, err := guard("mul_int", func() sdkmath.Int {
		return sdkmath.LegacyNewDecFromInt(amount).MulTruncate(ratio).TruncateInt()
	})
	if err != nil {
		return sdkmath.Int{}, err
	}
	if res.IsNegative() {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrAmountUnderflow, "%s * %s", amount, ratio)
	}
	return res, nil
}

// Ratio returns num / den as a ratio rounded down.
func Ratio(num, den sdkmath.Int) (sdkmath.LegacyDec, error) {
	if den.IsZero() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrDivisionByZero, "%s / 0", num)
	}
	return guard("ratio", func() sdkmath.LegacyDec {
		return sdkmath.LegacyNewDecFromInt(num).QuoTruncate(sdkmath.LegacyNewDecFromInt(den))
	})
}

// AddAmount returns a + b.
func AddAmount(a, b sdkmath.Int) (sdkmath.Int, error) {
	return guard("add_amount", func() sdkmath.Int { return a.Add(b) })
}

// SubAmount returns a - b and fails when the result would be negative.
func SubAmount(a, b sdkmath.Int) (sdkmath.Int, error) {
	if b.GT(a) {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrAmountUnderflow, "%s - %s", a, b)
	}
	return a.Sub(b), nil
}

// Sum adds every ratio in ds.
func Sum(ds []sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return guard("sum", func() sdkmath.LegacyDec {
		total := sdkmath.LegacyZeroDec()
		for _, d := range ds {
			total = total.Add(d)
		}
		return total
	})
}

// Lerp interpolates from a to b at position num/den, rounding toward a.
func Lerp(a, b sdkmath.LegacyDec, num, den int64) (sdkmath.LegacyDec, error) {
	if den == 0 {
		return sdkmath.LegacyDec{}, errorsmod.Wrap(ErrDivisionByZero, "lerp over an empty interval")
	}
	return guard("lerp", func() sdkmath.LegacyDec {
		return a.Add(b.Sub(a).MulInt64(num).QuoInt64(den))
	})
}

// Rescale converts an integer answer carrying the given number of decimals into a ratio.
func Rescale(answer sdkmath.Int, decimals uint8) (sdkmath.LegacyDec, error) {
	if decimals > Precision {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrInvalidDecimals, "%d exceeds %d", decimals, Precision)
	}
	return guard("rescale", func() sdkmath.LegacyDec {
		return sdkmath.LegacyNewDecFromBigIntWithPrec(answer.BigInt(), int64(decimals))
	})
}

// ApproxEqual reports whether |a - b| <= tolerance.
func ApproxEqual(a, b, tolerance sdkmath.LegacyDec) bool {
	return a.Sub(b).Abs().LTE(tolerance)
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b sdkmath.Int) sdkmath.Int {
	if a.GT(b) {
		return a
	}
	return b
}

// MinInt returns the smaller of a and b.
func MinInt(a, b sdkmath.Int) sdkmath.Int {
	if a.LT(b) {
		return a
	}
	return b
}

// Tolerance is the rounding slack allowed on a sum of n rounded-down ratios.
func Tolerance(n int) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecWithPrec(int64(n), Precision)
}

// String renders a vector of ratios for logs and error messages.
func String(ds []sdkmath.LegacyDec) string {
	return fmt.Sprint(ds)
}
