/*
Conversions between the fixed point amounts the vault stores and the float64 values
the pool uses for fractional powers.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// IntToFloat64 converts a non-negative base unit amount to float64.
func IntToFloat64(amount sdkmath.Int) (float64, error) {
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}
	return DecToFloat64(sdkmath.LegacyNewDecFromInt(amount))
}

// DecToFloat64 converts a non-negative decimal to float64.
func DecToFloat64(d sdkmath.LegacyDec) (float64, error) {
	if d.IsNil() {
		return 0, ErrAmountNil
	}
	if d.IsNegative() {
		return 0, ErrAmountNegative
	}
	f, err := d.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", ErrNotFinite, d)
	}
	return f, nil
}

// FloorToInt rounds a non-negative float64 down to a base unit amount.
func FloorToInt(amount float64) (sdkmath.Int, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if amount < 1 {
		return sdkmath.ZeroInt(), nil
	}

	// go through the decimal string so large values keep every integer digit
	dec, err := sdkmath.LegacyNewDecFromStr(fmt.Sprintf("%.0f", math.Floor(amount)))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return dec.TruncateInt(), nil
}
