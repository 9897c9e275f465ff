package weights

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fixed"
)

// SumTolerance is how far from ONE a weight vector of n entries may sum.
func SumTolerance(n int) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecWithPrec(int64(n), 15)
}

// CheckSum fails unless the weights sum to ONE within SumTolerance.
func CheckSum(ws []sdkmath.LegacyDec) error {
	sum, err := fixed.Sum(ws)
	if err != nil {
		return err
	}
	if !fixed.ApproxEqual(sum, fixed.One(), SumTolerance(len(ws))) {
		return errorsmod.Wrapf(ErrSumOfWeightIsNotOne, "sum is %s", sum)
	}
	return nil
}

// CheckMinimum fails on the first weight below minWeight.
func CheckMinimum(ws []sdkmath.LegacyDec, minWeight sdkmath.LegacyDec) error {
	for i, w := range ws {
		if w.LT(minWeight) {
			return errorsmod.Wrapf(ErrWeightBelowMin, "token %d: %s < %s", i, w, minWeight)
		}
	}
	return nil
}

// ProRata scales each weight by newHolding/oldHolding. A weight whose old holding
// is zero is kept as is. The result is not normalized.
func ProRata(ws []sdkmath.LegacyDec, before, after []sdkmath.Int) ([]sdkmath.LegacyDec, error) {
	out := make([]sdkmath.LegacyDec, len(ws))
	for i := range ws {
		if before[i].IsZero() {
			out[i] = ws[i]
			continue
		}
		ratio, err := fixed.Ratio(after[i], before[i])
		if err != nil {
			return nil, err
		}
		if out[i], err = fixed.Mul(ws[i], ratio); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Normalize rescales ws to sum to exactly ONE and lifts every weight to at least minWeight.
// Rounding dust and the lift are both charged to the largest weight.
func Normalize(ws []sdkmath.LegacyDec, minWeight sdkmath.LegacyDec) ([]sdkmath.LegacyDec, error) {
	if len(ws) == 0 {
		return nil, ErrNoWeights
	}
	sum, err := fixed.Sum(ws)
	if err != nil {
		return nil, err
	}
	if !sum.IsPositive() {
		return nil, errorsmod.Wrapf(ErrSumOfWeightIsNotOne, "sum is %s", sum)
	}

	out := make([]sdkmath.LegacyDec, len(ws))
	total := fixed.Zero()
	for i, w := range ws {
		if out[i], err = fixed.Quo(w, sum); err != nil {
			return nil, err
		}
		total = total.Add(out[i])
	}
	largest := argmax(out)
	out[largest] = out[largest].Add(fixed.One().Sub(total))

	deficit := fixed.Zero()
	for i := range out {
		if out[i].LT(minWeight) {
			deficit = deficit.Add(minWeight.Sub(out[i]))
			out[i] = minWeight
		}
	}
	if deficit.IsPositive() {
		lifted := out[largest].Sub(deficit)
		if lifted.LT(minWeight) {
			return nil, errorsmod.Wrapf(ErrWeightBelowMin, "cannot lift weights to %s", minWeight)
		}
		out[largest] = lifted
	}
	return out, nil
}

// FromValues turns per-token values into weights proportional to them.
func FromValues(values []sdkmath.LegacyDec, minWeight sdkmath.LegacyDec) ([]sdkmath.LegacyDec, error) {
	for i, v := range values {
		if v.IsNegative() {
			return nil, errorsmod.Wrapf(fixed.ErrAmountUnderflow, "value %d is %s", i, v)
		}
	}
	return Normalize(values, minWeight)
}

func argmax(ws []sdkmath.LegacyDec) int {
	idx := 0
	for i := range ws {
		if ws[i].GT(ws[idx]) {
			idx = i
		}
	}
	return idx
}
