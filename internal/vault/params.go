package vault

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fees"
	"github.com/elys-network/basketvault/internal/weights"
)

// Params are the immutable economic parameters of a vault.
// Values are expressed in numeraire base units where they measure value.
type Params struct {
	NumeraireIndex int

	ManagementFee  sdkmath.LegacyDec
	MinFeeDuration time.Duration
	NoticePeriod   time.Duration

	MinWeightChangeDuration time.Duration
	MaxWeightChangeRatio    sdkmath.LegacyDec
	MinWeight               sdkmath.LegacyDec

	MinSignificantDepositValue sdkmath.LegacyDec
	MinReliableVaultValue      sdkmath.LegacyDec

	MinSwapFee       sdkmath.LegacyDec
	MaxSwapFee       sdkmath.LegacyDec
	MaxSwapFeeChange sdkmath.LegacyDec
	SwapFeeCooldown  time.Duration
}

// Validate checks the parameters for a vault managing n tokens.
func (p Params) Validate(n int) error {
	if p.NumeraireIndex < 0 || p.NumeraireIndex >= n {
		return errorsmod.Wrapf(ErrInvalidParams, "numeraire index %d out of range for %d tokens", p.NumeraireIndex, n)
	}
	if err := p.feeParams().Validate(); err != nil {
		return err
	}
	if p.NoticePeriod < 0 {
		return errorsmod.Wrap(ErrInvalidParams, "notice period must not be negative")
	}
	if err := p.schedulerParams().Validate(); err != nil {
		return err
	}
	if p.MinWeight.MulInt64(int64(n)).GT(sdkmath.LegacyOneDec()) {
		return errorsmod.Wrapf(ErrInvalidParams, "min weight %s cannot hold for %d tokens", p.MinWeight, n)
	}
	for name, d := range map[string]sdkmath.LegacyDec{
		"min significant deposit value": p.MinSignificantDepositValue,
		"min reliable vault value":      p.MinReliableVaultValue,
		"max swap fee change":           p.MaxSwapFeeChange,
	} {
		if d.IsNil() || d.IsNegative() {
			return errorsmod.Wrapf(ErrInvalidParams, "%s must not be negative", name)
		}
	}
	if p.MinSwapFee.IsNil() || p.MaxSwapFee.IsNil() || !p.MinSwapFee.IsPositive() || p.MinSwapFee.GT(p.MaxSwapFee) {
		return errorsmod.Wrap(ErrInvalidParams, "swap fee bounds must satisfy 0 < min <= max")
	}
	if p.MaxSwapFee.GTE(sdkmath.LegacyOneDec()) {
		return errorsmod.Wrap(ErrInvalidParams, "max swap fee must be below one")
	}
	if p.SwapFeeCooldown < 0 {
		return errorsmod.Wrap(ErrInvalidParams, "swap fee cooldown must not be negative")
	}
	return nil
}

func (p Params) feeParams() fees.Params {
	return fees.Params{
		ManagementFee:  p.ManagementFee,
		MinFeeDuration: p.MinFeeDuration,
	}
}

func (p Params) schedulerParams() weights.Params {
	return weights.Params{
		MinDuration:    p.MinWeightChangeDuration,
		MaxChangeRatio: p.MaxWeightChangeRatio,
		MinWeight:      p.MinWeight,
	}
}
