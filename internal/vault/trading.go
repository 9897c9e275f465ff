package vault

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/weights"
)

// EnableTradingWithWeights opens the pool to public swaps at the given weights.
type EnableTradingWithWeights struct {
	Weights []types.TokenWeight `json:"weights"`
}

func (EnableTradingWithWeights) Name() string { return "enable_trading_with_weights" }
func (EnableTradingWithWeights) role() types.Role { return types.RoleOwner }

func (c EnableTradingWithWeights) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	ws, err := types.WeightVector(v.tokens, c.Weights)
	if err != nil {
		return Result{}, err
	}
	return v.enableTrading(tx, c.Name(), ws)
}

// EnableTradingWithOraclePrice opens the pool at the weights implied by oracle prices, so
// the pool starts trading at the market price.
type EnableTradingWithOraclePrice struct{}

func (EnableTradingWithOraclePrice) Name() string { return "enable_trading_with_oracle_price" }
func (EnableTradingWithOraclePrice) role() types.Role { return types.RoleManager }

func (c EnableTradingWithOraclePrice) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	prices, err := v.guard.Prices(tx.now)
	if err != nil {
		return Result{}, err
	}
	vals, err := values(v.pool.Balances(), prices)
	if err != nil {
		return Result{}, err
	}
	ws, err := weights.FromValues(vals, v.params.MinWeight)
	if err != nil {
		return Result{}, err
	}
	return v.enableTrading(tx, c.Name(), ws)
}

// EnableTradingRiskingArbitrage opens the pool at the current weights without any oracle
// check.
type EnableTradingRiskingArbitrage struct{}

func (EnableTradingRiskingArbitrage) Name() string { return "enable_trading_risking_arbitrage" }
func (EnableTradingRiskingArbitrage) role() types.Role { return types.RoleOwner }

func (c EnableTradingRiskingArbitrage) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	ws, err := v.scheduler.CurrentWeights(tx.now)
	if err != nil {
		return Result{}, err
	}
	return v.enableTrading(tx, c.Name(), ws)
}

func (v *Vault) enableTrading(tx *batch, name string, ws []sdkmath.LegacyDec) (Result, error) {
	e := v.begin(tx)
	if err := v.install(ws, tx.now); err != nil {
		return Result{}, err
	}
	v.pool.SetPublicSwap(true)
	e.attrs["call"] = name
	v.emit(tx, types.EventEnableTrading, e)
	return Result{Call: name}, nil
}

// DisableTrading stops public swaps. It stays available while finalizing.
type DisableTrading struct{}

func (DisableTrading) Name() string { return "disable_trading" }
func (DisableTrading) role() types.Role { return types.RoleOwnerOrManager }

func (c DisableTrading) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenNotFinalized(); err != nil {
		return Result{}, err
	}
	e := v.begin(tx)
	v.pool.SetPublicSwap(false)
	v.emit(tx, types.EventDisableTrading, e)
	return Result{Call: c.Name()}, nil
}

// SetSwapFee changes the pool swap fee within the configured bounds, by at most
// MaxSwapFeeChange per call and no more often than SwapFeeCooldown.
type SetSwapFee struct {
	Fee sdkmath.LegacyDec `json:"fee"`
}

func (SetSwapFee) Name() string { return "set_swap_fee" }
func (SetSwapFee) role() types.Role { return types.RoleManager }

func (c SetSwapFee) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	p := v.params
	if c.Fee.IsNil() || c.Fee.LT(p.MinSwapFee) {
		return Result{}, errorsmod.Wrapf(ErrSwapFeeIsBelowMin, "%s < %s", c.Fee, p.MinSwapFee)
	}
	if c.Fee.GT(p.MaxSwapFee) {
		return Result{}, errorsmod.Wrapf(ErrSwapFeeIsAboveMax, "%s > %s", c.Fee, p.MaxSwapFee)
	}
	current := v.pool.SwapFee()
	if change := c.Fee.Sub(current).Abs(); change.GT(p.MaxSwapFeeChange) {
		return Result{}, errorsmod.Wrapf(ErrSwapFeePercentageChangeIsAboveMax, "%s -> %s", current, c.Fee)
	}
	if !v.lastSwapFeeChange.IsZero() {
		if next := v.lastSwapFeeChange.Add(p.SwapFeeCooldown); tx.now.Before(next) {
			return Result{}, errorsmod.Wrapf(ErrSwapFeeCooldownNotElapsed, "next change allowed after %s", next)
		}
	}

	e := v.begin(tx)
	if err := v.pool.SetSwapFee(c.Fee); err != nil {
		return Result{}, err
	}
	v.lastSwapFeeChange = tx.now
	e.attrs["previous_fee"] = current.String()
	e.attrs["fee"] = c.Fee.String()
	v.emit(tx, types.EventSetSwapFee, e)
	return Result{Call: c.Name()}, nil
}

// SetOraclesEnabled switches oracle checks on or off globally.
type SetOraclesEnabled struct {
	Enabled bool `json:"enabled"`
}

func (SetOraclesEnabled) Name() string { return "set_oracles_enabled" }
func (SetOraclesEnabled) role() types.Role { return types.RoleOwner }

func (c SetOraclesEnabled) apply(v *Vault, tx *batch) (Result, error) {
	e := v.begin(tx)
	v.guard.SetEnabled(c.Enabled)
	e.attrs["enabled"] = strconv.FormatBool(c.Enabled)
	v.emit(tx, types.EventSetOraclesEnabled, e)
	return Result{Call: c.Name()}, nil
}
