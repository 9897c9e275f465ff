/*

Management fee accrual.

Fees accrue per second on every holding and are realised at checkpoints. A checkpoint
prices the time elapsed since the previous one, credits the result to the manager in
office and hands the fee vector back so the caller can move the tokens out of the pool.
Each manager identity keeps its own balance, so a replaced manager can still claim what
it earned while in office.

*/

package fees

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fixed"
	"github.com/elys-network/basketvault/internal/types"
)

const codespace = "fees"

var (
	ErrNoAvailableFeeForCaller = errorsmod.Register(codespace, 2, "no available fee for caller")
	ErrManagementFeeIsAboveMax = errorsmod.Register(codespace, 3, "management fee is above max")
	ErrInvalidFeeParams        = errorsmod.Register(codespace, 4, "invalid fee params")
	ErrHoldingsLength          = errorsmod.Register(codespace, 5, "holdings length does not match token count")
)

// MaxManagementFee is the highest fee per second a vault may charge, 1e-9.
var MaxManagementFee = sdkmath.LegacyNewDecWithPrec(1, 9)

// Params configures the accrual.
type Params struct {
	// ManagementFee is the fraction of each holding charged per second.
	ManagementFee sdkmath.LegacyDec
	// MinFeeDuration is billed up front on the final checkpoint when the vault is
	// closed before it has run that long.
	MinFeeDuration time.Duration
}

// Validate checks the fee bounds.
func (p Params) Validate() error {
	if p.ManagementFee.IsNil() || p.ManagementFee.IsNegative() {
		return errorsmod.Wrap(ErrInvalidFeeParams, "management fee must not be negative")
	}
	if p.ManagementFee.GT(MaxManagementFee) {
		return errorsmod.Wrapf(ErrManagementFeeIsAboveMax, "%s > %s", p.ManagementFee, MaxManagementFee)
	}
	if p.MinFeeDuration < 0 {
		return errorsmod.Wrap(ErrInvalidFeeParams, "min fee duration must not be negative")
	}
	return nil
}

// Accrual is the fee ledger of one vault.
type Accrual struct {
	params Params
	n      int
	state  types.FeeState
}

// NewAccrual returns an accrual for n tokens. It starts charging after Start.
func NewAccrual(params Params, n int) (*Accrual, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	a := &Accrual{params: params, n: n}
	a.state = types.FeeState{
		ManagerFeeTotal: types.ZeroAmounts(n),
		FeePerManager:   map[string][]sdkmath.Int{},
	}
	return a, nil
}

// Params returns the fee configuration.
func (a *Accrual) Params() Params { return a.params }

// Start records the creation time and opens the first accrual period.
func (a *Accrual) Start(now time.Time) {
	a.state.CreatedAt = now
	a.state.LastCheckpoint = now
}

// Started reports whether Start has been called.
func (a *Accrual) Started() bool { return !a.state.CreatedAt.IsZero() }

// FeeIndex returns the number of seconds a checkpoint at now bills.
func (a *Accrual) FeeIndex(now time.Time, final bool) int64 {
	index := seconds(now.Sub(a.state.LastCheckpoint))
	if final {
		index += seconds(a.state.CreatedAt.Add(a.params.MinFeeDuration).Sub(now))
	}
	return index
}

// Checkpoint prices the holdings for the time since the previous checkpoint, credits the
// fee to manager and returns it. final adds the unserved part of MinFeeDuration.
// Each fee is rounded down and never exceeds its holding.
func (a *Accrual) Checkpoint(holdings []sdkmath.Int, manager string, now time.Time, final bool) ([]sdkmath.Int, error) {
	if len(holdings) != a.n {
		return nil, errorsmod.Wrapf(ErrHoldingsLength, "got %d, want %d", len(holdings), a.n)
	}
	fee := types.ZeroAmounts(a.n)
	if !a.Started() {
		return fee, nil
	}

	index := a.FeeIndex(now, final)
	if index > 0 && a.params.ManagementFee.IsPositive() {
		rate, err := fixed.Mul(a.params.ManagementFee, sdkmath.LegacyNewDec(index))
		if err != nil {
			return nil, err
		}
		for i, h := range holdings {
			f, err := fixed.MulInt(h, rate)
			if err != nil {
				return nil, err
			}
			fee[i] = fixed.MinInt(f, h)
		}
	}

	if !types.IsAllZero(fee) {
		owed := a.state.FeePerManager[manager]
		if owed == nil {
			owed = types.ZeroAmounts(a.n)
		}
		for i := range fee {
			var err error
			if owed[i], err = fixed.AddAmount(owed[i], fee[i]); err != nil {
				return nil, err
			}
			if a.state.ManagerFeeTotal[i], err = fixed.AddAmount(a.state.ManagerFeeTotal[i], fee[i]); err != nil {
				return nil, err
			}
		}
		a.state.FeePerManager[manager] = owed
	}
	if now.After(a.state.LastCheckpoint) {
		a.state.LastCheckpoint = now
	}
	return fee, nil
}

// Owed returns what caller can claim.
func (a *Accrual) Owed(caller string) []sdkmath.Int {
	owed, ok := a.state.FeePerManager[caller]
	if !ok {
		return types.ZeroAmounts(a.n)
	}
	return append([]sdkmath.Int(nil), owed...)
}

// Claim zeroes caller's entry and returns what it held.
func (a *Accrual) Claim(caller string) ([]sdkmath.Int, error) {
	owed, ok := a.state.FeePerManager[caller]
	if !ok || types.IsAllZero(owed) {
		return nil, errorsmod.Wrapf(ErrNoAvailableFeeForCaller, "caller %s", caller)
	}
	for i := range owed {
		total, err := fixed.SubAmount(a.state.ManagerFeeTotal[i], owed[i])
		if err != nil {
			return nil, err
		}
		a.state.ManagerFeeTotal[i] = total
	}
	delete(a.state.FeePerManager, caller)
	return owed, nil
}

// State returns a deep copy of the bookkeeping.
func (a *Accrual) State() types.FeeState { return a.state.Clone() }

// Restore replaces the bookkeeping.
func (a *Accrual) Restore(s types.FeeState) {
	a.state = s.Clone()
	if len(a.state.ManagerFeeTotal) == 0 {
		a.state.ManagerFeeTotal = types.ZeroAmounts(a.n)
	}
}

func seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
