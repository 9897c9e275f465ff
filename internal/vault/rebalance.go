/*

Rebalance engine.

Deposits and withdrawals move holdings and re-derive the weights from them. Every
holdings mutation first syncs the pool to the scheduled weights and checkpoints the
management fee, then recomputes weights pro-rata from the new holdings and installs them
immediately, which ends any gradual update in flight.

The oracle deposit path additionally validates every price against the pool and, for a
significant deposit, nudges the pro-rata weights toward the weights implied by oracle
prices. The nudge of each weight is bounded by that token's max spot divergence.

*/

package vault

import (
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/basketvault/internal/fixed"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/weights"
)

// Deposit adds tokens from the owner after validating oracle prices against the pool.
type Deposit struct {
	Amounts []types.TokenAmount `json:"amounts"`
}

func (Deposit) Name() string { return "deposit" }
func (Deposit) role() types.Role { return types.RoleOwner }

func (c Deposit) apply(v *Vault, tx *batch) (Result, error) {
	return v.deposit(tx, c.Name(), c.Amounts, true)
}

// DepositRiskingArbitrage adds tokens without reading any oracle. Weights move purely
// pro-rata, so a stale pool price can be arbitraged against the deposit.
type DepositRiskingArbitrage struct {
	Amounts []types.TokenAmount `json:"amounts"`
}

func (DepositRiskingArbitrage) Name() string { return "deposit_risking_arbitrage" }
func (DepositRiskingArbitrage) role() types.Role { return types.RoleOwner }

func (c DepositRiskingArbitrage) apply(v *Vault, tx *batch) (Result, error) {
	return v.deposit(tx, c.Name(), c.Amounts, false)
}

// DepositIfBalanceUnchanged is Deposit guarded by the holdings the caller last observed.
// When the holdings moved it does nothing and reports a no-op.
type DepositIfBalanceUnchanged struct {
	Amounts  []types.TokenAmount `json:"amounts"`
	Expected []types.TokenAmount `json:"expected"`
}

func (DepositIfBalanceUnchanged) Name() string { return "deposit_if_balance_unchanged" }
func (DepositIfBalanceUnchanged) role() types.Role { return types.RoleOwner }

func (c DepositIfBalanceUnchanged) apply(v *Vault, tx *batch) (Result, error) {
	if res, skip, err := v.skipIfBalanceChanged(tx, c.Name(), c.Expected); err != nil || skip {
		return res, err
	}
	return v.deposit(tx, c.Name(), c.Amounts, true)
}

// DepositRiskingArbitrageIfBalanceUnchanged is DepositRiskingArbitrage guarded by the
// holdings the caller last observed.
type DepositRiskingArbitrageIfBalanceUnchanged struct {
	Amounts  []types.TokenAmount `json:"amounts"`
	Expected []types.TokenAmount `json:"expected"`
}

func (DepositRiskingArbitrageIfBalanceUnchanged) Name() string {
	return "deposit_risking_arbitrage_if_balance_unchanged"
}
func (DepositRiskingArbitrageIfBalanceUnchanged) role() types.Role { return types.RoleOwner }

func (c DepositRiskingArbitrageIfBalanceUnchanged) apply(v *Vault, tx *batch) (Result, error) {
	if res, skip, err := v.skipIfBalanceChanged(tx, c.Name(), c.Expected); err != nil || skip {
		return res, err
	}
	return v.deposit(tx, c.Name(), c.Amounts, false)
}

// Withdraw returns tokens to the owner, bounded by the holding and the validator allowance.
type Withdraw struct {
	Amounts []types.TokenAmount `json:"amounts"`
}

func (Withdraw) Name() string { return "withdraw" }
func (Withdraw) role() types.Role { return types.RoleOwner }

func (c Withdraw) apply(v *Vault, tx *batch) (Result, error) {
	return v.withdraw(tx, c.Name(), c.Amounts)
}

// WithdrawIfBalanceUnchanged is Withdraw guarded by the holdings the caller last observed.
type WithdrawIfBalanceUnchanged struct {
	Amounts  []types.TokenAmount `json:"amounts"`
	Expected []types.TokenAmount `json:"expected"`
}

func (WithdrawIfBalanceUnchanged) Name() string { return "withdraw_if_balance_unchanged" }
func (WithdrawIfBalanceUnchanged) role() types.Role { return types.RoleOwner }

func (c WithdrawIfBalanceUnchanged) apply(v *Vault, tx *batch) (Result, error) {
	if res, skip, err := v.skipIfBalanceChanged(tx, c.Name(), c.Expected); err != nil || skip {
		return res, err
	}
	return v.withdraw(tx, c.Name(), c.Amounts)
}

// skipIfBalanceChanged compares the pool holdings with what the caller expects. On a
// mismatch it records a no-op event and tells the caller to skip.
func (v *Vault) skipIfBalanceChanged(tx *batch, name string, expected []types.TokenAmount) (Result, bool, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, false, err
	}
	want, err := types.AmountVector(v.tokens, expected)
	if err != nil {
		return Result{}, false, err
	}
	if types.EqualAmounts(want, v.pool.Balances()) {
		return Result{}, false, nil
	}

	e := v.begin(tx)
	e.attrs["call"] = name
	v.emit(tx, types.EventNoOp, e)
	v.logger.Info().
		Str("call", name).
		Str("batch_id", tx.id.String()).
		Msg("Holdings changed since they were observed, skipping")
	return Result{Call: name, NoOp: true}, true, nil
}

func (v *Vault) deposit(tx *batch, name string, tokenAmounts []types.TokenAmount, useOracle bool) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	amounts, err := types.AmountVector(v.tokens, tokenAmounts)
	if err != nil {
		return Result{}, err
	}
	if err := v.syncWeights(tx.now); err != nil {
		return Result{}, err
	}
	if err := v.distributeFees(tx, false); err != nil {
		return Result{}, err
	}

	e := v.begin(tx)
	var prices []sdkmath.LegacyDec
	if useOracle {
		if prices, err = v.validatedPrices(tx.now); err != nil {
			return Result{}, err
		}
	}

	coins := types.Coins(v.tokens, amounts)
	if !coins.IsZero() {
		if err := v.ledger.Transfer(v.owner, v.pool.Address(), coins); err != nil {
			return Result{}, err
		}
	}
	if err := v.pool.JoinPool(amounts); err != nil {
		return Result{}, err
	}

	next, err := v.recomputeWeights(e.holdings, v.pool.Balances(), e.weights, amounts, prices)
	if err != nil {
		return Result{}, err
	}
	if err := v.install(next, tx.now); err != nil {
		return Result{}, err
	}

	e.transfers = coins
	e.attrs["call"] = name
	e.attrs["oracle_checked"] = strconv.FormatBool(useOracle)
	v.emit(tx, types.EventDeposit, e)
	return Result{Call: name, Amounts: types.Amounts(v.tokens, amounts)}, nil
}

func (v *Vault) withdraw(tx *batch, name string, tokenAmounts []types.TokenAmount) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	amounts, err := types.AmountVector(v.tokens, tokenAmounts)
	if err != nil {
		return Result{}, err
	}
	if err := v.syncWeights(tx.now); err != nil {
		return Result{}, err
	}
	if err := v.distributeFees(tx, false); err != nil {
		return Result{}, err
	}

	e := v.begin(tx)
	for i, amount := range amounts {
		available := fixed.MinInt(e.holdings[i], v.validator.Allowance(i))
		if available.IsNegative() {
			available = sdkmath.ZeroInt()
		}
		if amount.GT(available) {
			return Result{}, errorsmod.Wrapf(ErrAmountExceedAvailable,
				"token %d (%s): requested %s, available %s", i, v.tokens[i], amount, available)
		}
		// the pool cannot price a token with a zero balance
		if amount.IsPositive() && amount.Equal(e.holdings[i]) {
			return Result{}, errorsmod.Wrapf(ErrWithdrawalEmptiesToken,
				"token %d (%s): requested the whole holding %s", i, v.tokens[i], amount)
		}
	}

	if err := v.pool.ExitPool(amounts); err != nil {
		return Result{}, err
	}
	coins := types.Coins(v.tokens, amounts)
	if !coins.IsZero() {
		if err := v.ledger.Transfer(v.pool.Address(), v.owner, coins); err != nil {
			return Result{}, err
		}
	}

	next, err := v.recomputeWeights(e.holdings, v.pool.Balances(), e.weights, nil, nil)
	if err != nil {
		return Result{}, err
	}
	if err := v.install(next, tx.now); err != nil {
		return Result{}, err
	}

	e.transfers = coins
	e.attrs["call"] = name
	v.emit(tx, types.EventWithdraw, e)
	return Result{Call: name, Amounts: types.Amounts(v.tokens, amounts)}, nil
}

// syncWeights pushes the scheduled weights for now into the pool.
func (v *Vault) syncWeights(now time.Time) error {
	if v.scheduler.Window().IsZero() {
		return nil
	}
	ws, err := v.scheduler.CurrentWeights(now)
	if err != nil {
		return err
	}
	return v.pool.SetWeights(ws)
}

// install makes ws the weights from now on, cancelling any gradual update.
func (v *Vault) install(ws []sdkmath.LegacyDec, now time.Time) error {
	if err := v.scheduler.SetImmediate(ws, now); err != nil {
		return err
	}
	return v.pool.SetWeights(ws)
}

// distributeFees checkpoints the management fee and parks it in the vault account.
func (v *Vault) distributeFees(tx *batch, final bool) error {
	e := v.begin(tx)
	fee, err := v.fees.Checkpoint(e.holdings, v.manager, tx.now, final)
	if err != nil {
		return err
	}
	if types.IsAllZero(fee) {
		return nil
	}
	if err := v.pool.ExitPool(fee); err != nil {
		return err
	}
	coins := types.Coins(v.tokens, fee)
	if err := v.ledger.Transfer(v.pool.Address(), v.address, coins); err != nil {
		return err
	}
	e.transfers = coins
	e.attrs["manager"] = v.manager
	e.attrs["final"] = strconv.FormatBool(final)
	v.emit(tx, types.EventDistributeManagerFees, e)
	return nil
}

// validatedPrices checks every non-numeraire oracle against the pool spot price and
// returns the prices of all tokens in numeraire units.
func (v *Vault) validatedPrices(now time.Time) ([]sdkmath.LegacyDec, error) {
	numeraire := v.params.NumeraireIndex
	prices := make([]sdkmath.LegacyDec, len(v.tokens))
	for i := range v.tokens {
		var spot sdkmath.LegacyDec
		if i == numeraire {
			spot = fixed.One()
		} else {
			var err error
			if spot, err = v.pool.SpotPrice(numeraire, i); err != nil {
				return nil, err
			}
		}
		price, err := v.guard.Validate(i, spot, now)
		if err != nil {
			return nil, err
		}
		prices[i] = price
	}
	return prices, nil
}

// recomputeWeights derives the weights after a holdings change. With prices set and a
// significant deposit, the pro-rata result is nudged toward the oracle weights.
func (v *Vault) recomputeWeights(before, after []sdkmath.Int, current []sdkmath.LegacyDec, deposit []sdkmath.Int, prices []sdkmath.LegacyDec) ([]sdkmath.LegacyDec, error) {
	scaled, err := weights.ProRata(current, before, after)
	if err != nil {
		return nil, err
	}
	prorata, err := weights.Normalize(scaled, v.params.MinWeight)
	if err != nil {
		return nil, err
	}
	if prices == nil {
		return prorata, nil
	}

	significant, err := v.isSignificant(before, after, deposit, prices)
	if err != nil || !significant {
		return prorata, err
	}
	return v.nudgeTowardOracle(prorata, after, prices)
}

// isSignificant reports whether a deposit is large enough to be priced by the oracle:
// its own value reaches MinSignificantDepositValue or it lifts the vault across
// MinReliableVaultValue.
func (v *Vault) isSignificant(before, after, deposit []sdkmath.Int, prices []sdkmath.LegacyDec) (bool, error) {
	depositValue, err := value(deposit, prices)
	if err != nil {
		return false, err
	}
	if depositValue.GTE(v.params.MinSignificantDepositValue) {
		return true, nil
	}
	valueBefore, err := value(before, prices)
	if err != nil {
		return false, err
	}
	valueAfter, err := value(after, prices)
	if err != nil {
		return false, err
	}
	return valueBefore.LT(v.params.MinReliableVaultValue) && valueAfter.GTE(v.params.MinReliableVaultValue), nil
}

func (v *Vault) nudgeTowardOracle(prorata []sdkmath.LegacyDec, holdings []sdkmath.Int, prices []sdkmath.LegacyDec) ([]sdkmath.LegacyDec, error) {
	vals, err := values(holdings, prices)
	if err != nil {
		return nil, err
	}
	target, err := weights.FromValues(vals, v.params.MinWeight)
	if err != nil {
		return nil, err
	}

	out := make([]sdkmath.LegacyDec, len(prorata))
	for i := range prorata {
		bound, err := fixed.Mul(prorata[i], v.nudgeBound(i))
		if err != nil {
			return nil, err
		}
		delta := target[i].Sub(prorata[i])
		if delta.GT(bound) {
			delta = bound
		}
		if delta.LT(bound.Neg()) {
			delta = bound.Neg()
		}
		out[i] = prorata[i].Add(delta)
	}
	return weights.Normalize(out, v.params.MinWeight)
}

// nudgeBound is the relative move allowed for token i. The numeraire has no feed of its
// own and takes the widest bound of the others.
func (v *Vault) nudgeBound(i int) sdkmath.LegacyDec {
	if i != v.params.NumeraireIndex {
		return v.guard.MaxSpotDivergence(i)
	}
	widest := fixed.Zero()
	for j := range v.tokens {
		if d := v.guard.MaxSpotDivergence(j); d.GT(widest) {
			widest = d
		}
	}
	return widest
}

func values(amounts []sdkmath.Int, prices []sdkmath.LegacyDec) ([]sdkmath.LegacyDec, error) {
	out := make([]sdkmath.LegacyDec, len(prices))
	for i := range prices {
		amount := sdkmath.ZeroInt()
		if i < len(amounts) {
			amount = amounts[i]
		}
		val, err := fixed.Mul(sdkmath.LegacyNewDecFromInt(amount), prices[i])
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func value(amounts []sdkmath.Int, prices []sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	vs, err := values(amounts, prices)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixed.Sum(vs)
}
