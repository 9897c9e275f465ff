package vault

import (
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/weights"
)

// whenActive gates every holdings mutating and configuration call.
func (v *Vault) whenActive() error {
	switch v.phase {
	case types.PhaseActive:
		return nil
	case types.PhaseUninitialized:
		return ErrVaultNotInitialized
	case types.PhaseFinalizing:
		return ErrVaultIsFinalizing
	default:
		return ErrVaultIsFinalized
	}
}

// whenNotFinalized allows Active and Finalizing.
func (v *Vault) whenNotFinalized() error {
	switch v.phase {
	case types.PhaseActive, types.PhaseFinalizing:
		return nil
	case types.PhaseUninitialized:
		return ErrVaultNotInitialized
	default:
		return ErrVaultIsFinalized
	}
}

// InitialDeposit seeds the pool with the first holdings and weights and activates the
// vault. It is the only call legal before initialization and can run once.
type InitialDeposit struct {
	Amounts []types.TokenAmount `json:"amounts"`
	Weights []types.TokenWeight `json:"weights"`
}

func (InitialDeposit) Name() string { return "initial_deposit" }
func (InitialDeposit) role() types.Role { return types.RoleOwner }

func (c InitialDeposit) apply(v *Vault, tx *batch) (Result, error) {
	if v.phase != types.PhaseUninitialized {
		return Result{}, ErrVaultIsAlreadyInitialized
	}
	amounts, err := types.AmountVector(v.tokens, c.Amounts)
	if err != nil {
		return Result{}, err
	}
	for i, amount := range amounts {
		if !amount.IsPositive() {
			return Result{}, errorsmod.Wrapf(ErrAmountIsZero, "token %d (%s)", i, v.tokens[i])
		}
	}
	ws, err := types.WeightVector(v.tokens, c.Weights)
	if err != nil {
		return Result{}, err
	}
	if err := weights.CheckSum(ws); err != nil {
		return Result{}, err
	}
	if err := weights.CheckMinimum(ws, v.params.MinWeight); err != nil {
		return Result{}, err
	}

	e := v.begin(tx)
	if err := v.pool.SetWeights(ws); err != nil {
		return Result{}, err
	}
	coins := types.Coins(v.tokens, amounts)
	if err := v.ledger.Transfer(v.owner, v.pool.Address(), coins); err != nil {
		return Result{}, err
	}
	if err := v.pool.JoinPool(amounts); err != nil {
		return Result{}, err
	}
	if v.guard.Enabled() {
		if _, err := v.validatedPrices(tx.now); err != nil {
			return Result{}, err
		}
	}
	if err := v.scheduler.SetImmediate(ws, tx.now); err != nil {
		return Result{}, err
	}
	v.fees.Start(tx.now)
	v.phase = types.PhaseActive

	e.transfers = coins
	v.emit(tx, types.EventInitialDeposit, e)

	v.logger.Info().
		Str("batch_id", tx.id.String()).
		Str("holdings", coins.String()).
		Msg("Vault initialized")
	return Result{Call: c.Name(), Amounts: types.Amounts(v.tokens, amounts)}, nil
}

// InitiateFinalization starts the notice period after which Finalize may run.
type InitiateFinalization struct{}

func (InitiateFinalization) Name() string { return "initiate_finalization" }
func (InitiateFinalization) role() types.Role { return types.RoleOwner }

func (c InitiateFinalization) apply(v *Vault, tx *batch) (Result, error) {
	if err := v.whenActive(); err != nil {
		return Result{}, err
	}
	if err := v.syncWeights(tx.now); err != nil {
		return Result{}, err
	}
	if err := v.distributeFees(tx, false); err != nil {
		return Result{}, err
	}

	e := v.begin(tx)
	v.noticeTimeoutAt = tx.now.Add(v.params.NoticePeriod)
	v.phase = types.PhaseFinalizing
	e.attrs["notice_timeout_at"] = v.noticeTimeoutAt.Format(time.RFC3339)
	v.emit(tx, types.EventInitiateFinalization, e)
	return Result{Call: c.Name()}, nil
}

// Finalize returns every holding to the owner and closes the vault for good. Without a
// notice period it runs straight from Active, otherwise only after the notice elapsed.
// The final fee checkpoint bills whatever part of the minimum fee duration is unserved.
type Finalize struct{}

func (Finalize) Name() string { return "finalize" }
func (Finalize) role() types.Role { return types.RoleOwner }

func (c Finalize) apply(v *Vault, tx *batch) (Result, error) {
	switch v.phase {
	case types.PhaseUninitialized:
		return Result{}, ErrVaultNotInitialized
	case types.PhaseFinalized:
		return Result{}, ErrVaultIsFinalized
	case types.PhaseActive:
		if v.params.NoticePeriod > 0 {
			return Result{}, errorsmod.Wrapf(ErrFinalizationNotInitiated, "notice period is %s", v.params.NoticePeriod)
		}
	case types.PhaseFinalizing:
		if tx.now.Before(v.noticeTimeoutAt) {
			return Result{}, errorsmod.Wrapf(ErrNoticeTimeoutNotElapsed, "now %s, timeout %s",
				tx.now.Format(time.RFC3339), v.noticeTimeoutAt.Format(time.RFC3339))
		}
	}

	if err := v.syncWeights(tx.now); err != nil {
		return Result{}, err
	}
	if err := v.distributeFees(tx, true); err != nil {
		return Result{}, err
	}

	e := v.begin(tx)
	holdings := v.pool.Balances()
	if err := v.pool.ExitPool(holdings); err != nil {
		return Result{}, err
	}
	coins := types.Coins(v.tokens, holdings)
	if !coins.IsZero() {
		if err := v.ledger.Transfer(v.pool.Address(), v.owner, coins); err != nil {
			return Result{}, err
		}
	}
	v.pool.SetPublicSwap(false)
	v.scheduler.Reset()
	v.phase = types.PhaseFinalized

	e.transfers = coins
	v.emit(tx, types.EventFinalize, e)

	v.logger.Info().
		Str("batch_id", tx.id.String()).
		Str("returned", coins.String()).
		Msg("Vault finalized")
	return Result{Call: c.Name(), Amounts: types.Amounts(v.tokens, holdings)}, nil
}
