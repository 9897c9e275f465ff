package vault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/basketvault/internal/types"
)

// authorize checks that caller holds role.
func (v *Vault) authorize(caller string, role types.Role) error {
	switch role {
	case types.RoleAnyone:
		return nil
	case types.RoleOwner:
		if caller != v.owner {
			return errorsmod.Wrapf(ErrCallerIsNotOwner, "caller %s", caller)
		}
	case types.RoleManager:
		if caller != v.manager {
			return errorsmod.Wrapf(ErrCallerIsNotManager, "caller %s", caller)
		}
	case types.RoleOwnerOrManager:
		if caller != v.owner && caller != v.manager {
			return errorsmod.Wrapf(ErrCallerIsNotOwnerOrManager, "caller %s", caller)
		}
	case types.RolePendingOwner:
		if v.pendingOwner == "" {
			return ErrNoPendingOwnershipTransfer
		}
		if caller != v.pendingOwner {
			return errorsmod.Wrapf(ErrCallerIsNotPendingOwner, "caller %s", caller)
		}
	default:
		return errorsmod.Wrapf(ErrUnknownCall, "unknown role %s", role)
	}
	return nil
}

// SetManager replaces the manager. Fees are checkpointed for the outgoing manager first.
type SetManager struct {
	Manager string `json:"manager"`
}

func (SetManager) Name() string { return "set_manager" }
func (SetManager) role() types.Role { return types.RoleOwner }

func (c SetManager) apply(v *Vault, tx *batch) (Result, error) {
	if c.Manager == "" {
		return Result{}, ErrManagerIsZeroAddress
	}
	if c.Manager == v.owner {
		return Result{}, errorsmod.Wrapf(ErrManagerIsOwner, "address %s", c.Manager)
	}
	if v.whenNotFinalized() == nil {
		if err := v.syncWeights(tx.now); err != nil {
			return Result{}, err
		}
		if err := v.distributeFees(tx, false); err != nil {
			return Result{}, err
		}
	}

	e := v.begin(tx)
	e.attrs["previous_manager"] = v.manager
	e.attrs["manager"] = c.Manager
	v.manager = c.Manager
	v.emit(tx, types.EventSetManager, e)

	v.logger.Info().Str("manager", c.Manager).Msg("Manager replaced")
	return Result{Call: c.Name()}, nil
}

// TransferOwnership offers ownership to a new address, which must accept it.
type TransferOwnership struct {
	NewOwner string `json:"new_owner"`
}

func (TransferOwnership) Name() string { return "transfer_ownership" }
func (TransferOwnership) role() types.Role { return types.RoleOwner }

func (c TransferOwnership) apply(v *Vault, tx *batch) (Result, error) {
	if c.NewOwner == "" {
		return Result{}, ErrOwnerIsZeroAddress
	}
	if c.NewOwner == v.manager {
		return Result{}, errorsmod.Wrapf(ErrManagerIsOwner, "address %s", c.NewOwner)
	}
	e := v.begin(tx)
	e.attrs["pending_owner"] = c.NewOwner
	v.pendingOwner = c.NewOwner
	v.emit(tx, types.EventOwnershipTransferOffered, e)
	return Result{Call: c.Name()}, nil
}

// AcceptOwnership completes a pending ownership transfer.
type AcceptOwnership struct{}

func (AcceptOwnership) Name() string { return "accept_ownership" }
func (AcceptOwnership) role() types.Role { return types.RolePendingOwner }

func (c AcceptOwnership) apply(v *Vault, tx *batch) (Result, error) {
	if v.pendingOwner == v.manager {
		return Result{}, errorsmod.Wrapf(ErrManagerIsOwner, "address %s", v.pendingOwner)
	}
	e := v.begin(tx)
	e.attrs["previous_owner"] = v.owner
	e.attrs["owner"] = v.pendingOwner
	v.owner = v.pendingOwner
	v.pendingOwner = ""
	v.emit(tx, types.EventOwnershipTransferred, e)

	v.logger.Info().Str("owner", v.owner).Msg("Ownership transferred")
	return Result{Call: c.Name()}, nil
}

// CancelOwnershipTransfer withdraws a pending ownership offer.
type CancelOwnershipTransfer struct{}

func (CancelOwnershipTransfer) Name() string { return "cancel_ownership_transfer" }
func (CancelOwnershipTransfer) role() types.Role { return types.RoleOwner }

func (c CancelOwnershipTransfer) apply(v *Vault, tx *batch) (Result, error) {
	if v.pendingOwner == "" {
		return Result{}, ErrNoPendingOwnershipTransfer
	}
	e := v.begin(tx)
	e.attrs["pending_owner"] = v.pendingOwner
	v.pendingOwner = ""
	v.emit(tx, types.EventOwnershipTransferCanceled, e)
	return Result{Call: c.Name()}, nil
}

// Sweep sends a token the vault does not manage from the vault account to the owner.
type Sweep struct {
	Denom  string      `json:"denom"`
	Amount sdkmath.Int `json:"amount"`
}

func (Sweep) Name() string { return "sweep" }
func (Sweep) role() types.Role { return types.RoleOwner }

func (c Sweep) apply(v *Vault, tx *batch) (Result, error) {
	for _, denom := range v.tokens {
		if denom == c.Denom {
			return Result{}, errorsmod.Wrapf(ErrCannotSweepPoolToken, "denom %s", c.Denom)
		}
	}
	if err := sdk.ValidateDenom(c.Denom); err != nil {
		return Result{}, errorsmod.Wrapf(ErrInvalidConfig, "denom %q: %v", c.Denom, err)
	}
	if c.Amount.IsNil() || !c.Amount.IsPositive() {
		return Result{}, errorsmod.Wrapf(ErrAmountIsZero, "denom %s", c.Denom)
	}

	coins := sdk.NewCoins(sdk.NewCoin(c.Denom, c.Amount))
	e := v.begin(tx)
	if err := v.ledger.Transfer(v.address, v.owner, coins); err != nil {
		return Result{}, err
	}
	e.transfers = coins
	v.emit(tx, types.EventSweep, e)
	return Result{Call: c.Name()}, nil
}

// ClaimManagerFees pays out the fees the caller earned as manager. A former manager
// can still claim what it earned while in office.
type ClaimManagerFees struct{}

func (ClaimManagerFees) Name() string { return "claim_manager_fees" }
func (ClaimManagerFees) role() types.Role { return types.RoleAnyone }

func (c ClaimManagerFees) apply(v *Vault, tx *batch) (Result, error) {
	if v.whenNotFinalized() == nil && tx.caller == v.manager {
		if err := v.syncWeights(tx.now); err != nil {
			return Result{}, err
		}
		if err := v.distributeFees(tx, false); err != nil {
			return Result{}, err
		}
	}

	e := v.begin(tx)
	owed, err := v.fees.Claim(tx.caller)
	if err != nil {
		return Result{}, err
	}
	coins := types.Coins(v.tokens, owed)
	if err := v.ledger.Transfer(v.address, tx.caller, coins); err != nil {
		return Result{}, err
	}
	e.transfers = coins
	v.emit(tx, types.EventClaimManagerFees, e)
	return Result{Call: c.Name(), Amounts: types.Amounts(v.tokens, owed)}, nil
}
