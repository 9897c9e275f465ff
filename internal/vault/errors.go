package vault

import (
	errorsmod "cosmossdk.io/errors"
)

const codespace = "vault"

// Authorization
var (
	ErrCallerIsNotOwner           = errorsmod.Register(codespace, 2, "caller is not owner")
	ErrCallerIsNotManager         = errorsmod.Register(codespace, 3, "caller is not manager")
	ErrCallerIsNotOwnerOrManager  = errorsmod.Register(codespace, 4, "caller is not owner or manager")
	ErrCallerIsNotPendingOwner    = errorsmod.Register(codespace, 5, "caller is not pending owner")
	ErrNoPendingOwnershipTransfer = errorsmod.Register(codespace, 6, "no pending ownership transfer")
	ErrOwnerIsZeroAddress         = errorsmod.Register(codespace, 7, "owner is zero address")
	ErrManagerIsZeroAddress       = errorsmod.Register(codespace, 8, "manager is zero address")
	ErrManagerIsOwner             = errorsmod.Register(codespace, 9, "manager is owner")
)

// Lifecycle
var (
	ErrVaultNotInitialized       = errorsmod.Register(codespace, 20, "vault is not initialized")
	ErrVaultIsAlreadyInitialized = errorsmod.Register(codespace, 21, "vault is already initialized")
	ErrVaultIsFinalizing         = errorsmod.Register(codespace, 22, "vault is finalizing")
	ErrVaultIsFinalized          = errorsmod.Register(codespace, 23, "vault is finalized")
	ErrNoticeTimeoutNotElapsed   = errorsmod.Register(codespace, 24, "notice timeout not elapsed")
	ErrFinalizationNotInitiated  = errorsmod.Register(codespace, 25, "finalization not initiated")
)

// Holdings and trading
var (
	ErrAmountExceedAvailable             = errorsmod.Register(codespace, 40, "amount exceeds available")
	ErrAmountIsZero                      = errorsmod.Register(codespace, 41, "amount is zero")
	ErrSwapFeeIsBelowMin                 = errorsmod.Register(codespace, 42, "swap fee is below min")
	ErrSwapFeeIsAboveMax                 = errorsmod.Register(codespace, 43, "swap fee is above max")
	ErrSwapFeePercentageChangeIsAboveMax = errorsmod.Register(codespace, 44, "swap fee percentage change is above max")
	ErrSwapFeeCooldownNotElapsed         = errorsmod.Register(codespace, 45, "swap fee cooldown not elapsed")
	ErrCannotSweepPoolToken              = errorsmod.Register(codespace, 46, "cannot sweep pool token")
	ErrWithdrawalEmptiesToken            = errorsmod.Register(codespace, 47, "withdrawal empties a managed token")
)

// Construction
var (
	ErrInvalidParams     = errorsmod.Register(codespace, 60, "invalid vault params")
	ErrInvalidConfig     = errorsmod.Register(codespace, 61, "invalid vault config")
	ErrEmptyBatch        = errorsmod.Register(codespace, 62, "empty batch")
	ErrUnknownCall       = errorsmod.Register(codespace, 63, "unknown call")
	ErrInvalidCallParams = errorsmod.Register(codespace, 64, "invalid call params")
)
