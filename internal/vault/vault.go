package vault

import (
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/basketvault/internal/fees"
	"github.com/elys-network/basketvault/internal/logger"
	"github.com/elys-network/basketvault/internal/oracle"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/weights"
)

// Config holds everything needed to construct a vault.
type Config struct {
	Params  Params
	Tokens  []string
	Address string
	Owner   string
	Manager string
	Oracles map[int]oracle.Config

	Pool      Pool
	Ledger    Ledger
	Validator Validator
	Clock     Clock
}

// Vault is a managed basket of tokens held in a weighted pool.
// It is not safe for concurrent use; callers serialize batches.
type Vault struct {
	logger zerolog.Logger

	params  Params
	tokens  []string
	address string

	pool      Pool
	ledger    Ledger
	validator Validator
	clock     Clock

	guard     *oracle.Guard
	scheduler *weights.Scheduler
	fees      *fees.Accrual

	phase             types.Phase
	owner             string
	pendingOwner      string
	manager           string
	noticeTimeoutAt   time.Time
	lastSwapFeeChange time.Time

	seq     uint64
	pending []types.Event
}

// NewVault validates cfg and returns an uninitialized vault.
func NewVault(cfg Config) (*Vault, error) {
	if err := validateVaultConfig(cfg); err != nil {
		return nil, err
	}

	guard, err := oracle.NewGuard(len(cfg.Tokens), cfg.Params.NumeraireIndex, cfg.Oracles)
	if err != nil {
		return nil, err
	}
	scheduler, err := weights.NewScheduler(cfg.Params.schedulerParams())
	if err != nil {
		return nil, err
	}
	accrual, err := fees.NewAccrual(cfg.Params.feeParams(), len(cfg.Tokens))
	if err != nil {
		return nil, err
	}

	v := &Vault{
		logger:    logger.GetForComponent("vault_engine"),
		params:    cfg.Params,
		tokens:    append([]string(nil), cfg.Tokens...),
		address:   cfg.Address,
		pool:      cfg.Pool,
		ledger:    cfg.Ledger,
		validator: cfg.Validator,
		clock:     cfg.Clock,
		guard:     guard,
		scheduler: scheduler,
		fees:      accrual,
		phase:     types.PhaseUninitialized,
		owner:     cfg.Owner,
		manager:   cfg.Manager,
	}

	v.logger.Info().
		Strs("tokens", v.tokens).
		Str("owner", v.owner).
		Str("manager", v.manager).
		Str("pool", v.pool.Address()).
		Msg("Vault created")

	return v, nil
}

// validateVaultConfig rejects a config the vault could not safely run with.
func validateVaultConfig(cfg Config) error {
	if len(cfg.Tokens) < 2 {
		return errorsmod.Wrapf(ErrInvalidConfig, "need at least 2 tokens, got %d", len(cfg.Tokens))
	}
	if !types.IsSortedUnique(cfg.Tokens) {
		return errorsmod.Wrapf(ErrInvalidConfig, "tokens must be sorted and unique: %v", cfg.Tokens)
	}
	for _, denom := range cfg.Tokens {
		if err := sdk.ValidateDenom(denom); err != nil {
			return errorsmod.Wrapf(ErrInvalidConfig, "token %q: %v", denom, err)
		}
	}
	if err := cfg.Params.Validate(len(cfg.Tokens)); err != nil {
		return err
	}
	if cfg.Owner == "" {
		return ErrOwnerIsZeroAddress
	}
	if cfg.Manager == "" {
		return ErrManagerIsZeroAddress
	}
	if cfg.Owner == cfg.Manager {
		return ErrManagerIsOwner
	}
	if cfg.Address == "" {
		return errorsmod.Wrap(ErrInvalidConfig, "vault address cannot be empty")
	}
	if cfg.Pool == nil {
		return errorsmod.Wrap(ErrInvalidConfig, "pool cannot be nil")
	}
	if cfg.Ledger == nil {
		return errorsmod.Wrap(ErrInvalidConfig, "ledger cannot be nil")
	}
	if cfg.Validator == nil {
		return errorsmod.Wrap(ErrInvalidConfig, "validator cannot be nil")
	}
	if cfg.Clock == nil {
		return errorsmod.Wrap(ErrInvalidConfig, "clock cannot be nil")
	}
	if n := len(cfg.Pool.Balances()); n != len(cfg.Tokens) {
		return errorsmod.Wrapf(ErrInvalidConfig, "pool holds %d tokens, vault manages %d", n, len(cfg.Tokens))
	}
	return nil
}

// Tokens returns the canonical token list.
func (v *Vault) Tokens() []string { return append([]string(nil), v.tokens...) }

// Address returns the vault account that parks manager fees.
func (v *Vault) Address() string { return v.address }

func (v *Vault) Phase() types.Phase { return v.phase }
func (v *Vault) Owner() string { return v.owner }
func (v *Vault) PendingOwner() string { return v.pendingOwner }
func (v *Vault) Manager() string { return v.manager }
func (v *Vault) Params() Params { return v.params }
func (v *Vault) OraclesEnabled() bool { return v.guard.Enabled() }
func (v *Vault) Seq() uint64 { return v.seq }

// Holdings returns the pool balance of every managed token.
func (v *Vault) Holdings() []sdkmath.Int { return v.pool.Balances() }

// CurrentWeights returns the scheduled weights at the clock's current time.
func (v *Vault) CurrentWeights() ([]sdkmath.LegacyDec, error) {
	return v.scheduler.CurrentWeights(v.clock.Now())
}

// SyncPoolWeights pushes the weights scheduled for the clock's current time into the
// pool. Swaps that bypass the vault call it first.
func (v *Vault) SyncPoolWeights() error {
	return v.syncWeights(v.clock.Now())
}

// ManagerFees returns the fees addr can claim.
func (v *Vault) ManagerFees(addr string) []types.TokenAmount {
	return types.Amounts(v.tokens, v.fees.Owed(addr))
}

// DrainEvents returns the events committed since the previous drain.
func (v *Vault) DrainEvents() []types.Event {
	out := v.pending
	v.pending = nil
	return out
}

// Snapshot captures the full recoverable state at the clock's current time.
func (v *Vault) Snapshot() types.VaultSnapshot {
	return v.snapshot(v.clock.Now())
}

func (v *Vault) snapshot(now time.Time) types.VaultSnapshot {
	ws, err := v.scheduler.CurrentWeights(now)
	if err != nil {
		ws = nil
	}
	return types.VaultSnapshot{
		Seq:               v.seq,
		Time:              now,
		Phase:             v.phase,
		Tokens:            v.Tokens(),
		Owner:             v.owner,
		PendingOwner:      v.pendingOwner,
		Manager:           v.manager,
		OraclesEnabled:    v.guard.Enabled(),
		NoticeTimeoutAt:   v.noticeTimeoutAt,
		LastSwapFeeChange: v.lastSwapFeeChange,
		Window:            v.scheduler.Window(),
		Weights:           ws,
		Fees:              v.fees.State(),
		Pool: types.PoolState{
			Address:    v.pool.Address(),
			Balances:   v.pool.Balances(),
			Weights:    v.pool.Weights(),
			SwapFee:    v.pool.SwapFee(),
			PublicSwap: v.pool.PublicSwap(),
		},
	}
}

// Load replaces the vault side state with a stored snapshot. The pool is restored by
// its owner separately.
func (v *Vault) Load(s types.VaultSnapshot) error {
	if len(s.Tokens) != len(v.tokens) {
		return errorsmod.Wrapf(ErrInvalidConfig, "snapshot has %d tokens, vault manages %d", len(s.Tokens), len(v.tokens))
	}
	for i := range s.Tokens {
		if s.Tokens[i] != v.tokens[i] {
			return errorsmod.Wrapf(types.ErrDifferentTokensInPosition, "index %d: snapshot %s, vault %s", i, s.Tokens[i], v.tokens[i])
		}
	}
	if s.Owner == "" {
		return ErrOwnerIsZeroAddress
	}
	if s.Manager == "" {
		return ErrManagerIsZeroAddress
	}

	v.phase = s.Phase
	v.owner = s.Owner
	v.pendingOwner = s.PendingOwner
	v.manager = s.Manager
	v.guard.SetEnabled(s.OraclesEnabled)
	v.noticeTimeoutAt = s.NoticeTimeoutAt
	v.lastSwapFeeChange = s.LastSwapFeeChange
	v.scheduler.Restore(s.Window)
	v.fees.Restore(s.Fees)
	v.seq = s.Seq
	v.pending = nil

	v.logger.Info().
		Uint64("seq", s.Seq).
		Str("phase", s.Phase.String()).
		Msg("Vault state loaded from snapshot")
	return nil
}

func (v *Vault) String() string {
	return fmt.Sprintf("vault(%s, %s, seq=%d)", v.address, v.phase, v.seq)
}
