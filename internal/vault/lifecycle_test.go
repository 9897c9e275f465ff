package vault_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/amm"
	"github.com/elys-network/basketvault/internal/config"
	"github.com/elys-network/basketvault/internal/fees"
	"github.com/elys-network/basketvault/internal/ledger"
	"github.com/elys-network/basketvault/internal/oracle"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/validator"
	"github.com/elys-network/basketvault/internal/vault"
	"github.com/elys-network/basketvault/internal/weights"
)

func TestNewVaultValidation(t *testing.T) {
	validConfig := func() vault.Config {
		params := config.DefaultVaultParameters
		params.NumeraireIndex = 1
		pool, err := amm.NewPool(poolAddr, tokens, dec("0.001"))
		require.NoError(t, err)
		return vault.Config{
			Params:  params,
			Tokens:  tokens,
			Address: vaultAddr,
			Owner:   owner,
			Manager: manager,
			Oracles: map[int]oracle.Config{
				0: {Feed: oracle.NewStaticFeed(price("1"), genesis, feedDecimals), MaxDelay: time.Hour, MaxSpotDivergence: dec("0.1")},
			},
			Pool:      pool,
			Ledger:    ledger.NewLedger(),
			Validator: validator.Permissive{},
			Clock:     &testClock{now: genesis},
		}
	}

	_, err := vault.NewVault(validConfig())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*vault.Config)
		err    error
	}{
		{"single token", func(c *vault.Config) { c.Tokens = []string{atom} }, vault.ErrInvalidConfig},
		{"unsorted tokens", func(c *vault.Config) { c.Tokens = []string{usdc, atom} }, vault.ErrInvalidConfig},
		{"duplicate tokens", func(c *vault.Config) { c.Tokens = []string{atom, atom} }, vault.ErrInvalidConfig},
		{"bad denom", func(c *vault.Config) { c.Tokens = []string{"1", atom} }, vault.ErrInvalidConfig},
		{"numeraire out of range", func(c *vault.Config) { c.Params.NumeraireIndex = 2 }, vault.ErrInvalidParams},
		{"fee above max", func(c *vault.Config) { c.Params.ManagementFee = dec("0.01") }, fees.ErrManagementFeeIsAboveMax},
		{"min weight too large", func(c *vault.Config) { c.Params.MinWeight = dec("0.6") }, vault.ErrInvalidParams},
		{"swap fee bounds", func(c *vault.Config) { c.Params.MinSwapFee = dec("0.5") }, vault.ErrInvalidParams},
		{"empty owner", func(c *vault.Config) { c.Owner = "" }, vault.ErrOwnerIsZeroAddress},
		{"empty manager", func(c *vault.Config) { c.Manager = "" }, vault.ErrManagerIsZeroAddress},
		{"owner is manager", func(c *vault.Config) { c.Manager = owner }, vault.ErrManagerIsOwner},
		{"nil pool", func(c *vault.Config) { c.Pool = nil }, vault.ErrInvalidConfig},
		{"nil ledger", func(c *vault.Config) { c.Ledger = nil }, vault.ErrInvalidConfig},
		{"nil clock", func(c *vault.Config) { c.Clock = nil }, vault.ErrInvalidConfig},
		{"oracle on numeraire", func(c *vault.Config) { c.Oracles[1] = c.Oracles[0] }, oracle.ErrInvalidOracleConfig},
		{"missing oracle", func(c *vault.Config) { delete(c.Oracles, 0) }, oracle.ErrOracleNotConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := vault.NewVault(cfg)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestInitialDeposit(t *testing.T) {
	f := setupVault(t)
	assert.Equal(t, types.PhaseUninitialized, f.vault.Phase())

	res, err := f.vault.Execute(owner, vault.InitialDeposit{
		Amounts: amounts(100, 300),
		Weights: weightsOf("0.25", "0.75"),
	})
	require.NoError(t, err)
	assert.Equal(t, "initial_deposit", res.Call)

	assert.Equal(t, types.PhaseActive, f.vault.Phase())
	requireHoldings(t, f, 100, 300)
	requireWeights(t, f.pool.Weights(), "0.25", "0.75")
	assert.True(t, f.ledger.Balance(poolAddr, usdc).Equal(sdkmath.NewInt(300)))

	events := f.vault.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInitialDeposit, events[0].Type)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, types.PhaseActive, events[0].State.Phase)
	assert.Empty(t, f.vault.DrainEvents())

	_, err = f.vault.Execute(owner, vault.InitialDeposit{
		Amounts: amounts(100, 100),
		Weights: weightsOf("0.5", "0.5"),
	})
	require.ErrorIs(t, err, vault.ErrVaultIsAlreadyInitialized)
}

func TestInitialDepositValidation(t *testing.T) {
	tests := []struct {
		name string
		call vault.InitialDeposit
		err  error
	}{
		{"zero amount", vault.InitialDeposit{Amounts: amounts(0, 100), Weights: weightsOf("0.5", "0.5")}, vault.ErrAmountIsZero},
		{"weights do not sum to one", vault.InitialDeposit{Amounts: amounts(100, 100), Weights: weightsOf("0.5", "0.4")}, weights.ErrSumOfWeightIsNotOne},
		{"weight below min", vault.InitialDeposit{Amounts: amounts(100, 100), Weights: weightsOf("0.995", "0.005")}, weights.ErrWeightBelowMin},
		{"pool price off oracle", vault.InitialDeposit{Amounts: amounts(100, 200), Weights: weightsOf("0.5", "0.5")}, oracle.ErrOracleSpotPriceDivergenceExceedsMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupVault(t)
			_, err := f.vault.Execute(owner, tt.call)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, types.PhaseUninitialized, f.vault.Phase())
			requireHoldings(t, f, 0, 0)
			assert.True(t, f.ledger.Balance(poolAddr, atom).IsZero())
		})
	}
}

func TestCallsBeforeInitialization(t *testing.T) {
	f := setupVault(t)

	tests := []struct {
		caller string
		call   vault.Call
	}{
		{owner, vault.Deposit{Amounts: amounts(1, 1)}},
		{owner, vault.DepositRiskingArbitrage{Amounts: amounts(1, 1)}},
		{owner, vault.Withdraw{Amounts: amounts(1, 1)}},
		{owner, vault.Finalize{}},
		{owner, vault.InitiateFinalization{}},
		{owner, vault.DisableTrading{}},
		{owner, vault.EnableTradingRiskingArbitrage{}},
		{manager, vault.SetSwapFee{Fee: dec("0.002")}},
		{manager, vault.CancelWeightUpdates{}},
	}
	for _, tt := range tests {
		t.Run(tt.call.Name(), func(t *testing.T) {
			_, err := f.vault.Execute(tt.caller, tt.call)
			require.ErrorIs(t, err, vault.ErrVaultNotInitialized)
		})
	}
}

func TestFinalizeWithoutNotice(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 1_000_000_000_000, 1_000_000_000_000)
	atomBefore := f.ledger.Balance(owner, atom)

	res, err := f.vault.Execute(owner, vault.Finalize{})
	require.NoError(t, err)

	// the unserved four weeks of the minimum fee duration are billed up front
	fee := sdkmath.NewInt(241_920_000)
	returned := sdkmath.NewInt(1_000_000_000_000).Sub(fee)
	assert.True(t, res.Amounts[0].Amount.Equal(returned), "got %s", res.Amounts[0].Amount)
	assert.True(t, f.ledger.Balance(owner, atom).Sub(atomBefore).Equal(returned))
	assert.True(t, f.ledger.Balance(vaultAddr, atom).Equal(fee))
	requireHoldings(t, f, 0, 0)
	assert.Equal(t, types.PhaseFinalized, f.vault.Phase())
	assert.False(t, f.pool.PublicSwap())

	assert.Equal(t,
		[]types.EventType{types.EventDistributeManagerFees, types.EventFinalize},
		eventTypes(f.vault.DrainEvents()))

	_, err = f.vault.Execute(owner, vault.Finalize{})
	require.ErrorIs(t, err, vault.ErrVaultIsFinalized)
	_, err = f.vault.Execute(owner, vault.DepositRiskingArbitrage{Amounts: amounts(1, 1)})
	require.ErrorIs(t, err, vault.ErrVaultIsFinalized)
	_, err = f.vault.Execute(owner, vault.DisableTrading{})
	require.ErrorIs(t, err, vault.ErrVaultIsFinalized)

	// fees earned before finalization stay claimable
	res, err = f.vault.Execute(manager, vault.ClaimManagerFees{})
	require.NoError(t, err)
	assert.True(t, res.Amounts[0].Amount.Equal(fee))
	assert.True(t, f.ledger.Balance(manager, usdc).Equal(fee))
}

func TestFinalizeAfterMinFeeDurationBillsElapsedTimeOnly(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 1_000_000_000_000, 1_000_000_000_000)
	f.clock.Advance(8 * 7 * 24 * time.Hour)

	_, err := f.vault.Execute(owner, vault.Finalize{})
	require.NoError(t, err)

	// eight weeks at 1e-10 per second
	assert.True(t, f.ledger.Balance(vaultAddr, atom).Equal(sdkmath.NewInt(483_840_000)))
}

func TestFinalizeWithNotice(t *testing.T) {
	f := setupVault(t, setupOptions{params: func(p *vault.Params) {
		p.NoticePeriod = 24 * time.Hour
	}})
	f.initialize(t, 100, 100)

	_, err := f.vault.Execute(owner, vault.Finalize{})
	require.ErrorIs(t, err, vault.ErrFinalizationNotInitiated)

	_, err = f.vault.Execute(manager, vault.InitiateFinalization{})
	require.ErrorIs(t, err, vault.ErrCallerIsNotOwner)

	_, err = f.vault.Execute(owner, vault.InitiateFinalization{})
	require.NoError(t, err)
	assert.Equal(t, types.PhaseFinalizing, f.vault.Phase())

	_, err = f.vault.Execute(owner, vault.InitiateFinalization{})
	require.ErrorIs(t, err, vault.ErrVaultIsFinalizing)
	_, err = f.vault.Execute(owner, vault.DepositRiskingArbitrage{Amounts: amounts(1, 1)})
	require.ErrorIs(t, err, vault.ErrVaultIsFinalizing)
	_, err = f.vault.Execute(manager, vault.SetSwapFee{Fee: dec("0.002")})
	require.ErrorIs(t, err, vault.ErrVaultIsFinalizing)

	// trading can still be stopped while the notice runs
	_, err = f.vault.Execute(manager, vault.DisableTrading{})
	require.NoError(t, err)

	f.clock.Advance(24*time.Hour - time.Second)
	_, err = f.vault.Execute(owner, vault.Finalize{})
	require.ErrorIs(t, err, vault.ErrNoticeTimeoutNotElapsed)

	f.clock.Advance(time.Second)
	_, err = f.vault.Execute(owner, vault.Finalize{})
	require.NoError(t, err)
	assert.Equal(t, types.PhaseFinalized, f.vault.Phase())
	requireHoldings(t, f, 0, 0)
}

func startNotice(t *testing.T) *fixture {
	t.Helper()
	f := setupVault(t, setupOptions{params: func(p *vault.Params) {
		p.NoticePeriod = 24 * time.Hour
	}})
	f.initialize(t, 1_000_000_000_000, 1_000_000_000_000)

	f.clock.Advance(30 * 24 * time.Hour)
	_, err := f.vault.Execute(owner, vault.InitiateFinalization{})
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	return f
}

// 30 days on 1e12, then the notice day on 999_740_800_000
var noticeFees = sdkmath.NewInt(259_200_000 + 8_637_760)

func TestSetManagerDuringNotice(t *testing.T) {
	f := startNotice(t)

	_, err := f.vault.Execute(owner, vault.SetManager{Manager: "dave"})
	require.NoError(t, err)
	owed := f.vault.ManagerFees(manager)
	assert.True(t, owed[0].Amount.Equal(noticeFees), "got %s", owed[0].Amount)
	assert.True(t, owed[1].Amount.Equal(noticeFees), "got %s", owed[1].Amount)

	_, err = f.vault.Execute(owner, vault.Finalize{})
	require.NoError(t, err)

	// the notice day belongs to the outgoing manager
	_, err = f.vault.Execute("dave", vault.ClaimManagerFees{})
	require.ErrorIs(t, err, fees.ErrNoAvailableFeeForCaller)

	res, err := f.vault.Execute(manager, vault.ClaimManagerFees{})
	require.NoError(t, err)
	assert.True(t, res.Amounts[0].Amount.Equal(noticeFees), "got %s", res.Amounts[0].Amount)
	assert.True(t, f.ledger.Balance(vaultAddr, atom).IsZero())
}

func TestClaimManagerFeesDuringNotice(t *testing.T) {
	f := startNotice(t)

	res, err := f.vault.Execute(manager, vault.ClaimManagerFees{})
	require.NoError(t, err)
	assert.True(t, res.Amounts[0].Amount.Equal(noticeFees), "got %s", res.Amounts[0].Amount)
	assert.True(t, res.Amounts[1].Amount.Equal(noticeFees), "got %s", res.Amounts[1].Amount)
	assert.True(t, f.ledger.Balance(manager, usdc).Equal(noticeFees))
	assert.True(t, f.ledger.Balance(vaultAddr, usdc).IsZero())

	holding := sdkmath.NewInt(1_000_000_000_000).Sub(noticeFees).Int64()
	requireHoldings(t, f, holding, holding)
}

func TestSweep(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)
	require.NoError(t, f.ledger.Mint(vaultAddr, sdk.NewCoins(sdk.NewInt64Coin("uosmo", 50))))

	_, err := f.vault.Execute(owner, vault.Sweep{Denom: "uosmo", Amount: sdkmath.NewInt(20)})
	require.NoError(t, err)
	assert.True(t, f.ledger.Balance(owner, "uosmo").Equal(sdkmath.NewInt(20)))
	assert.True(t, f.ledger.Balance(vaultAddr, "uosmo").Equal(sdkmath.NewInt(30)))

	_, err = f.vault.Execute(owner, vault.Sweep{Denom: atom, Amount: sdkmath.NewInt(1)})
	require.ErrorIs(t, err, vault.ErrCannotSweepPoolToken)
	_, err = f.vault.Execute(owner, vault.Sweep{Denom: "uosmo", Amount: sdkmath.ZeroInt()})
	require.ErrorIs(t, err, vault.ErrAmountIsZero)
	_, err = f.vault.Execute(owner, vault.Sweep{Denom: "uosmo", Amount: sdkmath.NewInt(31)})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	_, err = f.vault.Execute(manager, vault.Sweep{Denom: "uosmo", Amount: sdkmath.NewInt(1)})
	require.ErrorIs(t, err, vault.ErrCallerIsNotOwner)
}

func TestSnapshotAndLoad(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)
	_, err := f.vault.Execute(owner, vault.TransferOwnership{NewOwner: "carol"})
	require.NoError(t, err)

	snap := f.vault.Snapshot()
	assert.Equal(t, uint64(2), snap.Seq)
	assert.Equal(t, "carol", snap.PendingOwner)
	assert.Equal(t, types.PhaseActive, snap.Phase)

	g := setupVault(t)
	require.NoError(t, g.pool.Load(snap.Pool))
	require.NoError(t, g.vault.Load(snap))

	assert.Equal(t, types.PhaseActive, g.vault.Phase())
	assert.Equal(t, "carol", g.vault.PendingOwner())
	assert.Equal(t, uint64(2), g.vault.Seq())
	requireHoldings(t, g, 100, 100)

	_, err = g.vault.Execute("carol", vault.AcceptOwnership{})
	require.NoError(t, err)
	assert.Equal(t, "carol", g.vault.Owner())

	bad := snap
	bad.Tokens = []string{atom, "uosmo"}
	require.ErrorIs(t, g.vault.Load(bad), types.ErrDifferentTokensInPosition)
}
