package vault_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/amm"
	"github.com/elys-network/basketvault/internal/config"
	"github.com/elys-network/basketvault/internal/fixed"
	"github.com/elys-network/basketvault/internal/ledger"
	"github.com/elys-network/basketvault/internal/oracle"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/validator"
	"github.com/elys-network/basketvault/internal/vault"
)

const (
	owner     = "owner"
	manager   = "manager"
	stranger  = "stranger"
	vaultAddr = "vault"
	poolAddr  = "pool"

	atom = "uatom"
	usdc = "uusdc"

	feedDecimals = 8
)

var (
	tokens  = []string{atom, usdc}
	genesis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	vault  *vault.Vault
	pool   *amm.Pool
	ledger *ledger.Ledger
	clock  *testClock
	feed   *oracle.StaticFeed
}

type setupOptions struct {
	params    func(*vault.Params)
	validator func(*amm.Pool) vault.Validator
}

// setupVault wires an uninitialized atom/usdc vault with usdc as numeraire and an atom
// feed quoting 1 usdc. The owner is funded generously.
func setupVault(t *testing.T, opts ...setupOptions) *fixture {
	t.Helper()

	params := config.DefaultVaultParameters
	params.NumeraireIndex = 1
	var opt setupOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.params != nil {
		opt.params(&params)
	}

	clock := &testClock{now: genesis}
	pool, err := amm.NewPool(poolAddr, tokens, sdkmath.LegacyNewDecWithPrec(1, 3))
	require.NoError(t, err)

	l := ledger.NewLedger()
	require.NoError(t, l.Mint(owner, sdk.NewCoins(
		sdk.NewCoin(atom, sdkmath.NewInt(1_000_000_000_000_000)),
		sdk.NewCoin(usdc, sdkmath.NewInt(1_000_000_000_000_000)),
	)))

	var val vault.Validator = validator.Permissive{}
	if opt.validator != nil {
		val = opt.validator(pool)
	}

	feed := oracle.NewStaticFeed(price("1"), genesis, feedDecimals)
	v, err := vault.NewVault(vault.Config{
		Params:  params,
		Tokens:  tokens,
		Address: vaultAddr,
		Owner:   owner,
		Manager: manager,
		Oracles: map[int]oracle.Config{
			0: {Feed: feed, MaxDelay: time.Hour, MaxSpotDivergence: dec("0.1")},
		},
		Pool:      pool,
		Ledger:    l,
		Validator: val,
		Clock:     clock,
	})
	require.NoError(t, err)

	return &fixture{vault: v, pool: pool, ledger: l, clock: clock, feed: feed}
}

// initialize seeds the pool at 50/50 and drains the initialization events.
func (f *fixture) initialize(t *testing.T, a, b int64) {
	t.Helper()
	_, err := f.vault.Execute(owner, vault.InitialDeposit{
		Amounts: amounts(a, b),
		Weights: weightsOf("0.5", "0.5"),
	})
	require.NoError(t, err)
	f.vault.DrainEvents()
}

func (f *fixture) setPrice(t *testing.T, p string) {
	t.Helper()
	f.feed.Set(price(p), f.clock.Now())
}

func dec(s string) sdkmath.LegacyDec { return sdkmath.LegacyMustNewDecFromStr(s) }

// price converts a decimal quote into the feed's 8 decimal answer.
func price(s string) sdkmath.Int {
	return dec(s).MulInt64(100_000_000).TruncateInt()
}

func amounts(a, b int64) []types.TokenAmount {
	return []types.TokenAmount{
		{Denom: atom, Amount: sdkmath.NewInt(a)},
		{Denom: usdc, Amount: sdkmath.NewInt(b)},
	}
}

func weightsOf(a, b string) []types.TokenWeight {
	return []types.TokenWeight{
		{Denom: atom, Weight: dec(a)},
		{Denom: usdc, Weight: dec(b)},
	}
}

func requireHoldings(t *testing.T, f *fixture, want ...int64) {
	t.Helper()
	got := f.vault.Holdings()
	require.Len(t, got, len(want))
	for i := range want {
		require.True(t, got[i].Equal(sdkmath.NewInt(want[i])), "holding %d: got %s, want %d", i, got[i], want[i])
	}
}

func requireWeights(t *testing.T, got []sdkmath.LegacyDec, want ...string) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.True(t, fixed.ApproxEqual(got[i], dec(want[i]), fixed.Tolerance(1000)),
			"weight %d: got %s, want %s", i, got[i], want[i])
	}
}

func eventTypes(events []types.Event) []types.EventType {
	out := make([]types.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
