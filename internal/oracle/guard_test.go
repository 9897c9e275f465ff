package oracle_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/oracle"
)

var now = time.Unix(1_700_000_000, 0).UTC()

func dec(s string) sdkmath.LegacyDec { return sdkmath.LegacyMustNewDecFromStr(s) }

// setupGuard prices token 1 at 2.0 with an 8 decimal feed.
func setupGuard(t *testing.T) (*oracle.Guard, *oracle.StaticFeed) {
	t.Helper()
	feed := oracle.NewStaticFeed(sdkmath.NewInt(200_000_000), now.Add(-time.Minute), 8)
	g, err := oracle.NewGuard(2, 0, map[int]oracle.Config{
		1: {Feed: feed, MaxDelay: time.Hour, MaxSpotDivergence: dec("0.1")},
	})
	require.NoError(t, err)
	return g, feed
}

func TestNewGuardRequiresEveryOracle(t *testing.T) {
	_, err := oracle.NewGuard(3, 0, map[int]oracle.Config{
		1: {Feed: oracle.NewStaticFeed(sdkmath.OneInt(), now, 0), MaxDelay: time.Hour, MaxSpotDivergence: dec("0.1")},
	})
	require.ErrorIs(t, err, oracle.ErrOracleNotConfigured)

	_, err = oracle.NewGuard(2, 0, map[int]oracle.Config{
		1: {Feed: oracle.NewStaticFeed(sdkmath.OneInt(), now, 0), MaxDelay: 0, MaxSpotDivergence: dec("0.1")},
	})
	require.ErrorIs(t, err, oracle.ErrInvalidOracleConfig)
}

func TestValidateRescalesAnswer(t *testing.T) {
	g, _ := setupGuard(t)
	price, err := g.Validate(1, dec("2.05"), now)
	require.NoError(t, err)
	assert.Equal(t, dec("2"), price)

	price, err = g.Validate(0, dec("123"), now)
	require.NoError(t, err)
	assert.Equal(t, dec("1"), price)
}

func TestStaleFeedRejectedRegardlessOfPrice(t *testing.T) {
	g, feed := setupGuard(t)
	for _, answer := range []int64{200_000_000, 1, -5, 0} {
		feed.Set(sdkmath.NewInt(answer), now.Add(-time.Hour-time.Second))
		_, err := g.Validate(1, dec("2"), now)
		require.ErrorIs(t, err, oracle.ErrOracleIsDelayedBeyondMax, "answer %d", answer)
	}

	// exactly max delay is still fresh
	feed.Set(sdkmath.NewInt(200_000_000), now.Add(-time.Hour))
	_, err := g.Validate(1, dec("2"), now)
	require.NoError(t, err)
}

func TestNonPositiveAnswerRejected(t *testing.T) {
	g, feed := setupGuard(t)
	for _, answer := range []int64{0, -1} {
		feed.Set(sdkmath.NewInt(answer), now)
		_, err := g.Validate(1, dec("2"), now)
		require.ErrorIs(t, err, oracle.ErrOraclePriceIsInvalid)
	}
}

func TestDivergenceInBothDirections(t *testing.T) {
	g, _ := setupGuard(t)

	testCases := []struct {
		name string
		spot string
		err  error
	}{
		{name: "pool above oracle within bound", spot: "2.2", err: nil},
		{name: "pool below oracle within bound", spot: "1.9", err: nil},
		{name: "pool far above oracle", spot: "2.3", err: oracle.ErrOracleSpotPriceDivergenceExceedsMax},
		{name: "pool far below oracle", spot: "1.7", err: oracle.ErrOracleSpotPriceDivergenceExceedsMax},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Validate(1, dec(tc.spot), now)
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDisabledGuard(t *testing.T) {
	g, _ := setupGuard(t)
	g.SetEnabled(false)
	assert.False(t, g.Enabled())

	_, err := g.Validate(1, dec("2"), now)
	require.ErrorIs(t, err, oracle.ErrOracleDisabled)
	_, err = g.Prices(now)
	require.ErrorIs(t, err, oracle.ErrOracleDisabled)
}

func TestPrices(t *testing.T) {
	g, _ := setupGuard(t)
	prices, err := g.Prices(now)
	require.NoError(t, err)
	assert.Equal(t, []sdkmath.LegacyDec{dec("1"), dec("2")}, prices)
}
