package vault_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/oracle"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/vault"
	"github.com/elys-network/basketvault/internal/weights"
)

func TestEnableTradingWithWeights(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)
	assert.False(t, f.pool.PublicSwap())

	_, err := f.vault.Execute(owner, vault.EnableTradingWithWeights{Weights: weightsOf("0.7", "0.2")})
	require.ErrorIs(t, err, weights.ErrSumOfWeightIsNotOne)
	assert.False(t, f.pool.PublicSwap())

	_, err = f.vault.Execute(owner, vault.EnableTradingWithWeights{Weights: weightsOf("0.7", "0.3")})
	require.NoError(t, err)
	assert.True(t, f.pool.PublicSwap())
	requireWeights(t, f.pool.Weights(), "0.7", "0.3")

	_, err = f.vault.Execute(manager, vault.DisableTrading{})
	require.NoError(t, err)
	assert.False(t, f.pool.PublicSwap())

	assert.Equal(t,
		[]types.EventType{types.EventEnableTrading, types.EventDisableTrading},
		eventTypes(f.vault.DrainEvents()))
}

func TestEnableTradingWithOraclePrice(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)
	f.setPrice(t, "1.05")

	_, err := f.vault.Execute(manager, vault.EnableTradingWithOraclePrice{})
	require.NoError(t, err)
	assert.True(t, f.pool.PublicSwap())
	requireWeights(t, f.pool.Weights(), "0.512195121951219512", "0.487804878048780488")

	// the pool now quotes the oracle price
	spot, err := f.pool.SpotPrice(1, 0)
	require.NoError(t, err)
	assert.True(t, spot.Sub(dec("1.05")).Abs().LT(dec("0.000000000001")), "spot %s", spot)
}

func TestEnableTradingWithStaleOracle(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)
	f.clock.Advance(2 * time.Hour)

	_, err := f.vault.Execute(manager, vault.EnableTradingWithOraclePrice{})
	require.ErrorIs(t, err, oracle.ErrOracleIsDelayedBeyondMax)
	assert.False(t, f.pool.PublicSwap())

	_, err = f.vault.Execute(owner, vault.EnableTradingRiskingArbitrage{})
	require.NoError(t, err)
	assert.True(t, f.pool.PublicSwap())
	requireWeights(t, f.pool.Weights(), "0.5", "0.5")
}

func TestSetSwapFee(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)

	tests := []struct {
		fee string
		err error
	}{
		{"0.2", vault.ErrSwapFeeIsAboveMax},
		{"0", vault.ErrSwapFeeIsBelowMin},
		{"0.01", vault.ErrSwapFeePercentageChangeIsAboveMax},
	}
	for _, tt := range tests {
		_, err := f.vault.Execute(manager, vault.SetSwapFee{Fee: dec(tt.fee)})
		require.ErrorIs(t, err, tt.err, tt.fee)
	}
	assert.True(t, f.pool.SwapFee().Equal(dec("0.001")), "fee %s", f.pool.SwapFee())

	_, err := f.vault.Execute(manager, vault.SetSwapFee{Fee: dec("0.003")})
	require.NoError(t, err)
	assert.True(t, f.pool.SwapFee().Equal(dec("0.003")), "fee %s", f.pool.SwapFee())

	_, err = f.vault.Execute(manager, vault.SetSwapFee{Fee: dec("0.004")})
	require.ErrorIs(t, err, vault.ErrSwapFeeCooldownNotElapsed)

	f.clock.Advance(time.Minute)
	_, err = f.vault.Execute(manager, vault.SetSwapFee{Fee: dec("0.004")})
	require.NoError(t, err)
	assert.True(t, f.pool.SwapFee().Equal(dec("0.004")), "fee %s", f.pool.SwapFee())
}

func TestUpdateWeightsGradually(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)

	_, err := f.vault.Execute(manager, vault.UpdateWeightsGradually{
		Weights:   weightsOf("0.6", "0.4"),
		StartTime: genesis,
		EndTime:   genesis.Add(8 * time.Hour),
	})
	require.NoError(t, err)

	f.clock.Advance(4 * time.Hour)
	ws, err := f.vault.CurrentWeights()
	require.NoError(t, err)
	requireWeights(t, ws, "0.55", "0.45")

	f.clock.Advance(5 * time.Hour)
	ws, err = f.vault.CurrentWeights()
	require.NoError(t, err)
	requireWeights(t, ws, "0.6", "0.4")

	// the pool follows the schedule on the next holdings change
	_, err = f.vault.Execute(owner, vault.DepositRiskingArbitrage{Amounts: amounts(0, 0)})
	require.NoError(t, err)
	requireWeights(t, f.pool.Weights(), "0.6", "0.4")
}

func TestUpdateWeightsGraduallyValidation(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)

	tests := []struct {
		name string
		call vault.UpdateWeightsGradually
		err  error
	}{
		{"too short", vault.UpdateWeightsGradually{Weights: weightsOf("0.6", "0.4"), StartTime: genesis, EndTime: genesis.Add(time.Hour)}, weights.ErrDurationIsBelowMin},
		{"end before start", vault.UpdateWeightsGradually{Weights: weightsOf("0.6", "0.4"), StartTime: genesis.Add(time.Hour), EndTime: genesis}, weights.ErrEndBeforeStart},
		{"below min weight", vault.UpdateWeightsGradually{Weights: weightsOf("0.995", "0.005"), StartTime: genesis, EndTime: genesis.Add(8 * time.Hour)}, weights.ErrWeightBelowMin},
		{"bad sum", vault.UpdateWeightsGradually{Weights: weightsOf("0.6", "0.6"), StartTime: genesis, EndTime: genesis.Add(8 * time.Hour)}, weights.ErrSumOfWeightIsNotOne},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.vault.Execute(manager, tt.call)
			require.ErrorIs(t, err, tt.err)
		})
	}

	_, err := f.vault.Execute(owner, tests[0].call)
	require.ErrorIs(t, err, vault.ErrCallerIsNotManager)
}

func TestCancelWeightUpdates(t *testing.T) {
	f := setupVault(t)
	f.initialize(t, 100, 100)

	_, err := f.vault.Execute(manager, vault.UpdateWeightsGradually{
		Weights:   weightsOf("0.6", "0.4"),
		StartTime: genesis,
		EndTime:   genesis.Add(8 * time.Hour),
	})
	require.NoError(t, err)

	f.clock.Advance(4 * time.Hour)
	_, err = f.vault.Execute(manager, vault.CancelWeightUpdates{})
	require.NoError(t, err)
	requireWeights(t, f.pool.Weights(), "0.55", "0.45")

	f.clock.Advance(4 * time.Hour)
	ws, err := f.vault.CurrentWeights()
	require.NoError(t, err)
	requireWeights(t, ws, "0.55", "0.45")
}
