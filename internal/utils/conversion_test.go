package utils_test

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/utils"
)

func TestIntToFloat64(t *testing.T) {
	f, err := utils.IntToFloat64(sdkmath.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, 1e6, f)

	_, err = utils.IntToFloat64(sdkmath.Int{})
	assert.ErrorIs(t, err, utils.ErrAmountNil)
	_, err = utils.IntToFloat64(sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, utils.ErrAmountNegative)
}

func TestDecToFloat64(t *testing.T) {
	f, err := utils.DecToFloat64(sdkmath.LegacyNewDecWithPrec(3, 3))
	require.NoError(t, err)
	assert.InDelta(t, 0.003, f, 1e-15)

	_, err = utils.DecToFloat64(sdkmath.LegacyNewDec(-2))
	assert.ErrorIs(t, err, utils.ErrAmountNegative)
}

func TestFloorToInt(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.99, 0},
		{1, 1},
		{996.9, 996},
		{123456789012.7, 123456789012},
	}
	for _, tt := range tests {
		got, err := utils.FloorToInt(tt.in)
		require.NoError(t, err)
		assert.True(t, got.Equal(sdkmath.NewInt(tt.want)), "floor(%v) = %s", tt.in, got)
	}

	_, err := utils.FloorToInt(math.NaN())
	assert.ErrorIs(t, err, utils.ErrNotFinite)
	_, err = utils.FloorToInt(-1)
	assert.ErrorIs(t, err, utils.ErrAmountNegative)
}
