package ledger_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/ledger"
)

func coins(denom string, amount int64) sdk.Coins {
	return sdk.NewCoins(sdk.NewInt64Coin(denom, amount))
}

func TestTransfer(t *testing.T) {
	l := ledger.NewLedger()
	require.NoError(t, l.Mint("alice", coins("uatom", 100)))

	require.NoError(t, l.Transfer("alice", "bob", coins("uatom", 40)))
	assert.True(t, l.Balance("alice", "uatom").Equal(sdkmath.NewInt(60)))
	assert.True(t, l.Balance("bob", "uatom").Equal(sdkmath.NewInt(40)))
	assert.Equal(t, []string{"alice", "bob"}, l.Accounts())
}

func TestTransferInsufficientFunds(t *testing.T) {
	l := ledger.NewLedger()
	require.NoError(t, l.Mint("alice", coins("uatom", 10)))

	err := l.Transfer("alice", "bob", coins("uatom", 11))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.True(t, l.Balance("alice", "uatom").Equal(sdkmath.NewInt(10)))
	assert.True(t, l.Balance("bob", "uatom").IsZero())

	err = l.Transfer("alice", "bob", coins("uusdc", 1))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestTransferValidation(t *testing.T) {
	l := ledger.NewLedger()

	err := l.Transfer("", "bob", coins("uatom", 1))
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)

	bad := sdk.Coins{sdk.Coin{Denom: "uatom", Amount: sdkmath.NewInt(-1)}}
	err = l.Transfer("alice", "bob", bad)
	require.ErrorIs(t, err, ledger.ErrInvalidCoins)

	require.NoError(t, l.Transfer("alice", "bob", sdk.NewCoins()))
}

func TestSnapshotRevert(t *testing.T) {
	l := ledger.NewLedger()
	require.NoError(t, l.Mint("alice", coins("uatom", 100)))

	id := l.Snapshot()
	require.NoError(t, l.Transfer("alice", "bob", coins("uatom", 30)))
	require.NoError(t, l.Mint("carol", coins("uusdc", 5)))

	l.RevertToSnapshot(id)
	assert.True(t, l.Balance("alice", "uatom").Equal(sdkmath.NewInt(100)))
	assert.True(t, l.Balance("bob", "uatom").IsZero())
	assert.True(t, l.Balance("carol", "uusdc").IsZero())
}

func TestNestedSnapshots(t *testing.T) {
	l := ledger.NewLedger()
	require.NoError(t, l.Mint("alice", coins("uatom", 100)))

	outer := l.Snapshot()
	require.NoError(t, l.Transfer("alice", "bob", coins("uatom", 10)))
	inner := l.Snapshot()
	require.NoError(t, l.Transfer("alice", "bob", coins("uatom", 10)))

	l.RevertToSnapshot(inner)
	assert.True(t, l.Balance("bob", "uatom").Equal(sdkmath.NewInt(10)))

	l.DiscardSnapshot(outer)
	l.RevertToSnapshot(outer)
	assert.True(t, l.Balance("bob", "uatom").Equal(sdkmath.NewInt(10)))
}
