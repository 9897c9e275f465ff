package state_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/state"
	"github.com/elys-network/basketvault/internal/types"
)

var genesis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func snapshotAt(seq uint64, atom int64) types.VaultSnapshot {
	return types.VaultSnapshot{
		Seq:     seq,
		Time:    genesis.Add(time.Duration(seq) * time.Minute),
		Phase:   types.PhaseActive,
		Tokens:  []string{"uatom", "uusdc"},
		Owner:   "alice",
		Manager: "bob",
		Pool: types.PoolState{
			Address:  "pool",
			Balances: []sdkmath.Int{sdkmath.NewInt(atom), sdkmath.NewInt(100)},
			Weights:  []sdkmath.LegacyDec{sdkmath.LegacyNewDecWithPrec(5, 1), sdkmath.LegacyNewDecWithPrec(5, 1)},
			SwapFee:  sdkmath.LegacyNewDecWithPrec(1, 3),
		},
	}
}

func eventAt(seq uint64, batch uuid.UUID, atom int64) types.Event {
	s := snapshotAt(seq, atom)
	return types.Event{
		ID:      uuid.New(),
		BatchID: batch,
		Seq:     seq,
		Type:    types.EventDeposit,
		Caller:  "alice",
		Time:    s.Time,
		State:   s,
	}
}

func TestRecover(t *testing.T) {
	batch := uuid.New()
	events := []types.Event{eventAt(3, batch, 103), eventAt(4, batch, 104), eventAt(5, batch, 105)}

	got, err := state.Recover(snapshotAt(3, 103), events)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Seq)
	assert.True(t, got.Pool.Balances[0].Equal(sdkmath.NewInt(105)))

	// nothing newer than the snapshot
	got, err = state.Recover(snapshotAt(5, 105), events)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Seq)
}

func TestRecoverRejectsGaps(t *testing.T) {
	batch := uuid.New()
	_, err := state.Recover(snapshotAt(2, 102), []types.Event{eventAt(3, batch, 103), eventAt(5, batch, 105)})
	require.ErrorIs(t, err, state.ErrSequenceGap)

	_, err = state.Recover(snapshotAt(2, 102), []types.Event{eventAt(4, batch, 104)})
	require.ErrorIs(t, err, state.ErrSequenceGap)

	broken := eventAt(3, batch, 103)
	broken.State.Seq = 7
	_, err = state.Recover(snapshotAt(2, 102), []types.Event{broken})
	require.ErrorIs(t, err, state.ErrEventStateMismatch)
}

func TestMemoryStoreAppendEvents(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, store.AppendEvents(ctx, []types.Event{eventAt(1, first, 101), eventAt(2, first, 102)}))
	require.NoError(t, store.AppendEvents(ctx, nil))
	err := store.AppendEvents(ctx, []types.Event{eventAt(4, second, 104)})
	require.ErrorIs(t, err, state.ErrSequenceGap)
	require.NoError(t, store.AppendEvents(ctx, []types.Event{eventAt(3, second, 103)}))

	events, err := store.Events(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, err = store.Events(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(2), events[0].Seq)

	events, err = store.EventsByBatch(ctx, first)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	events, err = store.EventsByBatch(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

	_, err := state.Latest(ctx, store)
	require.ErrorIs(t, err, state.ErrNoSnapshot)

	batch := uuid.New()
	require.NoError(t, store.AppendEvents(ctx, []types.Event{eventAt(1, batch, 101), eventAt(2, batch, 102)}))
	got, err := state.Latest(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Seq)

	_, err = store.SaveSnapshot(ctx, snapshotAt(2, 102))
	require.NoError(t, err)
	require.NoError(t, store.AppendEvents(ctx, []types.Event{eventAt(3, batch, 103)}))

	got, err = state.Latest(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Seq)
	assert.True(t, got.Pool.Balances[0].Equal(sdkmath.NewInt(103)))
}

func TestMemoryStoreLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

	_, err := store.LatestSnapshot(ctx)
	require.ErrorIs(t, err, state.ErrNoSnapshot)

	for _, seq := range []uint64{4, 9, 6} {
		_, err := store.SaveSnapshot(ctx, snapshotAt(seq, 100))
		require.NoError(t, err)
	}
	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), latest.Seq)
}
