/*

Vault history storage.

The node appends every committed event and periodically saves a full snapshot. The
latest state is rebuilt from the newest snapshot plus the events that follow it, so
the event log must be gapless.

*/

package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/elys-network/basketvault/internal/types"
)

var (
	ErrNoSnapshot          = errors.New("no vault state stored")
	ErrSequenceGap         = errors.New("event sequence gap")
	ErrEventStateMismatch  = errors.New("event state does not match event sequence")
	ErrStoreNotInitialized = errors.New("store not initialized")
)

// Store persists the vault audit trail.
type Store interface {
	// AppendEvents stores events that must continue the stored sequence without gaps.
	AppendEvents(ctx context.Context, events []types.Event) error

	// Events returns up to limit events with a sequence number above afterSeq, oldest
	// first. A limit of zero or less returns all of them.
	Events(ctx context.Context, afterSeq uint64, limit int) ([]types.Event, error)

	// EventsByBatch returns the events one batch committed, oldest first.
	EventsByBatch(ctx context.Context, batchID uuid.UUID) ([]types.Event, error)

	// SaveSnapshot stores s and returns its id.
	SaveSnapshot(ctx context.Context, s types.VaultSnapshot) (int64, error)

	// LatestSnapshot returns the snapshot with the highest sequence number, or
	// ErrNoSnapshot.
	LatestSnapshot(ctx context.Context) (types.VaultSnapshot, error)

	Ping(ctx context.Context) error
	Close() error
}

// checkSequence verifies that events continue last without gaps.
func checkSequence(last uint64, events []types.Event) error {
	for _, e := range events {
		if e.Seq != last+1 {
			return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, last+1, e.Seq)
		}
		last = e.Seq
	}
	return nil
}

// Recover replays events on top of snapshot and returns the latest state. Events at or
// below the snapshot's sequence number are skipped; the rest must be consecutive.
func Recover(snapshot types.VaultSnapshot, events []types.Event) (types.VaultSnapshot, error) {
	current := snapshot
	for _, e := range events {
		if e.Seq <= current.Seq {
			continue
		}
		if e.Seq != current.Seq+1 {
			return types.VaultSnapshot{}, fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, current.Seq+1, e.Seq)
		}
		if e.State.Seq != e.Seq {
			return types.VaultSnapshot{}, fmt.Errorf("%w: event %d carries state %d", ErrEventStateMismatch, e.Seq, e.State.Seq)
		}
		current = e.State
	}
	return current, nil
}

// Latest rebuilds the newest vault state held by store.
func Latest(ctx context.Context, store Store) (types.VaultSnapshot, error) {
	snapshot, err := store.LatestSnapshot(ctx)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return types.VaultSnapshot{}, err
	}

	events, err := store.Events(ctx, snapshot.Seq, 0)
	if err != nil {
		return types.VaultSnapshot{}, err
	}
	if !found && len(events) == 0 {
		return types.VaultSnapshot{}, ErrNoSnapshot
	}
	return Recover(snapshot, events)
}
