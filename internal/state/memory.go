package state

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/elys-network/basketvault/internal/types"
)

// MemoryStore keeps the audit trail in process. It backs tests and the simulation
// daemon when no database is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	events    []types.Event
	snapshots []types.VaultSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AppendEvents(_ context.Context, events []types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var last uint64
	if n := len(m.events); n > 0 {
		last = m.events[n-1].Seq
	}
	if err := checkSequence(last, events); err != nil {
		return err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *MemoryStore) Events(_ context.Context, afterSeq uint64, limit int) ([]types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Event, 0)
	for _, e := range m.events {
		if e.Seq <= afterSeq {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) EventsByBatch(_ context.Context, batchID uuid.UUID) ([]types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Event, 0)
	for _, e := range m.events {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, s types.VaultSnapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots = append(m.snapshots, s)
	return int64(len(m.snapshots)), nil
}

func (m *MemoryStore) LatestSnapshot(_ context.Context) (types.VaultSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.snapshots) == 0 {
		return types.VaultSnapshot{}, ErrNoSnapshot
	}
	latest := m.snapshots[0]
	for _, s := range m.snapshots[1:] {
		if s.Seq >= latest.Seq {
			latest = s
		}
	}
	return latest, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error { return nil }
