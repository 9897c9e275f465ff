// ./internal/state/snapshot_store.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support

	"github.com/elys-network/basketvault/internal/types"
)

// SaveSnapshot saves a complete vault snapshot to the database.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snapshot types.VaultSnapshot) (int64, error) {
	if s.db == nil {
		return 0, ErrStoreNotInitialized
	}

	stateJSON, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal snapshot state: %w", err)
	}

	query := `
		INSERT INTO vault_snapshots (seq, snapshot_time, phase, tokens, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = s.db.QueryRowContext(ctx, query,
		snapshot.Seq, snapshot.Time, snapshot.Phase.String(), pq.Array(snapshot.Tokens), stateJSON,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save vault snapshot: %w", err)
	}

	s.logger.Info().
		Int64("snapshot_id", snapshotID).
		Uint64("seq", snapshot.Seq).
		Str("phase", snapshot.Phase.String()).
		Msg("Vault snapshot saved to database")

	return snapshotID, nil
}

// LatestSnapshot loads the snapshot with the highest sequence number.
func (s *PostgresStore) LatestSnapshot(ctx context.Context) (types.VaultSnapshot, error) {
	if s.db == nil {
		return types.VaultSnapshot{}, ErrStoreNotInitialized
	}

	var stateJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM vault_snapshots ORDER BY seq DESC, snapshot_id DESC LIMIT 1`,
	).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.VaultSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return types.VaultSnapshot{}, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	var snapshot types.VaultSnapshot
	if err := json.Unmarshal(stateJSON, &snapshot); err != nil {
		return types.VaultSnapshot{}, fmt.Errorf("failed to unmarshal snapshot state: %w", err)
	}
	return snapshot, nil
}
