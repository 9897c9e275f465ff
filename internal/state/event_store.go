// ./internal/state/event_store.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq" // PostgreSQL driver for array support

	"github.com/elys-network/basketvault/internal/types"
)

// AppendEvents inserts events in one transaction after checking they continue the
// stored sequence.
func (s *PostgresStore) AppendEvents(ctx context.Context, events []types.Event) (err error) {
	if s.db == nil {
		return ErrStoreNotInitialized
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback()
		}
	}()

	var last uint64
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM vault_events;`).Scan(&last); err != nil {
		return fmt.Errorf("failed to read last event sequence: %w", err)
	}
	if err = checkSequence(last, events); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vault_events (
			seq, event_id, batch_id, event_type, caller, event_time, transfers, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, merr := json.Marshal(e)
		if merr != nil {
			err = fmt.Errorf("failed to marshal event %d: %w", e.Seq, merr)
			return err
		}
		transfers := make([]string, 0, len(e.Transfers))
		for _, coin := range e.Transfers {
			transfers = append(transfers, coin.String())
		}
		if _, err = stmt.ExecContext(ctx,
			e.Seq, e.ID, e.BatchID, string(e.Type), e.Caller, e.Time, pq.Array(transfers), payload,
		); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", e.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}

	s.logger.Debug().
		Uint64("first_seq", events[0].Seq).
		Uint64("last_seq", events[len(events)-1].Seq).
		Msg("Events appended")
	return nil
}

// Events loads events after afterSeq, oldest first.
func (s *PostgresStore) Events(ctx context.Context, afterSeq uint64, limit int) ([]types.Event, error) {
	if s.db == nil {
		return nil, ErrStoreNotInitialized
	}

	query := `SELECT payload FROM vault_events WHERE seq > $1 ORDER BY seq ASC`
	args := []interface{}{afterSeq}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return scanEvents(rows)
}

// EventsByBatch loads every event committed by one batch.
func (s *PostgresStore) EventsByBatch(ctx context.Context, batchID uuid.UUID) ([]types.Event, error) {
	if s.db == nil {
		return nil, ErrStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM vault_events WHERE batch_id = $1 ORDER BY seq ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch %s: %w", batchID, err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]types.Event, error) {
	defer rows.Close()

	events := make([]types.Event, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		var e types.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}
