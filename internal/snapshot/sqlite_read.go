package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tally/internal/store"
)

// Load returns the snapshot with the given ID.
func (b *SQLiteBackend) Load(ctx context.Context, id string) (Snapshot, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT id, store_name, range_start, range_end
		FROM snapshots
		WHERE id = ?
	`, id)
	return b.readSnapshot(ctx, row)
}

// Latest returns the snapshot of storeName covering the highest block.
func (b *SQLiteBackend) Latest(ctx context.Context, storeName string) (Snapshot, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT id, store_name, range_start, range_end
		FROM snapshots
		WHERE store_name = ?
		ORDER BY range_end DESC, range_start ASC, id COLLATE BINARY DESC
		LIMIT 1
	`, storeName)
	return b.readSnapshot(ctx, row)
}

func (b *SQLiteBackend) readSnapshot(ctx context.Context, row *sql.Row) (Snapshot, error) {
	var (
		snap       Snapshot
		start, end int64
	)
	if err := row.Scan(&snap.ID, &snap.StoreName, &start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.Range = Range{Start: uint64(start), End: uint64(end)}

	slots, err := b.readSlots(ctx, snap.ID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Slots = slots
	return snap, nil
}

// readSlots returns the slots of a snapshot ordered by key.
func (b *SQLiteBackend) readSlots(ctx context.Context, id string) ([]store.Slot, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT key, domain, value, ordinal
		FROM slots
		WHERE snapshot_id = ?
		ORDER BY key COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	slots := []store.Slot{}
	for rows.Next() {
		var (
			e   encodedSlot
			ord int64
		)
		if err := rows.Scan(&e.Key, &e.Domain, &e.Value, &ord); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		e.Ordinal = uint64(ord)

		slot, err := decodeSlot(e)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}
