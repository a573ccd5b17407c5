package snapshot

import (
	"context"
	"fmt"
)

// Save writes snap and its slots in one transaction.
// An existing snapshot with the same ID is replaced.
func (b *SQLiteBackend) Save(ctx context.Context, snap Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("save snapshot: empty id")
	}
	if err := snap.Range.Validate(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Slot rows cascade with the snapshot row
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snap.ID); err != nil {
		return fmt.Errorf("save snapshot %s: replace: %w", snap.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, store_name, range_start, range_end, slot_count)
		VALUES (?, ?, ?, ?, ?)
	`,
		snap.ID,
		snap.StoreName,
		int64(snap.Range.Start),
		int64(snap.Range.End),
		len(snap.Slots),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO slots (snapshot_id, key, domain, value, ordinal)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save snapshot %s: prepare slots: %w", snap.ID, err)
	}
	defer stmt.Close()

	for _, slot := range snap.Slots {
		e, err := encodeSlot(slot)
		if err != nil {
			return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, e.Key, e.Domain, e.Value, int64(e.Ordinal)); err != nil {
			return fmt.Errorf("save snapshot %s: slot %q: %w", snap.ID, e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot %s: commit: %w", snap.ID, err)
	}
	return nil
}
