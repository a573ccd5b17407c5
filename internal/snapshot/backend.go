package snapshot

import "context"

// Backend persists snapshots.
//
// Save replaces any snapshot with the same ID. Latest returns the snapshot
// of storeName with the highest range end, preferring the wider range on a
// tie. Both reads return ErrNotFound when nothing matches.
type Backend interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	Latest(ctx context.Context, storeName string) (Snapshot, error)
	Close() error
}

var (
	_ Backend = (*SQLiteBackend)(nil)
	_ Backend = (*LevelDBBackend)(nil)
)
