package snapshot

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/roach88/tally/internal/store"
)

// Key prefixes:
//
//	'i' + id -> record key
//	's' + uvarint(len(name)) + name + end + ^start + id -> record
//	'v' -> schema version
//
// end and ^start are big-endian so that the last key under a store prefix is
// the latest, widest snapshot.
const (
	prefixID       = 'i'
	prefixSnapshot = 's'
)

var versionKey = []byte{'v'}

const currentLevelDBVersion = 1

// levelRecord is the value of a snapshot record. Store names and keys are
// raw bytes and need not be valid UTF-8.
type levelRecord struct {
	ID        string      `json:"id"`
	StoreName []byte      `json:"store"`
	Range     Range       `json:"range"`
	Slots     []levelSlot `json:"slots"`
}

type levelSlot struct {
	Key     []byte `json:"key"`
	Domain  string `json:"domain"`
	Value   string `json:"value"`
	Ordinal uint64 `json:"ordinal"`
}

// LevelDBBackend stores snapshots in a LevelDB directory.
type LevelDBBackend struct {
	db *leveldb.DB
}

// OpenLevelDB creates or opens a LevelDB database in dir.
func OpenLevelDB(dir string) (*LevelDBBackend, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(dir, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}

	version, err := getVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version > currentLevelDBVersion {
		db.Close()
		return nil, fmt.Errorf("incompatible leveldb version: %d, supported: %d", version, currentLevelDBVersion)
	}
	if version < currentLevelDBVersion {
		if err := putVersion(db, currentLevelDBVersion); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &LevelDBBackend{db: db}, nil
}

func getVersion(db *leveldb.DB) (int, error) {
	value, err := db.Get(versionKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	if len(value) != 4 {
		return 0, fmt.Errorf("incompatible database version length: expected: %d actual: %d", 4, len(value))
	}
	return int(binary.BigEndian.Uint32(value)), nil
}

func putVersion(db *leveldb.DB, version int) error {
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, uint32(version))
	if err := db.Put(versionKey, value, nil); err != nil {
		return fmt.Errorf("put version: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *LevelDBBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Save writes snap in one batch. An existing snapshot with the same ID is
// replaced.
func (b *LevelDBBackend) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.ID == "" {
		return fmt.Errorf("save snapshot: empty id")
	}
	if err := snap.Range.Validate(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}

	rec := levelRecord{
		ID:        snap.ID,
		StoreName: []byte(snap.StoreName),
		Range:     snap.Range,
		Slots:     make([]levelSlot, 0, len(snap.Slots)),
	}
	for _, slot := range snap.Slots {
		e, err := encodeSlot(slot)
		if err != nil {
			return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
		}
		rec.Slots = append(rec.Slots, levelSlot{
			Key:     []byte(e.Key),
			Domain:  e.Domain,
			Value:   e.Value,
			Ordinal: e.Ordinal,
		})
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}

	idKey := lookupKey(snap.ID)
	recKey := recordKey(snap.StoreName, snap.Range, snap.ID)

	batch := new(leveldb.Batch)
	old, err := b.db.Get(idKey, nil)
	if err == nil {
		batch.Delete(old)
	} else if !errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	batch.Put(idKey, recKey)
	batch.Put(recKey, data)

	if err := b.db.Write(batch, nil); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Load returns the snapshot with the given ID.
func (b *LevelDBBackend) Load(ctx context.Context, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	recKey, err := b.db.Get(lookupKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Snapshot{}, ErrNotFound
	} else if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	data, err := b.db.Get(recKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Snapshot{}, fmt.Errorf("load snapshot %s: dangling index entry", id)
	} else if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return decodeRecord(data)
}

// Latest returns the snapshot of storeName covering the highest block.
func (b *LevelDBBackend) Latest(ctx context.Context, storeName string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	iter := b.db.NewIterator(ldb_util.BytesPrefix(storePrefix(storeName)), nil)
	defer iter.Release()

	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return Snapshot{}, fmt.Errorf("latest snapshot %q: %w", storeName, err)
		}
		return Snapshot{}, ErrNotFound
	}

	// The iterator owns Value until the next move, decode before Release
	snap, err := decodeRecord(iter.Value())
	if err != nil {
		return Snapshot{}, err
	}
	if err := iter.Error(); err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot %q: %w", storeName, err)
	}
	return snap, nil
}

func decodeRecord(data []byte) (Snapshot, error) {
	var rec levelRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	snap := Snapshot{
		ID:        rec.ID,
		StoreName: string(rec.StoreName),
		Range:     rec.Range,
		Slots:     make([]store.Slot, 0, len(rec.Slots)),
	}
	for _, ls := range rec.Slots {
		slot, err := decodeSlot(encodedSlot{
			Key:     string(ls.Key),
			Domain:  ls.Domain,
			Value:   ls.Value,
			Ordinal: ls.Ordinal,
		})
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", rec.ID, err)
		}
		snap.Slots = append(snap.Slots, slot)
	}
	return snap, nil
}

func lookupKey(id string) []byte {
	return append([]byte{prefixID}, id...)
}

// storePrefix length-prefixes the name so that no store's keys fall under
// another store's prefix.
func storePrefix(name string) []byte {
	key := []byte{prefixSnapshot}
	key = binary.AppendUvarint(key, uint64(len(name)))
	return append(key, name...)
}

func recordKey(name string, r Range, id string) []byte {
	key := storePrefix(name)
	key = binary.BigEndian.AppendUint64(key, r.End)
	key = binary.BigEndian.AppendUint64(key, ^r.Start)
	return append(key, id...)
}
