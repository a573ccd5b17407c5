package snapshot

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tally/internal/numeric"
	"github.com/roach88/tally/internal/store"
)

// backends returns a fresh instance of every Backend implementation.
func backends(t *testing.T) map[string]Backend {
	t.Helper()

	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	level, err := OpenLevelDB(filepath.Join(t.TempDir(), "snapshots.ldb"))
	require.NoError(t, err)
	t.Cleanup(func() { level.Close() })

	return map[string]Backend{
		"sqlite":  lite,
		"leveldb": level,
	}
}

func TestBackend_SaveLoad(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			snap := testSnapshot(t, "snap-1", "counts", Range{Start: 100, End: 10000})
			require.NoError(t, b.Save(ctx, snap))

			got, err := b.Load(ctx, "snap-1")
			require.NoError(t, err)
			assert.Equal(t, snap.ID, got.ID)
			assert.Equal(t, snap.StoreName, got.StoreName)
			assert.Equal(t, snap.Range, got.Range)
			require.Len(t, got.Slots, len(snap.Slots))
			for i := range snap.Slots {
				assert.Equal(t, snap.Slots[i].Key, got.Slots[i].Key)
				assert.Equal(t, snap.Slots[i].Domain, got.Slots[i].Domain)
				assert.Equal(t, snap.Slots[i].Value.String(), got.Slots[i].Value.String())
				assert.Equal(t, snap.Slots[i].Ordinal, got.Slots[i].Ordinal)
			}
		})
	}
}

func TestBackend_LoadMissing(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Load(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = b.Latest(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackend_Latest(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Save(ctx, testSnapshot(t, "early", "counts", Range{Start: 0, End: 100})))
			require.NoError(t, b.Save(ctx, testSnapshot(t, "late-narrow", "counts", Range{Start: 150, End: 200})))
			require.NoError(t, b.Save(ctx, testSnapshot(t, "late-wide", "counts", Range{Start: 0, End: 200})))
			require.NoError(t, b.Save(ctx, testSnapshot(t, "other", "countsx", Range{Start: 0, End: 900})))

			got, err := b.Latest(ctx, "counts")
			require.NoError(t, err)
			assert.Equal(t, "late-wide", got.ID)

			got, err = b.Latest(ctx, "countsx")
			require.NoError(t, err)
			assert.Equal(t, "other", got.ID)
		})
	}
}

func TestBackend_SaveReplaces(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Save(ctx, testSnapshot(t, "snap-1", "counts", Range{Start: 0, End: 100})))

			moved := testSnapshot(t, "snap-1", "counts", Range{Start: 0, End: 50})
			moved.Slots = moved.Slots[:2]
			require.NoError(t, b.Save(ctx, moved))

			got, err := b.Load(ctx, "snap-1")
			require.NoError(t, err)
			assert.Equal(t, Range{Start: 0, End: 50}, got.Range)
			assert.Len(t, got.Slots, 2)

			latest, err := b.Latest(ctx, "counts")
			require.NoError(t, err)
			assert.Equal(t, Range{Start: 0, End: 50}, latest.Range)
		})
	}
}

func TestBackend_SaveRejects(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.Error(t, b.Save(ctx, Snapshot{StoreName: "x", Range: Range{Start: 0, End: 1}}))
			assert.Error(t, b.Save(ctx, Snapshot{ID: "a", StoreName: "x", Range: Range{Start: 1, End: 1}}))
			assert.Error(t, b.Save(ctx, Snapshot{
				ID:        "b",
				StoreName: "x",
				Range:     Range{Start: 0, End: 1},
				Slots:     []store.Slot{{Key: "k", Domain: numeric.DomainInt64}},
			}))

			_, err := b.Load(ctx, "b")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackend_PreservesExactValues(t *testing.T) {
	values := []struct {
		domain numeric.Domain
		text   string
	}{
		{numeric.DomainInt64, "-9223372036854775808"},
		{numeric.DomainFloat64, "-0"},
		{numeric.DomainFloat64, "NaN"},
		{numeric.DomainFloat64, "1e+300"},
		{numeric.DomainBigInt, "-340282366920938463463374607431768211456"},
		{numeric.DomainBigDecimal, "21.000"},
		{numeric.DomainBigDecimal, "-0.000001234"},
	}

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := store.New("exact")
			for i, v := range values {
				key := v.domain.String() + "/" + v.text
				require.NoError(t, s.MergeText(store.OpSetMin, v.domain, uint64(i), key, v.text))
			}
			require.NoError(t, s.SetMaxInt64(math.MaxUint64, "max-ordinal", 1))

			snap, err := Capture(s, Range{Start: 0, End: 1}, nil)
			require.NoError(t, err)
			require.NoError(t, b.Save(ctx, snap))

			got, err := b.Load(ctx, snap.ID)
			require.NoError(t, err)
			restored, err := Restore(got)
			require.NoError(t, err)

			for _, v := range values {
				slot, ok := restored.Get(v.domain.String() + "/" + v.text)
				require.True(t, ok)
				assert.Equal(t, v.text, slot.Value.String())
			}
			slot, ok := restored.Get("max-ordinal")
			require.True(t, ok)
			assert.Equal(t, uint64(math.MaxUint64), slot.Ordinal)
		})
	}
}

func TestBackend_PreservesBinaryKeys(t *testing.T) {
	keys := []string{"\xff\xfe-bin", "plain", "\xc3\x28"}
	const storeName = "bin\xffstore"

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := store.New(storeName)
			for i, key := range keys {
				require.NoError(t, s.SumInt64(uint64(i+1), key, int64(i+1)))
			}

			snap, err := Capture(s, Range{Start: 0, End: 10}, nil)
			require.NoError(t, err)
			require.NoError(t, b.Save(ctx, snap))

			got, err := b.Load(ctx, snap.ID)
			require.NoError(t, err)
			assert.Equal(t, storeName, got.StoreName)

			restored, err := Restore(got)
			require.NoError(t, err)
			assert.Equal(t, s.Keys(), restored.Keys())
			for i, key := range keys {
				slot, ok := restored.Get(key)
				require.True(t, ok, "key %q", key)
				assert.Equal(t, numeric.Int64(i+1), slot.Value)
			}

			latest, err := b.Latest(ctx, storeName)
			require.NoError(t, err)
			assert.Equal(t, snap.ID, latest.ID)
		})
	}
}

func TestOpenLevelDB_Reopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots.ldb")
	ctx := context.Background()

	b, err := OpenLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, b.Save(ctx, testSnapshot(t, "snap-1", "counts", Range{Start: 0, End: 10})))
	require.NoError(t, b.Close())

	b, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Load(ctx, "snap-1")
	require.NoError(t, err)
	assert.Len(t, got.Slots, 4)
}
