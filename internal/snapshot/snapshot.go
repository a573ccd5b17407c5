package snapshot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/tally/internal/store"
)

// ErrNotFound is returned by Backend reads when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// Range is a block range. Start is inclusive, End is exclusive.
type Range struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Validate reports whether r covers at least one block.
func (r Range) Validate() error {
	if r.End <= r.Start {
		return fmt.Errorf("invalid range [%d, %d): end must be after start", r.Start, r.End)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// FileName returns the name of a full state file covering r.
func FileName(r Range) string {
	return fmt.Sprintf("%010d-%010d.kv", r.End, r.Start)
}

// PartialFileName returns the name of a partial state file covering r.
func PartialFileName(r Range) string {
	return fmt.Sprintf("%010d-%010d.partial", r.End, r.Start)
}

// Snapshot is the captured slot set of one store.
type Snapshot struct {
	ID        string
	StoreName string
	Range     Range
	Slots     []store.Slot
}

// IDGenerator produces snapshot IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 snapshot IDs.
//
// UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Capture copies the current slots of s into a Snapshot covering r.
// A nil gen uses UUIDv7Generator.
func Capture(s *store.Store, r Range, gen IDGenerator) (Snapshot, error) {
	if err := r.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("capture %q: %w", s.Name(), err)
	}
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return Snapshot{
		ID:        gen.Generate(),
		StoreName: s.Name(),
		Range:     r,
		Slots:     s.Slots(),
	}, nil
}

// Restore builds a fresh store holding the snapshot's slots.
func Restore(snap Snapshot, opts ...store.Option) (*store.Store, error) {
	s := store.New(snap.StoreName, opts...)
	if err := s.Load(snap.Slots); err != nil {
		return nil, fmt.Errorf("restore snapshot %s: %w", snap.ID, err)
	}
	return s, nil
}
