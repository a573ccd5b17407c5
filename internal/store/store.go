package store

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/tally/internal/numeric"
)

// Store is an in-memory accumulation store.
//
// The zero value is not usable; create stores with New.
type Store struct {
	name            string
	logger          *slog.Logger
	panicOnMismatch bool

	mu     sync.Mutex
	slots  map[string]Slot
	deltas []Delta
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
// By default diagnostics are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPanicOnMismatch makes DOMAIN_MISMATCH panic instead of returning an
// error. A mismatch is a logic bug in the calling module; pipelines that
// prefer to abort the run rather than continue use this option.
func WithPanicOnMismatch() Option {
	return func(s *Store) {
		s.panicOnMismatch = true
	}
}

// New creates an empty store.
// The name only labels log output and snapshots.
func New(name string, opts ...Option) *Store {
	s := &Store{
		name:   name,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		slots:  make(map[string]Slot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("store", name)
	return s
}

// Name returns the store's name.
func (s *Store) Name() string {
	return s.name
}

// Merge folds v into key using op, stamping the slot with ord.
//
// On failure the returned error is a *MergeError and the slot is unchanged.
func (s *Store) Merge(op Op, ord uint64, key string, v numeric.Value) error {
	if err := validateMerge(op, key, v); err != nil {
		return &MergeError{Op: op, Key: key, Ordinal: ord, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, found := s.slots[key]
	next, err := s.apply(op, ord, key, prev, found, v)
	if err != nil {
		return err
	}
	s.commit(ord, key, prev, found, next)
	return nil
}

// MergeText parses text in domain d and merges it into key.
// Malformed text fails with PARSE_ERROR before the slot is read.
func (s *Store) MergeText(op Op, d numeric.Domain, ord uint64, key, text string) error {
	v, err := numeric.Parse(d, text)
	if err != nil {
		return &MergeError{Op: op, Key: key, Ordinal: ord, Err: err}
	}
	return s.Merge(op, ord, key, v)
}

// Load seeds an empty store with slots, typically restored from a snapshot.
// No deltas are recorded.
func (s *Store) Load(slots []Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.slots) > 0 {
		return ErrNotEmpty
	}

	loaded := make(map[string]Slot, len(slots))
	for _, slot := range slots {
		if slot.Key == "" {
			return ErrEmptyKey
		}
		if slot.Value == nil {
			return fmt.Errorf("load %q: %w", slot.Key, ErrNilValue)
		}
		if slot.Domain != slot.Value.Domain() {
			return fmt.Errorf("load %q: %w", slot.Key, numeric.NewDomainMismatchError(slot.Domain, slot.Value.Domain()))
		}
		if _, dup := loaded[slot.Key]; dup {
			return fmt.Errorf("load %q: duplicate key", slot.Key)
		}
		loaded[slot.Key] = slot
	}

	s.slots = loaded
	s.logger.Debug("store loaded", "slots", len(loaded))
	return nil
}

// MergeStore folds every slot of other into s using op, carrying each
// slot's ordinal. Partial stores built over disjoint block ranges squash into
// the same result as merging all their inputs into one store.
//
// MergeStore is all-or-nothing: if any key fails (domain mismatch or
// overflow) no slot of s is modified.
func (s *Store) MergeStore(op Op, other *Store) error {
	if other == s {
		return fmt.Errorf("merge store %q into itself", s.name)
	}
	if !op.Valid() {
		return fmt.Errorf("unknown merge operation %q", op)
	}

	incoming := other.Slots()

	s.mu.Lock()
	defer s.mu.Unlock()

	type change struct {
		ord   uint64
		key   string
		prev  Slot
		found bool
		next  numeric.Value
	}
	changes := make([]change, 0, len(incoming))
	for _, slot := range incoming {
		prev, found := s.slots[slot.Key]
		next, err := s.apply(op, slot.Ordinal, slot.Key, prev, found, slot.Value)
		if err != nil {
			return err
		}
		changes = append(changes, change{slot.Ordinal, slot.Key, prev, found, next})
	}

	for _, c := range changes {
		s.commit(c.ord, c.key, c.prev, c.found, c.next)
	}
	s.logger.Debug("store merged", "from", other.name, "op", string(op), "slots", len(changes))
	return nil
}

// apply computes the merged value without touching the slot.
func (s *Store) apply(op Op, ord uint64, key string, prev Slot, found bool, v numeric.Value) (numeric.Value, error) {
	if found && prev.Domain != v.Domain() {
		err := &MergeError{
			Op:      op,
			Key:     key,
			Ordinal: ord,
			Err:     numeric.NewDomainMismatchError(prev.Domain, v.Domain()),
		}
		s.logger.Error("domain mismatch",
			"key", key,
			"op", string(op),
			"ordinal", ord,
			"have", prev.Domain.String(),
			"got", v.Domain().String(),
		)
		if s.panicOnMismatch {
			panic(err)
		}
		return nil, err
	}

	var (
		next numeric.Value
		err  error
	)
	switch op {
	case OpSum:
		base := numeric.Zero(v.Domain())
		if found {
			base = prev.Value
		}
		next, err = numeric.Add(base, v)
	case OpSetMin:
		next = v
		if found {
			next, err = numeric.Min(prev.Value, v)
		}
	case OpSetMax:
		next = v
		if found {
			next, err = numeric.Max(prev.Value, v)
		}
	default:
		err = fmt.Errorf("unknown merge operation %q", op)
	}
	if err != nil {
		s.logger.Warn("merge rejected", "key", key, "op", string(op), "ordinal", ord, "error", err)
		return nil, &MergeError{Op: op, Key: key, Ordinal: ord, Err: err}
	}
	return next, nil
}

// commit writes next into key and appends the matching delta.
// Callers hold s.mu.
func (s *Store) commit(ord uint64, key string, prev Slot, found bool, next numeric.Value) {
	delta := Delta{
		Operation: DeltaCreate,
		Ordinal:   ord,
		Key:       key,
		NewValue:  next,
	}
	if found {
		delta.Operation = DeltaUpdate
		delta.OldValue = prev.Value
		delta.OldOrdinal = prev.Ordinal
	}

	if n := len(s.deltas); n > 0 && ord < s.deltas[n-1].Ordinal {
		s.logger.Warn("ordinal went backwards", "key", key, "ordinal", ord, "previous", s.deltas[n-1].Ordinal)
	}

	s.deltas = append(s.deltas, delta)
	s.slots[key] = Slot{
		Key:     key,
		Domain:  next.Domain(),
		Value:   next,
		Ordinal: ord,
	}
	s.logger.Debug("merged", "key", key, "ordinal", ord, "value", next.String())
}

func validateMerge(op Op, key string, v numeric.Value) error {
	if !op.Valid() {
		return fmt.Errorf("unknown merge operation %q", op)
	}
	if key == "" {
		return ErrEmptyKey
	}
	if v == nil {
		return ErrNilValue
	}
	return nil
}

// sortedKeys returns the keys of s in ascending byte order.
// Callers hold s.mu.
func (s *Store) sortedKeys() []string {
	keys := make([]string, 0, len(s.slots))
	for k := range s.slots {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
