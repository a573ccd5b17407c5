package store

import "github.com/roach88/tally/internal/numeric"

// Get returns the slot for key and whether the key is Present.
// An Absent key returns the zero Slot and false, never a default value.
func (s *Store) Get(key string) (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[key]
	return slot, ok
}

// GetLast is Get under the name block processors use for "value after every
// merge so far".
func (s *Store) GetLast(key string) (Slot, bool) {
	return s.Get(key)
}

// GetFirst returns the slot for key as it was before the current delta log,
// that is, at the last Reset.
func (s *Store) GetFirst(key string) (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.deltas {
		if d.Key != key {
			continue
		}
		if d.Operation == DeltaCreate {
			return Slot{}, false
		}
		return Slot{Key: key, Domain: d.OldValue.Domain(), Value: d.OldValue, Ordinal: d.OldOrdinal}, true
	}

	slot, ok := s.slots[key]
	return slot, ok
}

// GetAt returns the slot for key as it was once every merge with an ordinal
// up to and including ord had been applied.
//
// The delta log is walked backwards and stops at the first delta at or
// below ord, so ordinals are expected to be non-decreasing within the log.
func (s *Store) GetAt(ord uint64, key string) (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, found := s.slots[key]
	for i := len(s.deltas) - 1; i >= 0; i-- {
		d := s.deltas[i]
		if d.Ordinal <= ord {
			break
		}
		if d.Key != key {
			continue
		}
		switch d.Operation {
		case DeltaCreate:
			slot, found = Slot{}, false
		case DeltaUpdate:
			slot = Slot{Key: key, Domain: d.OldValue.Domain(), Value: d.OldValue, Ordinal: d.OldOrdinal}
			found = true
		}
	}
	return slot, found
}

// Len returns the number of Present keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Keys returns every Present key in ascending byte order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedKeys()
}

// Slots returns every slot ordered by key.
// Values are immutable, so the returned slots may be retained.
func (s *Store) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.sortedKeys()
	out := make([]Slot, len(keys))
	for i, k := range keys {
		out[i] = s.slots[k]
	}
	return out
}

// Deltas returns a copy of the delta log in commit order.
func (s *Store) Deltas() []Delta {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Delta, len(s.deltas))
	copy(out, s.deltas)
	return out
}

// Reset clears the delta log. Slots are kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = nil
}

// ApplyDelta replays a delta produced by another store: the slot for d.Key
// is set to d.NewValue at d.Ordinal. The domain of a Present key must match.
func (s *Store) ApplyDelta(d Delta) error {
	if d.Key == "" {
		return ErrEmptyKey
	}
	if d.NewValue == nil {
		return &MergeError{Op: opApply, Key: d.Key, Ordinal: d.Ordinal, Err: ErrNilValue}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, found := s.slots[d.Key]
	if found && prev.Domain != d.NewValue.Domain() {
		return &MergeError{
			Op:      opApply,
			Key:     d.Key,
			Ordinal: d.Ordinal,
			Err:     numeric.NewDomainMismatchError(prev.Domain, d.NewValue.Domain()),
		}
	}
	s.commit(d.Ordinal, d.Key, prev, found, d.NewValue)
	return nil
}
