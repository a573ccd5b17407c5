package snapshot

import (
	"fmt"

	"github.com/roach88/tally/internal/numeric"
	"github.com/roach88/tally/internal/store"
)

// encodedSlot is the storage form of a slot.
type encodedSlot struct {
	Key     string `json:"key"`
	Domain  string `json:"domain"`
	Value   string `json:"value"`
	Ordinal uint64 `json:"ordinal"`
}

func encodeSlot(slot store.Slot) (encodedSlot, error) {
	if slot.Value == nil {
		return encodedSlot{}, fmt.Errorf("encode slot %q: %w", slot.Key, store.ErrNilValue)
	}
	return encodedSlot{
		Key:     slot.Key,
		Domain:  slot.Domain.String(),
		Value:   slot.Value.String(),
		Ordinal: slot.Ordinal,
	}, nil
}

func decodeSlot(e encodedSlot) (store.Slot, error) {
	d, err := numeric.ParseDomain(e.Domain)
	if err != nil {
		return store.Slot{}, fmt.Errorf("decode slot %q: %w", e.Key, err)
	}
	v, err := numeric.Parse(d, e.Value)
	if err != nil {
		return store.Slot{}, fmt.Errorf("decode slot %q: %w", e.Key, err)
	}
	return store.Slot{Key: e.Key, Domain: d, Value: v, Ordinal: e.Ordinal}, nil
}
