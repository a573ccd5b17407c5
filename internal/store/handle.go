package store

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/tally/internal/numeric"
)

// Handle is a key bound to one domain. Values pass through a Handle as plain
// Go types, so a caller holding a Handle[int64] cannot merge a float into
// that key.
type Handle[T any] struct {
	store *Store
	key   string
	codec codec[T]
}

type codec[T any] struct {
	domain numeric.Domain
	wrap   func(T) numeric.Value
	unwrap func(numeric.Value) T
}

var (
	int64Codec = codec[int64]{
		domain: numeric.DomainInt64,
		wrap:   func(v int64) numeric.Value { return numeric.Int64(v) },
		unwrap: func(v numeric.Value) int64 { return int64(v.(numeric.Int64)) },
	}
	float64Codec = codec[float64]{
		domain: numeric.DomainFloat64,
		wrap:   func(v float64) numeric.Value { return numeric.Float64(v) },
		unwrap: func(v numeric.Value) float64 { return float64(v.(numeric.Float64)) },
	}
	bigIntCodec = codec[*big.Int]{
		domain: numeric.DomainBigInt,
		wrap:   func(v *big.Int) numeric.Value { return numeric.NewBigInt(v) },
		unwrap: func(v numeric.Value) *big.Int { return v.(numeric.BigInt).Big() },
	}
	bigDecimalCodec = codec[*apd.Decimal]{
		domain: numeric.DomainBigDecimal,
		wrap:   func(v *apd.Decimal) numeric.Value { return numeric.NewBigDecimal(v) },
		unwrap: func(v numeric.Value) *apd.Decimal { return v.(numeric.BigDecimal).Decimal() },
	}
)

// BindInt64 returns an int64 handle for key.
func BindInt64(s *Store, key string) (Handle[int64], error) {
	return bind(s, key, int64Codec)
}

// BindFloat64 returns a float64 handle for key.
func BindFloat64(s *Store, key string) (Handle[float64], error) {
	return bind(s, key, float64Codec)
}

// BindBigInt returns an arbitrary-precision integer handle for key.
func BindBigInt(s *Store, key string) (Handle[*big.Int], error) {
	return bind(s, key, bigIntCodec)
}

// BindBigDecimal returns an arbitrary-precision decimal handle for key.
func BindBigDecimal(s *Store, key string) (Handle[*apd.Decimal], error) {
	return bind(s, key, bigDecimalCodec)
}

// bind checks key against its current domain once, at handle creation.
func bind[T any](s *Store, key string, c codec[T]) (Handle[T], error) {
	if key == "" {
		return Handle[T]{}, ErrEmptyKey
	}
	if slot, ok := s.Get(key); ok && slot.Domain != c.domain {
		return Handle[T]{}, fmt.Errorf("bind %q: %w", key, numeric.NewDomainMismatchError(slot.Domain, c.domain))
	}
	return Handle[T]{store: s, key: key, codec: c}, nil
}

// Key returns the bound key.
func (h Handle[T]) Key() string {
	return h.key
}

// Domain returns the bound domain.
func (h Handle[T]) Domain() numeric.Domain {
	return h.codec.domain
}

// Sum adds v at ord.
func (h Handle[T]) Sum(ord uint64, v T) error {
	return h.merge(OpSum, ord, v)
}

// SetMin keeps the minimum of the accumulated value and v.
func (h Handle[T]) SetMin(ord uint64, v T) error {
	return h.merge(OpSetMin, ord, v)
}

// SetMax keeps the maximum of the accumulated value and v.
func (h Handle[T]) SetMax(ord uint64, v T) error {
	return h.merge(OpSetMax, ord, v)
}

// Get returns the accumulated value and whether the key is Present in the
// handle's domain.
func (h Handle[T]) Get() (T, bool) {
	var zero T
	if h.store == nil {
		return zero, false
	}
	slot, ok := h.store.Get(h.key)
	if !ok || slot.Domain != h.codec.domain {
		return zero, false
	}
	return h.codec.unwrap(slot.Value), true
}

func (h Handle[T]) merge(op Op, ord uint64, v T) error {
	if h.store == nil {
		return ErrUnboundHandle
	}
	return h.store.Merge(op, ord, h.key, h.codec.wrap(v))
}
