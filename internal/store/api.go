package store

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/tally/internal/numeric"
)

// The typed merge entry points below are the surface pipeline modules call.
// Each fails with DOMAIN_MISMATCH when key is bound to another domain;
// SumInt64 additionally fails with ARITHMETIC_OVERFLOW.

// SumInt64 adds value to the int64 accumulator at key.
func (s *Store) SumInt64(ord uint64, key string, value int64) error {
	return s.Merge(OpSum, ord, key, numeric.Int64(value))
}

// SumFloat64 adds value to the float64 accumulator at key.
func (s *Store) SumFloat64(ord uint64, key string, value float64) error {
	return s.Merge(OpSum, ord, key, numeric.Float64(value))
}

// SumBigInt adds value to the arbitrary-precision integer accumulator at key.
func (s *Store) SumBigInt(ord uint64, key string, value *big.Int) error {
	return s.Merge(OpSum, ord, key, numeric.NewBigInt(value))
}

// SumBigFloat adds value to the arbitrary-precision decimal accumulator at key.
func (s *Store) SumBigFloat(ord uint64, key string, value *apd.Decimal) error {
	return s.Merge(OpSum, ord, key, numeric.NewBigDecimal(value))
}

// SetMinInt64 keeps the minimum int64 seen at key.
func (s *Store) SetMinInt64(ord uint64, key string, value int64) error {
	return s.Merge(OpSetMin, ord, key, numeric.Int64(value))
}

// SetMinFloat64 keeps the minimum float64 seen at key.
func (s *Store) SetMinFloat64(ord uint64, key string, value float64) error {
	return s.Merge(OpSetMin, ord, key, numeric.Float64(value))
}

// SetMinBigInt keeps the minimum arbitrary-precision integer seen at key.
func (s *Store) SetMinBigInt(ord uint64, key string, value *big.Int) error {
	return s.Merge(OpSetMin, ord, key, numeric.NewBigInt(value))
}

// SetMinBigFloat keeps the minimum arbitrary-precision decimal seen at key.
func (s *Store) SetMinBigFloat(ord uint64, key string, value *apd.Decimal) error {
	return s.Merge(OpSetMin, ord, key, numeric.NewBigDecimal(value))
}

// SetMaxInt64 keeps the maximum int64 seen at key.
func (s *Store) SetMaxInt64(ord uint64, key string, value int64) error {
	return s.Merge(OpSetMax, ord, key, numeric.Int64(value))
}

// SetMaxFloat64 keeps the maximum float64 seen at key.
func (s *Store) SetMaxFloat64(ord uint64, key string, value float64) error {
	return s.Merge(OpSetMax, ord, key, numeric.Float64(value))
}

// SetMaxBigInt keeps the maximum arbitrary-precision integer seen at key.
func (s *Store) SetMaxBigInt(ord uint64, key string, value *big.Int) error {
	return s.Merge(OpSetMax, ord, key, numeric.NewBigInt(value))
}

// SetMaxBigFloat keeps the maximum arbitrary-precision decimal seen at key.
func (s *Store) SetMaxBigFloat(ord uint64, key string, value *apd.Decimal) error {
	return s.Merge(OpSetMax, ord, key, numeric.NewBigDecimal(value))
}
