// Package numeric implements the value domains an accumulation store can
// hold.
//
// Four domains are supported:
//   - int64: fixed-width signed integer, overflow is an error (never wraps)
//   - float64: IEEE-754 double precision
//   - bigint: arbitrary-precision signed integer (math/big)
//   - bigdecimal: arbitrary-precision decimal with explicit scale (apd)
//
// Every domain exposes the same capabilities through package functions:
// Add, Min, Max, Parse and the canonical String form of a Value.
//
// # Float Ordering
//
// Float comparisons are not total. Min and Max therefore use this policy:
//   - NaN is never selected when the other operand is a number
//   - -0 orders below +0
//
// so that repeated merges converge to the same result in any order.
//
// # Decimal Scale
//
// Decimal addition is exact and keeps the larger scale of its operands
// (10.5 + 10.5 = 21.0). Min and Max compare by numeric value; between two
// numerically equal operands the one with the larger scale is selected.
//
// Parse rejects decimals whose exponent exceeds MaxDecimalExponent with
// PARSE_ERROR, so text input never reaches the exponent limits of the
// arithmetic context. Decimals built directly with NewBigDecimal are not
// bounded; if their sum leaves those limits Add reports ARITHMETIC_OVERFLOW
// for the bigdecimal domain.
package numeric
