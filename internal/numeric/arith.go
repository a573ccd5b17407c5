package numeric

import (
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext performs exact decimal arithmetic: zero precision disables
// rounding, exponent limits are the package maximums.
var decimalContext = apd.BaseContext

// Add returns a+b in the operands' shared domain.
//
// Int64 addition that leaves the int64 range returns ARITHMETIC_OVERFLOW.
// Operands of different domains return DOMAIN_MISMATCH.
func Add(a, b Value) (Value, error) {
	if err := sameDomain(a, b); err != nil {
		return nil, err
	}

	switch x := a.(type) {
	case Int64:
		y := b.(Int64)
		sum := x + y
		if (y > 0 && sum < x) || (y < 0 && sum > x) {
			return nil, NewOverflowError(DomainInt64, "int64 addition overflows")
		}
		return sum, nil

	case Float64:
		return x + b.(Float64), nil

	case BigInt:
		y := b.(BigInt)
		return BigInt{v: new(big.Int).Add(x.int(), y.int())}, nil

	case BigDecimal:
		y := b.(BigDecimal)
		sum := new(apd.Decimal)
		if _, err := decimalContext.Add(sum, x.dec(), y.dec()); err != nil {
			return nil, NewOverflowError(DomainBigDecimal, err.Error())
		}
		return BigDecimal{d: sum}, nil
	}

	return nil, NewDomainMismatchError(DomainUnknown, DomainUnknown)
}

// Min returns the lesser of a and b.
//
// For floats NaN is never the minimum of a number and -0 is less than +0.
// For decimals equal values resolve to the operand with the larger scale.
// Ties otherwise return a.
func Min(a, b Value) (Value, error) {
	return pick(a, b, -1)
}

// Max returns the greater of a and b, with the same tie and NaN policy as
// Min mirrored (+0 is greater than -0).
func Max(a, b Value) (Value, error) {
	return pick(a, b, 1)
}

// Compare orders a and b: -1 if a < b, 0 if equal, 1 if a > b.
//
// Floats use the total order applied by Min: NaN sorts above every number
// and -0 below +0. Decimals compare by numeric value only.
func Compare(a, b Value) (int, error) {
	if err := sameDomain(a, b); err != nil {
		return 0, err
	}

	switch x := a.(type) {
	case Int64:
		return cmpOrdered(x, b.(Int64)), nil
	case Float64:
		return compareFloat(float64(x), float64(b.(Float64))), nil
	case BigInt:
		return x.int().Cmp(b.(BigInt).int()), nil
	case BigDecimal:
		return x.dec().Cmp(b.(BigDecimal).dec()), nil
	}
	return 0, NewDomainMismatchError(DomainUnknown, DomainUnknown)
}

// pick returns the operand on the side of want (-1 for min, 1 for max).
func pick(a, b Value, want int) (Value, error) {
	if err := sameDomain(a, b); err != nil {
		return nil, err
	}

	if fa, ok := a.(Float64); ok {
		return pickFloat(fa, b.(Float64), want), nil
	}

	c, err := Compare(a, b)
	if err != nil {
		return nil, err
	}
	if c == want {
		return a, nil
	}
	if c == -want {
		return b, nil
	}

	if da, ok := a.(BigDecimal); ok {
		return pickDecimalTie(da, b.(BigDecimal), want), nil
	}
	return a, nil
}

// pickFloat applies the NaN policy before the total order.
func pickFloat(a, b Float64, want int) Float64 {
	if math.IsNaN(float64(a)) {
		return b
	}
	if math.IsNaN(float64(b)) {
		return a
	}
	if compareFloat(float64(a), float64(b)) == -want {
		return b
	}
	return a
}

// pickDecimalTie resolves numerically equal decimals independent of order:
// larger scale first, then sign of zero.
func pickDecimalTie(a, b BigDecimal, want int) BigDecimal {
	ea, eb := a.dec().Exponent, b.dec().Exponent
	if ea != eb {
		if ea < eb {
			return a
		}
		return b
	}
	na, nb := a.dec().Negative, b.dec().Negative
	if na != nb {
		// -0 on the min side, +0 on the max side.
		if (want < 0) == na {
			return a
		}
		return b
	}
	return a
}

func compareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	if a == b {
		sa, sb := math.Signbit(a), math.Signbit(b)
		switch {
		case sa == sb:
			return 0
		case sa:
			return -1
		default:
			return 1
		}
	}
	if a < b {
		return -1
	}
	return 1
}

func cmpOrdered[T ~int64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sameDomain(a, b Value) error {
	if a == nil || b == nil {
		return NewDomainMismatchError(domainOf(a), domainOf(b))
	}
	if a.Domain() != b.Domain() {
		return NewDomainMismatchError(a.Domain(), b.Domain())
	}
	return nil
}

func domainOf(v Value) Domain {
	if v == nil {
		return DomainUnknown
	}
	return v.Domain()
}
