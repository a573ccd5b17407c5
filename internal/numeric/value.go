package numeric

import (
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface over the four numeric domains.
// Only Int64, Float64, BigInt and BigDecimal implement it.
//
// Values are immutable: arithmetic always returns a fresh Value and never
// modifies its operands.
type Value interface {
	// Domain returns the tag of the value's representation.
	Domain() Domain

	// String returns the canonical text form, accepted back by Parse.
	String() string

	numericValue() // Sealed
}

// Int64 is a fixed-width signed integer value.
type Int64 int64

func (Int64) numericValue() {}

// Domain implements Value.
func (Int64) Domain() Domain { return DomainInt64 }

func (v Int64) String() string { return strconv.FormatInt(int64(v), 10) }

// Float64 is an IEEE-754 double precision value.
type Float64 float64

func (Float64) numericValue() {}

// Domain implements Value.
func (Float64) Domain() Domain { return DomainFloat64 }

func (v Float64) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

// BigInt is an arbitrary-precision signed integer value.
// The zero BigInt is 0.
type BigInt struct {
	v *big.Int
}

func (BigInt) numericValue() {}

// NewBigInt copies x into a BigInt. A nil x is 0.
func NewBigInt(x *big.Int) BigInt {
	if x == nil {
		return BigInt{}
	}
	return BigInt{v: new(big.Int).Set(x)}
}

// NewBigIntFromInt64 creates a BigInt from an int64.
func NewBigIntFromInt64(n int64) BigInt {
	return BigInt{v: big.NewInt(n)}
}

// Domain implements Value.
func (BigInt) Domain() Domain { return DomainBigInt }

// Big returns a copy of the underlying integer.
func (v BigInt) Big() *big.Int {
	return new(big.Int).Set(v.int())
}

func (v BigInt) String() string { return v.int().String() }

func (v BigInt) int() *big.Int {
	if v.v == nil {
		return new(big.Int)
	}
	return v.v
}

// BigDecimal is an arbitrary-precision decimal value with explicit scale.
// The zero BigDecimal is 0 with scale 0.
type BigDecimal struct {
	d *apd.Decimal
}

func (BigDecimal) numericValue() {}

// NewBigDecimal copies d into a BigDecimal. A nil d is 0.
func NewBigDecimal(d *apd.Decimal) BigDecimal {
	if d == nil {
		return BigDecimal{}
	}
	return BigDecimal{d: new(apd.Decimal).Set(d)}
}

// Domain implements Value.
func (BigDecimal) Domain() Domain { return DomainBigDecimal }

// Decimal returns a copy of the underlying decimal.
func (v BigDecimal) Decimal() *apd.Decimal {
	return new(apd.Decimal).Set(v.dec())
}

// Scale returns the number of digits after the decimal point.
func (v BigDecimal) Scale() int32 {
	if e := v.dec().Exponent; e < 0 {
		return -e
	}
	return 0
}

// String returns the decimal in scientific-string form, which preserves the
// scale exactly ("21.0" stays "21.0").
func (v BigDecimal) String() string { return v.dec().String() }

func (v BigDecimal) dec() *apd.Decimal {
	if v.d == nil {
		return apd.New(0, 0)
	}
	return v.d
}

// Zero returns the additive identity of domain d.
// Returns nil for an invalid domain.
func Zero(d Domain) Value {
	switch d {
	case DomainInt64:
		return Int64(0)
	case DomainFloat64:
		return Float64(0)
	case DomainBigInt:
		return BigInt{}
	case DomainBigDecimal:
		return BigDecimal{}
	default:
		return nil
	}
}

// MaxDecimalExponent bounds parsed decimals: at most this many fractional
// digits and no digit above 10^MaxDecimalExponent. Sums of bounded decimals
// stay far inside the arithmetic context's exponent limits.
const MaxDecimalExponent = 10000

// Parse converts canonical base-10 text into a Value of domain d.
//
// Empty text, non-numeric characters and values outside the domain's range
// return a PARSE_ERROR, as do decimals beyond MaxDecimalExponent. Float text may be "NaN", "+Inf" or "-Inf"; decimal
// text may not.
func Parse(d Domain, text string) (Value, error) {
	if text == "" {
		return nil, NewParseError(d, text, "empty input")
	}

	switch d {
	case DomainInt64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, NewParseError(d, text, parseMessage(err))
		}
		return Int64(n), nil

	case DomainFloat64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, NewParseError(d, text, parseMessage(err))
		}
		return Float64(f), nil

	case DomainBigInt:
		n, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, NewParseError(d, text, "invalid base-10 integer")
		}
		return BigInt{v: n}, nil

	case DomainBigDecimal:
		dec, _, err := apd.NewFromString(text)
		if err != nil {
			return nil, NewParseError(d, text, "invalid base-10 decimal")
		}
		if dec.Form != apd.Finite {
			return nil, NewParseError(d, text, "decimal must be finite")
		}
		adjusted := int64(dec.Exponent) + dec.NumDigits() - 1
		if int64(dec.Exponent) < -MaxDecimalExponent || adjusted > MaxDecimalExponent {
			return nil, NewParseError(d, text, "decimal exponent out of range")
		}
		return BigDecimal{d: dec}, nil

	default:
		return nil, NewParseError(d, text, "unknown domain")
	}
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant tables.
func MustParse(d Domain, text string) Value {
	v, err := Parse(d, text)
	if err != nil {
		panic(err)
	}
	return v
}

func parseMessage(err error) string {
	if ne, ok := err.(*strconv.NumError); ok {
		if ne.Err == strconv.ErrRange {
			return "value out of range"
		}
	}
	return "invalid syntax"
}
