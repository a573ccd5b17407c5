package numeric

import "fmt"

// Domain tags the numeric representation bound to an accumulator.
type Domain uint8

const (
	// DomainUnknown is the zero Domain and never valid for a value.
	DomainUnknown Domain = iota
	DomainInt64
	DomainFloat64
	DomainBigInt
	DomainBigDecimal
)

// Domains lists every valid domain in declaration order.
var Domains = []Domain{DomainInt64, DomainFloat64, DomainBigInt, DomainBigDecimal}

func (d Domain) String() string {
	switch d {
	case DomainInt64:
		return "int64"
	case DomainFloat64:
		return "float64"
	case DomainBigInt:
		return "bigint"
	case DomainBigDecimal:
		return "bigdecimal"
	default:
		return fmt.Sprintf("domain(%d)", uint8(d))
	}
}

// Valid reports whether d is one of the four supported domains.
func (d Domain) Valid() bool {
	return d >= DomainInt64 && d <= DomainBigDecimal
}

// ParseDomain maps a domain name to its tag.
// "bigfloat" is accepted as an alias of "bigdecimal".
func ParseDomain(name string) (Domain, error) {
	switch name {
	case "int64":
		return DomainInt64, nil
	case "float64":
		return DomainFloat64, nil
	case "bigint":
		return DomainBigInt, nil
	case "bigdecimal", "bigfloat":
		return DomainBigDecimal, nil
	default:
		return DomainUnknown, fmt.Errorf("unknown numeric domain %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Domain) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid domain %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Domain) UnmarshalText(text []byte) error {
	parsed, err := ParseDomain(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
