package store

import (
	"fmt"

	"github.com/roach88/tally/internal/numeric"
)

// Op names a merge aggregation rule.
type Op string

const (
	// OpSum adds the incoming value to the accumulated value.
	OpSum Op = "sum"

	// OpSetMin keeps the lesser of the accumulated and incoming values.
	OpSetMin Op = "set_min"

	// OpSetMax keeps the greater of the accumulated and incoming values.
	OpSetMax Op = "set_max"

	// opApply labels failures of ApplyDelta; it is not a merge rule.
	opApply Op = "apply"
)

// Ops lists every merge operation.
var Ops = []Op{OpSum, OpSetMin, OpSetMax}

// Valid reports whether op is a known merge operation.
func (op Op) Valid() bool {
	switch op {
	case OpSum, OpSetMin, OpSetMax:
		return true
	}
	return false
}

// ParseOp maps an operation name to its Op. "min" and "max" are accepted as
// short forms.
func ParseOp(name string) (Op, error) {
	switch name {
	case "sum":
		return OpSum, nil
	case "set_min", "min":
		return OpSetMin, nil
	case "set_max", "max":
		return OpSetMax, nil
	default:
		return "", fmt.Errorf("unknown merge operation %q", name)
	}
}

// Slot is the per-key stored state.
type Slot struct {
	Key     string
	Domain  numeric.Domain
	Value   numeric.Value
	Ordinal uint64
}

// DeltaOperation is the kind of change a Delta records.
type DeltaOperation string

const (
	// DeltaCreate records the Absent to Present transition of a key.
	DeltaCreate DeltaOperation = "CREATE"

	// DeltaUpdate records a merge into a Present key.
	DeltaUpdate DeltaOperation = "UPDATE"
)

// Delta records one committed change to one slot.
// OldValue is nil for DeltaCreate.
type Delta struct {
	Operation  DeltaOperation
	Ordinal    uint64
	Key        string
	OldValue   numeric.Value
	OldOrdinal uint64
	NewValue   numeric.Value
}
