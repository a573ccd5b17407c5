package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/tally/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Steps that touched the asserted key
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps on key:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %q @%d -> %s", ev.Step, ev.Op, ev.Domain, ev.Input, ev.Ordinal, ev.Outcome)
			if ev.Code != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Code)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// AssertionContext provides the stores assertions read from.
type AssertionContext struct {
	Stores map[string]*store.Store
}

// EvaluateAssertions evaluates every assertion and returns the failure
// messages. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	st, ok := actx.Stores[a.Store]
	if !ok {
		return fmt.Errorf("unknown store %q", a.Store)
	}
	trace := keyTrace(result.Trace, a.Store, a.Key)

	switch a.Type {
	case AssertFinalValue:
		return assertFinalValue(st, a, trace)
	case AssertAbsent:
		return assertAbsent(st, a, trace)
	case AssertFinalOrdinal:
		return assertFinalOrdinal(st, a, trace)
	case AssertSlotCount:
		return assertSlotCount(st, a)
	case AssertValueAt:
		return assertValueAt(st, a, trace)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertFinalValue(st *store.Store, a Assertion, trace []TraceEvent) error {
	slot, ok := st.Get(a.Key)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", a.Key, a.Expect),
			Actual:   "key is absent",
			Trace:    trace,
		}
	}
	if got := slot.Value.String(); got != a.Expect {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", a.Key, a.Expect),
			Actual:   fmt.Sprintf("%s = %s", a.Key, got),
			Trace:    trace,
		}
	}
	return nil
}

func assertAbsent(st *store.Store, a Assertion, trace []TraceEvent) error {
	if slot, ok := st.Get(a.Key); ok {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("%s absent", a.Key),
			Actual:   fmt.Sprintf("%s = %s", a.Key, slot.Value.String()),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalOrdinal(st *store.Store, a Assertion, trace []TraceEvent) error {
	slot, ok := st.Get(a.Key)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalOrdinal,
			Expected: fmt.Sprintf("%s at ordinal %d", a.Key, *a.Ordinal),
			Actual:   "key is absent",
			Trace:    trace,
		}
	}
	if slot.Ordinal != *a.Ordinal {
		return &AssertionError{
			Type:     AssertFinalOrdinal,
			Expected: fmt.Sprintf("%s at ordinal %d", a.Key, *a.Ordinal),
			Actual:   fmt.Sprintf("%s at ordinal %d", a.Key, slot.Ordinal),
			Trace:    trace,
		}
	}
	return nil
}

func assertSlotCount(st *store.Store, a Assertion) error {
	if got := st.Len(); got != *a.Count {
		return &AssertionError{
			Type:     AssertSlotCount,
			Expected: fmt.Sprintf("%d keys in %s", *a.Count, a.Store),
			Actual:   fmt.Sprintf("%d keys: %v", got, st.Keys()),
		}
	}
	return nil
}

func assertValueAt(st *store.Store, a Assertion, trace []TraceEvent) error {
	slot, ok := st.GetAt(*a.At, a.Key)
	expected := fmt.Sprintf("%s = %s at ordinal %d", a.Key, a.Expect, *a.At)
	if !ok {
		return &AssertionError{
			Type:     AssertValueAt,
			Expected: expected,
			Actual:   "key is absent at that ordinal",
			Trace:    trace,
		}
	}
	if got := slot.Value.String(); got != a.Expect {
		return &AssertionError{
			Type:     AssertValueAt,
			Expected: expected,
			Actual:   fmt.Sprintf("%s = %s", a.Key, got),
			Trace:    trace,
		}
	}
	return nil
}

// keyTrace returns the steps that targeted key in the named store.
func keyTrace(trace []TraceEvent, storeName, key string) []TraceEvent {
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Store == storeName && ev.Key == key {
			out = append(out, ev)
		}
	}
	return out
}
