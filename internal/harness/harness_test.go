package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func loadTestScenario(t *testing.T, yamlContent string) *Scenario {
	t.Helper()
	s, err := LoadScenario(writeScenario(t, yamlContent))
	require.NoError(t, err)
	return s
}

func TestRun_Passing(t *testing.T) {
	s := loadTestScenario(t, `
name: passing
description: "Sums and mins"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "10"}
  - {store: counts, key: a, value: "-3"}
  - {store: low, key: m, value: "2.50"}
  - {store: low, key: m, value: "2.5"}
assertions:
  - {type: final_value, store: counts, key: a, expect: "7"}
  - {type: final_ordinal, store: counts, key: a, ordinal: 2}
  - {type: final_value, store: low, key: m, expect: "2.50"}
  - {type: slot_count, store: low, count: 1}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 4)
	assert.Equal(t, uint64(1), result.Trace[0].Ordinal)
	assert.Equal(t, uint64(4), result.Trace[3].Ordinal)
	assert.Equal(t, "set_min", result.Trace[2].Op)
	assert.Equal(t, "bigdecimal", result.Trace[2].Domain)
	assert.Equal(t, OutcomeMerged, result.Trace[1].Outcome)
	assert.Equal(t, "7", result.Trace[1].Value)

	require.Contains(t, result.State, "counts")
	assert.Equal(t, []SlotState{{Key: "a", Domain: "int64", Value: "7", Ordinal: 2}}, result.State["counts"])
}

func TestRun_UnexpectedErrorContinues(t *testing.T) {
	s := loadTestScenario(t, `
name: unexpected
description: "A failing step does not stop the run"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "9223372036854775807"}
  - {store: counts, key: a, value: "1"}
  - {store: counts, key: b, value: "5"}
assertions:
  - {type: final_value, store: counts, key: b, expect: "5"}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1]: unexpected error")

	require.Len(t, result.Trace, 3)
	assert.Equal(t, OutcomeRejected, result.Trace[1].Outcome)
	assert.Equal(t, "ARITHMETIC_OVERFLOW", result.Trace[1].Code)
	assert.Equal(t, OutcomeMerged, result.Trace[2].Outcome)
}

func TestRun_ExpectErrorMismatch(t *testing.T) {
	s := loadTestScenario(t, `
name: wrong_expectation
description: "expect_error must match the actual code"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "1", expect_error: PARSE_ERROR}
  - {store: counts, key: b, value: "x", expect_error: ARITHMETIC_OVERFLOW}
  - {store: counts, key: "", value: "1", expect_error: INVALID_MERGE}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected PARSE_ERROR, merge succeeded")
	assert.Contains(t, result.Errors[1], "expected ARITHMETIC_OVERFLOW, got PARSE_ERROR")
	assert.Equal(t, "INVALID_MERGE", result.Trace[2].Code)
}

func TestRun_FailedAssertions(t *testing.T) {
	s := loadTestScenario(t, `
name: failing_assertions
description: "Assertion failures are collected"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "1"}
assertions:
  - {type: final_value, store: counts, key: a, expect: "2"}
  - {type: absent, store: counts, key: a}
  - {type: final_ordinal, store: counts, key: a, ordinal: 9}
  - {type: slot_count, store: counts, count: 3}
  - {type: value_at, store: counts, key: a, at: 0, expect: "1"}
  - {type: final_value, store: nope, key: a, expect: "1"}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[5], `unknown store "nope"`)
}

func TestRun_UndeclaredStore(t *testing.T) {
	s := loadTestScenario(t, `
name: undeclared
description: "Steps must target declared stores"
manifest: stores.cue
steps:
  - {store: missing, key: a, value: "1"}
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store "missing" is not declared`)
}

func TestRun_InvalidManifest(t *testing.T) {
	s := &Scenario{
		Name:        "bad_manifest",
		Description: "Manifest file missing",
		Manifest:    "does-not-exist.cue",
		Steps:       []Step{{Store: "counts", Key: "a", Value: "1"}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifest")
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/history.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Pass, second.Pass)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Errors, second.Errors)
}

func TestRun_FixedOrdinal(t *testing.T) {
	s := loadTestScenario(t, `
name: fixed
description: "Every step shares one ordinal unless it sets its own"
manifest: stores.cue
ordinal: 1
steps:
  - {store: counts, key: a, value: "10"}
  - {store: counts, key: a, value: "10"}
  - {store: counts, key: b, value: "5", ordinal: 9}
  - {store: counts, key: b, value: "5"}
assertions:
  - {type: final_value, store: counts, key: a, expect: "20"}
  - {type: final_ordinal, store: counts, key: a, ordinal: 1}
  - {type: final_ordinal, store: counts, key: b, ordinal: 1}
`)
	require.NotNil(t, s.Ordinal)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	ords := make([]uint64, len(result.Trace))
	for i, ev := range result.Trace {
		ords[i] = ev.Ordinal
	}
	assert.Equal(t, []uint64{1, 1, 9, 1}, ords)
}

func TestRun_FinalStores(t *testing.T) {
	s := loadTestScenario(t, `
name: stores
description: "Result exposes the final stores"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "3"}
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.Contains(t, result.Stores, "counts")
	require.Contains(t, result.Stores, "low")

	slot, ok := result.Stores["counts"].Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", slot.Value.String())
	assert.Equal(t, 0, result.Stores["low"].Len())
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := loadTestScenario(t, `
name: logged
description: "Failures are logged"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "1"}
  - {store: counts, key: a, value: "1.5", domain: float64}
`)

	_, err := Run(s, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario=logged")
	assert.Contains(t, buf.String(), "domain mismatch")
	assert.Contains(t, buf.String(), "step failed")
}

func TestRun_Testdata(t *testing.T) {
	for _, name := range []string{"sum_int64", "sum_numeric", "set_min", "rejected_merges", "history"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestEvaluateAssertions_ExplicitContext(t *testing.T) {
	s := loadTestScenario(t, `
name: ctx
description: "Assertions against explicit stores"
manifest: stores.cue
steps:
  - {store: counts, key: a, value: "3", ordinal: 5}
`)
	result, err := Run(s)
	require.NoError(t, err)

	assertions := []Assertion{
		{Type: AssertFinalOrdinal, Store: "counts", Key: "a", Ordinal: ptr(uint64(5))},
		{Type: AssertValueAt, Store: "counts", Key: "a", At: ptr(uint64(5)), Expect: "3"},
	}
	errs := EvaluateAssertions(result, assertions, &AssertionContext{Stores: nil})
	assert.Len(t, errs, 2, "stores are required to evaluate")
}
