// Package harness runs accumulation scenarios against in-memory stores.
//
// A scenario names a CUE manifest declaring its stores, a list of merge
// steps, and assertions over the final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: sum_int64
//	description: "Two sums of 10 accumulate to 20"
//	manifest: stores.cue
//	steps:
//	  - store: sum.int.64
//	    key: sum.int.64
//	    value: "10"
//	    ordinal: 1
//	  - store: sum.int.64
//	    key: sum.int.64
//	    value: "10"
//	    expect_error: ARITHMETIC_OVERFLOW
//	assertions:
//	  - type: final_value
//	    store: sum.int.64
//	    key: sum.int.64
//	    expect: "20"
//
// Values are always quoted strings so that their exact text, including
// trailing zeros, reaches the parser. A step's op and domain default to the
// manifest entry of its store.
//
// # Assertion Types
//
//   - final_value: the key is Present with the expected canonical text
//   - absent: the key was never successfully merged
//   - final_ordinal: the key's last merge carried the expected ordinal
//   - slot_count: the store holds exactly count Present keys
//   - value_at: the key's value once every merge up to ordinal "at" applied
//
// # Deterministic Testing
//
// A step without an ordinal takes the next one from an ordinal.Clock.
// Explicit ordinals advance the clock, so mixing both never reuses an
// ordinal. A scenario-level ordinal switches to ordinal.Fixed instead and
// every such step shares it. Traces are therefore identical across runs and
// can be compared against golden files.
//
// # Failures
//
// A merge that fails without a matching expect_error marks the scenario as
// failed. The failed step leaves its slot unchanged and the remaining steps
// still run, so one report lists every problem.
package harness
