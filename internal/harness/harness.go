package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tally/internal/manifest"
	"github.com/roach88/tally/internal/numeric"
	"github.com/roach88/tally/internal/ordinal"
	"github.com/roach88/tally/internal/store"
)

// ErrCodeInvalidMerge is reported for merges rejected before reaching the
// numeric layer, such as an empty key.
const ErrCodeInvalidMerge numeric.ErrorCode = "INVALID_MERGE"

// Harness is the scenario execution engine.
type Harness struct {
	manifest *manifest.Manifest
	stores   map[string]*store.Store
	clock    sequencer
	logger   *slog.Logger
}

// sequencer assigns ordinals to steps that omit one. Explicit step
// ordinals are observed so later automatic ones follow them.
type sequencer interface {
	ordinal.Source
	Observe(ord uint64)
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes store and step diagnostics to logger.
// Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each run creates fresh stores from the scenario's manifest. The returned
// error is reserved for scenarios that cannot run at all (missing manifest,
// unknown store); merge failures and failed assertions are reported in
// Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	m, err := manifest.Load(scenario.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	h := &Harness{
		manifest: m,
		clock:    ordinal.NewClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if scenario.Ordinal != nil {
		h.clock = ordinal.Fixed(*scenario.Ordinal)
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("scenario", scenario.Name)
	h.stores = m.NewStores(store.WithLogger(h.logger))

	result := NewResult()
	if err := h.executeSteps(scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	actx := &AssertionContext{Stores: h.stores}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	for name, st := range h.stores {
		result.State[name] = slotStates(st)
		result.Stores[name] = st
	}

	return result, nil
}

// executeSteps runs every step, recording failures without stopping.
func (h *Harness) executeSteps(steps []Step, result *Result) error {
	for i, step := range steps {
		decl, ok := h.manifest.Lookup(step.Store)
		if !ok {
			return fmt.Errorf("step %d: store %q is not declared in the manifest", i, step.Store)
		}

		op := decl.Policy
		if step.Op != "" {
			parsed, err := store.ParseOp(step.Op)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			op = parsed
		}

		domain := decl.Domain
		if step.Domain != "" {
			parsed, err := numeric.ParseDomain(step.Domain)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			domain = parsed
		}

		var ord uint64
		if step.Ordinal != nil {
			ord = *step.Ordinal
			h.clock.Observe(ord)
		} else {
			ord = h.clock.Next()
		}

		st := h.stores[step.Store]
		mergeErr := st.MergeText(op, domain, ord, step.Key, step.Value)

		ev := TraceEvent{
			Step:    i,
			Store:   step.Store,
			Op:      string(op),
			Domain:  domain.String(),
			Key:     step.Key,
			Input:   step.Value,
			Ordinal: ord,
			Outcome: OutcomeMerged,
		}
		if mergeErr != nil {
			ev.Outcome = OutcomeRejected
			ev.Code = string(errorCode(mergeErr))
		}
		if slot, ok := st.Get(step.Key); ok {
			ev.Value = slot.Value.String()
		}
		result.AddTrace(ev)

		h.checkStep(i, step, mergeErr, result)
	}
	return nil
}

// checkStep compares a step's outcome against its expect_error.
func (h *Harness) checkStep(i int, step Step, mergeErr error, result *Result) {
	want := numeric.ErrorCode(step.ExpectError)
	switch {
	case want == "" && mergeErr != nil:
		h.logger.Warn("step failed", "step", i, "store", step.Store, "key", step.Key, "error", mergeErr)
		result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, mergeErr))
	case want != "" && mergeErr == nil:
		result.AddError(fmt.Sprintf("steps[%d]: expected %s, merge succeeded", i, want))
	case want != "" && errorCode(mergeErr) != want:
		result.AddError(fmt.Sprintf("steps[%d]: expected %s, got %s: %v", i, want, errorCode(mergeErr), mergeErr))
	default:
		h.logger.Debug("step completed", "step", i, "store", step.Store, "key", step.Key)
	}
}

// errorCode maps a merge error to its reported code.
func errorCode(err error) numeric.ErrorCode {
	if code := numeric.CodeOf(err); code != "" {
		return code
	}
	return ErrCodeInvalidMerge
}

func slotStates(st *store.Store) []SlotState {
	slots := st.Slots()
	out := make([]SlotState, len(slots))
	for i, slot := range slots {
		out[i] = SlotState{
			Key:     slot.Key,
			Domain:  slot.Domain.String(),
			Value:   slot.Value.String(),
			Ordinal: slot.Ordinal,
		}
	}
	return out
}
