package harness

import "github.com/roach88/tally/internal/store"

// Step outcomes.
const (
	OutcomeMerged   = "merged"
	OutcomeRejected = "rejected"
)

// TraceEvent is one executed step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Store   string `json:"store"`
	Op      string `json:"op"`
	Domain  string `json:"domain"`
	Key     string `json:"key"`
	Input   string `json:"input"`
	Ordinal uint64 `json:"ordinal"`
	Outcome string `json:"outcome"`

	// Code is the error code of a rejected step.
	Code string `json:"code,omitempty"`

	// Value is the slot's canonical text after the step, empty if Absent.
	Value string `json:"value,omitempty"`
}

// SlotState is the final state of one key.
type SlotState struct {
	Key     string `json:"key"`
	Domain  string `json:"domain"`
	Value   string `json:"value"`
	Ordinal uint64 `json:"ordinal"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if no step failed unexpectedly and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps store names to their final slots ordered by key.
	State map[string][]SlotState `json:"state"`

	// Stores holds the final stores by name.
	Stores map[string]*store.Store `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string][]SlotState),
		Stores: make(map[string]*store.Store),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
