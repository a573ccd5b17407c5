package cli

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/harness"
	"github.com/roach88/tally/internal/snapshot"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend BackendOptions
	Start   uint64 // snapshot range start, defaults to the first ordinal
	End     uint64 // snapshot range end, defaults to the last ordinal + 1

	startSet bool
	endSet   bool
}

// RunOutput is the result of a single scenario run.
type RunOutput struct {
	Scenario  string               `json:"scenario"`
	Pass      bool                 `json:"pass"`
	Trace     []harness.TraceEvent `json:"trace"`
	Errors    []string             `json:"errors,omitempty"`
	Stores    []harness.StoreState `json:"stores"`
	Snapshots []SavedSnapshot      `json:"snapshots,omitempty"`
}

// SavedSnapshot identifies a snapshot written by run.
type SavedSnapshot struct {
	ID    string         `json:"id"`
	Store string         `json:"store"`
	Range snapshot.Range `json:"range"`
	Slots int            `json:"slots"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its trace",
		Long: `Run a single scenario against fresh stores and print the trace and
final state. With --db or --leveldb the final state of every store is saved
as a snapshot.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed
  2 - Command error (invalid paths, etc.)

Examples:
  tally run ./scenarios/sum.yaml
  tally run ./scenarios/sum.yaml --db snapshots.db
  tally run ./scenarios/sum.yaml --leveldb ./snapshots --start 100 --end 200`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.startSet = cmd.Flags().Changed("start")
			opts.endSet = cmd.Flags().Changed("end")
			return runScenarioFile(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.Backend.addFlags(cmd)
	cmd.Flags().Uint64Var(&opts.Start, "start", 0, "snapshot range start (inclusive)")
	cmd.Flags().Uint64Var(&opts.End, "end", 0, "snapshot range end (exclusive)")

	return cmd
}

func runScenarioFile(ctx context.Context, opts *RunOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario not found: %s", path))
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	result, err := harness.Run(scenario, harness.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	golden := harness.NewTraceSnapshot(scenario.Name, result)
	out := RunOutput{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Trace:    result.Trace,
		Errors:   result.Errors,
		Stores:   golden.Stores,
	}

	if opts.Backend.configured() {
		saved, err := saveSnapshots(ctx, opts, result)
		if err != nil {
			return err
		}
		out.Snapshots = saved
	}

	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		printRunText(formatter, out)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// saveSnapshots captures every final store into the configured backend.
func saveSnapshots(ctx context.Context, opts *RunOptions, result *harness.Result) ([]SavedSnapshot, error) {
	r, err := snapshotRange(opts, result.Trace)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid snapshot range", err)
	}
	if err := r.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid snapshot range", err)
	}

	backend, err := opts.Backend.open()
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	stores := harness.NewTraceSnapshot("", result).Stores
	saved := make([]SavedSnapshot, 0, len(stores))
	for _, st := range stores {
		snap, err := snapshot.Capture(result.Stores[st.Name], r, nil)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to capture snapshot", err)
		}
		if err := backend.Save(ctx, snap); err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to save snapshot for %s", st.Name), err)
		}
		saved = append(saved, SavedSnapshot{
			ID:    snap.ID,
			Store: snap.StoreName,
			Range: snap.Range,
			Slots: len(snap.Slots),
		})
	}
	return saved, nil
}

// snapshotRange returns the flag range. An unset start is the lowest traced
// ordinal; an unset end is one past the highest traced ordinal or the start,
// whichever is greater.
func snapshotRange(opts *RunOptions, trace []harness.TraceEvent) (snapshot.Range, error) {
	var lo, hi uint64
	for i, ev := range trace {
		if i == 0 {
			lo, hi = ev.Ordinal, ev.Ordinal
			continue
		}
		lo = min(lo, ev.Ordinal)
		hi = max(hi, ev.Ordinal)
	}

	r := snapshot.Range{Start: lo, End: opts.End}
	if opts.startSet {
		r.Start = opts.Start
	}
	if !opts.endSet {
		last := max(hi, r.Start)
		if last == math.MaxUint64 {
			return snapshot.Range{}, fmt.Errorf("ordinal %d has no exclusive end, pass --end", last)
		}
		r.End = last + 1
	}
	return r, nil
}

func printRunText(f *OutputFormatter, out RunOutput) {
	status := "PASS"
	if !out.Pass {
		status = "FAIL"
	}
	f.Printf("Scenario: %s [%s]\n", out.Scenario, status)

	f.Printf("\nTrace (%d steps):\n", len(out.Trace))
	for _, ev := range out.Trace {
		f.Printf("  [%d] %s %s %s %q %q @%d -> %s", ev.Step, ev.Store, ev.Op, ev.Domain, ev.Key, ev.Input, ev.Ordinal, ev.Outcome)
		if ev.Code != "" {
			f.Printf(" (%s)", ev.Code)
		}
		if ev.Value != "" {
			f.Printf(" = %s", ev.Value)
		}
		f.Printf("\n")
	}

	f.Printf("\nStores:\n")
	for _, st := range out.Stores {
		f.Printf("  %s (%d keys)\n", st.Name, len(st.Slots))
		for _, slot := range st.Slots {
			f.Printf("    %s = %s [%s] @%d\n", slot.Key, slot.Value, slot.Domain, slot.Ordinal)
		}
	}

	if len(out.Snapshots) > 0 {
		f.Printf("\nSnapshots:\n")
		for _, s := range out.Snapshots {
			f.Printf("  %s %s %s (%d keys)\n", s.ID, s.Store, s.Range, s.Slots)
		}
	}

	if len(out.Errors) > 0 {
		f.Printf("\nErrors:\n")
		for _, e := range out.Errors {
			f.Printf("  %s\n", e)
		}
	}
}
