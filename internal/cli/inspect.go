package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/snapshot"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Backend BackendOptions
	Store   string // store name, selects the latest snapshot
	ID      string // snapshot id, overrides Store
}

// InspectOutput is a snapshot as printed by inspect.
type InspectOutput struct {
	ID    string         `json:"id"`
	Store string         `json:"store"`
	Range snapshot.Range `json:"range"`
	File  string         `json:"file"`
	Slots []InspectSlot  `json:"slots"`
}

// InspectSlot is one slot of an inspected snapshot.
type InspectSlot struct {
	Key     string `json:"key"`
	Domain  string `json:"domain"`
	Value   string `json:"value"`
	Ordinal uint64 `json:"ordinal"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a saved store snapshot",
		Long: `Print a snapshot saved by "tally run".

Without --id the latest snapshot of --store is shown: the one with the
highest range end, the widest range winning ties.

Examples:
  tally inspect --db snapshots.db --store counts
  tally inspect --leveldb ./snapshots --id 0190f3a4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), opts, cmd)
		},
	}

	opts.Backend.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Store, "store", "", "store name")
	cmd.Flags().StringVar(&opts.ID, "id", "", "snapshot id")

	return cmd
}

func runInspect(ctx context.Context, opts *InspectOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Store == "" && opts.ID == "" {
		return NewExitError(ExitCommandError, "one of --store or --id is required")
	}

	backend, err := opts.Backend.open()
	if err != nil {
		return err
	}
	defer backend.Close()

	var snap snapshot.Snapshot
	if opts.ID != "" {
		snap, err = backend.Load(ctx, opts.ID)
	} else {
		snap, err = backend.Latest(ctx, opts.Store)
	}
	if errors.Is(err, snapshot.ErrNotFound) {
		msg := fmt.Sprintf("no snapshot for store %q", opts.Store)
		if opts.ID != "" {
			msg = fmt.Sprintf("snapshot %s not found", opts.ID)
		}
		if err := formatter.Error(ErrCodeNotFound, msg, nil); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	out := InspectOutput{
		ID:    snap.ID,
		Store: snap.StoreName,
		Range: snap.Range,
		File:  snapshot.FileName(snap.Range),
		Slots: make([]InspectSlot, len(snap.Slots)),
	}
	for i, slot := range snap.Slots {
		out.Slots[i] = InspectSlot{
			Key:     slot.Key,
			Domain:  slot.Domain.String(),
			Value:   slot.Value.String(),
			Ordinal: slot.Ordinal,
		}
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}

	formatter.Printf("Snapshot %s\n", out.ID)
	formatter.Printf("  store: %s\n", out.Store)
	formatter.Printf("  range: %s\n", out.Range)
	formatter.Printf("  file:  %s\n", out.File)
	formatter.Printf("  keys:  %d\n", len(out.Slots))
	for _, s := range out.Slots {
		formatter.Printf("    %s = %s [%s] @%d\n", s.Key, s.Value, s.Domain, s.Ordinal)
	}
	return nil
}
