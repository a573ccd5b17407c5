package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/manifest"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Stores []DeclaredStore   `json:"stores,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// DeclaredStore is one store of a valid manifest.
type DeclaredStore struct {
	Name   string `json:"name"`
	Policy string `json:"policy"`
	Domain string `json:"domain"`
}

// ValidationError is a manifest error with its source location.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest.cue>",
		Short: "Validate a store manifest",
		Long: `Validate a CUE store manifest against the manifest schema.

Every store must declare a policy (sum, set_min, set_max) and a domain
(int64, float64, bigint, bigdecimal).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := formatter.Error(ErrCodeNotFound, fmt.Sprintf("manifest not found: %s", path), nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("manifest not found: %s", path))
	}

	m, err := manifest.Load(path)
	if err != nil {
		verr := toValidationError(err)
		if opts.Format == "json" {
			if err := formatter.Error(ErrCodeInvalidInput, "validation failed", ValidationResult{Errors: []ValidationError{verr}}); err != nil {
				return err
			}
		} else {
			formatter.Printf("✗ %s\n", path)
			if verr.Line > 0 {
				formatter.Printf("  %s:%d: %s: %s\n", verr.File, verr.Line, verr.Field, verr.Message)
			} else {
				formatter.Printf("  %s: %s\n", verr.Field, verr.Message)
			}
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	result := ValidationResult{Valid: true, Stores: make([]DeclaredStore, 0, len(m.Stores))}
	for _, decl := range m.Stores {
		result.Stores = append(result.Stores, DeclaredStore{
			Name:   decl.Name,
			Policy: string(decl.Policy),
			Domain: decl.Domain.String(),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	formatter.Printf("✓ %s (%d stores)\n", path, len(result.Stores))
	for _, s := range result.Stores {
		formatter.VerboseLog("  %s: %s %s", s.Name, s.Policy, s.Domain)
	}
	return nil
}

func toValidationError(err error) ValidationError {
	var cerr *manifest.CompileError
	if errors.As(err, &cerr) {
		verr := ValidationError{Field: cerr.Field, Message: cerr.Message}
		if cerr.Pos.IsValid() {
			verr.File = cerr.Pos.Filename()
			verr.Line = cerr.Pos.Line()
		}
		return verr
	}
	return ValidationError{Field: "manifest", Message: err.Error()}
}
