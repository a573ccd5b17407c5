package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tally/internal/numeric"
	"github.com/roach88/tally/internal/store"
)

// Scenario is a sequence of merges with assertions over the final state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifest is the path of the CUE file declaring the stores.
	// Relative paths are resolved against the scenario file's directory.
	Manifest string `yaml:"manifest"`

	// Ordinal, if set, is used for every step without an explicit ordinal.
	// Otherwise such steps get increasing ordinals starting at 1.
	Ordinal *uint64 `yaml:"ordinal,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one merge call.
type Step struct {
	Store string `yaml:"store"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`

	// Op overrides the store's policy.
	Op string `yaml:"op,omitempty"`

	// Domain overrides the store's domain.
	Domain string `yaml:"domain,omitempty"`

	// Ordinal is taken from the deterministic clock when nil.
	Ordinal *uint64 `yaml:"ordinal,omitempty"`

	// ExpectError is the error code the merge must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of final_value, absent, final_ordinal, slot_count, value_at.
	Type string `yaml:"type"`

	Store string `yaml:"store"`
	Key   string `yaml:"key,omitempty"`

	// Expect is the expected canonical text (final_value, value_at).
	Expect string `yaml:"expect,omitempty"`

	// Ordinal is the expected last ordinal (final_ordinal).
	Ordinal *uint64 `yaml:"ordinal,omitempty"`

	// At is the ordinal to read at (value_at).
	At *uint64 `yaml:"at,omitempty"`

	// Count is the expected number of keys (slot_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalValue   = "final_value"
	AssertAbsent       = "absent"
	AssertFinalOrdinal = "final_ordinal"
	AssertSlotCount    = "slot_count"
	AssertValueAt      = "value_at"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Manifest != "" && !filepath.IsAbs(scenario.Manifest) {
		scenario.Manifest = filepath.Join(filepath.Dir(path), scenario.Manifest)
	}
	if _, err := os.Stat(scenario.Manifest); err != nil {
		return nil, fmt.Errorf("invalid scenario: manifest not found: %s", scenario.Manifest)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. The manifest path is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Store names are checked against the manifest when the scenario runs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Store == "" {
		return fmt.Errorf("steps[%d]: store is required", index)
	}
	if step.Op != "" {
		if _, err := store.ParseOp(step.Op); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if step.Domain != "" {
		if _, err := numeric.ParseDomain(step.Domain); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	switch numeric.ErrorCode(step.ExpectError) {
	case "", numeric.ErrCodeParse, numeric.ErrCodeOverflow, numeric.ErrCodeDomainMismatch, ErrCodeInvalidMerge:
	default:
		return fmt.Errorf("steps[%d]: unknown expect_error %q", index, step.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Store == "" {
		return fmt.Errorf("assertions[%d]: store is required", index)
	}

	switch a.Type {
	case AssertFinalValue:
		if a.Key == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: key and expect are required for final_value", index)
		}
	case AssertAbsent:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for absent", index)
		}
	case AssertFinalOrdinal:
		if a.Key == "" || a.Ordinal == nil {
			return fmt.Errorf("assertions[%d]: key and ordinal are required for final_ordinal", index)
		}
	case AssertSlotCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for slot_count", index)
		}
	case AssertValueAt:
		if a.Key == "" || a.At == nil || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: key, at and expect are required for value_at", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
