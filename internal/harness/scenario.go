package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
)

// Scenario defines one engine scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today is the calendar day (YYYY-MM-DD) used for payoff projections.
	Today string `yaml:"today"`

	// Stage is the stage whose ledger the steps operate on.
	Stage string `yaml:"stage"`

	// Prior is the previous stage's ledger. Nil means unavailable.
	Prior *LedgerSpec `yaml:"prior,omitempty"`

	// Current is what the stage holds before the first step.
	Current *LedgerSpec `yaml:"current,omitempty"`

	Negotiations negotiation.Table `yaml:"negotiations,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// LedgerSpec is a ledger as written in a scenario.
type LedgerSpec struct {
	Stage   string       `yaml:"stage,omitempty"`
	Records []RecordSpec `yaml:"records"`
}

// RecordSpec is a debt record as written in a scenario.
type RecordSpec struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name,omitempty"`
	Creditor   string  `yaml:"creditor,omitempty"`
	Origin     string  `yaml:"origin"`
	Manual     bool    `yaml:"manual,omitempty"`
	Negotiated bool    `yaml:"negotiated,omitempty"`
	Paying     bool    `yaml:"paying,omitempty"`
	Amortizing bool    `yaml:"amortizing,omitempty"`
	Reference  Values  `yaml:"reference"`
	Current    *Values `yaml:"current,omitempty"` // defaults to Reference
}

// Values is one installment/term/rate triple. Amounts are plain decimals.
type Values struct {
	Installment string `yaml:"installment,omitempty"`
	Term        int    `yaml:"term"`
	Rate        string `yaml:"rate,omitempty"`
}

// Step is one operation run against the stage ledger.
type Step struct {
	Op string `yaml:"op"`

	// Mode is used by sync.
	Mode string `yaml:"mode,omitempty"`

	// ID targets remove, pay, amortize and the edit operations.
	ID string `yaml:"id,omitempty"`

	// On is the toggle value for pay and amortize. Defaults to true.
	On *bool `yaml:"on,omitempty"`

	// User input for add and the edit operations.
	Name        string `yaml:"name,omitempty"`
	Creditor    string `yaml:"creditor,omitempty"`
	Installment string `yaml:"installment,omitempty"`
	Term        string `yaml:"term,omitempty"`
	Rate        string `yaml:"rate,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates the final ledger or the last synchronization.
type Assertion struct {
	// Type is one of record, absent, count, sync.
	Type string `yaml:"type"`

	// ID is the record checked by record and absent.
	ID string `yaml:"id,omitempty"`

	// Expect holds the expected fields (record, sync). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of records (count).
	Count int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpSync        = "sync"
	OpAdd         = "add"
	OpRemove      = "remove"
	OpPay         = "pay"
	OpAmortize    = "amortize"
	OpEditTerm    = "edit_term"
	OpEditCurrent = "edit_current"
)

// Assertion type constants.
const (
	AssertRecord = "record"
	AssertAbsent = "absent"
	AssertCount  = "count"
	AssertSync   = "sync"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := time.Parse(time.DateOnly, s.Today); err != nil {
		return fmt.Errorf("today must be YYYY-MM-DD: %w", err)
	}
	if _, err := ledger.ParseStage(s.Stage); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for name, l := range map[string]*LedgerSpec{"prior": s.Prior, "current": s.Current} {
		if l == nil {
			continue
		}
		if l.Stage != "" {
			if _, err := ledger.ParseStage(l.Stage); err != nil {
				return fmt.Errorf("%s.stage: %w", name, err)
			}
		}
		for i, r := range l.Records {
			if r.ID == "" {
				return fmt.Errorf("%s.records[%d]: id is required", name, i)
			}
			if _, err := ledger.ParseProvenance(r.Origin); err != nil {
				return fmt.Errorf("%s.records[%d]: %w", name, i, err)
			}
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch step.Op {
	case OpSync:
		if _, err := parseMode(step.Mode); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case OpAdd:
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for add", index)
		}
	case OpRemove, OpPay, OpAmortize, OpEditTerm, OpEditCurrent:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for %s", index, step.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertRecord:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for record", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
	case AssertAbsent:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for absent", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertSync:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for sync", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func parseMode(s string) (engine.Mode, error) {
	switch s {
	case "", "initial_load":
		return engine.InitialLoad, nil
	case "manual_refresh":
		return engine.ManualRefresh, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
