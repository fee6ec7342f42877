package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// DefaultStart is the wall-clock reading of a scenario that does not set
// start.
var DefaultStart = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// Scenario defines a conformance test scenario: a sequence of signed
// invocations against a fresh engine, with the outcome each one must
// produce and assertions on the trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the wall-clock reading before the first step.
	// Defaults to DefaultStart.
	Start time.Time `yaml:"start,omitempty"`

	// Currencies replaces the default directory when non-empty.
	Currencies []CurrencySpec `yaml:"currencies,omitempty"`

	// Policy overrides engine policy knobs.
	Policy *PolicySpec `yaml:"policy,omitempty"`

	// Steps are executed in order, each as one invocation.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// CurrencySpec registers one currency with the scenario's directory.
type CurrencySpec struct {
	Code      string `yaml:"code"`
	Issuer    string `yaml:"issuer"`
	Precision uint8  `yaml:"precision"`
}

// PolicySpec overrides parts of engine.DefaultPolicy. Unset fields keep
// their defaults.
type PolicySpec struct {
	ReservedCurrency  string `yaml:"reserved_currency,omitempty"`
	Period            string `yaml:"period,omitempty"`
	OperatorMayDecide bool   `yaml:"operator_may_decide,omitempty"`
}

// Step is one invocation.
type Step struct {
	// Op is the operation wire name, e.g. "record_debt".
	Op string `yaml:"op"`

	// As lists the signers of the invocation.
	As []string `yaml:"as"`

	// Args holds the argument object; it is decoded exactly like the
	// JSON arguments of the CLI.
	Args map[string]any `yaml:"args"`

	// Advance moves the clock forward before the step, e.g. "24h".
	Advance string `yaml:"advance,omitempty"`

	// At sets the clock to an absolute instant before the step.
	At *time.Time `yaml:"at,omitempty"`

	// Expect specifies the outcome. If nil, any non-failure outcome passes.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the result an invocation must produce. Empty fields
// other than Status are not checked.
type Expect struct {
	Status string `yaml:"status"`
	Code   string `yaml:"code,omitempty"`
	Reason string `yaml:"reason,omitempty"`
	Detail string `yaml:"detail,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": some step has Op, matching Args and Status
	// - "trace_order": Ops first appear in the given order
	// - "trace_count": Op (with Status, if set) appears exactly Count times
	// - "final_state": rows of Table matching Where have the Expect values
	Type string `yaml:"type"`

	// Op is the operation name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Args are expected arguments, subset match (trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Status narrows trace_contains and trace_count to one outcome.
	Status string `yaml:"status,omitempty"`

	// Table is one of the state tables (final_state).
	Table string `yaml:"table,omitempty"`

	// Where filters rows, all fields must match (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values of the single matching row,
	// subset match (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (trace_count) or of
	// matching rows (final_state, instead of Expect).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
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

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so that "assertion:" does not silently
	// become an empty assertion list.
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

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, c := range s.Currencies {
		if err := model.SymbolCode(c.Code).Validate(); err != nil {
			return fmt.Errorf("currencies[%d]: %w", i, err)
		}
		if err := model.Name(c.Issuer).Validate(); err != nil {
			return fmt.Errorf("currencies[%d]: issuer: %w", i, err)
		}
		if c.Precision > model.MaxPrecision {
			return fmt.Errorf("currencies[%d]: precision %d exceeds %d", i, c.Precision, model.MaxPrecision)
		}
	}

	if p := s.Policy; p != nil {
		if p.Period != "" {
			if _, err := calendar.ParsePeriod(p.Period); err != nil {
				return fmt.Errorf("policy: %w", err)
			}
		}
		if p.ReservedCurrency != "" {
			if err := model.SymbolCode(p.ReservedCurrency).Validate(); err != nil {
				return fmt.Errorf("policy.reserved_currency: %w", err)
			}
		}
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
	if step.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if _, err := model.ParseOp(step.Op); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}
	if step.Args == nil {
		return fmt.Errorf("steps[%d]: args is required (use empty map if no args)", index)
	}
	if step.Advance != "" && step.At != nil {
		return fmt.Errorf("steps[%d]: advance and at are mutually exclusive", index)
	}
	if step.Advance != "" {
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must not be negative", index)
		}
	}
	for _, signer := range step.As {
		if err := model.Name(signer).Validate(); err != nil {
			return fmt.Errorf("steps[%d]: as: %w", index, err)
		}
	}
	if step.Expect != nil {
		if err := validateStatus(step.Expect.Status); err != nil {
			return fmt.Errorf("steps[%d].expect: %w", index, err)
		}
	}
	return nil
}

func validateStatus(status string) error {
	switch model.Status(status) {
	case model.StatusCommitted, model.StatusAllowed, model.StatusRejected:
		return nil
	case "":
		return fmt.Errorf("status is required")
	default:
		return fmt.Errorf("unknown status %q", status)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Status != "" {
		if err := validateStatus(a.Status); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for trace_count", index)
		}
	case AssertFinalState:
		if _, ok := stateTables[a.Table]; !ok {
			return fmt.Errorf("assertions[%d]: unknown table %q for final_state", index, a.Table)
		}
		if len(a.Expect) == 0 && a.Count == nil {
			return fmt.Errorf("assertions[%d]: expect or count is required for final_state", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
