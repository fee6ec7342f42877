package harness

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s", event.Seq, event.Op, event.Args, event.Status)
			if event.Reason != "" {
				fmt.Fprintf(&buf, " (%s)", event.Reason)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains a step matching the
// op, args (subset match) and status.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op != assertion.Op {
			continue
		}
		if assertion.Status != "" && event.Status != assertion.Status {
			continue
		}
		if matchFields(event.Args, assertion.Args) {
			return nil
		}
	}

	expected := fmt.Sprintf("op %s with args %v", assertion.Op, assertion.Args)
	if assertion.Status != "" {
		expected += " and status " + assertion.Status
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops first appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Op]; !seen {
			positions[event.Op] = i + 1 // 1-indexed for readability
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev, curr := assertion.Ops[i-1], assertion.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the op appears exactly the specified number
// of times, optionally with one status.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op && (assertion.Status == "" || event.Status == assertion.Status) {
			count++
		}
	}

	want := 0
	if assertion.Count != nil {
		want = *assertion.Count
	}
	if count != want {
		what := assertion.Op
		if assertion.Status != "" {
			what += " " + assertion.Status
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", want, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks the rows of one state table. With Count set it
// counts the rows matching Where; otherwise exactly one row must match
// and carry the Expect values (subset semantics).
func assertFinalState(state map[string][]map[string]any, assertion Assertion) error {
	rows, ok := state[assertion.Table]
	if !ok {
		return fmt.Errorf("final_state: unknown table %q", assertion.Table)
	}

	var matched []map[string]any
	for _, row := range rows {
		if matchFields(row, assertion.Where) {
			matched = append(matched, row)
		}
	}
	whereDesc := formatWhereClause(assertion.Where)

	if assertion.Count != nil {
		if len(matched) != *assertion.Count {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%d row(s) in %s where %s", *assertion.Count, assertion.Table, whereDesc),
				Actual:   fmt.Sprintf("%d row(s)", len(matched)),
			}
		}
		if len(assertion.Expect) == 0 {
			return nil
		}
	}

	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "no rows found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := matched[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in row: %v", key, sortedKeys(actualRow)),
			}
		}
		if !valuesEqual(actualValue, expectedValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, renderValue(expectedValue)),
				Actual:   fmt.Sprintf("field %q = %v", key, renderValue(actualValue)),
			}
		}
	}

	return nil
}

// formatWhereClause creates a human-readable description of conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, renderValue(where[k])))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchFields checks if actual contains all expected fields (subset match).
// Extra keys in actual are ignored.
func matchFields(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists || !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares a decoded JSON value with a YAML-parsed one.
// YAML yields int, bool and time.Time where JSON yields json.Number, bool
// and RFC 3339 strings, so both sides are compared in rendered form.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return renderValue(actual) == renderValue(expected)
}

func renderValue(v any) string {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
