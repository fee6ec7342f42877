package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Invocation ids and tokens are left out: they are covered by the engine's
// own tests, and keeping them out lets a snapshot be read and reviewed
// by hand.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because model.MarshalCanonical only handles generic
// JSON values.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		signers := make([]any, len(event.Signers))
		for j, name := range event.Signers {
			signers[j] = name
		}
		args := make(map[string]any, len(event.Args))
		for k, v := range event.Args {
			args[k] = v
		}

		eventMap := map[string]any{
			"seq":     event.Seq,
			"op":      event.Op,
			"args":    args,
			"signers": signers,
			"now":     event.Now.UTC().Format(time.RFC3339),
			"status":  event.Status,
		}
		if event.Code != "" {
			eventMap["code"] = event.Code
		}
		if event.Reason != "" {
			eventMap["reason"] = event.Reason
		}
		if event.Detail != "" {
			eventMap["detail"] = event.Detail
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders the trace of result as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	return model.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass and Errors, or an
// error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...RunOption) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
