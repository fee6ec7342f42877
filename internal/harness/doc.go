// Package harness provides conformance testing for the limiter engine.
//
// The harness runs YAML scenarios against a real engine backed by a fresh
// in-memory store, records a trace of every invocation, and checks
// expected outcomes, trace assertions and final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: debt_repayment
//	description: "A locked debtor may only repay its debts"
//	start: 2024-05-10T12:00:00Z
//	policy:
//	  period: month
//	steps:
//	  - op: set_lock
//	    as: [debtadmin]
//	    args: {account: dan, note: collections}
//	    expect: {status: committed, detail: locked dan}
//	  - op: decide
//	    as: [eosio.token]
//	    advance: 24h
//	    args: {from: dan, to: tom, amount: "5.0000 CUNT", memo: loan}
//	    expect:
//	      status: rejected
//	      code: POLICY_VIOLATION
//	assertions:
//	  - type: trace_count
//	    op: decide
//	    status: rejected
//	    count: 1
//	  - type: final_state
//	    table: locks
//	    where: {account: dan}
//	    expect: {note: collections}
//
// Step args use the same field names as the JSON arguments of the CLI.
// A step may move the clock with advance (a Go duration) or at (an
// absolute instant) before it runs.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: some step has the op, args (subset) and status
//   - trace_order: ops first appear in the specified order
//   - trace_count: an op, optionally with a status, appears exactly N times
//   - final_state: rows of locks, debts, limits, whitelists or usage that
//     match where carry the expect values, or number exactly count
//
// # Deterministic Testing
//
// Every run uses a settable wall clock (testutil.WallClock), sequential
// tokens and an isolated in-memory SQLite database, so a scenario always
// produces the same trace. Golden snapshots under testdata/golden hold the
// canonical JSON of each scenario's trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/debt_repayment.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
