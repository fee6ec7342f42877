package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/directory"
	"github.com/CryptoUnit-blockchain/limiter/internal/engine"
	"github.com/CryptoUnit-blockchain/limiter/internal/logger"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
	"github.com/CryptoUnit-blockchain/limiter/internal/testutil"
)

// DefaultCurrencies is the directory of a scenario that declares none.
func DefaultCurrencies() *directory.Registry {
	return directory.NewStatic(
		model.Currency{Code: "CUNT", Issuer: "cryptounit", Precision: 4},
		model.Currency{Code: "UNTB", Issuer: "cryptounit", Precision: 4},
	)
}

// Harness is the test execution engine.
// It drives a real engine over a fresh store with a settable wall clock
// and sequential tokens, so the same scenario always yields the same trace.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.WallClock
	dir    *directory.Registry
	logger logrus.FieldLogger
}

type runConfig struct {
	dir    *directory.Registry
	roles  engine.Roles
	logger logrus.FieldLogger
}

// RunOption configures Run.
type RunOption func(*runConfig)

// WithDirectory supplies the currency directory for scenarios that do not
// declare their own currencies.
func WithDirectory(dir *directory.Registry) RunOption {
	return func(c *runConfig) { c.dir = dir }
}

// WithRoles overrides the default role names.
func WithRoles(r engine.Roles) RunOption {
	return func(c *runConfig) { c.roles = r }
}

// WithLogger routes engine and harness logs to l. Logs are discarded by
// default.
func WithLogger(l logrus.FieldLogger) RunOption {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database and engine
//  2. Execute steps, checking each expect clause
//  3. Snapshot the state tables
//  4. Evaluate assertions and return the result
//
// A step that fails for a reason other than a rejection aborts the run
// with an error.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		dir:    DefaultCurrencies(),
		roles:  engine.DefaultRoles(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(scenario.Currencies) > 0 {
		cfg.dir = scenarioDirectory(scenario.Currencies)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := scenario.Start
	if start.IsZero() {
		start = DefaultStart
	}

	h := &Harness{
		store: st,
		engine: engine.New(st, cfg.dir,
			engine.WithRoles(cfg.roles),
			engine.WithPolicy(scenarioPolicy(scenario.Policy)),
			engine.WithTokenGenerator(engine.NewSequentialGenerator("")),
			engine.WithLogger(cfg.logger),
		),
		clock:  testutil.NewWallClock(start),
		dir:    cfg.dir,
		logger: cfg.logger.WithField("scenario", scenario.Name),
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, err
	}

	state, err := h.snapshotState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.State = state

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func scenarioDirectory(specs []CurrencySpec) *directory.Registry {
	currencies := make([]model.Currency, 0, len(specs))
	for _, c := range specs {
		currencies = append(currencies, model.Currency{
			Code:      model.SymbolCode(c.Code),
			Issuer:    model.Name(c.Issuer),
			Precision: c.Precision,
		})
	}
	return directory.NewStatic(currencies...)
}

func scenarioPolicy(spec *PolicySpec) engine.Policy {
	p := engine.DefaultPolicy()
	if spec == nil {
		return p
	}
	if spec.ReservedCurrency != "" {
		p.ReservedCurrency = model.SymbolCode(spec.ReservedCurrency)
	}
	if spec.Period != "" {
		p.Period = calendar.Period(spec.Period)
	}
	p.OperatorMayDecide = spec.OperatorMayDecide
	return p
}

// executeSteps runs every step through the engine and checks its expect
// clause. Mismatches are recorded on result; execution continues so the
// trace stays complete.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		switch {
		case step.At != nil:
			h.clock.Set(*step.At)
		case step.Advance != "":
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("step %d: advance: %w", i, err)
			}
			h.clock.Advance(d)
		}

		op, err := model.ParseOp(step.Op)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		raw, err := json.Marshal(step.Args)
		if err != nil {
			return fmt.Errorf("step %d: failed to encode args: %w", i, err)
		}

		signers := make(model.Authority, 0, len(step.As))
		for _, s := range step.As {
			signers = append(signers, model.Name(s))
		}
		now := h.clock.Now()

		args, err := model.DecodeArgs(op, raw)
		if err != nil {
			// Malformed arguments never reach the journal; report them
			// like a rejection so scenarios can cover them.
			result.AddTrace(TraceEvent{
				Op:      step.Op,
				Args:    step.Args,
				Signers: step.As,
				Now:     now,
				Status:  string(model.StatusRejected),
				Code:    string(engine.ErrCodeInvalidArgument),
				Reason:  err.Error(),
			})
			checkExpect(i, step, result.Trace[len(result.Trace)-1], result)
			continue
		}

		res, err := h.engine.Execute(ctx, model.Invocation{Args: args, Authority: signers, Now: now})
		if err != nil && !engine.IsRejection(err) {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		encoded, err := traceArgs(args)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		ev := TraceEvent{
			Seq:     res.Seq,
			Op:      step.Op,
			Args:    encoded,
			Signers: step.As,
			Now:     now,
			Status:  string(res.Status),
			Code:    res.Code,
			Reason:  res.Reason,
			Detail:  res.Detail,
		}
		result.AddTrace(ev)
		checkExpect(i, step, ev, result)

		h.logger.WithFields(logrus.Fields{
			"step":   i,
			"op":     step.Op,
			"seq":    res.Seq,
			"status": res.Status,
		}).Debug("scenario step executed")
	}
	return nil
}

// traceArgs renders args the way the journal stores them, as a generic
// object with integer-preserving numbers.
func traceArgs(args model.Args) (map[string]any, error) {
	data, err := model.EncodeArgs(args)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return obj, nil
}

func checkExpect(index int, step Step, ev TraceEvent, result *Result) {
	exp := step.Expect
	if exp == nil {
		return
	}
	check := func(field, want, got string) {
		if want != "" && want != got {
			result.AddError(fmt.Sprintf("step %d (%s): %s = %q, expected %q", index, step.Op, field, got, want))
		}
	}
	check("status", exp.Status, ev.Status)
	check("code", exp.Code, ev.Code)
	check("reason", exp.Reason, ev.Reason)
	check("detail", exp.Detail, ev.Detail)
}

// State table names accepted by final_state assertions.
const (
	TableLocks      = "locks"
	TableDebts      = "debts"
	TableLimits     = "limits"
	TableWhitelists = "whitelists"
	TableUsage      = "usage"
)

var stateTables = map[string]struct{}{
	TableLocks:      {},
	TableDebts:      {},
	TableLimits:     {},
	TableWhitelists: {},
	TableUsage:      {},
}

// snapshotState reads every state table into generic rows. Rows carry the
// JSON field names of the model records.
func (h *Harness) snapshotState(ctx context.Context) (map[string][]map[string]any, error) {
	tables := make(map[string][]any, len(stateTables))
	err := h.store.View(ctx, func(tx *store.Tx) error {
		locks, err := tx.ListLocks(ctx)
		if err != nil {
			return err
		}
		tables[TableLocks] = toAny(locks)

		debts, err := tx.ListDebts(ctx, "")
		if err != nil {
			return err
		}
		tables[TableDebts] = toAny(debts)

		limits, err := tx.ListLimits(ctx)
		if err != nil {
			return err
		}
		tables[TableLimits] = toAny(limits)

		for _, code := range h.dir.Codes() {
			for _, kind := range []model.WhitelistKind{model.WhitelistFrom, model.WhitelistTo} {
				entries, err := tx.ListWhitelist(ctx, kind, code)
				if err != nil {
					return err
				}
				tables[TableWhitelists] = append(tables[TableWhitelists], toAny(entries)...)
			}
			usage, err := tx.ListUsage(ctx, code, 0)
			if err != nil {
				return err
			}
			tables[TableUsage] = append(tables[TableUsage], toAny(usage)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	state := make(map[string][]map[string]any, len(tables))
	for name := range stateTables {
		rows := make([]map[string]any, 0, len(tables[name]))
		for _, rec := range tables[name] {
			data, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			row, err := decodeObject(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			rows = append(rows, row)
		}
		state[name] = rows
	}
	return state, nil
}

func toAny[T any](records []T) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
