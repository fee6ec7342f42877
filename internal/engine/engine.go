package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/logger"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// Directory resolves a currency code to its issuer and precision.
// Lookup returns an error wrapping model.ErrUnknownCurrency for codes it
// does not know; any other error is treated as an infrastructure failure.
type Directory interface {
	Lookup(code model.SymbolCode) (model.Currency, error)
}

// Publisher receives every gate decision after it is durable.
type Publisher interface {
	PublishDecision(ctx context.Context, ev model.DecisionEvent) error
}

// Roles names the privileged identities.
type Roles struct {
	// Operator is the identity the engine itself acts as. It may run every
	// administrative operation and pays for records it creates.
	Operator model.Name
	// Administrator may manage locks and debts.
	Administrator model.Name
	// TransferAuthority is the only caller of decide.
	TransferAuthority model.Name
}

// DefaultRoles returns the role names of the production deployment.
func DefaultRoles() Roles {
	return Roles{
		Operator:          "limiter",
		Administrator:     "debtadmin",
		TransferAuthority: "eosio.token",
	}
}

// Policy holds the knobs of the limit regime.
type Policy struct {
	// ReservedCurrency never has a limit or whitelist and always passes
	// the gate.
	ReservedCurrency model.SymbolCode
	// Period is the accounting period usage accumulates over.
	Period calendar.Period
	// OperatorMayDecide also admits the operator as a caller of decide.
	OperatorMayDecide bool
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		ReservedCurrency: "UNTB",
		Period:           calendar.PeriodMonth,
	}
}

// Engine executes invocations against the store, one at a time.
type Engine struct {
	store     *store.Store
	dir       Directory
	roles     Roles
	policy    Policy
	clock     *Clock
	tokens    TokenGenerator
	log       logrus.FieldLogger
	publisher Publisher

	mu      sync.Mutex
	resumed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoles overrides DefaultRoles.
func WithRoles(r Roles) Option {
	return func(e *Engine) { e.roles = r }
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithTokenGenerator sets the correlation token source. The default is
// UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPublisher enables decision notifications.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// New creates an Engine over s. The sequence clock resumes from the
// journal on the first Execute.
func New(s *store.Store, dir Directory, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		dir:    dir,
		roles:  DefaultRoles(),
		policy: DefaultPolicy(),
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Roles returns the configured role names.
func (e *Engine) Roles() Roles { return e.roles }

// Policy returns the configured policy.
func (e *Engine) Policy() Policy { return e.policy }

// call is the explicit per-invocation context every handler receives.
type call struct {
	tx   *store.Tx
	auth model.Authority
	now  time.Time
}

// outcome is what a successful handler reports back.
type outcome struct {
	status model.Status
	detail string
	path   string
}

// Execute runs one invocation to completion.
//
// A rejected invocation returns its journaled Result together with a
// *GateError. Any other error means nothing was journaled and the store
// is unchanged.
func (e *Engine) Execute(ctx context.Context, inv model.Invocation) (model.Result, error) {
	return e.execute(ctx, inv, 0)
}

// execute runs inv. A positive seq pins the sequence number instead of
// taking the next one from the clock.
func (e *Engine) execute(ctx context.Context, inv model.Invocation, seq int64) (model.Result, error) {
	if inv.Args == nil {
		return model.Result{}, invalid("missing operation arguments")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.resume(ctx); err != nil {
		return model.Result{}, err
	}

	if seq > 0 {
		e.clock.Reset(seq - 1)
	}
	op := inv.Args.Op()
	now := inv.Now.UTC().Truncate(time.Second)
	seq = e.clock.Next()

	id, err := model.InvocationID(inv.Args, now.Unix(), seq)
	if err != nil {
		e.clock.Reset(seq - 1)
		return model.Result{}, fmt.Errorf("invocation id: %w", err)
	}
	args, err := model.EncodeArgs(inv.Args)
	if err != nil {
		e.clock.Reset(seq - 1)
		return model.Result{}, err
	}

	entry := store.JournalEntry{
		Seq:           seq,
		ID:            id,
		Token:         e.tokens.Generate(),
		Op:            op,
		Args:          args,
		Authority:     inv.Authority,
		Now:           now,
		EngineVersion: model.EngineVersion,
	}
	log := e.log.WithFields(logrus.Fields{"seq": seq, "op": op.String()})

	out, err := e.apply(ctx, &entry, call{auth: inv.Authority, now: now}, inv.Args)
	if err != nil {
		ge, ok := AsGateError(err)
		if !ok {
			// The journal decides the next seq once the failure is behind us.
			e.resumed = false
			log.WithError(err).Error("invocation failed")
			return model.Result{}, err
		}
		ge.Op = op
		if jerr := e.journalRejection(ctx, &entry, ge); jerr != nil {
			e.resumed = false
			log.WithError(jerr).Error("journal rejection")
			return model.Result{}, jerr
		}
		log.WithFields(logrus.Fields{
			"status": entry.Status,
			"code":   entry.Code,
			"reason": entry.Reason,
		}).Info("invocation rejected")
		e.publish(ctx, inv, entry, "")
		return resultOf(entry), ge
	}

	log.WithFields(logrus.Fields{
		"status": entry.Status,
		"detail": entry.Detail,
	}).Info("invocation executed")
	e.publish(ctx, inv, entry, out.path)
	return resultOf(entry), nil
}

// apply runs the handler and, if it succeeds, journals the entry in the
// same transaction.
func (e *Engine) apply(ctx context.Context, entry *store.JournalEntry, c call, args model.Args) (outcome, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return outcome{}, err
	}
	defer tx.Rollback()

	c.tx = tx
	out, err := e.dispatch(ctx, c, args)
	if err != nil {
		return outcome{}, err
	}

	entry.Status = out.status
	entry.Detail = out.detail
	if err := tx.AppendJournal(ctx, *entry); err != nil {
		return outcome{}, fmt.Errorf("seq %d: %w", entry.Seq, err)
	}
	if err := tx.Commit(); err != nil {
		return outcome{}, err
	}
	return out, nil
}

// journalRejection records a rejected invocation after its transaction has
// been rolled back.
func (e *Engine) journalRejection(ctx context.Context, entry *store.JournalEntry, ge *GateError) error {
	entry.Status = model.StatusRejected
	entry.Code = string(ge.Code)
	entry.Reason = ge.Message
	entry.Detail = ""
	return e.store.Update(ctx, func(tx *store.Tx) error {
		return tx.AppendJournal(ctx, *entry)
	})
}

// dispatch validates argument shape and routes to the handler.
func (e *Engine) dispatch(ctx context.Context, c call, args model.Args) (outcome, error) {
	if err := args.Validate(); err != nil {
		return outcome{}, invalid("%v", err)
	}

	switch a := args.(type) {
	case model.SetLockArgs:
		return e.setLock(ctx, c, a)
	case model.ClearLockArgs:
		return e.clearLock(ctx, c, a)
	case model.RecordDebtArgs:
		return e.recordDebt(ctx, c, a)
	case model.DeleteDebtArgs:
		return e.deleteDebt(ctx, c, a)
	case model.RemoveDebtArgs:
		return e.removeDebt(ctx, c, a)
	case model.SetLimitArgs:
		return e.setLimit(ctx, c, a)
	case model.ClearLimitArgs:
		return e.clearLimit(ctx, c, a)
	case model.AddWhitelistArgs:
		return e.addWhitelist(ctx, c, a)
	case model.RemoveWhitelistArgs:
		return e.removeWhitelist(ctx, c, a)
	case model.RemoveUsageArgs:
		return e.removeUsage(ctx, c, a)
	case model.RemoveUsagesArgs:
		return e.removeUsages(ctx, c, a)
	case model.DecideArgs:
		return e.decide(ctx, c, a)
	default:
		return outcome{}, invalid("unsupported arguments %T", args)
	}
}

// resume positions the clock after the last journaled seq.
func (e *Engine) resume(ctx context.Context) error {
	if e.resumed {
		return nil
	}
	last, err := e.store.LastSeq(ctx)
	if err != nil {
		return fmt.Errorf("resume clock: %w", err)
	}
	e.clock.Reset(last)
	e.resumed = true
	return nil
}

func (e *Engine) publish(ctx context.Context, inv model.Invocation, entry store.JournalEntry, path string) {
	if e.publisher == nil {
		return
	}
	d, ok := inv.Args.(model.DecideArgs)
	if !ok {
		return
	}
	ev := model.DecisionEvent{
		Token:  entry.Token,
		Seq:    entry.Seq,
		From:   d.From,
		To:     d.To,
		Amount: d.Amount,
		Memo:   d.Memo,
		Status: entry.Status,
		Path:   path,
		Code:   entry.Code,
		Reason: entry.Reason,
		At:     entry.Now,
	}
	if err := e.publisher.PublishDecision(ctx, ev); err != nil {
		e.log.WithError(err).WithField("seq", entry.Seq).Warn("publish decision")
	}
}

func resultOf(entry store.JournalEntry) model.Result {
	return model.Result{
		Seq:    entry.Seq,
		ID:     entry.ID,
		Token:  entry.Token,
		Op:     entry.Op,
		Status: entry.Status,
		Code:   entry.Code,
		Reason: entry.Reason,
		Detail: entry.Detail,
	}
}

// storeErr maps a store sentinel to a rejection, leaving other errors as
// infrastructure failures.
func storeErr(err error, onNotFound, onConflict *GateError) error {
	switch {
	case err == nil:
		return nil
	case onNotFound != nil && errors.Is(err, store.ErrNotFound):
		return onNotFound
	case onConflict != nil && errors.Is(err, store.ErrConflict):
		return onConflict
	default:
		return err
	}
}
