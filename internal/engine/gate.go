package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// decide is the transfer gate. Rules apply in order and the first one that
// allows or rejects wins:
//
//  1. a source with outstanding debts may only repay one of them exactly;
//     a matching repayment is consumed and bypasses every other rule
//  2. a locked source without debts is rejected
//
// A non-positive amount is rejected after those two rules.
//
//  3. the reserved currency passes
//  4. a currency without a limit passes
//  5. a whitelisted destination, then a whitelisted source, passes
//  6. the amount must fit in what is left of the period's ceiling
func (e *Engine) decide(ctx context.Context, c call, a model.DecideArgs) (outcome, error) {
	if err := e.transferAuthority(c); err != nil {
		return outcome{}, err
	}
	locked, err := c.tx.HasLock(ctx, a.From)
	if err != nil {
		return outcome{}, err
	}

	indebted, err := c.tx.HasDebts(ctx, a.From)
	if err != nil {
		return outcome{}, err
	}
	if indebted {
		repaid, err := consumeDebt(ctx, c, a.From, a.To, a.Amount, a.Memo)
		if err != nil {
			return outcome{}, err
		}
		if !repaid {
			return outcome{}, violation("transfer valid for debt return only")
		}
		return allow(model.PathDebtRepayment), nil
	}
	if locked {
		return outcome{}, violation("account is locked")
	}
	if a.Amount.Amount <= 0 {
		return outcome{}, invalid("must transfer positive quantity")
	}

	code := a.Amount.Code()
	if code == e.policy.ReservedCurrency {
		return allow(model.PathReservedCode), nil
	}

	limit, err := c.tx.GetLimit(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return allow(model.PathNoLimit), nil
	}
	if err != nil {
		return outcome{}, err
	}

	path, ok, err := exempt(ctx, c, a.From, a.To, code)
	if err != nil {
		return outcome{}, err
	}
	if ok {
		return allow(path), nil
	}

	if a.Amount.Symbol.Precision != limit.Ceiling.Symbol.Precision {
		return outcome{}, invalid("symbol precision mismatch: %s limit has %d decimals, got %d",
			code, limit.Ceiling.Symbol.Precision, a.Amount.Symbol.Precision)
	}

	used, err := e.currentUsage(ctx, c, a.From, code)
	if err != nil {
		return outcome{}, err
	}
	if a.Amount.Amount > limit.Ceiling.Amount-used {
		return outcome{}, violation("%s", e.limitExceeded(limit.Ceiling, used))
	}

	if err := recordUsage(ctx, c, a.From, a.Amount, used); err != nil {
		return outcome{}, err
	}
	return allow(model.PathWithinLimit), nil
}

// limitExceeded renders the rejection message. "used" is only reported
// when something was used this period; "possible" always is.
func (e *Engine) limitExceeded(ceiling model.Asset, used int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "token transfer limit exceeded, max %s transfer %s", e.policy.Period, ceiling)
	if used > 0 {
		fmt.Fprintf(&b, ", used %s", ceiling.WithAmount(used))
	}
	fmt.Fprintf(&b, ", possible %s", ceiling.WithAmount(ceiling.Amount-used))
	return b.String()
}

func allow(path string) outcome {
	return outcome{status: model.StatusAllowed, detail: path, path: path}
}
