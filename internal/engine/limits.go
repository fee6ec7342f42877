package engine

import (
	"context"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// setLimit configures or replaces the ceiling of a currency.
func (e *Engine) setLimit(ctx context.Context, c call, a model.SetLimitArgs) (outcome, error) {
	code := a.Ceiling.Code()
	payer, cur, err := e.operatorOrIssuer(c, code)
	if err != nil {
		return outcome{}, err
	}
	if code == e.policy.ReservedCurrency {
		return outcome{}, invalid("%s limit is not supported", code)
	}
	if a.Ceiling.Amount < 0 {
		return outcome{}, invalid("negative limit %s", a.Ceiling)
	}
	if a.Ceiling.Symbol.Precision != cur.Precision {
		return outcome{}, invalid("symbol precision mismatch: %s has %d decimals, got %d",
			code, cur.Precision, a.Ceiling.Symbol.Precision)
	}

	err = c.tx.PutLimit(ctx, model.MonthlyLimit{
		Currency: code,
		Ceiling:  a.Ceiling,
		SetAt:    c.now,
		Payer:    payer,
	})
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("limit %s", a.Ceiling),
	}, nil
}

func (e *Engine) clearLimit(ctx context.Context, c call, a model.ClearLimitArgs) (outcome, error) {
	if _, _, err := e.operatorOrIssuer(c, a.Currency); err != nil {
		return outcome{}, err
	}
	if err := c.tx.DeleteLimit(ctx, a.Currency); err != nil {
		return outcome{}, storeErr(err, notFound("limit is not set"), nil)
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("cleared %s limit", a.Currency),
	}, nil
}
