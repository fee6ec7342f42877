package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

func (e *Engine) recordDebt(ctx context.Context, c call, a model.RecordDebtArgs) (outcome, error) {
	payer, err := e.operatorOrAdmin(c)
	if err != nil {
		return outcome{}, err
	}
	if a.Amount.Amount <= 0 {
		return outcome{}, invalid("valid positive debt amount only")
	}
	if a.Memo == "" {
		return outcome{}, invalid("empty memo string")
	}

	id, err := c.tx.InsertDebt(ctx, model.Debt{
		Debtor:    a.Debtor,
		Target:    a.Target,
		Amount:    a.Amount,
		CreatedAt: c.now,
		Memo:      a.Memo,
		Digest:    model.DebtDigest(a.Debtor, a.Target, a.Amount, a.Memo),
		Payer:     payer,
	})
	if err != nil {
		return outcome{}, storeErr(err, nil, alreadyExists("debt hash is not unique"))
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("debt %s/%d: %s owed to %s", a.Debtor, id, a.Amount, a.Target),
	}, nil
}

// deleteDebt removes the debt matching the full tuple.
func (e *Engine) deleteDebt(ctx context.Context, c call, a model.DeleteDebtArgs) (outcome, error) {
	if _, err := e.operatorOrAdmin(c); err != nil {
		return outcome{}, err
	}

	digest := model.DebtDigest(a.Debtor, a.Target, a.Amount, a.Memo)
	debt, err := c.tx.FindDebtByDigest(ctx, a.Debtor, digest)
	if err != nil {
		return outcome{}, storeErr(err, notFound("debt not found"), nil)
	}
	if err := c.tx.DeleteDebt(ctx, debt.Debtor, debt.ID); err != nil {
		return outcome{}, err
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("deleted debt %s/%d", debt.Debtor, debt.ID),
	}, nil
}

// removeDebt removes a debt by id.
func (e *Engine) removeDebt(ctx context.Context, c call, a model.RemoveDebtArgs) (outcome, error) {
	if _, err := e.operatorOrAdmin(c); err != nil {
		return outcome{}, err
	}
	// Ids are allocated from a signed SQLite sequence.
	if a.ID > math.MaxInt64 {
		return outcome{}, notFound("debt not found")
	}
	if err := c.tx.DeleteDebt(ctx, a.Debtor, a.ID); err != nil {
		return outcome{}, storeErr(err, notFound("debt not found"), nil)
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("deleted debt %s/%d", a.Debtor, a.ID),
	}, nil
}

// consumeDebt deletes the debt matching the transfer tuple, if any.
// It is part of the gate and carries no authorization of its own.
func consumeDebt(ctx context.Context, c call, from, to model.Name, amount model.Asset, memo string) (bool, error) {
	debt, err := c.tx.FindDebtByDigest(ctx, from, model.DebtDigest(from, to, amount, memo))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := c.tx.DeleteDebt(ctx, debt.Debtor, debt.ID); err != nil {
		return false, err
	}
	return true, nil
}
