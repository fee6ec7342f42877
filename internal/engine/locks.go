package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// setLock creates a lock, or replaces the note of an existing one. The
// creation time of an existing lock never changes.
func (e *Engine) setLock(ctx context.Context, c call, a model.SetLockArgs) (outcome, error) {
	payer, err := e.operatorOrAdmin(c)
	if err != nil {
		return outcome{}, err
	}

	lock, err := c.tx.GetLock(ctx, a.Account)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if a.Note == "" {
			return outcome{}, invalid("empty note string")
		}
		lock = model.Lock{Account: a.Account, CreatedAt: c.now, Note: a.Note}
	case err != nil:
		return outcome{}, err
	case lock.Note == a.Note:
		return outcome{}, alreadyExists("account already locked")
	default:
		lock.Note = a.Note
	}
	lock.Payer = payer

	if err := c.tx.PutLock(ctx, lock); err != nil {
		return outcome{}, err
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("locked %s", a.Account),
	}, nil
}

func (e *Engine) clearLock(ctx context.Context, c call, a model.ClearLockArgs) (outcome, error) {
	if _, err := e.operatorOrAdmin(c); err != nil {
		return outcome{}, err
	}
	if err := c.tx.DeleteLock(ctx, a.Account); err != nil {
		return outcome{}, storeErr(err, notFound("account not locked"), nil)
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("unlocked %s", a.Account),
	}, nil
}
