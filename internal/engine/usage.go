package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// removeUsage clears one counter. Counters of a currency can only be
// cleared once its limit is gone.
func (e *Engine) removeUsage(ctx context.Context, c call, a model.RemoveUsageArgs) (outcome, error) {
	if err := e.accountIssuerOrOperator(c, a.Account, a.Currency); err != nil {
		return outcome{}, err
	}

	_, err := c.tx.GetLimit(ctx, a.Currency)
	switch {
	case err == nil:
		return outcome{}, violation("limit is active")
	case !errors.Is(err, store.ErrNotFound):
		return outcome{}, err
	}

	if err := c.tx.DeleteUsage(ctx, a.Currency, a.Account); err != nil {
		return outcome{}, storeErr(err, notFound("used limit not found"), nil)
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("removed %s usage of %s", a.Currency, a.Account),
	}, nil
}

// removeUsages clears up to Count counters of a currency in account order.
// At least one counter is always removed, so Count 0 behaves like 1.
func (e *Engine) removeUsages(ctx context.Context, c call, a model.RemoveUsagesArgs) (outcome, error) {
	if err := e.issuerOrOperator(c, a.Currency); err != nil {
		return outcome{}, err
	}

	n := int(max(a.Count, 1))
	usage, err := c.tx.ListUsage(ctx, a.Currency, n)
	if err != nil {
		return outcome{}, err
	}
	if len(usage) == 0 {
		return outcome{}, notFound("used limit(s) not found")
	}
	for _, u := range usage {
		if err := c.tx.DeleteUsage(ctx, u.Currency, u.Account); err != nil {
			return outcome{}, err
		}
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("removed %d %s usage record(s)", len(usage), a.Currency),
	}, nil
}

// currentUsage returns what account already used of code in the period
// containing now. A counter from an earlier period counts as zero.
func (e *Engine) currentUsage(ctx context.Context, c call, account model.Name, code model.SymbolCode) (int64, error) {
	u, err := c.tx.GetUsage(ctx, code, account)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !e.samePeriod(u.UpdatedAt, c.now) {
		return 0, nil
	}
	return u.Used.Amount, nil
}

// recordUsage stores used+amount stamped with now. used is zero when the
// stored counter belongs to an earlier period, which resets it.
func recordUsage(ctx context.Context, c call, account model.Name, amount model.Asset, used int64) error {
	return c.tx.PutUsage(ctx, model.UsedLimit{
		Currency:  amount.Code(),
		Account:   account,
		Used:      amount.WithAmount(used + amount.Amount),
		UpdatedAt: c.now,
	})
}

// samePeriod compares two instants under the configured period. An
// instant the calendar cannot represent counts as the same period.
func (e *Engine) samePeriod(stored, now time.Time) bool {
	same, determined := calendar.Compare(e.policy.Period, calendar.Seconds(stored), calendar.Seconds(now))
	if !determined {
		e.log.WithFields(logrus.Fields{
			"stored": stored.Unix(),
			"now":    now.Unix(),
		}).Debug("accounting period undetermined, assuming same period")
	}
	return same
}
