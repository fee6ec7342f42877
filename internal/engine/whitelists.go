package engine

import (
	"context"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

func (e *Engine) addWhitelist(ctx context.Context, c call, a model.AddWhitelistArgs) (outcome, error) {
	payer, _, err := e.operatorOrIssuer(c, a.Currency)
	if err != nil {
		return outcome{}, err
	}
	if a.Currency == e.policy.ReservedCurrency {
		return outcome{}, invalid("%s is not supported", a.Currency)
	}

	err = c.tx.InsertWhitelist(ctx, model.WhitelistEntry{
		Kind:     a.Kind,
		Currency: a.Currency,
		Account:  a.Account,
		AddedAt:  c.now,
		Payer:    payer,
	})
	if err != nil {
		return outcome{}, storeErr(err, nil, alreadyExists("user already in whitelist"))
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("whitelisted %s as %s for %s", a.Account, a.Kind, a.Currency),
	}, nil
}

func (e *Engine) removeWhitelist(ctx context.Context, c call, a model.RemoveWhitelistArgs) (outcome, error) {
	if _, _, err := e.operatorOrIssuer(c, a.Currency); err != nil {
		return outcome{}, err
	}
	if err := c.tx.DeleteWhitelist(ctx, a.Kind, a.Currency, a.Account); err != nil {
		return outcome{}, storeErr(err, notFound("user not in whitelist"), nil)
	}
	return outcome{
		status: model.StatusCommitted,
		detail: fmt.Sprintf("removed %s %s from %s whitelist", a.Kind, a.Account, a.Currency),
	}, nil
}

// exempt reports whether a transfer from -> to of code bypasses the limit.
// The destination list is consulted first; path names the rule that hit.
func exempt(ctx context.Context, c call, from, to model.Name, code model.SymbolCode) (path string, ok bool, err error) {
	ok, err = c.tx.InWhitelist(ctx, model.WhitelistTo, code, to)
	if err != nil || ok {
		return model.PathDestinationList, ok, err
	}
	ok, err = c.tx.InWhitelist(ctx, model.WhitelistFrom, code, from)
	if err != nil || ok {
		return model.PathSourceList, ok, err
	}
	return "", false, nil
}
