package engine

import (
	"errors"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// Authorization rules. Each returns the payer: the identity charged for
// records the operation creates or updates. When several accepted
// identities signed, the first one in rule order pays.

// operatorOrAdmin admits the operator or the administrator.
func (e *Engine) operatorOrAdmin(c call) (model.Name, error) {
	switch {
	case c.auth.Has(e.roles.Operator):
		return e.roles.Operator, nil
	case c.auth.Has(e.roles.Administrator):
		return e.roles.Administrator, nil
	}
	return "", denied("missing authority either of %s or %s", e.roles.Administrator, e.roles.Operator)
}

// operatorOrIssuer admits the operator or the issuer of code. The issuer
// is resolved before the signature check, so an unknown currency fails
// with NotFound even when the operator signed.
func (e *Engine) operatorOrIssuer(c call, code model.SymbolCode) (model.Name, model.Currency, error) {
	cur, err := e.currency(code)
	if err != nil {
		return "", model.Currency{}, err
	}
	switch {
	case c.auth.Has(e.roles.Operator):
		return e.roles.Operator, cur, nil
	case c.auth.Has(cur.Issuer):
		return cur.Issuer, cur, nil
	}
	return "", model.Currency{}, denied("missing authority either of token issuer or %s", e.roles.Operator)
}

// issuerOrOperator is operatorOrIssuer for usage housekeeping: the issuer
// is only resolved when the operator did not sign, so counters of a
// currency gone from the directory can still be cleared.
func (e *Engine) issuerOrOperator(c call, code model.SymbolCode) error {
	if c.auth.Has(e.roles.Operator) {
		return nil
	}
	cur, err := e.currency(code)
	if err != nil {
		return err
	}
	if c.auth.Has(cur.Issuer) {
		return nil
	}
	return denied("missing authority either of token issuer or %s", e.roles.Operator)
}

// accountIssuerOrOperator admits the account itself, the issuer of code or
// the operator, checked in that order.
func (e *Engine) accountIssuerOrOperator(c call, account model.Name, code model.SymbolCode) error {
	if c.auth.Has(account) {
		return nil
	}
	cur, err := e.currency(code)
	if err != nil {
		return err
	}
	if c.auth.Has(cur.Issuer) || c.auth.Has(e.roles.Operator) {
		return nil
	}
	return denied("missing authority either of %s, token issuer or %s", account, e.roles.Operator)
}

// transferAuthority admits the caller of decide.
func (e *Engine) transferAuthority(c call) error {
	if c.auth.Has(e.roles.TransferAuthority) {
		return nil
	}
	if e.policy.OperatorMayDecide {
		if c.auth.Has(e.roles.Operator) {
			return nil
		}
		return denied("missing authority either of %s or %s", e.roles.Operator, e.roles.TransferAuthority)
	}
	return denied("missing authority of %s", e.roles.TransferAuthority)
}

// currency resolves code through the directory.
func (e *Engine) currency(code model.SymbolCode) (model.Currency, error) {
	cur, err := e.dir.Lookup(code)
	if errors.Is(err, model.ErrUnknownCurrency) {
		return model.Currency{}, notFound("unknown token %s", code)
	}
	if err != nil {
		return model.Currency{}, err
	}
	return cur, nil
}
