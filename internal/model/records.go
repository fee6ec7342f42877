package model

import (
	"fmt"
	"time"
)

// Lock restricts an account to debt-repayment transfers.
// At most one Lock exists per account.
type Lock struct {
	Account   Name      `json:"account"`
	CreatedAt time.Time `json:"created_at"`
	Note      string    `json:"note"`
	Payer     Name      `json:"payer"`
}

// Debt is an outstanding obligation of Debtor towards Target.
//
// Debts live in a per-debtor partition. ID is the primary key within the
// partition; Digest is a derived secondary key that is unique within the
// partition.
type Debt struct {
	ID        uint64    `json:"id"`
	Debtor    Name      `json:"debtor"`
	Target    Name      `json:"target"`
	Amount    Asset     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	Memo      string    `json:"memo"`
	Digest    Digest    `json:"digest"`
	Payer     Name      `json:"payer"`
}

// MonthlyLimit is the per-period transfer ceiling of one currency.
type MonthlyLimit struct {
	Currency SymbolCode `json:"currency"`
	Ceiling  Asset      `json:"ceiling"`
	SetAt    time.Time  `json:"set_at"`
	Payer    Name       `json:"payer"`
}

// WhitelistKind selects which side of a transfer a whitelist exempts.
type WhitelistKind string

const (
	// WhitelistFrom exempts transfers whose source is listed.
	WhitelistFrom WhitelistKind = "from"
	// WhitelistTo exempts transfers whose destination is listed.
	WhitelistTo WhitelistKind = "to"
)

// Validate reports whether k is one of the two known kinds.
func (k WhitelistKind) Validate() error {
	switch k {
	case WhitelistFrom, WhitelistTo:
		return nil
	default:
		return fmt.Errorf("unknown whitelist kind %q (want %q or %q)", string(k), WhitelistFrom, WhitelistTo)
	}
}

// WhitelistEntry exempts Account from the limit of Currency.
type WhitelistEntry struct {
	Kind     WhitelistKind `json:"kind"`
	Currency SymbolCode    `json:"currency"`
	Account  Name          `json:"account"`
	AddedAt  time.Time     `json:"added_at"`
	Payer    Name          `json:"payer"`
}

// UsedLimit accumulates what Account transferred of Currency in the period
// that contains UpdatedAt. Whether that period is still current is decided
// on every read; there is no explicit reset.
type UsedLimit struct {
	Currency  SymbolCode `json:"currency"`
	Account   Name       `json:"account"`
	Used      Asset      `json:"used"`
	UpdatedAt time.Time  `json:"updated_at"`
}
