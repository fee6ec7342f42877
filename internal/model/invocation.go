package model

import "time"

// Invocation is one unit of work submitted by the host.
// Now is read once by the host and stays constant for the whole invocation.
type Invocation struct {
	Args      Args
	Authority Authority
	Now       time.Time
}

// Status is the outcome class of an executed invocation.
type Status string

const (
	// StatusCommitted means an administrative operation changed state.
	StatusCommitted Status = "committed"
	// StatusAllowed means the gate approved a transfer.
	StatusAllowed Status = "allowed"
	// StatusRejected means the invocation aborted with no effect.
	StatusRejected Status = "rejected"
)

// Gate paths name the rule that approved a transfer.
const (
	PathDebtRepayment   = "debt repayment"
	PathReservedCode    = "reserved currency"
	PathNoLimit         = "no limit"
	PathDestinationList = "destination whitelisted"
	PathSourceList      = "source whitelisted"
	PathWithinLimit     = "within limit"
)

// Result describes an executed invocation as recorded in the journal.
type Result struct {
	Seq    int64  `json:"seq"`
	ID     string `json:"id"`
	Token  string `json:"token"`
	Op     Op     `json:"-"`
	Status Status `json:"status"`
	// Code is the error code of a rejection; empty otherwise.
	Code string `json:"code,omitempty"`
	// Reason is the human-readable rejection message.
	Reason string `json:"reason,omitempty"`
	// Detail summarizes what a successful invocation did.
	Detail string `json:"detail,omitempty"`
}

// DecisionEvent is published for every gate decision.
type DecisionEvent struct {
	Token  string    `json:"token"`
	Seq    int64     `json:"seq"`
	From   Name      `json:"from"`
	To     Name      `json:"to"`
	Amount Asset     `json:"amount"`
	Memo   string    `json:"memo"`
	Status Status    `json:"status"`
	Path   string    `json:"path,omitempty"`
	Code   string    `json:"code,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}
