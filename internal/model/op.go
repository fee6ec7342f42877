package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Op enumerates every operation the engine accepts.
// The set is closed: dispatch is a switch over Args variants, never a
// lookup by name.
type Op uint8

const (
	OpUnknown Op = iota
	OpSetLock
	OpClearLock
	OpRecordDebt
	OpDeleteDebt
	OpRemoveDebt
	OpSetLimit
	OpClearLimit
	OpAddWhitelist
	OpRemoveWhitelist
	OpRemoveUsage
	OpRemoveUsages
	OpDecide
)

var opNames = [...]string{
	OpUnknown:         "unknown",
	OpSetLock:         "set_lock",
	OpClearLock:       "clear_lock",
	OpRecordDebt:      "record_debt",
	OpDeleteDebt:      "delete_debt",
	OpRemoveDebt:      "remove_debt",
	OpSetLimit:        "set_limit",
	OpClearLimit:      "clear_limit",
	OpAddWhitelist:    "add_whitelist",
	OpRemoveWhitelist: "remove_whitelist",
	OpRemoveUsage:     "remove_usage",
	OpRemoveUsages:    "remove_usages",
	OpDecide:          "decide",
}

// String returns the wire name, e.g. "record_debt".
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Ops lists every known operation in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, len(opNames)-1)
	for o := OpSetLock; o <= OpDecide; o++ {
		ops = append(ops, o)
	}
	return ops
}

// ParseOp maps a wire name back to its Op.
func ParseOp(name string) (Op, error) {
	for o := OpSetLock; o <= OpDecide; o++ {
		if opNames[o] == name {
			return o, nil
		}
	}
	return OpUnknown, fmt.Errorf("unknown operation %q", name)
}

// Args is the typed argument tuple of one operation.
// The interface is sealed; the variants below are the only implementations.
type Args interface {
	Op() Op
	Validate() error
	isArgs()
}

// SetLockArgs locks Account, or changes the note of an existing lock.
type SetLockArgs struct {
	Account Name   `json:"account"`
	Note    string `json:"note"`
}

// ClearLockArgs removes the lock on Account.
type ClearLockArgs struct {
	Account Name `json:"account"`
}

// RecordDebtArgs records that Debtor owes Amount to Target for Memo.
type RecordDebtArgs struct {
	Debtor Name   `json:"debtor"`
	Target Name   `json:"target"`
	Amount Asset  `json:"amount"`
	Memo   string `json:"memo"`
}

// DeleteDebtArgs deletes the debt whose digest matches the tuple.
type DeleteDebtArgs struct {
	Debtor Name   `json:"debtor"`
	Target Name   `json:"target"`
	Amount Asset  `json:"amount"`
	Memo   string `json:"memo"`
}

// RemoveDebtArgs deletes a debt by its id within the debtor partition.
type RemoveDebtArgs struct {
	Debtor Name   `json:"debtor"`
	ID     uint64 `json:"id"`
}

// SetLimitArgs configures the ceiling of Ceiling's currency.
type SetLimitArgs struct {
	Ceiling Asset `json:"ceiling"`
}

// ClearLimitArgs removes the limit of Currency.
type ClearLimitArgs struct {
	Currency SymbolCode `json:"currency"`
}

// AddWhitelistArgs exempts Account from Currency's limit on the Kind side.
type AddWhitelistArgs struct {
	Kind     WhitelistKind `json:"kind"`
	Account  Name          `json:"account"`
	Currency SymbolCode    `json:"currency"`
}

// RemoveWhitelistArgs drops a whitelist entry.
type RemoveWhitelistArgs struct {
	Kind     WhitelistKind `json:"kind"`
	Account  Name          `json:"account"`
	Currency SymbolCode    `json:"currency"`
}

// RemoveUsageArgs clears the usage counter of Account for Currency.
type RemoveUsageArgs struct {
	Currency SymbolCode `json:"currency"`
	Account  Name       `json:"account"`
}

// RemoveUsagesArgs clears up to Count usage counters of Currency.
type RemoveUsagesArgs struct {
	Currency SymbolCode `json:"currency"`
	Count    uint32     `json:"count"`
}

// DecideArgs describes a proposed transfer submitted to the gate.
type DecideArgs struct {
	From   Name   `json:"from"`
	To     Name   `json:"to"`
	Amount Asset  `json:"amount"`
	Memo   string `json:"memo"`
}

func (SetLockArgs) Op() Op         { return OpSetLock }
func (ClearLockArgs) Op() Op       { return OpClearLock }
func (RecordDebtArgs) Op() Op      { return OpRecordDebt }
func (DeleteDebtArgs) Op() Op      { return OpDeleteDebt }
func (RemoveDebtArgs) Op() Op      { return OpRemoveDebt }
func (SetLimitArgs) Op() Op        { return OpSetLimit }
func (ClearLimitArgs) Op() Op      { return OpClearLimit }
func (AddWhitelistArgs) Op() Op    { return OpAddWhitelist }
func (RemoveWhitelistArgs) Op() Op { return OpRemoveWhitelist }
func (RemoveUsageArgs) Op() Op     { return OpRemoveUsage }
func (RemoveUsagesArgs) Op() Op    { return OpRemoveUsages }
func (DecideArgs) Op() Op          { return OpDecide }

func (SetLockArgs) isArgs()         {}
func (ClearLockArgs) isArgs()       {}
func (RecordDebtArgs) isArgs()      {}
func (DeleteDebtArgs) isArgs()      {}
func (RemoveDebtArgs) isArgs()      {}
func (SetLimitArgs) isArgs()        {}
func (ClearLimitArgs) isArgs()      {}
func (AddWhitelistArgs) isArgs()    {}
func (RemoveWhitelistArgs) isArgs() {}
func (RemoveUsageArgs) isArgs()     {}
func (RemoveUsagesArgs) isArgs()    {}
func (DecideArgs) isArgs()          {}

// Validate checks argument shape only (names, codes). Business rules such
// as "amount must be positive" belong to the engine.
func (a SetLockArgs) Validate() error { return a.Account.Validate() }

func (a ClearLockArgs) Validate() error { return a.Account.Validate() }

func (a RecordDebtArgs) Validate() error {
	return validateDebtTuple(a.Debtor, a.Target, a.Amount)
}

func (a DeleteDebtArgs) Validate() error {
	return validateDebtTuple(a.Debtor, a.Target, a.Amount)
}

func (a RemoveDebtArgs) Validate() error { return a.Debtor.Validate() }

func (a SetLimitArgs) Validate() error { return a.Ceiling.Symbol.Code.Validate() }

func (a ClearLimitArgs) Validate() error { return a.Currency.Validate() }

func (a AddWhitelistArgs) Validate() error {
	return errors.Join(a.Kind.Validate(), a.Account.Validate(), a.Currency.Validate())
}

func (a RemoveWhitelistArgs) Validate() error {
	return errors.Join(a.Kind.Validate(), a.Account.Validate(), a.Currency.Validate())
}

func (a RemoveUsageArgs) Validate() error {
	return errors.Join(a.Currency.Validate(), a.Account.Validate())
}

func (a RemoveUsagesArgs) Validate() error { return a.Currency.Validate() }

func (a DecideArgs) Validate() error {
	return errors.Join(a.From.Validate(), a.To.Validate(), a.Amount.Symbol.Code.Validate())
}

func validateDebtTuple(debtor, target Name, amount Asset) error {
	return errors.Join(debtor.Validate(), target.Validate(), amount.Symbol.Code.Validate())
}

// NewArgs returns a zero value of the Args variant for op.
func NewArgs(op Op) (Args, error) {
	switch op {
	case OpSetLock:
		return &SetLockArgs{}, nil
	case OpClearLock:
		return &ClearLockArgs{}, nil
	case OpRecordDebt:
		return &RecordDebtArgs{}, nil
	case OpDeleteDebt:
		return &DeleteDebtArgs{}, nil
	case OpRemoveDebt:
		return &RemoveDebtArgs{}, nil
	case OpSetLimit:
		return &SetLimitArgs{}, nil
	case OpClearLimit:
		return &ClearLimitArgs{}, nil
	case OpAddWhitelist:
		return &AddWhitelistArgs{}, nil
	case OpRemoveWhitelist:
		return &RemoveWhitelistArgs{}, nil
	case OpRemoveUsage:
		return &RemoveUsageArgs{}, nil
	case OpRemoveUsages:
		return &RemoveUsagesArgs{}, nil
	case OpDecide:
		return &DecideArgs{}, nil
	default:
		return nil, fmt.Errorf("unknown operation %s", op)
	}
}

// DecodeArgs parses the JSON argument object of op.
// Unknown fields are rejected so that typos do not silently become
// zero values.
func DecodeArgs(op Op, data []byte) (Args, error) {
	ptr, err := NewArgs(op)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ptr); err != nil {
		return nil, fmt.Errorf("decode %s args: %w", op, err)
	}
	return deref(ptr), nil
}

// EncodeArgs produces the JSON argument object of a, without HTML escaping.
func EncodeArgs(a Args) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("encode %s args: %w", a.Op(), err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// deref turns the pointer produced by NewArgs back into a value variant so
// that callers can switch on value types only.
func deref(a Args) Args {
	switch v := a.(type) {
	case *SetLockArgs:
		return *v
	case *ClearLockArgs:
		return *v
	case *RecordDebtArgs:
		return *v
	case *DeleteDebtArgs:
		return *v
	case *RemoveDebtArgs:
		return *v
	case *SetLimitArgs:
		return *v
	case *ClearLimitArgs:
		return *v
	case *AddWhitelistArgs:
		return *v
	case *RemoveWhitelistArgs:
		return *v
	case *RemoveUsageArgs:
		return *v
	case *RemoveUsagesArgs:
		return *v
	case *DecideArgs:
		return *v
	default:
		return a
	}
}
