package engine

import (
	"errors"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// ErrorCode categorizes invocation failures.
type ErrorCode string

const (
	// ErrCodeAuthorizationDenied means none of the identities allowed to run
	// the operation signed it.
	ErrCodeAuthorizationDenied ErrorCode = "AUTHORIZATION_DENIED"

	// ErrCodeNotFound means a record the operation needs does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyExists means a record with the same key already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrCodeInvalidArgument means the arguments are malformed or out of range.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodePolicyViolation means the operation is well-formed but a rule
	// forbids it (locked account, limit exceeded, reserved currency).
	ErrCodePolicyViolation ErrorCode = "POLICY_VIOLATION"
)

// GateError is the rejection of an invocation.
// A GateError always means the invocation had no effect on state.
type GateError struct {
	Code    ErrorCode
	Op      model.Op
	Message string
}

// Error implements the error interface.
func (e *GateError) Error() string {
	if e.Op != model.OpUnknown {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func gateErr(code ErrorCode, format string, args ...any) *GateError {
	return &GateError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func denied(format string, args ...any) *GateError {
	return gateErr(ErrCodeAuthorizationDenied, format, args...)
}

func notFound(format string, args ...any) *GateError {
	return gateErr(ErrCodeNotFound, format, args...)
}

func alreadyExists(format string, args ...any) *GateError {
	return gateErr(ErrCodeAlreadyExists, format, args...)
}

func invalid(format string, args ...any) *GateError {
	return gateErr(ErrCodeInvalidArgument, format, args...)
}

func violation(format string, args ...any) *GateError {
	return gateErr(ErrCodePolicyViolation, format, args...)
}

// AsGateError unwraps err to a *GateError.
func AsGateError(err error) (*GateError, bool) {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	ge, ok := AsGateError(err)
	return ok && ge.Code == code
}

// IsAuthorizationDenied returns true if err is an authorization failure.
func IsAuthorizationDenied(err error) bool { return hasCode(err, ErrCodeAuthorizationDenied) }

// IsNotFound returns true if err reports a missing record.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsAlreadyExists returns true if err reports a duplicate record.
func IsAlreadyExists(err error) bool { return hasCode(err, ErrCodeAlreadyExists) }

// IsInvalidArgument returns true if err reports malformed arguments.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsPolicyViolation returns true if err reports a rule violation.
func IsPolicyViolation(err error) bool { return hasCode(err, ErrCodePolicyViolation) }

// IsRejection returns true if err is any GateError, i.e. the invocation
// was refused rather than failed.
func IsRejection(err error) bool {
	_, ok := AsGateError(err)
	return ok
}
