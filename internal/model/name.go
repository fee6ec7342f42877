package model

import (
	"errors"
	"fmt"
)

// Name identifies an account or a role holder.
//
// Names follow the account naming rules of the transfer authority:
// 1 to 12 characters from [a-z1-5.], not ending with a dot.
type Name string

// MaxNameLen is the longest accepted account name.
const MaxNameLen = 12

// Validate reports whether n is a well-formed account name.
func (n Name) Validate() error {
	if n == "" {
		return errors.New("empty account name")
	}
	if len(n) > MaxNameLen {
		return fmt.Errorf("account name %q longer than %d characters", string(n), MaxNameLen)
	}
	for i := 0; i < len(n); i++ {
		c := n[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '1' && c <= '5') && c != '.' {
			return fmt.Errorf("account name %q contains invalid character %q", string(n), c)
		}
	}
	if n[len(n)-1] == '.' {
		return fmt.Errorf("account name %q ends with a dot", string(n))
	}
	return nil
}

// SymbolCode is a currency code such as "CUNT" or "UNTB".
type SymbolCode string

// MaxSymbolCodeLen is the longest accepted currency code.
const MaxSymbolCodeLen = 7

// Validate reports whether c is 1 to 7 upper-case ASCII letters.
func (c SymbolCode) Validate() error {
	if c == "" {
		return errors.New("empty currency code")
	}
	if len(c) > MaxSymbolCodeLen {
		return fmt.Errorf("currency code %q longer than %d characters", string(c), MaxSymbolCodeLen)
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return fmt.Errorf("currency code %q must be upper-case letters only", string(c))
		}
	}
	return nil
}

// Authority is the set of identities that signed an invocation.
// It is the host-provided capability primitive: Has(n) is true when the
// invocation carries n's authorization.
type Authority []Name

// Has reports whether n signed the invocation.
func (a Authority) Has(n Name) bool {
	for _, s := range a {
		if s == n {
			return true
		}
	}
	return false
}

// Currency is a currency registered with the issuance directory.
type Currency struct {
	Code      SymbolCode `json:"code"`
	Issuer    Name       `json:"issuer"`
	Precision uint8      `json:"precision"`
}

// ErrUnknownCurrency is returned by directories for codes they do not know.
var ErrUnknownCurrency = errors.New("unknown token")
