package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPrecision is the largest number of decimal places a Symbol may carry.
const MaxPrecision = 18

// Symbol pairs a currency code with its number of decimal places.
type Symbol struct {
	Code      SymbolCode `json:"code"`
	Precision uint8      `json:"precision"`
}

// Asset is an amount in minor units of a Symbol.
// Asset{Amount: 1000000, Symbol: Symbol{"CUNT", 4}} is "100.0000 CUNT".
type Asset struct {
	Amount int64
	Symbol Symbol
}

// String renders the canonical form "<decimal> <CODE>", with exactly
// Symbol.Precision fractional digits. The canonical form feeds the debt
// digest, so it must never change for a given Asset.
func (a Asset) String() string {
	p := int32(a.Symbol.Precision)
	return decimal.New(a.Amount, -p).StringFixed(p) + " " + string(a.Symbol.Code)
}

// WithAmount returns a copy of a carrying amount instead.
func (a Asset) WithAmount(amount int64) Asset {
	a.Amount = amount
	return a
}

// Code is shorthand for a.Symbol.Code.
func (a Asset) Code() SymbolCode {
	return a.Symbol.Code
}

// MarshalText encodes the canonical string form.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the canonical string form.
func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAsset parses "<decimal> <CODE>", e.g. "100.0000 CUNT".
// The number of fractional digits written becomes the precision.
func ParseAsset(s string) (Asset, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("invalid asset %q: want \"<amount> <CODE>\"", s)
	}
	num, code := parts[0], SymbolCode(parts[1])
	if err := code.Validate(); err != nil {
		return Asset{}, fmt.Errorf("invalid asset %q: %w", s, err)
	}
	if !isPlainDecimal(num) {
		return Asset{}, fmt.Errorf("invalid asset %q: malformed amount", s)
	}

	precision := 0
	if dot := strings.IndexByte(num, '.'); dot >= 0 {
		precision = len(num) - dot - 1
	}
	if precision > MaxPrecision {
		return Asset{}, fmt.Errorf("invalid asset %q: precision %d exceeds %d", s, precision, MaxPrecision)
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset %q: %w", s, err)
	}
	minor := d.Shift(int32(precision))
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return Asset{}, fmt.Errorf("invalid asset %q: amount out of range", s)
	}

	return Asset{
		Amount: minor.IntPart(),
		Symbol: Symbol{Code: code, Precision: uint8(precision)},
	}, nil
}

// MustParseAsset is like ParseAsset but panics on error.
// Use only in tests or with literal inputs.
func MustParseAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

// isPlainDecimal accepts an optional minus sign, digits, and at most one
// dot followed by digits. Exponents and leading plus signs are rejected.
func isPlainDecimal(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if intPart == "" || (hasDot && frac == "") {
		return false
	}
	for _, part := range []string{intPart, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return false
			}
		}
	}
	return true
}
