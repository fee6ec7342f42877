// Package directory resolves currency codes to their issuer and precision.
//
// Currencies are declared in CUE:
//
//	currency: CUNT: {issuer: "cryptounit", precision: 4}
//
// Every file is unified with a schema that constrains codes, issuer names
// and precision, so a malformed registry fails at load time rather than at
// the first lookup.
package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

const schemaSource = `
#Currency: {
	issuer:    =~"^[a-z1-5.]{0,11}[a-z1-5]$"
	precision: int & >=0 & <=18
}

currency: [=~"^[A-Z]{1,7}$"]: #Currency
currency: [!~"^[A-Z]{1,7}$"]: _|_
`

// Registry is an immutable currency directory.
type Registry struct {
	currencies map[model.SymbolCode]model.Currency
}

// NewStatic builds a registry from literal entries. Later entries with the
// same code replace earlier ones.
func NewStatic(currencies ...model.Currency) *Registry {
	r := &Registry{currencies: make(map[model.SymbolCode]model.Currency, len(currencies))}
	for _, c := range currencies {
		r.currencies[c.Code] = c
	}
	return r
}

// Lookup returns the currency registered under code, or an error wrapping
// model.ErrUnknownCurrency.
func (r *Registry) Lookup(code model.SymbolCode) (model.Currency, error) {
	c, ok := r.currencies[code]
	if !ok {
		return model.Currency{}, fmt.Errorf("%w %s", model.ErrUnknownCurrency, code)
	}
	return c, nil
}

// Codes lists every registered code in sorted order.
func (r *Registry) Codes() []model.SymbolCode {
	codes := make([]model.SymbolCode, 0, len(r.currencies))
	for code := range r.currencies {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Parse builds a registry from one CUE source.
func Parse(filename string, src []byte) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}
	return build(ctx, v)
}

// LoadDir builds a registry from every .cue file in dir. The files are
// unified, so one currency may not be declared twice with different
// values.
func LoadDir(dir string) (*Registry, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}
	slices.Sort(files)

	ctx := cuecontext.New()
	var merged cue.Value
	for i, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		v := ctx.CompileBytes(src, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		if i == 0 {
			merged = v
		} else {
			merged = merged.Unify(v)
		}
	}
	return build(ctx, merged)
}

type entry struct {
	Issuer    string `json:"issuer"`
	Precision uint8  `json:"precision"`
}

func build(ctx *cue.Context, v cue.Value) (*Registry, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate currencies: %w", err)
	}

	r := &Registry{currencies: map[model.SymbolCode]model.Currency{}}

	currencies := v.LookupPath(cue.ParsePath("currency"))
	if !currencies.Exists() {
		return r, nil
	}

	iter, err := currencies.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}
	for iter.Next() {
		var e entry
		if err := iter.Value().Decode(&e); err != nil {
			return nil, fmt.Errorf("currency.%s: %w", iter.Label(), err)
		}
		code := model.SymbolCode(iter.Label())
		r.currencies[code] = model.Currency{
			Code:      code,
			Issuer:    model.Name(e.Issuer),
			Precision: e.Precision,
		}
	}
	return r, nil
}
