package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

func inWhitelist(t *testing.T, s *store.Store, kind model.WhitelistKind, code model.SymbolCode, account model.Name) bool {
	t.Helper()
	var ok bool
	view(t, s, func(tx *store.Tx) error {
		var err error
		ok, err = tx.InWhitelist(context.Background(), kind, code, account)
		return err
	})
	return ok
}

func TestAddWhitelist(t *testing.T) {
	for _, kind := range []model.WhitelistKind{model.WhitelistFrom, model.WhitelistTo} {
		t.Run(string(kind), func(t *testing.T) {
			e, s := newTestEngine(t)

			res := mustRun(t, e, model.AddWhitelistArgs{Kind: kind, Account: "alice", Currency: "CUNT"}, cuntIssuer)

			assert.Equal(t, "whitelisted alice as "+string(kind)+" for CUNT", res.Detail)
			assert.True(t, inWhitelist(t, s, kind, "CUNT", "alice"))
			assert.False(t, inWhitelist(t, s, kind, "GOLD", "alice"))

			view(t, s, func(tx *store.Tx) error {
				entries, err := tx.ListWhitelist(context.Background(), kind, "CUNT")
				require.Len(t, entries, 1)
				assert.Equal(t, cuntIssuer, entries[0].Payer)
				assert.Equal(t, testNow, entries[0].AddedAt)
				return err
			})
		})
	}
}

func TestAddWhitelist_KindsAreIndependent(t *testing.T) {
	e, s := newTestEngine(t)

	mustRun(t, e, model.AddWhitelistArgs{Kind: model.WhitelistFrom, Account: "alice", Currency: "CUNT"}, roleOperator)
	mustRun(t, e, model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "CUNT"}, roleOperator)

	assert.True(t, inWhitelist(t, s, model.WhitelistFrom, "CUNT", "alice"))
	assert.True(t, inWhitelist(t, s, model.WhitelistTo, "CUNT", "alice"))
}

func TestAddWhitelist_Rejections(t *testing.T) {
	e, _ := newTestEngine(t)
	mustRun(t, e, model.AddWhitelistArgs{Kind: model.WhitelistFrom, Account: "alice", Currency: "CUNT"}, roleOperator)

	tests := []struct {
		name   string
		args   model.AddWhitelistArgs
		signer model.Name
		check  func(error) bool
		reason string
	}{
		{
			name:   "duplicate",
			args:   model.AddWhitelistArgs{Kind: model.WhitelistFrom, Account: "alice", Currency: "CUNT"},
			signer: roleOperator,
			check:  IsAlreadyExists,
			reason: "user already in whitelist",
		},
		{
			name:   "reserved currency",
			args:   model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "UNTB"},
			signer: roleOperator,
			check:  IsInvalidArgument,
			reason: "UNTB is not supported",
		},
		{
			name:   "unknown kind",
			args:   model.AddWhitelistArgs{Kind: "both", Account: "alice", Currency: "CUNT"},
			signer: roleOperator,
			check:  IsInvalidArgument,
			reason: `unknown whitelist kind "both" (want "from" or "to")`,
		},
		{
			name:   "unknown currency",
			args:   model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "FOO"},
			signer: roleOperator,
			check:  IsNotFound,
			reason: "unknown token FOO",
		},
		{
			name:   "account itself",
			args:   model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "CUNT"},
			signer: "alice",
			check:  IsAuthorizationDenied,
			reason: "missing authority either of token issuer or limiter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, e, tt.args, tt.signer)
			assert.True(t, tt.check(err), "got %v", err)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestRemoveWhitelist(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "GOLD"}, goldIssuer)

	mustRun(t, e, model.RemoveWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "GOLD"}, roleOperator)

	assert.False(t, inWhitelist(t, s, model.WhitelistTo, "GOLD", "alice"))
}

func TestRemoveWhitelist_Absent(t *testing.T) {
	e, _ := newTestEngine(t)
	mustRun(t, e, model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "GOLD"}, goldIssuer)

	res, err := run(t, e, model.RemoveWhitelistArgs{Kind: model.WhitelistFrom, Account: "alice", Currency: "GOLD"}, goldIssuer)

	assert.True(t, IsNotFound(err))
	assert.Equal(t, "user not in whitelist", res.Reason)
}

func TestRemoveWhitelist_UnknownCurrency(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, signer := range []model.Name{roleOperator, goldIssuer} {
		res, err := run(t, e, model.RemoveWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "FOO"}, signer)
		assert.True(t, IsNotFound(err), signer)
		assert.Equal(t, "unknown token FOO", res.Reason, signer)
	}
}

func TestRemoveWhitelist_Unauthorized(t *testing.T) {
	e, _ := newTestEngine(t)
	mustRun(t, e, model.AddWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "GOLD"}, goldIssuer)

	_, err := run(t, e, model.RemoveWhitelistArgs{Kind: model.WhitelistTo, Account: "alice", Currency: "GOLD"}, cuntIssuer)

	assert.True(t, IsAuthorizationDenied(err))
}
