package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

func listDebts(t *testing.T, s *store.Store, debtor model.Name) []model.Debt {
	t.Helper()
	var debts []model.Debt
	view(t, s, func(tx *store.Tx) error {
		var err error
		debts, err = tx.ListDebts(context.Background(), debtor)
		return err
	})
	return debts
}

func debtArgs(memo string) model.RecordDebtArgs {
	return model.RecordDebtArgs{Debtor: "alice", Target: "bob", Amount: asset("100.0000 CUNT"), Memo: memo}
}

func TestRecordDebt(t *testing.T) {
	e, s := newTestEngine(t)

	res := mustRun(t, e, debtArgs("m"), roleAdmin)

	assert.Equal(t, "debt alice/0: 100.0000 CUNT owed to bob", res.Detail)
	debts := listDebts(t, s, "alice")
	require.Len(t, debts, 1)
	d := debts[0]
	assert.Equal(t, uint64(0), d.ID)
	assert.Equal(t, model.Name("bob"), d.Target)
	assert.Equal(t, "m", d.Memo)
	assert.Equal(t, testNow, d.CreatedAt)
	assert.Equal(t, roleAdmin, d.Payer)
	assert.Equal(t, model.DebtDigest("alice", "bob", asset("100.0000 CUNT"), "m"), d.Digest)
}

func TestRecordDebt_Validation(t *testing.T) {
	tests := []struct {
		name   string
		args   model.RecordDebtArgs
		reason string
	}{
		{
			name:   "zero amount",
			args:   model.RecordDebtArgs{Debtor: "alice", Target: "bob", Amount: asset("0.0000 CUNT"), Memo: "m"},
			reason: "valid positive debt amount only",
		},
		{
			name:   "negative amount",
			args:   model.RecordDebtArgs{Debtor: "alice", Target: "bob", Amount: asset("-1.0000 CUNT"), Memo: "m"},
			reason: "valid positive debt amount only",
		},
		{
			name:   "empty memo",
			args:   model.RecordDebtArgs{Debtor: "alice", Target: "bob", Amount: asset("1.0000 CUNT")},
			reason: "empty memo string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newTestEngine(t)

			res, err := run(t, e, tt.args, roleOperator)

			assert.True(t, IsInvalidArgument(err))
			assert.Equal(t, tt.reason, res.Reason)
			assert.Empty(t, listDebts(t, s, "alice"))
		})
	}
}

func TestRecordDebt_DuplicateDigest(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, debtArgs("m"), roleAdmin)

	res, err := run(t, e, debtArgs("m"), roleOperator)

	assert.True(t, IsAlreadyExists(err))
	assert.Equal(t, "debt hash is not unique", res.Reason)
	assert.Len(t, listDebts(t, s, "alice"), 1)
}

func TestRecordDebt_SameTupleOtherDebtor(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, debtArgs("m"), roleAdmin)

	other := debtArgs("m")
	other.Debtor = "carol"
	mustRun(t, e, other, roleAdmin)

	assert.Len(t, listDebts(t, s, ""), 2, "digests are unique per debtor only")
}

func TestRecordDebt_IDsAreNeverReused(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, debtArgs("a"), roleAdmin)
	mustRun(t, e, debtArgs("b"), roleAdmin)
	mustRun(t, e, model.RemoveDebtArgs{Debtor: "alice", ID: 1}, roleAdmin)

	res := mustRun(t, e, debtArgs("c"), roleAdmin)

	assert.Equal(t, "debt alice/2: 100.0000 CUNT owed to bob", res.Detail)
	var ids []uint64
	for _, d := range listDebts(t, s, "alice") {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []uint64{0, 2}, ids)
}

func TestRecordDebt_Unauthorized(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := run(t, e, debtArgs("m"), "alice")

	assert.True(t, IsAuthorizationDenied(err))
}

func TestDeleteDebt(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, debtArgs("a"), roleAdmin)
	mustRun(t, e, debtArgs("b"), roleAdmin)

	a := debtArgs("b")
	res := mustRun(t, e, model.DeleteDebtArgs{Debtor: a.Debtor, Target: a.Target, Amount: a.Amount, Memo: a.Memo}, roleOperator)

	assert.Equal(t, "deleted debt alice/1", res.Detail)
	debts := listDebts(t, s, "alice")
	require.Len(t, debts, 1)
	assert.Equal(t, "a", debts[0].Memo)
}

func TestDeleteDebt_NoMatch(t *testing.T) {
	e, _ := newTestEngine(t)
	mustRun(t, e, debtArgs("a"), roleAdmin)

	res, err := run(t, e, model.DeleteDebtArgs{Debtor: "alice", Target: "bob", Amount: asset("100.000 CUNT"), Memo: "a"}, roleOperator)

	assert.True(t, IsNotFound(err), "a different precision is a different digest")
	assert.Equal(t, "debt not found", res.Reason)
}

func TestRemoveDebt(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, debtArgs("a"), roleAdmin)

	mustRun(t, e, model.RemoveDebtArgs{Debtor: "alice", ID: 0}, roleAdmin)
	assert.Empty(t, listDebts(t, s, "alice"))

	_, err := run(t, e, model.RemoveDebtArgs{Debtor: "alice", ID: 0}, roleAdmin)
	assert.True(t, IsNotFound(err))
}

func TestRemoveDebt_IDOutOfRange(t *testing.T) {
	e, s := newTestEngine(t)
	mustRun(t, e, debtArgs("a"), roleAdmin)

	for _, id := range []uint64{math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		res, err := run(t, e, model.RemoveDebtArgs{Debtor: "alice", ID: id}, roleAdmin)
		assert.True(t, IsNotFound(err), id)
		assert.Equal(t, "debt not found", res.Reason, id)
		assert.Positive(t, res.Seq, "rejection is journaled")
	}
	assert.Len(t, listDebts(t, s, "alice"), 1)
}

func TestRemoveDebt_Unauthorized(t *testing.T) {
	e, _ := newTestEngine(t)
	mustRun(t, e, debtArgs("a"), roleAdmin)

	_, err := run(t, e, model.RemoveDebtArgs{Debtor: "alice", ID: 0}, "bob")

	assert.True(t, IsAuthorizationDenied(err))
}
