package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebtDigest_KnownValue(t *testing.T) {
	d := DebtDigest("alice", "bob", MustParseAsset("100.0000 CUNT"), "m")
	assert.Equal(t, "af2de2b1ccb34238e9845a2ec31d96110f6da5663110788ffce65bc4af0baab3", d.String())

	d = DebtDigest("alice", "bob", MustParseAsset("1.0000 CUNT"), "invoice-7")
	assert.Equal(t, "b93cb81c78451493e435e732b2ee63a6fcd70ef47177bacc2e6148324fb92085", d.String())
}

func TestDebtDigest_EveryFieldMatters(t *testing.T) {
	amount := MustParseAsset("100.0000 CUNT")
	base := DebtDigest("alice", "bob", amount, "m")

	assert.NotEqual(t, base, DebtDigest("carol", "bob", amount, "m"), "debtor")
	assert.NotEqual(t, base, DebtDigest("alice", "carol", amount, "m"), "target")
	assert.NotEqual(t, base, DebtDigest("alice", "bob", amount.WithAmount(1000001), "m"), "amount")
	assert.NotEqual(t, base, DebtDigest("alice", "bob", MustParseAsset("100.000 CUNT"), "m"), "precision")
	assert.NotEqual(t, base, DebtDigest("alice", "bob", MustParseAsset("100.0000 CUNTX"), "m"), "code")
	assert.NotEqual(t, base, DebtDigest("alice", "bob", amount, "n"), "memo")
}

func TestParseDigest(t *testing.T) {
	d := DebtDigest("alice", "bob", MustParseAsset("1.0000 CUNT"), "invoice-7")

	parsed, err := ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDigest("zz")
	assert.Error(t, err)
	_, err = ParseDigest("abcd")
	assert.Error(t, err)
}
