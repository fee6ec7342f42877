package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// beginTestTx opens a transaction that is rolled back at cleanup unless
// the test commits it.
func beginTestTx(t *testing.T, s *Store) *Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func createTestDebt(debtor, target model.Name, amount, memo string) model.Debt {
	a := model.MustParseAsset(amount)
	return model.Debt{
		Debtor:    debtor,
		Target:    target,
		Amount:    a,
		CreatedAt: testNow,
		Memo:      memo,
		Digest:    model.DebtDigest(debtor, target, a, memo),
		Payer:     "limiter",
	}
}

func testLock(account model.Name, note string) model.Lock {
	return model.Lock{Account: account, CreatedAt: testNow, Note: note, Payer: "debtadmin"}
}
