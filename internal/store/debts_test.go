package store

import (
	"context"
	"errors"
	"testing"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

func TestDebts_InsertAssignsDenseIDs(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	for i, memo := range []string{"a", "b", "c"} {
		id, err := tx.InsertDebt(ctx, createTestDebt("alice", "bob", "1.0000 CUNT", memo))
		if err != nil {
			t.Fatalf("InsertDebt(%s) failed: %v", memo, err)
		}
		if id != uint64(i) {
			t.Errorf("InsertDebt(%s) id = %d, want %d", memo, id, i)
		}
	}

	// Partitions are independent.
	id, err := tx.InsertDebt(ctx, createTestDebt("carol", "bob", "1.0000 CUNT", "a"))
	if err != nil {
		t.Fatalf("InsertDebt(carol) failed: %v", err)
	}
	if id != 0 {
		t.Errorf("first id in new partition = %d, want 0", id)
	}
}

func TestDebts_IDsNeverReused(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	first, err := tx.InsertDebt(ctx, createTestDebt("alice", "bob", "1.0000 CUNT", "a"))
	if err != nil {
		t.Fatalf("InsertDebt() failed: %v", err)
	}
	if err := tx.DeleteDebt(ctx, "alice", first); err != nil {
		t.Fatalf("DeleteDebt() failed: %v", err)
	}

	second, err := tx.InsertDebt(ctx, createTestDebt("alice", "bob", "1.0000 CUNT", "a"))
	if err != nil {
		t.Fatalf("InsertDebt() after delete failed: %v", err)
	}
	if second == first {
		t.Errorf("id %d was reused after deletion", first)
	}
}

func TestDebts_DigestUniquePerDebtor(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	d := createTestDebt("alice", "bob", "100.0000 CUNT", "m")
	if _, err := tx.InsertDebt(ctx, d); err != nil {
		t.Fatalf("InsertDebt() failed: %v", err)
	}
	if _, err := tx.InsertDebt(ctx, d); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate InsertDebt() = %v, want ErrConflict", err)
	}
}

func TestDebts_FindByDigest(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	d := createTestDebt("alice", "bob", "100.0000 CUNT", "m")
	id, err := tx.InsertDebt(ctx, d)
	if err != nil {
		t.Fatalf("InsertDebt() failed: %v", err)
	}

	got, err := tx.FindDebtByDigest(ctx, "alice", d.Digest)
	if err != nil {
		t.Fatalf("FindDebtByDigest() failed: %v", err)
	}
	if got.ID != id || got.Target != "bob" || got.Memo != "m" {
		t.Errorf("FindDebtByDigest() = %+v", got)
	}
	if got.Amount.String() != "100.0000 CUNT" {
		t.Errorf("Amount = %s, want 100.0000 CUNT", got.Amount)
	}
	if got.Digest != d.Digest {
		t.Errorf("Digest = %s, want %s", got.Digest, d.Digest)
	}

	// Same digest, other partition.
	if _, err := tx.FindDebtByDigest(ctx, "bob", d.Digest); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindDebtByDigest(bob) = %v, want ErrNotFound", err)
	}

	byID, err := tx.GetDebt(ctx, "alice", id)
	if err != nil {
		t.Fatalf("GetDebt() failed: %v", err)
	}
	if byID != got {
		t.Errorf("GetDebt() = %+v, want %+v", byID, got)
	}
}

func TestDebts_HasAndList(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	has, err := tx.HasDebts(ctx, "alice")
	if err != nil || has {
		t.Fatalf("HasDebts() on empty = %v, %v", has, err)
	}

	for _, d := range []struct {
		debtor model.Name
		memo   string
	}{{"bob", "x"}, {"alice", "b"}, {"alice", "a"}} {
		if _, err := tx.InsertDebt(ctx, createTestDebt(d.debtor, "carol", "1.0000 CUNT", d.memo)); err != nil {
			t.Fatalf("InsertDebt() failed: %v", err)
		}
	}

	has, err = tx.HasDebts(ctx, "alice")
	if err != nil || !has {
		t.Errorf("HasDebts(alice) = %v, %v; want true", has, err)
	}

	mine, err := tx.ListDebts(ctx, "alice")
	if err != nil {
		t.Fatalf("ListDebts(alice) failed: %v", err)
	}
	if len(mine) != 2 || mine[0].Memo != "b" || mine[1].Memo != "a" {
		t.Errorf("ListDebts(alice) = %+v, want memos [b a] in id order", mine)
	}

	all, err := tx.ListDebts(ctx, "")
	if err != nil {
		t.Fatalf("ListDebts(all) failed: %v", err)
	}
	if len(all) != 3 || all[0].Debtor != "alice" || all[2].Debtor != "bob" {
		t.Errorf("ListDebts(all) = %+v", all)
	}
}
