package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

func TestLocks_PutGetDelete(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	if _, err := tx.GetLock(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLock() on empty table = %v, want ErrNotFound", err)
	}

	if err := tx.PutLock(ctx, testLock("alice", "court order")); err != nil {
		t.Fatalf("PutLock() failed: %v", err)
	}

	got, err := tx.GetLock(ctx, "alice")
	if err != nil {
		t.Fatalf("GetLock() failed: %v", err)
	}
	if got.Note != "court order" || got.Payer != "debtadmin" || !got.CreatedAt.Equal(testNow) {
		t.Errorf("GetLock() = %+v", got)
	}
	if got.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", got.CreatedAt.Location())
	}

	if err := tx.DeleteLock(ctx, "alice"); err != nil {
		t.Fatalf("DeleteLock() failed: %v", err)
	}
	if err := tx.DeleteLock(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteLock() = %v, want ErrNotFound", err)
	}
}

func TestLocks_UpdateKeepsCreatedAt(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	if err := tx.PutLock(ctx, testLock("alice", "first")); err != nil {
		t.Fatalf("PutLock() failed: %v", err)
	}

	later := testLock("alice", "second")
	later.CreatedAt = testNow.Add(48 * time.Hour)
	later.Payer = "limiter"
	if err := tx.PutLock(ctx, later); err != nil {
		t.Fatalf("PutLock() update failed: %v", err)
	}

	got, err := tx.GetLock(ctx, "alice")
	if err != nil {
		t.Fatalf("GetLock() failed: %v", err)
	}
	if got.Note != "second" {
		t.Errorf("Note = %q, want %q", got.Note, "second")
	}
	if got.Payer != "limiter" {
		t.Errorf("Payer = %q, want %q", got.Payer, "limiter")
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want original %v", got.CreatedAt, testNow)
	}
}

func TestLocks_ListOrdered(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	for _, name := range []model.Name{"carol", "alice", "bob"} {
		if err := tx.PutLock(ctx, testLock(name, "x")); err != nil {
			t.Fatalf("PutLock(%s) failed: %v", name, err)
		}
	}

	locks, err := tx.ListLocks(ctx)
	if err != nil {
		t.Fatalf("ListLocks() failed: %v", err)
	}
	if len(locks) != 3 {
		t.Fatalf("ListLocks() returned %d locks, want 3", len(locks))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if string(locks[i].Account) != want {
			t.Errorf("locks[%d] = %s, want %s", i, locks[i].Account, want)
		}
	}

	locked, err := tx.HasLock(ctx, "bob")
	if err != nil || !locked {
		t.Errorf("HasLock(bob) = %v, %v; want true", locked, err)
	}
}
