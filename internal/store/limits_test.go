package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

func TestLimits_Upsert(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	if _, err := tx.GetLimit(ctx, "CUNT"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLimit() on empty = %v, want ErrNotFound", err)
	}

	l := model.MonthlyLimit{Currency: "CUNT", Ceiling: model.MustParseAsset("100.0000 CUNT"), SetAt: testNow, Payer: "limiter"}
	if err := tx.PutLimit(ctx, l); err != nil {
		t.Fatalf("PutLimit() failed: %v", err)
	}

	l.Ceiling = model.MustParseAsset("250.0000 CUNT")
	l.SetAt = testNow.Add(time.Hour)
	l.Payer = "issuer"
	if err := tx.PutLimit(ctx, l); err != nil {
		t.Fatalf("PutLimit() replace failed: %v", err)
	}

	got, err := tx.GetLimit(ctx, "CUNT")
	if err != nil {
		t.Fatalf("GetLimit() failed: %v", err)
	}
	if got.Ceiling.String() != "250.0000 CUNT" || got.Payer != "issuer" || !got.SetAt.Equal(l.SetAt) {
		t.Errorf("GetLimit() = %+v", got)
	}

	limits, err := tx.ListLimits(ctx)
	if err != nil {
		t.Fatalf("ListLimits() failed: %v", err)
	}
	if len(limits) != 1 {
		t.Errorf("ListLimits() returned %d, want 1", len(limits))
	}

	if err := tx.DeleteLimit(ctx, "CUNT"); err != nil {
		t.Fatalf("DeleteLimit() failed: %v", err)
	}
	if err := tx.DeleteLimit(ctx, "CUNT"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteLimit() = %v, want ErrNotFound", err)
	}
}

func TestWhitelists_InsertDelete(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	e := model.WhitelistEntry{Kind: model.WhitelistTo, Currency: "CUNT", Account: "shop", AddedAt: testNow, Payer: "limiter"}
	if err := tx.InsertWhitelist(ctx, e); err != nil {
		t.Fatalf("InsertWhitelist() failed: %v", err)
	}
	if err := tx.InsertWhitelist(ctx, e); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate InsertWhitelist() = %v, want ErrConflict", err)
	}

	// The same account on the other side is a separate entry.
	e.Kind = model.WhitelistFrom
	if err := tx.InsertWhitelist(ctx, e); err != nil {
		t.Fatalf("InsertWhitelist(from) failed: %v", err)
	}

	in, err := tx.InWhitelist(ctx, model.WhitelistTo, "CUNT", "shop")
	if err != nil || !in {
		t.Errorf("InWhitelist(to) = %v, %v; want true", in, err)
	}
	in, err = tx.InWhitelist(ctx, model.WhitelistTo, "OTHER", "shop")
	if err != nil || in {
		t.Errorf("InWhitelist(other currency) = %v, %v; want false", in, err)
	}

	entries, err := tx.ListWhitelist(ctx, model.WhitelistTo, "")
	if err != nil {
		t.Fatalf("ListWhitelist() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != model.WhitelistTo {
		t.Errorf("ListWhitelist(to) = %+v", entries)
	}

	if err := tx.DeleteWhitelist(ctx, model.WhitelistTo, "CUNT", "shop"); err != nil {
		t.Fatalf("DeleteWhitelist() failed: %v", err)
	}
	if err := tx.DeleteWhitelist(ctx, model.WhitelistTo, "CUNT", "shop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteWhitelist() = %v, want ErrNotFound", err)
	}

	all, err := tx.ListWhitelist(ctx, "", "")
	if err != nil {
		t.Fatalf("ListWhitelist(all) failed: %v", err)
	}
	if len(all) != 1 || all[0].Kind != model.WhitelistFrom {
		t.Errorf("ListWhitelist(all) = %+v", all)
	}
}

func TestUsage_PutGetList(t *testing.T) {
	s := createTestStore(t)
	tx := beginTestTx(t, s)
	ctx := context.Background()

	if _, err := tx.GetUsage(ctx, "CUNT", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUsage() on empty = %v, want ErrNotFound", err)
	}

	for _, acct := range []model.Name{"dave", "alice", "carol", "bob"} {
		u := model.UsedLimit{Currency: "CUNT", Account: acct, Used: model.MustParseAsset("1.0000 CUNT"), UpdatedAt: testNow}
		if err := tx.PutUsage(ctx, u); err != nil {
			t.Fatalf("PutUsage(%s) failed: %v", acct, err)
		}
	}

	u := model.UsedLimit{Currency: "CUNT", Account: "alice", Used: model.MustParseAsset("7.5000 CUNT"), UpdatedAt: testNow.Add(time.Minute)}
	if err := tx.PutUsage(ctx, u); err != nil {
		t.Fatalf("PutUsage() replace failed: %v", err)
	}

	got, err := tx.GetUsage(ctx, "CUNT", "alice")
	if err != nil {
		t.Fatalf("GetUsage() failed: %v", err)
	}
	if got.Used.String() != "7.5000 CUNT" || !got.UpdatedAt.Equal(u.UpdatedAt) {
		t.Errorf("GetUsage() = %+v", got)
	}

	first, err := tx.ListUsage(ctx, "CUNT", 2)
	if err != nil {
		t.Fatalf("ListUsage(limit 2) failed: %v", err)
	}
	if len(first) != 2 || first[0].Account != "alice" || first[1].Account != "bob" {
		t.Errorf("ListUsage(limit 2) = %+v, want alice, bob", first)
	}

	if err := tx.DeleteUsage(ctx, "CUNT", "alice"); err != nil {
		t.Fatalf("DeleteUsage() failed: %v", err)
	}
	if err := tx.DeleteUsage(ctx, "CUNT", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteUsage() = %v, want ErrNotFound", err)
	}

	rest, err := tx.ListUsage(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListUsage(all) failed: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("ListUsage(all) returned %d, want 3", len(rest))
	}
}
