package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finboard/internal/core"
	"finboard/internal/ledger"
)

func sampleTx(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     core.Expense,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(2024, 3, 1),
		Category: "Food",
	}
}

func TestMemoryStoreCreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := New(sampleTx("a", 100), sampleTx("a", 200), sampleTx("bad", 0))

	got, err := s.ListTransactions(ctx)
	if err != nil || len(got) != 1 || got[0].Amount.Cents != 100 {
		t.Fatalf("unexpected seed: %v err=%v", got, err)
	}

	created, err := s.Create(ctx, sampleTx("", 300))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := s.Create(ctx, sampleTx("a", 1)); !errors.Is(err, ledger.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if _, err := s.Create(ctx, sampleTx("x", 0)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, "a"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	fetched, err := s.GetTransaction(ctx, created.ID)
	if err != nil || fetched.Amount.Cents != 300 {
		t.Fatalf("unexpected get: %+v err=%v", fetched, err)
	}

	got, _ = s.ListTransactions(ctx)
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("unexpected list after delete: %v", got)
	}
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(sampleTx("a", 100))
	got, _ := s.ListTransactions(ctx)
	got[0].Category = "changed"

	again, _ := s.ListTransactions(ctx)
	if again[0].Category != "Food" {
		t.Fatalf("store was mutated through list result")
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("missing seed file should not fail: %v", err)
	}
	if got, _ := s.ListTransactions(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty store, got %v", got)
	}

	seed := "date,type,category,amount\n2024-01-05,income,Salary,100.00\n2024-01-20,expense,Food,40\n"
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromDir(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _ := s.ListTransactions(context.Background())
	if len(got) != 2 || got[0].Type != core.Income || got[1].Amount.Cents != 4000 {
		t.Fatalf("unexpected seeded records: %+v", got)
	}

	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte("date,type\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromDir(dir); err == nil {
		t.Fatalf("expected error for malformed seed")
	}
}
