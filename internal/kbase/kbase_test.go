package kbase

import (
	"testing"

	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/term"
)

func TestPropertyStatusRoundTrip(t *testing.T) {
	store, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	f := term.NewFactory()
	p := f.Sym("P")

	if _, ok, err := store.PropertyStatus(p); err != nil || ok {
		t.Fatalf("expected no status recorded yet, got ok=%v err=%v", ok, err)
	}
	if err := store.UpsertProperty(p, "open"); err != nil {
		t.Fatalf("UpsertProperty: %v", err)
	}
	status, ok, err := store.PropertyStatus(p)
	if err != nil || !ok || status != "open" {
		t.Fatalf("expected status=open, got %q ok=%v err=%v", status, ok, err)
	}
	if err := store.UpsertProperty(p, "proved"); err != nil {
		t.Fatalf("UpsertProperty (update): %v", err)
	}
	status, _, err = store.PropertyStatus(p)
	if err != nil || status != "proved" {
		t.Fatalf("expected status to update to proved, got %q err=%v", status, err)
	}
}

func TestOpenPropertiesListsOnlyOpenOnes(t *testing.T) {
	store, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	f := term.NewFactory()
	if err := store.UpsertProperty(f.Sym("P"), "open"); err != nil {
		t.Fatalf("UpsertProperty P: %v", err)
	}
	if err := store.UpsertProperty(f.Sym("Q"), "proved"); err != nil {
		t.Fatalf("UpsertProperty Q: %v", err)
	}
	open, err := store.OpenProperties()
	if err != nil {
		t.Fatalf("OpenProperties: %v", err)
	}
	if len(open) != 1 || open[0] != "P" {
		t.Fatalf("expected only P to be open, got %v", open)
	}
}

func TestSetKTrueAndAddInvariant(t *testing.T) {
	store, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	f := term.NewFactory()
	p := f.Sym("P")
	if err := store.SetKTrue(p, technique.Bmc, term.Offset(3)); err != nil {
		t.Fatalf("SetKTrue: %v", err)
	}
	if err := store.SetKTrue(p, technique.Bmc, term.Offset(7)); err != nil {
		t.Fatalf("SetKTrue (advance): %v", err)
	}

	sysSym := f.Sym("counter")
	inv := term.NewSTerm(f.Op(term.OpEq, f.Var(f.Sym("x")), f.Var(f.Sym("x"))))
	if err := store.AddInvariant(sysSym, inv); err != nil {
		t.Fatalf("AddInvariant: %v", err)
	}
	if err := store.AddInvariant(sysSym, inv); err != nil {
		t.Fatalf("AddInvariant (duplicate): %v", err)
	}
	n, err := store.InvariantCount(sysSym)
	if err != nil {
		t.Fatalf("InvariantCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected duplicate invariant inserts to be idempotent, got count %d", n)
	}
}
