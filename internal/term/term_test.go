package term

import (
	"math/big"
	"testing"
)

func TestInterningIsDeterministic(t *testing.T) {
	f := NewFactory()
	x := f.Sym("x")
	s1 := f.Op(OpAnd, f.Var(x), f.Bool(true))
	s2 := f.Op(OpAnd, f.Var(f.Sym("x")), f.Bool(true))
	if s1 != s2 {
		t.Fatalf("structurally equal terms did not intern to the same pointer")
	}
	if s1.Hkey() != s2.Hkey() {
		t.Fatalf("equal terms have different hkeys")
	}
}

func TestInterningDistinguishesStructure(t *testing.T) {
	f := NewFactory()
	x, y := f.Sym("x"), f.Sym("y")
	a := f.Op(OpAnd, f.Var(x), f.Var(y))
	b := f.Op(OpOr, f.Var(x), f.Var(y))
	if a == b {
		t.Fatalf("structurally distinct terms interned to the same pointer")
	}
	if a.Hkey() == b.Hkey() {
		t.Fatalf("structurally distinct terms produced the same hkey")
	}
}

func TestBumpShiftsCurrToNext(t *testing.T) {
	f := NewFactory()
	x := f.Sym("x")
	one := f.Op(OpEq, f.SVar(x, Curr), f.Int(0))
	bumped, err := f.Bump(one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := f.Op(OpEq, f.SVar(x, Next), f.Int(0))
	if bumped != want {
		t.Fatalf("bump did not shift Curr to Next: got %s, want %s", bumped, want)
	}
}

func TestBumpTwiceFails(t *testing.T) {
	f := NewFactory()
	x := f.Sym("x")
	one := f.SVar(x, Curr)
	bumped, err := f.Bump(one)
	if err != nil {
		t.Fatalf("first bump should succeed: %v", err)
	}
	if _, err := f.Bump(bumped); err == nil {
		t.Fatalf("bumping a term that already has a Next variable should fail")
	}
}

func TestBumpLeavesConstAndVarAlone(t *testing.T) {
	f := NewFactory()
	y := f.Sym("y")
	term := f.Op(OpAnd, f.Var(y), f.Bool(true))
	bumped, err := f.Bump(term)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bumped != term {
		t.Fatalf("bump should not touch one-state Var or Const terms")
	}
}

func TestOffset2Index(t *testing.T) {
	o := InitOffset2()
	for k := 0; k < 5; k++ {
		if uint32(o.Curr()) != uint32(k) {
			t.Fatalf("at iteration %d: curr = %d, want %d", k, o.Curr(), k)
		}
		if uint32(o.Next()) != uint32(k+1) {
			t.Fatalf("at iteration %d: next = %d, want %d", k, o.Next(), k+1)
		}
		o = o.Nxt()
	}
}

func TestSmt2OffsetMergeNoIsIdentity(t *testing.T) {
	one := OneOffset(3)
	merged, ok := NoOffset().Merge(one)
	if !ok || merged != one {
		t.Fatalf("merge(No, x) should be x, got %v ok=%v", merged, ok)
	}
}

func TestSmt2OffsetMergeCommutative(t *testing.T) {
	cases := []Smt2Offset{NoOffset(), OneOffset(0), OneOffset(1), TwoOffset(0, 1)}
	for _, a := range cases {
		for _, b := range cases {
			ab, okab := a.Merge(b)
			ba, okba := b.Merge(a)
			if okab != okba {
				t.Fatalf("merge(%v,%v) defined=%v but merge(%v,%v) defined=%v", a, b, okab, b, a, okba)
			}
			if okab && !ab.equal(ba) {
				t.Fatalf("merge not commutative for %v, %v: %v vs %v", a, b, ab, ba)
			}
		}
	}
}

func TestSmt2OffsetMergeConflict(t *testing.T) {
	if _, ok := OneOffset(0).Merge(OneOffset(5)); !ok {
		t.Fatalf("merging two distinct One offsets should succeed into a Two")
	}
	two := TwoOffset(0, 1)
	if _, ok := two.Merge(OneOffset(7)); ok {
		t.Fatalf("merging a Two with an unrelated One should conflict")
	}
	otherTwo := TwoOffset(2, 3)
	if _, ok := two.Merge(otherTwo); ok {
		t.Fatalf("merging two unequal Twos should conflict")
	}
}

func TestEvalBoolBasics(t *testing.T) {
	f := NewFactory()
	x := f.Sym("x")
	model := NewModel()
	model.Set(x, 0, f.CstInt(big.NewInt(0)))
	term := f.Op(OpEq, f.SVar(x, Curr), f.Int(0))
	ok, err := f.EvalBool(term, InitOffset2(), model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected x@0 = 0 to evaluate true")
	}
}
