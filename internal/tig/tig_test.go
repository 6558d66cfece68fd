package tig

import (
	"math/big"
	"strings"
	"testing"

	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/unroll"
)

// mkIntSystem declares three unconstrained int state variables: tig's own
// mechanics are under test here, not any particular system's dynamics.
func mkIntSystem(f *term.Factory) *sys.System {
	x, y, z := f.Sym("x"), f.Sym("y"), f.Sym("z")
	svars := []sys.StateVar{
		{Sym: x, Domain: term.CstInt},
		{Sym: y, Domain: term.CstInt},
		{Sym: z, Domain: term.CstInt},
	}
	return sys.NewSystem(f.Sym("ints"), svars, f.Bool(true), f.Bool(true))
}

func xyzModelFunc(vars []string) (solver.RawModel, error) {
	model := make(solver.RawModel, len(vars))
	for _, v := range vars {
		val := int64(0)
		if strings.HasPrefix(v, "z@") {
			val = 5
		}
		model[v] = solver.RawValue{Kind: term.CstInt, I: big.NewInt(val)}
	}
	return model, nil
}

func mustStepUnroller(t *testing.T, system *sys.System, f *term.Factory, fake *solver.FakeSolver) *unroll.Unroller {
	t.Helper()
	u, err := unroll.Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk step: %v", err)
	}
	return u.ToStep()
}

// TestStabilizeSplitsThenConfirmsEqualityAndOrder exercises the full
// stabilize loop: a three-term class {x,y,z} splits once (x,y land
// together at 0, z lands alone at 5), then the x=y class and the x<=z
// edge each get confirmed inductive once the checker stops reporting
// counterexamples.
func TestStabilizeSplitsThenConfirmsEqualityAndOrder(t *testing.T) {
	f := term.NewFactory()
	system := mkIntSystem(f)
	fake := solver.NewFakeSolver()

	calls := 0
	fake.CheckSatFunc = func(actlits []string) (bool, error) {
		calls++
		return calls == 1, nil
	}
	fake.ModelFunc = xyzModelFunc

	base, err := unroll.Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk base: %v", err)
	}
	step := mustStepUnroller(t, system, f, fake)

	xSym, ySym, zSym := f.Sym("x"), f.Sym("y"), f.Sym("z")
	x := f.SVar(xSym, term.Curr)
	y := f.SVar(ySym, term.Curr)
	z := f.SVar(zSym, term.Curr)

	g := NewGraph(IntDomain{}, []*term.Term{x, y, z})

	proved, err := Stabilize(g, base, step, term.Offset(1))
	if err != nil {
		t.Fatalf("Stabilize: %v", err)
	}
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after stabilize: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("expected the graph to settle into 2 classes (the {x,y} pair and z), got %d", g.Len())
	}
	if len(proved) != 2 {
		t.Fatalf("expected exactly one equality and one ordering fact published, got %d: %v", len(proved), proved)
	}
}

func TestKSplitAllSplitsWithoutTouchingEdges(t *testing.T) {
	f := term.NewFactory()
	system := mkIntSystem(f)
	fake := solver.NewFakeSolver()
	fake.CheckSatFunc = func(actlits []string) (bool, error) { return true, nil }
	fake.ModelFunc = xyzModelFunc

	base, err := unroll.Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}

	xSym, ySym, zSym := f.Sym("x"), f.Sym("y"), f.Sym("z")
	x := f.SVar(xSym, term.Curr)
	y := f.SVar(ySym, term.Curr)
	z := f.SVar(zSym, term.Curr)
	g := NewGraph(IntDomain{}, []*term.Term{x, y, z})

	if err := KSplitAll(g, base, term.Offset(1)); err != nil {
		t.Fatalf("KSplitAll: %v", err)
	}
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after KSplitAll: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("expected the split to produce 2 classes ({x,y} and {z}), got %d", g.Len())
	}
}

func TestDomainForUnknownKindRejected(t *testing.T) {
	if _, ok := domainFor(term.CstKind(99)); ok {
		t.Fatalf("expected an unrecognized constant kind to be rejected")
	}
	if _, ok := domainFor(term.CstBool); !ok {
		t.Fatalf("expected CstBool to resolve to BoolDomain")
	}
}
