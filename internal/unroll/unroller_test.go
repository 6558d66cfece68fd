package unroll

import (
	"strings"
	"testing"

	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
)

// mkCounterSystem builds a tiny one-bit counter: a single boolean state
// variable x, init x = false, trans x' = not x.
func mkCounterSystem(f *term.Factory) *sys.System {
	xSym := f.Sym("x")
	sv := sys.StateVar{Sym: xSym, Domain: term.CstBool}
	curr := f.SVar(xSym, term.Curr)
	next := f.SVar(xSym, term.Next)
	init := f.Op(term.OpEq, curr, f.Bool(false))
	trans := f.Op(term.OpEq, next, f.Op(term.OpNot, curr))
	return sys.NewSystem(f.Sym("counter"), []sys.StateVar{sv}, init, trans)
}

func TestUnrollInitAssertsInitAndTrans(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	if err := u.UnrollInit(term.InitOffset2()); err != nil {
		t.Fatalf("UnrollInit: %v", err)
	}
	if _, ok := fake.Declared["x@0"]; !ok {
		t.Fatalf("expected x@0 declared, got %v", fake.Declared)
	}
	if _, ok := fake.Declared["x@1"]; !ok {
		t.Fatalf("expected x@1 declared, got %v", fake.Declared)
	}
	if len(fake.Asserts) != 2 {
		t.Fatalf("expected 2 asserts (init, trans), got %d: %v", len(fake.Asserts), fake.Asserts)
	}
	if !strings.Contains(fake.Asserts[0], "x@0") {
		t.Fatalf("expected init assert to mention x@0, got %q", fake.Asserts[0])
	}
	if !strings.Contains(fake.Asserts[1], "x@1") || !strings.Contains(fake.Asserts[1], "x@0") {
		t.Fatalf("expected trans assert to mention both x@0 and x@1, got %q", fake.Asserts[1])
	}
}

func TestUnrollAdvancesDepthAndFrontier(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	if err := u.UnrollInit(term.InitOffset2()); err != nil {
		t.Fatalf("UnrollInit: %v", err)
	}
	if u.Depth() != 0 {
		t.Fatalf("expected depth 0 right after UnrollInit, got %d", u.Depth())
	}
	next, err := u.Unroll()
	if err != nil {
		t.Fatalf("Unroll: %v", err)
	}
	if next != 2 {
		t.Fatalf("expected frontier 2 after one Unroll, got %d", next)
	}
	if u.Depth() != 1 {
		t.Fatalf("expected depth 1 after one Unroll, got %d", u.Depth())
	}
	if _, ok := fake.Declared["x@2"]; !ok {
		t.Fatalf("expected x@2 declared, got %v", fake.Declared)
	}
}

func TestUnrollBeforeInitPanics(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic calling Unroll before UnrollInit")
		}
	}()
	_, _ = u.Unroll()
}

func TestAddInvsAssertsAcrossRangeAndSticks(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	if err := u.UnrollInit(term.InitOffset2()); err != nil {
		t.Fatalf("UnrollInit: %v", err)
	}
	inv := term.NewSTerm(f.Op(term.OpEq, f.Var(f.Sym("x")), f.Var(f.Sym("x"))))
	before := len(fake.Asserts)
	if err := u.AddInvs([]term.STerm{inv}, term.MkOffset2(0), term.MkOffset2(1)); err != nil {
		t.Fatalf("AddInvs: %v", err)
	}
	if len(fake.Asserts) != before+2 {
		t.Fatalf("expected 2 new asserts (offsets 0 and 1), got %d", len(fake.Asserts)-before)
	}
	// Invariant should now be reasserted automatically on the next Unroll.
	before = len(fake.Asserts)
	if _, err := u.Unroll(); err != nil {
		t.Fatalf("Unroll: %v", err)
	}
	if len(fake.Asserts) != before+2 { // trans + invariant at new offset
		t.Fatalf("expected trans + invariant assert on Unroll, got %d new", len(fake.Asserts)-before)
	}
}

func TestFreshActlitAndDeactivate(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	a, err := u.FreshActlit()
	if err != nil {
		t.Fatalf("FreshActlit: %v", err)
	}
	if _, ok := fake.Declared[a.Name()]; !ok {
		t.Fatalf("expected actlit %s declared", a.Name())
	}
	before := len(fake.Asserts)
	if err := u.Deactivate(a); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if len(fake.Asserts) != before+1 {
		t.Fatalf("expected one new assert from Deactivate")
	}
	if !strings.Contains(fake.Asserts[len(fake.Asserts)-1], a.Name()) {
		t.Fatalf("expected deactivate assert to mention %s, got %q", a.Name(), fake.Asserts[len(fake.Asserts)-1])
	}
}

func TestCheckSatAssumingDelegatesToSolver(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	var seen []string
	fake.CheckSatFunc = func(actlits []string) (bool, error) {
		seen = actlits
		return true, nil
	}
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	a1, _ := u.FreshActlit()
	a2, _ := u.FreshActlit()
	sat, err := u.CheckSatAssuming([]solver.Actlit{a1, a2})
	if err != nil {
		t.Fatalf("CheckSatAssuming: %v", err)
	}
	if !sat {
		t.Fatalf("expected sat=true")
	}
	if len(seen) != 2 || seen[0] != a1.Name() || seen[1] != a2.Name() {
		t.Fatalf("expected actlit names forwarded in order, got %v", seen)
	}
}

func TestToStepResetsSessionButKeepsInvs(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	inv := term.NewSTerm(f.Op(term.OpEq, f.Var(f.Sym("x")), f.Var(f.Sym("x"))))
	u, err := Mk(system, f, []term.STerm{inv}, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	if err := u.UnrollInit(term.InitOffset2()); err != nil {
		t.Fatalf("UnrollInit: %v", err)
	}
	if _, err := u.Unroll(); err != nil {
		t.Fatalf("Unroll: %v", err)
	}
	step := u.ToStep()
	if !step.IsStep() {
		t.Fatalf("expected ToStep result to report IsStep() == true")
	}
	if step.Depth() != 0 {
		t.Fatalf("expected fresh step session to have depth 0, got %d", step.Depth())
	}
	if len(step.invs) != 1 {
		t.Fatalf("expected step session to retain background invariants, got %d", len(step.invs))
	}
	if u.IsStep() {
		t.Fatalf("original base session should not be marked as step")
	}
}

func TestRestartResetsFrontierAndSolver(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	if err := u.UnrollInit(term.InitOffset2()); err != nil {
		t.Fatalf("UnrollInit: %v", err)
	}
	if _, err := u.Unroll(); err != nil {
		t.Fatalf("Unroll: %v", err)
	}
	if err := u.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if fake.ResetCount != 1 {
		t.Fatalf("expected underlying solver Reset called once, got %d", fake.ResetCount)
	}
	if u.Depth() != 0 {
		t.Fatalf("expected depth reset to 0, got %d", u.Depth())
	}
	// UnrollInit should work again from scratch.
	if err := u.UnrollInit(term.InitOffset2()); err != nil {
		t.Fatalf("UnrollInit after Restart: %v", err)
	}
}

func TestUnrollToReachesTargetFrontier(t *testing.T) {
	f := term.NewFactory()
	system := mkCounterSystem(f)
	fake := solver.NewFakeSolver()
	u, err := Mk(system, f, nil, fake)
	if err != nil {
		t.Fatalf("Mk: %v", err)
	}
	if err := u.UnrollTo(5); err != nil {
		t.Fatalf("UnrollTo: %v", err)
	}
	if u.maxDeclared != 5 {
		t.Fatalf("expected frontier 5, got %d", u.maxDeclared)
	}
	if u.Depth() != 4 {
		t.Fatalf("expected depth 4 (UnrollInit reaches 1, then 4 Unroll calls to 5), got %d", u.Depth())
	}
}
