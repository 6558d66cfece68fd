// Package unroll implements kino's SMT session (component C5): it wraps a
// solver.Solver with the bookkeeping needed to declare state variables at
// successive offsets, assert a system's initial predicate and transition
// relation, bulk-assert invariants, and manage activation literals.
package unroll

import (
	"strings"

	"github.com/AdrienChampion/kino/internal/kerr"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
)

// Unroller is a single solver session unrolling one system. Its internal
// depth equals the number of times Unroll has been called since the last
// Restart.
type Unroller struct {
	system  *sys.System
	factory *term.Factory
	solver  solver.Solver
	invs    []term.STerm

	maxDeclared term.Offset
	haveInit    bool
	depth       int
	isStep      bool
}

// Mk prepares a session over system, with existingInvs asserted as
// background at every offset declared from here on (base-case invariants
// carried into an induction step, or a pruner's starting candidate set).
func Mk(system *sys.System, factory *term.Factory, existingInvs []term.STerm, slv solver.Solver) (*Unroller, error) {
	return &Unroller{
		system:  system,
		factory: factory,
		solver:  slv,
		invs:    append([]term.STerm(nil), existingInvs...),
	}, nil
}

// Depth is the number of Unroll calls since the last Restart.
func (u *Unroller) Depth() int { return u.depth }

// Solver exposes the underlying solver, e.g. for the pruner's InvManager,
// which issues its own check-sat-assuming queries against the same
// session.
func (u *Unroller) Solver() solver.Solver { return u.solver }

// Factory exposes the shared term factory this session prints and builds
// terms with.
func (u *Unroller) Factory() *term.Factory { return u.factory }

// DeclareSvars declares every state variable of the system at offset o.
func (u *Unroller) DeclareSvars(o term.Offset) error {
	for _, sv := range u.system.StateVars() {
		name := term.SvarName(sv.Sym, o)
		if err := u.solver.DeclareConst(name, sv.Domain); err != nil {
			return kerr.NewSolverErr("declare-svars", err)
		}
	}
	return nil
}

func (u *Unroller) assertAt(t *term.Term, curr term.Offset) error {
	o2 := term.MkOffset2(curr)
	return u.assert2(t, o2)
}

func (u *Unroller) assert2(t *term.Term, o2 term.Offset2) error {
	var b strings.Builder
	if err := term.ToSMT2(&b, t, o2); err != nil {
		return kerr.NewSolverErr("print-smt2", err)
	}
	if err := u.solver.Assert(b.String()); err != nil {
		return kerr.NewSolverErr("assert", err)
	}
	return nil
}

func (u *Unroller) assertInvsAt(o term.Offset) error {
	for _, inv := range u.invs {
		if err := u.assertAt(inv.Term(), o); err != nil {
			return err
		}
	}
	return nil
}

// UnrollInit asserts the system's initial predicate at o2.Curr() and one
// transition step from o2.Curr() to o2.Next(), declaring state variables
// at both offsets as needed. A step session (see ToStep) skips the initial
// predicate and only asserts the transition step.
func (u *Unroller) UnrollInit(o2 term.Offset2) error {
	if err := u.DeclareSvars(o2.Curr()); err != nil {
		return err
	}
	if !u.isStep {
		if err := u.assertAt(u.system.Init(), o2.Curr()); err != nil {
			return err
		}
	}
	if err := u.assertInvsAt(o2.Curr()); err != nil {
		return err
	}
	if err := u.DeclareSvars(o2.Next()); err != nil {
		return err
	}
	if err := u.assert2(u.system.Trans(), o2); err != nil {
		return err
	}
	if err := u.assertInvsAt(o2.Next()); err != nil {
		return err
	}
	u.haveInit = true
	u.maxDeclared = o2.Next()
	return nil
}

// Unroll advances the session by one step: declares state variables at the
// next offset, asserts the transition relation from the current frontier,
// and returns the new frontier offset.
func (u *Unroller) Unroll() (term.Offset, error) {
	if !u.haveInit {
		kerr.Precondition("Unroll called before UnrollInit")
	}
	o2 := term.MkOffset2(u.maxDeclared)
	next := o2.Next()
	if err := u.DeclareSvars(next); err != nil {
		return 0, err
	}
	if err := u.assert2(u.system.Trans(), o2); err != nil {
		return 0, err
	}
	if err := u.assertInvsAt(next); err != nil {
		return 0, err
	}
	u.maxDeclared = next
	u.depth++
	return u.maxDeclared, nil
}

// UnrollTo unrolls (starting from UnrollInit if not already done) until
// the frontier reaches at least k.
func (u *Unroller) UnrollTo(k term.Offset) error {
	if !u.haveInit {
		if err := u.UnrollInit(term.InitOffset2()); err != nil {
			return err
		}
	}
	for u.maxDeclared < k {
		if _, err := u.Unroll(); err != nil {
			return err
		}
	}
	return nil
}

// AddInvs asserts invs as background at every offset in [from, to], and
// remembers them so future Unroll/UnrollInit calls keep asserting them at
// newly declared offsets too.
func (u *Unroller) AddInvs(invs []term.STerm, from, to term.Offset2) error {
	for o := from.Curr(); o <= to.Curr(); o++ {
		for _, inv := range invs {
			if err := u.assertAt(inv.Term(), o); err != nil {
				return err
			}
		}
	}
	u.invs = append(u.invs, invs...)
	return nil
}

// FreshActlit declares and returns a brand-new activation literal.
func (u *Unroller) FreshActlit() (solver.Actlit, error) {
	a := solver.NewActlit()
	if err := u.solver.DeclareConst(a.Name(), term.CstBool); err != nil {
		return solver.Actlit{}, kerr.NewSolverErr("fresh-actlit", err)
	}
	return a, nil
}

// Assert asserts t, instantiated at o2, as unconditional background.
func (u *Unroller) Assert(t *term.Term, o2 term.Offset2) error { return u.assert2(t, o2) }

// AssertGuarded asserts (=> actlit t) at o2: t only holds while actlit is
// kept true.
func (u *Unroller) AssertGuarded(actlit solver.Actlit, t *term.Term, o2 term.Offset2) error {
	var b strings.Builder
	if err := term.ToSMT2(&b, t, o2); err != nil {
		return kerr.NewSolverErr("print-smt2", err)
	}
	if err := u.solver.Assert("(=> " + actlit.Name() + " " + b.String() + ")"); err != nil {
		return kerr.NewSolverErr("assert", err)
	}
	return nil
}

// CheckSatAssuming checks satisfiability assuming the given activation
// literals.
func (u *Unroller) CheckSatAssuming(actlits []solver.Actlit) (bool, error) {
	names := make([]string, len(actlits))
	for i, a := range actlits {
		names[i] = a.Name()
	}
	sat, err := u.solver.CheckSatAssuming(names)
	if err != nil {
		return false, kerr.NewSolverErr("check-sat-assuming", err)
	}
	return sat, nil
}

// Deactivate asserts the negation of actlit, permanently retracting
// whatever it guarded.
func (u *Unroller) Deactivate(actlit solver.Actlit) error {
	if err := u.solver.Assert("(not " + actlit.Name() + ")"); err != nil {
		return kerr.NewSolverErr("assert", err)
	}
	return nil
}

// ToStep converts a base session into a step (induction) session: a new
// Unroller over the same system, solver, and background invariants, marked
// as a step session. Kino keeps base and step as logically distinct
// sessions even when they happen to share one solver process, since step
// assumes the hypothesis at every offset while base does not. A step
// session never asserts the initial predicate.
func (u *Unroller) ToStep() *Unroller {
	step := *u
	step.isStep = true
	step.depth = 0
	step.haveInit = false
	step.maxDeclared = 0
	return &step
}

// IsStep reports whether this session is a step (induction) session.
func (u *Unroller) IsStep() bool { return u.isStep }

// Restart discards solver-side state and resets the frontier, keeping the
// remembered background invariants so the next UnrollInit/Unroll re-asserts
// them.
func (u *Unroller) Restart() error {
	if err := u.solver.Reset(); err != nil {
		return kerr.NewSolverErr("restart", err)
	}
	u.maxDeclared = 0
	u.depth = 0
	u.haveInit = false
	return nil
}

// System returns the system this session unrolls.
func (u *Unroller) System() *sys.System { return u.system }

// ModelAt retrieves the solver's current model for every state variable of
// the system at each of the given offsets, typed against each variable's
// declared domain.
func (u *Unroller) ModelAt(offsets ...term.Offset) (*term.Model, error) {
	names := make([]string, 0, len(offsets)*len(u.system.StateVars()))
	for _, o := range offsets {
		for _, sv := range u.system.StateVars() {
			names = append(names, term.SvarName(sv.Sym, o))
		}
	}
	raw, err := u.solver.GetModel(names)
	if err != nil {
		return nil, kerr.NewSolverErr("get-model", err)
	}
	model := term.NewModel()
	for _, o := range offsets {
		for _, sv := range u.system.StateVars() {
			rv, ok := raw[term.SvarName(sv.Sym, o)]
			if !ok {
				continue
			}
			var cst *term.Cst
			switch rv.Kind {
			case term.CstBool:
				cst = u.factory.CstBool(rv.B)
			case term.CstInt:
				cst = u.factory.CstInt(rv.I)
			default:
				cst = u.factory.CstRat(rv.R)
			}
			model.Set(sv.Sym, o, cst)
		}
	}
	return model, nil
}
