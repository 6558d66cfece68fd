// Package pruner implements kino's invariant pruning worker (component
// C6): given a candidate invariant set, it repeatedly asks the solver
// whether some still-active candidate can fail one step ahead while the
// rest hold. Every candidate the solver can falsify that way is
// non-trivial (not implied by the rest of the set) and is returned;
// candidates the solver never manages to falsify are redundant and
// discarded.
//
// Grounded directly on original_source/pruner/src/lib.rs: this package
// keeps its two-phase shape (a long-lived Unroller fixed at offset (0,1),
// and a short-lived InvManager per pruning request) and its 73ms idle
// poll, generalized from the Rust channel/message API to kino's
// internal/event bus.
package pruner

import (
	"time"

	"github.com/AdrienChampion/kino/internal/event"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/unroll"
)

// DefaultIdle is the poll interval used when no pruning request is
// pending, matching the original implementation's hard-coded 73
// milliseconds.
const DefaultIdle = 73 * time.Millisecond

// pendingPrune is a stashed InvariantPruning request, processed once per
// idle/recv cycle.
type pendingPrune struct {
	tek  technique.Technique
	invs *term.STermSet
	info event.Info
}

// Run drives the pruner's worker loop until the supervisor disconnects
// ev's channel. idle is the sleep between recv polls when nothing is
// pending; callers pass DefaultIdle unless config overrides it.
func Run(system *sys.System, slv solver.Solver, ev *event.Event, idle time.Duration) error {
	u, err := unroll.Mk(system, ev.Factory(), nil, slv)
	if err != nil {
		return err
	}
	init := term.InitOffset2()
	if err := u.DeclareSvars(init.Curr()); err != nil {
		return err
	}
	if err := u.UnrollInit(init); err != nil {
		return err
	}

	var pending *pendingPrune
	for {
		msgs, ok := ev.Recv()
		if !ok {
			return nil
		}
		for _, msg := range msgs {
			switch m := msg.(type) {
			case event.MsgDownInvariants:
				if m.SysSym != system.Sym() {
					continue
				}
				if err := u.AddInvs(m.Invs, init, init); err != nil {
					return err
				}
			case event.MsgDownInvariantPruning:
				if m.SysSym != system.Sym() {
					continue
				}
				pending = &pendingPrune{tek: m.Tek, invs: m.Invs, info: m.Info}
			}
		}

		if pending == nil {
			time.Sleep(idle)
			continue
		}
		oldLen := pending.invs.Len()
		survivors, err := Prune(u, pending.invs, init)
		if err != nil {
			return err
		}
		ev.PrunedInvariants(pending.tek, system.Sym(), survivors, oldLen, pending.info)
		pending = nil
	}
}

// Prune checks invs against u at the fixed two-state offset k and returns
// the non-trivial candidates: those the solver can show false one step
// ahead while the rest of the set holds, i.e. not implied by the others.
func Prune(u *unroll.Unroller, invs *term.STermSet, k term.Offset2) (*term.STermSet, error) {
	mgr, err := NewInvManager(invs, u, k)
	if err != nil {
		return nil, err
	}
	f := u.Factory()

	for {
		oneFalse, ok := mgr.OneFalseNext()
		if !ok {
			break
		}

		actlit, err := u.FreshActlit()
		if err != nil {
			return nil, err
		}
		negated := f.Op(term.OpNot, oneFalse.Term())
		if err := u.AssertGuarded(actlit, negated, term.MkOffset2(k.Next())); err != nil {
			return nil, err
		}

		// The candidate under test must not also appear in the positive
		// assumption set: its own hypothesis actlit asserts C@k.next while
		// actlit above asserts ¬C@k.next, an unconditional contradiction
		// that would make every check UNSAT regardless of the rest of the
		// set.
		actlits := append(mgr.ActlitsExcept(oneFalse.Key()), actlit)
		isSat, err := u.CheckSatAssuming(actlits)
		if err != nil {
			return nil, err
		}

		if isSat {
			falsified, err := mgr.GetFalseNext()
			if err != nil {
				return nil, err
			}
			if err := u.Deactivate(actlit); err != nil {
				return nil, err
			}
			if err := mgr.Inhibit(falsified); err != nil {
				return nil, err
			}
		} else {
			if err := u.Deactivate(actlit); err != nil {
				return nil, err
			}
		}
	}

	return mgr.NonTrivial(), nil
}
