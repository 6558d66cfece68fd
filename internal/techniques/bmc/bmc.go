// Package bmc implements kino's bounded model checking worker: it unrolls
// a system one step at a time and, at each new depth, checks every
// property it still tracks for a reachable violation.
//
// Grounded on internal/pruner's Run loop shape (poll the bus
// non-blockingly, do one unit of solver work, sleep if idle) and its use
// of a single long-lived Unroller with one fresh actlit per query.
package bmc

import (
	"time"

	"github.com/AdrienChampion/kino/internal/event"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/unroll"
)

// DefaultIdle is a default for Run's idle argument, the sleep after each
// unrolling step, matching the pruner's own idle constant.
const DefaultIdle = 73 * time.Millisecond

// Run drives the BMC worker until maxK is reached (maxK == 0 means
// unbounded) or the supervisor disconnects ev's channel. props is the set
// of properties this worker was started to check; a property falls out of
// the active set once this worker disproves it or the supervisor
// broadcasts Forget for it.
func Run(system *sys.System, slv solver.Solver, ev *event.Event, props []*sys.Property, maxK term.Offset, idle time.Duration) error {
	u, err := unroll.Mk(system, ev.Factory(), nil, slv)
	if err != nil {
		return err
	}

	active := make(map[*term.Sym]*sys.Property, len(props))
	for _, p := range props {
		active[p.Sym()] = p
	}

	k := term.Offset(0)
	for {
		msgs, ok := ev.Recv()
		if !ok {
			return nil
		}
		for _, msg := range msgs {
			if f, isForget := msg.(event.MsgDownForget); isForget {
				for _, sym := range f.Syms {
					delete(active, sym)
				}
			}
		}

		if len(active) == 0 {
			ev.DoneAt(k)
			return nil
		}
		if maxK != 0 && k > maxK {
			ev.DoneAt(k)
			return nil
		}

		if err := u.UnrollTo(k); err != nil {
			return err
		}

		var survived []*term.Sym
		for sym, p := range active {
			sat, model, err := checkViolation(u, p, k)
			if err != nil {
				return err
			}
			if sat {
				ev.DisprovedAt(model, []*term.Sym{sym}, k)
				delete(active, sym)
				continue
			}
			survived = append(survived, sym)
		}
		if len(survived) > 0 {
			ev.KTrue(survived, k)
		}

		k = k.Nxt()
		if idle > 0 {
			time.Sleep(idle)
		}
	}
}

// checkViolation asks whether p's body can fail at offset k, given
// everything asserted into u through k. A satisfiable answer is a
// counterexample; its model is fetched at every offset 0..k so the
// trace kino reports covers the whole run, matching spec.md §8's
// "Refutable property" scenario.
func checkViolation(u *unroll.Unroller, p *sys.Property, k term.Offset) (bool, *term.Model, error) {
	f := u.Factory()
	actlit, err := u.FreshActlit()
	if err != nil {
		return false, nil, err
	}
	negated := f.Op(term.OpNot, p.Body().Term())
	if err := u.AssertGuarded(actlit, negated, term.MkOffset2(k)); err != nil {
		return false, nil, err
	}
	sat, err := u.CheckSatAssuming([]solver.Actlit{actlit})
	if err != nil {
		return false, nil, err
	}
	if !sat {
		if err := u.Deactivate(actlit); err != nil {
			return false, nil, err
		}
		return false, nil, nil
	}
	offsets := make([]term.Offset, 0, int(k)+1)
	for o := term.Offset(0); o <= k; o++ {
		offsets = append(offsets, o)
	}
	model, err := u.ModelAt(offsets...)
	if err != nil {
		return false, nil, err
	}
	if err := u.Deactivate(actlit); err != nil {
		return false, nil, err
	}
	return true, model, nil
}
