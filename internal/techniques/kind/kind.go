// Package kind implements kino's k-induction worker: for each property it
// tracks, it checks whether assuming the property holds for k consecutive
// steps forces it to hold on step k+1, using a step session that never
// asserts the initial predicate. A property is only reported Proved once
// both the step check holds AND the bus has told this worker (via
// MsgDownKTrue, absorbed automatically by event.Event.Recv) that the base
// case — the property's actual truth on every reachable state up to the
// same depth — has been established, normally by internal/techniques/bmc
// running alongside it.
//
// Grounded on internal/tig's stepCheck (itself grounded on
// original_source/tig's step-session idiom) for the "assume hypothesis at
// every prior offset, ask whether it can fail at the next one" shape, and
// on internal/pruner's Run loop for polling/idle structure.
package kind

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdrienChampion/kino/internal/event"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/unroll"
)

// DefaultIdle is the poll interval used when nothing is provable yet.
const DefaultIdle = 73 * time.Millisecond

// Run drives the k-induction worker until every tracked property is
// proved or disproved, maxK is reached (0 means unbounded), or the
// supervisor disconnects ev's channel.
func Run(system *sys.System, slv solver.Solver, ev *event.Event, props []*sys.Property, maxK term.Offset, idle time.Duration) error {
	base, err := unroll.Mk(system, ev.Factory(), nil, slv)
	if err != nil {
		return err
	}
	step := base.ToStep()

	active := make(map[*term.Sym]*sys.Property, len(props))
	for _, p := range props {
		active[p.Sym()] = p
	}

	k := term.Offset(1)
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

		if err := step.UnrollTo(k); err != nil {
			return err
		}

		for sym, p := range active {
			baseK := ev.GetKTrue(sym)
			baseOK := baseK != nil && *baseK >= k
			if !baseOK {
				continue
			}
			holds, err := stepHolds(step, p, k)
			if err != nil {
				return err
			}
			if holds {
				ev.ProvedAt([]*term.Sym{sym}, k)
				delete(active, sym)
			}
		}

		k = k.Nxt()
		if idle > 0 {
			time.Sleep(idle)
		}
	}
}

// stepHolds checks whether p's body holding at offsets 0..k-1 forces it
// to hold at k, in the step session (no initial predicate asserted). A
// satisfiable answer means the induction step fails at this k; an
// unsatisfiable one means it holds.
func stepHolds(step *unroll.Unroller, p *sys.Property, k term.Offset) (bool, error) {
	f := step.Factory()
	actlit, err := step.FreshActlit()
	if err != nil {
		return false, err
	}

	var b strings.Builder
	b.WriteString("(and ")
	for o := term.Offset(0); o < k; o++ {
		if err := term.ToSMT2(&b, p.Body().Term(), term.MkOffset2(o)); err != nil {
			return false, err
		}
		b.WriteString(" ")
	}
	negated := f.Op(term.OpNot, p.Body().Term())
	if err := term.ToSMT2(&b, negated, term.MkOffset2(k)); err != nil {
		return false, err
	}
	b.WriteString(")")

	guarded := fmt.Sprintf("(=> %s %s)", actlit.Name(), b.String())
	if err := step.Solver().Assert(guarded); err != nil {
		return false, err
	}
	sat, err := step.CheckSatAssuming([]solver.Actlit{actlit})
	if err != nil {
		return false, err
	}
	if err := step.Deactivate(actlit); err != nil {
		return false, err
	}
	return !sat, nil
}
