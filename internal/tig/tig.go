package tig

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdrienChampion/kino/internal/event"
	"github.com/AdrienChampion/kino/internal/kerr"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/unroll"
)

// DefaultIdle is how long Run sleeps between drains of its inbox when it
// has nothing queued, mirroring internal/pruner.DefaultIdle.
const DefaultIdle = 73 * time.Millisecond

// domainFor picks the Domain matching a state variable's constant kind;
// candidates of unsupported domains are simply left out of the graph.
func domainFor(kind term.CstKind) (Domain, bool) {
	switch kind {
	case term.CstBool:
		return BoolDomain{}, true
	case term.CstInt:
		return IntDomain{}, true
	case term.CstRat:
		return RatDomain{}, true
	default:
		return nil, false
	}
}

// buildEqTerm conjoins rep = other for every term in others, or returns
// ok=false if there is nothing left to check.
func buildEqTerm(f *term.Factory, domain Domain, n *Node) (t *term.Term, ok bool) {
	others := n.Others()
	if len(others) == 0 {
		return nil, false
	}
	eqs := make([]*term.Term, 0, len(others))
	for _, o := range others {
		eqs = append(eqs, domain.MkEq(f, n.Rep(), o))
	}
	if len(eqs) == 1 {
		return eqs[0], true
	}
	return f.Op(term.OpAnd, eqs...), true
}

// baseCheck asks whether t can fail anywhere in [0, k] given only the
// system's init/trans (and whatever invariants the base session already
// carries). SAT means a counterexample trace exists; the caller should
// split on the model at k.
func baseCheck(u *unroll.Unroller, k term.Offset, t *term.Term) (sat bool, model *term.Model, err error) {
	if err := u.UnrollTo(k); err != nil {
		return false, nil, err
	}
	sat, err = checkRangeOr(u, t, k)
	if err != nil {
		return false, nil, err
	}
	if !sat {
		return false, nil, nil
	}
	model, err = u.ModelAt(k)
	if err != nil {
		return false, nil, err
	}
	return true, model, nil
}

// checkRangeOr builds "(or (not t@0) ... (not t@k))" and checks it under a
// fresh actlit: SAT iff t fails at some offset in [0,k].
func checkRangeOr(u *unroll.Unroller, t *term.Term, k term.Offset) (bool, error) {
	actlit, err := u.FreshActlit()
	if err != nil {
		return false, err
	}
	var sb strings.Builder
	sb.WriteString("(or")
	for o := term.Offset(0); o <= k; o++ {
		sb.WriteString(" (not ")
		if err := term.ToSMT2(&sb, t, term.MkOffset2(o)); err != nil {
			return false, err
		}
		sb.WriteString(")")
	}
	sb.WriteString(")")
	guarded := fmt.Sprintf("(=> %s %s)", actlit.Name(), sb.String())
	if err := u.Solver().Assert(guarded); err != nil {
		return false, kerr.NewSolverErr("assert", err)
	}
	sat, err := u.CheckSatAssuming([]solver.Actlit{actlit})
	if err != nil {
		return false, err
	}
	if err := u.Deactivate(actlit); err != nil {
		return false, err
	}
	return sat, nil
}

// stepCheck asks whether, assuming t holds at every offset in [0,k], t can
// still fail at k+1. SAT means the hypothesis is not (yet) inductive;
// UNSAT means it is.
func stepCheck(step *unroll.Unroller, k term.Offset, t *term.Term) (sat bool, model *term.Model, err error) {
	if err := step.UnrollTo(k.Nxt()); err != nil {
		return false, nil, err
	}
	actlit, err := step.FreshActlit()
	if err != nil {
		return false, nil, err
	}
	var sb strings.Builder
	sb.WriteString("(and")
	for o := term.Offset(0); o <= k; o++ {
		sb.WriteString(" ")
		if err := term.ToSMT2(&sb, t, term.MkOffset2(o)); err != nil {
			return false, nil, err
		}
	}
	sb.WriteString(" (not ")
	if err := term.ToSMT2(&sb, t, term.MkOffset2(k.Nxt())); err != nil {
		return false, nil, err
	}
	sb.WriteString("))")
	guarded := fmt.Sprintf("(=> %s %s)", actlit.Name(), sb.String())
	if err := step.Solver().Assert(guarded); err != nil {
		return false, nil, kerr.NewSolverErr("assert", err)
	}
	sat, err = step.CheckSatAssuming([]solver.Actlit{actlit})
	if err != nil {
		return false, nil, err
	}
	if sat {
		model, err = step.ModelAt(k.Nxt())
		if err != nil {
			return false, nil, err
		}
	}
	if err := step.Deactivate(actlit); err != nil {
		return false, nil, err
	}
	return sat, model, nil
}

// insertSplit reinserts the groups Split produced in place of the node
// they came from, chaining them by ascending value and grafting the old
// node's external edges onto the new extremes: old "above" neighbors graft
// onto the highest new group, old "below" neighbors onto the lowest.
func insertSplit(g *Graph, above, below map[Key]bool, groups []SplitGroup) {
	for i, grp := range groups {
		g.Insert(grp.Node)
		if i > 0 {
			g.AddEdge(grp.Node.Key(), groups[i-1].Node.Key())
		}
	}
	if len(groups) == 0 {
		return
	}
	lowest := groups[0].Node.Key()
	highest := groups[len(groups)-1].Node.Key()
	for a := range above {
		g.AddEdge(a, highest)
	}
	for b := range below {
		g.AddEdge(lowest, b)
	}
}

// stabilizeOnce performs one unit of work on g: either refines the first
// still-unstable node (more than one term in it) or checks the first
// not-yet-confirmed edge. Returns done=true when neither remains (g is
// fully stable) and any invariants freshly confirmed along the way.
func stabilizeOnce(g *Graph, base, step *unroll.Unroller, k term.Offset) (done bool, proved []term.STerm, err error) {
	f := base.Factory()
	domain := g.Domain()

	if n, ok := g.FindUnstableNode(); ok {
		checkTerm, ok := buildEqTerm(f, domain, n)
		if !ok {
			return false, nil, nil
		}
		sat, model, err := baseCheck(base, k, checkTerm)
		if err != nil {
			return false, nil, err
		}
		if sat {
			above, below := g.DetachAndRemove(n.Key())
			groups, err := Split(n, domain, f, term.MkOffset2(k), model)
			if err != nil {
				return false, nil, err
			}
			insertSplit(g, above, below, groups)
			return false, nil, nil
		}
		satStep, modelStep, err := stepCheck(step, k, checkTerm)
		if err != nil {
			return false, nil, err
		}
		if satStep {
			above, below := g.DetachAndRemove(n.Key())
			groups, err := Split(n, domain, f, term.MkOffset2(k.Nxt()), modelStep)
			if err != nil {
				return false, nil, err
			}
			insertSplit(g, above, below, groups)
			return false, nil, nil
		}
		others := n.Others()
		proved = make([]term.STerm, 0, len(others))
		for _, o := range others {
			proved = append(proved, term.NewSTerm(domain.MkEq(f, n.Rep(), o)))
		}
		n.ClearOthers()
		g.Insert(n)
		return false, proved, nil
	}

	if above, below, ok := g.FindUncheckedEdge(); ok {
		aboveNode, aok := g.Node(above)
		belowNode, bok := g.Node(below)
		if !aok || !bok {
			g.MarkEdgeChecked(above, below)
			return false, nil, nil
		}
		cmpTerm, ok := domain.MkCmp(f, belowNode.Rep(), aboveNode.Rep())
		if !ok {
			g.MarkEdgeChecked(above, below)
			return false, nil, nil
		}
		sat, _, err := baseCheck(base, k, cmpTerm)
		if err != nil {
			return false, nil, err
		}
		if sat {
			// Ordering fails in the reachable prefix seen so far; leave it
			// unchecked, it may still firm up once more of the system is
			// unrolled.
			return false, nil, nil
		}
		satStep, _, err := stepCheck(step, k, cmpTerm)
		if err != nil {
			return false, nil, err
		}
		if satStep {
			return false, nil, nil
		}
		g.MarkEdgeChecked(above, below)
		return false, []term.STerm{term.NewSTerm(cmpTerm)}, nil
	}

	return true, nil, nil
}

// Stabilize repeatedly calls stabilizeOnce until g has nothing left to
// refine or check at depth k, collecting every invariant confirmed along
// the way.
func Stabilize(g *Graph, base, step *unroll.Unroller, k term.Offset) ([]term.STerm, error) {
	var proved []term.STerm
	for {
		done, batch, err := stabilizeOnce(g, base, step, k)
		if err != nil {
			return proved, err
		}
		proved = append(proved, batch...)
		if done {
			return proved, nil
		}
	}
}

// KSplitAll is a lighter pass run between k increments: it re-evaluates
// every still-unstable node against the base checker at the new depth and
// splits those that fail, without pursuing a full stabilize fixpoint or
// touching edges.
func KSplitAll(g *Graph, base *unroll.Unroller, k term.Offset) error {
	f := base.Factory()
	domain := g.Domain()
	for _, n := range g.Nodes() {
		checkTerm, ok := buildEqTerm(f, domain, n)
		if !ok {
			continue
		}
		sat, model, err := baseCheck(base, k, checkTerm)
		if err != nil {
			return err
		}
		if !sat {
			continue
		}
		above, below := g.DetachAndRemove(n.Key())
		groups, err := Split(n, domain, f, term.MkOffset2(k), model)
		if err != nil {
			return err
		}
		insertSplit(g, above, below, groups)
	}
	return nil
}

// Candidates groups the starting terms for one graph by the domain they
// belong to, one graph per domain sharing no terms with the others.
type Candidates struct {
	Bool []*term.Term
	Int  []*term.Term
	Rat  []*term.Term
}

// buildGraphs creates one Graph per non-empty domain in c.
func buildGraphs(c Candidates) map[term.CstKind]*Graph {
	out := make(map[term.CstKind]*Graph)
	if len(c.Bool) > 0 {
		out[term.CstBool] = NewGraph(BoolDomain{}, c.Bool)
	}
	if len(c.Int) > 0 {
		out[term.CstInt] = NewGraph(IntDomain{}, c.Int)
	}
	if len(c.Rat) > 0 {
		out[term.CstRat] = NewGraph(RatDomain{}, c.Rat)
	}
	return out
}

// Run drives the outer k-loop for a system: build one graph per candidate
// domain, then repeatedly stabilize at depth k, publish whatever got
// confirmed, lightly re-split what's left, advance k, and (when stepRoll)
// roll the step session forward too. Runs until maxK is reached (maxK <=
// 0 means unbounded) or the event bus disconnects.
func Run(
	system *sys.System, baseSolver, stepSolver solver.Solver, ev *event.Event,
	candidates Candidates, maxK term.Offset, stepRoll bool, idle time.Duration,
) error {
	f := ev.Factory()
	graphs := buildGraphs(candidates)
	if len(graphs) == 0 {
		ev.DoneAt(0)
		return nil
	}

	base, err := unroll.Mk(system, f, nil, baseSolver)
	if err != nil {
		return err
	}
	step, err := unroll.Mk(system, f, nil, stepSolver)
	if err != nil {
		return err
	}
	step = step.ToStep()

	k := term.Offset(1)
	for maxK == 0 || k <= maxK {
		if !drainNonBlocking(ev) {
			return nil
		}

		for _, g := range graphs {
			proved, err := Stabilize(g, base, step, k)
			if err != nil {
				ev.Error(err.Error())
				continue
			}
			if len(proved) > 0 {
				ev.Invariants(system.Sym(), proved)
			}
		}

		for _, g := range graphs {
			if err := KSplitAll(g, base, k); err != nil {
				ev.Error(err.Error())
			}
		}

		k = k.Nxt()
		if err := base.Restart(); err != nil {
			return err
		}
		if err := base.UnrollTo(k); err != nil {
			return err
		}
		if stepRoll {
			if err := step.Restart(); err != nil {
				return err
			}
			if err := step.UnrollTo(k); err != nil {
				return err
			}
		}

		if idle > 0 {
			time.Sleep(idle)
		}
	}

	ev.DoneAt(k)
	return nil
}

// drainNonBlocking drains ev's inbox without blocking; tig has nothing it
// currently reacts to in MsgDown beyond the usual forget/k-true bookkeeping
// Event.Recv already folds in, so only the disconnect signal matters here.
func drainNonBlocking(ev *event.Event) bool {
	_, ok := ev.Recv()
	return ok
}
