package tig

import (
	"math/big"
	"testing"

	"github.com/AdrienChampion/kino/internal/term"
)

func TestSplitSortsAscendingWithLowestHkeyRep(t *testing.T) {
	f := term.NewFactory()
	aSym, bSym, cSym := f.Sym("a"), f.Sym("b"), f.Sym("c")
	a := f.SVar(aSym, term.Curr)
	b := f.SVar(bSym, term.Curr)
	c := f.SVar(cSym, term.Curr)

	model := term.NewModel()
	model.Set(aSym, 0, f.CstInt(big.NewInt(1)))
	model.Set(bSym, 0, f.CstInt(big.NewInt(1)))
	model.Set(cSym, 0, f.CstInt(big.NewInt(2)))

	n := NewNode(a)
	n.Insert(b)
	n.Insert(c)

	groups, err := Split(n, IntDomain{}, f, term.MkOffset2(0), model)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups (value 1 and value 2), got %d", len(groups))
	}
	lowGroup, highGroup := groups[0], groups[1]
	if lowGroup.Value.(IntValue).V.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected first group's value to be 1, got %v", lowGroup.Value)
	}
	if highGroup.Value.(IntValue).V.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected second group's value to be 2, got %v", highGroup.Value)
	}
	rep := lowGroup.Node.Rep()
	want := a
	if b.Hkey() < a.Hkey() {
		want = b
	}
	if rep.Hkey() != want.Hkey() {
		t.Fatalf("expected lowest-hkey term to become the representative of the {a,b} group")
	}
	if highGroup.Node.Rep().Hkey() != c.Hkey() {
		t.Fatalf("expected c alone to be the representative of the value-2 group")
	}
}

func TestSplitPrefersLiteralTrueAsBoolRepresentative(t *testing.T) {
	f := term.NewFactory()
	aSym, bSym := f.Sym("a"), f.Sym("b")
	a := f.SVar(aSym, term.Curr)
	b := f.SVar(bSym, term.Curr)
	lit := f.Bool(true)

	model := term.NewModel()
	model.Set(aSym, 0, f.CstBool(true))
	model.Set(bSym, 0, f.CstBool(true))

	n := NewNode(a)
	n.Insert(b)
	n.Insert(lit)

	groups, err := Split(n, BoolDomain{}, f, term.MkOffset2(0), model)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected a single group (all true), got %d", len(groups))
	}
	rep := groups[0].Node.Rep()
	if rep.Hkey() != lit.Hkey() {
		t.Fatalf("expected the literal true to be chosen as representative over %v, got %v", []*term.Term{a, b}, rep)
	}
}

func TestGraphCheckInvariantsOnFreshGraph(t *testing.T) {
	f := term.NewFactory()
	a := f.Var(f.Sym("a"))
	b := f.Var(f.Sym("b"))
	g := NewGraph(BoolDomain{}, []*term.Term{a, b})
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants on fresh single-node graph: %v", err)
	}
	root, ok := g.Root()
	if !ok {
		t.Fatalf("expected a root")
	}
	if root.Key() != g.Domain().ChooseRep([]*term.Term{a, b}).Hkey() {
		t.Fatalf("root should be the node built with the domain's chosen representative")
	}
}

func TestGraphCheckInvariantsAfterSplitAndEdge(t *testing.T) {
	f := term.NewFactory()
	a := f.Var(f.Sym("a"))
	b := f.Var(f.Sym("b"))
	c := f.Var(f.Sym("c"))
	g := NewGraph(IntDomain{}, []*term.Term{a, b, c})

	n, ok := g.Root()
	if !ok {
		t.Fatalf("expected a root")
	}
	above, below := g.DetachAndRemove(n.Key())
	if len(above) != 0 || len(below) != 0 {
		t.Fatalf("fresh single node should have no edges")
	}

	low := NewNode(a)
	low.Insert(b)
	high := NewNode(c)
	g.Insert(low)
	g.Insert(high)
	g.AddEdge(high.Key(), low.Key())

	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after manual split/edge: %v", err)
	}
	root, ok := g.Root()
	if !ok || root.Key() != high.Key() {
		t.Fatalf("expected the higher group to be the sole root")
	}
	if g.Len() != 1 {
		t.Fatalf("expected Root to have removed the extracted node, %d left", g.Len())
	}
}

func TestGraphDetachAndRemoveRewiresNothingButReportsEdges(t *testing.T) {
	f := term.NewFactory()
	a := f.Var(f.Sym("a"))
	b := f.Var(f.Sym("b"))
	c := f.Var(f.Sym("c"))
	top := NewNode(a)
	mid := NewNode(b)
	bot := NewNode(c)
	g := &Graph{domain: BoolDomain{}, nodes: map[Key]*Node{}, roots: map[Key]bool{}, checked: map[edgeKey]bool{}}
	g.Insert(top)
	g.Insert(mid)
	g.Insert(bot)
	g.AddEdge(top.Key(), mid.Key())
	g.AddEdge(mid.Key(), bot.Key())
	g.MarkEdgeChecked(top.Key(), mid.Key())

	above, below := g.DetachAndRemove(mid.Key())
	if !above[top.Key()] || !below[bot.Key()] {
		t.Fatalf("expected detach to report mid's former above/below neighbors")
	}
	if g.EdgeChecked(top.Key(), mid.Key()) {
		t.Fatalf("expected the checked-edge record mentioning the removed node to be dropped")
	}
	if top.Below()[mid.Key()] || bot.Above()[mid.Key()] {
		t.Fatalf("expected neighbors to be unlinked from the removed node")
	}
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after detach: %v", err)
	}
}
