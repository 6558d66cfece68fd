package tig

import (
	"sort"

	"github.com/AdrienChampion/kino/internal/term"
)

// Key identifies a node by the hkey of its representative.
type Key = uint64

// Node is one equivalence class of the invariant-generation graph: a
// representative term plus the other terms currently believed equal to
// it, and the keys of the nodes directly above/below it in the ordering
// hypothesis.
type Node struct {
	rep    *term.Term
	others map[Key]*term.Term
	above  map[Key]bool
	below  map[Key]bool
}

// NewNode creates a node with rep as its sole element.
func NewNode(rep *term.Term) *Node {
	return &Node{
		rep:    rep,
		others: make(map[Key]*term.Term),
		above:  make(map[Key]bool),
		below:  make(map[Key]bool),
	}
}

// Key is the node's identity: its representative's hkey.
func (n *Node) Key() Key { return n.rep.Hkey() }

// Rep is the node's representative term.
func (n *Node) Rep() *term.Term { return n.rep }

// Insert adds term to the node's others, reporting whether it was new.
func (n *Node) Insert(t *term.Term) bool {
	if t.Hkey() == n.rep.Hkey() {
		return false
	}
	if _, ok := n.others[t.Hkey()]; ok {
		return false
	}
	n.others[t.Hkey()] = t
	return true
}

// Others returns the node's non-representative terms.
func (n *Node) Others() []*term.Term {
	out := make([]*term.Term, 0, len(n.others))
	for _, t := range n.others {
		out = append(out, t)
	}
	return out
}

// AllTerms returns rep followed by every other term.
func (n *Node) AllTerms() []*term.Term {
	out := make([]*term.Term, 0, len(n.others)+1)
	out = append(out, n.rep)
	out = append(out, n.Others()...)
	return out
}

// Above is the set of node keys directly above this one.
func (n *Node) Above() map[Key]bool { return n.above }

// Below is the set of node keys directly below this one.
func (n *Node) Below() map[Key]bool { return n.below }

// AddAbove records node as directly above this one.
func (n *Node) AddAbove(node Key) bool {
	if n.above[node] {
		return false
	}
	n.above[node] = true
	return true
}

// AddBelow records node as directly below this one.
func (n *Node) AddBelow(node Key) bool {
	if n.below[node] {
		return false
	}
	n.below[node] = true
	return true
}

// RmAbove forgets node from above this one.
func (n *Node) RmAbove(node Key) bool {
	if !n.above[node] {
		return false
	}
	delete(n.above, node)
	return true
}

// RmBelow forgets node from below this one.
func (n *Node) RmBelow(node Key) bool {
	if !n.below[node] {
		return false
	}
	delete(n.below, node)
	return true
}

// ClearOthers empties the node's others set, once every one of them has
// been confirmed equal to rep and published.
func (n *Node) ClearOthers() { n.others = make(map[Key]*term.Term) }

// DrainBelow empties and returns the node's below set.
func (n *Node) DrainBelow() map[Key]bool {
	below := n.below
	n.below = make(map[Key]bool)
	return below
}

// SplitGroup is one group produced by Split: a domain value shared by
// every term in Node.
type SplitGroup struct {
	Value Value
	Node  *Node
}

// Split partitions n's terms by their evaluated value under model at
// offset, producing one fresh Node per distinct value, sorted ascending
// by domain.Compare; each group's representative is chosen by
// domain.ChooseRep (not simply the lowest-hkey term, since e.g. Bool
// groups prefer the literal true per spec.md §4.7 rule 5). n's own edges
// are ignored: callers detach n from the graph first and rewire its old
// neighbours onto the groups.
func Split(n *Node, domain Domain, f *term.Factory, offset term.Offset2, model *term.Model) ([]SplitGroup, error) {
	terms := n.AllTerms()
	type evalRes struct {
		t *term.Term
		v Value
	}
	evals := make([]evalRes, 0, len(terms))
	for _, t := range terms {
		v, err := domain.Eval(f, t, offset, model)
		if err != nil {
			// Matches internal/pruner's GetFalseNext: a DomainEvalErr is
			// recoverable, so the offending term just sits out this split.
			continue
		}
		evals = append(evals, evalRes{t, v})
	}
	if len(evals) == 0 {
		return nil, nil
	}
	sort.SliceStable(evals, func(i, j int) bool {
		if c := domain.Compare(evals[i].v, evals[j].v); c != 0 {
			return c < 0
		}
		return evals[i].t.Hkey() < evals[j].t.Hkey()
	})

	type bucket struct {
		v     Value
		terms []*term.Term
	}
	var buckets []*bucket
	for _, e := range evals {
		if len(buckets) > 0 && domain.Compare(buckets[len(buckets)-1].v, e.v) == 0 {
			last := buckets[len(buckets)-1]
			last.terms = append(last.terms, e.t)
			continue
		}
		buckets = append(buckets, &bucket{v: e.v, terms: []*term.Term{e.t}})
	}

	groups := make([]SplitGroup, 0, len(buckets))
	for _, b := range buckets {
		rep := domain.ChooseRep(b.terms)
		node := NewNode(rep)
		for _, t := range b.terms {
			node.Insert(t)
		}
		groups = append(groups, SplitGroup{Value: b.v, Node: node})
	}
	return groups, nil
}
