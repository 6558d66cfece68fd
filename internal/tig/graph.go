package tig

import (
	"fmt"
	"sort"

	"github.com/AdrienChampion/kino/internal/term"
)

// edgeKey identifies a directed above/below edge between two nodes.
type edgeKey struct{ above, below Key }

// Graph is the invariant-generation graph: a set of nodes (equivalence
// classes, each ordered relative to its neighbors) and the subset of
// nodes currently at the top of the order (no node above them).
type Graph struct {
	domain Domain
	nodes  map[Key]*Node
	roots  map[Key]bool
	// checked remembers which edges stabilize has already shown
	// inductive, so it is never re-checked.
	checked map[edgeKey]bool
}

// NewGraph builds the initial graph: one node holding every candidate
// term, its representative chosen per domain.ChooseRep.
func NewGraph(domain Domain, terms []*term.Term) *Graph {
	rep := domain.ChooseRep(terms)
	n := NewNode(rep)
	for _, t := range terms {
		n.Insert(t)
	}
	g := &Graph{
		domain:  domain,
		nodes:   make(map[Key]*Node),
		roots:   make(map[Key]bool),
		checked: make(map[edgeKey]bool),
	}
	g.addNode(n)
	return g
}

func (g *Graph) addNode(n *Node) {
	g.nodes[n.Key()] = n
	if len(n.above) == 0 {
		g.roots[n.Key()] = true
	} else {
		delete(g.roots, n.Key())
	}
}

// Node looks up a node by key.
func (g *Graph) Node(k Key) (*Node, bool) {
	n, ok := g.nodes[k]
	return n, ok
}

// Nodes returns every node in the graph, in unspecified order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Len is the number of nodes currently in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Root extracts and removes an arbitrary root node from the graph,
// choosing the lowest key for determinism across runs.
func (g *Graph) Root() (*Node, bool) {
	if len(g.roots) == 0 {
		return nil, false
	}
	var best Key
	first := true
	for k := range g.roots {
		if first || k < best {
			best = k
			first = false
		}
	}
	delete(g.roots, best)
	n := g.nodes[best]
	delete(g.nodes, best)
	return n, true
}

// RemoveNode deletes a node outright (used once its hypothesis has been
// published and it collapses to nothing left to check).
func (g *Graph) RemoveNode(k Key) {
	delete(g.nodes, k)
	delete(g.roots, k)
}

// DetachAndRemove removes a node from the graph and unlinks it from every
// neighbor, returning its former above/below sets so the caller can
// rewire them onto whatever replaces it (e.g. the groups a split produced).
func (g *Graph) DetachAndRemove(k Key) (above, below map[Key]bool) {
	n, ok := g.nodes[k]
	if !ok {
		return nil, nil
	}
	above, below = n.above, n.below
	for a := range above {
		if o, ok := g.nodes[a]; ok {
			o.RmBelow(k)
		}
	}
	for b := range below {
		if o, ok := g.nodes[b]; ok {
			o.RmAbove(k)
			if len(o.above) == 0 {
				g.roots[b] = true
			}
		}
	}
	delete(g.nodes, k)
	delete(g.roots, k)
	for ek := range g.checked {
		if ek.above == k || ek.below == k {
			delete(g.checked, ek)
		}
	}
	return above, below
}

// FindUnstableNode returns the lowest-key node that still has more than
// one term in it, for deterministic scheduling.
func (g *Graph) FindUnstableNode() (*Node, bool) {
	var keys []Key
	for k, n := range g.nodes {
		if len(n.others) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return g.nodes[keys[0]], true
}

// FindUncheckedEdge returns the lexicographically lowest (above, below)
// edge not yet marked checked, for deterministic scheduling.
func (g *Graph) FindUncheckedEdge() (above, below Key, ok bool) {
	var edges []edgeKey
	for k, n := range g.nodes {
		for b := range n.below {
			ek := edgeKey{above: k, below: b}
			if !g.checked[ek] {
				edges = append(edges, ek)
			}
		}
	}
	if len(edges) == 0 {
		return 0, 0, false
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].above != edges[j].above {
			return edges[i].above < edges[j].above
		}
		return edges[i].below < edges[j].below
	})
	return edges[0].above, edges[0].below, true
}

// EdgeChecked reports whether the above-below edge has already been shown
// inductive.
func (g *Graph) EdgeChecked(above, below Key) bool { return g.checked[edgeKey{above, below}] }

// MarkEdgeChecked records that the above-below edge is now confirmed.
func (g *Graph) MarkEdgeChecked(above, below Key) { g.checked[edgeKey{above, below}] = true }

// AddEdge records above directly above below, both sides.
func (g *Graph) AddEdge(above, below Key) {
	if a, ok := g.nodes[above]; ok {
		a.AddBelow(below)
	}
	if b, ok := g.nodes[below]; ok {
		b.AddAbove(above)
		delete(g.roots, below)
	}
}

// Insert re-inserts a node built elsewhere (e.g. a split result) into the
// graph, updating the roots set.
func (g *Graph) Insert(n *Node) {
	g.addNode(n)
}

// Domain returns the graph's value domain.
func (g *Graph) Domain() Domain { return g.domain }

// CheckInvariants verifies the four graph invariants spec.md §8 requires
// after every mutation: rep not in others, above/below symmetry, no
// self-loops, and the roots set equals {n | above(n) = ∅}.
func (g *Graph) CheckInvariants() error {
	for k, n := range g.nodes {
		if k != n.Key() {
			return fmt.Errorf("node stored under key %d but representative hashes to %d", k, n.Key())
		}
		if _, ok := n.others[n.Key()]; ok {
			return fmt.Errorf("node %d: representative also present in others", k)
		}
		if n.above[k] || n.below[k] {
			return fmt.Errorf("node %d: self-loop", k)
		}
		for a := range n.above {
			other, ok := g.nodes[a]
			if !ok {
				return fmt.Errorf("node %d: above references unknown node %d", k, a)
			}
			if !other.below[k] {
				return fmt.Errorf("nodes %d/%d: above/below not symmetric", k, a)
			}
		}
		for b := range n.below {
			other, ok := g.nodes[b]
			if !ok {
				return fmt.Errorf("node %d: below references unknown node %d", k, b)
			}
			if !other.above[k] {
				return fmt.Errorf("nodes %d/%d: below/above not symmetric", k, b)
			}
		}
	}
	for k, n := range g.nodes {
		isRoot := len(n.above) == 0
		if isRoot != g.roots[k] {
			return fmt.Errorf("node %d: roots set inconsistent with above()=∅ (isRoot=%v, inRoots=%v)", k, isRoot, g.roots[k])
		}
	}
	for k := range g.roots {
		if _, ok := g.nodes[k]; !ok {
			return fmt.Errorf("roots set references unknown node %d", k)
		}
	}
	return nil
}
