// Package tig implements kino's Tinelli-style invariant-generation graph
// engine (component C7): an equivalence/ordering graph over candidate
// terms, refined by SAT/UNSAT queries against a base and a step checker
// until every surviving class and edge is shown inductive.
//
// Grounded on original_source/tig/src/lib.rs's Val trait and Node/split
// machinery, generalized from Rust's generic-over-Val shape to a closed,
// non-generic Domain interface with exactly three implementors — spec.md
// §9 allows either a closed sum or a capability trait "but make the set
// closed (no plugins)", and a non-generic interface keeps the dispatch
// table explicit the way internal/technique's closed enum does.
package tig

import (
	"math/big"

	"github.com/AdrienChampion/kino/internal/term"
)

// Value is the evaluated value of a candidate term under some domain:
// Bool, Int, or Rat. Sealed, matching internal/event's MsgUp/MsgDown
// pattern.
type Value interface {
	isValue()
}

// BoolValue wraps a boolean evaluation result.
type BoolValue bool

func (BoolValue) isValue() {}

// IntValue wraps an integer evaluation result.
type IntValue struct{ V *big.Int }

func (IntValue) isValue() {}

// RatValue wraps a rational evaluation result.
type RatValue struct{ V *big.Rat }

func (RatValue) isValue() {}

// Domain dispatches the value-domain-specific operations the graph engine
// needs: how to evaluate a term, how to compare two values, how to build
// the comparison/equality term between two representatives, and how to
// pick a deterministic representative for a freshly built node.
type Domain interface {
	// OrderOp is the operator used to encode the domain's ordering: "=>"
	// for Bool, "<=" for Int and Rat.
	OrderOp() term.Operator
	// Eval evaluates t against model at offset.
	Eval(f *term.Factory, t *term.Term, offset term.Offset2, model *term.Model) (Value, error)
	// Compare orders two values of this domain: negative if a<b, zero if
	// equal, positive if a>b.
	Compare(a, b Value) int
	// MkEq builds the equality term l = r.
	MkEq(f *term.Factory, l, r *term.Term) *term.Term
	// MkCmp builds the ordering term l <op> r, or reports ok=false when the
	// comparison would be trivially true and should not be checked (Bool
	// suppresses "l => r" when l is the literal false or r is the literal
	// true).
	MkCmp(f *term.Factory, l, r *term.Term) (t *term.Term, ok bool)
	// ChooseRep picks a deterministic representative among terms: Bool
	// prefers the literal true if present; every domain falls back to the
	// lowest-hkey term, keeping the pick stable run to run.
	ChooseRep(terms []*term.Term) *term.Term
}

func lowestHkey(terms []*term.Term) *term.Term {
	best := terms[0]
	for _, t := range terms[1:] {
		if t.Hkey() < best.Hkey() {
			best = t
		}
	}
	return best
}

// BoolDomain is the Bool value domain: order_op is implication, mk_cmp
// suppresses implications that are trivially true.
type BoolDomain struct{}

func (BoolDomain) OrderOp() term.Operator { return term.OpImpl }

func (BoolDomain) Eval(f *term.Factory, t *term.Term, offset term.Offset2, model *term.Model) (Value, error) {
	b, err := f.EvalBool(t, offset, model)
	if err != nil {
		return nil, err
	}
	return BoolValue(b), nil
}

func (BoolDomain) Compare(a, b Value) int {
	av, bv := bool(a.(BoolValue)), bool(b.(BoolValue))
	if av == bv {
		return 0
	}
	if !av && bv {
		return -1
	}
	return 1
}

func (BoolDomain) MkEq(f *term.Factory, l, r *term.Term) *term.Term {
	return f.Op(term.OpEq, l, r)
}

func (BoolDomain) MkCmp(f *term.Factory, l, r *term.Term) (*term.Term, bool) {
	if isLiteralBool(l, false) || isLiteralBool(r, true) {
		return nil, false
	}
	return f.Op(term.OpImpl, l, r), true
}

func isLiteralBool(t *term.Term, want bool) bool {
	if t.Kind() != term.KindConst {
		return false
	}
	b, ok := t.Cst().Bool()
	return ok && b == want
}

func (BoolDomain) ChooseRep(terms []*term.Term) *term.Term {
	for _, t := range terms {
		if isLiteralBool(t, true) {
			return t
		}
	}
	return lowestHkey(terms)
}

// IntDomain is the Int value domain: order_op is <=.
type IntDomain struct{}

func (IntDomain) OrderOp() term.Operator { return term.OpLe }

func (IntDomain) Eval(f *term.Factory, t *term.Term, offset term.Offset2, model *term.Model) (Value, error) {
	i, err := f.EvalInt(t, offset, model)
	if err != nil {
		return nil, err
	}
	return IntValue{V: i}, nil
}

func (IntDomain) Compare(a, b Value) int {
	return a.(IntValue).V.Cmp(b.(IntValue).V)
}

func (IntDomain) MkEq(f *term.Factory, l, r *term.Term) *term.Term {
	return f.Op(term.OpEq, l, r)
}

func (IntDomain) MkCmp(f *term.Factory, l, r *term.Term) (*term.Term, bool) {
	return f.Op(term.OpLe, l, r), true
}

func (IntDomain) ChooseRep(terms []*term.Term) *term.Term { return lowestHkey(terms) }

// RatDomain is the Rat value domain: order_op is <=.
type RatDomain struct{}

func (RatDomain) OrderOp() term.Operator { return term.OpLe }

func (RatDomain) Eval(f *term.Factory, t *term.Term, offset term.Offset2, model *term.Model) (Value, error) {
	r, err := f.EvalRat(t, offset, model)
	if err != nil {
		return nil, err
	}
	return RatValue{V: r}, nil
}

func (RatDomain) Compare(a, b Value) int {
	return a.(RatValue).V.Cmp(b.(RatValue).V)
}

func (RatDomain) MkEq(f *term.Factory, l, r *term.Term) *term.Term {
	return f.Op(term.OpEq, l, r)
}

func (RatDomain) MkCmp(f *term.Factory, l, r *term.Term) (*term.Term, bool) {
	return f.Op(term.OpLe, l, r), true
}

func (RatDomain) ChooseRep(terms []*term.Term) *term.Term { return lowestHkey(terms) }
