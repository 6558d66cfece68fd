package pruner

import (
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/unroll"
)

// InvManager tracks a candidate invariant set being pruned at a fixed
// two-state offset k: every still-active candidate is asserted behind its
// own activation literal at both k.Curr() and k.Next(), so it can be
// dropped from the assumption set later without a solver restart.
type InvManager struct {
	active    []term.STerm
	inhibited *term.STermSet
	tested    map[uint64]bool
	actlits   map[uint64]solver.Actlit
	u         *unroll.Unroller
	k         term.Offset2
}

// NewInvManager declares a guard actlit for every candidate in invs and
// asserts it as the candidate's hypothesis at both halves of k.
func NewInvManager(invs *term.STermSet, u *unroll.Unroller, k term.Offset2) (*InvManager, error) {
	m := &InvManager{
		active:    invs.Slice(),
		inhibited: term.NewSTermSet(0),
		tested:    make(map[uint64]bool, invs.Len()),
		actlits:   make(map[uint64]solver.Actlit, invs.Len()),
		u:         u,
		k:         k,
	}
	nextK := term.MkOffset2(k.Next())
	for _, inv := range m.active {
		a, err := u.FreshActlit()
		if err != nil {
			return nil, err
		}
		if err := u.AssertGuarded(a, inv.Term(), k); err != nil {
			return nil, err
		}
		if err := u.AssertGuarded(a, inv.Term(), nextK); err != nil {
			return nil, err
		}
		m.actlits[inv.Key()] = a
	}
	return m, nil
}

// Actlits returns the guard actlits of every still-active candidate.
func (m *InvManager) Actlits() []solver.Actlit {
	out := make([]solver.Actlit, 0, len(m.active))
	for _, inv := range m.active {
		out = append(out, m.actlits[inv.Key()])
	}
	return out
}

// ActlitsExcept returns the guard actlits of every still-active candidate
// other than the one keyed by except. The candidate currently under test
// must not appear in its own positive assumption set: asserting both its
// hypothesis (this actlit) and its negation (the caller's fresh actlit) at
// k.Next() would be an unconditional contradiction, making every check
// UNSAT regardless of the rest of the set.
func (m *InvManager) ActlitsExcept(except uint64) []solver.Actlit {
	out := make([]solver.Actlit, 0, len(m.active))
	for _, inv := range m.active {
		if inv.Key() == except {
			continue
		}
		out = append(out, m.actlits[inv.Key()])
	}
	return out
}

// OneFalseNext returns the next active candidate not yet offered this
// pass, round-robin, or ok=false once every active candidate has been
// offered.
func (m *InvManager) OneFalseNext() (inv term.STerm, ok bool) {
	for _, c := range m.active {
		if !m.tested[c.Key()] {
			m.tested[c.Key()] = true
			return c, true
		}
	}
	return term.STerm{}, false
}

// GetFalseNext retrieves the current model and returns every still-active
// candidate that evaluates to false at k.Next() in it.
func (m *InvManager) GetFalseNext() (*term.STermSet, error) {
	model, err := m.u.ModelAt(m.k.Next())
	if err != nil {
		return nil, err
	}
	falsified := term.NewSTermSet(len(m.active))
	f := m.u.Factory()
	nextOffset := term.MkOffset2(m.k.Next())
	for _, inv := range m.active {
		v, err := f.EvalBool(inv.Term(), nextOffset, model)
		if err != nil {
			continue
		}
		if !v {
			falsified.Insert(inv)
		}
	}
	return falsified, nil
}

// Inhibit permanently deactivates and drops every candidate in falsified
// from the active set, and records it as non-trivial: the solver has shown
// it can fail one step ahead, so it is not implied by the rest of the set.
func (m *InvManager) Inhibit(falsified *term.STermSet) error {
	kept := m.active[:0:0]
	for _, inv := range m.active {
		if falsified.Contains(inv) {
			m.inhibited.Insert(inv)
			if a, ok := m.actlits[inv.Key()]; ok {
				if err := m.u.Deactivate(a); err != nil {
					return err
				}
				delete(m.actlits, inv.Key())
			}
			continue
		}
		kept = append(kept, inv)
	}
	m.active = kept
	return nil
}

// NonTrivial returns the candidates inhibited over the course of pruning:
// those the solver showed false one step ahead while the rest of the set
// held, i.e. not implied by the others. This is the set spec.md §4.6 step
// 4 calls "non-trivial" and returns; candidates never inhibited are
// redundant (implied by the rest) and are not included.
func (m *InvManager) NonTrivial() *term.STermSet {
	return m.inhibited
}
