package term

// STerm is a term paired with its canonical normalized representative,
// fixed at the two-state offset (0,1). Because every worker shares one
// Factory, two structurally identical terms are always the same *Term
// pointer (hash-consing), so STerm's normalization is simply "use the
// interned term itself" — the type exists so invariants crossing the
// event bus carry an explicit, offset-independent identity rather than
// being printed/re-parsed, which is what makes Invariant set equality
// (spec.md §3) a pointer comparison instead of a syntactic one.
type STerm struct {
	norm *Term
}

// NewSTerm wraps t as an STerm. t is expected to be a one-state term (no
// SVar(_, Next)); callers that build STerms from two-state hypotheses
// should bump/normalize first.
func NewSTerm(t *Term) STerm { return STerm{norm: t} }

// Term returns the normalized term underlying s.
func (s STerm) Term() *Term { return s.norm }

// Key is the stable identity used to de-duplicate and compare STerms
// across workers: the hkey of the normalized term.
func (s STerm) Key() uint64 { return s.norm.hkey }

// Equal reports whether two STerms carry the same normalized term.
func (s STerm) Equal(o STerm) bool { return s.norm == o.norm }

func (s STerm) String() string { return s.norm.String() }

// STermSet is an unordered set of STerms, keyed by Key(). Mirrors the
// Rust original's STermSet used by the pruner's InvManager and the
// supervisor's per-system invariant bookkeeping.
type STermSet struct {
	byKey map[uint64]STerm
}

// NewSTermSet creates an empty set, optionally sized for capacity items.
func NewSTermSet(capacity int) *STermSet {
	return &STermSet{byKey: make(map[uint64]STerm, capacity)}
}

// Insert adds s to the set, returning true if it was not already present.
func (set *STermSet) Insert(s STerm) bool {
	if _, ok := set.byKey[s.Key()]; ok {
		return false
	}
	set.byKey[s.Key()] = s
	return true
}

// Contains reports whether s is a member.
func (set *STermSet) Contains(s STerm) bool {
	_, ok := set.byKey[s.Key()]
	return ok
}

// Remove deletes s from the set, returning true if it was present.
func (set *STermSet) Remove(s STerm) bool {
	if _, ok := set.byKey[s.Key()]; !ok {
		return false
	}
	delete(set.byKey, s.Key())
	return true
}

// Len reports the number of elements in the set.
func (set *STermSet) Len() int { return len(set.byKey) }

// Slice returns the set's elements in unspecified order.
func (set *STermSet) Slice() []STerm {
	out := make([]STerm, 0, len(set.byKey))
	for _, s := range set.byKey {
		out = append(out, s)
	}
	return out
}
