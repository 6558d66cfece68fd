package term

import "math/big"

// Factory is the shared, thread-safe term universe: one hash-cons table
// each for symbols, constants, and terms. A Factory is created once at
// startup and shared (by reference) across the supervisor and every
// worker; never copy the tables it points at, always hand out the same
// *Factory.
type Factory struct {
	syms  *symConsign
	csts  *cstConsign
	terms *termConsign
}

// NewFactory creates an empty term factory.
func NewFactory() *Factory {
	return &Factory{
		syms:  newSymConsign(),
		csts:  newCstConsign(),
		terms: newTermConsign(),
	}
}

// Sym interns a symbol by name.
func (f *Factory) Sym(name string) *Sym { return f.syms.sym(name) }

// CstBool interns a boolean constant.
func (f *Factory) CstBool(b bool) *Cst { return f.csts.ofBool(b) }

// CstInt interns an integer constant.
func (f *Factory) CstInt(i *big.Int) *Cst { return f.csts.ofInt(i) }

// CstRat interns a rational constant.
func (f *Factory) CstRat(r *big.Rat) *Cst { return f.csts.ofRat(r) }

// Var interns a one-state variable term.
func (f *Factory) Var(s *Sym) *Term { return f.terms.mkVar(s) }

// SVar interns a two-state variable term tagged Curr or Next.
func (f *Factory) SVar(s *Sym, w Which) *Term { return f.terms.mkSVar(s, w) }

// Const interns a constant term.
func (f *Factory) Const(c *Cst) *Term { return f.terms.mkConst(c) }

// Bool interns the boolean constant term directly from a bool.
func (f *Factory) Bool(b bool) *Term { return f.Const(f.CstBool(b)) }

// Int interns an integer constant term directly from an int64.
func (f *Factory) Int(i int64) *Term { return f.Const(f.CstInt(big.NewInt(i))) }

// App interns an uninterpreted function application term.
func (f *Factory) App(s *Sym, args ...*Term) *Term { return f.terms.mkApp(s, args) }

// Op interns an operator application term.
func (f *Factory) Op(op Operator, args ...*Term) *Term { return f.terms.mkOp(op, args) }

// Forall interns a universal quantifier term.
func (f *Factory) Forall(bindings []*Sym, body *Term) *Term { return f.terms.mkForall(bindings, body) }

// Exists interns an existential quantifier term.
func (f *Factory) Exists(bindings []*Sym, body *Term) *Term { return f.terms.mkExists(bindings, body) }

// Let interns a let-binding term.
func (f *Factory) Let(bindings []LetBinding, body *Term) *Term { return f.terms.mkLet(bindings, body) }

// DumpEntry is one row of a factory debug dump: a term's hkey paired with
// its printable form. Debug-only, never on a hot path.
type DumpEntry struct {
	Hkey uint64
	Text string
}

// Dump returns every interned term's hkey and textual form, sorted by hkey.
// Debug-only: holds the term table's lock for the whole walk, so it suits
// small, infrequent runs.
func (f *Factory) Dump() []DumpEntry {
	f.terms.mu.Lock()
	defer f.terms.mu.Unlock()
	entries := make([]DumpEntry, 0, len(f.terms.table))
	seen := make(map[uint64]bool, len(f.terms.table))
	for _, t := range f.terms.table {
		if seen[t.hkey] {
			continue
		}
		seen[t.hkey] = true
		entries = append(entries, DumpEntry{Hkey: t.hkey, Text: t.String()})
	}
	sortDumpEntries(entries)
	return entries
}

func sortDumpEntries(entries []DumpEntry) {
	// Simple insertion sort: dumps are debug-only and small.
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && entries[j-1].Hkey > entries[j].Hkey {
			entries[j-1], entries[j] = entries[j], entries[j-1]
			j--
		}
	}
}
