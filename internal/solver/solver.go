// Package solver defines kino's contract with the backend SMT decision
// procedure. spec.md §1 treats the solver process as an opaque
// assume/assert/check-sat/get-model oracle and puts its implementation out
// of scope; this package is the narrow interface the rest of the core (the
// unroller, the pruner, the invariant-generation graph) programs against,
// plus one real implementation that speaks SMT-LIB2 to a child process.
package solver

import (
	"math/big"

	"github.com/AdrienChampion/kino/internal/term"
)

// RawValue is one value in a get-model response, before it has been typed
// against a particular state variable's declared domain.
type RawValue struct {
	Kind term.CstKind
	B    bool
	I    *big.Int
	R    *big.Rat
}

// RawModel maps a solver-level variable name (e.g. "x@3") to its value.
type RawModel map[string]RawValue

// Solver is the contract kino's core programs against. Every method is a
// synchronous round-trip to the child solver process: spec.md §5 lists
// check-sat-assuming, get-model, and assert as the suspension points of a
// worker's thread.
type Solver interface {
	// DeclareConst declares a nullary constant (a state variable instance at
	// a specific offset, or a fresh activation literal).
	DeclareConst(name string, domain term.CstKind) error
	// Assert asserts smt2, a fully-formed SMT-LIB2 term, as background.
	Assert(smt2 string) error
	// CheckSat checks satisfiability of everything asserted so far.
	CheckSat() (bool, error)
	// CheckSatAssuming checks satisfiability of everything asserted so far,
	// further assuming the named activation literals.
	CheckSatAssuming(actlits []string) (bool, error)
	// GetModel retrieves a model for the variables named in vars; callers
	// must have just received a SAT answer.
	GetModel(vars []string) (RawModel, error)
	// Reset discards all solver-side state (declarations and assertions).
	Reset() error
	// Close tears down the solver session.
	Close() error
}
