package solver

import "github.com/AdrienChampion/kino/internal/term"

// FakeSolver is a scriptable in-memory Solver used by the test suites of
// internal/unroll, internal/pruner, and internal/tig. It never talks to a
// real child process — spec.md §1 puts the actual SMT backend out of
// scope, so exercising the unroller/pruner/graph logic needs a
// deterministic stand-in rather than a live solver.
type FakeSolver struct {
	Declared map[string]term.CstKind
	Asserts  []string

	// CheckSatFunc decides the answer to CheckSat/CheckSatAssuming. actlits
	// is nil for a plain CheckSat call.
	CheckSatFunc func(actlits []string) (bool, error)
	// ModelFunc answers GetModel.
	ModelFunc func(vars []string) (RawModel, error)

	ResetCount int
	Closed     bool
}

// NewFakeSolver builds an empty FakeSolver. Callers set CheckSatFunc and
// ModelFunc to script its behavior.
func NewFakeSolver() *FakeSolver {
	return &FakeSolver{Declared: make(map[string]term.CstKind)}
}

// DeclareConst implements Solver.
func (s *FakeSolver) DeclareConst(name string, domain term.CstKind) error {
	s.Declared[name] = domain
	return nil
}

// Assert implements Solver.
func (s *FakeSolver) Assert(smt2 string) error {
	s.Asserts = append(s.Asserts, smt2)
	return nil
}

// CheckSat implements Solver.
func (s *FakeSolver) CheckSat() (bool, error) {
	if s.CheckSatFunc == nil {
		return false, nil
	}
	return s.CheckSatFunc(nil)
}

// CheckSatAssuming implements Solver.
func (s *FakeSolver) CheckSatAssuming(actlits []string) (bool, error) {
	if s.CheckSatFunc == nil {
		return false, nil
	}
	return s.CheckSatFunc(actlits)
}

// GetModel implements Solver.
func (s *FakeSolver) GetModel(vars []string) (RawModel, error) {
	if s.ModelFunc == nil {
		return RawModel{}, nil
	}
	return s.ModelFunc(vars)
}

// Reset implements Solver.
func (s *FakeSolver) Reset() error {
	s.ResetCount++
	s.Asserts = nil
	return nil
}

// Close implements Solver.
func (s *FakeSolver) Close() error {
	s.Closed = true
	return nil
}
