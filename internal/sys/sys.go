// Package sys models the transition system being checked. It is
// deliberately thin: spec.md §1 puts the content of "the system" out of
// scope beyond the three operations the core consumes (enumerate state
// variables, assert initial predicate, assert transition), so this package
// only carries what the rest of kino needs to drive those operations
// through a solver session.
package sys

import (
	"github.com/AdrienChampion/kino/internal/term"
)

// StateVar is one declared state variable of a system: a symbol plus the
// domain it ranges over.
type StateVar struct {
	Sym    *term.Sym
	Domain term.CstKind
}

// System is the transition system under verification: its declared state
// variables, its initial predicate (a one-state term), and its transition
// relation (a two-state term over Curr/Next), both instantiated at whatever
// offset a caller asserts them at. Subsystems are named, nested systems
// sharing the same state variable set at coarser grain; kino's core treats
// them as opaque peers of the top system.
type System struct {
	sym        *term.Sym
	stateVars  []StateVar
	init       *term.Term
	trans      *term.Term
	subsystems []*System
}

// NewSystem builds a System. trans is expected to be a two-state term: it
// may reference both SVar(_,Curr) and SVar(_,Next).
func NewSystem(sym *term.Sym, stateVars []StateVar, init, trans *term.Term) *System {
	return &System{sym: sym, stateVars: stateVars, init: init, trans: trans}
}

// Sym is the system's identifying symbol.
func (s *System) Sym() *term.Sym { return s.sym }

// StateVars enumerates the system's declared state variables.
func (s *System) StateVars() []StateVar { return s.stateVars }

// Init is the initial-state predicate (one-state, Curr only).
func (s *System) Init() *term.Term { return s.init }

// Trans is the transition relation (two-state: Curr and Next).
func (s *System) Trans() *term.Term { return s.trans }

// Subsystems returns the system's nested subsystems.
func (s *System) Subsystems() []*System { return s.subsystems }

// WithSubsystems returns a copy of s with the given subsystems attached.
func (s *System) WithSubsystems(subs ...*System) *System {
	out := *s
	out.subsystems = subs
	return &out
}

// PropStatus is the bookkeeping status of a Property.
type PropStatus int

const (
	// PropOpen means neither proved nor disproved yet.
	PropOpen PropStatus = iota
	// PropProved means some technique established the property globally.
	PropProved
	// PropDisproved means some technique found a counterexample.
	PropDisproved
)

// Property is a named safety property: a symbol, its one-state predicate
// (as an STerm, so it compares identically across workers), and its
// current status.
type Property struct {
	sym    *term.Sym
	body   term.STerm
	status PropStatus
}

// NewProperty builds an open Property.
func NewProperty(sym *term.Sym, body term.STerm) *Property {
	return &Property{sym: sym, body: body, status: PropOpen}
}

// Sym is the property's identifying symbol.
func (p *Property) Sym() *term.Sym { return p.sym }

// Body is the property's predicate.
func (p *Property) Body() term.STerm { return p.body }

// Status is the property's current bookkeeping status.
func (p *Property) Status() PropStatus { return p.status }

// SetStatus updates the property's status.
func (p *Property) SetStatus(s PropStatus) { p.status = s }
