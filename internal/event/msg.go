// Package event implements the bounded, typed, bidirectional message bus
// between kino's supervisor and its technique workers (component C4), plus
// the Info/Technique vocabulary the messages are built from.
package event

import (
	"fmt"

	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/term"
)

// InfoKind discriminates the two shapes Info can take. Two Info
// definitions coexisted in the source this was distilled from (one with
// only At, one with At and Error); SPEC_FULL.md adopts the richer one.
type InfoKind int

const (
	// InfoAt reports the unrolling depth a technique has reached.
	InfoAt InfoKind = iota
	// InfoErr reports that a technique hit an error.
	InfoErr
)

// Info is auxiliary information a technique attaches to a Done/Proved/
// Disproved message.
type Info struct {
	kind InfoKind
	at   term.Offset
}

// At builds an Info reporting the unrolling depth o.
func At(o term.Offset) Info { return Info{kind: InfoAt, at: o} }

// ErrInfo builds an Info reporting an error occurred.
func ErrInfo() Info { return Info{kind: InfoErr} }

// Kind reports which shape this Info has.
func (i Info) Kind() InfoKind { return i.kind }

// Offset is the depth carried by an InfoAt; meaningless otherwise.
func (i Info) Offset() term.Offset { return i.at }

func (i Info) String() string {
	switch i.kind {
	case InfoAt:
		return fmt.Sprintf("at %d", i.at)
	default:
		return "error"
	}
}

// MsgUp is a message a worker sends to the supervisor.
type MsgUp interface{ isMsgUp() }

// MsgUpDone announces a technique terminated, voluntarily or at max-k.
type MsgUpDone struct {
	Tek  technique.Technique
	Info Info
}

func (MsgUpDone) isMsgUp() {}

// MsgUpKTrue announces properties hold through offset.
type MsgUpKTrue struct {
	Syms   []*term.Sym
	Tek    technique.Technique
	Offset term.Offset
}

func (MsgUpKTrue) isMsgUp() {}

// MsgUpProved announces properties were proved (inductively or otherwise
// globally).
type MsgUpProved struct {
	Syms []*term.Sym
	Tek  technique.Technique
	Info Info
}

func (MsgUpProved) isMsgUp() {}

// MsgUpDisproved announces a counterexample trace was witnessed.
type MsgUpDisproved struct {
	Model *term.Model
	Syms  []*term.Sym
	Tek   technique.Technique
	Info  Info
}

func (MsgUpDisproved) isMsgUp() {}

// MsgUpInvariants reports newly discovered invariants for a system, e.g.
// from tig's stabilization passes. The STerms are shared pointers into the
// common factory (they were interned there already), so publishing them
// across the channel needs no serialization, just like
// MsgUpPrunedInvariants' bulk survivors set.
type MsgUpInvariants struct {
	Tek  technique.Technique
	Sys  *term.Sym
	Invs []term.STerm
}

func (MsgUpInvariants) isMsgUp() {}

// MsgUpPrunedInvariants reports the result of a pruning pass: the
// non-trivial invariants that survived, the size of the original
// candidate set, and the Info the request carried.
type MsgUpPrunedInvariants struct {
	Tek       technique.Technique
	Sys       *term.Sym
	Survivors *term.STermSet
	OldLen    int
	Info      Info
}

func (MsgUpPrunedInvariants) isMsgUp() {}

// MsgUpBla is a free-form log message.
type MsgUpBla struct {
	Tek  technique.Technique
	Text string
}

func (MsgUpBla) isMsgUp() {}

// MsgUpError is a free-form error message.
type MsgUpError struct {
	Tek  technique.Technique
	Text string
}

func (MsgUpError) isMsgUp() {}

// MsgUpUnimplemented marks a request the worker could not honor.
type MsgUpUnimplemented struct{ Tek technique.Technique }

func (MsgUpUnimplemented) isMsgUp() {}

// MsgDown is a message the supervisor broadcasts to every worker.
type MsgDown interface{ isMsgDown() }

// MsgDownInvariants carries newly established invariants for a system.
// The STerm-based form is canonical (see SPEC_FULL.md §3): the legacy
// Term-based shape from early source does not survive here.
type MsgDownInvariants struct {
	SysSym *term.Sym
	Invs   []term.STerm
}

func (MsgDownInvariants) isMsgDown() {}

// MsgDownForget tells workers to stop reasoning about the given
// properties: they are proved or disproved.
type MsgDownForget struct{ Syms []*term.Sym }

func (MsgDownForget) isMsgDown() {}

// MsgDownKTrue tells workers another technique established k-trueness for
// the given properties.
type MsgDownKTrue struct {
	Syms   []*term.Sym
	Offset term.Offset
}

func (MsgDownKTrue) isMsgDown() {}

// MsgDownInvariantPruning asks the pruner to prune a candidate invariant
// set for a system.
type MsgDownInvariantPruning struct {
	Tek    technique.Technique
	SysSym *term.Sym
	Invs   *term.STermSet
	Info   Info
}

func (MsgDownInvariantPruning) isMsgDown() {}
