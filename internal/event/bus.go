package event

import (
	"github.com/AdrienChampion/kino/internal/kerr"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/term"
)

// MinChannelCapacity is the smallest bus capacity kino will create.
// spec.md §5: channels may be bounded at the implementation's discretion
// but MUST be at least 1; loss of a message is a hard error, so capacity
// only ever trades latency for memory, never correctness.
const MinChannelCapacity = 1

// Event is the endpoint a technique worker uses to talk to the
// supervisor: a sender for MsgUp, a receiver for MsgDown, the worker's own
// technique tag and factory handle, and its locally-owned k-true table.
// Event is not safe for concurrent use by multiple goroutines — each
// worker owns exactly one.
type Event struct {
	up      chan<- MsgUp
	down    <-chan MsgDown
	tek     technique.Technique
	factory *term.Factory
	kTrue   map[*term.Sym]*term.Offset
}

// NewEvent builds an Event for a worker running tek, wired to up/down and
// seeded with an "unknown" (nil) k-true entry for every property the
// worker is checking.
func NewEvent(
	up chan<- MsgUp, down <-chan MsgDown,
	tek technique.Technique, factory *term.Factory, props []*sys.Property,
) *Event {
	kTrue := make(map[*term.Sym]*term.Offset, len(props))
	for _, p := range props {
		kTrue[p.Sym()] = nil
	}
	return &Event{up: up, down: down, tek: tek, factory: factory, kTrue: kTrue}
}

// Factory returns the term factory shared across workers.
func (e *Event) Factory() *term.Factory { return e.factory }

// Technique returns the technique this endpoint belongs to.
func (e *Event) Technique() technique.Technique { return e.tek }

// GetKTrue returns the offset a property is k-true through, or nil if it
// has not been shown k-true yet. Panics (a PreconditionViolation, per
// spec.md §7) if sym is not a property this worker is tracking.
func (e *Event) GetKTrue(sym *term.Sym) *term.Offset {
	o, known := e.kTrue[sym]
	if !known {
		kerr.Precondition("get_k_true of an unknown property %s", sym.Name())
	}
	return o
}

// Recv drains the inbox non-blockingly. ok is false when the supervisor
// has dropped its sender — the worker must exit. KTrue messages are
// absorbed into the local k-true table as a side effect and are never
// included in the returned batch.
//
// Mirroring the original implementation: if the channel is found
// disconnected partway through a drain, Recv returns (nil, false)
// immediately, discarding whatever was collected so far in this call —
// harmless, since disconnection only happens at clean supervisor
// shutdown.
func (e *Event) Recv() ([]MsgDown, bool) {
	var out []MsgDown
	for {
		select {
		case msg, ok := <-e.down:
			if !ok {
				return nil, false
			}
			if kt, isKTrue := msg.(MsgDownKTrue); isKTrue {
				o := kt.Offset
				for _, s := range kt.Syms {
					e.kTrue[s] = &o
				}
				continue
			}
			out = append(out, msg)
		default:
			return out, true
		}
	}
}

// Done sends a Done message upwards.
func (e *Event) Done(info Info) { e.up <- MsgUpDone{Tek: e.tek, Info: info} }

// DoneAt sends a Done message with an At info.
func (e *Event) DoneAt(o term.Offset) { e.Done(At(o)) }

// KTrue sends a k-trueness announcement upwards.
func (e *Event) KTrue(props []*term.Sym, o term.Offset) {
	e.up <- MsgUpKTrue{Syms: props, Tek: e.tek, Offset: o}
}

// Proved sends a proved announcement upwards.
func (e *Event) Proved(props []*term.Sym, info Info) {
	e.up <- MsgUpProved{Syms: props, Tek: e.tek, Info: info}
}

// ProvedAt sends a proved announcement with an At info.
func (e *Event) ProvedAt(props []*term.Sym, o term.Offset) { e.Proved(props, At(o)) }

// Disproved sends a falsification announcement upwards.
func (e *Event) Disproved(model *term.Model, props []*term.Sym, info Info) {
	e.up <- MsgUpDisproved{Model: model, Syms: props, Tek: e.tek, Info: info}
}

// DisprovedAt sends a falsification announcement with an At info.
func (e *Event) DisprovedAt(model *term.Model, props []*term.Sym, o term.Offset) {
	e.Disproved(model, props, At(o))
}

// PrunedInvariants sends the result of a pruning pass upwards.
func (e *Event) PrunedInvariants(
	tek technique.Technique, sysSym *term.Sym, survivors *term.STermSet, oldLen int, info Info,
) {
	e.up <- MsgUpPrunedInvariants{
		Tek: tek, Sys: sysSym, Survivors: survivors, OldLen: oldLen, Info: info,
	}
}

// Invariants sends newly discovered invariants for a system upwards, e.g.
// a batch tig just finished stabilizing.
func (e *Event) Invariants(sysSym *term.Sym, invs []term.STerm) {
	e.up <- MsgUpInvariants{Tek: e.tek, Sys: sysSym, Invs: invs}
}

// Log sends a free-form log message upwards.
func (e *Event) Log(s string) { e.up <- MsgUpBla{Tek: e.tek, Text: s} }

// Error sends a free-form error message upwards.
func (e *Event) Error(s string) { e.up <- MsgUpError{Tek: e.tek, Text: s} }

// Unimplemented marks a request this worker could not honor.
func (e *Event) Unimplemented() { e.up <- MsgUpUnimplemented{Tek: e.tek} }
