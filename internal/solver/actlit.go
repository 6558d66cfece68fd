package solver

import (
	"fmt"
	"sync/atomic"
)

// Actlit is an activation literal: a fresh boolean variable a_i introduced
// with (assert (=> a_i phi)), letting an assertion be retracted later with
// (assert (not a_i)) instead of a full solver restart. Names are never
// reused across a worker's lifetime.
type Actlit struct {
	name string
}

// Name is the actlit's solver-level identifier.
func (a Actlit) Name() string { return a.name }

func (a Actlit) String() string { return a.name }

// actlitCounter is process-global so that actlit names stay unique even
// across multiple Unroller instances within the same worker (e.g. a
// pruner's base session and its InvManager both minting fresh actlits).
var actlitCounter uint64

// FreshName mints a new, process-wide-unique activation literal name.
func FreshName() string {
	n := atomic.AddUint64(&actlitCounter, 1)
	return fmt.Sprintf("%%actlit%%%d", n)
}

// NewActlit wraps a freshly minted name as an Actlit.
func NewActlit() Actlit { return Actlit{name: FreshName()} }
