package term

import "fmt"

// Offset is a nonnegative step index into an unrolling of a transition
// system. In practice it stays well inside the 16-bit range the original
// implementation used, but Go gives us no cheap reason to narrow it.
type Offset uint32

// Nxt returns the offset following o.
func (o Offset) Nxt() Offset { return o + 1 }

// String renders the offset the way it is printed in SMT-LIB2: a plain
// decimal integer.
func (o Offset) String() string { return fmt.Sprintf("%d", uint32(o)) }

// Which selects between the current-state and next-state half of an
// Offset2.
type Which int

const (
	// Curr selects the current-state offset.
	Curr Which = iota
	// Next selects the next-state offset.
	Next
)

func (w Which) String() string {
	if w == Curr {
		return "curr"
	}
	return "next"
}

// Offset2 is an ordered pair (curr, next) with next == curr+1.
type Offset2 struct {
	curr Offset
	next Offset
}

// InitOffset2 is the initial two-state offset pair, (0, 1).
func InitOffset2() Offset2 { return Offset2{curr: 0, next: 1} }

// MkOffset2 builds an Offset2 from an explicit curr offset.
func MkOffset2(curr Offset) Offset2 { return Offset2{curr: curr, next: curr.Nxt()} }

// Curr is the current-state offset.
func (o Offset2) Curr() Offset { return o.curr }

// Next is the next-state offset.
func (o Offset2) Next() Offset { return o.next }

// Nxt returns the two-state offset following o.
func (o Offset2) Nxt() Offset2 { return Offset2{curr: o.curr.Nxt(), next: o.next.Nxt()} }

// At indexes into the pair by Curr/Next.
func (o Offset2) At(w Which) Offset {
	if w == Curr {
		return o.curr
	}
	return o.next
}

func (o Offset2) String() string { return fmt.Sprintf("(%d,%d)", o.curr, o.next) }
