package term

import (
	"fmt"
	"math/big"
	"sync"
)

// CstKind discriminates the three constant shapes kino's term language
// supports.
type CstKind int

const (
	// CstBool tags a boolean constant.
	CstBool CstKind = iota
	// CstInt tags an arbitrary-precision integer constant.
	CstInt
	// CstRat tags an arbitrary-precision rational constant.
	CstRat
)

// Cst is an interned constant: Bool(b), Int(i), or Rat(p/q).
type Cst struct {
	kind CstKind
	b    bool
	i    *big.Int
	r    *big.Rat
	key  string // canonical textual key used for interning and hashing
}

// Bool returns the constant's boolean value, if it is one.
func (c *Cst) Bool() (bool, bool) {
	if c.kind != CstBool {
		return false, false
	}
	return c.b, true
}

// Int returns the constant's integer value, if it is one.
func (c *Cst) Int() (*big.Int, bool) {
	if c.kind != CstInt {
		return nil, false
	}
	return c.i, true
}

// Rat returns the constant's rational value, if it is one.
func (c *Cst) Rat() (*big.Rat, bool) {
	if c.kind != CstRat {
		return nil, false
	}
	return c.r, true
}

// Kind reports the constant's shape.
func (c *Cst) Kind() CstKind { return c.kind }

func (c *Cst) String() string { return c.key }

func boolKey(b bool) string {
	if b {
		return "b:true"
	}
	return "b:false"
}

// cstConsign is the thread-safe hash-cons table for constants.
type cstConsign struct {
	mu    sync.Mutex
	table map[string]*Cst
}

func newCstConsign() *cstConsign {
	return &cstConsign{table: make(map[string]*Cst, 64)}
}

func (c *cstConsign) intern(key string, build func() *Cst) *Cst {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cst, ok := c.table[key]; ok {
		return cst
	}
	cst := build()
	c.table[key] = cst
	return cst
}

func (c *cstConsign) ofBool(b bool) *Cst {
	key := boolKey(b)
	return c.intern(key, func() *Cst {
		return &Cst{kind: CstBool, b: b, key: key}
	})
}

func (c *cstConsign) ofInt(i *big.Int) *Cst {
	key := "i:" + i.String()
	return c.intern(key, func() *Cst {
		return &Cst{kind: CstInt, i: new(big.Int).Set(i), key: key}
	})
}

func (c *cstConsign) ofRat(r *big.Rat) *Cst {
	key := "r:" + r.RatString()
	return c.intern(key, func() *Cst {
		return &Cst{kind: CstRat, r: new(big.Rat).Set(r), key: key}
	})
}

// assertKind panics with a PreconditionViolation-shaped message if a
// constant is not of the expected kind.
func (c *Cst) assertKind(k CstKind) {
	if c.kind != k {
		panic(fmt.Sprintf("constant %s is not of the expected kind", c.key))
	}
}
