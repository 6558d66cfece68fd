package term

import (
	"math/big"

	"github.com/AdrienChampion/kino/internal/kerr"
)

// resolve looks up the value of a Var/SVar leaf in the model at the given
// two-state offset, reporting a DomainEvalErr if the model does not define
// it.
func resolve(t *Term, offset Offset2, model *Model) (*Cst, error) {
	var o Offset
	switch t.kind {
	case KindVar:
		o = offset.Curr()
	case KindSVar:
		o = offset.At(t.which)
	default:
		return nil, kerr.NewDomainEvalErr("not a variable leaf")
	}
	c, ok := model.Get(t.sym, o)
	if !ok {
		return nil, kerr.NewDomainEvalErr("undefined variable " + t.sym.Name())
	}
	return c, nil
}

// EvalBool evaluates a boolean-valued term against model at the two-state
// offset. SVar(_,Curr) reads offset.Curr(), SVar(_,Next) reads
// offset.Next(). Fails on type mismatch, an undefined variable, or a
// partial model.
func (f *Factory) EvalBool(t *Term, offset Offset2, model *Model) (bool, error) {
	switch t.kind {
	case KindVar, KindSVar:
		c, err := resolve(t, offset, model)
		if err != nil {
			return false, err
		}
		b, ok := c.Bool()
		if !ok {
			return false, kerr.NewDomainEvalErr("expected a boolean constant")
		}
		return b, nil
	case KindConst:
		b, ok := t.cst.Bool()
		if !ok {
			return false, kerr.NewDomainEvalErr("expected a boolean constant")
		}
		return b, nil
	case KindOp:
		return f.evalBoolOp(t, offset, model)
	case KindLet:
		return f.evalBoolLet(t, offset, model)
	default:
		return false, kerr.NewDomainEvalErr("term kind not evaluable to bool")
	}
}

func (f *Factory) evalBoolLet(t *Term, offset Offset2, model *Model) (bool, error) {
	// Let-bound values only ever occur as leaves the evaluator looks up by
	// symbol identity; since terms are hash-consed by structure and not by
	// binding environment, we evaluate the body directly — substitution has
	// already happened at construction time for every kino use of Let.
	return f.EvalBool(t.body, offset, model)
}

func (f *Factory) evalBoolOp(t *Term, offset Offset2, model *Model) (bool, error) {
	switch t.op {
	case OpNot:
		v, err := f.EvalBool(t.args[0], offset, model)
		if err != nil {
			return false, err
		}
		return !v, nil
	case OpAnd:
		for _, a := range t.args {
			v, err := f.EvalBool(a, offset, model)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case OpOr:
		for _, a := range t.args {
			v, err := f.EvalBool(a, offset, model)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case OpImpl:
		for i := 0; i < len(t.args)-1; i++ {
			v, err := f.EvalBool(t.args[i], offset, model)
			if err != nil {
				return false, err
			}
			if !v {
				return true, nil
			}
		}
		return f.EvalBool(t.args[len(t.args)-1], offset, model)
	case OpEq:
		return f.evalEq(t.args[0], t.args[1], offset, model)
	case OpLe, OpLt:
		return f.evalOrder(t.op, t.args[0], t.args[1], offset, model)
	case OpIte:
		cond, err := f.EvalBool(t.args[0], offset, model)
		if err != nil {
			return false, err
		}
		if cond {
			return f.EvalBool(t.args[1], offset, model)
		}
		return f.EvalBool(t.args[2], offset, model)
	default:
		return false, kerr.NewDomainEvalErr("operator not boolean-valued: " + t.op.String())
	}
}

func (f *Factory) evalEq(l, r *Term, offset Offset2, model *Model) (bool, error) {
	lc, err := f.evalAny(l, offset, model)
	if err != nil {
		return false, err
	}
	rc, err := f.evalAny(r, offset, model)
	if err != nil {
		return false, err
	}
	return cstEqual(lc, rc)
}

func cstEqual(l, r *big.Rat) (bool, error) {
	return l.Cmp(r) == 0, nil
}

// evalAny evaluates any of the three domains and returns a common *big.Rat
// representation, promoting bools to 1/0 only internally for equality and
// ordering comparisons over mixed leaves is never expected: kino's terms
// are well-typed by construction, so in practice l and r always agree.
func (f *Factory) evalAny(t *Term, offset Offset2, model *Model) (*big.Rat, error) {
	if isBoolTerm(t) {
		b, err := f.EvalBool(t, offset, model)
		if err != nil {
			return nil, err
		}
		if b {
			return big.NewRat(1, 1), nil
		}
		return big.NewRat(0, 1), nil
	}
	r, err := f.EvalRat(t, offset, model)
	if err == nil {
		return r, nil
	}
	i, err2 := f.EvalInt(t, offset, model)
	if err2 == nil {
		return new(big.Rat).SetInt(i), nil
	}
	b, err3 := f.EvalBool(t, offset, model)
	if err3 != nil {
		return nil, err
	}
	if b {
		return big.NewRat(1, 1), nil
	}
	return big.NewRat(0, 1), nil
}

func isBoolTerm(t *Term) bool {
	switch t.kind {
	case KindConst:
		_, ok := t.cst.Bool()
		return ok
	case KindOp:
		switch t.op {
		case OpNot, OpAnd, OpOr, OpImpl:
			return true
		}
	}
	return false
}

func (f *Factory) evalOrder(op Operator, l, r *Term, offset Offset2, model *Model) (bool, error) {
	lv, err := f.evalAny(l, offset, model)
	if err != nil {
		return false, err
	}
	rv, err := f.evalAny(r, offset, model)
	if err != nil {
		return false, err
	}
	cmp := lv.Cmp(rv)
	if op == OpLe {
		return cmp <= 0, nil
	}
	return cmp < 0, nil
}

// EvalInt evaluates an integer-valued term against model at offset.
func (f *Factory) EvalInt(t *Term, offset Offset2, model *Model) (*big.Int, error) {
	switch t.kind {
	case KindVar, KindSVar:
		c, err := resolve(t, offset, model)
		if err != nil {
			return nil, err
		}
		i, ok := c.Int()
		if !ok {
			return nil, kerr.NewDomainEvalErr("expected an integer constant")
		}
		return i, nil
	case KindConst:
		i, ok := t.cst.Int()
		if !ok {
			return nil, kerr.NewDomainEvalErr("expected an integer constant")
		}
		return i, nil
	case KindOp:
		return f.evalIntOp(t, offset, model)
	default:
		return nil, kerr.NewDomainEvalErr("term kind not evaluable to int")
	}
}

func (f *Factory) evalIntOp(t *Term, offset Offset2, model *Model) (*big.Int, error) {
	vals := make([]*big.Int, len(t.args))
	for i, a := range t.args {
		v, err := f.EvalInt(a, offset, model)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	switch t.op {
	case OpAdd:
		acc := big.NewInt(0)
		for _, v := range vals {
			acc.Add(acc, v)
		}
		return acc, nil
	case OpSub:
		if len(vals) == 1 {
			return new(big.Int).Neg(vals[0]), nil
		}
		acc := new(big.Int).Set(vals[0])
		for _, v := range vals[1:] {
			acc.Sub(acc, v)
		}
		return acc, nil
	case OpMul:
		acc := big.NewInt(1)
		for _, v := range vals {
			acc.Mul(acc, v)
		}
		return acc, nil
	default:
		return nil, kerr.NewDomainEvalErr("operator not integer-valued: " + t.op.String())
	}
}

// EvalRat evaluates a rational-valued term against model at offset.
func (f *Factory) EvalRat(t *Term, offset Offset2, model *Model) (*big.Rat, error) {
	switch t.kind {
	case KindVar, KindSVar:
		c, err := resolve(t, offset, model)
		if err != nil {
			return nil, err
		}
		r, ok := c.Rat()
		if !ok {
			return nil, kerr.NewDomainEvalErr("expected a rational constant")
		}
		return r, nil
	case KindConst:
		r, ok := t.cst.Rat()
		if !ok {
			return nil, kerr.NewDomainEvalErr("expected a rational constant")
		}
		return r, nil
	case KindOp:
		return f.evalRatOp(t, offset, model)
	default:
		return nil, kerr.NewDomainEvalErr("term kind not evaluable to rat")
	}
}

func (f *Factory) evalRatOp(t *Term, offset Offset2, model *Model) (*big.Rat, error) {
	vals := make([]*big.Rat, len(t.args))
	for i, a := range t.args {
		v, err := f.EvalRat(a, offset, model)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	switch t.op {
	case OpAdd:
		acc := big.NewRat(0, 1)
		for _, v := range vals {
			acc.Add(acc, v)
		}
		return acc, nil
	case OpSub:
		if len(vals) == 1 {
			return new(big.Rat).Neg(vals[0]), nil
		}
		acc := new(big.Rat).Set(vals[0])
		for _, v := range vals[1:] {
			acc.Sub(acc, v)
		}
		return acc, nil
	case OpMul:
		acc := big.NewRat(1, 1)
		for _, v := range vals {
			acc.Mul(acc, v)
		}
		return acc, nil
	default:
		return nil, kerr.NewDomainEvalErr("operator not rational-valued: " + t.op.String())
	}
}
