package term

import (
	"fmt"
	"io"
	"math/big"
)

// SvarName returns the printed name of a state variable at the given
// offset: name@offset, per spec.md §6.
func SvarName(sym *Sym, o Offset) string {
	return fmt.Sprintf("%s@%d", sym.Name(), o)
}

// ToSMT2 prints t to w as SMT-LIB2, instantiating SVar(_,Curr)/SVar(_,Next)
// at offset.Curr()/offset.Next() and Var at offset.Curr().
func ToSMT2(w io.Writer, t *Term, offset Offset2) error {
	switch t.kind {
	case KindVar:
		_, err := io.WriteString(w, SvarName(t.sym, offset.Curr()))
		return err
	case KindSVar:
		_, err := io.WriteString(w, SvarName(t.sym, offset.At(t.which)))
		return err
	case KindConst:
		c, s, neg := t.cst, "", false
		switch c.kind {
		case CstBool:
			s = fmt.Sprint(c.b)
		case CstInt:
			s, neg = new(big.Int).Abs(c.i).String(), c.i.Sign() < 0
		default:
			s = fmt.Sprintf("(/ %s.0 %s.0)", new(big.Int).Abs(c.r.Num()), c.r.Denom())
			neg = c.r.Sign() < 0
		}
		if neg {
			s = "(- " + s + ")"
		}
		_, err := io.WriteString(w, s)
		return err
	case KindApp:
		return printApp(w, t.sym.Name(), t.args, offset)
	case KindOp:
		return printApp(w, t.op.String(), t.args, offset)
	case KindForall:
		return printBinder(w, "forall", t.bindings, t.body, offset)
	case KindExists:
		return printBinder(w, "exists", t.bindings, t.body, offset)
	case KindLet:
		return printLet(w, t.letBindings, t.body, offset)
	default:
		return fmt.Errorf("ToSMT2: unhandled term kind %d", t.kind)
	}
}

func printApp(w io.Writer, head string, args []*Term, offset Offset2) error {
	if len(args) == 0 {
		_, err := io.WriteString(w, head)
		return err
	}
	if _, err := fmt.Fprintf(w, "(%s", head); err != nil {
		return err
	}
	for _, a := range args {
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := ToSMT2(w, a, offset); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ")")
	return err
}

func printBinder(w io.Writer, kw string, bindings []*Sym, body *Term, offset Offset2) error {
	if _, err := fmt.Fprintf(w, "(%s (", kw); err != nil {
		return err
	}
	for i, s := range bindings {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "(%s Bool)", s.Name()); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ") "); err != nil {
		return err
	}
	if err := ToSMT2(w, body, offset); err != nil {
		return err
	}
	_, err := io.WriteString(w, ")")
	return err
}

func printLet(w io.Writer, bindings []LetBinding, body *Term, offset Offset2) error {
	if _, err := io.WriteString(w, "(let ("); err != nil {
		return err
	}
	for i, lb := range bindings {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "(%s ", lb.Sym.Name()); err != nil {
			return err
		}
		if err := ToSMT2(w, lb.Term, offset); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ")"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ") "); err != nil {
		return err
	}
	if err := ToSMT2(w, body, offset); err != nil {
		return err
	}
	_, err := io.WriteString(w, ")")
	return err
}
