package term

import "fmt"

// bumpErr is returned (never exported) when bump finds a KindSVar at Next:
// the precondition that the input is a one-state term does not hold.
type bumpErr struct{ at *Term }

func (e *bumpErr) Error() string {
	return fmt.Sprintf("bump: term %s already has a next-state variable", e.at)
}

// Bump shifts every SVar(s, Curr) in t to SVar(s, Next). Fails if t already
// contains an SVar(_, Next): the precondition is that t is a one-state
// term, and bumping twice is always an error (the second bump finds Next
// variables left by the first).
func (f *Factory) Bump(t *Term) (*Term, error) {
	memo := make(map[*Term]*Term)
	out, err := f.bump(t, memo)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Factory) bump(t *Term, memo map[*Term]*Term) (*Term, error) {
	if out, ok := memo[t]; ok {
		return out, nil
	}
	var out *Term
	var err error
	switch t.kind {
	case KindVar, KindConst:
		out = t
	case KindSVar:
		if t.which == Next {
			return nil, &bumpErr{at: t}
		}
		out = f.SVar(t.sym, Next)
	case KindApp:
		out, err = f.bumpArgs(t, t.args, memo, func(args []*Term) *Term {
			return f.App(t.sym, args...)
		})
	case KindOp:
		out, err = f.bumpArgs(t, t.args, memo, func(args []*Term) *Term {
			return f.Op(t.op, args...)
		})
	case KindForall:
		body, e := f.bump(t.body, memo)
		if e != nil {
			return nil, e
		}
		out = f.Forall(t.bindings, body)
	case KindExists:
		body, e := f.bump(t.body, memo)
		if e != nil {
			return nil, e
		}
		out = f.Exists(t.bindings, body)
	case KindLet:
		newBindings := make([]LetBinding, len(t.letBindings))
		for i, lb := range t.letBindings {
			bumped, e := f.bump(lb.Term, memo)
			if e != nil {
				return nil, e
			}
			newBindings[i] = LetBinding{Sym: lb.Sym, Term: bumped}
		}
		body, e := f.bump(t.body, memo)
		if e != nil {
			return nil, e
		}
		out = f.Let(newBindings, body)
	default:
		out = t
	}
	if err != nil {
		return nil, err
	}
	memo[t] = out
	return out, nil
}

func (f *Factory) bumpArgs(
	_ *Term, args []*Term, memo map[*Term]*Term, rebuild func([]*Term) *Term,
) (*Term, error) {
	newArgs := make([]*Term, len(args))
	changed := false
	for i, a := range args {
		bumped, err := f.bump(a, memo)
		if err != nil {
			return nil, err
		}
		newArgs[i] = bumped
		if bumped != a {
			changed = true
		}
	}
	if !changed {
		return rebuild(args), nil
	}
	return rebuild(newArgs), nil
}
