package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AdrienChampion/kino/internal/config"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
)

// mkTrivialSystem matches spec.md §8's "Trivial property" scenario: a
// single unconstrained int state variable, standing in for x' = x + 1
// when every check is scripted to always say UNSAT (no counterexample
// reachable, hypothesis always holds).
func mkTrivialSystem(f *term.Factory) (*sys.System, *sys.Property) {
	x := f.Sym("x")
	svars := []sys.StateVar{{Sym: x, Domain: term.CstInt}}
	system := sys.NewSystem(f.Sym("counter"), svars, f.Bool(true), f.Bool(true))
	body := term.NewSTerm(f.Op(term.OpLe, f.Int(0), f.SVar(x, term.Curr)))
	prop := sys.NewProperty(f.Sym("P"), body)
	return system, prop
}

func TestSupervisorProvesATrivialPropertyAndTearsDown(t *testing.T) {
	f := term.NewFactory()
	system, prop := mkTrivialSystem(f)

	sup, err := New(system, f, []*sys.Property{prop}, config.Config{
		Max:        2,
		PrunerIdle: 1,
	})
	require.NoError(t, err)
	sup.SetSolverFactory(func() (solver.Solver, error) {
		fake := solver.NewFakeSolver()
		fake.CheckSatFunc = func(actlits []string) (bool, error) { return false, nil }
		return fake, nil
	})

	require.NoError(t, sup.Start())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, ok, err := sup.store.PropertyStatus(prop.Sym())
		require.NoError(t, err)
		if ok && status == "proved" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	status, ok, err := sup.store.PropertyStatus(prop.Sym())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "proved", status)

	sup.Stop()
	done := make(chan struct{})
	go func() { sup.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("workers did not exit after Stop")
	}
	require.NoError(t, sup.Close())
}

func TestSupervisorTeardownStopsEveryWorkerEvenWithoutProgress(t *testing.T) {
	f := term.NewFactory()
	system, prop := mkTrivialSystem(f)

	sup, err := New(system, f, []*sys.Property{prop}, config.Config{
		Max:        0,
		PrunerIdle: 1,
	})
	require.NoError(t, err)
	sup.SetSolverFactory(func() (solver.Solver, error) {
		fake := solver.NewFakeSolver()
		fake.CheckSatFunc = func(actlits []string) (bool, error) { return true, nil }
		fake.ModelFunc = func(vars []string) (solver.RawModel, error) {
			model := make(solver.RawModel, len(vars))
			for _, v := range vars {
				model[v] = solver.RawValue{Kind: term.CstInt}
			}
			return model, nil
		}
		return fake, nil
	})

	require.NoError(t, sup.Start())
	time.Sleep(20 * time.Millisecond)
	sup.Stop()

	done := make(chan struct{})
	go func() { sup.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("workers did not exit within the polling interval after Stop")
	}
	require.NoError(t, sup.Close())
}
