// Package supervisor is kino's central orchestrator (see SPEC_FULL.md §5
// and §4.4): it spawns one goroutine per enabled technique, wires each to
// the shared event bus, mirrors every fact workers report into the
// knowledge base, and fans corrections (new invariants, k-trueness,
// settled properties) back out to every worker. Grounded on
// internal/pruner's and internal/tig's own worker-loop shape, generalized
// one level up: those packages are workers; this package is the thing
// that starts and tears them down.
package supervisor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/AdrienChampion/kino/internal/config"
	"github.com/AdrienChampion/kino/internal/event"
	"github.com/AdrienChampion/kino/internal/inspect"
	"github.com/AdrienChampion/kino/internal/kbase"
	"github.com/AdrienChampion/kino/internal/pruner"
	"github.com/AdrienChampion/kino/internal/solver"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/techniques/bmc"
	"github.com/AdrienChampion/kino/internal/techniques/kind"
	"github.com/AdrienChampion/kino/internal/term"
	"github.com/AdrienChampion/kino/internal/tig"
)

// DownCapacity is the per-worker MsgDown channel capacity. spec.md §5
// requires at least event.MinChannelCapacity; kino gives every worker
// some headroom so a burst of invariants doesn't stall the broadcaster.
const DownCapacity = 64

// UpCapacity is the shared MsgUp channel capacity.
const UpCapacity = 64

// worker bundles one running technique's teardown handle: the MsgDown
// channel the supervisor broadcasts on and closes at shutdown.
type worker struct {
	tek  technique.Technique
	down chan event.MsgDown
}

// Supervisor owns the system under check, the shared factory and
// knowledge base, every running worker's down channel, and the shared up
// channel every worker reports to.
type Supervisor struct {
	system  *sys.System
	factory *term.Factory
	store   *kbase.Store
	cfg     config.Config

	up      chan event.MsgUp
	workers []worker
	wg      sync.WaitGroup

	mu    sync.Mutex
	props map[*term.Sym]*sys.Property

	inspectSrv *inspect.Server

	// solverFactory builds one solver per worker; overridable so tests can
	// wire in a solver.FakeSolver instead of spawning a real process.
	solverFactory func() (solver.Solver, error)
}

// New builds a Supervisor over system, with its own fresh knowledge base.
// cfg selects the solver binary, unrolling bound, and optional inspection
// address.
func New(system *sys.System, factory *term.Factory, props []*sys.Property, cfg config.Config) (*Supervisor, error) {
	store, err := kbase.Open()
	if err != nil {
		return nil, fmt.Errorf("supervisor: %w", err)
	}
	propIndex := make(map[*term.Sym]*sys.Property, len(props))
	for _, p := range props {
		propIndex[p.Sym()] = p
		if err := store.UpsertProperty(p.Sym(), "open"); err != nil {
			store.Close()
			return nil, fmt.Errorf("supervisor: %w", err)
		}
	}
	sup := &Supervisor{
		system:  system,
		factory: factory,
		store:   store,
		cfg:     cfg,
		up:      make(chan event.MsgUp, UpCapacity),
		props:   propIndex,
	}
	sup.solverFactory = sup.newProcessSolver
	return sup, nil
}

// newProcessSolver builds one real solver process, honoring cfg.SmtCmd's
// override. It is Supervisor's default solverFactory.
func (s *Supervisor) newProcessSolver() (solver.Solver, error) {
	cmd := s.cfg.SmtCmd
	if cmd == "" {
		cmd = "z3"
	}
	return solver.NewProcessSolver(cmd, "-in")
}

// SetSolverFactory overrides how Start builds each worker's solver, e.g.
// to wire in a solver.FakeSolver for tests instead of spawning a real
// process. Call before Start.
func (s *Supervisor) SetSolverFactory(f func() (solver.Solver, error)) { s.solverFactory = f }

// spawn wires up a fresh Event for tek, starts run on its own goroutine,
// and registers its down channel for broadcast/teardown.
func (s *Supervisor) spawn(tek technique.Technique, props []*sys.Property, run func(ev *event.Event) error, slvs ...solver.Solver) {
	down := make(chan event.MsgDown, DownCapacity)
	ev := event.NewEvent(s.up, down, tek, s.factory, props)
	s.workers = append(s.workers, worker{tek: tek, down: down})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			for _, slv := range slvs {
				if err := slv.Close(); err != nil {
					log.Printf("[%s] closing solver: %v", tek.Tag(), err)
				}
			}
		}()
		if err := run(ev); err != nil {
			s.up <- event.MsgUpError{Tek: tek, Text: err.Error()}
		}
	}()
}

// openProps is the current snapshot of still-open properties, in a
// stable order, for seeding a freshly spawned worker.
func (s *Supervisor) openProps() []*sys.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*sys.Property, 0, len(s.props))
	for _, p := range s.props {
		if p.Status() == sys.PropOpen {
			out = append(out, p)
		}
	}
	return out
}

// candidatesFromStateVars builds tig's starting candidate set directly
// from the system's declared state variables, grouped by domain, since
// kino has no separate template/term-mining front end (out of scope per
// spec.md §1: "arithmetic beyond the theories the backend solver
// supports").
func candidatesFromStateVars(system *sys.System, f *term.Factory) tig.Candidates {
	var c tig.Candidates
	for _, sv := range system.StateVars() {
		t := f.SVar(sv.Sym, term.Curr)
		switch sv.Domain {
		case term.CstBool:
			c.Bool = append(c.Bool, t)
		case term.CstInt:
			c.Int = append(c.Int, t)
		case term.CstRat:
			c.Rat = append(c.Rat, t)
		}
	}
	return c
}

// Start spawns every enabled technique's worker and, if configured, the
// inspection service, then returns immediately; call Wait to block until
// every worker has finished.
func (s *Supervisor) Start() error {
	props := s.openProps()
	maxK := term.Offset(s.cfg.Max)
	idle := time.Duration(s.cfg.PrunerIdle) * time.Millisecond
	if idle <= 0 {
		idle = config.DefaultPrunerIdle * time.Millisecond
	}

	bmcSolver, err := s.solverFactory()
	if err != nil {
		return err
	}
	s.spawn(technique.Bmc, props, func(ev *event.Event) error {
		return bmc.Run(s.system, bmcSolver, ev, props, maxK, idle)
	}, bmcSolver)

	indSolver, err := s.solverFactory()
	if err != nil {
		return err
	}
	s.spawn(technique.Ind, props, func(ev *event.Event) error {
		return kind.Run(s.system, indSolver, ev, props, maxK, idle)
	}, indSolver)

	prunerSolver, err := s.solverFactory()
	if err != nil {
		return err
	}
	s.spawn(technique.Pruner, props, func(ev *event.Event) error {
		return pruner.Run(s.system, prunerSolver, ev, idle)
	}, prunerSolver)

	candidates := candidatesFromStateVars(s.system, s.factory)
	tigBase, err := s.solverFactory()
	if err != nil {
		return err
	}
	tigStep, err := s.solverFactory()
	if err != nil {
		return err
	}
	s.spawn(technique.Tig, props, func(ev *event.Event) error {
		return tig.Run(s.system, tigBase, tigStep, ev, candidates, maxK, s.cfg.StepRoll, idle)
	}, tigBase, tigStep)

	if s.cfg.Inspect.Addr != "" {
		srv, err := inspect.Listen(s.cfg.Inspect.Addr, inspect.NewService(s.store))
		if err != nil {
			return err
		}
		s.inspectSrv = srv
		go func() {
			if err := srv.Serve(); err != nil {
				log.Printf("supervisor: inspection service stopped: %v", err)
			}
		}()
	}

	go s.drive()
	return nil
}

// drive is the supervisor's own message loop: it reads every MsgUp until
// the channel is closed (which happens once every worker has returned),
// mirroring facts into the knowledge base and broadcasting corrections.
func (s *Supervisor) drive() {
	go func() {
		s.wg.Wait()
		close(s.up)
	}()

	for msg := range s.up {
		switch m := msg.(type) {
		case event.MsgUpKTrue:
			for _, sym := range m.Syms {
				if err := s.store.SetKTrue(sym, m.Tek, m.Offset); err != nil {
					log.Printf("supervisor: set k-true: %v", err)
				}
			}
			s.broadcast(event.MsgDownKTrue{Syms: m.Syms, Offset: m.Offset})

		case event.MsgUpProved:
			s.settle(m.Syms, "proved")
			s.broadcast(event.MsgDownForget{Syms: m.Syms})

		case event.MsgUpDisproved:
			s.settle(m.Syms, "disproved")
			s.broadcast(event.MsgDownForget{Syms: m.Syms})

		case event.MsgUpInvariants:
			for _, inv := range m.Invs {
				if err := s.store.AddInvariant(m.Sys, inv); err != nil {
					log.Printf("supervisor: add invariant: %v", err)
				}
			}
			s.broadcast(event.MsgDownInvariants{SysSym: m.Sys, Invs: m.Invs})

		case event.MsgUpPrunedInvariants:
			survivors := m.Survivors.Slice()
			for _, inv := range survivors {
				if err := s.store.AddInvariant(m.Sys, inv); err != nil {
					log.Printf("supervisor: add invariant: %v", err)
				}
			}
			if len(survivors) > 0 {
				s.broadcast(event.MsgDownInvariants{SysSym: m.Sys, Invs: survivors})
			}

		case event.MsgUpDone:
			log.Printf("supervisor: %s worker done (%s)", m.Tek.Tag(), m.Info)

		case event.MsgUpBla:
			log.Printf("[%s] %s", m.Tek.Tag(), m.Text)

		case event.MsgUpError:
			log.Printf("[%s] error: %s", m.Tek.Tag(), m.Text)

		case event.MsgUpUnimplemented:
			log.Printf("[%s] unimplemented request", m.Tek.Tag())
		}
	}
}

// settle records a property's final status in both the in-memory index
// and the knowledge base.
func (s *Supervisor) settle(syms []*term.Sym, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range syms {
		if p, ok := s.props[sym]; ok {
			if status == "proved" {
				p.SetStatus(sys.PropProved)
			} else {
				p.SetStatus(sys.PropDisproved)
			}
		}
		if err := s.store.UpsertProperty(sym, status); err != nil {
			log.Printf("supervisor: upsert property: %v", err)
		}
	}
}

// broadcast sends msg to every worker's down channel. The send blocks if
// a channel is full rather than dropping the message: spec.md §5 treats
// loss of a message as a hard error, never an acceptable tradeoff for
// latency.
func (s *Supervisor) broadcast(msg event.MsgDown) {
	for _, w := range s.workers {
		w.down <- msg
	}
}

// Wait blocks until every worker has returned.
func (s *Supervisor) Wait() { s.wg.Wait() }

// Stop closes every worker's down channel, which each worker observes as
// recv() == false on its next poll and exits. Matches spec.md §8's
// "Supervisor teardown" scenario. Safe to call once Start has returned;
// calling it twice panics, matching close-of-closed-channel semantics
// elsewhere in kino.
func (s *Supervisor) Stop() {
	for _, w := range s.workers {
		close(w.down)
	}
	if s.inspectSrv != nil {
		s.inspectSrv.Stop()
	}
}

// Close releases the knowledge base. Call after Wait returns.
func (s *Supervisor) Close() error { return s.store.Close() }

// OpenProperties reports which properties are still unsettled.
func (s *Supervisor) OpenProperties() ([]string, error) { return s.store.OpenProperties() }

// PropertyStatus reports a property's recorded status ("open", "proved",
// or "disproved"), or ok == false if it is not one of this supervisor's
// properties.
func (s *Supervisor) PropertyStatus(sym *term.Sym) (string, bool, error) {
	return s.store.PropertyStatus(sym)
}
