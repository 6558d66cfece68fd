// Command kino drives the supervisor against a small built-in demo
// system, reporting property outcomes as they settle. Parsing a real
// system description from a file format is out of scope (spec.md §1): the
// demo system stands in for whatever front end eventually builds a
// sys.System and hands it to the supervisor.
//
// Grounded on _examples/funvibe-funxy/cmd/lsp/main.go's plain-log,
// no-framework main() shape, and that repo's own mattn/go-isatty usage
// (internal/evaluator/builtins_term.go) for colored status output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/AdrienChampion/kino/internal/config"
	"github.com/AdrienChampion/kino/internal/supervisor"
	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/term"
)

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	var cfgPath string
	newFlags := func(cfg *config.Config) *flag.FlagSet {
		fs := flag.NewFlagSet("kino", flag.ExitOnError)
		fs.StringVar(&cfgPath, "config", "", "path to a YAML configuration file")
		cfg.RegisterFlags(fs)
		return fs
	}

	// A first parse only finds -config; the second, over the loaded file,
	// lets the other flags override it.
	defaults := config.Default()
	if err := newFlags(&defaults).Parse(os.Args[1:]); err != nil {
		log.Fatalf("kino: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("kino: loading config: %v", err)
	}
	if err := newFlags(&cfg).Parse(os.Args[1:]); err != nil {
		log.Fatalf("kino: %v", err)
	}

	f := term.NewFactory()
	system, props := demoSystem(f)

	sup, err := supervisor.New(system, f, props, cfg)
	if err != nil {
		log.Fatalf("kino: %v", err)
	}
	if err := sup.Start(); err != nil {
		log.Fatalf("kino: %v", err)
	}

	settleDeadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(settleDeadline) {
		open, err := sup.OpenProperties()
		if err != nil {
			log.Fatalf("kino: %v", err)
		}
		if len(open) == 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	for _, p := range props {
		status, ok, err := sup.PropertyStatus(p.Sym())
		if err != nil {
			log.Fatalf("kino: %v", err)
		}
		if !ok {
			status = "open"
		}
		fmt.Println(statusLine(p.Sym().Name(), status))
	}

	sup.Stop()
	sup.Wait()
	if err := sup.Close(); err != nil {
		log.Fatalf("kino: %v", err)
	}
}

// demoSystem builds spec.md §8's "Trivial property" / "Refutable
// property" system: x' = x + 1, initial x = 0, with both properties
// checked side by side.
func demoSystem(f *term.Factory) (*sys.System, []*sys.Property) {
	x := f.Sym("x")
	svars := []sys.StateVar{{Sym: x, Domain: term.CstInt}}

	init := f.Op(term.OpEq, f.SVar(x, term.Curr), f.Int(0))
	trans := f.Op(term.OpEq, f.SVar(x, term.Next),
		f.Op(term.OpAdd, f.SVar(x, term.Curr), f.Int(1)))
	system := sys.NewSystem(f.Sym("counter"), svars, init, trans)

	nonNegative := term.NewSTerm(f.Op(term.OpLe, f.Int(0), f.SVar(x, term.Curr)))
	boundedBelowFive := term.NewSTerm(f.Op(term.OpLt, f.SVar(x, term.Curr), f.Int(5)))

	props := []*sys.Property{
		sys.NewProperty(f.Sym("P"), nonNegative),
		sys.NewProperty(f.Sym("Q"), boundedBelowFive),
	}
	return system, props
}

// statusLine formats a property's settled status for the terminal,
// colored when stdout is a real TTY.
func statusLine(name, status string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Sprintf("%s: %s", name, status)
	}
	color := "33" // yellow, the k-true / unknown default
	switch status {
	case "proved":
		color = "32"
	case "disproved":
		color = "31"
	}
	return fmt.Sprintf("\033[%sm%s: %s\033[0m", color, name, status)
}
