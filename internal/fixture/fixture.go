// Package fixture loads kino's golden end-to-end scenarios (component
// A5, spec.md §8's six end-to-end scenarios) from txtar archives under
// testdata/, so adding a scenario is adding a file rather than a Go
// literal. Grounded on golang.org/x/tools/txtar, already a dependency of
// the example pack's tooling-adjacent repos for exactly this "several
// named text sections in one file" shape.
package fixture

import (
	"embed"
	"fmt"
	"strings"

	"golang.org/x/tools/txtar"
)

//go:embed testdata/*.txtar
var testdataFS embed.FS

// Scenario is one parsed end-to-end fixture: a human-readable
// description plus the ordered list of expectations a driver test
// asserts against the message sequence a real run produces. Building and
// driving an actual System from the scenario's prose is out of scope —
// spec.md §1 puts system-authoring out of scope — so Expect is
// documentation-grade, cross-checked by hand-written driver tests
// elsewhere (internal/supervisor, internal/tig, internal/pruner) rather
// than interpreted by this package.
type Scenario struct {
	Name        string
	Description string
	Expect      []string
}

// Load parses one scenario from a txtar file under testdata/.
func Load(name string) (*Scenario, error) {
	data, err := testdataFS.ReadFile("testdata/" + name + ".txtar")
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	ar := txtar.Parse(data)
	s := &Scenario{
		Name:        name,
		Description: strings.TrimSpace(string(ar.Comment)),
	}
	for _, f := range ar.Files {
		if f.Name != "expect" {
			continue
		}
		for _, line := range strings.Split(string(f.Data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			s.Expect = append(s.Expect, line)
		}
	}
	if s.Description == "" {
		return nil, fmt.Errorf("fixture: %s: missing description (txtar comment)", name)
	}
	if len(s.Expect) == 0 {
		return nil, fmt.Errorf("fixture: %s: missing expect section", name)
	}
	return s, nil
}

// Names enumerates every scenario spec.md §8 names, in the order they
// appear there.
func Names() []string {
	return []string{
		"trivial_property",
		"refutable_property",
		"invgen_discovery",
		"pruner",
		"graph_split",
		"supervisor_teardown",
	}
}

// LoadAll loads every named scenario, failing fast on the first one that
// does not parse.
func LoadAll() ([]*Scenario, error) {
	names := Names()
	out := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
