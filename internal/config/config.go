// Package config loads kino's run configuration: an optional YAML file
// (gopkg.in/yaml.v3) overridden by CLI flags, matching spec.md §6's
// enumerated configuration surface plus the inspection-service address
// SPEC_FULL.md adds.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Inspect configures the optional read-only gRPC introspection service
// (SPEC_FULL.md A4). An empty Addr disables it.
type Inspect struct {
	Addr string `yaml:"addr"`
}

// Config is kino's run configuration: spec.md §6's enumerated
// configuration effects, plus the ambient/domain additions SPEC_FULL.md
// §A1 calls for.
type Config struct {
	// SmtCmd overrides the solver binary; empty means the default on PATH.
	SmtCmd string `yaml:"smt_cmd"`
	// SmtLog, if non-empty, is a directory to dump per-worker SMT
	// transcripts into.
	SmtLog string `yaml:"smt_log"`
	// GraphLog, if non-empty, is a directory tig emits one .dot file per
	// (k, inner iteration) into.
	GraphLog string `yaml:"graph_log"`
	// Max is the maximum unrolling depth; 0 means unbounded.
	Max uint16 `yaml:"max"`
	// StepRoll selects whether the step checker is unrolled alongside base.
	StepRoll bool `yaml:"step_roll"`
	// PrunerIdle is how long the pruner sleeps between drains when it has
	// nothing queued. Defaults to 73ms per spec.md §9's Open Question.
	PrunerIdle Duration `yaml:"pruner_idle"`

	Inspect Inspect `yaml:"inspect"`
}

// DefaultPrunerIdle is the default pruner polling interval, per spec.md §9.
const DefaultPrunerIdle = 73

// Duration is a millisecond count; a distinct type so YAML keeps it a
// plain integer rather than requiring a duration-string parser.
type Duration int

// Default builds a Config with every field at its documented default.
func Default() Config {
	return Config{PrunerIdle: DefaultPrunerIdle}
}

// Load reads a YAML config file at path, starting from Default(). A
// missing path is not an error: the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RegisterFlags binds cfg's fields to fs, so CLI flags override whatever
// the YAML file (or the defaults) set. Call after Load.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&cfg.SmtCmd, "smt-cmd", cfg.SmtCmd, "override the solver binary")
	fs.StringVar(&cfg.SmtLog, "smt-log", cfg.SmtLog, "directory to dump SMT transcripts into")
	fs.StringVar(&cfg.GraphLog, "graph-log", cfg.GraphLog, "directory to dump tig .dot graphs into")
	fs.Func("max", "maximum unrolling depth (0 = unbounded)", func(s string) error {
		v, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return fmt.Errorf("max: %w", err)
		}
		cfg.Max = uint16(v)
		return nil
	})
	fs.BoolVar(&cfg.StepRoll, "step-roll", cfg.StepRoll, "unroll the step checker alongside base")
	fs.Func("pruner-idle", "pruner polling interval in milliseconds", func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("pruner-idle: %w", err)
		}
		cfg.PrunerIdle = Duration(v)
		return nil
	})
	fs.StringVar(&cfg.Inspect.Addr, "inspect-addr", cfg.Inspect.Addr, "address for the read-only inspection gRPC service (empty disables it)")
}
