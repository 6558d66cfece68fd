package solver

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os/exec"
	"regexp"
	"strings"

	"github.com/AdrienChampion/kino/internal/kerr"
	"github.com/AdrienChampion/kino/internal/term"
)

// ProcessSolver drives a child process speaking SMT-LIB2 with
// print-success enabled, as described in spec.md §6: declare-const,
// assert, check-sat, check-sat-assuming, get-model, reset.
type ProcessSolver struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewProcessSolver starts cmdPath (args...) and wraps its stdin/stdout as
// an SMT-LIB2 session. Sends the usual preamble ((set-option
// :print-success true), logic selection is left to the caller via args).
func NewProcessSolver(cmdPath string, args ...string) (*ProcessSolver, error) {
	cmd := exec.Command(cmdPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, kerr.NewSolverErr("spawn", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, kerr.NewSolverErr("spawn", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, kerr.NewSolverErr("spawn", err)
	}
	s := &ProcessSolver{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}
	if err := s.writeExpectSuccess("(set-option :print-success true)"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ProcessSolver) writeLine(line string) error {
	if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
		return kerr.NewSolverErr("write", err)
	}
	return nil
}

// readSExpr reads one balanced parenthesized expression, or a single bare
// atom (e.g. "sat") if the first non-blank token is not "(".
func (s *ProcessSolver) readSExpr() (string, error) {
	var b strings.Builder
	depth := 0
	started := false
	for {
		r, _, err := s.stdout.ReadRune()
		if err != nil {
			return "", kerr.NewSolverErr("read", err)
		}
		if !started {
			if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
				continue
			}
			started = true
		}
		b.WriteRune(r)
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		if depth == 0 && started {
			// A bare atom (sat/unsat/unknown/success) ends at whitespace.
			peek, err := s.stdout.Peek(1)
			if err == nil && (peek[0] == '\n' || peek[0] == ' ') {
				return b.String(), nil
			}
		}
	}
}

func (s *ProcessSolver) writeExpectSuccess(line string) error {
	if err := s.writeLine(line); err != nil {
		return err
	}
	resp, err := s.readSExpr()
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp) != "success" {
		return kerr.NewSolverErr("command", fmt.Errorf("expected success, got %q for %q", resp, line))
	}
	return nil
}

func domainSort(d term.CstKind) string {
	switch d {
	case term.CstBool:
		return "Bool"
	case term.CstInt:
		return "Int"
	default:
		return "Real"
	}
}

// DeclareConst implements Solver.
func (s *ProcessSolver) DeclareConst(name string, domain term.CstKind) error {
	return s.writeExpectSuccess(fmt.Sprintf("(declare-const %s %s)", name, domainSort(domain)))
}

// Assert implements Solver.
func (s *ProcessSolver) Assert(smt2 string) error {
	return s.writeExpectSuccess(fmt.Sprintf("(assert %s)", smt2))
}

func (s *ProcessSolver) checkSat(cmd string) (bool, error) {
	if err := s.writeLine(cmd); err != nil {
		return false, err
	}
	resp, err := s.readSExpr()
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(resp) {
	case "sat":
		return true, nil
	case "unsat":
		return false, nil
	default:
		return false, kerr.NewSolverErr("check-sat", fmt.Errorf("unexpected answer %q", resp))
	}
}

// CheckSat implements Solver.
func (s *ProcessSolver) CheckSat() (bool, error) { return s.checkSat("(check-sat)") }

// CheckSatAssuming implements Solver.
func (s *ProcessSolver) CheckSatAssuming(actlits []string) (bool, error) {
	return s.checkSat(fmt.Sprintf("(check-sat-assuming (%s))", strings.Join(actlits, " ")))
}

var defineFunRe = regexp.MustCompile(`\(define-fun\s+([^\s()]+)\s*\(\)\s*(\w+)\s+([^()]+?)\)`)

// GetModel implements Solver.
func (s *ProcessSolver) GetModel(vars []string) (RawModel, error) {
	if err := s.writeLine("(get-model)"); err != nil {
		return nil, err
	}
	resp, err := s.readSExpr()
	if err != nil {
		return nil, err
	}
	model := make(RawModel, len(vars))
	for _, m := range defineFunRe.FindAllStringSubmatch(resp, -1) {
		name, sort, value := m[1], m[2], strings.TrimSpace(m[3])
		rv, err := parseRawValue(sort, value)
		if err != nil {
			return nil, err
		}
		model[name] = rv
	}
	return model, nil
}

func parseRawValue(sort, value string) (RawValue, error) {
	switch sort {
	case "Bool":
		return RawValue{Kind: term.CstBool, B: value == "true"}, nil
	case "Int":
		i, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return RawValue{}, kerr.NewSolverErr("get-model", fmt.Errorf("bad int literal %q", value))
		}
		return RawValue{Kind: term.CstInt, I: i}, nil
	default:
		r, ok := new(big.Rat).SetString(value)
		if !ok {
			return RawValue{}, kerr.NewSolverErr("get-model", fmt.Errorf("bad rational literal %q", value))
		}
		return RawValue{Kind: term.CstRat, R: r}, nil
	}
}

// Reset implements Solver.
func (s *ProcessSolver) Reset() error {
	return s.writeExpectSuccess("(reset)")
}

// Close implements Solver.
func (s *ProcessSolver) Close() error {
	_ = s.stdin.Close()
	return s.cmd.Wait()
}
