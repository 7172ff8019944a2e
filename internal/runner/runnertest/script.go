// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/tmichett/FedoraRemixPXE/internal/runner"
)

// Step is one expected invocation and the response handed back for it.
type Step struct {
	// Expect is the full command line (name followed by args) joined by spaces.
	Expect string
	Result runner.Result
	Err    error
}

// Ok answers an expected command with exit status zero and stdout.
func Ok(expect, stdout string) Step {
	return Step{Expect: expect, Result: runner.Result{Stdout: stdout}}
}

// Fail answers an expected command with the given exit status and stderr.
func Fail(expect string, code int, stderr string) Step {
	return Step{Expect: expect, Result: runner.Result{ExitCode: code, Stderr: stderr}}
}

// Script replays Steps in order and fails on any unexpected invocation.
type Script struct {
	mu       sync.Mutex
	steps    []Step
	index    int
	missing  map[string]bool
	Calls    []runner.Command
	Replaced [][]string
	// ReplaceErr is returned from Replace.
	ReplaceErr error
}

var _ runner.Runner = &Script{}

// NewScript returns a Script that expects steps in order.
func NewScript(steps ...Step) *Script {
	return &Script{steps: steps, missing: map[string]bool{}}
}

// Add appends steps to the script.
func (s *Script) Add(steps ...Step) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, steps...)
	return s
}

// Missing marks binaries that LookPath must not find.
func (s *Script) Missing(names ...string) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.missing[name] = true
	}
	return s
}

func (s *Script) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, cmd)
	got := strings.TrimSpace(cmd.Name + " " + strings.Join(cmd.Args, " "))
	if s.index >= len(s.steps) {
		return runner.Result{}, fmt.Errorf("unexpected command %q", got)
	}
	step := s.steps[s.index]
	s.index++
	if step.Expect != got {
		return runner.Result{}, fmt.Errorf("unexpected command %q, want %q", got, step.Expect)
	}
	if step.Err != nil {
		return step.Result, step.Err
	}
	if cmd.Check && step.Result.ExitCode != 0 {
		return step.Result, runner.NewCheckedError(cmd, step.Result)
	}
	return step.Result, nil
}

func (s *Script) LookPath(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

func (s *Script) Replace(name string, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Replaced = append(s.Replaced, append([]string{name}, args...))
	return s.ReplaceErr
}

// Remaining reports the number of steps not yet consumed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps) - s.index
}

// AssertDone fails the test when expected steps were not consumed.
func (s *Script) AssertDone(t testing.TB) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != len(s.steps) {
		t.Fatalf("%d scripted commands not run, next %q", len(s.steps)-s.index, s.steps[s.index].Expect)
	}
}
