// Package runner executes external programs (container engine, network
// manager, link tools) and reports their exit status without treating an
// expected non-zero exit as a failure unless the caller asks for it.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
)

// Command describes a single external invocation.
type Command struct {
	Name string
	Args []string
	// Check turns a non-zero exit into an *ExternalCommandError.
	Check bool
	// Stream forwards stdout/stderr to the terminal instead of only capturing them.
	// Stderr is still captured so failures can be reported.
	Stream bool
	Stdin  io.Reader
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the observed outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ExternalCommandError is returned when a checked command exits non-zero.
type ExternalCommandError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExternalCommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", strings.TrimSpace(e.Command+" "+strings.Join(e.Args, " ")), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Runner is the boundary to the host's external programs.
type Runner interface {
	// Run spawns the command and waits for it.
	Run(ctx context.Context, cmd Command) (Result, error)
	// LookPath resolves name against PATH.
	LookPath(name string) (string, error)
	// Replace hands the terminal over to name. On success it does not return
	// when process image replacement is available.
	Replace(name string, args ...string) error
}

// NewCheckedError builds the error reported for a checked command.
func NewCheckedError(cmd Command, result Result) *ExternalCommandError {
	return &ExternalCommandError{
		Command:  cmd.Name,
		Args:     append([]string(nil), cmd.Args...),
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
}

// Exec runs commands on the local host.
type Exec struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = &Exec{}

// execve is swapped in tests so process replacement can be observed.
var execve = unix.Exec

func (e *Exec) logger() *slog.Logger {
	if e == nil {
		return slog.Default()
	}
	return logging.Ensure(e.Logger)
}

func (e *Exec) stdout() io.Writer {
	if e != nil && e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Exec) stderr() io.Writer {
	if e != nil && e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Exec) stdin() io.Reader {
	if e != nil && e.Stdin != nil {
		return e.Stdin
	}
	return os.Stdin
}

func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Result{}, errors.New("command name is required")
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var stdout, stderr bytes.Buffer
	if c.Stream {
		cmd.Stdout = e.stdout()
		cmd.Stderr = io.MultiWriter(e.stderr(), &stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}

	e.logger().Debug("running command", "command", c.String())
	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			return result, fmt.Errorf("run %s: %w", c.Name, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	e.logger().Debug("command finished", "command", c.Name, "exit_code", result.ExitCode)

	if c.Check && result.ExitCode != 0 {
		return result, NewCheckedError(c, result)
	}
	return result, nil
}

func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Replace replaces the current process image with name. When execve is not
// permitted it falls back to a foreground child sharing the standard streams,
// and the caller is expected to exit once Replace returns.
func (e *Exec) Replace(name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found: %w", name, err)
	}
	argv := append([]string{name}, args...)
	execErr := execve(path, argv, os.Environ())
	e.logger().Debug("process replacement unavailable, running in foreground", "command", name, "error", execErr)

	cmd := exec.Command(path, args...)
	cmd.Stdin = e.stdin()
	cmd.Stdout = e.stdout()
	cmd.Stderr = e.stderr()
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExternalCommandError{Command: name, Args: args, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
