// Package container drives the container engine CLI and manages the
// lifecycle of the single PXE server container.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/runner"
)

// DefaultEngine is the engine binary used when Engine.Binary is empty.
const DefaultEngine = "podman"

const inspectFormat = `{{.State.Status}}|{{index .Config.Labels "pxe.phase"}}|{{.State.Pid}}`

// Engine wraps the subset of the podman CLI the launcher needs.
type Engine struct {
	Binary string
	Runner runner.Runner
	Logger *slog.Logger
}

func (e *Engine) binary() string {
	if e.Binary == "" {
		return DefaultEngine
	}
	return e.Binary
}

// Name is the engine binary invoked.
func (e *Engine) Name() string {
	return e.binary()
}

func (e *Engine) logger() *slog.Logger {
	return logging.Ensure(e.Logger)
}

func (e *Engine) command(args ...string) runner.Command {
	return runner.Command{Name: e.binary(), Args: args}
}

// Available reports whether the engine binary is on PATH.
func (e *Engine) Available() error {
	if _, err := e.Runner.LookPath(e.binary()); err != nil {
		return err
	}
	return nil
}

// Exists reports whether a container called name exists in any state.
func (e *Engine) Exists(ctx context.Context, name string) (bool, error) {
	result, err := e.Runner.Run(ctx, e.command("container", "exists", name))
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// Inspect reports the container's state. A missing container is reported
// as StatusAbsent, not as an error.
func (e *Engine) Inspect(ctx context.Context, name string) (State, error) {
	exists, err := e.Exists(ctx, name)
	if err != nil {
		return State{}, err
	}
	if !exists {
		return State{Status: StatusAbsent}, nil
	}

	cmd := e.command("inspect", "--format", inspectFormat, name)
	cmd.Check = true
	result, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		var cmdErr *runner.ExternalCommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "no such") {
			return State{Status: StatusAbsent}, nil
		}
		return State{}, err
	}
	return parseState(result.Stdout), nil
}

func parseState(out string) State {
	fields := strings.SplitN(strings.TrimSpace(out), "|", 3)
	state := State{Status: Status(strings.TrimSpace(fields[0]))}
	if len(fields) > 1 {
		phase := strings.TrimSpace(fields[1])
		if phase != "<no value>" {
			state.Phase = Phase(phase)
		}
	}
	if len(fields) > 2 {
		if pid, err := strconv.Atoi(strings.TrimSpace(fields[2])); err == nil {
			state.Pid = pid
		}
	}
	return state
}

// ImageExists reports whether image is present in local storage.
func (e *Engine) ImageExists(ctx context.Context, image string) (bool, error) {
	result, err := e.Runner.Run(ctx, e.command("image", "exists", image))
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// Pull fetches image, streaming progress to the terminal.
func (e *Engine) Pull(ctx context.Context, image string) error {
	cmd := e.command("pull", image)
	cmd.Check = true
	cmd.Stream = true
	if _, err := e.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("pull %s: %w", image, err)
	}
	return nil
}

// Run creates and starts a detached container and returns its ID.
func (e *Engine) Run(ctx context.Context, spec RunSpec) (string, error) {
	cmd := e.command(spec.Args()...)
	cmd.Check = true
	result, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Stop stops a running container.
func (e *Engine) Stop(ctx context.Context, name string) error {
	cmd := e.command("stop", name)
	cmd.Check = true
	_, err := e.Runner.Run(ctx, cmd)
	return err
}

// Remove deletes a stopped container.
func (e *Engine) Remove(ctx context.Context, name string) error {
	cmd := e.command("rm", name)
	cmd.Check = true
	_, err := e.Runner.Run(ctx, cmd)
	return err
}

// Exec runs args inside the container. A non-zero exit is reported through
// the result, not as an error.
func (e *Engine) Exec(ctx context.Context, name string, args ...string) (runner.Result, error) {
	return e.Runner.Run(ctx, e.command(append([]string{"exec", name}, args...)...))
}

// ExecStreaming runs args inside the container with output forwarded to the
// terminal and fails on a non-zero exit.
func (e *Engine) ExecStreaming(ctx context.Context, name string, args ...string) error {
	cmd := e.command(append([]string{"exec", name}, args...)...)
	cmd.Check = true
	cmd.Stream = true
	_, err := e.Runner.Run(ctx, cmd)
	return err
}

// Logs returns the last tail lines of the container's output.
func (e *Engine) Logs(ctx context.Context, name string, tail int) (string, error) {
	result, err := e.Runner.Run(ctx, e.command("logs", "--tail", strconv.Itoa(tail), name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout + result.Stderr), nil
}

// FollowLogs hands the terminal to "logs -f".
func (e *Engine) FollowLogs(name string) error {
	e.logger().Debug("following container logs", "container", name)
	return e.Runner.Replace(e.binary(), "logs", "-f", name)
}

// AttachShell hands the terminal to an interactive shell in the container.
// A TTY is only requested when the caller's stdin is a terminal.
func (e *Engine) AttachShell(name string, tty bool) error {
	flag := "-i"
	if tty {
		flag = "-it"
	}
	e.logger().Debug("attaching shell", "container", name, "tty", tty)
	return e.Runner.Replace(e.binary(), "exec", flag, name, "/bin/bash")
}
