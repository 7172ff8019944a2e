package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/runner"
	"github.com/tmichett/FedoraRemixPXE/internal/source"
)

const startLogTail = 20

// StartError reports a container that could not be started or exited
// immediately after start.
type StartError struct {
	Name   string
	State  Status
	Stderr string
	Err    error
}

func (e *StartError) Error() string {
	msg := fmt.Sprintf("container %s failed to start", e.Name)
	if e.State != "" {
		msg += fmt.Sprintf(" (status %s)", e.State)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// ReadinessError reports a container that did not answer the readiness probe
// in time.
type ReadinessError struct {
	Name   string
	Waited time.Duration
	Err    error
}

func (e *ReadinessError) Error() string {
	msg := fmt.Sprintf("container %s not ready after %s", e.Name, e.Waited)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadinessError) Unwrap() error {
	return e.Err
}

// Manager owns the lifecycle of the PXE server container. Every transition
// removes the existing container and creates a new one, since the engine
// cannot change mounts or privileges of an existing container.
type Manager struct {
	Engine *Engine
	Logger *slog.Logger
}

func (m *Manager) logger() *slog.Logger {
	return logging.Ensure(m.Logger).With("component", "container")
}

// State reports the container's current state.
func (m *Manager) State(ctx context.Context, h Handle) (State, error) {
	return m.Engine.Inspect(ctx, h.Name)
}

// Teardown stops and removes the container if it exists.
func (m *Manager) Teardown(ctx context.Context, h Handle) error {
	state, err := m.State(ctx, h)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", h.Name, err)
	}
	if !state.Exists() {
		return nil
	}
	if state.Running() {
		if err := m.Engine.Stop(ctx, h.Name); err != nil {
			m.logger().Warn("stop failed, removing anyway", "container", h.Name, "error", err)
		}
	}
	if err := m.Engine.Remove(ctx, h.Name); err != nil {
		return fmt.Errorf("remove %s: %w", h.Name, err)
	}
	m.logger().Debug("removed container", "container", h.Name, "status", state.Status, "phase", state.Phase)
	return nil
}

// StartServing recreates the container from the serving template.
func (m *Manager) StartServing(ctx context.Context, d Deployment) error {
	return m.start(ctx, d, d.ServingSpec())
}

// StartExtracting recreates the container from the extraction template with
// src mounted read-only at mountPath.
func (m *Manager) StartExtracting(ctx context.Context, d Deployment, src source.BootSource, mountPath string) error {
	if src.IsNone() {
		return errors.New("no boot source to mount")
	}
	return m.start(ctx, d, d.ExtractionSpec(src, mountPath))
}

func (m *Manager) start(ctx context.Context, d Deployment, spec RunSpec) error {
	logger := m.logger().With("container", d.Handle.Name, "phase", spec.Phase())
	if err := d.prepare(); err != nil {
		return err
	}
	if err := m.Teardown(ctx, d.Handle); err != nil {
		return err
	}

	id, err := m.Engine.Run(ctx, spec)
	if err != nil {
		startErr := &StartError{Name: d.Handle.Name, Err: err}
		var cmdErr *runner.ExternalCommandError
		if errors.As(err, &cmdErr) {
			startErr.Stderr = cmdErr.Stderr
		}
		return startErr
	}

	state, err := m.Engine.Inspect(ctx, d.Handle.Name)
	if err != nil {
		return fmt.Errorf("inspect %s after start: %w", d.Handle.Name, err)
	}
	if !state.Running() {
		logs, logErr := m.Engine.Logs(ctx, d.Handle.Name, startLogTail)
		if logErr != nil {
			logger.Debug("could not read container logs", "error", logErr)
		}
		return &StartError{Name: d.Handle.Name, State: state.Status, Stderr: logs}
	}
	logger.Debug("container started", "id", shortID(id))
	return nil
}

// WaitReady polls the container with a no-op exec until it answers or
// timeout elapses.
func (m *Manager) WaitReady(ctx context.Context, h Handle, timeout, interval time.Duration) error {
	start := time.Now()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		result, err := m.Engine.Exec(ctx, h.Name, "true")
		switch {
		case err != nil:
			lastErr = err
		case result.Success():
			m.logger().Debug("container ready", "container", h.Name, "waited", time.Since(start).Round(time.Millisecond))
			return nil
		default:
			lastErr = fmt.Errorf("exec exited with status %d", result.ExitCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return &ReadinessError{Name: h.Name, Waited: timeout, Err: lastErr}
		case <-ticker.C:
		}
	}
}

// Stop stops the container if it is running and reports whether it was.
func (m *Manager) Stop(ctx context.Context, h Handle) (bool, error) {
	state, err := m.State(ctx, h)
	if err != nil {
		return false, err
	}
	if !state.Running() {
		return false, nil
	}
	if err := m.Engine.Stop(ctx, h.Name); err != nil {
		return false, err
	}
	return true, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
