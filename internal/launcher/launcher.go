// Package launcher wires the launcher's components together and implements
// its modes: interactive setup, status, stop, logs and shell.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/tmichett/FedoraRemixPXE/internal/container"
	"github.com/tmichett/FedoraRemixPXE/internal/extract"
	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/network"
	"github.com/tmichett/FedoraRemixPXE/internal/prompt"
	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
	"github.com/tmichett/FedoraRemixPXE/internal/runner"
	"github.com/tmichett/FedoraRemixPXE/internal/setup"
	"github.com/tmichett/FedoraRemixPXE/internal/source"
	"github.com/tmichett/FedoraRemixPXE/internal/status"
	"github.com/tmichett/FedoraRemixPXE/internal/ui"
)

// Options carries the process-level collaborators. Zero values select the
// real host.
type Options struct {
	Runner runner.Runner
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
	// StdinTerminal reports whether In is an interactive terminal.
	StdinTerminal bool
	// LinkSource overrides the interface source chosen by the settings.
	LinkSource network.LinkSource
	Palette    *ui.Palette
	NewRunID   func() string
}

// Launcher runs the PXE server launcher's modes.
type Launcher struct {
	Settings setup.Settings
	Layout   setup.Layout
	Handle   container.Handle

	Logger  *slog.Logger
	Out     io.Writer
	Palette ui.Palette
	Prompt  *prompt.Prompter
	Runner  runner.Runner

	Engine         *container.Engine
	Containers     *container.Manager
	Interfaces     *network.Discoverer
	NetworkManager *network.NetworkManager
	Scanner        *source.Scanner
	Extractor      *extract.Orchestrator
	Status         *status.Collector

	stdinTerminal bool
	newRunID      func() string
}

// New builds a Launcher for settings.
func New(settings setup.Settings, layout setup.Layout, opts Options) *Launcher {
	logger := logging.Ensure(opts.Logger)
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	run := opts.Runner
	if run == nil {
		run = &runner.Exec{Logger: logger.With("component", "runner")}
	}
	palette := ui.NewPalette(out)
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	links := opts.LinkSource
	if links == nil {
		if settings.InterfaceSource == setup.InterfaceSourceIP {
			links = network.IPCommandSource{Runner: run}
		} else {
			links = network.NetlinkSource{}
		}
	}

	handle := container.Handle{Name: settings.ContainerName, Image: settings.Image}
	engine := &container.Engine{Binary: settings.Engine, Runner: run, Logger: logger}
	manager := &container.Manager{Engine: engine, Logger: logger}

	return &Launcher{
		Settings: settings,
		Layout:   layout,
		Handle:   handle,
		Logger:   logger,
		Out:      out,
		Palette:  palette,
		Prompt:   prompt.New(in, out),
		Runner:   run,
		Engine:   engine,

		Containers:     manager,
		Interfaces:     &network.Discoverer{Source: links, Logger: logger},
		NetworkManager: &network.NetworkManager{Runner: run, Logger: logger},
		Scanner:        &source.Scanner{Roots: settings.USBRoots, Logger: logger},
		Extractor: &extract.Orchestrator{
			Manager:        manager,
			Logger:         logger,
			Entrypoint:     settings.Extraction.Entrypoint,
			MountPath:      settings.Extraction.MountPath,
			ReadyTimeout:   settings.Extraction.ReadyTimeout,
			PollInterval:   settings.Extraction.PollInterval,
			RestoreServing: settings.Extraction.RestoreServing,
		},
		Status: &status.Collector{
			Engine:   engine,
			Handle:   handle,
			TFTPRoot: layout.TFTPRoot,
			HTTPRoot: layout.HTTPRoot,
			Logger:   logger,
		},

		stdinTerminal: opts.StdinTerminal,
		newRunID:      newRunID,
	}
}

// CheckEngine fails with a *setup.PrerequisiteError when the container
// engine is not installed.
func (l *Launcher) CheckEngine() error {
	return setup.EnsureCommands(l.Runner.LookPath, l.Engine.Name())
}

func (l *Launcher) deployment(cfg pxeconfig.ServerConfig, runID string) container.Deployment {
	return container.Deployment{
		Handle: l.Handle,
		Config: cfg,
		Volumes: container.Volumes{
			TFTPRoot:   l.Layout.TFTPRoot,
			HTTPRoot:   l.Layout.HTTPRoot,
			DHCPConfig: l.Layout.DHCPConfig,
		},
		RunID: runID,
	}
}

// ShowStatus prints the saved configuration and the live server state.
func (l *Launcher) ShowStatus(ctx context.Context, probe bool) error {
	cfg, err := pxeconfig.LoadServerConfig(l.Layout.EnvFile)
	found := err == nil
	if err != nil && !errors.Is(err, pxeconfig.ErrConfigNotFound) {
		return err
	}

	if !found {
		state, err := l.Containers.State(ctx, l.Handle)
		if err != nil {
			return err
		}
		if !state.Running() {
			l.Logger.Warn("PXE server is not running. Use ./run-pxe-server to start.")
			return nil
		}
		l.Logger.Info("PXE server is running, but no saved configuration found")
	}

	report, err := l.Status.Collect(ctx, cfg, found, probe)
	if err != nil {
		return err
	}
	status.Render(l.Out, report, l.Palette)
	return nil
}

// Stop stops the server container if it is running.
func (l *Launcher) Stop(ctx context.Context) error {
	stopped, err := l.Containers.Stop(ctx, l.Handle)
	if err != nil {
		return fmt.Errorf("stop %s: %w", l.Handle.Name, err)
	}
	if stopped {
		l.Logger.Info("PXE server stopped")
	} else {
		l.Logger.Warn("PXE server is not running")
	}
	return nil
}

// Logs follows the container's logs, handing over the terminal.
func (l *Launcher) Logs(ctx context.Context) error {
	state, err := l.Containers.State(ctx, l.Handle)
	if err != nil {
		return err
	}
	if !state.Exists() {
		return errors.New("Container not found")
	}
	return l.Engine.FollowLogs(l.Handle.Name)
}

// Shell opens an interactive shell in the running container.
func (l *Launcher) Shell(ctx context.Context) error {
	state, err := l.Containers.State(ctx, l.Handle)
	if err != nil {
		return err
	}
	if !state.Running() {
		return errors.New("Container is not running")
	}
	return l.Engine.AttachShell(l.Handle.Name, l.stdinTerminal)
}
