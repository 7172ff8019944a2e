package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tmichett/FedoraRemixPXE/internal/launcher"
	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/setup"
)

const defaultLogLevel = "info"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			os.Exit(130)
		}
		logger.Error(err.Error())
		os.Exit(1)
	}
}

type rootOptions struct {
	status     bool
	stop       bool
	logs       bool
	shell      bool
	probe      bool
	configPath string
	logLevel   string
	logFormat  string
}

// newRootCommand builds the CLI. logger is reconfigured in place once the
// logging flags are parsed.
func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	setup.SetLogger(logger)

	opts := rootOptions{logLevel: defaultLogLevel}

	root := &cobra.Command{
		Use:   "run-pxe-server",
		Short: "Configure and launch the containerized Fedora Remix PXE server",
		Long: "Without flags, run-pxe-server asks for the interface, server IP and boot\n" +
			"image source, then starts the PXE server container and extracts the boot files.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.Flags()
	flags.BoolVar(&opts.status, "status", false, "Show PXE server status")
	flags.BoolVar(&opts.stop, "stop", false, "Stop the PXE server")
	flags.BoolVar(&opts.logs, "logs", false, "Follow the container logs")
	flags.BoolVar(&opts.shell, "shell", false, "Open a shell in the running container")
	flags.BoolVar(&opts.probe, "probe", false, "With --status, fetch the BIOS boot file over TFTP")
	root.MarkFlagsMutuallyExclusive("status", "stop", "logs", "shell")

	root.PersistentFlags().StringVar(&opts.configPath, "config", setup.DefaultSettingsPath, "Launcher settings file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log output format (text, json)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(opts.logLevel)
		if err != nil {
			return err
		}
		mode, err := logging.ParseMode(opts.logFormat)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		if mode != logging.ModeCLI {
			*logger = *logging.New(mode, os.Stderr, levelVar)
			slog.SetDefault(logger)
			setup.SetLogger(logger)
		}
		return nil
	}

	root.RunE = func(cmd *cobra.Command, args []string) error {
		if opts.probe && !opts.status {
			return errors.New("--probe requires --status")
		}
		return run(cmd.Context(), logger, opts)
	}
	return root
}

func run(ctx context.Context, logger *slog.Logger, opts rootOptions) error {
	settings, err := setup.LoadSettings(opts.configPath)
	if err != nil {
		return err
	}
	layout, err := settings.Layout()
	if err != nil {
		return err
	}
	logger.Debug("settings loaded", "config", opts.configPath, "base_dir", layout.BaseDir, "image", settings.Image)

	l := launcher.New(settings, layout, launcher.Options{
		Logger:        logger,
		StdinTerminal: term.IsTerminal(int(os.Stdin.Fd())),
	})
	if err := l.CheckEngine(); err != nil {
		return err
	}

	switch {
	case opts.status:
		return l.ShowStatus(ctx, opts.probe)
	case opts.stop:
		if err := setup.RequirePrivilege("Stopping the PXE server"); err != nil {
			return err
		}
		return l.Stop(ctx)
	case opts.logs:
		return l.Logs(ctx)
	case opts.shell:
		return l.Shell(ctx)
	default:
		if err := setup.RequirePrivilege("Interactive setup"); err != nil {
			return err
		}
		if err := l.Interactive(ctx); err != nil {
			return fmt.Errorf("interactive setup: %w", err)
		}
		return nil
	}
}
