package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmichett/FedoraRemixPXE/internal/network"
	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
	"github.com/tmichett/FedoraRemixPXE/internal/runner"
	"github.com/tmichett/FedoraRemixPXE/internal/setup"
	"github.com/tmichett/FedoraRemixPXE/internal/source"
	"github.com/tmichett/FedoraRemixPXE/internal/status"
	"github.com/tmichett/FedoraRemixPXE/internal/ui"
)

// ErrNoInterfaces is returned when no wired interface can serve PXE.
var ErrNoInterfaces = errors.New("No suitable network interfaces found")

// Interactive asks for the server configuration and boot source, then
// configures the host, starts the server and extracts the boot files.
// Declining the summary returns nil without touching the host.
func (l *Launcher) Interactive(ctx context.Context) error {
	runID := l.newRunID()
	logger := l.Logger.With("run_id", runID)
	if !l.stdinTerminal {
		logger.Warn("stdin is not a terminal, answers are read from piped input")
	}

	ui.Banner(l.Out, l.Palette)

	if err := l.ensureImage(ctx); err != nil {
		return err
	}

	cfg, err := l.askServerConfig(ctx)
	if err != nil {
		return err
	}
	src, err := l.selectSource()
	if err != nil {
		return err
	}
	var profile *pxeconfig.BootProfile
	if !src.IsNone() {
		p, err := l.askProfile(src)
		if err != nil {
			return err
		}
		profile = &p
	}

	l.printSummary(cfg, profile)
	proceed, err := l.Prompt.Confirm("Proceed with this configuration?", true)
	if err != nil {
		return err
	}
	if !proceed {
		logger.Info("Cancelled")
		return nil
	}

	l.configureInterface(ctx, logger, cfg)

	if err := l.Layout.Ensure(); err != nil {
		return err
	}
	saved := runner.Settle("save configuration", pxeconfig.SaveServerConfig(l.Layout.EnvFile, cfg), runner.PolicyAbort)
	if saved.Fatal() {
		return saved.FatalError()
	}
	logger.Debug("configuration saved", "path", l.Layout.EnvFile)

	deployment := l.deployment(cfg, runID)
	logger.Info("Starting PXE server container...")
	started := runner.Settle("start container", l.Containers.StartServing(ctx, deployment), runner.PolicyAbort)
	if started.Fatal() {
		logger.Error("Failed to start container")
		return started.FatalError()
	}
	logger.Info("Container started successfully")

	if profile != nil {
		logger.Info(fmt.Sprintf("Extracting boot files from %s: %s", strings.ToUpper(string(profile.Source.Kind)), profile.Source.Path))
		report := l.Extractor.Run(ctx, deployment, *profile)
		extracted := runner.Settle("extract boot files", report.Err, runner.PolicyDegrade)
		if extracted.Degraded() {
			logger.Debug("extraction failed", "error", extracted.Err)
			logger.Warn("Boot file extraction failed, but server is running")
			logger.Warn("You can manually extract files or try again later")
		} else {
			logger.Info("Boot files extracted successfully", "profile", profile.Name, "elapsed", report.Elapsed.Round(time.Second))
		}
		if report.RestoreErr != nil {
			logger.Warn("Could not restore the PXE server container", "error", report.RestoreErr)
		}
	}

	report, err := l.Status.Collect(ctx, cfg, true, false)
	if err != nil {
		return err
	}
	status.Render(l.Out, report, l.Palette)
	return nil
}

func (l *Launcher) ensureImage(ctx context.Context) error {
	image := l.Handle.Image
	exists, err := l.Engine.ImageExists(ctx, image)
	if err != nil {
		return err
	}
	if exists {
		l.Logger.Info("Container image found: " + image)
		return nil
	}
	l.Logger.Info("Container image not found locally")
	l.Logger.Info("Pulling container image: " + image)
	pulled := runner.Settle("pull image", l.Engine.Pull(ctx, image), runner.PolicyAbort)
	if pulled.Fatal() {
		l.Logger.Error("Cannot proceed without container image")
		return pulled.FatalError()
	}
	return nil
}

func (l *Launcher) askServerConfig(ctx context.Context) (pxeconfig.ServerConfig, error) {
	ui.Section(l.Out, l.Palette, "PXE Server Configuration")

	ifaces, err := l.Interfaces.List(ctx)
	if err != nil {
		return pxeconfig.ServerConfig{}, err
	}
	if len(ifaces) == 0 {
		return pxeconfig.ServerConfig{}, ErrNoInterfaces
	}
	ui.InterfaceTable(l.Out, l.Palette, ifaces)
	idx, err := l.Prompt.Choose("Select interface number for DHCP/PXE services", len(ifaces), 1)
	if err != nil {
		return pxeconfig.ServerConfig{}, err
	}
	iface := ifaces[idx]

	defaultIP := pxeconfig.DefaultServerIP(iface.IPv4, l.Settings.DefaultServerIP)
	l.Prompt.Println()
	ui.Heading(l.Out, l.Palette, "PXE Server IP Address")
	l.Prompt.Println("  This IP will be assigned to the selected interface.")
	l.Prompt.Println("  Clients will connect to this IP for DHCP, TFTP, and HTTP.")
	for {
		ip, err := l.Prompt.Ask("  Enter PXE Server IP", defaultIP)
		if err != nil {
			return pxeconfig.ServerConfig{}, err
		}
		cfg, err := pxeconfig.DeriveServerConfig(iface.Name, ip)
		if err != nil {
			l.Prompt.Println("  Please enter a valid IPv4 address")
			continue
		}
		return cfg, nil
	}
}

// selectSource returns source.None() when extraction is skipped.
func (l *Launcher) selectSource() (source.BootSource, error) {
	for {
		ui.Section(l.Out, l.Palette, "Boot Image Source")
		l.Prompt.Println("Select the source of your Fedora Remix boot image:")
		l.Prompt.Println()
		l.Prompt.Printf("  %s Live USB Drive (mounted)\n", l.Palette.Green("1)"))
		l.Prompt.Printf("  %s ISO File\n", l.Palette.Green("2)"))
		l.Prompt.Printf("  %s Skip extraction (use existing boot files)\n", l.Palette.Green("3)"))
		l.Prompt.Println()

		var (
			src    source.BootSource
			chosen bool
			err    error
		)
	menu:
		for {
			var choice string
			choice, err = l.Prompt.Ask("Enter your choice", "1")
			if err != nil {
				return source.BootSource{}, err
			}
			switch choice {
			case "1":
				src, chosen, err = l.selectUSB()
				break menu
			case "2":
				src, chosen, err = l.selectISO()
				break menu
			case "3":
				return source.None(), nil
			default:
				l.Prompt.Println("Please enter 1, 2, or 3")
			}
		}
		if err != nil {
			return source.BootSource{}, err
		}
		if chosen {
			return src, nil
		}
	}
}

// selectUSB returns false when the user goes back to the menu.
func (l *Launcher) selectUSB() (source.BootSource, bool, error) {
	drives := l.Scanner.FindUSB()
	if len(drives) == 0 {
		l.Logger.Warn("No mounted USB drives with LiveOS found")
		l.Prompt.Println()
		l.Prompt.Println("Make sure your USB drive is mounted and contains:")
		l.Prompt.Println("  - " + source.LiveMarker)
		l.Prompt.Println("  - isolinux/vmlinuz (or vmlinuz0)")
		l.Prompt.Println("  - isolinux/initrd.img (or initrd0.img)")
		l.Prompt.Println()

		path, err := l.Prompt.Ask("Enter USB mount path manually (or press Enter to go back)", "")
		if err != nil || path == "" {
			return source.BootSource{}, false, err
		}
		path, err = setup.ExpandHome(path)
		if err != nil {
			return source.BootSource{}, false, err
		}
		src, err := source.ValidateUSB(path)
		if err != nil {
			l.Logger.Error(err.Error())
			return source.BootSource{}, false, nil
		}
		return src, true, nil
	}

	l.Prompt.Println()
	ui.Heading(l.Out, l.Palette, "Available USB Drives:")
	l.Prompt.Println()
	for i, drive := range drives {
		l.Prompt.Printf("  %s %s (%s)\n", l.Palette.Green(fmt.Sprintf("%d)", i+1)), drive.Label, drive.SizeGiB())
		l.Prompt.Printf("     Path: %s\n", drive.Path)
	}
	l.Prompt.Println()
	idx, err := l.Prompt.Choose("Select USB drive", len(drives), 1)
	if err != nil {
		return source.BootSource{}, false, err
	}
	return drives[idx], true, nil
}

func (l *Launcher) selectISO() (source.BootSource, bool, error) {
	l.Prompt.Println()
	ui.Heading(l.Out, l.Palette, "ISO File Selection")
	l.Prompt.Println("Enter the full path to your Fedora Remix ISO file.")
	l.Prompt.Println()
	for {
		path, err := l.Prompt.Ask("ISO path", "")
		if err != nil || path == "" {
			return source.BootSource{}, false, err
		}
		path, err = setup.ExpandHome(path)
		if err != nil {
			return source.BootSource{}, false, err
		}
		candidate, err := source.ValidateISO(path)
		if err != nil {
			l.Logger.Error(err.Error())
			continue
		}
		for _, warning := range candidate.Warnings {
			l.Logger.Warn(warning)
		}
		if candidate.NeedsConfirmation {
			ok, err := l.Prompt.Confirm("Continue anyway?", false)
			if err != nil {
				return source.BootSource{}, false, err
			}
			if !ok {
				continue
			}
		}
		return candidate.Source, true, nil
	}
}

func (l *Launcher) askProfile(src source.BootSource) (pxeconfig.BootProfile, error) {
	ui.Section(l.Out, l.Palette, "Boot Profile Configuration")

	ui.Heading(l.Out, l.Palette, "Profile Name")
	l.Prompt.Println("  A short name for this boot image (used in file paths).")
	name, err := l.Prompt.Ask("  Enter profile name", pxeconfig.DefaultProfileName(src.Label))
	if err != nil {
		return pxeconfig.BootProfile{}, err
	}

	l.Prompt.Println()
	ui.Heading(l.Out, l.Palette, "Boot Menu Label")
	l.Prompt.Println("  The text shown in the PXE boot menu for this option.")
	label, err := l.Prompt.Ask("  Enter menu label", l.Settings.DefaultMenuLabel)
	if err != nil {
		return pxeconfig.BootProfile{}, err
	}
	return pxeconfig.DeriveProfile(src, name, label, l.Settings.DefaultMenuLabel)
}

func (l *Launcher) printSummary(cfg pxeconfig.ServerConfig, profile *pxeconfig.BootProfile) {
	ui.Section(l.Out, l.Palette, "Configuration Summary")
	l.Prompt.Printf("  Network Interface:  %s\n", cfg.Interface)
	l.Prompt.Printf("  PXE Server IP:      %s\n", cfg.ServerIP)
	l.Prompt.Printf("  DHCP Range:         %s - %s\n", cfg.RangeStart, cfg.RangeEnd)
	l.Prompt.Println()
	if profile == nil {
		l.Prompt.Println("  Boot Source:        Using existing files")
		l.Prompt.Println()
		return
	}
	l.Prompt.Printf("  Boot Source:        %s - %s\n", strings.ToUpper(string(profile.Source.Kind)), profile.Source.Path)
	l.Prompt.Printf("  Profile Name:       %s\n", profile.Name)
	l.Prompt.Printf("  Menu Label:         %s\n", profile.MenuLabel)
	l.Prompt.Println()
}

// configureInterface assigns the server address through NetworkManager.
// Failures leave the run going with manual instructions.
func (l *Launcher) configureInterface(ctx context.Context, logger *slog.Logger, cfg pxeconfig.ServerConfig) {
	logger.Info(fmt.Sprintf("Configuring %s with IP %s...", cfg.Interface, cfg.ServerIP))
	err := l.NetworkManager.ConfigureStatic(ctx, cfg.Interface, cfg.ServerIP, cfg.PrefixLength())
	configured := runner.Settle("configure interface", err, runner.PolicyDegrade)
	if !configured.Degraded() {
		logger.Info(fmt.Sprintf("Network interface %s configured", cfg.Interface))
		return
	}
	if errors.Is(configured.Err, network.ErrManagerUnavailable) {
		logger.Warn("nmcli not found, skipping network configuration")
	} else {
		logger.Warn("Failed to configure network interface", "error", configured.Err)
	}
	logger.Warn(fmt.Sprintf("Please manually configure %s with IP %s", cfg.Interface, cfg.ServerIP))
}
