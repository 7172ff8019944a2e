// Package extract runs the boot-file extraction handshake with the PXE
// server container.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmichett/FedoraRemixPXE/internal/container"
	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
)

// Orchestrator restarts the container with the boot source mounted, waits
// for it, and runs the extraction entrypoint inside it.
type Orchestrator struct {
	Manager *container.Manager
	Logger  *slog.Logger

	Entrypoint   string
	MountPath    string
	ReadyTimeout time.Duration
	PollInterval time.Duration
	// RestoreServing recreates the serving container once extraction is
	// over, whatever its outcome.
	RestoreServing bool
}

// Report is the outcome of one extraction attempt.
type Report struct {
	Profile   pxeconfig.BootProfile
	Extracted bool
	// Err is the extraction failure, nil on success.
	Err error
	// Restored is set when the serving container was recreated afterwards.
	Restored   bool
	RestoreErr error
	Elapsed    time.Duration
}

// EntrypointArgs are the positional arguments of the extraction script.
func EntrypointArgs(mountPath string, profile pxeconfig.BootProfile, serverIP string) []string {
	return []string{mountPath, profile.Name, serverIP, profile.MenuLabel, string(profile.Source.Kind)}
}

// Run extracts profile's boot files into the deployment's volumes. Failures
// are reported in the Report; Run never aborts the caller.
func (o *Orchestrator) Run(ctx context.Context, d container.Deployment, profile pxeconfig.BootProfile) Report {
	logger := logging.Ensure(o.Logger).With("component", "extract", "profile", profile.Name)
	started := time.Now()
	report := Report{Profile: profile}

	report.Err = o.extract(ctx, logger, d, profile)
	report.Extracted = report.Err == nil
	if report.Err != nil {
		logger.Debug("extraction failed", "error", report.Err)
	}

	if o.RestoreServing {
		// restore even when ctx was cancelled mid-extraction
		restoreCtx := context.WithoutCancel(ctx)
		if err := o.Manager.StartServing(restoreCtx, d); err != nil {
			report.RestoreErr = fmt.Errorf("restore serving container: %w", err)
		} else {
			report.Restored = true
			logger.Debug("serving container restored")
		}
	}

	report.Elapsed = time.Since(started)
	return report
}

func (o *Orchestrator) extract(ctx context.Context, logger *slog.Logger, d container.Deployment, profile pxeconfig.BootProfile) error {
	if profile.Source.IsNone() {
		return errors.New("profile has no boot source")
	}
	if o.Entrypoint == "" || o.MountPath == "" {
		return errors.New("extraction entrypoint and mount path are required")
	}

	logger.Info("restarting container with source mounted", "source", profile.Source.Path, "kind", profile.Source.Kind)
	if err := o.Manager.StartExtracting(ctx, d, profile.Source, o.MountPath); err != nil {
		return fmt.Errorf("restart with source mounted: %w", err)
	}
	if err := o.Manager.WaitReady(ctx, d.Handle, o.ReadyTimeout, o.PollInterval); err != nil {
		return err
	}

	logger.Info("Running extraction (this may take several minutes for large images)...")
	args := EntrypointArgs(o.MountPath, profile, d.Config.ServerIP)
	if err := o.Manager.Engine.ExecStreaming(ctx, d.Handle.Name, append([]string{o.Entrypoint}, args...)...); err != nil {
		return fmt.Errorf("extraction script: %w", err)
	}
	return nil
}
