package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/runner"
)

// ErrManagerUnavailable is returned when nmcli is not installed.
var ErrManagerUnavailable = errors.New("nmcli not found")

// NetworkManager assigns static addresses through nmcli connection profiles.
type NetworkManager struct {
	Runner runner.Runner
	Logger *slog.Logger
}

// ConnectionName is the profile name owned by the launcher for iface.
func ConnectionName(iface string) string {
	return "pxe-" + iface
}

// ConfigureStatic replaces the launcher's profile for iface with one that
// assigns ip/prefix and activates it.
func (m *NetworkManager) ConfigureStatic(ctx context.Context, iface, ip string, prefix int) error {
	logger := logging.Ensure(m.Logger)
	if _, err := m.Runner.LookPath("nmcli"); err != nil {
		return fmt.Errorf("%w: %v", ErrManagerUnavailable, err)
	}

	name := ConnectionName(iface)
	result, err := m.Runner.Run(ctx, runner.Command{Name: "nmcli", Args: []string{"connection", "delete", name}})
	if err != nil {
		return fmt.Errorf("nmcli connection delete %s: %w", name, err)
	}
	if !result.Success() {
		logger.Debug("no previous connection profile", "connection", name)
	}

	add := runner.Command{
		Name: "nmcli",
		Args: []string{
			"connection", "add", "type", "ethernet",
			"con-name", name,
			"ifname", iface,
			"ipv4.addresses", fmt.Sprintf("%s/%d", ip, prefix),
			"ipv4.method", "manual",
		},
		Check: true,
	}
	if _, err := m.Runner.Run(ctx, add); err != nil {
		return fmt.Errorf("create connection %s: %w", name, err)
	}
	if _, err := m.Runner.Run(ctx, runner.Command{Name: "nmcli", Args: []string{"connection", "up", name}, Check: true}); err != nil {
		return fmt.Errorf("activate connection %s: %w", name, err)
	}
	logger.Info("configured interface", "interface", iface, "address", fmt.Sprintf("%s/%d", ip, prefix), "connection", name)
	return nil
}
