// Package status gathers and renders the state of a PXE server: saved
// configuration, container and service health, and the boot images on disk.
package status

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tmichett/FedoraRemixPXE/internal/container"
	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/network"
	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
)

// Service is a daemon expected inside the container.
type Service struct {
	Name    string
	Process string
}

// Services are probed in this order.
var Services = []Service{
	{Name: "DHCP", Process: "dhcpd"},
	{Name: "TFTP", Process: "in.tftpd"},
	{Name: "HTTP", Process: "httpd"},
}

// ServiceStatus is the probe result of one service.
type ServiceStatus struct {
	Service
	Up bool
}

// Squashfs is a live image served over HTTP for a profile.
type Squashfs struct {
	Profile string
	Size    int64
}

// Report is a snapshot of the server.
type Report struct {
	Engine        string
	ContainerName string
	Config        pxeconfig.ServerConfig
	ConfigFound   bool
	Container     container.State
	Services      []ServiceStatus
	// Kernels lists profiles with a kernel under the TFTP root.
	Kernels  []string
	Squashfs []Squashfs
	// HostNetwork and AddressAssigned are nil when they could not be checked.
	HostNetwork     *bool
	AddressAssigned *bool
	Probe           *ProbeResult
}

// Collector builds Reports.
type Collector struct {
	Engine   *container.Engine
	Handle   container.Handle
	TFTPRoot string
	HTTPRoot string
	Logger   *slog.Logger

	// ProbeTimeout bounds the TFTP probe. Zero means five seconds.
	ProbeTimeout time.Duration
	// hostNetwork and hasAddress are replaced in tests.
	hostNetwork func(pid int) (bool, error)
	hasAddress  func(iface, ip string) (bool, error)
}

func (c *Collector) logger() *slog.Logger {
	return logging.Ensure(c.Logger).With("component", "status")
}

// Collect builds a report. cfg is used when found is set; probe enables the
// TFTP read of the default boot file.
func (c *Collector) Collect(ctx context.Context, cfg pxeconfig.ServerConfig, found, probe bool) (Report, error) {
	report := Report{Engine: c.Engine.Name(), ContainerName: c.Handle.Name, Config: cfg, ConfigFound: found}

	state, err := c.Engine.Inspect(ctx, c.Handle.Name)
	if err != nil {
		return Report{}, err
	}
	report.Container = state

	for _, svc := range Services {
		up := false
		if state.Running() {
			up, err = c.processRunning(ctx, svc.Process)
			if err != nil {
				return Report{}, err
			}
		}
		report.Services = append(report.Services, ServiceStatus{Service: svc, Up: up})
	}

	report.Kernels, report.Squashfs = c.scanImages()

	if state.Running() && state.Pid > 0 {
		check := c.hostNetwork
		if check == nil {
			check = SharesHostNetwork
		}
		if shared, err := check(state.Pid); err != nil {
			c.logger().Debug("could not compare network namespaces", "pid", state.Pid, "error", err)
		} else {
			report.HostNetwork = &shared
		}
	}

	if found && cfg.Interface != "" && cfg.ServerIP != "" {
		check := c.hasAddress
		if check == nil {
			check = network.HasAddress
		}
		if assigned, err := check(cfg.Interface, cfg.ServerIP); err != nil {
			c.logger().Debug("could not read interface addresses", "interface", cfg.Interface, "error", err)
		} else {
			report.AddressAssigned = &assigned
		}
	}

	if probe && found && cfg.ServerIP != "" {
		timeout := c.ProbeTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		result := ProbeTFTP(cfg.ServerIP+":69", pxeconfig.ArchBIOS.BootFile, timeout)
		report.Probe = &result
	}
	return report, nil
}

func (c *Collector) processRunning(ctx context.Context, process string) (bool, error) {
	result, err := c.Engine.Exec(ctx, c.Handle.Name, "pgrep", process)
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

func (c *Collector) scanImages() ([]string, []Squashfs) {
	var kernels []string
	for _, dir := range subdirs(c.TFTPRoot) {
		if fileExists(filepath.Join(c.TFTPRoot, dir, "vmlinuz")) {
			kernels = append(kernels, dir)
		}
	}
	var images []Squashfs
	for _, dir := range subdirs(c.HTTPRoot) {
		info, err := os.Stat(filepath.Join(c.HTTPRoot, dir, "squashfs.img"))
		if err != nil || info.IsDir() {
			continue
		}
		images = append(images, Squashfs{Profile: dir, Size: info.Size()})
	}
	return kernels, images
}

func subdirs(root string) []string {
	if root == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
