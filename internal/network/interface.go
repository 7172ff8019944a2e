// Package network discovers the host's wired interfaces and assigns the PXE
// server address to one of them through NetworkManager.
package network

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
)

// Interface is a host network interface as seen at discovery time.
type Interface struct {
	Name string
	Up   bool
	// MAC and IPv4 are empty when the interface has none.
	MAC  string
	IPv4 string
}

// State renders the administrative state as UP or DOWN.
func (i Interface) State() string {
	if i.Up {
		return "UP"
	}
	return "DOWN"
}

// excludedPrefixes covers loopback, container and VM bridges, wireless and
// tunnel devices.
var excludedPrefixes = []string{
	"lo", "veth", "br-", "docker", "virbr", "podman",
	"wlan", "wlp", "wlx", "tun", "tap",
}

// Eligible reports whether name may be offered for PXE serving.
func Eligible(name string) bool {
	if name == "" {
		return false
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}

// LinkSource reports links and their addresses.
type LinkSource interface {
	// Links lists links in the order the kernel reports them. IPv4 is left empty.
	Links(ctx context.Context) ([]Interface, error)
	// IPv4 returns the first IPv4 address on name, or "" when it has none.
	IPv4(ctx context.Context, name string) (string, error)
}

// Discoverer lists interfaces eligible for serving.
type Discoverer struct {
	Source LinkSource
	Logger *slog.Logger
}

// List returns the eligible interfaces with their IPv4 addresses filled in.
func (d *Discoverer) List(ctx context.Context) ([]Interface, error) {
	logger := logging.Ensure(d.Logger)
	links, err := d.Source.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	var out []Interface
	for _, link := range links {
		if !Eligible(link.Name) {
			logger.Debug("excluding interface", "interface", link.Name)
			continue
		}
		addr, err := d.Source.IPv4(ctx, link.Name)
		if err != nil {
			logger.Debug("could not read IPv4 address", "interface", link.Name, "error", err)
			addr = ""
		}
		link.IPv4 = addr
		out = append(out, link)
	}
	return out, nil
}
