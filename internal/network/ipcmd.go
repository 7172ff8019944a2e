package network

import (
	"context"
	"regexp"
	"strings"

	"github.com/tmichett/FedoraRemixPXE/internal/runner"
)

var (
	macPattern  = regexp.MustCompile(`link/ether\s+([0-9a-f:]+)`)
	inetPattern = regexp.MustCompile(`inet\s+(\d+\.\d+\.\d+\.\d+)`)
)

// IPCommandSource parses the output of the ip(8) tool. It is used where
// netlink sockets are not available to the launcher.
type IPCommandSource struct {
	Runner runner.Runner
}

var _ LinkSource = IPCommandSource{}

func (s IPCommandSource) Links(ctx context.Context) ([]Interface, error) {
	result, err := s.Runner.Run(ctx, runner.Command{Name: "ip", Args: []string{"-o", "link", "show"}, Check: true})
	if err != nil {
		return nil, err
	}
	return parseLinkList(result.Stdout), nil
}

func (s IPCommandSource) IPv4(ctx context.Context, name string) (string, error) {
	result, err := s.Runner.Run(ctx, runner.Command{Name: "ip", Args: []string{"-4", "addr", "show", name}})
	if err != nil {
		return "", err
	}
	if m := inetPattern.FindStringSubmatch(result.Stdout); m != nil {
		return m[1], nil
	}
	return "", nil
}

// parseLinkList reads "ip -o link show" output, one link per line.
func parseLinkList(output string) []Interface {
	var out []Interface
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.Split(line, ": ")
		if len(parts) < 2 {
			continue
		}
		name, _, _ := strings.Cut(parts[1], "@")
		if name == "" {
			continue
		}
		iface := Interface{
			Name: name,
			Up:   strings.Contains(line, "state UP") || strings.Contains(line, ",UP,"),
		}
		if m := macPattern.FindStringSubmatch(line); m != nil {
			iface.MAC = m[1]
		}
		out = append(out, iface)
	}
	return out
}
