package status

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pin/tftp/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmichett/FedoraRemixPXE/internal/container"
	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
	"github.com/tmichett/FedoraRemixPXE/internal/runner/runnertest"
	"github.com/tmichett/FedoraRemixPXE/internal/ui"
)

const inspect = `podman inspect --format {{.State.Status}}|{{index .Config.Labels "pxe.phase"}}|{{.State.Pid}} pxe-server`

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func newCollector(t *testing.T, script *runnertest.Script) *Collector {
	t.Helper()
	base := t.TempDir()
	return &Collector{
		Engine:   &container.Engine{Runner: script},
		Handle:   container.Handle{Name: "pxe-server"},
		TFTPRoot: filepath.Join(base, "tftpboot"),
		HTTPRoot: filepath.Join(base, "http"),
	}
}

func TestCollectRunningServer(t *testing.T) {
	t.Parallel()

	script := runnertest.NewScript(
		runnertest.Ok("podman container exists pxe-server", ""),
		runnertest.Ok(inspect, "running|serving|4321"),
		runnertest.Ok("podman exec pxe-server pgrep dhcpd", "12\n"),
		runnertest.Fail("podman exec pxe-server pgrep in.tftpd", 1, ""),
		runnertest.Ok("podman exec pxe-server pgrep httpd", "14\n15\n"),
	)
	c := newCollector(t, script)
	writeFile(t, filepath.Join(c.TFTPRoot, "remix", "vmlinuz"), 10)
	writeFile(t, filepath.Join(c.TFTPRoot, "empty", "initrd.img"), 10)
	writeFile(t, filepath.Join(c.TFTPRoot, "pxelinux.0"), 10)
	writeFile(t, filepath.Join(c.HTTPRoot, "remix", "squashfs.img"), 3<<20)

	var gotPid int
	c.hostNetwork = func(pid int) (bool, error) { gotPid = pid; return true, nil }
	c.hasAddress = func(iface, ip string) (bool, error) { return iface == "eno1" && ip == "192.168.0.1", nil }

	cfg, err := pxeconfig.DeriveServerConfig("eno1", "192.168.0.1")
	require.NoError(t, err)
	report, err := c.Collect(context.Background(), cfg, true, false)
	require.NoError(t, err)
	script.AssertDone(t)

	assert.Equal(t, "podman", report.Engine)
	assert.Equal(t, container.State{Status: container.StatusRunning, Phase: container.PhaseServing, Pid: 4321}, report.Container)
	assert.Equal(t, []ServiceStatus{
		{Service: Services[0], Up: true},
		{Service: Services[1], Up: false},
		{Service: Services[2], Up: true},
	}, report.Services)
	assert.Equal(t, []string{"remix"}, report.Kernels)
	assert.Equal(t, []Squashfs{{Profile: "remix", Size: 3 << 20}}, report.Squashfs)
	assert.Equal(t, 4321, gotPid)
	require.NotNil(t, report.HostNetwork)
	assert.True(t, *report.HostNetwork)
	require.NotNil(t, report.AddressAssigned)
	assert.True(t, *report.AddressAssigned)
	assert.Nil(t, report.Probe)
}

func TestCollectStoppedServerMarksServicesDown(t *testing.T) {
	t.Parallel()

	script := runnertest.NewScript(runnertest.Fail("podman container exists pxe-server", 1, ""))
	c := newCollector(t, script)
	c.hostNetwork = func(int) (bool, error) { t.Fatal("namespace check on absent container"); return false, nil }
	c.hasAddress = func(string, string) (bool, error) { return false, errors.New("Link not found") }

	report, err := c.Collect(context.Background(), pxeconfig.ServerConfig{Interface: "eno1", ServerIP: "192.168.0.1"}, true, false)
	require.NoError(t, err)
	for _, svc := range report.Services {
		assert.False(t, svc.Up, svc.Name)
	}
	assert.Len(t, report.Services, 3)
	assert.Nil(t, report.HostNetwork)
	assert.Nil(t, report.AddressAssigned)
	assert.Empty(t, report.Kernels)
}

func TestRenderRunning(t *testing.T) {
	t.Parallel()

	shared := true
	cfg, _ := pxeconfig.DeriveServerConfig("eno1", "10.0.5.9")
	report := Report{
		Engine:        "podman",
		ContainerName: "pxe-server",
		Config:        cfg,
		ConfigFound:   true,
		Container:     container.State{Status: container.StatusRunning, Phase: container.PhaseServing},
		Services: []ServiceStatus{
			{Service: Services[0], Up: true},
			{Service: Services[1], Up: false},
			{Service: Services[2], Up: true},
		},
		Kernels:     []string{"remix"},
		Squashfs:    []Squashfs{{Profile: "remix", Size: 3 << 29}},
		HostNetwork: &shared,
		Probe:       &ProbeResult{Address: "10.0.5.9:69", File: "pxelinux.0", Bytes: 42},
	}

	var buf bytes.Buffer
	Render(&buf, report, ui.Palette{})
	out := buf.String()

	for _, want := range []string{
		"PXE Server Running!",
		"  Interface:      eno1",
		"  DHCP Range:     10.0.5.201 - 10.0.5.240",
		"  Container:      running (serving)",
		"  Host network:   yes",
		"  ● DHCP Server",
		"  ● TFTP Server",
		"  ● remix: kernel and initrd available",
		"  ● remix: squashfs available (1.5 GB)",
		"  ● pxelinux.0 from 10.0.5.9:69: 42 bytes",
		"  Script URL:     http://10.0.5.9/diag/pxe-initrd-diag.sh",
		"  2. Client will receive IP from DHCP (10.0.5.201 - 10.0.5.240)",
		"  View logs:      podman logs -f pxe-server",
		"  Shell access:   podman exec -it pxe-server /bin/bash",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "No boot images found")
}

func TestRenderUnknownConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Render(&buf, Report{Engine: "podman", ContainerName: "pxe-server", Container: container.State{Status: container.StatusAbsent}}, ui.Palette{})
	out := buf.String()
	assert.Contains(t, out, "PXE Server Not Running")
	assert.Contains(t, out, "  Server IP:      unknown")
	assert.Contains(t, out, "  DHCP Range:     unknown - unknown")
	assert.Contains(t, out, "No boot images found")
	assert.Contains(t, out, "  Container:      absent")
}

func TestProbeTFTP(t *testing.T) {
	t.Parallel()

	payload := []byte(strings.Repeat("pxelinux", 200))
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	server := tftp.NewServer(func(filename string, rf io.ReaderFrom) error {
		if filename != "pxelinux.0" {
			return errors.New("file not found")
		}
		_, err := rf.ReadFrom(bytes.NewReader(payload))
		return err
	}, nil)
	server.SetTimeout(time.Second)
	go func() { _ = server.Serve(conn) }()
	t.Cleanup(server.Shutdown)

	addr := conn.LocalAddr().String()
	result := ProbeTFTP(addr, "pxelinux.0", 2*time.Second)
	require.NoError(t, result.Err)
	assert.True(t, result.OK())
	assert.EqualValues(t, len(payload), result.Bytes)
	assert.Equal(t, addr, result.Address)

	missing := ProbeTFTP(addr, "BOOTX64.EFI", 2*time.Second)
	assert.Error(t, missing.Err)
	assert.False(t, missing.OK())
}
