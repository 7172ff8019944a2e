package setup

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), settings)
}

func TestLoadSettingsOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher.yaml")
	content := `
engine: docker
container_name: pxe-lab
usb_roots: [/srv/usb]
extraction:
  ready_timeout: 5s
  restore_serving: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "docker", settings.Engine)
	assert.Equal(t, "pxe-lab", settings.ContainerName)
	assert.Equal(t, []string{"/srv/usb"}, settings.USBRoots)
	assert.Equal(t, 5*time.Second, settings.Extraction.ReadyTimeout)
	assert.False(t, settings.Extraction.RestoreServing)
	// untouched keys keep their defaults
	assert.Equal(t, "quay.io/tmichett/fedoraremixpxe:latest", settings.Image)
	assert.Equal(t, 500*time.Millisecond, settings.Extraction.PollInterval)
	assert.Equal(t, "/mnt/source", settings.Extraction.MountPath)
}

func TestLoadSettingsEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), settings)
}

func TestLoadSettingsRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte("imagee: typo\n"), 0o644))

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imagee")
}

func TestLoadSettingsValidates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_server_ip: fe80::1\ninterface_source: sysfs\n"), 0o644))

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_server_ip")
	assert.Contains(t, err.Error(), "interface_source")
}

func TestDefaultsAreIndependentCopies(t *testing.T) {
	t.Parallel()

	a := Defaults()
	a.USBRoots[0] = "/changed"
	assert.Equal(t, "/run/media", Defaults().USBRoots[0])
}

func TestLayout(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	settings := Defaults()
	settings.BaseDir = base

	layout, err := settings.Layout()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "data", "tftpboot"), layout.TFTPRoot)
	assert.Equal(t, filepath.Join(base, "data", "http"), layout.HTTPRoot)
	assert.Equal(t, filepath.Join(base, "config", "dhcpd.conf"), layout.DHCPConfig)
	assert.Equal(t, filepath.Join(base, "config", "pxe-server.env"), layout.EnvFile)

	require.NoError(t, layout.Ensure())
	for _, dir := range []string{layout.TFTPRoot, layout.HTTPRoot, layout.ConfigDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandHome("~/.local/share/fedoraremix-pxe")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/share/fedoraremix-pxe"), got)

	got, err = ExpandHome("/srv/pxe")
	require.NoError(t, err)
	assert.Equal(t, "/srv/pxe", got)
}

func TestRequirePrivilege(t *testing.T) {
	orig := geteuid
	t.Cleanup(func() { geteuid = orig })

	geteuid = func() int { return 1000 }
	err := RequirePrivilege("--stop")
	var privErr *PrivilegeError
	require.True(t, errors.As(err, &privErr))
	assert.Equal(t, "--stop must be run as root (use sudo)", err.Error())

	geteuid = func() int { return 0 }
	assert.NoError(t, RequirePrivilege("--stop"))
}

func TestEnsureCommands(t *testing.T) {
	t.Parallel()

	lookPath := func(name string) (string, error) {
		if name == "podman" {
			return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
		}
		return "/usr/bin/" + name, nil
	}

	require.NoError(t, EnsureCommands(lookPath, "nmcli"))

	err := EnsureCommands(lookPath, "nmcli", "podman")
	var prereq *PrerequisiteError
	require.True(t, errors.As(err, &prereq))
	assert.Equal(t, "podman", prereq.Command)
	assert.True(t, strings.HasSuffix(err.Error(), "sudo dnf install podman"))
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
