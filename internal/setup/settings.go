package setup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsPath is read when --config is not given.
var DefaultSettingsPath = "/etc/fedoraremix-pxe/launcher.yaml"

// Interface sources understood by the launcher.
const (
	InterfaceSourceNetlink = "netlink"
	InterfaceSourceIP      = "ip"
)

// ExtractionSettings configures the extraction handshake with the container.
type ExtractionSettings struct {
	Entrypoint     string        `yaml:"entrypoint"`
	MountPath      string        `yaml:"mount_path"`
	ReadyTimeout   time.Duration `yaml:"ready_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RestoreServing bool          `yaml:"restore_serving"`
}

// Settings are the launcher's tunables. Every field has a default; the
// settings file only needs the keys it overrides.
type Settings struct {
	Engine           string             `yaml:"engine"`
	Image            string             `yaml:"image"`
	ContainerName    string             `yaml:"container_name"`
	BaseDir          string             `yaml:"base_dir"`
	DefaultServerIP  string             `yaml:"default_server_ip"`
	DefaultMenuLabel string             `yaml:"default_menu_label"`
	USBRoots         []string           `yaml:"usb_roots"`
	InterfaceSource  string             `yaml:"interface_source"`
	Extraction       ExtractionSettings `yaml:"extraction"`
}

// Defaults returns a fresh copy of the built-in settings.
func Defaults() Settings {
	return Settings{
		Engine:           "podman",
		Image:            "quay.io/tmichett/fedoraremixpxe:latest",
		ContainerName:    "pxe-server",
		BaseDir:          "~/.local/share/fedoraremix-pxe",
		DefaultServerIP:  "192.168.0.1",
		DefaultMenuLabel: "Fedora Remix LiveCD",
		USBRoots:         []string{"/run/media", "/media", "/mnt"},
		InterfaceSource:  InterfaceSourceNetlink,
		Extraction: ExtractionSettings{
			Entrypoint:     "/usr/local/bin/extract-boot-files.sh",
			MountPath:      "/mnt/source",
			ReadyTimeout:   30 * time.Second,
			PollInterval:   500 * time.Millisecond,
			RestoreServing: true,
		},
	}
}

// LoadSettings reads path on top of Defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	settings := Defaults()
	if strings.TrimSpace(path) == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			getLogger().Debug("settings file not found, using defaults", "path", path)
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	getLogger().Debug("loaded settings", "path", path)
	return settings, nil
}

// Validate checks the settings for values the launcher cannot work with.
func (s Settings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.Engine) == "" {
		problems = append(problems, "engine is required")
	}
	if strings.TrimSpace(s.Image) == "" {
		problems = append(problems, "image is required")
	}
	if strings.TrimSpace(s.ContainerName) == "" {
		problems = append(problems, "container_name is required")
	}
	if strings.TrimSpace(s.BaseDir) == "" {
		problems = append(problems, "base_dir is required")
	}
	if ip := net.ParseIP(s.DefaultServerIP); ip == nil || ip.To4() == nil {
		problems = append(problems, fmt.Sprintf("default_server_ip %q is not an IPv4 address", s.DefaultServerIP))
	}
	switch s.InterfaceSource {
	case InterfaceSourceNetlink, InterfaceSourceIP:
	default:
		problems = append(problems, fmt.Sprintf("interface_source must be %q or %q", InterfaceSourceNetlink, InterfaceSourceIP))
	}
	if !filepath.IsAbs(s.Extraction.MountPath) {
		problems = append(problems, "extraction.mount_path must be absolute")
	}
	if strings.TrimSpace(s.Extraction.Entrypoint) == "" {
		problems = append(problems, "extraction.entrypoint is required")
	}
	if s.Extraction.ReadyTimeout <= 0 {
		problems = append(problems, "extraction.ready_timeout must be positive")
	}
	if s.Extraction.PollInterval <= 0 {
		problems = append(problems, "extraction.poll_interval must be positive")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Layout is the on-disk structure shared with the container's volumes.
type Layout struct {
	BaseDir    string
	DataDir    string
	ConfigDir  string
	TFTPRoot   string
	HTTPRoot   string
	DHCPConfig string
	EnvFile    string
}

// Layout resolves the directory structure under BaseDir.
func (s Settings) Layout() (Layout, error) {
	base, err := ExpandHome(s.BaseDir)
	if err != nil {
		return Layout{}, err
	}
	base, err = filepath.Abs(base)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve base dir: %w", err)
	}
	data := filepath.Join(base, "data")
	config := filepath.Join(base, "config")
	return Layout{
		BaseDir:    base,
		DataDir:    data,
		ConfigDir:  config,
		TFTPRoot:   filepath.Join(data, "tftpboot"),
		HTTPRoot:   filepath.Join(data, "http"),
		DHCPConfig: filepath.Join(config, "dhcpd.conf"),
		EnvFile:    filepath.Join(config, "pxe-server.env"),
	}, nil
}

// Ensure creates the layout's directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.TFTPRoot, l.HTTPRoot, l.ConfigDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
