package pxeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrConfigNotFound is returned by LoadServerConfig when nothing was saved yet.
var ErrConfigNotFound = errors.New("no saved PXE server configuration")

const envHeader = "# PXE Server Configuration\n"

func (c ServerConfig) envEntries() [][2]string {
	return [][2]string{
		{"PXE_INTERFACE", c.Interface},
		{"PXE_SERVER_IP", c.ServerIP},
		{"PXE_SUBNET", c.Subnet},
		{"PXE_NETMASK", c.Netmask},
		{"PXE_ROUTER", c.Router},
		{"PXE_DNS", c.DNS},
		{"PXE_RANGE_START", c.RangeStart},
		{"PXE_RANGE_END", c.RangeEnd},
	}
}

// SaveServerConfig overwrites path with cfg as KEY="value" lines.
func SaveServerConfig(path string, cfg ServerConfig) error {
	var b strings.Builder
	b.WriteString(envHeader)
	for _, entry := range cfg.envEntries() {
		if strings.ContainsAny(entry[1], "\"\r\n") {
			return fmt.Errorf("value of %s contains a quote or newline", entry[0])
		}
		fmt.Fprintf(&b, "%s=%q\n", entry[0], entry[1])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("make config dir: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// LoadServerConfig reads a file written by SaveServerConfig. Blank lines and
// '#' comments are ignored; keys that are absent stay empty.
func LoadServerConfig(path string) (ServerConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ServerConfig{}, ErrConfigNotFound
		}
		return ServerConfig{}, fmt.Errorf("stat config: %w", err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	var cfg ServerConfig
	if err := file.Section("").MapTo(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("map %s: %w", path, err)
	}
	return cfg, nil
}
