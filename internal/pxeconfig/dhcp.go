package pxeconfig

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed dhcpd.conf.tmpl
var dhcpdTemplate string

const (
	defaultLeaseTime = 600
	maxLeaseTime     = 7200
)

type dhcpTemplateData struct {
	Config           ServerConfig
	Architectures    []ClientArch
	DefaultBootFile  string
	DefaultLeaseTime int
	MaxLeaseTime     int
}

// RenderDHCPConfig renders the dhcpd.conf served by the container for cfg.
func RenderDHCPConfig(cfg ServerConfig) ([]byte, error) {
	if cfg.Subnet == "" || cfg.ServerIP == "" || cfg.RangeStart == "" || cfg.RangeEnd == "" {
		return nil, fmt.Errorf("incomplete server configuration for interface %q", cfg.Interface)
	}

	tmpl, err := template.New("dhcpd.conf").Parse(dhcpdTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse dhcpd template: %w", err)
	}
	data := dhcpTemplateData{
		Config:           cfg,
		Architectures:    DefaultArchitectures(),
		DefaultBootFile:  ArchBIOS.BootFile,
		DefaultLeaseTime: defaultLeaseTime,
		MaxLeaseTime:     maxLeaseTime,
	}
	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return nil, fmt.Errorf("render dhcpd template: %w", err)
	}
	return rendered.Bytes(), nil
}

// WriteDHCPConfig renders cfg to path, replacing any previous file.
func WriteDHCPConfig(path string, cfg ServerConfig) error {
	rendered, err := RenderDHCPConfig(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("make config dir: %w", err)
	}
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return fmt.Errorf("write dhcpd config: %w", err)
	}
	return nil
}
