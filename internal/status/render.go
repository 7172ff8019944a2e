package status

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tmichett/FedoraRemixPXE/internal/source"
	"github.com/tmichett/FedoraRemixPXE/internal/ui"
)

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Render writes r in the launcher's status layout.
func Render(w io.Writer, r Report, p ui.Palette) {
	title := "PXE Server Running!"
	color := p.Green
	if !r.Container.Running() {
		title = "PXE Server Not Running"
		color = p.Yellow
	}
	const width = 63
	pad := width - 20 - len(title)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, color("╔"+strings.Repeat("═", width)+"╗"))
	fmt.Fprintln(w, color("║"+strings.Repeat(" ", 20)+title+strings.Repeat(" ", pad)+"║"))
	fmt.Fprintln(w, color("╚"+strings.Repeat("═", width)+"╝"))
	fmt.Fprintln(w)

	cfg := r.Config
	ui.Heading(w, p, "Server Configuration:")
	fmt.Fprintf(w, "  Interface:      %s\n", orUnknown(cfg.Interface))
	fmt.Fprintf(w, "  Server IP:      %s\n", orUnknown(cfg.ServerIP))
	fmt.Fprintf(w, "  DHCP Range:     %s - %s\n", orUnknown(cfg.RangeStart), orUnknown(cfg.RangeEnd))
	containerLine := r.Container.Summary()
	if r.Container.Phase != "" {
		containerLine += fmt.Sprintf(" (%s)", r.Container.Phase)
	}
	fmt.Fprintf(w, "  Container:      %s\n", containerLine)
	if r.HostNetwork != nil {
		fmt.Fprintf(w, "  Host network:   %s\n", yesNo(*r.HostNetwork))
	}
	if r.AddressAssigned != nil {
		fmt.Fprintf(w, "  IP on %s: %s\n", cfg.Interface, yesNo(*r.AddressAssigned))
	}

	fmt.Fprintln(w)
	ui.Heading(w, p, "Services:")
	for _, svc := range r.Services {
		fmt.Fprintf(w, "  %s %s Server\n", p.Dot(svc.Up), svc.Name)
	}

	fmt.Fprintln(w)
	ui.Heading(w, p, "Boot Images:")
	if len(r.Kernels) == 0 {
		fmt.Fprintf(w, "  %s No boot images found\n", p.WarnDot())
	}
	for _, profile := range r.Kernels {
		fmt.Fprintf(w, "  %s %s: kernel and initrd available\n", p.Dot(true), profile)
	}
	for _, img := range r.Squashfs {
		size := source.BootSource{Size: img.Size}.SizeGiB()
		fmt.Fprintf(w, "  %s %s: squashfs available (%s)\n", p.Dot(true), img.Profile, size)
	}

	if r.Probe != nil {
		fmt.Fprintln(w)
		ui.Heading(w, p, "TFTP Probe:")
		if r.Probe.OK() {
			fmt.Fprintf(w, "  %s %s from %s: %d bytes in %s\n", p.Dot(true), r.Probe.File, r.Probe.Address, r.Probe.Bytes, r.Probe.Elapsed.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "  %s %s from %s: %v\n", p.Dot(false), r.Probe.File, r.Probe.Address, r.Probe.Err)
		}
	}

	ip := orUnknown(cfg.ServerIP)
	fmt.Fprintln(w)
	ui.Heading(w, p, "Diagnostics:")
	fmt.Fprintf(w, "  Script URL:     http://%s/diag/pxe-initrd-diag.sh\n", ip)

	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Yellow("Client Boot Instructions:"))
	fmt.Fprintln(w, "  1. Configure client to boot from network (PXE)")
	fmt.Fprintf(w, "  2. Client will receive IP from DHCP (%s - %s)\n", orUnknown(cfg.RangeStart), orUnknown(cfg.RangeEnd))
	fmt.Fprintln(w, "  3. Select boot option from PXE menu")
	fmt.Fprintln(w, `  4. If debugging, select "Debug Mode" to enter initrd shell`)

	engine, name := r.Engine, r.ContainerName
	fmt.Fprintln(w)
	ui.Heading(w, p, "Management Commands:")
	fmt.Fprintf(w, "  View logs:      %s logs -f %s\n", engine, name)
	fmt.Fprintf(w, "  Shell access:   %s exec -it %s /bin/bash\n", engine, name)
	fmt.Fprintf(w, "  Stop server:    %s stop %s\n", engine, name)
	fmt.Fprintf(w, "  Remove server:  %s rm %s\n", engine, name)
	fmt.Fprintln(w)
}
