// Package ui renders the launcher's terminal output: banners, section
// headers and tables, colored when writing to a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
	"github.com/tmichett/FedoraRemixPXE/internal/network"
)

const (
	reset  = "\033[0m"
	red    = "\033[0;31m"
	green  = "\033[0;32m"
	yellow = "\033[1;33m"
	blue   = "\033[0;34m"
	cyan   = "\033[0;36m"
	bold   = "\033[1m"
)

// Palette colors text when Enabled.
type Palette struct {
	Enabled bool
}

// NewPalette enables colors when w is a terminal.
func NewPalette(w io.Writer) Palette {
	return Palette{Enabled: logging.IsTerminal(w)}
}

func (p Palette) wrap(code, s string) string {
	if !p.Enabled {
		return s
	}
	return code + s + reset
}

func (p Palette) Red(s string) string    { return p.wrap(red, s) }
func (p Palette) Green(s string) string  { return p.wrap(green, s) }
func (p Palette) Yellow(s string) string { return p.wrap(yellow, s) }
func (p Palette) Blue(s string) string   { return p.wrap(blue, s) }
func (p Palette) Cyan(s string) string   { return p.wrap(cyan, s) }
func (p Palette) Bold(s string) string   { return p.wrap(bold, s) }

// Dot is a status bullet: green when ok, red otherwise.
func (p Palette) Dot(ok bool) string {
	if ok {
		return p.Green("●")
	}
	return p.Red("●")
}

// WarnDot is a yellow bullet.
func (p Palette) WarnDot() string {
	return p.Yellow("●")
}

const bannerWidth = 66

// Banner prints the launcher's title box.
func Banner(w io.Writer, p Palette) {
	line := strings.Repeat("═", bannerWidth)
	blank := p.Cyan("║") + strings.Repeat(" ", bannerWidth) + p.Cyan("║")
	row := func(text string, styled string) string {
		return p.Cyan("║") + "   " + styled + strings.Repeat(" ", bannerWidth-3-utf8.RuneCountInString(text)) + p.Cyan("║")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Cyan("╔"+line+"╗"))
	fmt.Fprintln(w, blank)
	fmt.Fprintln(w, row("Fedora Remix PXE Server", p.Bold("Fedora Remix PXE Server")))
	fmt.Fprintln(w, row("Containerized Network Boot Solution", "Containerized Network Boot Solution"))
	fmt.Fprintln(w, blank)
	fmt.Fprintln(w, p.Cyan("╚"+line+"╝"))
	fmt.Fprintln(w)
}

// Section prints a titled rule.
func Section(w io.Writer, p Palette, title string) {
	rule := strings.Repeat("═", 63)
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Cyan(rule))
	fmt.Fprintln(w, p.Cyan("  "+title))
	fmt.Fprintln(w, p.Cyan(rule))
	fmt.Fprintln(w)
}

// Heading prints a blue label line.
func Heading(w io.Writer, p Palette, title string) {
	fmt.Fprintln(w, p.Blue(title))
}

var interfaceColumns = []struct {
	title string
	width int
}{
	{"#", 2},
	{"Interface", 14},
	{"Status", 8},
	{"IP Address", 17},
	{"MAC Address", 19},
}

// InterfaceTable prints ifaces numbered from 1. Missing addresses are shown
// as "--" and missing MACs as "N/A".
func InterfaceTable(w io.Writer, p Palette, ifaces []network.Interface) {
	border := func(left, mid, right string) string {
		parts := make([]string, len(interfaceColumns))
		for i, col := range interfaceColumns {
			parts[i] = strings.Repeat("═", col.width+2)
		}
		return p.Cyan(left + strings.Join(parts, mid) + right)
	}
	row := func(cells ...string) string {
		var b strings.Builder
		b.WriteString(p.Cyan("║"))
		for i, col := range interfaceColumns {
			cell := cells[i]
			if pad := col.width - utf8.RuneCountInString(cell); pad > 0 {
				cell += strings.Repeat(" ", pad)
			}
			b.WriteString(" " + cell + " " + p.Cyan("║"))
		}
		return b.String()
	}

	title := "Available Network Interfaces"
	inner := 0
	for _, col := range interfaceColumns {
		inner += col.width + 3
	}
	inner--
	left := (inner - len(title)) / 2

	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Cyan("╔"+strings.Repeat("═", inner)+"╗"))
	fmt.Fprintln(w, p.Cyan("║"+strings.Repeat(" ", left)+title+strings.Repeat(" ", inner-left-len(title))+"║"))
	fmt.Fprintln(w, border("╠", "╦", "╣"))
	titles := make([]string, len(interfaceColumns))
	for i, col := range interfaceColumns {
		titles[i] = col.title
	}
	fmt.Fprintln(w, row(titles...))
	fmt.Fprintln(w, border("╠", "╬", "╣"))
	for i, iface := range ifaces {
		ip := iface.IPv4
		if ip == "" {
			ip = "--"
		}
		mac := iface.MAC
		if mac == "" {
			mac = "N/A"
		}
		fmt.Fprintln(w, row(fmt.Sprint(i+1), iface.Name, iface.State(), ip, mac))
	}
	fmt.Fprintln(w, border("╚", "╩", "╝"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Yellow("Note: Wireless and virtual adapters are excluded."))
	fmt.Fprintln(w)
}
