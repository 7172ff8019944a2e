package ui

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmichett/FedoraRemixPXE/internal/network"
)

func TestPaletteDisabled(t *testing.T) {
	t.Parallel()

	p := NewPalette(&bytes.Buffer{})
	assert.False(t, p.Enabled)
	assert.Equal(t, "text", p.Red("text"))
	assert.Equal(t, "●", p.Dot(true))
}

func TestPaletteEnabled(t *testing.T) {
	t.Parallel()

	p := Palette{Enabled: true}
	assert.Equal(t, "\033[0;32m●\033[0m", p.Dot(true))
	assert.Equal(t, "\033[0;31m●\033[0m", p.Dot(false))
}

func TestInterfaceTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	InterfaceTable(&buf, Palette{}, []network.Interface{
		{Name: "enp0s31f6", Up: true, MAC: "54:e1:ad:11:22:33", IPv4: "10.0.5.9"},
		{Name: "eth1"},
	})
	out := buf.String()

	assert.Contains(t, out, "║ 1  ║ enp0s31f6      ║ UP       ║ 10.0.5.9          ║ 54:e1:ad:11:22:33   ║")
	assert.Contains(t, out, "║ 2  ║ eth1           ║ DOWN     ║ --                ║ N/A                 ║")
	assert.Contains(t, out, "Note: Wireless and virtual adapters are excluded.")

	// every box line has the same width
	var width int
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "╔") && !strings.HasPrefix(line, "║") && !strings.HasPrefix(line, "╠") && !strings.HasPrefix(line, "╚") {
			continue
		}
		n := utf8.RuneCountInString(line)
		if width == 0 {
			width = n
		}
		require.Equal(t, width, n, line)
	}
}

func TestBannerWidths(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Banner(&buf, Palette{})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	for _, line := range lines {
		assert.Equal(t, bannerWidth+2, utf8.RuneCountInString(line), line)
	}
	assert.Contains(t, buf.String(), "Fedora Remix PXE Server")
}
