package pxeconfig

import (
	"errors"
	"strings"

	"github.com/tmichett/FedoraRemixPXE/internal/source"
)

const (
	maxProfileName = 20
	// FallbackProfileName is used when a label sanitizes to nothing.
	FallbackProfileName = "fedora_remix"
)

// BootProfile names an isolated set of boot assets extracted from one source.
type BootProfile struct {
	Name      string
	MenuLabel string
	Source    source.BootSource
}

// Sanitize replaces every character outside [A-Za-z0-9_] with '_'.
func Sanitize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if isProfileRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func isProfileRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// DefaultProfileName derives a profile name from a source label: sanitized,
// truncated to 20 characters and lowercased.
func DefaultProfileName(label string) string {
	name := Sanitize(label)
	if len(name) > maxProfileName {
		name = name[:maxProfileName]
	}
	name = strings.ToLower(name)
	if strings.Trim(name, "_") == "" {
		return FallbackProfileName
	}
	return name
}

// DeriveProfile combines src with the user's answers. Empty answers select the
// defaults.
func DeriveProfile(src source.BootSource, nameInput, labelInput, defaultLabel string) (BootProfile, error) {
	if src.IsNone() {
		return BootProfile{}, errors.New("no boot source selected")
	}

	name := DefaultProfileName(src.Label)
	if input := strings.TrimSpace(nameInput); input != "" {
		name = Sanitize(input)
	}

	label := strings.TrimSpace(labelInput)
	if label == "" {
		label = defaultLabel
	}

	return BootProfile{Name: name, MenuLabel: label, Source: src}, nil
}
