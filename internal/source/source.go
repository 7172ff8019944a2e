// Package source finds and validates the boot media boot assets are
// extracted from: mounted live USB sticks and ISO images.
package source

import (
	"fmt"
	"path/filepath"
)

// Kind identifies the type of boot media.
type Kind string

const (
	KindNone Kind = ""
	KindUSB  Kind = "usb"
	KindISO  Kind = "iso"
)

// LiveMarker is the file that identifies a live filesystem on the media.
var LiveMarker = filepath.Join("LiveOS", "squashfs.img")

// BootSource is a chosen boot medium. The zero value means no source: the
// boot files already present in the data volumes are reused.
type BootSource struct {
	Kind  Kind
	Path  string
	Label string
	// Size is the size of the live squashfs image in bytes, when known.
	Size int64
	// VolumeLabel is the ISO 9660 volume identifier, ISO sources only.
	VolumeLabel string
}

// None returns the empty source.
func None() BootSource {
	return BootSource{}
}

// IsNone reports whether no medium was chosen.
func (s BootSource) IsNone() bool {
	return s.Kind == KindNone
}

// SizeGiB formats Size in GiB with one decimal place.
func (s BootSource) SizeGiB() string {
	return fmt.Sprintf("%.1f GB", float64(s.Size)/(1<<30))
}

func (s BootSource) String() string {
	if s.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.Path)
}

// ValidationError reports a user-supplied path that cannot be used.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}
