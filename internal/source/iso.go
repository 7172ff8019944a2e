package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kdomanski/iso9660"
)

// ISOCandidate is a readable file the user pointed at. Warnings describe
// anything that makes it look unlike a live ISO; when NeedsConfirmation is
// set the user has to accept them before the file is used.
type ISOCandidate struct {
	Source            BootSource
	Warnings          []string
	NeedsConfirmation bool
}

// ValidateISO checks path and inspects the image for the live filesystem.
// Only a missing or non-regular file is an error.
func ValidateISO(path string) (ISOCandidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ISOCandidate{}, &ValidationError{Path: path, Reason: "File not found"}
	}
	if !info.Mode().IsRegular() {
		return ISOCandidate{}, &ValidationError{Path: path, Reason: "Not a regular file"}
	}

	candidate := ISOCandidate{
		Source: BootSource{Kind: KindISO, Path: path, Label: ISOLabel(path)},
	}
	if !strings.EqualFold(filepath.Ext(path), ".iso") {
		candidate.Warnings = append(candidate.Warnings, "File doesn't have .iso extension")
	}

	volume, size, err := inspectISO(path)
	switch {
	case err != nil:
		candidate.Warnings = append(candidate.Warnings, fmt.Sprintf("Could not read ISO 9660 image: %v", err))
	case size < 0:
		candidate.Warnings = append(candidate.Warnings, "Image does not contain "+filepath.ToSlash(LiveMarker))
	default:
		candidate.Source.Size = size
	}
	candidate.Source.VolumeLabel = volume
	candidate.NeedsConfirmation = len(candidate.Warnings) > 0
	return candidate, nil
}

// ISOLabel is the file name with a trailing .iso removed, in any case.
func ISOLabel(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".iso") {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// inspectISO returns the volume label and the size of the live squashfs
// image, or -1 when the image has none.
func inspectISO(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", -1, err
	}
	defer f.Close()

	image, err := iso9660.OpenImage(f)
	if err != nil {
		return "", -1, err
	}
	label, err := image.Label()
	if err != nil {
		label = ""
	}
	label = strings.TrimSpace(label)

	root, err := image.RootDir()
	if err != nil {
		return label, -1, err
	}
	marker := strings.Split(filepath.ToSlash(LiveMarker), "/")
	entry := findEntry(root, marker)
	if entry == nil {
		return label, -1, nil
	}
	return label, entry.Size(), nil
}

func findEntry(dir *iso9660.File, parts []string) *iso9660.File {
	if dir == nil || len(parts) == 0 || !dir.IsDir() {
		return nil
	}
	children, err := dir.GetChildren()
	if err != nil {
		return nil
	}
	for _, child := range children {
		if !strings.EqualFold(strings.TrimSuffix(child.Name(), ";1"), parts[0]) {
			continue
		}
		if len(parts) == 1 {
			if child.IsDir() {
				return nil
			}
			return child
		}
		return findEntry(child, parts[1:])
	}
	return nil
}
