package source

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
)

// Scanner looks for mounted live media under a set of mount roots.
type Scanner struct {
	Roots  []string
	Logger *slog.Logger
}

// FindUSB returns a USB source for every mount, directly under a root or one
// level below it (per-user mount directories), that carries LiveMarker.
func (s *Scanner) FindUSB() []BootSource {
	logger := logging.Ensure(s.Logger)
	var found []BootSource
	for _, root := range s.Roots {
		entries, err := readDirs(root)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Debug("skipping mount root", "root", root, "error", err)
			}
			continue
		}
		for _, entry := range entries {
			candidates := []string{entry}
			if filepath.Base(entry) != "root" {
				children, err := readDirs(entry)
				if err != nil {
					logger.Debug("skipping mount directory", "path", entry, "error", err)
				}
				candidates = append(candidates, children...)
			}
			for _, mount := range candidates {
				if src, ok := probeMount(mount); ok {
					logger.Debug("found live media", "path", mount, "size", src.Size)
					found = append(found, src)
				}
			}
		}
	}
	return found
}

func readDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var dirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, path)
	}
	return dirs, nil
}

func probeMount(mount string) (BootSource, bool) {
	info, err := os.Stat(filepath.Join(mount, LiveMarker))
	if err != nil || info.IsDir() {
		return BootSource{}, false
	}
	return BootSource{
		Kind:  KindUSB,
		Path:  mount,
		Label: filepath.Base(mount),
		Size:  info.Size(),
	}, true
}

// ValidateUSB checks a manually entered mount path.
func ValidateUSB(path string) (BootSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return BootSource{}, &ValidationError{Path: path, Reason: "Path does not exist"}
	}
	if !info.IsDir() {
		return BootSource{}, &ValidationError{Path: path, Reason: "Path is not a directory"}
	}
	src := BootSource{Kind: KindUSB, Path: path, Label: filepath.Base(filepath.Clean(path))}
	if marker, err := os.Stat(filepath.Join(path, LiveMarker)); err == nil {
		src.Size = marker.Size()
	}
	return src, nil
}
