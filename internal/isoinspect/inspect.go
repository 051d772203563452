// Package isoinspect performs read-only structural checks on mastered
// ISO-9660 images.
package isoinspect

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/kdomanski/iso9660"
)

// Primary volume descriptor layout: sector 16, volume identifier at field
// offset 40, 32 bytes, space padded.
const (
	sectorSize       = 2048
	pvdSector        = 16
	labelFieldOffset = 40
	labelFieldSize   = 32
)

// Verify confirms the image at isoPath carries the expected volume label
// and contains every path in required. Paths compare case-insensitively
// with ISO version suffixes stripped, so the check holds across mastering
// tools' name mangling.
func Verify(isoPath, label string, required []string) error {
	f, err := os.Open(isoPath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	gotLabel, err := readLabel(f)
	if err != nil {
		return err
	}
	if !strings.EqualFold(gotLabel, label) {
		return fmt.Errorf("volume label = %q, want %q", gotLabel, label)
	}

	index, err := buildIndex(f)
	if err != nil {
		return err
	}
	for _, want := range required {
		if _, ok := index[normalizePath(want)]; !ok {
			return fmt.Errorf("image missing %s", want)
		}
	}
	return nil
}

// readLabel extracts the volume identifier from the primary volume
// descriptor.
func readLabel(f *os.File) (string, error) {
	buf := make([]byte, labelFieldSize)
	if _, err := f.ReadAt(buf, pvdSector*sectorSize+labelFieldOffset); err != nil {
		return "", fmt.Errorf("read volume descriptor: %w", err)
	}
	return strings.TrimRight(string(buf), " \x00"), nil
}

// buildIndex walks the directory hierarchy into a set of normalized paths.
func buildIndex(f *os.File) (map[string]struct{}, error) {
	img, err := iso9660.OpenImage(f)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	root, err := img.RootDir()
	if err != nil {
		return nil, fmt.Errorf("read image root: %w", err)
	}

	index := make(map[string]struct{})
	var walk func(file *iso9660.File, dir string) error
	walk = func(file *iso9660.File, dir string) error {
		children, err := file.GetChildren()
		if err != nil {
			return fmt.Errorf("list %s: %w", dir, err)
		}
		for _, child := range children {
			name := child.Name()
			if name == "." || name == ".." {
				continue
			}
			childPath := path.Join(dir, normalizeName(name))
			index[childPath] = struct{}{}
			if child.IsDir() {
				if err := walk(child, childPath); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root, ""); err != nil {
		return nil, err
	}
	return index, nil
}

// normalizeName lowercases a directory-record name and strips the ";1"
// version suffix mastering tools append to file identifiers.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	return name
}

func normalizePath(p string) string {
	return strings.TrimPrefix(strings.ToLower(path.Clean("/"+p)), "/")
}
