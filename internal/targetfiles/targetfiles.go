// Package targetfiles reads Android target-files packages: the zip archives
// an OS platform build produces, holding the kernel, raw partition images,
// and the installer ramdisk.
package targetfiles

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Member paths every installer build needs from the package.
const (
	MemberKernel      = "BOOT/kernel"
	MemberSystemImage = "IMAGES/system.img"
	MemberInitrd      = "RADIO/initrd.img"
)

// RequiredMembers returns the member paths whose presence marks an archive
// as a usable target-files package, in the order they are checked.
func RequiredMembers() []string {
	return []string{MemberKernel, MemberSystemImage, MemberInitrd}
}

// Archive provides read access to one target-files package.
type Archive struct {
	path   string
	reader *zip.ReadCloser
}

// Open opens the package at path.
func Open(path string) (*Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open target-files package %s: %w", path, err)
	}
	return &Archive{path: path, reader: reader}, nil
}

// Close releases the underlying archive handle.
func (a *Archive) Close() error {
	return a.reader.Close()
}

// Path returns the archive location on disk.
func (a *Archive) Path() string {
	return a.path
}

// Has reports whether the archive contains the named member.
func (a *Archive) Has(member string) bool {
	for _, f := range a.reader.File {
		if f.Name == member {
			return true
		}
	}
	return false
}

// MissingMembers returns the required member paths absent from the archive.
func (a *Archive) MissingMembers() []string {
	var missing []string
	for _, member := range RequiredMembers() {
		if !a.Has(member) {
			missing = append(missing, member)
		}
	}
	return missing
}

// Extract streams the named member to dest, creating parent directories as
// needed. Partition images run to gigabytes, so the member is never held in
// memory.
func (a *Archive) Extract(member, dest string) error {
	for _, f := range a.reader.File {
		if f.Name == member {
			return extractFile(f, dest)
		}
	}
	return fmt.Errorf("member %s not found in %s", member, a.path)
}

func extractFile(f *zip.File, dest string) error {
	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
