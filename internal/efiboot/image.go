// Package efiboot synthesizes the FAT-formatted boot image embedded in the
// installer ISO as its UEFI El Torito entry.
package efiboot

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/diskfs/go-diskfs/backend/file"
	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"golang.org/x/sys/unix"
)

const (
	// imageSize is the fixed allocation for the boot image. The EFI
	// payload (grub binary plus fonts) stays well under this.
	imageSize = 15 * 1024 * 1024

	blockSize   = 512
	volumeLabel = "EFI"
)

// Create writes a FAT boot image at imagePath holding an empty top-level
// boot directory and the whole efiTree under /efi. Any .cfg directly under
// /efi/boot is left out: firmware reads the patched configs from the ISO
// filesystem, and the FAT image must not carry stale copies.
func Create(imagePath, efiTree string) error {
	f, err := os.OpenFile(imagePath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("create efi boot image: %w", err)
	}
	defer f.Close()

	if err := unix.Ftruncate(int(f.Fd()), imageSize); err != nil {
		return fmt.Errorf("allocate efi boot image: %w", err)
	}

	fatfs, err := fat32.Create(file.New(f, false), imageSize, 0, blockSize, volumeLabel)
	if err != nil {
		return fmt.Errorf("format efi boot image: %w", err)
	}

	if err := fatfs.Mkdir("/boot"); err != nil {
		return fmt.Errorf("create boot directory in efi boot image: %w", err)
	}
	if err := copyTree(fatfs, efiTree); err != nil {
		return err
	}
	return f.Close()
}

// copyTree mirrors srcDir into the image under /efi.
func copyTree(fatfs *fat32.FileSystem, srcDir string) error {
	return filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return fatfs.Mkdir("/efi")
		}

		dest := "/efi/" + filepath.ToSlash(rel)
		if d.IsDir() {
			return fatfs.Mkdir(dest)
		}
		if staleConfig(rel) {
			return nil
		}
		return copyFileInto(fatfs, p, dest)
	})
}

// staleConfig reports whether rel names a .cfg directly under boot/.
func staleConfig(rel string) bool {
	return filepath.Dir(rel) == "boot" && strings.HasSuffix(rel, ".cfg")
}

func copyFileInto(fatfs *fat32.FileSystem, src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// Mkdir creates the full tree and tolerates existing directories.
	if err := fatfs.Mkdir(path.Dir(dest)); err != nil {
		return fmt.Errorf("create %s in efi boot image: %w", path.Dir(dest), err)
	}
	out, err := fatfs.OpenFile(dest, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return fmt.Errorf("open %s in efi boot image: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s into efi boot image: %w", dest, err)
	}
	return nil
}
