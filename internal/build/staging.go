package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"github.com/varden/installiso/internal/cli"
	"github.com/varden/installiso/internal/command"
	"github.com/varden/installiso/internal/efiboot"
	"github.com/varden/installiso/internal/targetfiles"
)

// Staging is the transient tree mirroring the final disc layout. One run
// owns it exclusively; Cleanup removes it on every exit path.
type Staging struct {
	Root string
}

// newStaging allocates a uniquely named staging directory next to the
// output file, so the assembled tree and the mastered image share a
// filesystem and concurrent runs cannot collide.
func newStaging(outputPath string) (*Staging, error) {
	root, err := os.MkdirTemp(filepath.Dir(outputPath), "installiso-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Staging{Root: root}, nil
}

// Path joins staging-relative path elements onto the root.
func (s *Staging) Path(elem ...string) string {
	return filepath.Join(append([]string{s.Root}, elem...)...)
}

// Cleanup removes the staging tree. Safe to call more than once.
func (s *Staging) Cleanup() error {
	if err := os.RemoveAll(s.Root); err != nil {
		return fmt.Errorf("remove staging directory %s: %w", s.Root, err)
	}
	return nil
}

// assemble populates the staging tree: extracted archive members, the
// recompressed system container, the installer template overlays, the
// install image, and the synthesized EFI boot image.
func assemble(ctx context.Context, runner command.Runner, archive *targetfiles.Archive, staging *Staging, format cli.SystemFS, installImage, template string) error {
	if err := extractMembers(archive, staging, format); err != nil {
		return err
	}
	if err := buildSystemContainer(ctx, runner, staging, format); err != nil {
		return err
	}
	if err := overlayTemplate(staging, template); err != nil {
		return err
	}
	if err := copyInstallImage(staging, installImage); err != nil {
		return err
	}
	return efiboot.Create(staging.Path("boot", "efi.img"), staging.Path("efi"))
}

// extractMembers pulls the required members out of the archive into their
// staged locations. The system image lands where the container build for
// the chosen format expects it.
func extractMembers(archive *targetfiles.Archive, staging *Staging, format cli.SystemFS) error {
	if err := archive.Extract(targetfiles.MemberKernel, staging.Path("kernel")); err != nil {
		return err
	}
	if err := archive.Extract(targetfiles.MemberInitrd, staging.Path("initrd.img")); err != nil {
		return err
	}

	// mkfs.erofs packs a directory, so the raw image gets its own
	// subdirectory and keeps its name inside the container. mksquashfs
	// packs the image file directly.
	dest := staging.Path("system.img")
	if format == cli.FSErofs {
		dest = staging.Path("system", "system.img")
	}
	return archive.Extract(targetfiles.MemberSystemImage, dest)
}

func erofsCommand(staging *Staging) []string {
	return []string{
		toolMkfsErofs,
		"-zlz4hc",
		"-C65536",
		staging.Path("system.efs"),
		staging.Path("system"),
	}
}

func squashfsCommand(staging *Staging) []string {
	return []string{
		toolMksquashfs,
		staging.Path("system.img"),
		staging.Path("system.sfs"),
		"-noappend",
		"-comp", "zstd",
	}
}

// buildSystemContainer recompresses the raw system image into the chosen
// read-only container and removes the raw intermediate.
func buildSystemContainer(ctx context.Context, runner command.Runner, staging *Staging, format cli.SystemFS) error {
	switch format {
	case cli.FSSquashfs:
		if err := runCommand(ctx, runner, squashfsCommand(staging)); err != nil {
			return err
		}
		return os.Remove(staging.Path("system.img"))
	default:
		if err := runCommand(ctx, runner, erofsCommand(staging)); err != nil {
			return err
		}
		return os.RemoveAll(staging.Path("system"))
	}
}

// overlayTemplate copies the template's boot tree and its grub2 EFI subtree
// into the staging root.
func overlayTemplate(staging *Staging, template string) error {
	if err := copy.Copy(filepath.Join(template, "boot"), staging.Path("boot")); err != nil {
		return fmt.Errorf("overlay boot tree: %w", err)
	}
	if err := copy.Copy(filepath.Join(template, "install", "grub2", "efi"), staging.Path("efi")); err != nil {
		return fmt.Errorf("overlay efi tree: %w", err)
	}
	return nil
}

func copyInstallImage(staging *Staging, src string) error {
	if err := copyFile(src, staging.Path("install.img"), 0o644); err != nil {
		return fmt.Errorf("copy install image: %w", err)
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func runCommand(ctx context.Context, runner command.Runner, argv []string) error {
	return runner.Run(ctx, argv[0], argv[1:]...)
}
