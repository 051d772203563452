package build

import (
	"context"

	"github.com/varden/installiso/internal/command"
)

// genisoimageCommand masters the staging tree into a hybrid-boot ISO: a
// BIOS El Torito entry backed by isolinux and an alternate UEFI entry
// backed by the embedded FAT image, with Joliet and Rock Ridge extensions.
func genisoimageCommand(staging *Staging, label, output string) []string {
	return []string{
		toolGenisoimage,
		"-v",
		"-J", "-U", "-R", "-T",
		"-b", "boot/isolinux/isolinux.bin",
		"-c", "boot/isolinux/boot.cat",
		"-no-emul-boot",
		"-boot-load-size", "4",
		"-boot-info-table",
		"-eltorito-alt-boot",
		"-e", "boot/efi.img",
		"-no-emul-boot",
		"-input-charset", "utf-8",
		"-V", label,
		"-o", output,
		staging.Root,
	}
}

// isohybridCommand injects the hybrid MBR/GPT structures that make the
// mastered image bootable from raw disk devices.
func isohybridCommand(output string) []string {
	return []string{toolIsohybrid, "--uefi", output}
}

// masterImage runs the mastering tool and, only when it succeeds, the UEFI
// hybridization post-processor.
func masterImage(ctx context.Context, runner command.Runner, staging *Staging, label, output string) error {
	if err := runCommand(ctx, runner, genisoimageCommand(staging, label, output)); err != nil {
		return &StageError{Stage: "master", Err: err}
	}
	if err := runCommand(ctx, runner, isohybridCommand(output)); err != nil {
		return &StageError{Stage: "hybridize", Err: err}
	}
	return nil
}
