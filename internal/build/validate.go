package build

import (
	"fmt"
	"strings"

	"github.com/varden/installiso/internal/cli"
	"github.com/varden/installiso/internal/command"
	"github.com/varden/installiso/internal/targetfiles"
)

// External tools the pipeline shells out to. Archive extraction and the
// EFI boot image are handled natively and need no tooling.
const (
	toolMkfsErofs   = "mkfs.erofs"
	toolMksquashfs  = "mksquashfs"
	toolGenisoimage = "genisoimage"
	toolIsohybrid   = "isohybrid"
)

// requiredTools returns the executables a run with the given container
// format needs, in check order.
func requiredTools(format cli.SystemFS) []string {
	container := toolMkfsErofs
	if format == cli.FSSquashfs {
		container = toolMksquashfs
	}
	return []string{container, toolGenisoimage, toolIsohybrid}
}

// validateTools confirms every required executable resolves on the search
// path, failing on the first that does not.
func validateTools(runner command.Runner, format cli.SystemFS) error {
	for _, tool := range requiredTools(format) {
		if _, err := runner.LookPath(tool); err != nil {
			return &EnvironmentError{Message: fmt.Sprintf("required tool %s not found on PATH", tool)}
		}
	}
	return nil
}

// maxLabelLength is the ISO-9660 volume identifier capacity; the mastering
// tool truncates longer labels.
const maxLabelLength = 32

// validateValues rejects label and cmdline values the config patcher cannot
// substitute safely, and labels the volume identifier cannot hold. Runs
// before any staging work.
func validateValues(label, cmdline string) error {
	if len(label) > maxLabelLength {
		return &InputFormatError{Message: fmt.Sprintf("label value exceeds %d bytes", maxLabelLength)}
	}
	if err := validateSubstitutionValue("label", label); err != nil {
		return err
	}
	return validateSubstitutionValue("cmdline", cmdline)
}

// openArchive opens the target-files package and confirms it carries the
// members every installer build needs. This is a structural sanity check,
// not a manifest validation.
func openArchive(path string) (*targetfiles.Archive, error) {
	archive, err := targetfiles.Open(path)
	if err != nil {
		return nil, &InputFormatError{Message: err.Error()}
	}
	if missing := archive.MissingMembers(); len(missing) > 0 {
		archive.Close()
		return nil, &InputFormatError{
			Message: fmt.Sprintf("%s does not look like a target-files package: missing %s", path, strings.Join(missing, ", ")),
		}
	}
	return archive, nil
}
