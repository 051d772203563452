package build

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/varden/installiso/internal/cli"
	"github.com/varden/installiso/internal/targetfiles"
)

func TestRequiredTools(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format cli.SystemFS
		want   []string
	}{
		{cli.FSErofs, []string{"mkfs.erofs", "genisoimage", "isohybrid"}},
		{cli.FSSquashfs, []string{"mksquashfs", "genisoimage", "isohybrid"}},
	}
	for _, tt := range tests {
		if got := requiredTools(tt.format); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("requiredTools(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestValidateTools(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	if err := validateTools(runner, cli.FSErofs); err != nil {
		t.Fatalf("validateTools() error = %v", err)
	}
}

func TestValidateToolsMissing(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{missing: map[string]bool{toolIsohybrid: true}}
	err := validateTools(runner, cli.FSErofs)

	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("validateTools() error = %v, want *EnvironmentError", err)
	}
	if !strings.Contains(envErr.Message, toolIsohybrid) {
		t.Errorf("error %q does not name %s", envErr.Message, toolIsohybrid)
	}
}

func TestValidateToolsSkipsUnusedContainerTool(t *testing.T) {
	t.Parallel()

	// A squashfs run must not require the erofs tool, and vice versa.
	runner := &stubRunner{missing: map[string]bool{toolMkfsErofs: true}}
	if err := validateTools(runner, cli.FSSquashfs); err != nil {
		t.Fatalf("validateTools() error = %v", err)
	}
}

func TestValidateValues(t *testing.T) {
	t.Parallel()

	if err := validateValues("Android-x86 9.0", "quiet nomodeset vga=788"); err != nil {
		t.Fatalf("validateValues() error = %v", err)
	}

	var formatErr *InputFormatError
	if err := validateValues("bad\nlabel", "quiet"); !errors.As(err, &formatErr) {
		t.Errorf("validateValues() with newline label error = %v, want *InputFormatError", err)
	}
	if err := validateValues("ok", "quiet VOL_LABEL"); !errors.As(err, &formatErr) {
		t.Errorf("validateValues() with marker cmdline error = %v, want *InputFormatError", err)
	}
}

func TestValidateValuesLabelLength(t *testing.T) {
	t.Parallel()

	if err := validateValues(strings.Repeat("x", 32), "quiet"); err != nil {
		t.Fatalf("validateValues() with 32-byte label error = %v", err)
	}

	var formatErr *InputFormatError
	if err := validateValues(strings.Repeat("x", 33), "quiet"); !errors.As(err, &formatErr) {
		t.Fatalf("validateValues() with 33-byte label error = %v, want *InputFormatError", err)
	}
	if !strings.Contains(formatErr.Message, "32") {
		t.Errorf("error %q does not state the 32-byte limit", formatErr.Message)
	}
}

func TestOpenArchive(t *testing.T) {
	t.Parallel()

	archive, err := openArchive(completeArchive(t, t.TempDir()))
	if err != nil {
		t.Fatalf("openArchive() error = %v", err)
	}
	defer archive.Close()

	if !archive.Has(targetfiles.MemberKernel) {
		t.Errorf("archive is missing %s", targetfiles.MemberKernel)
	}
}

func TestOpenArchiveMissingMembers(t *testing.T) {
	t.Parallel()

	path := newArchive(t, t.TempDir(), targetfiles.MemberKernel)
	_, err := openArchive(path)

	var formatErr *InputFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("openArchive() error = %v, want *InputFormatError", err)
	}
	for _, member := range []string{targetfiles.MemberSystemImage, targetfiles.MemberInitrd} {
		if !strings.Contains(formatErr.Message, member) {
			t.Errorf("error %q does not name %s", formatErr.Message, member)
		}
	}
}

func TestOpenArchiveNotZip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not an archive"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	var formatErr *InputFormatError
	if _, err := openArchive(path); !errors.As(err, &formatErr) {
		t.Fatalf("openArchive() error = %v, want *InputFormatError", err)
	}
}
