package build

import (
	"os"
	"path/filepath"
)

// Conventional artifact locations. A target-files package produced by the
// platform build sits in obj/PACKAGING/target_files_intermediates/ under the
// product out directory: install.img lives three levels above the archive,
// and the installer template seven levels above it, at bootable/newinstaller
// in the source root. When building outside that tree, both fall back to
// paths under the current working directory.

// resolveInstallImage returns the install.img path to use. An explicit path
// must point at a regular file; otherwise the build-tree candidate is tried
// first, then the working-directory fallback.
func resolveInstallImage(explicit, archivePath string) (string, error) {
	if explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}
		return "", &ResolutionError{Location: "install.img", Candidates: []string{explicit}}
	}

	candidates := []string{
		filepath.Join(filepath.Dir(archivePath), "../../..", "install.img"),
		"install.img",
	}
	for _, candidate := range candidates {
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", &ResolutionError{Location: "install.img", Candidates: candidates}
}

// resolveTemplate returns the installer template directory to use, with the
// same explicit-or-fallback policy as resolveInstallImage.
func resolveTemplate(explicit, archivePath string) (string, error) {
	if explicit != "" {
		if isDir(explicit) {
			return explicit, nil
		}
		return "", &ResolutionError{Location: "installer template", Candidates: []string{explicit}}
	}

	candidates := []string{
		filepath.Join(filepath.Dir(archivePath), "../../../../../../..", "bootable", "newinstaller"),
		filepath.Join("bootable", "newinstaller"),
	}
	for _, candidate := range candidates {
		if isDir(candidate) {
			return candidate, nil
		}
	}
	return "", &ResolutionError{Location: "installer template", Candidates: candidates}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
