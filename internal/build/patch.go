package build

import (
	"fmt"
	"os"
	"strings"
)

// Marker tokens defined by the installer template's boot configs. The
// patcher substitutes these in place; substitution values must not contain
// them, since an injected marker would be re-substituted by a later pass.
const (
	markerVersion = "VER"
	markerCmdline = "CMDLINE"
	markerLabel   = "VOL_LABEL"
	markerTitle   = "Installation CD"
)

// Patched files, relative to the staging root.
const (
	biosConfigPath = "boot/isolinux/isolinux.cfg"
	uefiConfigPath = "efi/boot/android.cfg"
)

// A substitution rewrites the first occurrence of its marker on each line.
// With keepMarker set the marker stays and the value is added after it.
type substitution struct {
	marker     string
	value      string
	keepMarker bool
}

// patchConfigs writes the version string, kernel command line, and volume
// label into the BIOS and UEFI boot configs. The BIOS title keeps its
// marker text and gains the version; everywhere else the marker is replaced
// outright. Markers absent from a file are a no-op.
func patchConfigs(staging *Staging, version, cmdline, label string) error {
	bios := []substitution{
		{marker: markerTitle, value: version, keepMarker: true},
		{marker: markerCmdline, value: cmdline},
		{marker: markerLabel, value: label},
	}
	if err := patchFile(staging.Path(biosConfigPath), bios); err != nil {
		return err
	}

	uefi := []substitution{
		{marker: markerVersion, value: version},
		{marker: markerCmdline, value: cmdline},
		{marker: markerLabel, value: label},
	}
	return patchFile(staging.Path(uefiConfigPath), uefi)
}

// patchFile rewrites path in place, applying each substitution once per
// line.
func patchFile(path string, subs []substitution) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		for _, sub := range subs {
			replacement := sub.value
			if sub.keepMarker {
				replacement = sub.marker + " " + sub.value
			}
			line = strings.Replace(line, sub.marker, replacement, 1)
		}
		lines[i] = line
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	return nil
}

// validateSubstitutionValue rejects values the line-oriented patcher cannot
// substitute safely: line breaks, and marker tokens.
func validateSubstitutionValue(name, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return &InputFormatError{Message: fmt.Sprintf("%s value must not contain line breaks", name)}
	}
	for _, marker := range []string{markerVersion, markerCmdline, markerLabel, markerTitle} {
		if strings.Contains(value, marker) {
			return &InputFormatError{Message: fmt.Sprintf("%s value contains reserved token %q", name, marker)}
		}
	}
	return nil
}
