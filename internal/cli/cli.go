// Package cli resolves the raw argument list into the options a build run
// needs. The grammar predates this implementation: flags come first, the
// two-letter shorthands -il and -nl exist, and the last two remaining
// tokens are always the input archive and the output ISO path. That rules
// out standard flag parsing, so scanning is done directly on the token
// list.
package cli

import (
	"fmt"
	"strings"
)

// SystemFS identifies the system image container format.
type SystemFS string

// Filesystem container formats accepted by --system-fs.
const (
	FSErofs    SystemFS = "erofs"
	FSSquashfs SystemFS = "squashfs"
)

// Options holds the fully resolved invocation parameters. Values start from
// Defaults (possibly overridden by a defaults file) and flags override both.
type Options struct {
	Cmdline      string
	SystemFS     SystemFS
	Label        string
	InstallImage string
	Template     string
	LogLevel     string

	ArchivePath string
	OutputPath  string

	ShowHelp bool
}

// Defaults returns the built-in option values.
func Defaults() Options {
	return Options{
		SystemFS: FSErofs,
		Label:    "Android-x86",
		LogLevel: "info",
	}
}

// UsageError reports an invocation that cannot be resolved into Options.
// The caller is expected to print the usage text alongside it.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Parse scans args left to right. The first token that is not a recognized
// flag (or a flag's value) ends flag scanning; it and everything after it
// are positional, verbatim, even when they look like flags. The last two
// positional tokens are the target-files archive and the output ISO path.
//
// --help short-circuits, but only while still scanning flags.
//
// A recognized flag with a missing or empty value is a UsageError. The one
// deliberate exception is --system-fs, whose contract is that unrecognized
// values leave the default format in effect.
func Parse(args []string, defaults Options) (*Options, error) {
	opts := defaults

	var positionals []string
	i := 0
scan:
	for i < len(args) {
		switch token := args[i]; token {
		case "--help", "-h":
			opts.ShowHelp = true
			return &opts, nil
		case "--cmdline", "-c":
			value, err := flagValue(args, i, token)
			if err != nil {
				return nil, err
			}
			opts.Cmdline = value
			i += 2
		case "--system-fs", "-s":
			value, err := flagValue(args, i, token)
			if err != nil {
				return nil, err
			}
			if fs := SystemFS(value); fs == FSErofs || fs == FSSquashfs {
				opts.SystemFS = fs
			}
			i += 2
		case "--label", "-l":
			value, err := flagValue(args, i, token)
			if err != nil {
				return nil, err
			}
			opts.Label = value
			i += 2
		case "--install-location", "-il":
			value, err := flagValue(args, i, token)
			if err != nil {
				return nil, err
			}
			opts.InstallImage = value
			i += 2
		case "--newinstaller-location", "-nl":
			value, err := flagValue(args, i, token)
			if err != nil {
				return nil, err
			}
			opts.Template = value
			i += 2
		case "--log-level", "-L":
			value, err := flagValue(args, i, token)
			if err != nil {
				return nil, err
			}
			level, err := canonicalLogLevel(value)
			if err != nil {
				return nil, err
			}
			opts.LogLevel = level
			i += 2
		default:
			positionals = args[i:]
			break scan
		}
	}

	if len(positionals) < 2 {
		return nil, &UsageError{Message: "a target-files archive and an output ISO path are required"}
	}
	opts.ArchivePath = positionals[len(positionals)-2]
	opts.OutputPath = positionals[len(positionals)-1]

	return &opts, nil
}

func flagValue(args []string, i int, flag string) (string, error) {
	if i+1 >= len(args) || args[i+1] == "" {
		return "", &UsageError{Message: fmt.Sprintf("flag %s requires a value", flag)}
	}
	return args[i+1], nil
}

func canonicalLogLevel(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return "debug", nil
	case "info":
		return "info", nil
	case "warn", "warning":
		return "warn", nil
	case "error", "err":
		return "error", nil
	default:
		return "", &UsageError{Message: fmt.Sprintf("unknown log level %q", value)}
	}
}

// Usage returns the full usage text.
func Usage() string {
	return `Usage: installiso [options] <target-files.zip> <output.iso>

Build a hybrid BIOS/UEFI bootable installer ISO from an Android target-files
package.

Options:
  -c,  --cmdline <text>                kernel command line patched into the boot configs
  -s,  --system-fs <erofs|squashfs>    system image container format (default erofs)
  -l,  --label <text>                  ISO volume label (default Android-x86)
  -il, --install-location <path>       path to install.img
  -nl, --newinstaller-location <path>  path to the newinstaller template directory
  -L,  --log-level <level>             log verbosity: debug, info, warn, error
  -h,  --help                          show this help and exit

The last two arguments are always the input target-files archive and the
output ISO path. When -il or -nl is omitted, the location is guessed from
the archive's position in a build tree, then from the current directory.
`
}
