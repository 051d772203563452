// Package build implements the installer image pipeline: validate the
// environment, resolve artifact locations, assemble a staging tree, patch
// the boot configs, master the hybrid ISO, and verify the result. The
// staging tree is removed on every exit path.
package build

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/varden/installiso/internal/cli"
	"github.com/varden/installiso/internal/command"
	"github.com/varden/installiso/internal/isoinspect"
	"github.com/varden/installiso/internal/logging"
)

// A Request carries the resolved configuration for one run. The pipeline
// never modifies it.
type Request struct {
	Archive  string
	Output   string
	Cmdline  string
	SystemFS cli.SystemFS
	Label    string

	// InstallImage and Template are resolved from conventional locations
	// when empty.
	InstallImage string
	Template     string
}

// Builder executes the pipeline. The zero value runs external tools on the
// host and logs through slog.Default.
type Builder struct {
	Logger *slog.Logger
	Runner command.Runner
}

func (b *Builder) logger() *slog.Logger {
	return logging.Ensure(b.Logger)
}

func (b *Builder) runner() command.Runner {
	if b.Runner != nil {
		return b.Runner
	}
	return &command.ExecRunner{Logger: b.Logger}
}

// Run executes the pipeline for one request, sequentially and fail-fast.
func (b *Builder) Run(ctx context.Context, req Request) (err error) {
	version := time.Now().Format(time.DateOnly)
	logger := b.logger().With("build_id", uuid.NewString())
	runner := b.runner()

	logger.Info("starting installer build",
		"archive", req.Archive,
		"output", req.Output,
		"system_fs", string(req.SystemFS),
		"label", req.Label,
		"version", version,
	)

	if err := validateValues(req.Label, req.Cmdline); err != nil {
		return err
	}
	if err := validateTools(runner, req.SystemFS); err != nil {
		return err
	}
	archive, err := openArchive(req.Archive)
	if err != nil {
		return err
	}
	defer archive.Close()
	logger.Debug("environment validated", "tools", requiredTools(req.SystemFS))

	installImage, err := resolveInstallImage(req.InstallImage, req.Archive)
	if err != nil {
		return err
	}
	template, err := resolveTemplate(req.Template, req.Archive)
	if err != nil {
		return err
	}
	logger.Info("resolved artifact locations",
		"install_image", installImage,
		"template", template,
	)

	staging, err := newStaging(req.Output)
	if err != nil {
		return &StageError{Stage: "assemble", Err: err}
	}
	defer func() {
		if cleanupErr := staging.Cleanup(); cleanupErr != nil {
			logger.Error("staging cleanup failed", "error", cleanupErr)
			err = errors.Join(err, cleanupErr)
		}
	}()

	logger.Info("assembling staging tree", "staging", staging.Root)
	if err := assemble(ctx, runner, archive, staging, req.SystemFS, installImage, template); err != nil {
		return &StageError{Stage: "assemble", Err: err}
	}

	if err := patchConfigs(staging, version, req.Cmdline, req.Label); err != nil {
		return &StageError{Stage: "patch", Err: err}
	}

	logger.Info("mastering hybrid image", "output", req.Output)
	if err := masterImage(ctx, runner, staging, req.Label, req.Output); err != nil {
		return err
	}

	if err := isoinspect.Verify(req.Output, req.Label, requiredImagePaths(req.SystemFS)); err != nil {
		return &StageError{Stage: "verify", Err: err}
	}

	logger.Info("installer image ready", "output", req.Output)
	return nil
}

// requiredImagePaths lists the paths a finished image must contain.
func requiredImagePaths(format cli.SystemFS) []string {
	container := "system.efs"
	if format == cli.FSSquashfs {
		container = "system.sfs"
	}
	return []string{
		"kernel",
		"initrd.img",
		"install.img",
		container,
		"boot/isolinux/isolinux.bin",
		"boot/efi.img",
	}
}
