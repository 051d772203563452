// Package command runs the external mastering tools the build pipeline
// shells out to.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Runner locates and executes external tools. The build pipeline depends on
// this interface so tests can substitute a stub for the real binaries.
type Runner interface {
	// LookPath reports where name resolves on PATH, or an error when it
	// does not.
	LookPath(name string) (string, error)

	// Run executes name with args, blocking until it exits. A non-zero
	// exit status is an error.
	Run(ctx context.Context, name string, args ...string) error
}

// Ensure ExecRunner satisfies the runner interface.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner executes tools on the host, forwarding their output to the
// calling terminal so mastering progress stays visible.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r *ExecRunner) logger() *slog.Logger {
	if r != nil && r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// LookPath resolves name against PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes name with args, streaming stdout and stderr through.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	r.logger().Debug("running command",
		"command", strings.Join(append([]string{name}, args...), " "),
	)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// Cancellation kills the child, which then reports a plain exit
		// error; surface the cancellation instead so callers can tell an
		// interrupt from a tool failure.
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
