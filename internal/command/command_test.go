package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeTool drops an executable script named name into a fresh directory and
// returns that directory for use as PATH.
func fakeTool(t *testing.T, name, script string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return dir
}

func TestExecRunnerLookPath(t *testing.T) {
	dir := fakeTool(t, "genisoimage", "#!/bin/sh\nexit 0\n")
	t.Setenv("PATH", dir)

	runner := &ExecRunner{}
	resolved, err := runner.LookPath("genisoimage")
	if err != nil {
		t.Fatalf("LookPath() error = %v", err)
	}
	if resolved != filepath.Join(dir, "genisoimage") {
		t.Fatalf("LookPath() = %q, want %q", resolved, filepath.Join(dir, "genisoimage"))
	}

	if _, err := runner.LookPath("isohybrid"); err == nil {
		t.Fatal("LookPath() expected error for missing tool, got nil")
	}
}

func TestExecRunnerRun(t *testing.T) {
	dir := fakeTool(t, "mkfs.erofs", "#!/bin/sh\nexit 0\n")
	t.Setenv("PATH", dir)

	runner := &ExecRunner{}
	if err := runner.Run(context.Background(), "mkfs.erofs", "-zlz4hc"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestExecRunnerRunNonZeroExit(t *testing.T) {
	dir := fakeTool(t, "isohybrid", "#!/bin/sh\nexit 3\n")
	t.Setenv("PATH", dir)

	runner := &ExecRunner{}
	if err := runner.Run(context.Background(), "isohybrid", "--uefi"); err == nil {
		t.Fatal("Run() expected error for exit status 3, got nil")
	}
}

func TestExecRunnerRunCancelledContext(t *testing.T) {
	dir := fakeTool(t, "genisoimage", "#!/bin/sh\nsleep 10\n")
	t.Setenv("PATH", dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &ExecRunner{}
	err := runner.Run(ctx, "genisoimage")
	if err == nil {
		t.Fatal("Run() expected error for cancelled context, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestExecRunnerRunCancelledMidRun(t *testing.T) {
	// The fake tool must keep running until the kill arrives; PATH is
	// restricted to the fake-tool directory, so sleep needs its absolute
	// path.
	dir := fakeTool(t, "genisoimage", "#!/bin/sh\n/bin/sleep 10\n")
	t.Setenv("PATH", dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timer := time.AfterFunc(100*time.Millisecond, cancel)
	defer timer.Stop()

	// The tool is already running when the context is cancelled, so the
	// error reaching the runner is the child's kill status, not ctx.Err().
	runner := &ExecRunner{}
	err := runner.Run(ctx, "genisoimage")
	if err == nil {
		t.Fatal("Run() expected error for cancelled context, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
