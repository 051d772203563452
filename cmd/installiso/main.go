package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/varden/installiso/internal/build"
	"github.com/varden/installiso/internal/cli"
	"github.com/varden/installiso/internal/config"
	"github.com/varden/installiso/internal/logging"
)

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "installiso: %s\n\n", usageErr.Message)
			fmt.Fprint(os.Stderr, cli.Usage())
			os.Exit(1)
		}
		if errors.Is(err, context.Canceled) {
			logger.Warn("build interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}
}

// newRootCommand wires the single build command. The argument grammar
// (positional trailer, -il/-nl shorthands) is handled by the resolver, so
// cobra's own flag parsing stays off.
func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	return &cobra.Command{
		Use:                "installiso [options] <target-files.zip> <output.iso>",
		Short:              "Build a hybrid BIOS/UEFI installer ISO from an Android target-files package",
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Help is resolved before the defaults file is read, so a
			// malformed file cannot block the usage text.
			opts, err := cli.Parse(args, cli.Defaults())
			if err != nil {
				return err
			}
			if opts.ShowHelp {
				fmt.Fprint(cmd.OutOrStdout(), cli.Usage())
				return nil
			}

			defaults, err := loadDefaults()
			if err != nil {
				return err
			}
			opts, err = cli.Parse(args, defaults)
			if err != nil {
				return err
			}

			levelVar.Set(logLevel(opts.LogLevel))

			builder := &build.Builder{Logger: logger}
			return builder.Run(cmd.Context(), build.Request{
				Archive:      opts.ArchivePath,
				Output:       opts.OutputPath,
				Cmdline:      opts.Cmdline,
				SystemFS:     opts.SystemFS,
				Label:        opts.Label,
				InstallImage: opts.InstallImage,
				Template:     opts.Template,
			})
		},
	}
}

// loadDefaults seeds resolver defaults from the optional per-directory
// defaults file.
func loadDefaults() (cli.Options, error) {
	cfg, err := config.Load(config.FileName)
	if err != nil {
		return cli.Options{}, err
	}
	return cfg.Options(), nil
}

// logLevel maps a canonical level name onto its slog level. The resolver
// rejects anything else before this runs.
func logLevel(value string) slog.Level {
	switch value {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
