package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/internal/compiler"
	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
)

func buildCmd() *cobra.Command {
	var (
		output string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the application bundle once",
		Long: `Compile the app into the server bundle and copy public assets
into the output directory, then exit.

A build failure aborts with a non-zero exit code. Unlike watch mode,
nothing keeps running afterwards.

Examples:
  relight build
  relight build --output=dist
  relight build --mode=development`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, mode)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from relight.json)")
	cmd.Flags().StringVar(&mode, "mode", string(config.ModeProduction), "Build mode (development, production)")

	return cmd
}

func runBuild(output, mode string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if output != "" {
		// Keep the bundle inside the overridden output directory unless
		// relight.json pinned it somewhere else.
		if cfg.ServerBuildPath == filepath.Join(cfg.AssetsBuildDirectory, "server.app.json") {
			cfg.ServerBuildPath = filepath.Join(output, "server.app.json")
		}
		cfg.AssetsBuildDirectory = output
	}

	buildMode := config.Mode(mode)
	if buildMode != config.ModeDevelopment && buildMode != config.ModeProduction {
		return errors.Newf(errors.CategoryCLI, "unknown mode %q", mode)
	}

	// Clean output so the bundle never mixes with a previous build.
	if err := os.RemoveAll(cfg.OutputPath()); err != nil {
		return errors.New("E202").Wrap(err)
	}

	info("Building for %s...", buildMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = compiler.Build(ctx, cfg, compiler.BuildOptions{
		Mode: buildMode,
		OnBuildFailure: func(be *compiler.BuildError) {
			fmt.Fprint(os.Stderr, errors.FormatError(be))
		},
	})
	if err != nil {
		return err
	}

	success("Built in %s", time.Since(start).Round(time.Millisecond))
	info("Bundle: %s", cfg.ServerBuildPath)
	return nil
}
