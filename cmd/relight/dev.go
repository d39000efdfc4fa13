package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/devserver"
	"github.com/relight-dev/relight/internal/errors"
)

func devCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server with live reload",
		Long: `Watch the app for changes, rebuild incrementally, and push a
reload signal to connected browsers after each successful rebuild.

The dev server binds the first free port in 3000-3100, or an explicit
port from the PORT environment variable or --port. The live-reload
channel listens on devChannelPort from relight.json.

Examples:
  relight dev
  relight dev --port=8080
  relight dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on (default: scan 3000-3100)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from relight.json)")

	return cmd
}

func runDev(port int, host string) error {
	// Load .env before the config so environment overrides apply.
	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	ctrl := devserver.NewController(cfg, devserver.ControllerOptions{
		Mode: config.ModeDevelopment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return ctrl.Run(ctx)
}

// loadDotEnv loads .env from the working directory when present.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return errors.New("E400").Wrap(err)
	}
	info("Loaded environment from .env")
	return nil
}
