package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zapshift/internal/app"
	"zapshift/internal/core/config"
	"zapshift/internal/core/database"
	"zapshift/internal/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	appName         = "zapshift"
	shutdownTimeout = 15 * time.Second
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// @title ZapShift API
// @version 1.0
// @description Parcel booking, payment reconciliation, rider assignment and public tracking.
// @contact.name API Support
// @license.name MIT
// @host localhost:5000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServe(cmd.Context(), configPath, migrate)
		},
	}
	serve.Flags().Bool("migrate", true, "Apply pending migrations before serving")

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Parcel delivery backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())
	cmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding the .env file")

	cmd.AddCommand(serve)
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func setup(configPath string) (*config.AppConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	return database.Migrate(ctx, db, database.DialectPostgres)
}

func runServe(ctx context.Context, configPath string, migrate bool) error {
	cfg, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("version", Version),
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	a := app.New(cfg, deps)
	defer func() {
		if err := a.Close(); err != nil {
			l.Error("Failed to close clients", zap.Error(err))
		}
	}()

	if migrate {
		if err := database.Migrate(ctx, deps.DB, database.DialectPostgres); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Server.Shutdown(shutdownCtx)
}
