// cmd/integration-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/server"
)

var (
	Version    = "dev"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "integration-server",
		Short:         "BIAW integration API for Stripe, Airtable, Webflow and email",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file (defaults to ./configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and print the resolved non-secret settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration OK (%s, %s)\n", cfg.App.Name, cfg.App.Environment)
			fmt.Fprintf(out, "  port:            %d\n", cfg.Server.Port)
			fmt.Fprintf(out, "  cors origin:     %s\n", cfg.Server.AllowedOrigin)
			fmt.Fprintf(out, "  email provider:  %s\n", cfg.Email.Provider)
			fmt.Fprintf(out, "  redis:           %t\n", cfg.Redis.Enabled)
			fmt.Fprintf(out, "  alerts:          %t\n", cfg.Alerts.Enabled)
			fmt.Fprintf(out, "  reconciliation:  %d attempts, %dms..%dms\n",
				cfg.Reconciliation.MaxAttempts, cfg.Reconciliation.InitialDelay, cfg.Reconciliation.MaxDelay)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting integration server",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("emailProvider", cfg.Email.Provider),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := server.New(server.Options{
		Config:      &cfg.Server,
		ServiceName: cfg.App.Name,
		Routes:      server.BuildRoutes(cfg, app.deps, log),
		Ready:       app.Ready,
		Logger:      log,
	})

	if err := srv.Run(ctx); err != nil {
		zapLog.Error("Server stopped with error", zap.Error(err))
		return err
	}
	zapLog.Info("Integration server stopped")
	return nil
}
