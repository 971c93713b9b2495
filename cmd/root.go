package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/pkg/logger"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	log  *zap.Logger
	tele *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skycast",
		Short: "Weather pipeline service",
		Long:  `Backend for the skycast weather app: resolves a device position or a searched city to coordinates, fetches current conditions, a 5-day forecast and air quality, and serves the normalized bundles over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices()
		},
	}

	cmd.AddCommand(serverCmd)

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if log != nil {
			log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		}
		cancel()
	}()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Config lives in an atomic value so it can be swapped at runtime.
	config.SetConfig(cfg)

	log, err = logger.New(cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	tele, err = telemetry.New(context.Background(), cfg.Telemetry)
	if err != nil {
		log.Warn("Failed to initialize telemetry", zap.Error(err))
	}

	return nil
}
