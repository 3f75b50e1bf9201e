package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/comp-calculator/internal/config"
	"github.com/iwvelando/comp-calculator/internal/server"
	"github.com/iwvelando/comp-calculator/internal/session"
	"github.com/iwvelando/comp-calculator/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comparison API server",
	Long:  "Start an HTTP server exposing the comparison, projection and tax endpoints.",
	RunE:  runServe,
}

var (
	serverConfigLocation string
	serveAddress         string
)

func init() {
	serveCmd.Flags().StringVar(&serverConfigLocation, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address override")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	conf, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	serverConf, err := server.LoadConfig(serverConfigLocation)
	if err != nil {
		return fmt.Errorf("failed to load server configuration at %s: %w", serverConfigLocation, err)
	}
	if serveAddress != "" {
		serverConf.Address = serveAddress
	}

	// Server-specific logging settings replace the calculator's.
	if serverConf.Logging != (config.LoggingConfig{}) {
		serverLogger, err := initializeLogger(serverConf.Logging, logLevelOverride)
		if err != nil {
			return fmt.Errorf("failed to initialize server logger: %w", err)
		}
		_ = logger.Sync()
		logger = serverLogger
		defer func() {
			_ = serverLogger.Sync()
		}()
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.serve"),
		)
	}

	handler := server.NewHandler(logger, server.Options{
		MaxBodySize: serverConf.BodySizeBytes(),
		Version:     version,
		Defaults:    conf,
		Sessions:    session.NewMemoryStore(logger, serverConf.SessionTTLDuration()),
	})

	httpServer := &http.Server{
		Addr:              serverConf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("op", "main.serve"),
			zap.String("address", serverConf.Address),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
