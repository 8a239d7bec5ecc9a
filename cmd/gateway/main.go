package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/gateway"
	"github.com/matchid-dev/appgate/pkg/logging"
)

func setupLogger() *logging.ColoredLogger {
	logger, err := logging.NewColoredLogger(logging.ComponentGeneral, true)
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	logger := setupLogger()

	// Load gateway config (file/flags/env)
	cfg, err := parseConfig(logger)
	if err != nil {
		logger.ComponentError(logging.ComponentConfig, "failed to load configuration", zap.Error(err))
		os.Exit(1)
	}

	// Re-create the logger when file output or plain output was requested.
	if cfg.LogFile != "" {
		fileLogger, err := logging.NewFileLogger(logging.ComponentGeneral, cfg.LogFile, !cfg.NoColor)
		if err != nil {
			logger.ComponentError(logging.ComponentConfig, "failed to open log file", zap.Error(err))
			os.Exit(1)
		}
		logger = fileLogger
	} else if cfg.NoColor {
		plain, err := logging.NewColoredLogger(logging.ComponentGeneral, false)
		if err == nil {
			logger = plain
		}
	}

	// Pull in file-sourced keys, then validate everything at once.
	if err := cfg.ResolveKeys(); err != nil {
		logger.ComponentError(logging.ComponentConfig, "failed to resolve app keys", zap.Error(err))
		os.Exit(1)
	}
	if errs := cfg.ValidateConfig(); len(errs) > 0 {
		for _, e := range errs {
			logger.ComponentError(logging.ComponentConfig, "invalid configuration", zap.Error(e))
		}
		os.Exit(1)
	}

	// Build shared capabilities; a missing required capability is fatal.
	deps, err := gateway.NewDependencies(logger, cfg)
	if err != nil {
		logger.ComponentError(logging.ComponentGateway, "failed to initialize dependencies", zap.Error(err))
		os.Exit(1)
	}

	g := gateway.New(logger, cfg, deps)
	defer g.Close()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: g.Routes(),
	}

	// Start server
	go func() {
		logger.ComponentInfo(logging.ComponentGateway, "gateway HTTP server starting",
			zap.String("addr", cfg.ListenAddr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ComponentError(logging.ComponentGateway, "HTTP server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.ComponentInfo(logging.ComponentGateway, "shutting down gateway HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.ComponentError(logging.ComponentGateway, "HTTP server shutdown error", zap.Error(err))
	}
	logger.ComponentInfo(logging.ComponentGateway, "gateway shutdown complete")
}
