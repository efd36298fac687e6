package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/config"
	"github.com/garyjia/expense-approval/internal/container"
	httpapi "github.com/garyjia/expense-approval/internal/interfaces/http"
	"github.com/garyjia/expense-approval/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "expense-approval",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Expense Approval Service",
		zap.String("version", "1.0.0"),
		zap.String("driver", cfg.Database.Driver),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown error", zap.Error(err))
		}
	}()

	svc := c.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Location:     c.Location(),
	}, c.Sessions(), httpapi.Services{
		Submissions: svc.Submissions,
		Reviews:     svc.Reviews,
		Drafts:      svc.Drafts,
		Users:       svc.Users,
		Dashboard:   svc.Dashboard,
		Exports:     svc.Exports,
		Attachments: svc.Attachments,
	}, utils.NewKVLogger(logger))

	// Blocks until a signal cancels ctx, then shuts the listener down
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	logger.Info("Server exited")
}
