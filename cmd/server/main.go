package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/employee-management-api/internal/adapters/http/handler"
	"github.com/ogurasousui/employee-management-api/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-management-api/internal/core/audit"
	"github.com/ogurasousui/employee-management-api/internal/core/employee"
	"github.com/ogurasousui/employee-management-api/internal/platform/config"
	pg "github.com/ogurasousui/employee-management-api/internal/platform/db/postgres"
	"github.com/ogurasousui/employee-management-api/internal/platform/metrics"
	"github.com/ogurasousui/employee-management-api/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)

	recorder := audit.NewRecorder(auditRepo, nil, logger, audit.WithFailOpen(cfg.Audit.FailOpen))

	employeeSvc := employee.NewService(employeeRepo, recorder, nil, txManager, nil, employee.Policy{
		StrictDelete: cfg.Lifecycle.StrictDelete,
	})

	m := metrics.New()
	employeeHandler := handler.NewEmployeeHandler(employeeSvc, m, logger)
	auditHandler := handler.NewAuditHandler(recorder, logger)
	router := handler.NewRouter(employeeHandler, auditHandler, m, logger)

	httpServer := server.New(cfg.Server.ListenAddr, router, cfg.Server.ShutdownTimeout)

	logger.Info("HTTP server listening", "addr", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
