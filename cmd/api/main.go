package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/obraplan/payroll-backend-go/internal/config"
	"github.com/obraplan/payroll-backend-go/internal/fixtures"
	appHTTP "github.com/obraplan/payroll-backend-go/internal/handler/http"
	"github.com/obraplan/payroll-backend-go/internal/pkg/cron"
	"github.com/obraplan/payroll-backend-go/internal/pkg/database"
	"github.com/obraplan/payroll-backend-go/internal/pkg/jwt"
	"github.com/obraplan/payroll-backend-go/internal/repository/postgresql"
	payrollService "github.com/obraplan/payroll-backend-go/internal/service/payroll"
	payrollConfigService "github.com/obraplan/payroll-backend-go/internal/service/payrollconfig"
)

const (
	appName    = "obraplan-payroll"
	appVersion = "v1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(dsn); err != nil {
			return err
		}
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	personRepo := postgresql.NewPersonRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	advanceRepo := postgresql.NewAdvanceRepository(db)
	adjustmentRepo := postgresql.NewAdjustmentRepository(db)
	configRepo := postgresql.NewPayrollConfigRepository(db)

	if cfg.Database.SeedDefaults {
		if err := payrollConfigService.Seed(ctx, configRepo, fixtures.DefaultPayrollConfig(), fixtures.DefaultAfpRates()); err != nil {
			return err
		}
	}

	runCache := payrollService.NewRunCache(cfg.Payroll.RunCacheTTL)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	configSvc := payrollConfigService.NewConfigService(configRepo, runCache)
	payrollSvc := payrollService.NewPayrollService(
		personRepo,
		attendanceRepo,
		advanceRepo,
		adjustmentRepo,
		configSvc,
		runCache,
		cfg.Payroll.MaxPageSize,
	)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc, cfg.Payroll.PageSize)
	payrollConfigHandler := appHTTP.NewPayrollConfigHandler(configSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
			RequestTimeout: cfg.App.RequestTimeout,
		},
		JWTService,
		payrollHandler,
		payrollConfigHandler,
	)

	scheduler := cron.NewScheduler(ctx)
	cron.NewPayrollJobs(runCache).RegisterJobs(scheduler, cfg.Payroll.CacheSweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
