package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/config"
	"github.com/mamadbah2/prodtracker/internal/lock"
	"github.com/mamadbah2/prodtracker/internal/repository/factory"
	"github.com/mamadbah2/prodtracker/internal/scheduler"
	"github.com/mamadbah2/prodtracker/internal/server/handlers"
	"github.com/mamadbah2/prodtracker/internal/server/router"
	"github.com/mamadbah2/prodtracker/internal/service/production"
	"github.com/mamadbah2/prodtracker/internal/service/quality"
	reportingsvc "github.com/mamadbah2/prodtracker/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/prodtracker/pkg/clients/whatsapp"
	"github.com/mamadbah2/prodtracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := time.LoadLocation(cfg.Production.Timezone)
	if err != nil {
		baseLogger.Fatal("failed to load timezone", zap.String("timezone", cfg.Production.Timezone), zap.Error(err))
	}
	now := func() time.Time { return time.Now().In(loc) }

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	repo, err := factory.Open(startupCtx, cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init repository", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close repository", zap.Error(err))
		}
	}()

	var locker lock.Locker
	if cfg.Redis.Address != "" {
		rdb, err := lock.Connect(startupCtx, cfg.Redis.Address, cfg.Redis.Password)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		baseLogger.Info("redis entry locks enabled", zap.String("address", cfg.Redis.Address))
	} else {
		locker = lock.NewLocalLocker()
		baseLogger.Warn("redis address missing, entry locks are local to this process")
	}

	guard := quality.NewGuard(cfg.Production.EditWindow, now)
	productionSvc := production.NewService(repo, guard, locker, loc, now, baseLogger.Named("svc.production"))
	reportingSvc := reportingsvc.NewService(productionSvc, now, baseLogger.Named("svc.reporting"))

	productionHandler := handlers.NewProductionHandler(productionSvc, baseLogger.Named("handlers.production"))
	engine := router.New(productionHandler, cfg.Server.CORSAllowedOrigins, baseLogger.Named("router"))

	// Initialize Scheduler
	var notifier scheduler.Notifier
	if cfg.WhatsApp.DigestEnabled() {
		notifier = whatsappclient.NewNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.DigestRecipient)
		baseLogger.Info("whatsapp digest enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, daily digest disabled")
	}

	sched := scheduler.NewScheduler(scheduler.Options{
		SummarySchedule: cfg.Reporting.SummaryCronSchedule,
		DigestSchedule:  cfg.Reporting.DigestCronSchedule,
		Location:        loc,
	}, productionSvc, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Storage.Backend),
			zap.Duration("edit_window", cfg.Production.EditWindow))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
