package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"paper-birthdays/app"
	"paper-birthdays/config"
	"paper-birthdays/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	logging, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logging)
	if err != nil {
		logging.Fatal("Application setup failed", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error("Shutdown cleanup failed", zap.Error(err))
		}
	}()

	// Setup Cron
	cronScheduler, err := setupCron(ctx, a)
	if err != nil {
		logging.Fatal("Cron setup failed", zap.Error(err))
	}
	cronScheduler.Start()

	handler := a.Handler()
	handler.BaseContext = ctx
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handlers.NewRouter(handler),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Failed to run server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP shutdown failed", zap.Error(err))
	}
	// Laufende Jobs zu Ende bringen, bevor Datenbank und Redis geschlossen werden.
	// ctx ist bereits abgebrochen, der Snapshot-Export bricht nach dem aktuellen Tag ab.
	jobsDone := make(chan struct{})
	go func() {
		<-cronScheduler.Stop().Done()
		handler.Wait()
		close(jobsDone)
	}()
	select {
	case <-jobsDone:
	case <-shutdownCtx.Done():
		logging.Warn("Background jobs still running at shutdown")
	}
}

// setupCron registriert den täglichen Versand und, mit Bucket, den Snapshot-Export.
// Beide Zeitpläne laufen in TIMEZONE.
func setupCron(ctx context.Context, a *app.App) (*cron.Cron, error) {
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(a.Config.DispatchCron, func() {
		now := a.Papers.LocalNow()
		monthDay := now.Format("01-02")
		a.Logger.Info("Running scheduled birthday dispatch...", zap.String("month_day", monthDay))
		res, err := a.Dispatcher.Run(ctx, monthDay, now.Year())
		if err != nil {
			a.Logger.Error("Cron dispatch failed", zap.Error(err))
			return
		}
		a.Logger.Info("Cron dispatch completed", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	})
	if err != nil {
		return nil, err
	}

	if a.Snapshots != nil {
		_, err = c.AddFunc(a.Config.SnapshotCron, func() {
			a.Logger.Info("Running scheduled snapshot export...")
			res, err := a.Snapshots.ExportAll(ctx)
			if err != nil {
				a.Logger.Error("Cron snapshot export failed", zap.Error(err))
				return
			}
			a.Logger.Info("Cron snapshot export completed", zap.Int("files", res.Files), zap.Int("failed", res.Failed))
		})
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}
