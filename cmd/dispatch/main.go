// Command dispatch verschickt die Geburtstagsmails eines Tages einmalig, z.B. aus einem externen Cron.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"paper-birthdays/app"
	"paper-birthdays/config"
	"paper-birthdays/services"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log due emails without sending or marking them")
	date := flag.String("date", "", "day to process as MM-DD (default: today in TIMEZONE)")
	year := flag.Int("year", 0, "current year for age and sent marker (default: this year)")
	flag.Parse()

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
	defer a.Close()

	now := a.Papers.LocalNow()
	monthDay := now.Format("01-02")
	if *date != "" {
		if _, err := services.ParseMonthDay(*date); err != nil {
			logging.Fatal("Invalid -date, expected MM-DD", zap.String("date", *date))
		}
		monthDay = *date
	}
	runYear := now.Year()
	if *year != 0 {
		runYear = *year
	}
	if *dryRun {
		a.Dispatcher.DryRun = true
	}

	res, err := a.Dispatcher.Run(ctx, monthDay, runYear)
	if err != nil {
		logging.Error("Dispatch failed", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	logging.Info("Dispatch summary",
		zap.String("month_day", res.MonthDay),
		zap.Int("year", res.Year),
		zap.Int("total", res.Total),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Bool("dry_run", res.DryRun))
	if res.Failed > 0 {
		a.Close()
		os.Exit(1)
	}
}
