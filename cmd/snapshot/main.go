// Command snapshot exportiert die Tageslisten als JSON nach S3.
//
//	snapshot all     alle 366 Tage plus metadata.json
//	snapshot 12-25   nur einen Tag
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"paper-birthdays/app"
	"paper-birthdays/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: snapshot all|MM-DD")
		os.Exit(2)
	}
	target := os.Args[1]

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

	if a.Snapshots == nil {
		logging.Fatal("SNAPSHOT_S3_BUCKET not configured")
	}

	if target != "all" {
		n, err := a.Snapshots.ExportDay(ctx, target)
		if err != nil {
			logging.Error("Day export failed", zap.String("month_day", target), zap.Error(err))
			a.Close()
			os.Exit(1)
		}
		logging.Info("Day exported", zap.String("month_day", target), zap.Int("papers", n))
		return
	}

	res, err := a.Snapshots.ExportAll(ctx)
	if err != nil {
		logging.Error("Snapshot export failed", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	logging.Info("Snapshot export finished",
		zap.Int("files", res.Files),
		zap.Int("failed", res.Failed),
		zap.Int("total_papers", res.TotalPapers))
	if res.Failed > 0 {
		a.Close()
		os.Exit(1)
	}
}
