// Command backup sichert die Abonnement-Datenbank per pg_dump in den Snapshot-Bucket
// und behält nur die KEEP_BACKUPS neuesten Dateien.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"paper-birthdays/app"
	"paper-birthdays/config"
	"paper-birthdays/services"
	"paper-birthdays/storage"
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

	if cfg.DBDriver != "postgres" {
		logging.Fatal("Backup requires DB_DRIVER=postgres", zap.String("driver", cfg.DBDriver))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objects, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	logging.Info("Starting backup", zap.String("bucket", objects.Bucket))
	backup := services.NewBackupService(cfg, logging, objects, storage.PgDump(cfg.DSN()))
	key, err := backup.Run(ctx)
	if err != nil {
		logging.Fatal("Backup failed", zap.String("key", key), zap.Error(err))
	}
	logging.Info("Backup completed", zap.String("key", key))
}
