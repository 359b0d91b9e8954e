package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-birthdays/config"
)

// DumpFunc schreibt einen SQL-Dump der Datenbank nach w.
type DumpFunc func(ctx context.Context, w io.Writer) error

// BackupService sichert die Datenbank gzip-komprimiert in den Bucket und rotiert alte Backups.
type BackupService struct {
	Config  *config.Config
	Logger  *zap.Logger
	Objects BackupStore
	Dump    DumpFunc

	now func() time.Time
}

// NewBackupService erstellt eine neue Instanz des BackupService.
func NewBackupService(cfg *config.Config, logger *zap.Logger, objects BackupStore, dump DumpFunc) *BackupService {
	return &BackupService{
		Config:  cfg,
		Logger:  logger.With(zap.String("component", "backup")),
		Objects: objects,
		Dump:    dump,
		now:     time.Now,
	}
}

// Run erstellt ein Backup und gibt den Objektschlüssel zurück. Die Rotation läuft nur nach
// erfolgreichem Upload.
func (b *BackupService) Run(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := b.Dump(ctx, gz); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("backup-%s.sql.gz", b.now().UTC().Format("2006-01-02T15-04-05Z"))
	key := path.Join(b.Config.BackupS3Prefix, name)
	if err := b.Objects.Put(ctx, key, buf.Bytes(), "application/gzip"); err != nil {
		return "", err
	}
	b.Logger.Info("Backup uploaded", zap.String("key", key), zap.Int("bytes", buf.Len()))

	if _, err := b.Rotate(ctx); err != nil {
		return key, fmt.Errorf("rotate backups: %w", err)
	}
	return key, nil
}

// Rotate behält die KEEP_BACKUPS neuesten Backups und löscht den Rest. Einzelne Löschfehler
// werden geloggt; zurück kommt die Anzahl gelöschter Objekte.
func (b *BackupService) Rotate(ctx context.Context) (int, error) {
	prefix := strings.TrimSuffix(b.Config.BackupS3Prefix, "/") + "/"
	objects, err := b.Objects.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	keep := b.Config.KeepBackups
	if keep < 1 {
		keep = 1
	}
	if len(objects) <= keep {
		b.Logger.Debug("No rotation needed", zap.Int("backups", len(objects)), zap.Int("keep", keep))
		return 0, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	deleted := 0
	for _, obj := range objects[keep:] {
		if err := b.Objects.Delete(ctx, obj.Key); err != nil {
			b.Logger.Error("Failed to delete old backup", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		b.Logger.Info("Old backup deleted", zap.String("key", obj.Key))
		deleted++
	}
	return deleted, nil
}
