package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/metrics"
	"paper-birthdays/models"
)

// snapshotSources steht in metadata.json.
var snapshotSources = []string{"Semantic Scholar"}

// SnapshotResult fasst einen Export zusammen.
type SnapshotResult struct {
	Files       int `json:"files"`
	Failed      int `json:"failed"`
	TotalPapers int `json:"total_papers"`
}

// SnapshotExporter schreibt die Tagesdateien "MM-DD.json" und metadata.json in den Object Store.
type SnapshotExporter struct {
	Config  *config.Config
	Logger  *zap.Logger
	Papers  PaperStore
	Objects ObjectStore

	now func() time.Time
}

// NewSnapshotExporter erstellt eine neue Instanz des SnapshotExporter.
func NewSnapshotExporter(cfg *config.Config, logger *zap.Logger, papers PaperStore, objects ObjectStore) *SnapshotExporter {
	return &SnapshotExporter{
		Config:  cfg,
		Logger:  logger.With(zap.String("component", "snapshot")),
		Papers:  papers,
		Objects: objects,
		now:     time.Now,
	}
}

func (e *SnapshotExporter) key(name string) string {
	return path.Join(e.Config.SnapshotS3Prefix, name)
}

// ExportDay schreibt die Datei eines Tages, auch wenn der Tag keine Paper hat.
func (e *SnapshotExporter) ExportDay(ctx context.Context, monthDay string) (int, error) {
	if _, err := ParseMonthDay(monthDay); err != nil {
		return 0, err
	}
	papers, err := e.Papers.PapersByMonthDay(ctx, monthDay)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", monthDay, err)
	}
	papers = normalizeAll(papers)
	doc := models.DailyPapers{
		Date:        monthDay,
		TotalPapers: len(papers),
		Papers:      papers,
		LastUpdated: e.now().UTC().Format(time.RFC3339),
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := e.Objects.Put(ctx, e.key(monthDay+".json"), body, "application/json"); err != nil {
		return 0, fmt.Errorf("upload %s: %w", monthDay, err)
	}
	metrics.SnapshotFiles.Inc()
	e.Logger.Debug("Day file exported", zap.String("month_day", monthDay), zap.Int("papers", len(papers)))
	return len(papers), nil
}

// ExportAll schreibt alle 366 Tagesdateien und danach metadata.json.
// Fehler einzelner Tage werden gezählt und brechen den Export nicht ab.
func (e *SnapshotExporter) ExportAll(ctx context.Context) (SnapshotResult, error) {
	var res SnapshotResult
	for _, md := range AllMonthDays() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := e.ExportDay(ctx, md)
		if err != nil {
			res.Failed++
			e.Logger.Error("Day export failed", zap.String("month_day", md), zap.Error(err))
			continue
		}
		res.Files++
		res.TotalPapers += n
	}
	if err := e.ExportMetadata(ctx, res.TotalPapers); err != nil {
		return res, err
	}
	e.Logger.Info("Snapshot export finished",
		zap.Int("files", res.Files),
		zap.Int("failed", res.Failed),
		zap.Int("total_papers", res.TotalPapers))
	return res, nil
}

// ExportMetadata schreibt die globalen Kennzahlen.
func (e *SnapshotExporter) ExportMetadata(ctx context.Context, totalPapers int) error {
	stats, err := e.Papers.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	dateRange := "Unknown"
	if stats.MinYear > 0 && stats.MaxYear > 0 {
		dateRange = fmt.Sprintf("%d-%d", stats.MinYear, stats.MaxYear)
	}
	meta := models.SnapshotMetadata{
		TotalPapers:    totalPapers,
		DateRange:      dateRange,
		LastFullUpdate: e.now().UTC().Format(time.RFC3339),
		Sources:        snapshotSources,
		Fields:         stats.Fields,
		TotalFiles:     len(AllMonthDays()),
	}
	body, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return e.Objects.Put(ctx, e.key("metadata.json"), body, "application/json")
}
