package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"paper-birthdays/models"
)

// placeholderVenue markiert Datensätze ohne brauchbare Venue aus der Ingestion.
const placeholderVenue = "Unknown Venue"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PaperStore liest die Paper-Tabelle.
type PaperStore struct {
	DB *gorm.DB
}

// NewPaperStore erstellt einen neuen PaperStore.
func NewPaperStore(db *gorm.DB) *PaperStore {
	return &PaperStore{DB: db}
}

// withVenue schließt Paper ohne Venue oder mit Platzhalter aus.
func withVenue(db *gorm.DB) *gorm.DB {
	return db.Where("venue IS NOT NULL AND TRIM(venue) <> '' AND venue <> ?", placeholderVenue)
}

// PapersByMonthDay liefert die Paper eines Tages, meistzitierte zuerst.
func (s *PaperStore) PapersByMonthDay(ctx context.Context, monthDay string) ([]models.Paper, error) {
	var papers []models.Paper
	err := s.DB.WithContext(ctx).
		Scopes(withVenue).
		Where("publication_month_day = ?", monthDay).
		Order("citation_count DESC").
		Find(&papers).Error
	return papers, err
}

// SearchTitles sucht case-insensitiv nach einem Substring im Titel.
// LOWER + LIKE läuft auf Postgres und SQLite gleichermaßen.
func (s *PaperStore) SearchTitles(ctx context.Context, query string, limit int) ([]models.Paper, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	var papers []models.Paper
	err := s.DB.WithContext(ctx).
		Scopes(withVenue).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern).
		Order("citation_count DESC").
		Limit(limit).
		Find(&papers).Error
	return papers, err
}

// PaperByID liefert ein Paper oder models.ErrNotFound.
func (s *PaperStore) PaperByID(ctx context.Context, id string) (models.Paper, error) {
	var p models.Paper
	err := s.DB.WithContext(ctx).Where("paper_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Paper{}, models.ErrNotFound
	}
	return p, err
}

// Stats zählt alle Paper, die Verteilung der gespeicherten Kategorien und die Jahresspanne.
func (s *PaperStore) Stats(ctx context.Context) (models.PaperStats, error) {
	db := s.DB.WithContext(ctx)
	stats := models.PaperStats{Fields: map[string]int64{}}

	if err := db.Model(&models.Paper{}).Count(&stats.TotalPapers).Error; err != nil {
		return stats, err
	}

	var rows []struct {
		Field string
		Count int64
	}
	err := db.Model(&models.Paper{}).
		Select("field, COUNT(*) AS count").
		Where("field IS NOT NULL AND field <> ''").
		Group("field").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}
	for _, r := range rows {
		stats.Fields[r.Field] = r.Count
	}

	var span struct {
		MinYear *int
		MaxYear *int
	}
	err = db.Model(&models.Paper{}).
		Select("MIN(year) AS min_year, MAX(year) AS max_year").
		Where("year IS NOT NULL AND year > 0").
		Scan(&span).Error
	if err != nil {
		return stats, err
	}
	if span.MinYear != nil {
		stats.MinYear = *span.MinYear
	}
	if span.MaxYear != nil {
		stats.MaxYear = *span.MaxYear
	}
	return stats, nil
}
