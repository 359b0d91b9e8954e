// Package storagetest stellt eine frische SQLite-Datenbank pro Test bereit.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"paper-birthdays/models"
	"paper-birthdays/storage"
)

// NewDB öffnet eine migrierte In-Memory-Datenbank, die mit dem Test geschlossen wird.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })
	return db
}

// MonthDay liefert einen Zeiger für Paper.PublicationMonthDay; "" ergibt nil.
func MonthDay(md string) *string {
	if md == "" {
		return nil
	}
	return &md
}

// Paper baut ein vollständiges Paper mit Venue und Fachgebiet.
func Paper(id, title string, year, citations int, monthDay string) models.Paper {
	return models.Paper{
		PaperID:             id,
		Title:               title,
		AuthorCount:         3,
		Year:                year,
		CitationCount:       citations,
		FieldsOfStudy:       models.FieldTags{"Computer Science"},
		Field:               "Computer Science",
		Venue:               "NeurIPS",
		URL:                 "https://example.org/papers/" + id,
		PublicationMonthDay: MonthDay(monthDay),
	}
}

// SeedPapers schreibt die Paper direkt in die Tabelle.
func SeedPapers(t *testing.T, db *gorm.DB, papers ...models.Paper) {
	t.Helper()
	for i := range papers {
		require.NoError(t, db.Create(&papers[i]).Error)
	}
}
