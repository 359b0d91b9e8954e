package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Paper repräsentiert eine wissenschaftliche Veröffentlichung samt Metadaten.
// Die Zeilen werden von der externen Ingestion angelegt und hier nur gelesen.
type Paper struct {
	PaperID       string    `json:"id" gorm:"column:paper_id;primaryKey"`
	Title         string    `json:"title" gorm:"not null"`
	AuthorCount   int       `json:"author_count"`
	Year          int       `json:"year" gorm:"index"`
	CitationCount int       `json:"citation_count" gorm:"index"`
	FieldsOfStudy FieldTags `json:"-" gorm:"column:fields_of_study"`
	// Field ist nach dem Laden die kanonische Kategorie (siehe services.NormalizeField).
	Field    string `json:"field" gorm:"index"`
	Subfield string `json:"subfield,omitempty"`
	Venue    string `json:"venue"`
	URL      string `json:"url" gorm:"column:url"`

	// MM-DD, nur für Abonnements zwingend
	PublicationMonthDay *string `json:"publication_month_day,omitempty" gorm:"index;size:5"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}

// FieldTags ist die rohe Fachgebietsliste der Datenquelle.
// In PostgreSQL als text[] gespeichert, sonst als Array-Literal in einer Textspalte.
type FieldTags []string

// Scan implementiert sql.Scanner.
func (f *FieldTags) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*f = FieldTags(arr)
	return nil
}

// Value implementiert driver.Valuer.
func (f FieldTags) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return pq.StringArray(f).Value()
}

// GormDataType ist der allgemeine Typ; ohne ihn lehnt gorm den Slice beim Schema-Parsing ab.
func (FieldTags) GormDataType() string {
	return "text"
}

// GormDBDataType wählt den Spaltentyp je nach Dialekt.
func (FieldTags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// DailyPapers ist das Format der exportierten Tagesdateien.
type DailyPapers struct {
	Date        string  `json:"date"`
	TotalPapers int     `json:"total_papers"`
	Papers      []Paper `json:"papers"`
	LastUpdated string  `json:"last_updated,omitempty"`
}

// PaperStats bündelt globale Kennzahlen.
type PaperStats struct {
	TotalPapers int64            `json:"total_papers"`
	Fields      map[string]int64 `json:"fields"`
	MinYear     int              `json:"min_year,omitempty"`
	MaxYear     int              `json:"max_year,omitempty"`
}

// SnapshotMetadata beschreibt einen vollständigen Export (metadata.json).
type SnapshotMetadata struct {
	TotalPapers    int              `json:"total_papers"`
	DateRange      string           `json:"date_range"`
	LastFullUpdate string           `json:"last_full_update"`
	Sources        []string         `json:"sources"`
	Fields         map[string]int64 `json:"fields"`
	TotalFiles     int              `json:"total_files"`
}

// StoredObject beschreibt ein Objekt im Bucket.
type StoredObject struct {
	Key          string
	LastModified time.Time
}
