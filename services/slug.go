package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"paper-birthdays/models"
)

// DefaultSlugWords ist die Anzahl Titelwörter im Paper-Slug.
const DefaultSlugWords = 5

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// foldDiacritics zerlegt in NFD und entfernt Kombinationszeichen ("Schrödinger" -> "Schrodinger").
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify erzeugt ein URL-Token aus Kleinbuchstaben, Ziffern und Bindestrichen.
// Die Funktion ist idempotent.
func Slugify(text string) string {
	s := strings.ToLower(foldDiacritics(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// PaperSlug nimmt die ersten maxWords Titelwörter und hängt das Jahr an.
// Titel+Jahr ist nicht global eindeutig; Lookups müssen die Kandidaten des Tages durchsuchen.
func PaperSlug(p models.Paper, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultSlugWords
	}
	words := strings.Fields(p.Title)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	title := Slugify(strings.Join(words, " "))
	if title == "" {
		return fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf("%s-%d", title, p.Year)
}

// PaperURL setzt Datums-Token und Slug zu "/{date}/{slug}" zusammen.
func PaperURL(p models.Paper, dateToken string) string {
	return "/" + dateToken + "/" + PaperSlug(p, DefaultSlugWords)
}

// FindBySlug liefert das erste Paper, dessen berechneter Slug passt.
func FindBySlug(papers []models.Paper, slug string) (models.Paper, bool) {
	for _, p := range papers {
		if PaperSlug(p, DefaultSlugWords) == slug {
			return p, true
		}
	}
	return models.Paper{}, false
}
