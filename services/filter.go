package services

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"paper-birthdays/models"
)

// maxPickAttempts begrenzt die Versuche, ein anderes Paper als das aktuelle zu ziehen.
const maxPickAttempts = 10

// randIntN ist in Tests austauschbar.
var randIntN = rand.IntN

// Criteria beschreibt optionale, inklusive Filtergrenzen. nil bedeutet: keine Einschränkung.
type Criteria struct {
	Field        string
	MinCitations *int
	MaxCitations *int
	MinYear      *int
	MaxYear      *int
	MinAuthors   *int
	MaxAuthors   *int
}

// Matches prüft, ob ein Paper alle gesetzten Grenzen erfüllt.
func (c Criteria) Matches(p models.Paper) bool {
	if c.Field != "" && p.Field != c.Field {
		return false
	}
	return within(p.CitationCount, c.MinCitations, c.MaxCitations) &&
		within(p.Year, c.MinYear, c.MaxYear) &&
		within(p.AuthorCount, c.MinAuthors, c.MaxAuthors)
}

func within(v int, lo, hi *int) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// FilterPapers liefert die passenden Paper in Eingabereihenfolge. Die Eingabe bleibt unverändert.
func FilterPapers(papers []models.Paper, c Criteria) []models.Paper {
	out := make([]models.Paper, 0, len(papers))
	for _, p := range papers {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortKey ist das Sortierkriterium.
type SortKey string

const (
	SortByYear      SortKey = "year"
	SortByCitations SortKey = "citations"
	SortByAuthors   SortKey = "authors"
)

// SortOrder ist die Sortierrichtung.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSort validiert Schlüssel und Richtung; leere Werte ergeben citations/desc.
func ParseSort(key, order string) (SortKey, SortOrder, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(key)))
	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	if k == "" {
		k = SortByCitations
	}
	if o == "" {
		o = Descending
	}
	switch k {
	case SortByYear, SortByCitations, SortByAuthors:
	default:
		return "", "", validationError(fmt.Sprintf("unknown sort key %q", key))
	}
	switch o {
	case Ascending, Descending:
	default:
		return "", "", validationError(fmt.Sprintf("unknown sort order %q", order))
	}
	return k, o, nil
}

func sortValue(p models.Paper, key SortKey) int {
	switch key {
	case SortByYear:
		return p.Year
	case SortByAuthors:
		return p.AuthorCount
	default:
		return p.CitationCount
	}
}

// SortPapers sortiert stabil in eine neue Slice; gleiche Schlüssel behalten ihre Eingabereihenfolge.
func SortPapers(papers []models.Paper, key SortKey, order SortOrder) []models.Paper {
	out := slices.Clone(papers)
	slices.SortStableFunc(out, func(a, b models.Paper) int {
		c := cmp.Compare(sortValue(a, key), sortValue(b, key))
		if order == Descending {
			return -c
		}
		return c
	})
	return out
}

// PickRandom zieht ein Paper gleichverteilt. Eine leere Eingabe ist ein Fehler.
func PickRandom(papers []models.Paper) (models.Paper, error) {
	if len(papers) == 0 {
		return models.Paper{}, ErrNoPapers
	}
	return papers[randIntN(len(papers))], nil
}

// PickDifferent zieht ein Paper, das möglichst nicht currentID ist.
// Nach maxPickAttempts Versuchen wird eine Wiederholung akzeptiert.
func PickDifferent(papers []models.Paper, currentID string) (models.Paper, error) {
	var (
		pick models.Paper
		err  error
	)
	for range maxPickAttempts {
		pick, err = PickRandom(papers)
		if err != nil || pick.PaperID != currentID {
			return pick, err
		}
	}
	return pick, nil
}
