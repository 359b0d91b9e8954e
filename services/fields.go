package services

import "strings"

// FieldOther ist die Rückfallkategorie.
const FieldOther = "Other"

type fieldMapping struct {
	category string
	keywords []string
}

// fieldTable ist geordnet: die erste passende Kategorie gewinnt.
var fieldTable = []fieldMapping{
	{"Medicine", []string{"Medicine"}},
	{"Biology", []string{"Biology"}},
	{"Computer Science", []string{"Computer Science"}},
	{"Economics", []string{"Economics", "Business"}},
	{"Physics", []string{"Physics"}},
	{"Mathematics", []string{"Mathematics"}},
	{"Psychology", []string{"Psychology"}},
	{"Engineering", []string{"Engineering"}},
	{"Chemistry", []string{"Chemistry", "Materials Science"}},
	{"Environmental Science", []string{"Environmental Science", "Geology", "Geography"}},
	{"Political Science", []string{"Political Science", "Sociology"}},
	{"Art", []string{"Art"}},
	{"Philosophy", []string{"Philosophy"}},
	{"History", []string{"History"}},
}

// Categories liefert alle kanonischen Kategorien in Tabellenreihenfolge, "Other" zuletzt.
func Categories() []string {
	out := make([]string, 0, len(fieldTable)+1)
	for _, m := range fieldTable {
		out = append(out, m.category)
	}
	return append(out, FieldOther)
}

// NormalizeField bildet die rohe Fachgebietsliste auf eine kanonische Kategorie ab.
// Nur das erste Element zählt; es wird case-insensitiv als Substring gegen die Tabelle geprüft.
func NormalizeField(rawFields []string) string {
	if len(rawFields) == 0 {
		return FieldOther
	}
	primary := strings.ToLower(rawFields[0])
	for _, m := range fieldTable {
		for _, kw := range m.keywords {
			if strings.Contains(primary, strings.ToLower(kw)) {
				return m.category
			}
		}
	}
	return FieldOther
}
