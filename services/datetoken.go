package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

const (
	minTokenYear = 1900
	maxTokenYear = 2100
)

// DateToken ist ein geparstes Pfad-Token wie "dec-25" oder "dec-25-2024".
type DateToken struct {
	Month int
	Day   int
	Year  int // 0, wenn kein Jahr angegeben ist
}

// ParseDateToken parst "mon-d[d][-yyyy]". Monate außerhalb der Tabelle, Tage außerhalb 1–31
// und Jahre außerhalb [1900, 2100] werden abgelehnt.
func ParseDateToken(s string) (DateToken, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "-")
	if len(parts) != 2 && len(parts) != 3 {
		return DateToken{}, ErrInvalidDateToken
	}
	month := 0
	for i, name := range monthNames {
		if parts[0] == name {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return DateToken{}, ErrInvalidDateToken
	}
	if !isDigits(parts[1]) || len(parts[1]) > 2 {
		return DateToken{}, ErrInvalidDateToken
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return DateToken{}, ErrInvalidDateToken
	}
	tok := DateToken{Month: month, Day: day}
	if len(parts) == 3 {
		if len(parts[2]) != 4 || !isDigits(parts[2]) {
			return DateToken{}, ErrInvalidDateToken
		}
		year, err := strconv.Atoi(parts[2])
		if err != nil || year < minTokenYear || year > maxTokenYear {
			return DateToken{}, ErrInvalidDateToken
		}
		tok.Year = year
	}
	return tok, nil
}

// HasYear meldet, ob das Token ein Jahr enthält.
func (t DateToken) HasYear() bool {
	return t.Year != 0
}

// MonthDay liefert das Speicherformat "MM-DD".
func (t DateToken) MonthDay() string {
	return fmt.Sprintf("%02d-%02d", t.Month, t.Day)
}

// String liefert die kanonische Form, z.B. "dec-25" oder "dec-25-2024".
func (t DateToken) String() string {
	s := fmt.Sprintf("%s-%d", monthNames[t.Month-1], t.Day)
	if t.HasYear() {
		s += fmt.Sprintf("-%d", t.Year)
	}
	return s
}

// ParseMonthDay parst "MM-DD" in ein Token ohne Jahr.
func ParseMonthDay(md string) (DateToken, error) {
	m, d, ok := strings.Cut(md, "-")
	if !ok || len(m) != 2 || len(d) != 2 || !isDigits(m) || !isDigits(d) {
		return DateToken{}, ErrInvalidDateToken
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return DateToken{}, ErrInvalidDateToken
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 || day > 31 {
		return DateToken{}, ErrInvalidDateToken
	}
	return DateToken{Month: month, Day: day}, nil
}

// TokenFor liefert das Token (ohne Jahr) für einen Zeitpunkt.
func TokenFor(t time.Time) DateToken {
	return DateToken{Month: int(t.Month()), Day: t.Day()}
}

// DisplayDate formatiert "MM-DD" als "January 15". Ungültige Eingaben kommen unverändert zurück.
func DisplayDate(monthDay string) string {
	tok, err := ParseMonthDay(monthDay)
	if err != nil {
		return monthDay
	}
	return fmt.Sprintf("%s %d", time.Month(tok.Month), tok.Day)
}

// AllMonthDays liefert alle 366 Tage des Jahres inklusive 02-29.
func AllMonthDays() []string {
	daysInMonth := [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	out := make([]string, 0, 366)
	for m := 1; m <= 12; m++ {
		for d := 1; d <= daysInMonth[m-1]; d++ {
			out = append(out, fmt.Sprintf("%02d-%02d", m, d))
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
