package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/models"
)

// MinSearchLength ist die minimale Länge einer Titelsuche.
const MinSearchLength = 3

// PaperService beantwortet die lesenden Anfragen der Website.
type PaperService struct {
	Config *config.Config
	Logger *zap.Logger
	Store  PaperStore

	now func() time.Time
}

// NewPaperService erstellt eine neue Instanz des PaperService.
func NewPaperService(cfg *config.Config, logger *zap.Logger, store PaperStore) *PaperService {
	return &PaperService{
		Config: cfg,
		Logger: logger,
		Store:  store,
		now:    time.Now,
	}
}

// LocalNow liefert die aktuelle Zeit in der konfigurierten Zeitzone.
func (s *PaperService) LocalNow() time.Time {
	loc, err := s.Config.Location()
	if err != nil {
		loc = time.UTC
	}
	return s.now().In(loc)
}

// Today liefert das Datums-Token für heute.
func (s *PaperService) Today() DateToken {
	return TokenFor(s.LocalNow())
}

// PapersForDate lädt alle Paper eines Tages ("MM-DD") mit normalisiertem Fachgebiet.
func (s *PaperService) PapersForDate(ctx context.Context, monthDay string) ([]models.Paper, error) {
	if _, err := ParseMonthDay(monthDay); err != nil {
		return nil, err
	}
	papers, err := s.Store.PapersByMonthDay(ctx, monthDay)
	if err != nil {
		s.Logger.Error("Paper query failed", zap.String("month_day", monthDay), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if len(papers) == 0 {
		return nil, ErrNoPapers
	}
	return normalizeAll(papers), nil
}

// PapersForToken parst ein Pfad-Token; ein Jahr im Token schränkt auf dieses Jahr ein.
func (s *PaperService) PapersForToken(ctx context.Context, token string) (DateToken, []models.Paper, error) {
	tok, err := ParseDateToken(token)
	if err != nil {
		return DateToken{}, nil, err
	}
	papers, err := s.PapersForDate(ctx, tok.MonthDay())
	if err != nil {
		return tok, nil, err
	}
	if tok.HasYear() {
		papers = FilterPapers(papers, Criteria{MinYear: &tok.Year, MaxYear: &tok.Year})
		if len(papers) == 0 {
			return tok, nil, ErrNoPapers
		}
	}
	return tok, papers, nil
}

// PaperBySlug durchsucht die Kandidaten des Tages nach dem berechneten Slug.
func (s *PaperService) PaperBySlug(ctx context.Context, token, slug string) (models.Paper, error) {
	_, papers, err := s.PapersForToken(ctx, token)
	if errors.Is(err, ErrNoPapers) {
		return models.Paper{}, ErrPaperNotFound
	}
	if err != nil {
		return models.Paper{}, err
	}
	p, ok := FindBySlug(papers, strings.ToLower(slug))
	if !ok {
		return models.Paper{}, ErrPaperNotFound
	}
	return p, nil
}

// RandomPaper zieht ein Paper des Tages, möglichst nicht excludeID.
func (s *PaperService) RandomPaper(ctx context.Context, monthDay, excludeID string) (models.Paper, error) {
	papers, err := s.PapersForDate(ctx, monthDay)
	if err != nil {
		return models.Paper{}, err
	}
	return PickDifferent(papers, excludeID)
}

// PapersForField filtert die Paper eines Tages auf eine Kategorie. Der Vergleich läuft über
// den Slug, so dass "computer-science" und "Computer Science" gleichwertig sind.
// Zurück kommen außerdem alle an diesem Tag vertretenen Kategorien, sortiert.
func (s *PaperService) PapersForField(ctx context.Context, monthDay, field string) ([]models.Paper, []string, error) {
	papers, err := s.PapersForDate(ctx, monthDay)
	if err != nil {
		return nil, nil, err
	}
	want := Slugify(field)
	var (
		matched   []models.Paper
		available []string
	)
	for _, p := range papers {
		if !slices.Contains(available, p.Field) {
			available = append(available, p.Field)
		}
		if Slugify(p.Field) == want {
			matched = append(matched, p)
		}
	}
	slices.Sort(available)
	if len(matched) == 0 {
		return nil, available, ErrNoPapers
	}
	return matched, available, nil
}

// Search sucht case-insensitiv in Titeln, begrenzt auf SEARCH_LIMIT Treffer.
func (s *PaperService) Search(ctx context.Context, query string) ([]models.Paper, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return nil, ErrQueryTooShort
	}
	papers, err := s.Store.SearchTitles(ctx, query, s.Config.SearchLimit)
	if err != nil {
		s.Logger.Error("Title search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return normalizeAll(papers), nil
}

// Stats liefert globale Kennzahlen.
func (s *PaperService) Stats(ctx context.Context) (models.PaperStats, error) {
	stats, err := s.Store.Stats(ctx)
	if err != nil {
		s.Logger.Error("Stats query failed", zap.Error(err))
		return models.PaperStats{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return stats, nil
}

func normalizeAll(papers []models.Paper) []models.Paper {
	out := make([]models.Paper, len(papers))
	for i, p := range papers {
		p.Field = NormalizeField(p.FieldsOfStudy)
		out[i] = p
	}
	return out
}
