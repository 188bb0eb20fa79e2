package adminconfig

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/YusovID/storefront/internal/models"
)

// NovelaPatch описывает частичное обновление: nil-поля не меняются.
type NovelaPatch struct {
	Title       *string `json:"title"`
	Genre       *string `json:"genre"`
	Chapters    *int    `json:"chapters"`
	Year        *int    `json:"year"`
	Country     *string `json:"country"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

func (p NovelaPatch) apply(n models.Novela) models.Novela {
	if p.Title != nil {
		n.Title = strings.TrimSpace(*p.Title)
	}
	if p.Genre != nil {
		n.Genre = *p.Genre
	}
	if p.Chapters != nil {
		n.Chapters = *p.Chapters
	}
	if p.Year != nil {
		n.Year = *p.Year
	}
	if p.Country != nil {
		n.Country = *p.Country
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Description != nil {
		n.Description = *p.Description
	}

	return n
}

// AddNovela добавляет новелу с идентификатором max(id)+1.
func (s *Store) AddNovela(ctx context.Context, n models.Novela) (models.Novela, error) {
	const fn = "adminconfig.AddNovela"

	n.Title = strings.TrimSpace(n.Title)
	if n.Status == "" {
		n.Status = models.NovelaStatusFinished
	}

	if err := s.validate.Struct(n); err != nil {
		return models.Novela{}, fmt.Errorf("%s: %w: %v", fn, ErrInvalidConfig, err)
	}

	s.mutate(ctx, EventNovelas, func(cfg *models.AdminConfig) {
		var maxID int64
		for _, existing := range cfg.Novelas {
			maxID = max(maxID, existing.ID)
		}

		n.ID = maxID + 1
		cfg.Novelas = append(cfg.Novelas, n)
	})

	return n, nil
}

func (s *Store) UpdateNovela(ctx context.Context, id int64, patch NovelaPatch) (models.Novela, error) {
	const fn = "adminconfig.UpdateNovela"

	current, ok := s.Novela(id)
	if !ok {
		return models.Novela{}, fmt.Errorf("%s: %w: %d", fn, ErrNovelaNotFound, id)
	}

	updated := patch.apply(current)
	if err := s.validate.Struct(updated); err != nil {
		return models.Novela{}, fmt.Errorf("%s: %w: %v", fn, ErrInvalidConfig, err)
	}

	var found bool
	s.mutate(ctx, EventNovelas, func(cfg *models.AdminConfig) {
		for i := range cfg.Novelas {
			if cfg.Novelas[i].ID == id {
				cfg.Novelas[i] = updated
				found = true
				return
			}
		}
	})

	if !found {
		return models.Novela{}, fmt.Errorf("%s: %w: %d", fn, ErrNovelaNotFound, id)
	}

	return updated, nil
}

func (s *Store) DeleteNovela(ctx context.Context, id int64) error {
	const fn = "adminconfig.DeleteNovela"

	if _, ok := s.Novela(id); !ok {
		return fmt.Errorf("%s: %w: %d", fn, ErrNovelaNotFound, id)
	}

	s.mutate(ctx, EventNovelas, func(cfg *models.AdminConfig) {
		i := indexOfNovela(cfg.Novelas, id)
		if i >= 0 {
			cfg.Novelas = append(cfg.Novelas[:i], cfg.Novelas[i+1:]...)
		}
	})

	return nil
}

func (s *Store) novelaIndex(id int64) int {
	return indexOfNovela(s.cfg.Novelas, id)
}

func indexOfNovela(novelas []models.Novela, id int64) int {
	for i, n := range novelas {
		if n.ID == id {
			return i
		}
	}

	return -1
}

// NovelaFilter отбирает новелы каталога. Пустые поля не участвуют в отборе.
// Текстовые сравнения не учитывают регистр и диакритику.
type NovelaFilter struct {
	Query   string
	Genre   string
	Country string
	Status  string
	Year    int
}

// Search возвращает новелы, удовлетворяющие фильтру, в порядке каталога.
func (s *Store) Search(f NovelaFilter) []models.Novela {
	novelas := s.Novelas()

	query := fold(f.Query)
	genre := fold(f.Genre)
	country := fold(f.Country)

	out := make([]models.Novela, 0, len(novelas))
	for _, n := range novelas {
		switch {
		case query != "" && !strings.Contains(fold(n.Title), query):
			continue
		case genre != "" && fold(n.Genre) != genre:
			continue
		case country != "" && fold(n.Country) != country:
			continue
		case f.Status != "" && n.Status != f.Status:
			continue
		case f.Year != 0 && n.Year != f.Year:
			continue
		}

		out = append(out, n)
	}

	return out
}

// fold приводит строку к виду для сравнения: "Corazón" и "corazon" равны.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())

	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}

	return out
}
