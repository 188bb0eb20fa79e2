// Package cart хранит позиции корзины покупателя.
//
// Store держит позиции в памяти, записывает полный снапшот в хранилище после
// каждого изменения и восстанавливает его при открытии. Ошибки хранилища
// никогда не возвращаются вызывающему коду: они логируются, а корзина
// продолжает работать в памяти. Цены не кэшируются и считаются при чтении
// по текущим тарифам.
//
// Store не предназначен для конкурентного использования: одной корзиной
// в каждый момент времени управляет один покупатель.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/pricing"
	"github.com/YusovID/storefront/internal/storage"
	"github.com/YusovID/storefront/lib/logger/sl"
)

var ErrLineNotFound = errors.New("cart line not found")

type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event отправляется после добавления или удаления позиции.
type Event struct {
	Type    EventType       `json:"type"`
	Line    models.CartLine `json:"line"`
	Message string          `json:"message"`
}

type RatesFunc func() models.Rates

type Store struct {
	key    string
	kv     storage.KV
	rates  RatesFunc
	notify func(Event)
	log    *slog.Logger

	lines []models.CartLine
}

type Option func(*Store)

// WithNotifier задаёт обработчик добавления и удаления.
func WithNotifier(fn func(Event)) Option {
	return func(s *Store) {
		s.notify = fn
	}
}

// Open создаёт корзину для ключа key и пытается восстановить её снапшот.
// Отсутствующий или повреждённый снапшот даёт пустую корзину.
func Open(ctx context.Context, kv storage.KV, key string, rates RatesFunc, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		key:    key,
		kv:     kv,
		rates:  rates,
		notify: func(Event) {},
		log:    log.With(slog.String("cart", key)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.lines = s.restore(ctx)

	return s
}

type LineOption func(*models.CartLine)

func WithSeasons(seasons ...int) LineOption {
	return func(l *models.CartLine) {
		l.Series = &models.SeriesSelection{Seasons: slices.Clone(seasons)}
	}
}

func WithChapters(chapters int) LineOption {
	return func(l *models.CartLine) {
		l.Novela = &models.NovelaSelection{Chapters: chapters}
	}
}

// NewLine строит позицию с пустой выборкой, подходящей её типу.
func NewLine(ref models.CatalogItemRef, method models.PaymentMethod, opts ...LineOption) models.CartLine {
	if !method.Valid() {
		method = models.PaymentCash
	}

	line := models.CartLine{
		Item:          ref,
		PaymentMethod: method,
	}

	if ref.Kind == models.KindSeries {
		line.Series = &models.SeriesSelection{}
	}

	for _, opt := range opts {
		opt(&line)
	}

	if ref.Kind != models.KindSeries {
		line.Series = nil
	}
	if ref.Kind != models.KindNovela {
		line.Novela = nil
	}

	return line
}

// AddLine добавляет позицию, если позиции с тем же (kind, id) ещё нет.
// Повторное добавление ничего не меняет и не считается ошибкой.
// Возвращает true, если позиция была добавлена.
func (s *Store) AddLine(ctx context.Context, ref models.CatalogItemRef, method models.PaymentMethod, opts ...LineOption) (bool, error) {
	const fn = "cart.AddLine"

	line := NewLine(ref, method, opts...)

	if err := validateLine(line); err != nil {
		return false, fmt.Errorf("%s: %w", fn, err)
	}

	if s.indexOf(line.Key()) >= 0 {
		return false, nil
	}

	s.lines = append(s.lines, line)
	s.persist(ctx)

	s.notify(Event{
		Type:    EventAdded,
		Line:    line.Clone(),
		Message: fmt.Sprintf("%q agregado al carrito", line.Item.Title),
	})

	return true, nil
}

// RemoveLine удаляет позицию. Удаление отсутствующей позиции - не ошибка.
func (s *Store) RemoveLine(ctx context.Context, key models.LineKey) {
	i := s.indexOf(key)
	if i < 0 {
		return
	}

	line := s.lines[i]

	s.lines = slices.Delete(s.lines, i, i+1)
	s.persist(ctx)

	s.notify(Event{
		Type:    EventRemoved,
		Line:    line,
		Message: fmt.Sprintf("%q retirado del carrito", line.Item.Title),
	})
}

func (s *Store) SetSeasons(ctx context.Context, key models.LineKey, seasons []int) error {
	const fn = "cart.SetSeasons"

	i := s.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%s: %w: %s", fn, ErrLineNotFound, key)
	}

	if s.lines[i].Item.Kind != models.KindSeries {
		return fmt.Errorf("%s: %w: %s is not a series", fn, pricing.ErrInvalidSelection, key)
	}

	updated := s.lines[i].Clone()
	updated.Series = &models.SeriesSelection{Seasons: slices.Clone(seasons)}

	if err := validateLine(updated); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	s.lines[i] = updated
	s.persist(ctx)

	return nil
}

func (s *Store) SetPaymentMethod(ctx context.Context, key models.LineKey, method models.PaymentMethod) error {
	const fn = "cart.SetPaymentMethod"

	if !method.Valid() {
		return fmt.Errorf("%s: unknown payment method %q", fn, method)
	}

	i := s.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%s: %w: %s", fn, ErrLineNotFound, key)
	}

	s.lines[i].PaymentMethod = method
	s.persist(ctx)

	return nil
}

func (s *Store) Clear(ctx context.Context) {
	s.lines = nil
	s.persist(ctx)
}

func (s *Store) Contains(key models.LineKey) bool {
	return s.indexOf(key) >= 0
}

func (s *Store) Len() int {
	return len(s.lines)
}

// Lines возвращает копии позиций в порядке добавления.
func (s *Store) Lines() []models.CartLine {
	lines := make([]models.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		lines = append(lines, l.Clone())
	}

	return lines
}

func (s *Store) Line(key models.LineKey) (models.CartLine, bool) {
	i := s.indexOf(key)
	if i < 0 {
		return models.CartLine{}, false
	}

	return s.lines[i].Clone(), true
}

func (s *Store) Rates() models.Rates {
	return s.rates()
}

func (s *Store) Quote(line models.CartLine) (models.PriceQuote, error) {
	return pricing.QuoteLine(line, s.rates())
}

// TotalByPaymentMethod суммирует итоговые цены позиций по их способу оплаты.
func (s *Store) TotalByPaymentMethod() models.Totals {
	rates := s.rates()

	var totals models.Totals

	for _, line := range s.lines {
		q, err := pricing.QuoteLine(line, rates)
		if err != nil {
			s.log.Error("can't quote cart line", slog.String("line", line.Key().String()), sl.Err(err))
			continue
		}

		switch line.PaymentMethod {
		case models.PaymentTransfer:
			totals.Transfer += q.Final
		default:
			totals.Cash += q.Final
		}
	}

	return totals
}

func (s *Store) GrandTotal() int64 {
	return s.TotalByPaymentMethod().Sum()
}

func (s *Store) CountByKind() map[models.Kind]int {
	counts := make(map[models.Kind]int, 3)
	for _, l := range s.lines {
		counts[l.Item.Kind]++
	}

	return counts
}

func (s *Store) indexOf(key models.LineKey) int {
	return slices.IndexFunc(s.lines, func(l models.CartLine) bool {
		return l.Key() == key
	})
}

func (s *Store) persist(ctx context.Context) {
	lines := s.lines
	if lines == nil {
		lines = []models.CartLine{}
	}

	blob, err := json.Marshal(lines)
	if err != nil {
		s.log.Error("can't marshal cart", sl.Err(err))
		return
	}

	if err := s.kv.Save(ctx, s.key, blob); err != nil {
		s.log.Error("can't save cart, keeping it in memory", sl.Err(err))
	}
}

func (s *Store) restore(ctx context.Context) []models.CartLine {
	blob, err := s.kv.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Error("can't load cart, starting empty", sl.Err(err))
		return nil
	}

	var stored []models.CartLine
	if err := json.Unmarshal(blob, &stored); err != nil {
		s.log.Warn("discarding corrupt cart snapshot", sl.Err(err))
		return nil
	}

	lines := make([]models.CartLine, 0, len(stored))

	for _, l := range stored {
		l = NewLine(l.Item, l.PaymentMethod, restoreSelection(l))

		if err := validateLine(l); err != nil {
			s.log.Warn("dropping invalid cart line", slog.String("line", l.Key().String()), sl.Err(err))
			continue
		}

		if slices.ContainsFunc(lines, func(o models.CartLine) bool { return o.Key() == l.Key() }) {
			continue
		}

		lines = append(lines, l)
	}

	return lines
}

func restoreSelection(stored models.CartLine) LineOption {
	return func(l *models.CartLine) {
		if stored.Series != nil {
			l.Series = &models.SeriesSelection{Seasons: slices.Clone(stored.Series.Seasons)}
		}
		if stored.Novela != nil {
			n := *stored.Novela
			l.Novela = &n
		}
	}
}

func validateLine(l models.CartLine) error {
	if l.Item.ID <= 0 {
		return fmt.Errorf("%w: id %d", pricing.ErrInvalidSelection, l.Item.ID)
	}

	_, err := pricing.BasePrice(l.Item.Kind, pricing.SelectionOf(l), models.Rates{})

	return err
}
