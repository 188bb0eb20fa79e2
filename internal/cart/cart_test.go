package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/pricing"
	"github.com/YusovID/storefront/internal/storage"
	"github.com/YusovID/storefront/internal/storage/memory"
	"github.com/YusovID/storefront/lib/logger/slogdiscard"
)

var (
	movieA  = models.CatalogItemRef{ID: 1, Kind: models.KindMovie, Title: "A"}
	seriesB = models.CatalogItemRef{ID: 2, Kind: models.KindSeries, Title: "B"}
	novelaC = models.CatalogItemRef{ID: 3, Kind: models.KindNovela, Title: "C"}
)

func defaultRates() models.Rates { return models.DefaultRates() }

func open(t *testing.T, kv storage.KV, opts ...Option) *Store {
	t.Helper()

	return Open(context.Background(), kv, "session-1", defaultRates, slogdiscard.NewDiscardLogger(), opts...)
}

type failingKV struct{}

func (failingKV) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingKV) Save(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func TestStore_AddLineDuplicateIsNoop(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	added, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddLine(ctx, movieA, models.PaymentTransfer)
	require.NoError(t, err)
	assert.False(t, added)

	require.Equal(t, 1, s.Len())
	line, ok := s.Line(movieA.Key())
	require.True(t, ok)
	assert.Equal(t, models.PaymentCash, line.PaymentMethod)
}

func TestStore_SameIDDifferentKind(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, models.CatalogItemRef{ID: 7, Kind: models.KindMovie, Title: "X"}, models.PaymentCash)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, models.CatalogItemRef{ID: 7, Kind: models.KindSeries, Title: "X"}, models.PaymentCash)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
}

func TestStore_AddLineRejectsInvalidSelection(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, novelaC, models.PaymentCash)
	require.ErrorIs(t, err, pricing.ErrInvalidSelection)

	_, err = s.AddLine(ctx, seriesB, models.PaymentCash, WithSeasons(0))
	require.ErrorIs(t, err, pricing.ErrInvalidSelection)

	_, err = s.AddLine(ctx, models.CatalogItemRef{ID: 9, Kind: "anime", Title: "Z"}, models.PaymentCash)
	require.ErrorIs(t, err, pricing.ErrInvalidSelection)

	assert.Zero(t, s.Len())
}

func TestStore_RemoveLineIdempotent(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, seriesB, models.PaymentCash)
	require.NoError(t, err)

	s.RemoveLine(ctx, movieA.Key())
	once := s.Lines()

	s.RemoveLine(ctx, movieA.Key())
	assert.Equal(t, once, s.Lines())
	assert.Equal(t, 1, s.Len())
}

func TestStore_Notifications(t *testing.T) {
	ctx := context.Background()

	var events []Event
	s := open(t, memory.New(), WithNotifier(func(e Event) { events = append(events, e) }))

	_, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	s.RemoveLine(ctx, movieA.Key())
	s.RemoveLine(ctx, movieA.Key())

	require.Len(t, events, 2)
	assert.Equal(t, EventAdded, events[0].Type)
	assert.Equal(t, `"A" agregado al carrito`, events[0].Message)
	assert.Equal(t, EventRemoved, events[1].Type)
	assert.Equal(t, `"A" retirado del carrito`, events[1].Message)
}

func TestStore_Totals(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, seriesB, models.PaymentTransfer, WithSeasons(1, 2))
	require.NoError(t, err)
	_, err = s.AddLine(ctx, novelaC, models.PaymentCash, WithChapters(100))
	require.NoError(t, err)

	totals := s.TotalByPaymentMethod()
	assert.Equal(t, models.Totals{Cash: 580, Transfer: 660}, totals)
	assert.Equal(t, int64(1240), s.GrandTotal())
	assert.Equal(t, models.PaymentTransfer, totals.Predominant())

	assert.Equal(t, map[models.Kind]int{models.KindMovie: 1, models.KindSeries: 1, models.KindNovela: 1}, s.CountByKind())
}

func TestStore_PricesFollowRates(t *testing.T) {
	ctx := context.Background()
	rates := models.DefaultRates()

	s := Open(ctx, memory.New(), "k", func() models.Rates { return rates }, slogdiscard.NewDiscardLogger())

	_, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, int64(80), s.GrandTotal())

	rates.MoviePrice = 100
	assert.Equal(t, int64(100), s.GrandTotal())
}

func TestStore_SetSeasons(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, seriesB, models.PaymentCash)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)

	require.NoError(t, s.SetSeasons(ctx, seriesB.Key(), []int{3, 1, 2}))

	line, _ := s.Line(seriesB.Key())
	assert.Equal(t, []int{1, 2, 3}, line.Seasons())
	assert.Equal(t, int64(980), s.GrandTotal())

	require.ErrorIs(t, s.SetSeasons(ctx, movieA.Key(), []int{1}), pricing.ErrInvalidSelection)
	require.ErrorIs(t, s.SetSeasons(ctx, seriesB.Key(), []int{-1}), pricing.ErrInvalidSelection)
	require.ErrorIs(t, s.SetSeasons(ctx, models.LineKey{Kind: models.KindSeries, ID: 99}, []int{1}), ErrLineNotFound)

	line, _ = s.Line(seriesB.Key())
	assert.Equal(t, []int{1, 2, 3}, line.Seasons())
}

func TestStore_SetPaymentMethod(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)

	require.NoError(t, s.SetPaymentMethod(ctx, movieA.Key(), models.PaymentTransfer))
	assert.Equal(t, models.Totals{Transfer: 88}, s.TotalByPaymentMethod())

	require.Error(t, s.SetPaymentMethod(ctx, movieA.Key(), "crypto"))
	require.ErrorIs(t, s.SetPaymentMethod(ctx, seriesB.Key(), models.PaymentCash), ErrLineNotFound)
}

func TestStore_LinesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := open(t, memory.New())

	_, err := s.AddLine(ctx, seriesB, models.PaymentCash, WithSeasons(1))
	require.NoError(t, err)

	lines := s.Lines()
	lines[0].Series.Seasons[0] = 42
	lines[0].PaymentMethod = models.PaymentTransfer

	line, _ := s.Line(seriesB.Key())
	assert.Equal(t, []int{1}, line.Seasons())
	assert.Equal(t, models.PaymentCash, line.PaymentMethod)
}

func TestStore_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	s := open(t, kv)
	_, err := s.AddLine(ctx, movieA, models.PaymentTransfer)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, seriesB, models.PaymentCash, WithSeasons(1, 2))
	require.NoError(t, err)
	_, err = s.AddLine(ctx, novelaC, models.PaymentCash, WithChapters(10))
	require.NoError(t, err)

	restored := open(t, kv)
	assert.Equal(t, s.Lines(), restored.Lines())

	restored.Clear(ctx)
	assert.Zero(t, open(t, kv).Len())
}

func TestStore_CorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Save(ctx, "session-1", []byte("{not json")))

	s := open(t, kv)
	assert.Zero(t, s.Len())
}

func TestStore_RestoreDropsInvalidAndDuplicateLines(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	snapshot := `[
		{"item":{"id":1,"kind":"movie","title":"A"}},
		{"item":{"id":1,"kind":"movie","title":"A again"},"payment_method":"transfer"},
		{"item":{"id":3,"kind":"novela","title":"C"},"novela":{"chapters":0}},
		{"item":{"id":4,"kind":"series","title":"D"},"payment_method":"transfer","series":{"seasons":[2]}}
	]`
	require.NoError(t, kv.Save(ctx, "session-1", []byte(snapshot)))

	s := open(t, kv)
	lines := s.Lines()

	require.Len(t, lines, 2)
	assert.Equal(t, models.PaymentCash, lines[0].PaymentMethod)
	assert.Equal(t, "A", lines[0].Item.Title)
	assert.Equal(t, []int{2}, lines[1].Seasons())
}

func TestStore_UnavailableStorage(t *testing.T) {
	ctx := context.Background()
	s := open(t, failingKV{})

	added, err := s.AddLine(ctx, movieA, models.PaymentCash)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, int64(80), s.GrandTotal())
}

func TestRegistry_WithCollectsEventsAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	r := NewRegistry(kv, models.DefaultRates, slogdiscard.NewDiscardLogger())

	events, err := r.With(ctx, "session-1", func(s *Store) error {
		_, err := s.AddLine(ctx, movieA, models.PaymentCash)
		return err
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventAdded, events[0].Type)

	events, err = r.With(ctx, "session-1", func(s *Store) error {
		assert.Equal(t, 1, s.Len())
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = r.With(ctx, "session-2", func(s *Store) error {
		assert.Zero(t, s.Len())
		return nil
	})
	require.NoError(t, err)
}

func TestRegistry_SerializesSameSession(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(memory.New(), models.DefaultRates, slogdiscard.NewDiscardLogger())

	wg := &sync.WaitGroup{}
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := r.With(ctx, "shared", func(s *Store) error {
				_, err := s.AddLine(ctx, models.CatalogItemRef{ID: int64(i + 1), Kind: models.KindMovie, Title: "m"}, models.PaymentCash)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := r.With(ctx, "shared", func(s *Store) error {
		assert.Equal(t, 20, s.Len())
		return nil
	})
	require.NoError(t, err)
}
