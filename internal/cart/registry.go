package cart

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/YusovID/storefront/internal/storage"
)

const lockStripes = 64

// Registry открывает корзины покупателей по идентификатору сессии.
// Запросы одной сессии выполняются по очереди, поэтому Store остаётся
// однопоточным.
type Registry struct {
	kv    storage.KV
	rates RatesFunc
	log   *slog.Logger

	locks [lockStripes]sync.Mutex
}

func NewRegistry(kv storage.KV, rates RatesFunc, log *slog.Logger) *Registry {
	return &Registry{
		kv:    kv,
		rates: rates,
		log:   log,
	}
}

// With открывает корзину сессии, вызывает fn и возвращает события
// добавления и удаления, случившиеся внутри fn.
func (r *Registry) With(ctx context.Context, sessionID string, fn func(s *Store) error) ([]Event, error) {
	mu := &r.locks[stripe(sessionID)]
	mu.Lock()
	defer mu.Unlock()

	var events []Event

	s := Open(ctx, r.kv, sessionID, r.rates, r.log, WithNotifier(func(ev Event) {
		events = append(events, ev)
	}))

	err := fn(s)

	return events, err
}

func stripe(sessionID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))

	return h.Sum32() % lockStripes
}
