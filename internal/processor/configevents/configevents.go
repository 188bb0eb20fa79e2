// Package configevents перечитывает конфигурацию администратора, когда
// другой экземпляр витрины сообщает о её изменении.
package configevents

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"

	"github.com/YusovID/storefront/internal/adminconfig"
	"github.com/YusovID/storefront/lib/logger/sl"
)

type Reloader interface {
	Reload(ctx context.Context) error
	Origin() string
}

type Processor struct {
	store      Reloader
	eventChan  <-chan *sarama.ConsumerMessage
	commitChan chan<- *sarama.ConsumerMessage
	log        *slog.Logger
}

func New(
	store Reloader,
	eventChan <-chan *sarama.ConsumerMessage,
	commitChan chan<- *sarama.ConsumerMessage,
	log *slog.Logger,
) *Processor {
	return &Processor{
		store:      store,
		eventChan:  eventChan,
		commitChan: commitChan,
		log:        log,
	}
}

// ProcessEvents перечитывает конфигурацию на каждое событие другого
// экземпляра. Собственные события пропускаются: их изменение уже в памяти,
// даже если запись в хранилище не удалась. Сообщение фиксируется и при
// ошибке чтения: следующее событие снова вызовет Reload.
func (p *Processor) ProcessEvents(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	const fn = "processor.configevents.ProcessEvents"
	log := p.log.With(slog.String("fn", fn))

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping processing config events by context")
			return

		case msg := <-p.eventChan:
			var ev adminconfig.Event
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				log.Warn("can't unmarshal config event", sl.Err(err), slog.Int64("offset", msg.Offset))
			}

			p.reload(ctx, log, ev)

			select {
			case p.commitChan <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Processor) reload(ctx context.Context, log *slog.Logger, ev adminconfig.Event) {
	if ev.Origin != "" && ev.Origin == p.store.Origin() {
		log.Debug("skipping own config event", slog.String("type", string(ev.Type)))
		return
	}

	if err := p.store.Reload(ctx); err != nil {
		log.Error("can't reload admin config", sl.Err(err))
		return
	}

	log.Info("admin config reloaded", slog.String("type", string(ev.Type)))
}
