package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/YusovID/storefront/internal/adminconfig"
	"github.com/YusovID/storefront/internal/config"
	"github.com/YusovID/storefront/internal/formatter"
	"github.com/YusovID/storefront/lib/logger/sl"
)

type Producer struct {
	Producer sarama.SyncProducer
	Log      *slog.Logger
}

func newSaramaConfig(cfg config.Kafka) *sarama.Config {
	config := sarama.NewConfig()

	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Producer.Acks)
	config.Producer.Idempotent = cfg.Producer.EnableIdempotence
	config.Producer.Retry.Max = cfg.Producer.Retries
	config.Producer.Partitioner = sarama.NewHashPartitioner

	if cfg.Producer.EnableIdempotence {
		config.Net.MaxOpenRequests = 1
	}

	return config
}

func NewProducer(cfg config.Kafka, log *slog.Logger) (*Producer, error) {
	p, err := sarama.NewSyncProducer(cfg.BootstrapServers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("can't create producer: %v", err)
	}

	return NewWithProducer(p, log), nil
}

func NewWithProducer(p sarama.SyncProducer, log *slog.Logger) *Producer {
	return &Producer{
		Producer: p,
		Log:      log,
	}
}

// Send публикует сообщение и ждёт подтверждения брокера или отмены ctx.
// При отмене ctx сообщение может всё же дойти до брокера.
func (p *Producer) Send(ctx context.Context, topic, key string, value any) error {
	const fn = "notify.kafka.Send"

	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: can't marshal message: %v", fn, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}

	done := make(chan result, 1)

	go func() {
		partition, offset, err := p.Producer.SendMessage(msg)
		done <- result{partition: partition, offset: offset, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", fn, ctx.Err())

	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("%s: can't send message: %w", fn, res.err)
		}

		p.Log.Debug("message sent successfully",
			slog.String("topic", topic),
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset),
		)

		return nil
	}
}

// OrderSink возвращает получателя заказов, который пишет их в topic.
// Ключ сообщения - идентификатор заказа.
func (p *Producer) OrderSink(topic string) formatter.Sink {
	return formatter.SinkFunc(func(ctx context.Context, msg formatter.Message) error {
		return p.Send(ctx, topic, msg.OrderID, msg)
	})
}

// ConfigEvents возвращает подписчика adminconfig.Store, публикующего
// локальные изменения конфигурации в topic. События, пришедшие через
// Reload, не публикуются повторно.
func (p *Producer) ConfigEvents(ctx context.Context, topic string) func(adminconfig.Event) {
	const fn = "notify.kafka.ConfigEvents"

	log := p.Log.With(slog.String("fn", fn))

	return func(ev adminconfig.Event) {
		if ev.Remote {
			return
		}

		if err := p.Send(ctx, topic, string(ev.Type), ev); err != nil {
			log.Error("can't publish config event", sl.Err(err), slog.String("type", string(ev.Type)))
		}
	}
}

func (p *Producer) Close() error {
	return p.Producer.Close()
}
