package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/YusovID/storefront/internal/config"
	"github.com/YusovID/storefront/lib/logger/sl"
)

const commitInterval = 5 * time.Second

// Consumer читает топик группой потребителей и передаёт сообщения в out.
// Смещение сообщения фиксируется только после того, как обработчик вернул
// его через commit, поэтому необработанные сообщения будут прочитаны снова.
type Consumer struct {
	Consumer sarama.ConsumerGroup
	out      chan<- *sarama.ConsumerMessage
	commit   <-chan *sarama.ConsumerMessage
	batch    int
	log      *slog.Logger
}

func NewConsumer(
	cfg config.Kafka,
	groupID string,
	out chan<- *sarama.ConsumerMessage,
	commit <-chan *sarama.ConsumerMessage,
	log *slog.Logger,
) (*Consumer, error) {
	config := sarama.NewConfig()

	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	if cfg.Consumer.AutoOffsetReset == "earliest" {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	config.Consumer.IsolationLevel = sarama.ReadCommitted
	config.Consumer.Offsets.AutoCommit.Enable = false

	cg, err := sarama.NewConsumerGroup(cfg.BootstrapServers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("can't create consumer: %v", err)
	}

	return NewWithGroup(cg, cfg.Consumer.CommitBatch, out, commit, log), nil
}

func NewWithGroup(
	cg sarama.ConsumerGroup,
	batch int,
	out chan<- *sarama.ConsumerMessage,
	commit <-chan *sarama.ConsumerMessage,
	log *slog.Logger,
) *Consumer {
	if batch <= 0 {
		batch = 1
	}

	return &Consumer{
		Consumer: cg,
		out:      out,
		commit:   commit,
		batch:    batch,
		log:      log,
	}
}

func (c *Consumer) ProcessMessages(ctx context.Context, topic string, wg *sync.WaitGroup) {
	defer wg.Done()

	const fn = "notify.kafka.ProcessMessages"

	log := c.log.With(slog.String("fn", fn), slog.String("topic", topic))

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping message processing")
			return

		default:
			err := c.Consumer.Consume(ctx, []string{topic}, c.handler())
			if err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					log.Info("consumer group closed, exiting process messages loop")
					return
				}
				log.Error("error from consumer", sl.Err(err))
			}
		}
	}
}

func (c *Consumer) handler() *consumerHandler {
	return &consumerHandler{
		out:    c.out,
		commit: c.commit,
		batch:  c.batch,
		log:    c.log,
	}
}

func (c *Consumer) Close() error {
	return c.Consumer.Close()
}

type consumerHandler struct {
	out    chan<- *sarama.ConsumerMessage
	commit <-chan *sarama.ConsumerMessage
	batch  int
	log    *slog.Logger
}

func (h *consumerHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	marked := 0

	ticker := time.NewTicker(commitInterval)
	defer ticker.Stop()

	// pending - прочитанное, но ещё не переданное в out сообщение; пока оно
	// есть, новые сообщения из claim не читаются
	var pending *sarama.ConsumerMessage

	for {
		messages := claim.Messages()
		var out chan<- *sarama.ConsumerMessage
		if pending != nil {
			messages = nil
			out = h.out
		}

		select {
		case msg, ok := <-messages:
			if !ok {
				session.Commit()
				return nil
			}

			h.log.Debug("received message",
				slog.String("topic", msg.Topic),
				slog.Int("partition", int(msg.Partition)),
				slog.Int64("offset", msg.Offset),
			)

			pending = msg

		case out <- pending:
			pending = nil

		case msg := <-h.commit:
			session.MarkMessage(msg, "")

			marked++
			if marked >= h.batch {
				session.Commit()
				marked = 0
			}

		case <-ticker.C:
			if marked > 0 {
				session.Commit()
				marked = 0
			}

		case <-session.Context().Done():
			session.Commit()
			return nil
		}
	}
}
