package formatter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/lib/logger/sl"
)

var ErrDispatchFailed = errors.New("formatter: dispatch failed")

// Message - то, что доставляет получатель: текст для адресата и
// заказ, из которого он собран.
type Message struct {
	OrderID     string             `json:"order_id"`
	Destination string             `json:"destination"`
	Text        string             `json:"text"`
	Order       models.OrderRecord `json:"order"`
}

// Sink доставляет сообщение без гарантий. Реализации должны учитывать
// отмену ctx.
type Sink interface {
	Dispatch(ctx context.Context, msg Message) error
}

type SinkFunc func(ctx context.Context, msg Message) error

func (f SinkFunc) Dispatch(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// WhatsAppLink собирает https://wa.me/<destination>?text=<message>. Пробелы
// кодируются как %20, так их ожидает клиент WhatsApp.
func WhatsAppLink(baseURL, destination, text string) string {
	if baseURL == "" {
		baseURL = "https://wa.me/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	query := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")

	return baseURL + url.PathEscape(strings.TrimPrefix(destination, "+")) + "?text=" + query
}

type Dispatcher struct {
	destination string
	baseURL     string
	timeout     time.Duration
	sinks       []Sink
	log         *slog.Logger
}

func NewDispatcher(destination, baseURL string, timeout time.Duration, log *slog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		destination: destination,
		baseURL:     baseURL,
		timeout:     timeout,
		sinks:       sinks,
		log:         log,
	}
}

func (d *Dispatcher) Message(order models.OrderRecord) Message {
	return Message{
		OrderID:     order.OrderID,
		Destination: d.destination,
		Text:        Format(order),
		Order:       order,
	}
}

func (d *Dispatcher) Link(msg Message) string {
	return WhatsAppLink(d.baseURL, msg.Destination, msg.Text)
}

// Dispatch форматирует заказ и передаёт его всем получателям. Сообщение
// возвращается и при ошибках получателей, чтобы его можно было скопировать вручную.
func (d *Dispatcher) Dispatch(ctx context.Context, order models.OrderRecord) (Message, error) {
	const fn = "formatter.Dispatch"

	log := d.log.With(slog.String("fn", fn), slog.String("order_id", order.OrderID))

	msg := d.Message(order)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Dispatch(ctx, msg); err != nil {
			log.Error("sink failed", sl.Err(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return msg, fmt.Errorf("%w: %w", ErrDispatchFailed, errors.Join(errs...))
	}

	log.Debug("order dispatched", slog.Int("sinks", len(d.sinks)))

	return msg, nil
}
