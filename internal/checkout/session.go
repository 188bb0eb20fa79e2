package checkout

import (
	"context"
	"errors"
	"maps"

	"github.com/YusovID/storefront/internal/models"
)

var (
	ErrAlreadySubmitted = errors.New("checkout: order already submitted")
	ErrSessionClosed    = errors.New("checkout: session closed")
)

type State string

const (
	StateCollecting State = "collecting"
	StateValidating State = "validating"
	StateInvalid    State = "invalid"
	StateSubmitted  State = "submitted"
	StateClosed     State = "closed"
)

// Session - одно открытие формы заказа. Отправки принимаются, пока одна
// не пройдёт успешно, после этого сессия только возвращает созданный заказ.
type Session struct {
	o *Orchestrator

	state  State
	fields map[string]string
	order  models.OrderRecord
}

func (o *Orchestrator) Open() *Session {
	return &Session{o: o, state: StateCollecting}
}

func (s *Session) State() State {
	return s.state
}

// FieldErrors возвращает ошибки последней отклонённой отправки.
func (s *Session) FieldErrors() map[string]string {
	return maps.Clone(s.fields)
}

func (s *Session) Order() (models.OrderRecord, bool) {
	return s.order, s.state == StateSubmitted
}

func (s *Session) Submit(ctx context.Context, cart CartReader, in Input) (models.OrderRecord, error) {
	switch s.state {
	case StateSubmitted:
		return models.OrderRecord{}, ErrAlreadySubmitted
	case StateClosed:
		return models.OrderRecord{}, ErrSessionClosed
	}

	s.state = StateValidating

	order, err := s.o.Submit(ctx, cart, in)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		s.state = StateInvalid
		s.fields = maps.Clone(verr.Fields)
		return models.OrderRecord{}, err

	case err != nil:
		s.state = StateCollecting
		return models.OrderRecord{}, err
	}

	s.state = StateSubmitted
	s.fields = nil
	s.order = order

	return order, nil
}

// Close сбрасывает незавершённую форму. Созданный заказ сохраняется.
func (s *Session) Close() {
	if s.state == StateSubmitted {
		return
	}

	s.state = StateClosed
	s.fields = nil
}
