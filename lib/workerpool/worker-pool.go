// Package workerpool ограничивает число одновременно работающих обработчиков.
//
// Пул хранит фиксированное число токенов. Handle забирает токен на время
// вызова обработчика, Wait дожидается возврата всех токенов, то есть
// завершения всех запущенных обработчиков.
package workerpool

import (
	"context"
)

const DefaultWorkersCount = 10

type Pool[Data any] struct {
	size    int
	tokens  chan struct{}
	handler func(ctx context.Context, data Data) error
}

// New создаёт пул размером size. Неположительный size заменяется на
// DefaultWorkersCount.
func New[Data any](size int, handler func(ctx context.Context, data Data) error) *Pool[Data] {
	if size <= 0 {
		size = DefaultWorkersCount
	}

	return &Pool[Data]{
		size:    size,
		tokens:  make(chan struct{}, size),
		handler: handler,
	}
}

func (p *Pool[Data]) Size() int {
	return p.size
}

// Create заполняет пул токенами. Вызывается перед каждой партией задач.
func (p *Pool[Data]) Create() {
	for range p.size {
		p.tokens <- struct{}{}
	}
}

// Handle ждёт свободный токен и вызывает обработчик. Если контекст отменён
// раньше, чем освободился токен, обработчик не вызывается.
func (p *Pool[Data]) Handle(ctx context.Context, data Data) error {
	select {
	case <-p.tokens:
	case <-ctx.Done():
		return ctx.Err()
	}

	defer func() { p.tokens <- struct{}{} }()

	return p.handler(ctx, data)
}

// Wait забирает все токены обратно.
func (p *Pool[Data]) Wait() {
	for range p.size {
		<-p.tokens
	}
}
