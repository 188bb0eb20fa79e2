package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_LimitsConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	p := New(3, func(_ context.Context, _ int) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)
		running.Add(-1)

		return nil
	})

	p.Create()

	wg := &sync.WaitGroup{}
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Handle(context.Background(), i))
		}()
	}

	wg.Wait()
	p.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Positive(t, peak.Load())
}

func TestPool_ReturnsHandlerError(t *testing.T) {
	errBoom := errors.New("boom")

	p := New(1, func(context.Context, string) error { return errBoom })
	p.Create()

	require.ErrorIs(t, p.Handle(context.Background(), "x"), errBoom)
	p.Wait()
}

func TestPool_HandleRespectsContext(t *testing.T) {
	called := false

	p := New(1, func(context.Context, int) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// пул не заполнен токенами, поэтому Handle может завершиться только по контексту
	require.ErrorIs(t, p.Handle(ctx, 1), context.Canceled)
	assert.False(t, called)
}

func TestNew_DefaultSize(t *testing.T) {
	p := New(0, func(context.Context, int) error { return nil })

	assert.Equal(t, DefaultWorkersCount, p.Size())
}
