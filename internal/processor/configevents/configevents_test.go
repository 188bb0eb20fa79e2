package configevents

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YusovID/storefront/lib/logger/slogdiscard"
)

type reloader struct {
	calls atomic.Int32
	err   error
}

func (r *reloader) Reload(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func (r *reloader) Origin() string {
	return "self"
}

func run(t *testing.T, r *reloader, msgs ...*sarama.ConsumerMessage) []*sarama.ConsumerMessage {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan *sarama.ConsumerMessage, len(msgs))
	commit := make(chan *sarama.ConsumerMessage, len(msgs))

	for _, m := range msgs {
		in <- m
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go New(r, in, commit, slogdiscard.NewDiscardLogger()).ProcessEvents(ctx, wg)

	require.Eventually(t, func() bool { return len(commit) == len(msgs) }, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
	close(commit)

	var out []*sarama.ConsumerMessage
	for m := range commit {
		out = append(out, m)
	}

	return out
}

func TestProcessEvents_ReloadsAndCommits(t *testing.T) {
	r := &reloader{}

	committed := run(t, r,
		&sarama.ConsumerMessage{Offset: 0, Value: []byte(`{"type":"pricing","at":"2025-03-14T15:09:26Z"}`)},
		&sarama.ConsumerMessage{Offset: 1, Value: []byte(`not json`)},
	)

	assert.Len(t, committed, 2)
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestProcessEvents_CommitsWhenReloadFails(t *testing.T) {
	r := &reloader{err: errors.New("storage unavailable")}

	committed := run(t, r, &sarama.ConsumerMessage{Value: []byte(`{"type":"zones"}`)})

	assert.Len(t, committed, 1)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestProcessEvents_SkipsOwnEvents(t *testing.T) {
	r := &reloader{}

	committed := run(t, r,
		&sarama.ConsumerMessage{Offset: 0, Value: []byte(`{"type":"pricing","origin":"self"}`)},
		&sarama.ConsumerMessage{Offset: 1, Value: []byte(`{"type":"zones","origin":"peer"}`)},
	)

	assert.Len(t, committed, 2)
	assert.Equal(t, int32(1), r.calls.Load())
}
