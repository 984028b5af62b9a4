package mykafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	for {
		f.mu.Lock()
		if len(f.pending) > 0 {
			m := f.pending[0]
			f.pending = f.pending[1:]
			f.mu.Unlock()
			return m, nil
		}
		f.mu.Unlock()
		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) commits() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Message(nil), f.committed...)
}

func offsets(ms []kafka.Message, partition int) []int64 {
	var out []int64
	for _, m := range ms {
		if m.Partition == partition {
			out = append(out, m.Offset)
		}
	}
	return out
}

func newTestConsumer(r Reader, workers int) *Consumer {
	c := NewConsumerWithReader(r, workers, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Backoff = time.Millisecond
	c.MaxBackoff = 5 * time.Millisecond
	return c
}

func run(t *testing.T, c *Consumer, h Handler) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()
	return func() {
		stop()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not stop")
		}
	}
}

func TestConsumer_FailedMessageBlocksLaterCommits(t *testing.T) {
	r := &fakeReader{pending: []kafka.Message{
		{Partition: 0, Offset: 10},
		{Partition: 0, Offset: 11},
		{Partition: 0, Offset: 12},
	}}
	c := newTestConsumer(r, 4)

	var mu sync.Mutex
	var seen []int64
	failures := 3
	stop := run(t, c, func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m.Offset)
		if m.Offset == 10 && failures > 0 {
			failures--
			assert.Empty(t, r.commits(), "nothing may be committed while offset 10 fails")
			return errors.New("smtp down")
		}
		return nil
	})

	require.Eventually(t, func() bool { return len(r.commits()) == 3 }, time.Second, time.Millisecond)
	stop()

	assert.Equal(t, []int64{10, 11, 12}, offsets(r.commits(), 0))
	assert.Equal(t, []int64{10, 10, 10, 10, 11, 12}, seen)
	assert.True(t, r.closed)
}

func TestConsumer_PartitionsKeepOrder(t *testing.T) {
	var msgs []kafka.Message
	for off := int64(0); off < 20; off++ {
		msgs = append(msgs, kafka.Message{Partition: 0, Offset: off}, kafka.Message{Partition: 1, Offset: off})
	}
	r := &fakeReader{pending: msgs}
	c := newTestConsumer(r, 2)

	stop := run(t, c, func(context.Context, kafka.Message) error { return nil })
	require.Eventually(t, func() bool { return len(r.commits()) == 40 }, time.Second, time.Millisecond)
	stop()

	for p := 0; p < 2; p++ {
		got := offsets(r.commits(), p)
		require.Len(t, got, 20)
		for i := range got {
			assert.Equal(t, int64(i), got[i])
		}
	}
}

func TestConsumer_ShutdownLeavesFailingMessageUncommitted(t *testing.T) {
	r := &fakeReader{pending: []kafka.Message{{Partition: 0, Offset: 1}, {Partition: 0, Offset: 2}}}
	c := newTestConsumer(r, 1)

	attempts := make(chan struct{}, 100)
	stop := run(t, c, func(_ context.Context, m kafka.Message) error {
		if m.Offset == 1 {
			attempts <- struct{}{}
			return errors.New("still down")
		}
		return nil
	})

	<-attempts
	<-attempts
	stop()

	assert.Empty(t, r.commits())
	assert.True(t, r.closed)
}
