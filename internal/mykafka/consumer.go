package mykafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Reader is the part of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       Reader
	workers int
	log     *slog.Logger
	// Backoff is the first pause after a failed message; it doubles up to
	// MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return NewConsumerWithReader(r, workers, log)
}

func NewConsumerWithReader(r Reader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log, Backoff: 500 * time.Millisecond, MaxBackoff: 30 * time.Second}
}

// Start fetches until ctx is cancelled. A partition is always served by the
// same worker, so its messages are handled and committed in offset order. A
// failing message is retried until it succeeds or ctx ends; later messages of
// that partition wait behind it and nothing past it is committed.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 16)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if !c.handle(ctx, h, m) {
					// ctx is done; drop the rest uncommitted.
					for range jobs {
					}
					return
				}
			}
		}(lanes[i])
	}
	defer wg.Wait()
	defer func() {
		for _, l := range lanes {
			close(l)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// handle runs h until it succeeds and commits m. It reports false when ctx
// ended first.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) bool {
	wait := c.Backoff
	for {
		err := h(ctx, m)
		if err == nil {
			break
		}
		c.log.Error("event_handle_failed", "partition", m.Partition, "offset", m.Offset, "retry_in", wait, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
		if wait *= 2; wait > c.MaxBackoff {
			wait = c.MaxBackoff
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil {
		if ctx.Err() != nil {
			return false
		}
		c.log.Error("event_commit_failed", "partition", m.Partition, "offset", m.Offset, "error", err)
	}
	return true
}
