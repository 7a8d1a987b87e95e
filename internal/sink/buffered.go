package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"skywatch-agent/internal/model"
)

// Buffered decouples sink delivery from the collection loop: writes
// enqueue and return immediately, a single dispatcher goroutine drains
// in FIFO order (preserving samples-before-alerts within a tick), and
// a full queue drops the batch with a log line so a slow backend can
// never block the next tick.
type Buffered struct {
	logger       *slog.Logger
	next         Sink
	queue        chan batchEnvelope
	done         chan struct{}
	writeTimeout time.Duration
	onDrop       func(batches int)

	// mu orders enqueue against Close so a write racing shutdown is
	// discarded instead of sending on the closed queue.
	mu     sync.Mutex
	closed bool
}

type batchEnvelope struct {
	samples []model.SamplePayload
	alerts  []model.AlertPayload
}

// NewBuffered starts the dispatcher. onDrop may be nil.
func NewBuffered(next Sink, size int, writeTimeout time.Duration, onDrop func(int), logger *slog.Logger) *Buffered {
	if size <= 0 {
		size = 256
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if onDrop == nil {
		onDrop = func(int) {}
	}
	b := &Buffered{
		logger:       logger,
		next:         next,
		queue:        make(chan batchEnvelope, size),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		onDrop:       onDrop,
	}
	go b.dispatch()
	return b
}

func (b *Buffered) WriteSamples(ctx context.Context, batch []model.SamplePayload) error {
	if len(batch) == 0 {
		return nil
	}
	return b.enqueue(batchEnvelope{samples: batch})
}

func (b *Buffered) WriteAlerts(ctx context.Context, batch []model.AlertPayload) error {
	if len(batch) == 0 {
		return nil
	}
	return b.enqueue(batchEnvelope{alerts: batch})
}

func (b *Buffered) enqueue(e batchEnvelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	select {
	case b.queue <- e:
		return nil
	default:
		b.logger.Warn("sink queue full, dropping batch",
			"samples", len(e.samples), "alerts", len(e.alerts))
		b.onDrop(1)
		return nil
	}
}

func (b *Buffered) dispatch() {
	defer close(b.done)
	for e := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.writeTimeout)
		if len(e.samples) > 0 {
			if err := b.next.WriteSamples(ctx, e.samples); err != nil {
				b.logger.Warn("buffered sample delivery failed", "error", err)
			}
		}
		if len(e.alerts) > 0 {
			if err := b.next.WriteAlerts(ctx, e.alerts); err != nil {
				b.logger.Warn("buffered alert delivery failed", "error", err)
			}
		}
		cancel()
	}
}

// Close drains the queue, stops the dispatcher and closes the wrapped
// sink. Writes still in flight are discarded once the flag is set.
func (b *Buffered) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	select {
	case <-b.done:
	case <-ctx.Done():
	}
	return b.next.Close(ctx)
}
