package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Errors returned by AsyncPublisher.Publish.
var (
	ErrPublisherClosed = errors.New("event publisher closed")
	ErrQueueFull       = errors.New("event queue full")
)

// AsyncConfig sizes the delivery worker pool.
type AsyncConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// AsyncPublisher queues events in memory and delivers them from a small
// worker pool so broker latency stays off the request path. Failed deliveries
// are retried with a fixed delay and dropped after MaxRetries.
type AsyncPublisher struct {
	inner      Publisher
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	queue  chan Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the workers. Close drains the queue and closes inner.
func NewAsync(inner Publisher, cfg AsyncConfig, logger *zap.Logger) *AsyncPublisher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &AsyncPublisher{
		inner:      inner,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
		queue:      make(chan Event, cfg.BufferSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Publish enqueues evt without waiting for delivery.
func (p *AsyncPublisher) Publish(ctx context.Context, evt Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	select {
	case p.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued ones and closes inner.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.inner.Close()
}

func (p *AsyncPublisher) worker() {
	defer p.wg.Done()
	for evt := range p.queue {
		p.deliver(evt)
	}
}

func (p *AsyncPublisher) deliver(evt Event) {
	for attempt := 0; ; attempt++ {
		err := p.inner.Publish(context.Background(), evt)
		if err == nil {
			return
		}
		if attempt >= p.maxRetries {
			p.logger.Error("event dropped after retries",
				zap.String("type", evt.Type),
				zap.String("request_id", evt.RequestID),
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			return
		}
		p.logger.Warn("event delivery failed, retrying",
			zap.String("type", evt.Type),
			zap.String("request_id", evt.RequestID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(p.retryDelay)
	}
}
